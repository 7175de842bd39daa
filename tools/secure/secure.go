// Package secure implements SecureTool, a wrapper that composes with any
// tools.Tool to add pre-call input validation and post-call output secret
// scanning without ever relaxing the inner tool's contract.
package secure

import (
	"regexp"

	"github.com/skreaver-dev/skreaver/tools"
)

// Policy bounds and pattern-matches tool input before the inner tool runs.
type Policy struct {
	MaxInputLength   int
	ForbiddenPatterns []*regexp.Regexp
}

// DefaultPolicy bounds input to 64KiB and forbids nothing beyond that.
func DefaultPolicy() Policy {
	return Policy{MaxInputLength: 64 * 1024}
}

func (p Policy) validate(input string) error {
	if p.MaxInputLength > 0 && len(input) > p.MaxInputLength {
		return &violation{reason: "input exceeds maximum length"}
	}
	for _, re := range p.ForbiddenPatterns {
		if re.MatchString(input) {
			return &violation{reason: "input matches a forbidden pattern: " + re.String()}
		}
	}
	return nil
}

type violation struct{ reason string }

func (v *violation) Error() string { return v.reason }

// secretPatterns are the signatures Scanner checks tool output against.
// This mirrors common high-confidence secret shapes (AWS keys, generic
// bearer tokens, private key headers) rather than attempting exhaustive
// detection.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)bearer\s+[a-z0-9._-]{20,}`),
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)sk-[a-z0-9]{20,}`),
}

// Scanner detects secret-shaped content in tool output.
type Scanner struct{ patterns []*regexp.Regexp }

func NewScanner() Scanner { return Scanner{patterns: secretPatterns} }

func (s Scanner) Scan(output string) (offendingPattern string, found bool) {
	for _, re := range s.patterns {
		if re.MatchString(output) {
			return re.String(), true
		}
	}
	return "", false
}

// Tool wraps an inner tools.Tool with pre-validation and post-scan checks.
// It never relaxes the inner contract: if the inner tool can succeed, the
// wrapper succeeds iff both checks pass.
type Tool struct {
	inner   tools.Tool
	policy  Policy
	scanner Scanner
}

var _ tools.Tool = (*Tool)(nil)

func New(inner tools.Tool, policy Policy) *Tool {
	return &Tool{inner: inner, policy: policy, scanner: NewScanner()}
}

func (t *Tool) Name() string { return t.inner.Name() }

func (t *Tool) Call(input string) tools.ExecutionResult {
	if err := t.policy.validate(input); err != nil {
		return tools.Failure(tools.FailureReason{Kind: tools.ValidationFailed, Detail: err.Error()})
	}

	result := t.inner.Call(input)
	output, ok := result.Output()
	if !ok {
		return result
	}

	if pattern, found := t.scanner.Scan(output); found {
		return tools.Failure(tools.FailureReason{
			Kind:   tools.SecretInInput,
			Detail: "output matched pattern " + pattern,
		})
	}
	return result
}

// Factory wraps every tool it's given with a shared Policy, mirroring the
// reference implementation's SecureToolFactory.
type Factory struct{ policy Policy }

func NewFactory(policy Policy) Factory { return Factory{policy: policy} }

func (f Factory) Wrap(inner tools.Tool) *Tool { return New(inner, f.policy) }
