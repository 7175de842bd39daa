// Package tools implements the Tool abstraction and its in-memory registry:
// Tool, ExecutionResult, ToolCall, ToolRegistry, and the reference
// InMemoryToolRegistry with O(1) dispatch over separate Standard/Custom
// tables.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/skreaver-dev/skreaver/identifiers"
	"github.com/skreaver-dev/skreaver/telemetry"
)

// Tool is an opaque callable identified by a validated name. Call is
// synchronous; implementations with long-latency I/O block the caller's
// goroutine, and runtimes that need async behavior bridge it themselves.
type Tool interface {
	Name() string
	Call(input string) ExecutionResult
}

// FailureReasonKind closes the set of ways a tool call can fail.
type FailureReasonKind int

const (
	InvalidInput FailureReasonKind = iota
	TimeoutFailure
	InternalErrorFailure
	Unavailable
	SecretInInput
	ValidationFailed
)

// FailureReason is a structured tool failure; Message always renders a
// human-readable summary regardless of kind.
type FailureReason struct {
	Kind   FailureReasonKind
	Detail string
}

func (f FailureReason) Message() string {
	switch f.Kind {
	case InvalidInput:
		return "invalid input: " + f.Detail
	case TimeoutFailure:
		return "timed out: " + f.Detail
	case InternalErrorFailure:
		return "internal error: " + f.Detail
	case Unavailable:
		return "unavailable: " + f.Detail
	case SecretInInput:
		return "output security scan failed: " + f.Detail
	case ValidationFailed:
		return "validation failed: " + f.Detail
	default:
		return f.Detail
	}
}

// ExecutionResult is either a success carrying opaque output, or a failure
// carrying a structured reason.
type ExecutionResult struct {
	ok      bool
	output  string
	failure FailureReason
}

func Success(output string) ExecutionResult { return ExecutionResult{ok: true, output: output} }

func Failure(reason FailureReason) ExecutionResult { return ExecutionResult{ok: false, failure: reason} }

func (r ExecutionResult) IsSuccess() bool         { return r.ok }
func (r ExecutionResult) Output() (string, bool)  { return r.output, r.ok }
func (r ExecutionResult) FailureReason() (FailureReason, bool) {
	return r.failure, !r.ok
}

// StandardTool closes the set of stable, pre-registered tool names that
// dispatch via an enum key rather than a string lookup.
type StandardTool int

const (
	StandardUnknown StandardTool = iota
	StandardTextUppercase
	StandardTextReverse
	StandardHTTPGet
	StandardJSONParse
	StandardFileRead
)

var standardToolNames = map[StandardTool]string{
	StandardTextUppercase: "text_uppercase",
	StandardTextReverse:   "text_reverse",
	StandardHTTPGet:       "http_get",
	StandardJSONParse:     "json_parse",
	StandardFileRead:      "file_read",
}

var standardToolsByName = func() map[string]StandardTool {
	m := make(map[string]StandardTool, len(standardToolNames))
	for tool, name := range standardToolNames {
		m[name] = tool
	}
	return m
}()

func (s StandardTool) String() string {
	if name, ok := standardToolNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStandardTool returns (tool, true) iff name is a registered Standard
// tool name.
func ParseStandardTool(name string) (StandardTool, bool) {
	tool, ok := standardToolsByName[name]
	return tool, ok
}

// Dispatch selects between a StandardTool (enum key, O(1)) and a Custom
// tool (validated ToolId). Exactly one of Standard/Custom is meaningful,
// selected by IsStandard.
type Dispatch struct {
	IsStandard bool
	Standard   StandardTool
	Custom     identifiers.ToolId
}

func (d Dispatch) Name() string {
	if d.IsStandard {
		return d.Standard.String()
	}
	return d.Custom.String()
}

// Call is a single tool invocation: a dispatch target plus opaque input.
type Call struct {
	Dispatch Dispatch
	Input    string
}

// NewCall parses name into a Dispatch (Standard if registered, else Custom)
// and validates both name and the resulting dispatch target. input is run
// through NewValidatedInput first, ahead of any SecurityPolicy check a
// SecureTool wrapping the dispatched tool applies later.
func NewCall(name, input string) (Call, error) {
	validated, err := NewValidatedInput(input)
	if err != nil {
		return Call{}, err
	}
	if standard, ok := ParseStandardTool(name); ok {
		return Call{Dispatch: Dispatch{IsStandard: true, Standard: standard}, Input: validated.String()}, nil
	}
	id, err := identifiers.ParseToolId(name)
	if err != nil {
		return Call{}, err
	}
	return Call{Dispatch: Dispatch{Custom: id}, Input: validated.String()}, nil
}

// Registry dispatches a Call to the tool it names.
type Registry interface {
	// Dispatch looks up and runs the call's tool; ok is false iff no such
	// tool is registered.
	Dispatch(call Call) (result ExecutionResult, ok bool)
	// DispatchRef is the zero-copy hot-path variant; the reference
	// implementation is identical to Dispatch since Call is already a
	// value type with no owned allocations to avoid copying.
	DispatchRef(call *Call) (result ExecutionResult, ok bool)
	// TryDispatch is the error-typed convenience wrapper.
	TryDispatch(call *Call) (ExecutionResult, error)
}

// ErrNotFound is returned by TryDispatch when no tool matches the call's
// dispatch target.
type ErrNotFound struct{ Name string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("tool not found: %s", e.Name) }

// InMemoryRegistry is the reference Registry: separate maps for Standard and
// Custom tools, giving O(1) lookup either way. It is immutable after
// construction, so concurrent read access needs no locking.
type InMemoryRegistry struct {
	standard map[StandardTool]Tool
	custom   map[string]Tool

	logger telemetry.Logger
	guard  *telemetry.CardinalityGuard
}

var _ Registry = (*InMemoryRegistry)(nil)

// NewRegistryBuilder starts an empty, mutable builder; call Build to freeze
// it into an immutable InMemoryRegistry.
type RegistryBuilder struct {
	mu       sync.Mutex
	standard map[StandardTool]Tool
	custom   map[string]Tool
	logger   telemetry.Logger
}

func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{standard: make(map[StandardTool]Tool), custom: make(map[string]Tool)}
}

// WithLogger configures the logger the built registry uses to report
// dispatch misses and cardinality-guard rejections. When unset, the
// registry uses a noop logger.
func (b *RegistryBuilder) WithLogger(logger telemetry.Logger) *RegistryBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// WithTool registers tool under its own Name(), auto-detecting whether the
// name is a Standard tool or a Custom one. Returns an error if the name
// fails ToolId validation and isn't a registered Standard name.
func (b *RegistryBuilder) WithTool(tool Tool) (*RegistryBuilder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	name := tool.Name()
	if standard, ok := ParseStandardTool(name); ok {
		b.standard[standard] = tool
		return b, nil
	}
	if _, err := identifiers.ParseToolId(name); err != nil {
		return b, err
	}
	b.custom[name] = tool
	return b, nil
}

// WithStandardTool explicitly registers tool under a StandardTool key,
// bypassing name-based detection.
func (b *RegistryBuilder) WithStandardTool(key StandardTool, tool Tool) *RegistryBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.standard[key] = tool
	return b
}

func (b *RegistryBuilder) Build() *InMemoryRegistry {
	b.mu.Lock()
	defer b.mu.Unlock()
	standard := make(map[StandardTool]Tool, len(b.standard))
	for k, v := range b.standard {
		standard[k] = v
	}
	custom := make(map[string]Tool, len(b.custom))
	for k, v := range b.custom {
		custom[k] = v
	}
	logger := b.logger
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	return &InMemoryRegistry{
		standard: standard,
		custom:   custom,
		logger:   logger,
		guard:    telemetry.NewCardinalityGuard(),
	}
}

func (r *InMemoryRegistry) Dispatch(call Call) (ExecutionResult, bool) {
	return r.DispatchRef(&call)
}

func (r *InMemoryRegistry) DispatchRef(call *Call) (ExecutionResult, bool) {
	var tool Tool
	var ok bool
	if call.Dispatch.IsStandard {
		tool, ok = r.standard[call.Dispatch.Standard]
	} else {
		tool, ok = r.custom[call.Dispatch.Custom.String()]
	}
	if !ok {
		return ExecutionResult{}, false
	}

	name := call.Dispatch.Name()
	if r.guard != nil {
		if err := r.guard.Check(telemetry.DimensionToolName, name); err != nil {
			r.logger.Warn(context.Background(), "tool name cardinality bound exceeded, dispatching without a tracked label", "tool_name", name, "error", err.Error())
		}
	}

	return tool.Call(call.Input), true
}

func (r *InMemoryRegistry) TryDispatch(call *Call) (ExecutionResult, error) {
	result, ok := r.DispatchRef(call)
	if !ok {
		return ExecutionResult{}, &ErrNotFound{Name: call.Dispatch.Name()}
	}
	return result, nil
}
