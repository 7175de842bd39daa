// Package identifiers implements the validated, totally-defined identifier
// grammars shared across the memory, tool, and agent layers: ToolId,
// MemoryKey, AgentId, SessionId, and Topic.
package identifiers

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationError reports why a raw string failed to parse into one of the
// identifier types. Exactly one of the three shapes below is populated,
// selected by Kind.
type ValidationError struct {
	Kind  ValidationErrorKind
	Input string

	// Length fields, populated when Kind == ValidationTooLong.
	Actual int
	Max    int

	// Char field, populated when Kind == ValidationInvalidChar.
	Char rune
}

// ValidationErrorKind closes the set of ways an identifier can fail to parse.
type ValidationErrorKind int

const (
	ValidationEmpty ValidationErrorKind = iota
	ValidationTooLong
	ValidationInvalidChar
)

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationEmpty:
		return "identifier is empty"
	case ValidationTooLong:
		return fmt.Sprintf("identifier %q too long: %d chars, max %d", e.Input, e.Actual, e.Max)
	case ValidationInvalidChar:
		return fmt.Sprintf("identifier %q contains invalid character %q", e.Input, e.Char)
	default:
		return "invalid identifier"
	}
}

// rules describes one identifier grammar: a maximum length and which
// punctuation characters are permitted in addition to ASCII alphanumerics.
type rules struct {
	maxLength  int
	allowDots  bool
	allowColon bool
	allowDash  bool
	allowUnder bool
}

var toolIDRules = rules{maxLength: 64, allowDash: true, allowUnder: true}
var memoryKeyRules = rules{maxLength: 128, allowDots: true, allowColon: true, allowDash: true, allowUnder: true}
var simpleIDRules = rules{maxLength: 256, allowDots: true, allowDash: true, allowUnder: true}

func (r rules) validate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &ValidationError{Kind: ValidationEmpty, Input: raw}
	}
	length := len([]rune(s))
	if length > r.maxLength {
		return "", &ValidationError{Kind: ValidationTooLong, Input: s, Actual: length, Max: r.maxLength}
	}
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			continue
		case c == '-' && r.allowDash:
			continue
		case c == '_' && r.allowUnder:
			continue
		case c == '.' && r.allowDots:
			continue
		case c == ':' && r.allowColon:
			continue
		default:
			return "", &ValidationError{Kind: ValidationInvalidChar, Input: s, Char: c}
		}
	}
	return s, nil
}

// ToolId is a validated tool name: 1..64 chars, [A-Za-z0-9_-].
type ToolId struct{ value string }

func ParseToolId(raw string) (ToolId, error) {
	v, err := toolIDRules.validate(raw)
	if err != nil {
		return ToolId{}, err
	}
	return ToolId{value: v}, nil
}

func (t ToolId) String() string { return t.value }

// MemoryKey is a validated memory key: 1..128 chars, [A-Za-z0-9_-.:].
type MemoryKey struct{ value string }

func ParseMemoryKey(raw string) (MemoryKey, error) {
	v, err := memoryKeyRules.validate(raw)
	if err != nil {
		return MemoryKey{}, err
	}
	return MemoryKey{value: v}, nil
}

func (k MemoryKey) String() string { return k.value }

// newUncheckedMemoryKey constructs a MemoryKey without validation, for the
// fixed set of well-known keys in MemoryKeys that are known by construction
// to satisfy the grammar.
func newUncheckedMemoryKey(v string) MemoryKey { return MemoryKey{value: v} }

// MemoryKeys is the closed set of infallibly-constructible well-known keys
// an agent's memory façade conventionally reads and writes.
var MemoryKeys = struct {
	LastInput           func() MemoryKey
	LastToolResult       func() MemoryKey
	Context              func() MemoryKey
	EnrichedContext       func() MemoryKey
	LatestData           func() MemoryKey
	AnalysisResults      func() MemoryKey
	AgentState           func() MemoryKey
	UserPreferences      func() MemoryKey
	SessionInfo          func() MemoryKey
	ConversationHistory  func() MemoryKey
}{
	LastInput:          func() MemoryKey { return newUncheckedMemoryKey("last_input") },
	LastToolResult:      func() MemoryKey { return newUncheckedMemoryKey("last_tool_result") },
	Context:             func() MemoryKey { return newUncheckedMemoryKey("context") },
	EnrichedContext:     func() MemoryKey { return newUncheckedMemoryKey("enriched_context") },
	LatestData:          func() MemoryKey { return newUncheckedMemoryKey("latest_data") },
	AnalysisResults:     func() MemoryKey { return newUncheckedMemoryKey("analysis_results") },
	AgentState:          func() MemoryKey { return newUncheckedMemoryKey("agent_state") },
	UserPreferences:     func() MemoryKey { return newUncheckedMemoryKey("user_preferences") },
	SessionInfo:         func() MemoryKey { return newUncheckedMemoryKey("session_info") },
	ConversationHistory: func() MemoryKey { return newUncheckedMemoryKey("conversation_history") },
}

// AgentId is a validated agent identifier: non-empty, [A-Za-z0-9_-.].
type AgentId struct{ value string }

func ParseAgentId(raw string) (AgentId, error) {
	v, err := simpleIDRules.validate(raw)
	if err != nil {
		return AgentId{}, err
	}
	return AgentId{value: v}, nil
}

func (a AgentId) String() string { return a.value }

// Topic is a validated pub/sub topic identifier: non-empty, [A-Za-z0-9_-.].
type Topic struct{ value string }

func ParseTopic(raw string) (Topic, error) {
	v, err := simpleIDRules.validate(raw)
	if err != nil {
		return Topic{}, err
	}
	return Topic{value: v}, nil
}

func (t Topic) String() string { return t.value }

// SessionId is a UUID-backed session identifier.
type SessionId struct{ value uuid.UUID }

// NewSessionId generates a fresh random session identifier.
func NewSessionId() SessionId { return SessionId{value: uuid.New()} }

// ParseSessionId validates that raw is a well-formed UUID.
func ParseSessionId(raw string) (SessionId, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return SessionId{}, &ValidationError{Kind: ValidationEmpty, Input: raw}
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return SessionId{}, &ValidationError{Kind: ValidationInvalidChar, Input: s}
	}
	return SessionId{value: id}, nil
}

func (s SessionId) String() string { return s.value.String() }
