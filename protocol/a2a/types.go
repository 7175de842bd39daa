// Package a2a implements the Agent-to-Agent protocol's task/message/artifact
// data model: a stateful Task with a terminal lifecycle, Messages composed
// of typed Parts, and capability-advertising AgentCards.
package a2a

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Role closes the set of message senders.
type Role int

const (
	RoleUser Role = iota
	RoleAgent
	RoleSystem
)

func (r Role) MarshalJSON() ([]byte, error) {
	switch r {
	case RoleUser:
		return json.Marshal("user")
	case RoleAgent:
		return json.Marshal("agent")
	case RoleSystem:
		return json.Marshal("system")
	default:
		return nil, fmt.Errorf("unknown role %d", r)
	}
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "user":
		*r = RoleUser
	case "agent":
		*r = RoleAgent
	case "system":
		*r = RoleSystem
	default:
		return fmt.Errorf("unknown role %q", s)
	}
	return nil
}

// PartKind closes the set of message/artifact part shapes.
type PartKind int

const (
	PartText PartKind = iota
	PartFile
	PartData
	// PartToolCall and PartToolResult are bridge-specific extensions to the
	// core A2A part union (see protocol/bridge), used to carry an MCP tool
	// invocation and its outcome across the wire as an ordinary message
	// part rather than a side channel.
	PartToolCall
	PartToolResult
)

// Part is an externally-tagged union over
// {"type": "text"|"file"|"data"|"tool-call"|"tool-result", ...}.
type Part struct {
	Kind PartKind

	// Text is populated iff Kind == PartText.
	Text string

	// File fields, populated iff Kind == PartFile.
	FileURI  string
	FileMime string

	// Data fields, populated iff Kind == PartData.
	DataJSON json.RawMessage
	DataMime string

	// ToolCall fields, populated iff Kind == PartToolCall.
	ToolCallName string
	ToolCallArgs json.RawMessage

	// ToolResult fields, populated iff Kind == PartToolResult.
	ToolResultOutput json.RawMessage
	ToolResultError  string
}

func NewTextPart(text string) Part { return Part{Kind: PartText, Text: text} }

func NewFilePart(uri, mime string) Part {
	return Part{Kind: PartFile, FileURI: uri, FileMime: mime}
}

func NewDataPart(data json.RawMessage, mime string) Part {
	return Part{Kind: PartData, DataJSON: data, DataMime: mime}
}

func NewToolCallPart(name string, args json.RawMessage) Part {
	return Part{Kind: PartToolCall, ToolCallName: name, ToolCallArgs: args}
}

func NewToolResultPart(output json.RawMessage, toolErr string) Part {
	return Part{Kind: PartToolResult, ToolResultOutput: output, ToolResultError: toolErr}
}

type partWire struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	URI    string          `json:"uri,omitempty"`
	Mime   string          `json:"mime,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Name   string          `json:"name,omitempty"`
	Args   json.RawMessage `json:"args,omitempty"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (p Part) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PartText:
		return json.Marshal(partWire{Type: "text", Text: p.Text})
	case PartFile:
		return json.Marshal(partWire{Type: "file", URI: p.FileURI, Mime: p.FileMime})
	case PartData:
		return json.Marshal(partWire{Type: "data", Data: p.DataJSON, Mime: p.DataMime})
	case PartToolCall:
		return json.Marshal(partWire{Type: "tool-call", Name: p.ToolCallName, Args: p.ToolCallArgs})
	case PartToolResult:
		return json.Marshal(partWire{Type: "tool-result", Output: p.ToolResultOutput, Error: p.ToolResultError})
	default:
		return nil, fmt.Errorf("unknown part kind %d", p.Kind)
	}
}

func (p *Part) UnmarshalJSON(b []byte) error {
	var w partWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.Type {
	case "text":
		*p = Part{Kind: PartText, Text: w.Text}
	case "file":
		*p = Part{Kind: PartFile, FileURI: w.URI, FileMime: w.Mime}
	case "data":
		*p = Part{Kind: PartData, DataJSON: w.Data, DataMime: w.Mime}
	case "tool-call":
		*p = Part{Kind: PartToolCall, ToolCallName: w.Name, ToolCallArgs: w.Args}
	case "tool-result":
		*p = Part{Kind: PartToolResult, ToolResultOutput: w.Output, ToolResultError: w.Error}
	default:
		return fmt.Errorf("unknown part type %q", w.Type)
	}
	return nil
}

// Message is one turn in a task's conversation.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Artifact is a task's output, composed of parts.
type Artifact struct {
	ID          string  `json:"id"`
	Label       *string `json:"label,omitempty"`
	Description *string `json:"description,omitempty"`
	Parts       []Part  `json:"parts"`
}

// Status closes the set of task lifecycle states. Wire representation is
// kebab-case.
type Status int

const (
	StatusWorking Status = iota
	StatusCompleted
	StatusFailed
	StatusCancelled
	StatusRejected
	StatusInputRequired
)

var statusWire = map[Status]string{
	StatusWorking:       "working",
	StatusCompleted:     "completed",
	StatusFailed:        "failed",
	StatusCancelled:     "cancelled",
	StatusRejected:      "rejected",
	StatusInputRequired: "input-required",
}

var statusFromWire = func() map[string]Status {
	m := make(map[string]Status, len(statusWire))
	for k, v := range statusWire {
		m[v] = k
	}
	return m
}()

func (s Status) String() string { return statusWire[s] }

func (s Status) MarshalJSON() ([]byte, error) {
	wire, ok := statusWire[s]
	if !ok {
		return nil, fmt.Errorf("unknown status %d", s)
	}
	return json.Marshal(wire)
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var wire string
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	status, ok := statusFromWire[wire]
	if !ok {
		return fmt.Errorf("unknown status %q", wire)
	}
	*s = status
	return nil
}

// IsTerminal reports whether s is one of the irreversible end states.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// Task is a stateful unit of work: created by a client call, mutated only
// by the owning agent, and immutable once terminal.
type Task struct {
	ID         string            `json:"id"`
	ContextID  *string           `json:"contextId,omitempty"`
	Status     Status            `json:"status"`
	Messages   []Message         `json:"messages"`
	Artifacts  []Artifact        `json:"artifacts"`
	CreatedAt  int64             `json:"createdAt"`
	UpdatedAt  int64             `json:"updatedAt"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ErrTaskTerminated is returned whenever a mutation is attempted on a task
// that has already reached a terminal status; the task's observable state
// is left unchanged.
type ErrTaskTerminated struct{ TaskID string }

func (e *ErrTaskTerminated) Error() string {
	return fmt.Sprintf("task %s is terminal and cannot be mutated", e.TaskID)
}

// NewTask starts a fresh task in the Working state.
func NewTask(contextID *string, createdAt int64) Task {
	return Task{
		ID:        uuid.NewString(),
		ContextID: contextID,
		Status:    StatusWorking,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// AddMessage appends msg iff the task is not yet terminal.
func (t *Task) AddMessage(msg Message, now int64) error {
	if t.Status.IsTerminal() {
		return &ErrTaskTerminated{TaskID: t.ID}
	}
	t.Messages = append(t.Messages, msg)
	t.UpdatedAt = now
	return nil
}

// AddArtifact appends artifact iff the task is not yet terminal.
func (t *Task) AddArtifact(artifact Artifact, now int64) error {
	if t.Status.IsTerminal() {
		return &ErrTaskTerminated{TaskID: t.ID}
	}
	t.Artifacts = append(t.Artifacts, artifact)
	t.UpdatedAt = now
	return nil
}

// SetStatus transitions the task to status iff it is not yet terminal.
// Transitioning into a terminal status is always allowed from a
// non-terminal one; once terminal, no further SetStatus call succeeds.
func (t *Task) SetStatus(status Status, now int64) error {
	if t.Status.IsTerminal() {
		return &ErrTaskTerminated{TaskID: t.ID}
	}
	t.Status = status
	t.UpdatedAt = now
	return nil
}

// Capabilities advertises optional protocol features an agent supports.
type Capabilities struct {
	Streaming           bool `json:"streaming"`
	PushNotifications   bool `json:"pushNotifications"`
	ExtendedAgentCard    bool `json:"extendedAgentCard"`
}

// Skill is one capability an agent card advertises, with an optional JSON
// Schema describing its input shape.
type Skill struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// SecurityScheme names one auth mechanism an agent's interfaces accept.
type SecurityScheme struct {
	Scheme string `json:"scheme"`
}

// AgentCard is the JSON capability advertisement clients fetch before
// talking to an agent.
type AgentCard struct {
	AgentID           string           `json:"agentId"`
	Name              string           `json:"name"`
	Description       *string          `json:"description,omitempty"`
	Provider          *string          `json:"provider,omitempty"`
	Capabilities      Capabilities     `json:"capabilities"`
	Skills            []Skill          `json:"skills"`
	SecuritySchemes   []SecurityScheme `json:"securitySchemes"`
	Interfaces        []string         `json:"interfaces"`
	ProtocolVersions  []string         `json:"protocolVersions"`
}
