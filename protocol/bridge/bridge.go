// Package bridge translates between the Model Context Protocol's tool-call
// surface and the Agent-to-Agent protocol's stateful task surface, so a
// caller on either side can talk to an agent built for the other one
// through a single UnifiedAgent interface.
//
// Two directions are supported:
//
//   - McpToA2aBridge exposes an MCP tool caller as a UnifiedAgent: a sent
//     message's tool-call parts are dispatched through mcp.Caller and the
//     outcome is appended as tool-result parts on a synthesized task.
//   - A2aToMcpBridge exposes an A2A agent's skills as MCP tools: each call
//     sends a message to the agent and polls the resulting task to
//     completion under a rate limit.
package bridge

import (
	"context"
	"fmt"

	"github.com/skreaver-dev/skreaver/protocol/a2a"
)

// AgentErrorKind closes the set of bridge-level failure classes.
type AgentErrorKind int

const (
	ConnectionError AgentErrorKind = iota
	TaskNotFound
	CapabilityNotFound
	Internal
)

// AgentError is the error type every UnifiedAgent method returns on failure.
type AgentError struct {
	Kind   AgentErrorKind
	Detail string
	cause  error
}

func (e *AgentError) Error() string {
	switch e.Kind {
	case TaskNotFound:
		return fmt.Sprintf("task not found: %s", e.Detail)
	case CapabilityNotFound:
		return fmt.Sprintf("capability not found: %s", e.Detail)
	case ConnectionError:
		return fmt.Sprintf("connection error: %s", e.Detail)
	default:
		return fmt.Sprintf("internal error: %s", e.Detail)
	}
}

func (e *AgentError) Unwrap() error { return e.cause }

func newConnectionError(detail string, cause error) *AgentError {
	return &AgentError{Kind: ConnectionError, Detail: detail, cause: cause}
}

func newTaskNotFound(taskID string) *AgentError {
	return &AgentError{Kind: TaskNotFound, Detail: taskID}
}

func newCapabilityNotFound(name string) *AgentError {
	return &AgentError{Kind: CapabilityNotFound, Detail: name}
}

// StreamEventKind closes the set of streaming event shapes.
type StreamEventKind int

const (
	StreamStatusUpdate StreamEventKind = iota
	StreamMessageAdded
	StreamArtifactAdded
)

// StreamEvent is one increment of a streaming send; exactly the field set
// matching Kind is meaningful.
type StreamEvent struct {
	Kind     StreamEventKind
	TaskID   string
	Status   a2a.Status
	Message  a2a.Message
	Artifact a2a.Artifact
}

// UnifiedAgent is the common surface both bridge directions implement,
// letting a caller drive an MCP tool server or an A2A agent identically.
type UnifiedAgent interface {
	SendMessage(ctx context.Context, message a2a.Message) (a2a.Task, error)
	SendMessageToTask(ctx context.Context, taskID string, message a2a.Message) (a2a.Task, error)
	SendMessageStreaming(ctx context.Context, message a2a.Message) (<-chan StreamEvent, <-chan error)
	GetTask(ctx context.Context, taskID string) (a2a.Task, error)
	CancelTask(ctx context.Context, taskID string) (a2a.Task, error)
}
