package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/skreaver-dev/skreaver/protocol/a2a"
	"github.com/skreaver-dev/skreaver/protocol/mcp"
)

// McpToA2aBridge exposes an MCP tool caller as a UnifiedAgent. A sent
// message's PartToolCall parts are dispatched through the wrapped
// mcp.Caller; the outcome is appended to the task as PartToolResult parts.
// Tasks are held in memory for the lifetime of the bridge.
type McpToA2aBridge struct {
	caller mcp.Caller

	mu    sync.RWMutex
	tasks map[string]a2a.Task
}

func NewMcpToA2aBridge(caller mcp.Caller) *McpToA2aBridge {
	return &McpToA2aBridge{caller: caller, tasks: make(map[string]a2a.Task)}
}

func (b *McpToA2aBridge) processMessage(ctx context.Context, task *a2a.Task, message a2a.Message, now int64) error {
	for _, part := range message.Parts {
		if part.Kind != a2a.PartToolCall {
			continue
		}

		resp, err := b.caller.CallTool(ctx, mcp.CallRequest{
			ToolName:  part.ToolCallName,
			Arguments: part.ToolCallArgs,
		})
		if err != nil {
			return newConnectionError(fmt.Sprintf("calling tool %s", part.ToolCallName), err)
		}

		var resultPart a2a.Part
		if resp.Err != nil {
			resultPart = a2a.NewToolResultPart(nil, resp.Err.Message)
		} else {
			resultPart = a2a.NewToolResultPart(resp.Result, "")
		}

		if err := task.AddMessage(a2a.Message{
			Role:  a2a.RoleAgent,
			Parts: []a2a.Part{resultPart},
		}, now); err != nil {
			return err
		}
	}
	return nil
}

func (b *McpToA2aBridge) SendMessage(ctx context.Context, message a2a.Message) (a2a.Task, error) {
	now := time.Now().Unix()
	task := a2a.NewTask(nil, now)
	if err := task.AddMessage(message, now); err != nil {
		return a2a.Task{}, err
	}

	if err := b.processMessage(ctx, &task, message, now); err != nil {
		return a2a.Task{}, err
	}
	if err := task.SetStatus(a2a.StatusCompleted, now); err != nil {
		return a2a.Task{}, err
	}

	b.mu.Lock()
	b.tasks[task.ID] = task
	b.mu.Unlock()

	return task, nil
}

func (b *McpToA2aBridge) SendMessageToTask(ctx context.Context, taskID string, message a2a.Message) (a2a.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	task, ok := b.tasks[taskID]
	if !ok {
		return a2a.Task{}, newTaskNotFound(taskID)
	}

	now := time.Now().Unix()
	if err := task.AddMessage(message, now); err != nil {
		return a2a.Task{}, err
	}
	if err := b.processMessage(ctx, &task, message, now); err != nil {
		return a2a.Task{}, err
	}

	b.tasks[taskID] = task
	return task, nil
}

// SendMessageStreaming simulates streaming over a request/response tool
// caller: the message is processed synchronously, then its resulting
// status, messages, and artifacts are replayed as events in order, ending
// with the terminal status. The event channel is closed when replay
// completes; at most one error is ever sent on the error channel.
func (b *McpToA2aBridge) SendMessageStreaming(ctx context.Context, message a2a.Message) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		task, err := b.SendMessage(ctx, message)
		if err != nil {
			errs <- err
			return
		}

		send := func(ev StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(StreamEvent{Kind: StreamStatusUpdate, TaskID: task.ID, Status: a2a.StatusWorking}) {
			return
		}
		for _, msg := range task.Messages {
			if !send(StreamEvent{Kind: StreamMessageAdded, TaskID: task.ID, Message: msg}) {
				return
			}
		}
		for _, artifact := range task.Artifacts {
			if !send(StreamEvent{Kind: StreamArtifactAdded, TaskID: task.ID, Artifact: artifact}) {
				return
			}
		}
		send(StreamEvent{Kind: StreamStatusUpdate, TaskID: task.ID, Status: task.Status})
	}()

	return events, errs
}

func (b *McpToA2aBridge) GetTask(ctx context.Context, taskID string) (a2a.Task, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	task, ok := b.tasks[taskID]
	if !ok {
		return a2a.Task{}, newTaskNotFound(taskID)
	}
	return task, nil
}

func (b *McpToA2aBridge) CancelTask(ctx context.Context, taskID string) (a2a.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	task, ok := b.tasks[taskID]
	if !ok {
		return a2a.Task{}, newTaskNotFound(taskID)
	}
	if err := task.SetStatus(a2a.StatusCancelled, time.Now().Unix()); err != nil {
		return a2a.Task{}, err
	}
	b.tasks[taskID] = task
	return task, nil
}

// AgentCard builds the capability advertisement for the wrapped MCP tool
// set: one skill per tool, named after it, tagged for discovery.
func (b *McpToA2aBridge) AgentCard(ctx context.Context, agentID, name string) (a2a.AgentCard, error) {
	mcpTools, err := b.caller.ListTools(ctx)
	if err != nil {
		return a2a.AgentCard{}, newConnectionError("listing tools", err)
	}

	skills := make([]a2a.Skill, 0, len(mcpTools))
	for _, t := range mcpTools {
		skills = append(skills, a2a.Skill{
			ID:          t.Name,
			Name:        t.Name,
			Description: t.Description,
			InputSchema: json.RawMessage(t.InputSchema),
		})
	}

	return a2a.AgentCard{
		AgentID: agentID,
		Name:    name,
		Capabilities: a2a.Capabilities{
			Streaming: true,
		},
		Skills: skills,
	}, nil
}
