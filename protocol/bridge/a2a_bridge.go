package bridge

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/skreaver-dev/skreaver/protocol/a2a"
	"github.com/skreaver-dev/skreaver/protocol/mcp"
)

// PollConfig bounds how an A2aToMcpBridge waits out a task it cannot get a
// synchronous answer for: it polls GetTask at most at limiter's rate, and
// gives up once Timeout has elapsed since the call started.
type PollConfig struct {
	Limiter *rate.Limiter
	Timeout time.Duration
}

// DefaultPollConfig polls at 5Hz and gives up after 30s, generous enough
// for interactive tool calls without hammering the remote agent.
func DefaultPollConfig() PollConfig {
	return PollConfig{Limiter: rate.NewLimiter(rate.Limit(5), 1), Timeout: 30 * time.Second}
}

// A2aToMcpBridge exposes an A2A agent's advertised skills as MCP tools.
// Each call sends a message carrying the arguments as a data part, then
// polls the resulting task under poll until it reaches a terminal status.
type A2aToMcpBridge struct {
	agent  UnifiedAgent
	skills []a2a.Skill
	poll   PollConfig
}

func NewA2aToMcpBridge(agent UnifiedAgent, skills []a2a.Skill, poll PollConfig) *A2aToMcpBridge {
	return &A2aToMcpBridge{agent: agent, skills: skills, poll: poll}
}

func (b *A2aToMcpBridge) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return skillsToTools(b.skills), nil
}

func (b *A2aToMcpBridge) ListResources(ctx context.Context) ([]mcp.Resource, error) { return nil, nil }

func (b *A2aToMcpBridge) CallTool(ctx context.Context, req mcp.CallRequest) (mcp.CallResponse, error) {
	if !b.hasSkill(req.ToolName) {
		return mcp.CallResponse{Err: &mcp.Error{
			Code:    mcp.CodeNotFound,
			Message: "no skill named " + req.ToolName,
		}}, nil
	}

	task, err := b.agent.SendMessage(ctx, argumentsToMessage(req.Arguments))
	if err != nil {
		return mcp.CallResponse{Err: &mcp.Error{Code: mcp.CodeUpstream, Message: err.Error()}}, nil
	}

	task, err = b.awaitCompletion(ctx, task)
	if err != nil {
		if ae, ok := err.(*AgentError); ok && ae.Kind == ConnectionError {
			return mcp.CallResponse{Err: &mcp.Error{Code: mcp.CodeTimeout, Message: err.Error()}}, nil
		}
		return mcp.CallResponse{Err: &mcp.Error{Code: mcp.CodeUpstream, Message: err.Error()}}, nil
	}

	if task.Status != a2a.StatusCompleted {
		return mcp.CallResponse{Err: &mcp.Error{
			Code:    mcp.CodeInternal,
			Message: taskFailureMessage(task),
		}}, nil
	}

	return mcp.CallResponse{Result: taskResult(task)}, nil
}

func (b *A2aToMcpBridge) hasSkill(name string) bool {
	for _, s := range b.skills {
		if s.Name == name {
			return true
		}
	}
	return false
}

// awaitCompletion polls GetTask, rate-limited by b.poll.Limiter, until the
// task reaches a terminal status or b.poll.Timeout elapses.
func (b *A2aToMcpBridge) awaitCompletion(ctx context.Context, task a2a.Task) (a2a.Task, error) {
	if task.Status.IsTerminal() {
		return task, nil
	}

	deadline := time.Now().Add(b.poll.Timeout)
	for {
		if time.Now().After(deadline) {
			return a2a.Task{}, newConnectionError("timed out waiting for task completion", context.DeadlineExceeded)
		}
		if err := b.poll.Limiter.Wait(ctx); err != nil {
			return a2a.Task{}, newConnectionError("waiting for poll slot", err)
		}

		current, err := b.agent.GetTask(ctx, task.ID)
		if err != nil {
			return a2a.Task{}, err
		}
		if current.Status.IsTerminal() {
			return current, nil
		}
	}
}
