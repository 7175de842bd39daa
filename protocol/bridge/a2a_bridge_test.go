package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/stretchr/testify/require"

	"github.com/skreaver-dev/skreaver/protocol/a2a"
	"github.com/skreaver-dev/skreaver/protocol/mcp"
)

// fakeUnifiedAgent completes a task after a fixed number of GetTask polls,
// simulating an A2A agent that processes work asynchronously.
type fakeUnifiedAgent struct {
	pollsUntilDone int
	polled         int
	task           a2a.Task
}

func (f *fakeUnifiedAgent) SendMessage(ctx context.Context, message a2a.Message) (a2a.Task, error) {
	f.task = a2a.NewTask(nil, time.Now().Unix())
	return f.task, nil
}

func (f *fakeUnifiedAgent) SendMessageToTask(ctx context.Context, taskID string, message a2a.Message) (a2a.Task, error) {
	return f.task, nil
}

func (f *fakeUnifiedAgent) SendMessageStreaming(ctx context.Context, message a2a.Message) (<-chan StreamEvent, <-chan error) {
	return nil, nil
}

func (f *fakeUnifiedAgent) GetTask(ctx context.Context, taskID string) (a2a.Task, error) {
	f.polled++
	if f.polled >= f.pollsUntilDone {
		out, _ := json.Marshal("done")
		_ = f.task.AddMessage(a2a.Message{Role: a2a.RoleAgent, Parts: []a2a.Part{a2a.NewDataPart(out, "application/json")}}, time.Now().Unix())
		_ = f.task.SetStatus(a2a.StatusCompleted, time.Now().Unix())
	}
	return f.task, nil
}

func (f *fakeUnifiedAgent) CancelTask(ctx context.Context, taskID string) (a2a.Task, error) {
	return f.task, nil
}

func TestA2aToMcpBridge_CallTool_PollsUntilCompletion(t *testing.T) {
	agent := &fakeUnifiedAgent{pollsUntilDone: 3}
	skills := []a2a.Skill{{ID: "sum", Name: "sum"}}
	poll := PollConfig{Limiter: rate.NewLimiter(rate.Inf, 1), Timeout: time.Second}

	b := NewA2aToMcpBridge(agent, skills, poll)

	args, _ := json.Marshal(map[string]int{"a": 1, "b": 2})
	resp, err := b.CallTool(context.Background(), mcp.CallRequest{ToolName: "sum", Arguments: args})
	require.NoError(t, err)
	require.Nil(t, resp.Err)
	require.GreaterOrEqual(t, agent.polled, 3)
}

func TestA2aToMcpBridge_CallTool_UnknownSkill(t *testing.T) {
	agent := &fakeUnifiedAgent{}
	poll := DefaultPollConfig()
	b := NewA2aToMcpBridge(agent, nil, poll)

	resp, err := b.CallTool(context.Background(), mcp.CallRequest{ToolName: "missing", Arguments: json.RawMessage(`{}`)})
	require.NoError(t, err)
	require.NotNil(t, resp.Err)
}

func TestA2aToMcpBridge_ListTools_MapsSkills(t *testing.T) {
	skills := []a2a.Skill{{ID: "sum", Name: "sum"}, {ID: "diff", Name: "diff"}}
	b := NewA2aToMcpBridge(&fakeUnifiedAgent{}, skills, DefaultPollConfig())

	list, err := b.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
}
