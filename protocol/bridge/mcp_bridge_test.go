package bridge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skreaver-dev/skreaver/protocol/a2a"
	"github.com/skreaver-dev/skreaver/protocol/mcp"
)

type fakeCaller struct {
	tools []mcp.Tool
	calls []mcp.CallRequest
}

func (f *fakeCaller) ListTools(ctx context.Context) ([]mcp.Tool, error) { return f.tools, nil }
func (f *fakeCaller) ListResources(ctx context.Context) ([]mcp.Resource, error) { return nil, nil }

func (f *fakeCaller) CallTool(ctx context.Context, req mcp.CallRequest) (mcp.CallResponse, error) {
	f.calls = append(f.calls, req)
	if req.ToolName == "missing" {
		return mcp.CallResponse{Err: &mcp.Error{Code: mcp.CodeNotFound, Message: "no such tool"}}, nil
	}
	out, _ := json.Marshal("ok:" + req.ToolName)
	return mcp.CallResponse{Result: out}, nil
}

func TestMcpToA2aBridge_SendMessage_DispatchesToolCalls(t *testing.T) {
	caller := &fakeCaller{tools: []mcp.Tool{{Name: "text_uppercase"}}}
	b := NewMcpToA2aBridge(caller)

	args, _ := json.Marshal("abc")
	msg := a2a.Message{Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewToolCallPart("text_uppercase", args)}}

	task, err := b.SendMessage(context.Background(), msg)
	require.NoError(t, err)
	require.Equal(t, a2a.StatusCompleted, task.Status)
	require.Len(t, caller.calls, 1)
	require.Equal(t, "text_uppercase", caller.calls[0].ToolName)

	require.Len(t, task.Messages, 2)
	resultParts := task.Messages[1].Parts
	require.Len(t, resultParts, 1)
	require.Equal(t, a2a.PartToolResult, resultParts[0].Kind)
	require.Empty(t, resultParts[0].ToolResultError)
}

func TestMcpToA2aBridge_SendMessage_ToolFailureBecomesToolResultError(t *testing.T) {
	caller := &fakeCaller{}
	b := NewMcpToA2aBridge(caller)

	args, _ := json.Marshal("x")
	msg := a2a.Message{Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewToolCallPart("missing", args)}}

	task, err := b.SendMessage(context.Background(), msg)
	require.NoError(t, err)
	require.Equal(t, a2a.StatusCompleted, task.Status)
	require.Equal(t, "no such tool", task.Messages[1].Parts[0].ToolResultError)
}

func TestMcpToA2aBridge_GetTask_NotFound(t *testing.T) {
	b := NewMcpToA2aBridge(&fakeCaller{})
	_, err := b.GetTask(context.Background(), "nope")
	require.Error(t, err)
	var ae *AgentError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, TaskNotFound, ae.Kind)
}

func TestMcpToA2aBridge_SendMessageStreaming_EmitsWorkingThenCompleted(t *testing.T) {
	caller := &fakeCaller{}
	b := NewMcpToA2aBridge(caller)

	msg := a2a.Message{Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart("hi")}}
	events, errs := b.SendMessageStreaming(context.Background(), msg)

	var kinds []StreamEventKind
	for ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	require.NoError(t, <-errs)
	require.Equal(t, []StreamEventKind{StreamStatusUpdate, StreamMessageAdded, StreamStatusUpdate}, kinds)
}

func TestMcpToA2aBridge_AgentCard_MapsToolsToSkills(t *testing.T) {
	caller := &fakeCaller{tools: []mcp.Tool{{Name: "text_uppercase", Description: "upper"}}}
	b := NewMcpToA2aBridge(caller)

	card, err := b.AgentCard(context.Background(), "agent-1", "Agent One")
	require.NoError(t, err)
	require.Len(t, card.Skills, 1)
	require.Equal(t, "text_uppercase", card.Skills[0].ID)
}
