package a2a

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTask_TerminalStatus_RejectsMutation(t *testing.T) {
	task := NewTask(nil, 1000)
	require.NoError(t, task.SetStatus(StatusCompleted, 1001))

	err := task.AddMessage(Message{Role: RoleUser, Parts: []Part{NewTextPart("too late")}}, 1002)
	require.Error(t, err)
	var terminated *ErrTaskTerminated
	require.ErrorAs(t, err, &terminated)
	require.Empty(t, task.Messages)
}

func TestTask_NonTerminal_AllowsMutation(t *testing.T) {
	task := NewTask(nil, 1000)
	require.NoError(t, task.AddMessage(Message{Role: RoleAgent, Parts: []Part{NewTextPart("hi")}}, 1001))
	require.Len(t, task.Messages, 1)
}

func TestStatus_WireFormat_IsKebabCase(t *testing.T) {
	b, err := json.Marshal(StatusInputRequired)
	require.NoError(t, err)
	require.Equal(t, `"input-required"`, string(b))
}

func TestPart_WireFormat_ExternallyTagged(t *testing.T) {
	b, err := json.Marshal(NewTextPart("hello"))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"text","text":"hello"}`, string(b))

	var roundTripped Part
	require.NoError(t, json.Unmarshal(b, &roundTripped))
	require.Equal(t, PartText, roundTripped.Kind)
	require.Equal(t, "hello", roundTripped.Text)
}

func TestTask_JSON_UsesCamelCaseContextID(t *testing.T) {
	ctx := "ctx-1"
	task := NewTask(&ctx, 1000)
	b, err := json.Marshal(task)
	require.NoError(t, err)
	require.Contains(t, string(b), `"contextId":"ctx-1"`)
}

func TestPart_ToolCallAndToolResult_RoundTrip(t *testing.T) {
	call := NewToolCallPart("text_uppercase", json.RawMessage(`"abc"`))
	b, err := json.Marshal(call)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"tool-call","name":"text_uppercase","args":"abc"}`, string(b))

	var roundTripped Part
	require.NoError(t, json.Unmarshal(b, &roundTripped))
	require.Equal(t, PartToolCall, roundTripped.Kind)
	require.Equal(t, "text_uppercase", roundTripped.ToolCallName)

	result := NewToolResultPart(json.RawMessage(`"ABC"`), "")
	b, err = json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &roundTripped))
	require.Equal(t, PartToolResult, roundTripped.Kind)
	require.Equal(t, json.RawMessage(`"ABC"`), roundTripped.ToolResultOutput)
}

func TestSkillValidator_RejectsNonConformingData(t *testing.T) {
	skill := Skill{
		ID:          "sum",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"a":{"type":"number"}},"required":["a"]}`),
	}
	v, err := NewSkillValidator(skill)
	require.NoError(t, err)

	require.NoError(t, v.Validate(NewDataPart(json.RawMessage(`{"a":1}`), "application/json")))
	require.Error(t, v.Validate(NewDataPart(json.RawMessage(`{}`), "application/json")))
}
