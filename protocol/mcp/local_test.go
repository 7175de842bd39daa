package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skreaver-dev/skreaver/tools"
)

type upperTool struct{}

func (upperTool) Name() string { return "text_uppercase" }
func (upperTool) Call(input string) tools.ExecutionResult {
	return tools.Success(strings.ToUpper(input))
}

func TestLocalCaller_CallTool_Success(t *testing.T) {
	builder := tools.NewRegistryBuilder()
	_, err := builder.WithTool(upperTool{})
	require.NoError(t, err)
	registry := builder.Build()

	caller := NewLocalCaller(registry, []Tool{{Name: "text_uppercase"}})

	args, _ := json.Marshal("abc")
	resp, err := caller.CallTool(context.Background(), CallRequest{ToolName: "text_uppercase", Arguments: args})
	require.NoError(t, err)
	require.Nil(t, resp.Err)

	var out string
	require.NoError(t, json.Unmarshal(resp.Result, &out))
	require.Equal(t, "ABC", out)
}

func TestLocalCaller_CallTool_NotFound(t *testing.T) {
	registry := tools.NewRegistryBuilder().Build()
	caller := NewLocalCaller(registry, nil)

	args, _ := json.Marshal("x")
	resp, err := caller.CallTool(context.Background(), CallRequest{ToolName: "missing", Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, resp.Err)
	require.Equal(t, CodeNotFound, resp.Err.Code)
}

func TestLocalCaller_ListTools(t *testing.T) {
	registry := tools.NewRegistryBuilder().Build()
	caller := NewLocalCaller(registry, []Tool{{Name: "a"}, {Name: "b"}})
	list, err := caller.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
}
