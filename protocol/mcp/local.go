package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skreaver-dev/skreaver/tools"
)

// LocalCaller adapts an in-process tools.Registry to the Caller interface,
// letting a McpToA2aBridge expose locally registered tools without any real
// MCP transport. Arguments are passed through as the tool's raw string
// input; a JSON string argument is unwrapped, everything else is passed as
// its raw JSON text.
type LocalCaller struct {
	registry    tools.Registry
	descriptors map[string]Tool
}

func NewLocalCaller(registry tools.Registry, descriptors []Tool) *LocalCaller {
	byName := make(map[string]Tool, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d
	}
	return &LocalCaller{registry: registry, descriptors: byName}
}

func (c *LocalCaller) ListTools(ctx context.Context) ([]Tool, error) {
	out := make([]Tool, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		out = append(out, d)
	}
	return out, nil
}

func (c *LocalCaller) ListResources(ctx context.Context) ([]Resource, error) { return nil, nil }

func (c *LocalCaller) CallTool(ctx context.Context, req CallRequest) (CallResponse, error) {
	input := argumentsToInput(req.Arguments)

	call, err := tools.NewCall(req.ToolName, input)
	if err != nil {
		return CallResponse{Err: &Error{Code: CodeBadRequest, Message: err.Error()}}, nil
	}

	result, ok := c.registry.Dispatch(call)
	if !ok {
		return CallResponse{Err: &Error{Code: CodeNotFound, Message: fmt.Sprintf("tool not found: %s", req.ToolName)}}, nil
	}

	if output, success := result.Output(); success {
		return CallResponse{Result: json.RawMessage(mustQuote(output))}, nil
	}
	reason, _ := result.FailureReason()
	return CallResponse{Err: &Error{Code: CodeInternal, Message: reason.Message()}}, nil
}

func argumentsToInput(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

func mustQuote(s string) []byte {
	b, err := json.Marshal(s)
	if err != nil {
		return []byte(`""`)
	}
	return b
}
