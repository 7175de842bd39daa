package tools

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type uppercaseTool struct{}

func (uppercaseTool) Name() string { return "text_uppercase" }
func (uppercaseTool) Call(input string) ExecutionResult {
	return Success(strings.ToUpper(input))
}

type reverseTool struct{}

func (reverseTool) Name() string { return "text_reverse" }
func (reverseTool) Call(input string) ExecutionResult {
	runes := []rune(input)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return Success(string(runes))
}

func buildTestRegistry(t *testing.T) *InMemoryRegistry {
	t.Helper()
	builder := NewRegistryBuilder()
	_, err := builder.WithTool(uppercaseTool{})
	require.NoError(t, err)
	_, err = builder.WithTool(reverseTool{})
	require.NoError(t, err)
	return builder.Build()
}

func TestRegistry_DispatchesToCorrectTool(t *testing.T) {
	registry := buildTestRegistry(t)

	call, err := NewCall("text_uppercase", "abc")
	require.NoError(t, err)
	result, ok := registry.Dispatch(call)
	require.True(t, ok)
	out, _ := result.Output()
	require.Equal(t, "ABC", out)

	call, err = NewCall("text_reverse", "ABC")
	require.NoError(t, err)
	result, ok = registry.Dispatch(call)
	require.True(t, ok)
	out, _ = result.Output()
	require.Equal(t, "CBA", out)
}

func TestRegistry_MissingToolReturnsNotFound(t *testing.T) {
	registry := buildTestRegistry(t)

	call, err := NewCall("nonexistent", "x")
	require.NoError(t, err)
	_, ok := registry.Dispatch(call)
	require.False(t, ok)

	_, err = registry.TryDispatch(&call)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nonexistent")
}

func TestRegistry_IsolationBetweenRegistries(t *testing.T) {
	a := buildTestRegistry(t)
	b := buildTestRegistry(t)

	call, err := NewCall("text_uppercase", "same")
	require.NoError(t, err)

	ra, _ := a.Dispatch(call)
	rb, _ := b.Dispatch(call)
	outA, _ := ra.Output()
	outB, _ := rb.Output()
	require.Equal(t, outA, outB)
}

func TestNewCall_ValidatesToolId(t *testing.T) {
	_, err := NewCall("bad tool name!", "x")
	require.Error(t, err)
}

func TestValidatedInput(t *testing.T) {
	_, err := NewValidatedInput("")
	require.Error(t, err)

	_, err = NewValidatedInput(strings.Repeat("a", MaxValidatedInputBytes+1))
	require.Error(t, err)

	v, err := NewValidatedInput("hello world")
	require.NoError(t, err)
	require.Equal(t, "hello world", v.String())
}

func TestValidatedInput_RejectsBinaryLookingContent(t *testing.T) {
	binary := string([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x0b})
	_, err := NewValidatedInput(binary)
	require.Error(t, err)
}

func TestNewCall_RunsValidatedInputAheadOfDispatchTargetParsing(t *testing.T) {
	_, err := NewCall("text_uppercase", "")
	require.Error(t, err)
	var inputErr *InputValidationError
	require.ErrorAs(t, err, &inputErr)
	require.Equal(t, InputEmpty, inputErr.Kind)
}

type namedEchoTool struct{ name string }

func (t namedEchoTool) Name() string                { return t.name }
func (t namedEchoTool) Call(input string) ExecutionResult { return Success(input) }

func TestRegistry_Dispatch_ToolNameCardinalityGuardDoesNotBlockDispatch(t *testing.T) {
	builder := NewRegistryBuilder()
	const toolCount = 25 // past DimensionToolName's bound of 20
	names := make([]string, toolCount)
	for i := 0; i < toolCount; i++ {
		names[i] = fmt.Sprintf("custom-tool-%d", i)
		_, err := builder.WithTool(namedEchoTool{name: names[i]})
		require.NoError(t, err)
	}
	registry := builder.Build()

	// Every registered tool still dispatches once its dimension is past the
	// cardinality bound; the guard only gates what gets labeled, never
	// whether the call reaches its tool.
	for _, name := range names {
		call, err := NewCall(name, "echo")
		require.NoError(t, err)
		result, ok := registry.Dispatch(call)
		require.True(t, ok)
		out, _ := result.Output()
		require.Equal(t, "echo", out)
	}
}
