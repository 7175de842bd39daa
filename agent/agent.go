// Package agent implements the Agent contract and the Coordinator that
// drives an agent's observe -> act -> tool-dispatch -> result cycle.
package agent

import (
	"context"

	"github.com/skreaver-dev/skreaver/memory"
	"github.com/skreaver-dev/skreaver/tools"
)

// Agent is polymorphic over the observation it ingests and the action it
// produces. Implementations own a memory façade (via MemoryReader/
// MemoryWriter) and a strategy mapping observations to actions and tool
// calls.
type Agent[Observation, Action any] interface {
	// Observe ingests an observation; it may record into memory.
	Observe(ctx context.Context, obs Observation)

	// Act produces an action from current state.
	Act(ctx context.Context) Action

	// CallTools returns the tool calls to issue this step, in the order
	// they must be dispatched. Must be deterministic given current state.
	CallTools(ctx context.Context) []tools.Call

	// HandleResult integrates one tool result; called exactly once per
	// issued tool call, in the same order CallTools returned them.
	HandleResult(ctx context.Context, result tools.ExecutionResult)

	// UpdateContext applies an externally supplied memory mutation.
	UpdateContext(ctx context.Context, update memory.Update) error

	MemoryReader() memory.Reader
	MemoryWriter() memory.Writer
}
