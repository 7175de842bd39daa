package agent

import (
	"context"
	"fmt"

	"github.com/skreaver-dev/skreaver/telemetry"
	"github.com/skreaver-dev/skreaver/tools"
)

// Coordinator drives a single agent's observe -> act -> tool-dispatch cycle.
// It is single-threaded within a Step, performs no retries, and surfaces no
// errors of its own: every tool failure reaches the agent through
// HandleResult as an ExecutionResult.Failure.
type Coordinator[Observation, Action any] struct {
	agent    Agent[Observation, Action]
	registry tools.Registry

	logger telemetry.Logger
	tracer telemetry.Tracer
}

// Option configures optional Coordinator behavior, in the registry's own
// functional-options idiom.
type Option[Observation, Action any] func(*Coordinator[Observation, Action])

// WithLogger configures the coordinator's logger. When unset, the
// coordinator uses a noop logger.
func WithLogger[Observation, Action any](logger telemetry.Logger) Option[Observation, Action] {
	return func(c *Coordinator[Observation, Action]) { c.logger = logger }
}

// WithTracer configures the coordinator's tracer. When unset, the
// coordinator uses a noop tracer.
func WithTracer[Observation, Action any](tracer telemetry.Tracer) Option[Observation, Action] {
	return func(c *Coordinator[Observation, Action]) { c.tracer = tracer }
}

// NewCoordinator pairs an agent with the tool registry it dispatches
// against. Parallelism is achieved by instantiating one Coordinator per
// session, never by sharing a Coordinator across goroutines.
func NewCoordinator[Observation, Action any](agent Agent[Observation, Action], registry tools.Registry, opts ...Option[Observation, Action]) *Coordinator[Observation, Action] {
	c := &Coordinator[Observation, Action]{
		agent:    agent,
		registry: registry,
		logger:   telemetry.NoopLogger{},
		tracer:   telemetry.NoopTracer{},
	}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	return c
}

// Step runs exactly one observe -> act -> dispatch -> deliver cycle and
// returns the resulting action.
func (c *Coordinator[Observation, Action]) Step(ctx context.Context, observation Observation) Action {
	ctx, span := c.tracer.Start(ctx, "agent.step")
	defer span.End()

	c.agent.Observe(ctx, observation)
	action := c.agent.Act(ctx)

	calls := c.agent.CallTools(ctx)
	for _, call := range calls {
		result, ok := c.registry.DispatchRef(&call)
		if !ok {
			c.logger.Warn(ctx, "tool not found", "tool_name", call.Dispatch.Name())
			result = tools.Failure(tools.FailureReason{
				Kind:   tools.InvalidInput,
				Detail: fmt.Sprintf("tool not found: %s", call.Dispatch.Name()),
			})
		}
		c.agent.HandleResult(ctx, result)
	}

	return action
}
