package bridge

import (
	"context"

	"github.com/skreaver-dev/skreaver/protocol/a2a"
)

// A2aClient is the transport contract an A2aAgentAdapter needs: whatever
// speaks A2A over the wire (HTTP+SSE in production, an in-process stub in
// tests) implements it.
type A2aClient interface {
	AgentCard(ctx context.Context) (a2a.AgentCard, error)
	Send(ctx context.Context, taskID *string, message a2a.Message) (a2a.Task, error)
	SendStreaming(ctx context.Context, taskID *string, message a2a.Message) (<-chan StreamEvent, <-chan error)
	GetTask(ctx context.Context, taskID string) (a2a.Task, error)
	CancelTask(ctx context.Context, taskID string) (a2a.Task, error)
}

// A2aAgentAdapter wraps an A2aClient to provide the UnifiedAgent interface,
// caching the remote agent's card after Discover.
type A2aAgentAdapter struct {
	client A2aClient
	card   *a2a.AgentCard
}

func NewA2aAgentAdapter(client A2aClient) *A2aAgentAdapter {
	return &A2aAgentAdapter{client: client}
}

// ConnectA2aAgentAdapter builds an adapter and immediately discovers the
// remote agent's capabilities.
func ConnectA2aAgentAdapter(ctx context.Context, client A2aClient) (*A2aAgentAdapter, error) {
	adapter := NewA2aAgentAdapter(client)
	if err := adapter.Discover(ctx); err != nil {
		return nil, err
	}
	return adapter, nil
}

// Discover fetches and caches the remote agent's card.
func (a *A2aAgentAdapter) Discover(ctx context.Context) error {
	card, err := a.client.AgentCard(ctx)
	if err != nil {
		return newConnectionError("fetching agent card", err)
	}
	a.card = &card
	return nil
}

// AgentCard returns the cached card, if Discover has run.
func (a *A2aAgentAdapter) AgentCard() *a2a.AgentCard { return a.card }

func (a *A2aAgentAdapter) SendMessage(ctx context.Context, message a2a.Message) (a2a.Task, error) {
	task, err := a.client.Send(ctx, nil, message)
	if err != nil {
		return a2a.Task{}, newConnectionError("sending message", err)
	}
	return task, nil
}

func (a *A2aAgentAdapter) SendMessageToTask(ctx context.Context, taskID string, message a2a.Message) (a2a.Task, error) {
	task, err := a.client.Send(ctx, &taskID, message)
	if err != nil {
		return a2a.Task{}, newConnectionError("sending message", err)
	}
	return task, nil
}

func (a *A2aAgentAdapter) SendMessageStreaming(ctx context.Context, message a2a.Message) (<-chan StreamEvent, <-chan error) {
	return a.client.SendStreaming(ctx, nil, message)
}

func (a *A2aAgentAdapter) GetTask(ctx context.Context, taskID string) (a2a.Task, error) {
	task, err := a.client.GetTask(ctx, taskID)
	if err != nil {
		return a2a.Task{}, newConnectionError("fetching task", err)
	}
	return task, nil
}

func (a *A2aAgentAdapter) CancelTask(ctx context.Context, taskID string) (a2a.Task, error) {
	task, err := a.client.CancelTask(ctx, taskID)
	if err != nil {
		return a2a.Task{}, newConnectionError("cancelling task", err)
	}
	return task, nil
}
