package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skreaver-dev/skreaver/protocol/a2a"
)

func TestProtocolGateway_FindByCapability_AndRoute(t *testing.T) {
	g := NewProtocolGateway()
	mcpAgent := &fakeUnifiedAgent{}
	g.RegisterA2aAgent("search-agent", mcpAgent, []string{"search"})

	ids := g.FindByCapability("search")
	require.Equal(t, []string{"search-agent"}, ids)
	require.Empty(t, g.FindByCapability("unknown"))

	task, err := g.RouteMessage(context.Background(), "search-agent", a2a.Message{Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart("q")}})
	require.NoError(t, err)
	require.NotEmpty(t, task.ID)
}

func TestProtocolGateway_RouteMessage_UnknownAgent(t *testing.T) {
	g := NewProtocolGateway()
	_, err := g.RouteMessage(context.Background(), "nope", a2a.Message{})
	require.Error(t, err)
	var ae *AgentError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, CapabilityNotFound, ae.Kind)
}

func TestProtocolGateway_AgentsForProtocol(t *testing.T) {
	g := NewProtocolGateway()
	g.RegisterMcpAgent("fs-agent", NewMcpToA2aBridge(&fakeCaller{}), []string{"read_file"})
	g.RegisterA2aAgent("search-agent", &fakeUnifiedAgent{}, []string{"search"})

	require.ElementsMatch(t, []string{"fs-agent"}, g.AgentsForProtocol(ProtocolMcp))
	require.ElementsMatch(t, []string{"search-agent"}, g.AgentsForProtocol(ProtocolA2a))
}
