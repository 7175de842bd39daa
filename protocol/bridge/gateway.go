package bridge

import (
	"context"
	"sync"

	"github.com/skreaver-dev/skreaver/protocol/a2a"
)

// Protocol names which wire protocol a registered agent was reached over.
type Protocol int

const (
	ProtocolMcp Protocol = iota
	ProtocolA2a
)

// registeredAgent pairs a UnifiedAgent with the metadata the gateway
// matches routing decisions against.
type registeredAgent struct {
	id       string
	protocol Protocol
	skills   []string
	agent    UnifiedAgent
}

// ProtocolGateway holds a registry of agents reachable through either
// protocol bridge and routes messages to one by capability or by id.
type ProtocolGateway struct {
	mu     sync.RWMutex
	agents map[string]registeredAgent
}

func NewProtocolGateway() *ProtocolGateway {
	return &ProtocolGateway{agents: make(map[string]registeredAgent)}
}

// RegisterMcpAgent registers an MCP tool caller, wrapped in a
// McpToA2aBridge, under id with the given skill names.
func (g *ProtocolGateway) RegisterMcpAgent(id string, bridge *McpToA2aBridge, skills []string) {
	g.register(registeredAgent{id: id, protocol: ProtocolMcp, skills: skills, agent: bridge})
}

// RegisterA2aAgent registers an agent reached over A2A under id with the
// given skill names.
func (g *ProtocolGateway) RegisterA2aAgent(id string, agent UnifiedAgent, skills []string) {
	g.register(registeredAgent{id: id, protocol: ProtocolA2a, skills: skills, agent: agent})
}

func (g *ProtocolGateway) register(ra registeredAgent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.agents[ra.id] = ra
}

// AgentsForProtocol lists the ids of every agent registered under protocol.
func (g *ProtocolGateway) AgentsForProtocol(protocol Protocol) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ids []string
	for id, ra := range g.agents {
		if ra.protocol == protocol {
			ids = append(ids, id)
		}
	}
	return ids
}

// FindByCapability lists the ids of agents advertising skill.
func (g *ProtocolGateway) FindByCapability(skill string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ids []string
	for id, ra := range g.agents {
		for _, s := range ra.skills {
			if s == skill {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

// RouteMessage sends message to the named agent. If skill is non-empty and
// no agent id is known to match it, RouteMessage returns
// CapabilityNotFound.
func (g *ProtocolGateway) RouteMessage(ctx context.Context, agentID string, message a2a.Message) (a2a.Task, error) {
	g.mu.RLock()
	ra, ok := g.agents[agentID]
	g.mu.RUnlock()

	if !ok {
		return a2a.Task{}, newCapabilityNotFound(agentID)
	}
	return ra.agent.SendMessage(ctx, message)
}
