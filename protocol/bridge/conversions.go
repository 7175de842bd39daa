package bridge

import (
	"encoding/json"

	"github.com/skreaver-dev/skreaver/protocol/a2a"
	"github.com/skreaver-dev/skreaver/protocol/mcp"
)

// skillToTool maps one A2A skill to its MCP tool descriptor. Input schemas
// pass through unchanged; the two protocols agree on plain JSON Schema.
func skillToTool(skill a2a.Skill) mcp.Tool {
	return mcp.Tool{
		Name:        skill.Name,
		Description: skill.Description,
		InputSchema: skill.InputSchema,
	}
}

func skillsToTools(skills []a2a.Skill) []mcp.Tool {
	out := make([]mcp.Tool, 0, len(skills))
	for _, s := range skills {
		out = append(out, skillToTool(s))
	}
	return out
}

// argumentsToMessage wraps a tool call's JSON arguments in a user message
// carrying a single data part, the shape an A2A skill invocation expects.
func argumentsToMessage(args json.RawMessage) a2a.Message {
	return a2a.Message{
		Role:  a2a.RoleUser,
		Parts: []a2a.Part{a2a.NewDataPart(args, "application/json")},
	}
}

// taskResult collects the content a completed task produced: the data/text
// parts of its messages and artifacts, concatenated in arrival order. It is
// the value an A2aToMcpBridge call returns as its MCP result.
func taskResult(task a2a.Task) json.RawMessage {
	var parts []a2a.Part
	for _, msg := range task.Messages {
		parts = append(parts, msg.Parts...)
	}
	for _, artifact := range task.Artifacts {
		parts = append(parts, artifact.Parts...)
	}

	for i := len(parts) - 1; i >= 0; i-- {
		switch parts[i].Kind {
		case a2a.PartData:
			return parts[i].DataJSON
		case a2a.PartText:
			b, err := json.Marshal(parts[i].Text)
			if err != nil {
				return nil
			}
			return b
		}
	}
	return json.RawMessage(`null`)
}

// taskFailureMessage extracts a human-readable reason from a task that
// ended in a non-completed terminal status.
func taskFailureMessage(task a2a.Task) string {
	for i := len(task.Messages) - 1; i >= 0; i-- {
		for _, part := range task.Messages[i].Parts {
			if part.Kind == a2a.PartText {
				return part.Text
			}
		}
	}
	return task.Status.String()
}
