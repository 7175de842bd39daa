package a2a

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SkillValidator compiles a skill's advertised input schema once and
// validates candidate Data parts against it on every call, so a bad JSON
// payload is rejected before it reaches tool dispatch.
type SkillValidator struct {
	schema *jsonschema.Schema
}

// NewSkillValidator compiles skill.InputSchema. If the skill advertises no
// schema, the returned validator accepts any Data part.
func NewSkillValidator(skill Skill) (*SkillValidator, error) {
	if len(skill.InputSchema) == 0 {
		return &SkillValidator{}, nil
	}

	compiler := jsonschema.NewCompiler()
	var doc any
	if err := json.Unmarshal(skill.InputSchema, &doc); err != nil {
		return nil, fmt.Errorf("skill %s: parse input schema: %w", skill.ID, err)
	}
	resourceName := "skill:" + skill.ID
	if err := compiler.AddResource(resourceName, doc); err != nil {
		return nil, fmt.Errorf("skill %s: add schema resource: %w", skill.ID, err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("skill %s: compile schema: %w", skill.ID, err)
	}
	return &SkillValidator{schema: schema}, nil
}

// Validate checks part against the compiled schema. It returns an error
// (and does not panic) for a non-Data part, since schema validation only
// applies to structured payloads.
func (v *SkillValidator) Validate(part Part) error {
	if part.Kind != PartData {
		return fmt.Errorf("skill input validation only applies to data parts, got kind %d", part.Kind)
	}
	if v.schema == nil {
		return nil
	}
	var doc any
	if err := json.Unmarshal(part.DataJSON, &doc); err != nil {
		return fmt.Errorf("invalid json in data part: %w", err)
	}
	return v.schema.Validate(doc)
}
