package task

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/kaptinlin/jsonschema"
)

// Schema is JSON-schema shaped metadata (type, properties, required) describing a
// task's parameters. Only key presence is enforced when a task is built; Validate
// runs the full check on demand.
type Schema map[string]any

// ObjectSchema builds the usual {"type":"object"} schema.
func ObjectSchema(properties map[string]any, required ...string) Schema {
	req := make([]any, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}
	return Schema{
		"type":       "object",
		"properties": properties,
		"required":   req,
	}
}

func (s Schema) String() string {
	bytes, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(bytes)
}

// Required lists the required keys in declaration order.
func (s Schema) Required() []string {
	var out []string
	switch req := s["required"].(type) {
	case []string:
		out = append(out, req...)
	case []any:
		for _, r := range req {
			if k, ok := r.(string); ok {
				out = append(out, k)
			}
		}
	}
	return out
}

func (s Schema) Properties() map[string]any {
	props, _ := s["properties"].(map[string]any)
	return props
}

// Keys lists every property and required key, sorted.
func (s Schema) Keys() []string {
	var keys []string
	for k := range s.Properties() {
		keys = append(keys, k)
	}
	for _, k := range s.Required() {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// CheckRequired returns a MissingParameterError for the first required key absent from p.
func (s Schema) CheckRequired(taskName string, p Params) error {
	for _, key := range s.Required() {
		if _, ok := p[key]; !ok {
			return &MissingParameterError{Task: taskName, Key: key}
		}
	}
	return nil
}

func (s Schema) Compile() (*jsonschema.Schema, error) {
	if s == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}

// Validate runs full JSON-schema validation of p against s.
func (s Schema) Validate(p Params) error {
	schema, err := s.Compile()
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	// Round-trip through JSON so Go ints look like JSON numbers to the validator.
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	var instance map[string]any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}
	result := schema.Validate(instance)
	if result.Valid {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}
