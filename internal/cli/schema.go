package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// groupingPlanSchema validates the advanced `set-groups --file` shape
// before it is unmarshaled into grouping.Plan, giving a precise
// location-aware error for a malformed plan instead of a generic
// encoding/json "cannot unmarshal" message (§6 "set-groups --groups/--file").
var groupingPlanSchema = &jsonschema.Schema{
	Type: "array",
	Items: &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"groupId":   {Type: "integer"},
			"groupType": {Type: "string", Enum: []any{"parallel", "sequential"}},
			"order":     {Type: "integer"},
			"paths": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
		},
		Required: []string{"groupId", "groupType", "paths"},
	},
}

// validateGroupingPlanJSON checks raw against groupingPlanSchema.
func validateGroupingPlanJSON(raw []byte) error {
	resolved, err := groupingPlanSchema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("compile grouping plan schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("grouping plan does not match schema: %w", err)
	}
	return nil
}
