package validate

import (
	"fmt"

	"github.com/BaSui01/uiflow/schema"
)

// checkStructure validates the schema-structure layer against the generic
// parsed tree: required fields present, children arrays well-formed, no
// duplicate component ids.
func checkStructure(doc any) []ChainError {
	var errs []ChainError

	obj, ok := doc.(map[string]any)
	if !ok {
		return []ChainError{{
			Layer:      LayerSchemaStructure,
			Severity:   SeverityError,
			Path:       "",
			Message:    "Schema must be a JSON object",
			Suggestion: `Wrap the output in {"version": "1.0", "root": {...}}`,
		}}
	}

	if v, present := obj["version"]; !present {
		errs = append(errs, ChainError{
			Layer:      LayerSchemaStructure,
			Severity:   SeverityWarning,
			Path:       "version",
			Message:    "Missing version field",
			Suggestion: `Add "version": "1.0" (a default is injected)`,
		})
	} else if _, isStr := v.(string); !isStr {
		errs = append(errs, ChainError{
			Layer:    LayerSchemaStructure,
			Severity: SeverityError,
			Path:     "version",
			Message:  "Field version must be a string",
		})
	}

	root, present := obj["root"]
	if !present {
		errs = append(errs, ChainError{
			Layer:      LayerSchemaStructure,
			Severity:   SeverityError,
			Path:       "root",
			Message:    "Missing required field: root",
			Suggestion: `Add a "root" object with "id" and "type" fields`,
		})
		return errs
	}

	seen := map[string]string{} // id -> first path
	errs = append(errs, checkNode(root, "root", seen)...)
	return errs
}

// checkNode validates one component object of the generic tree.
func checkNode(node any, path string, seen map[string]string) []ChainError {
	var errs []ChainError

	obj, ok := node.(map[string]any)
	if !ok {
		return []ChainError{{
			Layer:    LayerSchemaStructure,
			Severity: SeverityError,
			Path:     path,
			Message:  "Component must be a JSON object",
		}}
	}

	errs = append(errs, requireString(obj, path, "id")...)
	errs = append(errs, requireString(obj, path, "type")...)

	if id, ok := obj["id"].(string); ok && id != "" {
		if first, dup := seen[id]; dup {
			errs = append(errs, ChainError{
				Layer:      LayerSchemaStructure,
				Severity:   SeverityError,
				Path:       path + ".id",
				Message:    fmt.Sprintf("Duplicate component id: %q", id),
				Suggestion: fmt.Sprintf("Component ids must be unique; %q is already used at %s", id, first),
			})
		} else {
			seen[id] = path + ".id"
		}
	}

	children, present := obj["children"]
	if !present || children == nil {
		return errs
	}
	arr, ok := children.([]any)
	if !ok {
		errs = append(errs, ChainError{
			Layer:      LayerSchemaStructure,
			Severity:   SeverityError,
			Path:       path + ".children",
			Message:    "Field children must be an array of components",
			Suggestion: "Use a JSON array, even for a single child",
		})
		return errs
	}
	for i, child := range arr {
		errs = append(errs, checkNode(child, fmt.Sprintf("%s.children[%d]", path, i), seen)...)
	}
	return errs
}

func requireString(obj map[string]any, path, field string) []ChainError {
	v, present := obj[field]
	if !present {
		return []ChainError{{
			Layer:      LayerSchemaStructure,
			Severity:   SeverityError,
			Path:       path + "." + field,
			Message:    fmt.Sprintf("Missing required field: %s", field),
			Suggestion: fmt.Sprintf("Every component needs a string %q field", field),
		}}
	}
	if s, ok := v.(string); !ok || s == "" {
		return []ChainError{{
			Layer:    LayerSchemaStructure,
			Severity: SeverityError,
			Path:     path + "." + field,
			Message:  fmt.Sprintf("Field %s must be a non-empty string", field),
		}}
	}
	return nil
}

// checkStructureTyped is the schema-structure layer for already-typed
// schemas, where children arrays are well-formed by construction.
func checkStructureTyped(s *schema.UISchema) []ChainError {
	var errs []ChainError

	if s == nil || s.Root == nil {
		return []ChainError{{
			Layer:      LayerSchemaStructure,
			Severity:   SeverityError,
			Path:       "root",
			Message:    "Missing required field: root",
			Suggestion: `Add a "root" object with "id" and "type" fields`,
		}}
	}
	if s.Version == "" || s.VersionDefaulted {
		errs = append(errs, ChainError{
			Layer:      LayerSchemaStructure,
			Severity:   SeverityWarning,
			Path:       "version",
			Message:    "Missing version field",
			Suggestion: `Add "version": "1.0" (a default is injected)`,
		})
	}

	seen := map[string]string{}
	s.Walk(func(path string, c *schema.UIComponent) bool {
		if c.ID == "" {
			errs = append(errs, ChainError{
				Layer:    LayerSchemaStructure,
				Severity: SeverityError,
				Path:     path + ".id",
				Message:  "Field id must be a non-empty string",
			})
		} else if first, dup := seen[c.ID]; dup {
			errs = append(errs, ChainError{
				Layer:      LayerSchemaStructure,
				Severity:   SeverityError,
				Path:       path + ".id",
				Message:    fmt.Sprintf("Duplicate component id: %q", c.ID),
				Suggestion: fmt.Sprintf("Component ids must be unique; %q is already used at %s", c.ID, first),
			})
		} else {
			seen[c.ID] = path + ".id"
		}
		if c.Type == "" {
			errs = append(errs, ChainError{
				Layer:    LayerSchemaStructure,
				Severity: SeverityError,
				Path:     path + ".type",
				Message:  "Field type must be a non-empty string",
			})
		}
		return true
	})
	return errs
}
