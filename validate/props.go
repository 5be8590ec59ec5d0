package validate

import (
	"fmt"
	"strings"

	"github.com/BaSui01/uiflow/schema"
)

// universalProps are legal on every component regardless of its prop schema.
var universalProps = map[string]bool{
	"className": true,
	"style":     true,
}

// checkProps validates the props-validation layer: every prop name/value
// pair must be legal for its component type per the catalog's prop schema.
// Components whose type does not resolve are skipped here; the existence
// layer already reports them.
func checkProps(s *schema.UISchema, catalog Catalog) []ChainError {
	if catalog == nil {
		return nil
	}

	var errs []ChainError
	s.Walk(func(path string, c *schema.UIComponent) bool {
		spec := catalog.Resolve(c.Type)
		if spec == nil {
			return true
		}
		errs = append(errs, checkComponentProps(path, c, spec)...)
		return true
	})
	return errs
}

func checkComponentProps(path string, c *schema.UIComponent, spec *PropSchema) []ChainError {
	var errs []ChainError

	for name, ps := range spec.Props {
		if !ps.Required {
			continue
		}
		if _, present := c.Props[name]; !present {
			errs = append(errs, ChainError{
				Layer:      LayerPropsValidation,
				Severity:   SeverityError,
				Path:       fmt.Sprintf("%s.props.%s", path, name),
				Message:    fmt.Sprintf("Missing required prop %q for component %s", name, c.Type),
				Suggestion: fmt.Sprintf("Add the %q prop", name),
			})
		}
	}

	for name, value := range c.Props {
		propPath := fmt.Sprintf("%s.props.%s", path, name)
		ps, known := spec.Props[name]
		if !known {
			if universalProps[name] {
				continue
			}
			errs = append(errs, ChainError{
				Layer:      LayerPropsValidation,
				Severity:   SeverityWarning,
				Path:       propPath,
				Message:    fmt.Sprintf("Unknown prop %q for component %s", name, c.Type),
				Suggestion: fmt.Sprintf("Remove %q or use a prop the component declares", name),
			})
			continue
		}

		if ps.Type != "" && !typeMatches(value, ps.Type) {
			errs = append(errs, ChainError{
				Layer:      LayerPropsValidation,
				Severity:   SeverityError,
				Path:       propPath,
				Message:    fmt.Sprintf("Invalid type for prop %q: expected %s", name, ps.Type),
				Suggestion: fmt.Sprintf("Provide a %s value for %q", ps.Type, name),
			})
			continue
		}

		if len(ps.Enum) > 0 {
			if s, ok := value.(string); ok && !contains(ps.Enum, s) {
				errs = append(errs, ChainError{
					Layer:      LayerPropsValidation,
					Severity:   SeverityError,
					Path:       propPath,
					Message:    fmt.Sprintf("Invalid value %q for prop %q", s, name),
					Suggestion: fmt.Sprintf("Use one of: %s", strings.Join(ps.Enum, ", ")),
				})
			}
		}
	}
	return errs
}

// typeMatches checks a JSON-decoded value against a declared prop type.
// JSON numbers always decode to float64, so number covers integers too.
func typeMatches(value any, typ string) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
