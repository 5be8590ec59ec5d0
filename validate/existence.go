package validate

import (
	"fmt"
	"strings"

	"github.com/BaSui01/uiflow/schema"
)

// checkExistence validates the component-existence layer: every type value
// referenced in the tree must resolve through the injected catalog.
func checkExistence(s *schema.UISchema, catalog Catalog) []ChainError {
	if catalog == nil {
		return nil
	}

	var errs []ChainError
	s.Walk(func(path string, c *schema.UIComponent) bool {
		if c.Type == "" {
			// Reported by the structure layer; nothing to resolve.
			return true
		}
		if catalog.Resolve(c.Type) != nil {
			return true
		}
		errs = append(errs, ChainError{
			Layer:      LayerComponentExistence,
			Severity:   SeverityError,
			Path:       path + ".type",
			Message:    fmt.Sprintf("Unknown component: %s", c.Type),
			Suggestion: existenceSuggestion(c.Type, catalog),
		})
		return true
	})
	return errs
}

// existenceSuggestion proposes a registered type differing only in casing,
// the most common model mistake, before falling back to generic advice.
func existenceSuggestion(typ string, catalog Catalog) string {
	if mc, ok := catalog.(MapCatalog); ok {
		for _, known := range mc.Types() {
			if strings.EqualFold(known, typ) {
				return fmt.Sprintf("Did you mean %q?", known)
			}
		}
	}
	return fmt.Sprintf("Replace %q with a registered component type", typ)
}
