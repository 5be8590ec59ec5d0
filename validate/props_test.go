package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/uiflow/schema"
)

func TestExistenceLayer(t *testing.T) {
	catalog := testCatalog()

	t.Run("known types pass", func(t *testing.T) {
		errs := checkExistence(&schema.UISchema{
			Root: &schema.UIComponent{
				ID: "a", Type: "Container",
				Children: []*schema.UIComponent{{ID: "b", Type: "Text"}},
			},
		}, catalog)
		assert.Empty(t, errs)
	})

	t.Run("unknown type reported at its path", func(t *testing.T) {
		errs := checkExistence(&schema.UISchema{
			Root: &schema.UIComponent{
				ID: "a", Type: "Container",
				Children: []*schema.UIComponent{{ID: "b", Type: "Widget"}},
			},
		}, catalog)
		require.Len(t, errs, 1)
		assert.Equal(t, "root.children[0].type", errs[0].Path)
		assert.Equal(t, "Unknown component: Widget", errs[0].Message)
		assert.Equal(t, `Replace "Widget" with a registered component type`, errs[0].Suggestion)
	})

	t.Run("case mismatch gets a did-you-mean", func(t *testing.T) {
		errs := checkExistence(&schema.UISchema{
			Root: &schema.UIComponent{ID: "a", Type: "button"},
		}, catalog)
		require.Len(t, errs, 1)
		assert.Equal(t, `Did you mean "Button"?`, errs[0].Suggestion)
	})

	t.Run("nil catalog skips the layer", func(t *testing.T) {
		errs := checkExistence(&schema.UISchema{
			Root: &schema.UIComponent{ID: "a", Type: "Anything"},
		}, nil)
		assert.Empty(t, errs)
	})
}

func TestPropsLayer(t *testing.T) {
	catalog := testCatalog()

	run := func(c *schema.UIComponent) []ChainError {
		return checkProps(&schema.UISchema{Root: c}, catalog)
	}

	t.Run("missing required prop", func(t *testing.T) {
		errs := run(&schema.UIComponent{ID: "a", Type: "Button"})
		require.Len(t, errs, 1)
		assert.Equal(t, "root.props.label", errs[0].Path)
		assert.Equal(t, `Missing required prop "label" for component Button`, errs[0].Message)
		assert.Equal(t, SeverityError, errs[0].Severity)
	})

	t.Run("unknown prop is a warning", func(t *testing.T) {
		errs := run(&schema.UIComponent{
			ID: "a", Type: "Button",
			Props: map[string]any{"label": "Go", "colour": "red"},
		})
		require.Len(t, errs, 1)
		assert.Equal(t, SeverityWarning, errs[0].Severity)
		assert.Equal(t, "root.props.colour", errs[0].Path)
	})

	t.Run("universal props never warn", func(t *testing.T) {
		errs := run(&schema.UIComponent{
			ID: "a", Type: "Button",
			Props: map[string]any{
				"label":     "Go",
				"className": "p-4",
				"style":     map[string]any{"opacity": 0.5},
			},
		})
		assert.Empty(t, errs)
	})

	t.Run("type mismatch", func(t *testing.T) {
		errs := run(&schema.UIComponent{
			ID: "a", Type: "Button",
			Props: map[string]any{"label": "Go", "disabled": "yes"},
		})
		require.Len(t, errs, 1)
		assert.Equal(t, "root.props.disabled", errs[0].Path)
		assert.Equal(t, `Invalid type for prop "disabled": expected boolean`, errs[0].Message)
	})

	t.Run("enum violation", func(t *testing.T) {
		errs := run(&schema.UIComponent{
			ID: "a", Type: "Button",
			Props: map[string]any{"label": "Go", "variant": "ghost"},
		})
		require.Len(t, errs, 1)
		assert.Equal(t, `Invalid value "ghost" for prop "variant"`, errs[0].Message)
		assert.Equal(t, "Use one of: primary, secondary", errs[0].Suggestion)
	})

	t.Run("enum member passes", func(t *testing.T) {
		errs := run(&schema.UIComponent{
			ID: "a", Type: "Button",
			Props: map[string]any{"label": "Go", "variant": "primary"},
		})
		assert.Empty(t, errs)
	})

	t.Run("unresolved type skipped here", func(t *testing.T) {
		errs := run(&schema.UIComponent{
			ID: "a", Type: "Widget",
			Props: map[string]any{"whatever": 1},
		})
		assert.Empty(t, errs)
	})
}

func TestTypeMatches(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   string
		want  bool
	}{
		{"string ok", "x", "string", true},
		{"number is float64", float64(3), "number", true},
		{"int is not a JSON number", 3, "number", false},
		{"boolean ok", true, "boolean", true},
		{"array ok", []any{1}, "array", true},
		{"object ok", map[string]any{}, "object", true},
		{"unknown type accepts anything", 3, "weird", true},
		{"string is not number", "3", "number", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, typeMatches(tt.value, tt.typ))
		})
	}
}
