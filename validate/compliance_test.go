package validate

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/uiflow/schema"
)

func styleTree(props map[string]any) *schema.UISchema {
	return &schema.UISchema{
		Version: "1.0",
		Root:    &schema.UIComponent{ID: "a", Type: "Container", Props: props},
	}
}

func TestComplianceHardcodedStyleColor(t *testing.T) {
	v := NewTokenValidator(nil)

	res := v.Validate(styleTree(map[string]any{
		"style": map[string]any{"backgroundColor": "#ff0000"},
	}))

	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, TypeHardcodedColor, e.Type)
	assert.Equal(t, "root.props.style.backgroundColor", e.Path)
	assert.Equal(t, "#ff0000", e.Value)
	assert.Equal(t, "Replace #ff0000 with a design token class like bg-red-500", e.Suggestion)
	assert.Less(t, res.ComplianceScore, 100)
}

func TestComplianceClassNames(t *testing.T) {
	v := NewTokenValidator(nil)

	t.Run("tokenized classes counted, layout noise ignored", func(t *testing.T) {
		res := v.Validate(styleTree(map[string]any{
			"className": "flex p-4 gap-2 bg-blue-500 items-center",
		}))
		assert.True(t, res.Valid)
		assert.Equal(t, 3, res.TokenizedValues)
		assert.Equal(t, 100, res.ComplianceScore)
	})

	t.Run("bracket escape literal flagged", func(t *testing.T) {
		res := v.Validate(styleTree(map[string]any{
			"className": "p-4 bg-[#3b82f6]",
		}))
		require.Len(t, res.Errors, 1)
		e := res.Errors[0]
		assert.Equal(t, TypeHardcodedColor, e.Type)
		assert.Equal(t, "root.props.className", e.Path)
		assert.Equal(t, "#3b82f6", e.Value)
		// Exact catalog match suggests its own token.
		assert.Equal(t, "Replace #3b82f6 with a design token class like bg-blue-500", e.Suggestion)
		assert.Equal(t, 50, res.ComplianceScore)
	})

	t.Run("text prefix picks the text family", func(t *testing.T) {
		res := v.Validate(styleTree(map[string]any{
			"className": "text-[#111827]",
		}))
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "Replace #111827 with a design token class like text-gray-900", res.Errors[0].Suggestion)
	})
}

func TestComplianceSpacing(t *testing.T) {
	v := NewTokenValidator(nil)

	t.Run("px literal in spacing prop", func(t *testing.T) {
		res := v.Validate(styleTree(map[string]any{
			"style": map[string]any{"padding": "10px"},
		}))
		require.Len(t, res.Errors, 1)
		e := res.Errors[0]
		assert.Equal(t, TypeHardcodedSpacing, e.Type)
		assert.Equal(t, "root.props.style.padding", e.Path)
		assert.Equal(t, "10px", e.Value)
		// 10px ties between steps 2 (8px) and 3 (12px); the lower step wins.
		assert.Equal(t, "Replace 10px with a spacing token like p-2", e.Suggestion)
	})

	t.Run("gap props map to gap stems", func(t *testing.T) {
		res := v.Validate(styleTree(map[string]any{
			"style": map[string]any{"rowGap": "16px"},
		}))
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "Replace 16px with a spacing token like gap-y-4", res.Errors[0].Suggestion)
	})

	t.Run("px in non-spacing prop ignored", func(t *testing.T) {
		res := v.Validate(styleTree(map[string]any{
			"style": map[string]any{"width": "300px", "fontSize": "14px"},
		}))
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
	})
}

func TestComplianceRGBLiterals(t *testing.T) {
	v := NewTokenValidator(nil)

	res := v.Validate(styleTree(map[string]any{
		"style": map[string]any{
			"color":       "rgb(255, 255, 255)",
			"borderColor": "rgba(0, 0, 0, 0.5)",
		},
	}))

	require.Len(t, res.Errors, 2)
	byPath := map[string]ComplianceError{}
	for _, e := range res.Errors {
		byPath[e.Path] = e
	}
	assert.Equal(t, "Replace rgb(255, 255, 255) with a design token class like text-white", byPath["root.props.style.color"].Suggestion)
	assert.Equal(t, "Replace rgba(0, 0, 0, 0.5) with a design token class like border-black", byPath["root.props.style.borderColor"].Suggestion)
}

func TestComplianceNestedPaths(t *testing.T) {
	v := NewTokenValidator(nil)

	res := v.Validate(&schema.UISchema{
		Version: "1.0",
		Root: &schema.UIComponent{
			ID: "page", Type: "Container",
			Children: []*schema.UIComponent{
				{ID: "inner", Type: "Container", Children: []*schema.UIComponent{
					{ID: "leaf", Type: "Text", Props: map[string]any{
						"style": map[string]any{"color": "#fff"},
					}},
				}},
			},
		},
	})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "root.children[0].children[0].props.style.color", res.Errors[0].Path)
	assert.Equal(t, "#fff", res.Errors[0].Value)
}

func TestComplianceEmptyTree(t *testing.T) {
	v := NewTokenValidator(nil)

	res := v.Validate(styleTree(nil))
	assert.True(t, res.Valid)
	assert.Equal(t, 100, res.ComplianceScore)
	assert.Zero(t, res.TokenizedValues)
	assert.Zero(t, res.HardcodedValues)
}

func TestScoreProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("score stays within [0,100]", prop.ForAll(
		func(tokenized, hardcoded int) bool {
			s := Score(tokenized, hardcoded)
			return s >= 0 && s <= 100
		},
		gen.IntRange(0, 10000),
		gen.IntRange(0, 10000),
	))

	properties.Property("no hardcoded values scores 100", prop.ForAll(
		func(tokenized int) bool {
			return Score(tokenized, 0) == 100
		},
		gen.IntRange(0, 10000),
	))

	properties.Property("all hardcoded values scores 0", prop.ForAll(
		func(hardcoded int) bool {
			return Score(0, hardcoded) == 0
		},
		gen.IntRange(1, 10000),
	))

	properties.Property("score matches the rounded ratio", prop.ForAll(
		func(tokenized, hardcoded int) bool {
			want := int(math.Round(100 * float64(tokenized) / float64(tokenized+hardcoded)))
			return Score(tokenized, hardcoded) == want
		},
		gen.IntRange(0, 10000),
		gen.IntRange(1, 10000),
	))

	properties.TestingRun(t)
}
