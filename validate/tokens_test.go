package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		r, g, b float64
		ok      bool
	}{
		{"six digit hex", "#3b82f6", 59, 130, 246, true},
		{"three digit hex", "#f0a", 255, 0, 170, true},
		{"rgb", "rgb(10, 20, 30)", 10, 20, 30, true},
		{"rgba", "rgba(10, 20, 30, 0.5)", 10, 20, 30, true},
		{"whitespace tolerated", "  #000000 ", 0, 0, 0, true},
		{"not a color", "blue", 0, 0, 0, false},
		{"bad hex length", "#12345", 0, 0, 0, false},
		{"bad hex digits", "#zzzzzz", 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, ok := parseColor(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.r, r)
				assert.Equal(t, tt.g, g)
				assert.Equal(t, tt.b, b)
			}
		})
	}
}

func TestNearestColor(t *testing.T) {
	catalog := DefaultTokenCatalog()

	t.Run("exact match", func(t *testing.T) {
		stem, ok := catalog.NearestColor("#3b82f6")
		require.True(t, ok)
		assert.Equal(t, "blue-500", stem)
	})

	t.Run("near match", func(t *testing.T) {
		stem, ok := catalog.NearestColor("#ff0000")
		require.True(t, ok)
		assert.Equal(t, "red-500", stem)
	})

	t.Run("unparseable literal", func(t *testing.T) {
		_, ok := catalog.NearestColor("tomato")
		assert.False(t, ok)
	})

	t.Run("empty catalog", func(t *testing.T) {
		empty := &TokenCatalog{}
		_, ok := empty.NearestColor("#ff0000")
		assert.False(t, ok)
	})
}

func TestNearestSpacing(t *testing.T) {
	catalog := DefaultTokenCatalog()

	t.Run("exact match", func(t *testing.T) {
		step, ok := catalog.NearestSpacing(16)
		require.True(t, ok)
		assert.Equal(t, "4", step)
	})

	t.Run("tie breaks to the lower step", func(t *testing.T) {
		step, ok := catalog.NearestSpacing(10)
		require.True(t, ok)
		assert.Equal(t, "2", step)
	})

	t.Run("tie breaks numerically not lexically", func(t *testing.T) {
		// 36 is equidistant from 32 ("8") and 40 ("10"); "10" sorts before
		// "8" as a string but 32 is the smaller value.
		step, ok := catalog.NearestSpacing(36)
		require.True(t, ok)
		assert.Equal(t, "8", step)
	})

	t.Run("empty catalog", func(t *testing.T) {
		empty := &TokenCatalog{}
		_, ok := empty.NearestSpacing(16)
		assert.False(t, ok)
	})
}
