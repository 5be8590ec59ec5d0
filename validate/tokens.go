package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// TokenCatalog is the active design-token catalog: the named color and
// spacing scale values that generated schemas should reference symbolically
// instead of as literals. It is configuration consumed by the
// style-compliance layer, not owned by it.
type TokenCatalog struct {
	// Colors maps a token stem ("red-500") to its hex value ("#ef4444").
	// Utility classes derive from the stem: bg-red-500, text-red-500.
	Colors map[string]string `json:"colors" yaml:"colors"`
	// Spacing maps a scale step ("4") to its pixel value (16).
	// Utility classes derive from the step: p-4, gap-4, m-4.
	Spacing map[string]float64 `json:"spacing" yaml:"spacing"`
}

// DefaultTokenCatalog returns the built-in catalog, a compact Tailwind-style
// palette and spacing scale.
func DefaultTokenCatalog() *TokenCatalog {
	return &TokenCatalog{
		Colors: map[string]string{
			"white":      "#ffffff",
			"black":      "#000000",
			"gray-100":   "#f3f4f6",
			"gray-500":   "#6b7280",
			"gray-900":   "#111827",
			"red-500":    "#ef4444",
			"yellow-400": "#facc15",
			"green-500":  "#22c55e",
			"blue-500":   "#3b82f6",
			"indigo-500": "#6366f1",
			"purple-500": "#a855f7",
		},
		Spacing: map[string]float64{
			"0": 0, "1": 4, "2": 8, "3": 12, "4": 16, "5": 20,
			"6": 24, "8": 32, "10": 40, "12": 48, "16": 64,
		},
	}
}

// NearestColor returns the token stem whose value is closest to the given
// color literal (hex, rgb() or rgba()), by squared RGB distance.
func (t *TokenCatalog) NearestColor(literal string) (string, bool) {
	r, g, b, ok := parseColor(literal)
	if !ok || len(t.Colors) == 0 {
		return "", false
	}
	best := ""
	bestDist := math.MaxFloat64
	for stem, hex := range t.Colors {
		cr, cg, cb, ok := parseColor(hex)
		if !ok {
			continue
		}
		d := sq(r-cr) + sq(g-cg) + sq(b-cb)
		if d < bestDist || (d == bestDist && stem < best) {
			bestDist = d
			best = stem
		}
	}
	return best, best != ""
}

// NearestSpacing returns the scale step closest to the given pixel value.
func (t *TokenCatalog) NearestSpacing(px float64) (string, bool) {
	if len(t.Spacing) == 0 {
		return "", false
	}
	best := ""
	bestVal := 0.0
	bestDist := math.MaxFloat64
	for step, v := range t.Spacing {
		d := math.Abs(v - px)
		// Ties resolve to the numerically smaller scale value; step names
		// are not ordered ("10" sorts before "8").
		if d < bestDist || (d == bestDist && (v < bestVal || (v == bestVal && step < best))) {
			bestDist = d
			bestVal = v
			best = step
		}
	}
	return best, best != ""
}

var (
	hexColorRe = regexp.MustCompile(`#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`)
	rgbColorRe = regexp.MustCompile(`rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*[\d.]+\s*)?\)`)
	pxValueRe  = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)px$`)
)

// parseColor decodes #RGB, #RRGGBB, rgb() and rgba() literals.
func parseColor(s string) (r, g, b float64, ok bool) {
	s = strings.TrimSpace(s)
	if m := rgbColorRe.FindStringSubmatch(s); m != nil {
		ri, _ := strconv.Atoi(m[1])
		gi, _ := strconv.Atoi(m[2])
		bi, _ := strconv.Atoi(m[3])
		return float64(ri), float64(gi), float64(bi), true
	}
	if !strings.HasPrefix(s, "#") {
		return 0, 0, 0, false
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		hex = fmt.Sprintf("%c%c%c%c%c%c", hex[0], hex[0], hex[1], hex[1], hex[2], hex[2])
	case 6:
	default:
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return float64(v >> 16 & 0xff), float64(v >> 8 & 0xff), float64(v & 0xff), true
}

func sq(x float64) float64 { return x * x }
