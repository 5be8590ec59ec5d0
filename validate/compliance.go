package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/BaSui01/uiflow/schema"
)

// ComplianceErrorType classifies a style-compliance detection.
type ComplianceErrorType string

const (
	TypeHardcodedColor   ComplianceErrorType = "hardcoded-color"
	TypeHardcodedSpacing ComplianceErrorType = "hardcoded-spacing"
)

// ComplianceError is one hard-coded style value found in the schema.
type ComplianceError struct {
	Type       ComplianceErrorType `json:"type"`
	Severity   Severity            `json:"severity"`
	Path       string              `json:"path"`
	Value      string              `json:"value"`
	Message    string              `json:"message"`
	Suggestion string              `json:"suggestion"`
}

// ComplianceResult is the outcome of the style-compliance layer.
// ComplianceScore is round(100 * tokenized / (tokenized + hardcoded)),
// defined as 100 when no style values are present at all.
type ComplianceResult struct {
	Valid           bool              `json:"valid"`
	ComplianceScore int               `json:"complianceScore"`
	TokenizedValues int               `json:"tokenizedValues"`
	HardcodedValues int               `json:"hardcodedValues"`
	Errors          []ComplianceError `json:"errors"`
	Warnings        []ComplianceError `json:"warnings"`
}

// Score computes the compliance score for the given counts. The result is
// always an integer in [0,100]; an empty denominator is vacuously compliant.
func Score(tokenized, hardcoded int) int {
	total := tokenized + hardcoded
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(tokenized) / float64(total)))
}

// Tokenized utility classes are never flagged; only literal values are
// hardcoded-value candidates.
var (
	spacingClassRe = regexp.MustCompile(`^-?(?:p|px|py|pt|pb|pl|pr|m|mx|my|mt|mb|ml|mr|gap|gap-x|gap-y|space-x|space-y)-(?:\d+|px)$`)
	colorClassRe   = regexp.MustCompile(`^(?:bg|text|border)-(?:[a-z]+-\d{2,3}|white|black|transparent)$`)
)

// spacingStyleProps are the inline style properties whose px literals count
// as hardcoded spacing.
var spacingStyleProps = map[string]string{
	"padding": "p", "paddingTop": "pt", "paddingRight": "pr",
	"paddingBottom": "pb", "paddingLeft": "pl",
	"margin": "m", "marginTop": "mt", "marginRight": "mr",
	"marginBottom": "mb", "marginLeft": "ml",
	"gap": "gap", "rowGap": "gap-y", "columnGap": "gap-x",
}

// TokenValidator is the style-compliance layer: it walks the schema tree,
// detects hard-coded color and spacing literals in class strings and inline
// styles, and proposes token substitutions from the active catalog.
type TokenValidator struct {
	catalog *TokenCatalog
}

// NewTokenValidator creates a validator over the given catalog; nil selects
// the built-in default catalog.
func NewTokenValidator(catalog *TokenCatalog) *TokenValidator {
	if catalog == nil {
		catalog = DefaultTokenCatalog()
	}
	return &TokenValidator{catalog: catalog}
}

// Validate scans the whole tree and computes the compliance score.
// Recursion into children is mandatory: nested detections carry the full
// children[...] path so cross-attempt diffing stays accurate.
func (v *TokenValidator) Validate(s *schema.UISchema) *ComplianceResult {
	result := &ComplianceResult{Valid: true}

	s.Walk(func(path string, c *schema.UIComponent) bool {
		v.checkClassName(path, c.ClassName(), result)
		v.checkStyle(path, c.Style(), result)
		return true
	})

	result.ComplianceScore = Score(result.TokenizedValues, result.HardcodedValues)
	result.Valid = len(result.Errors) == 0
	return result
}

func (r *ComplianceResult) addError(e ComplianceError) {
	r.HardcodedValues++
	if e.Severity == SeverityWarning {
		r.Warnings = append(r.Warnings, e)
		return
	}
	r.Errors = append(r.Errors, e)
}

// checkClassName scans one className string. Each class is either a
// tokenized utility (counted), a class carrying a literal (flagged), or
// layout noise (ignored).
func (v *TokenValidator) checkClassName(path, className string, result *ComplianceResult) {
	if className == "" {
		return
	}
	propPath := path + ".props.className"

	for _, class := range strings.Fields(className) {
		literals := colorLiterals(class)
		if len(literals) == 0 {
			if spacingClassRe.MatchString(class) || colorClassRe.MatchString(class) {
				result.TokenizedValues++
			}
			continue
		}
		// Tailwind bracket escapes (bg-[#fff]) and raw CSS both land here.
		for _, lit := range literals {
			result.addError(ComplianceError{
				Type:       TypeHardcodedColor,
				Severity:   SeverityError,
				Path:       propPath,
				Value:      lit,
				Message:    fmt.Sprintf("Hardcoded color %s in className", lit),
				Suggestion: v.colorSuggestion(lit, classCategory(class)),
			})
		}
	}
}

// checkStyle scans one inline style map.
func (v *TokenValidator) checkStyle(path string, style map[string]any, result *ComplianceResult) {
	for prop, raw := range style {
		value, ok := raw.(string)
		if !ok {
			continue
		}
		propPath := fmt.Sprintf("%s.props.style.%s", path, prop)

		for _, lit := range colorLiterals(value) {
			result.addError(ComplianceError{
				Type:       TypeHardcodedColor,
				Severity:   SeverityError,
				Path:       propPath,
				Value:      lit,
				Message:    fmt.Sprintf("Hardcoded color %s in style.%s", lit, prop),
				Suggestion: v.colorSuggestion(lit, styleCategory(prop)),
			})
		}

		if stem, isSpacing := spacingStyleProps[prop]; isSpacing {
			if m := pxValueRe.FindStringSubmatch(strings.TrimSpace(value)); m != nil {
				px, _ := strconv.ParseFloat(m[1], 64)
				result.addError(ComplianceError{
					Type:       TypeHardcodedSpacing,
					Severity:   SeverityError,
					Path:       propPath,
					Value:      value,
					Message:    fmt.Sprintf("Hardcoded spacing %s in style.%s", value, prop),
					Suggestion: v.spacingSuggestion(value, px, stem),
				})
			}
		}
	}
}

// colorLiterals returns every hex or rgb()/rgba() literal in s.
func colorLiterals(s string) []string {
	var out []string
	out = append(out, rgbColorRe.FindAllString(s, -1)...)
	// Strip rgb() matches before the hex pass so their digits are not
	// rescanned.
	stripped := rgbColorRe.ReplaceAllString(s, "")
	out = append(out, hexColorRe.FindAllString(stripped, -1)...)
	return out
}

// colorSuggestion always embeds the original literal verbatim and a
// category-appropriate token class chosen by nearest catalog value.
func (v *TokenValidator) colorSuggestion(literal, category string) string {
	if stem, ok := v.catalog.NearestColor(literal); ok {
		return fmt.Sprintf("Replace %s with a design token class like %s-%s", literal, category, stem)
	}
	return fmt.Sprintf("Replace %s with a %s-* design token class", literal, category)
}

func (v *TokenValidator) spacingSuggestion(literal string, px float64, stem string) string {
	if step, ok := v.catalog.NearestSpacing(px); ok {
		return fmt.Sprintf("Replace %s with a spacing token like %s-%s", literal, stem, step)
	}
	return fmt.Sprintf("Replace %s with a %s-* spacing token", literal, stem)
}

// classCategory picks the token family for a className detection from the
// utility prefix.
func classCategory(class string) string {
	switch {
	case strings.HasPrefix(class, "text-"):
		return "text"
	case strings.HasPrefix(class, "border-"):
		return "border"
	default:
		return "bg"
	}
}

// styleCategory picks the token family for an inline style detection.
func styleCategory(prop string) string {
	switch prop {
	case "color":
		return "text"
	case "borderColor":
		return "border"
	default:
		return "bg"
	}
}

// complianceToChain folds compliance detections into the chain's uniform
// error shape under the style-compliance layer.
func complianceToChain(r *ComplianceResult) []ChainError {
	out := make([]ChainError, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		out = append(out, ChainError{
			Layer:      LayerStyleCompliance,
			Severity:   e.Severity,
			Path:       e.Path,
			Message:    e.Message,
			Suggestion: e.Suggestion,
		})
	}
	for _, w := range r.Warnings {
		out = append(out, ChainError{
			Layer:      LayerStyleCompliance,
			Severity:   SeverityWarning,
			Path:       w.Path,
			Message:    w.Message,
			Suggestion: w.Suggestion,
		})
	}
	return out
}
