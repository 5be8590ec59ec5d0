package validate

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/uiflow/internal/jsonscan"
	"github.com/BaSui01/uiflow/schema"
)

// Chain runs the five validation layers in order. It is a pure function of
// its injected collaborators (catalog, token catalog) and its input, so it
// is safe to share one Chain across concurrent generation runs.
//
// The chain does not short-circuit after the syntax layer: every structural
// and stylistic layer runs so the caller sees the complete defect picture in
// one pass. Only a json-syntax failure suppresses the deeper layers, because
// there is no parsed tree left to walk.
type Chain struct {
	catalog Catalog
	style   *TokenValidator
	logger  *zap.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets the chain logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) ChainOption {
	return func(c *Chain) { c.logger = logger }
}

// WithTokenCatalog sets the design-token catalog used by the
// style-compliance layer. Defaults to the built-in catalog.
func WithTokenCatalog(tokens *TokenCatalog) ChainOption {
	return func(c *Chain) { c.style = NewTokenValidator(tokens) }
}

// NewChain creates a validation chain bound to a component catalog.
func NewChain(catalog Catalog, opts ...ChainOption) *Chain {
	c := &Chain{
		catalog: catalog,
		style:   NewTokenValidator(nil),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run validates raw model output: json-syntax on the raw string, then the
// structural and stylistic layers on the parsed tree.
func (c *Chain) Run(raw string) *ChainResult {
	result := &ChainResult{Valid: true}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		result.add(syntaxError(raw, err))
		return result
	}

	// Structure checks run on the generic tree so malformed children arrays
	// are reported as defects instead of decode failures.
	result.merge(checkStructure(doc))

	var s schema.UISchema
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		// Shape too far off to type; the generic checks above already
		// describe what is wrong.
		if len(result.Errors) == 0 {
			result.add(ChainError{
				Layer:    LayerSchemaStructure,
				Severity: SeverityError,
				Path:     "root",
				Message:  fmt.Sprintf("Schema does not match the UI component shape: %v", err),
			})
		}
		return result
	}
	if s.Version == "" {
		s.Version = schema.DefaultVersion
	}

	c.runTreeLayers(&s, result)
	c.logResult(result)
	return result
}

// RunSchema validates an already-extracted schema, skipping the raw-string
// syntax layer.
func (c *Chain) RunSchema(s *schema.UISchema) *ChainResult {
	result := &ChainResult{Valid: true}
	result.merge(checkStructureTyped(s))
	c.runTreeLayers(s, result)
	c.logResult(result)
	return result
}

func (c *Chain) runTreeLayers(s *schema.UISchema, result *ChainResult) {
	result.merge(checkExistence(s, c.catalog))
	result.merge(checkProps(s, c.catalog))

	compliance := c.style.Validate(s)
	result.merge(complianceToChain(compliance))
}

// Compliance validates only the style-compliance layer and returns the full
// scoring detail.
func (c *Chain) Compliance(s *schema.UISchema) *ComplianceResult {
	return c.style.Validate(s)
}

func (c *Chain) logResult(result *ChainResult) {
	if result.Valid {
		c.logger.Debug("validation chain passed", zap.Int("warnings", len(result.Warnings)))
		return
	}
	c.logger.Debug("validation chain failed",
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)),
	)
}

// syntaxError converts a JSON decode failure into a json-syntax chain error
// with a source position when the decoder provides an offset.
func syntaxError(raw string, err error) ChainError {
	ce := ChainError{
		Layer:      LayerJSONSyntax,
		Severity:   SeverityError,
		Path:       "",
		Message:    fmt.Sprintf("Invalid JSON: %v", err),
		Suggestion: "Check for trailing commas, unquoted keys, or mismatched brackets",
	}
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		line, col := jsonscan.LineCol(raw, int(syn.Offset))
		ce.Line = line
		ce.Column = col
	}
	return ce
}
