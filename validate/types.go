// Package validate implements the staged validation chain that turns a
// generated UI schema into a precise, layer-classified defect list.
package validate

import "sort"

// Layer is one stage of the validation chain. The declaration order below is
// the execution order, from syntactic to stylistic; it is also the grouping
// key for error display and retry-prompt sections.
type Layer string

const (
	LayerJSONSyntax         Layer = "json-syntax"
	LayerSchemaStructure    Layer = "schema-structure"
	LayerComponentExistence Layer = "component-existence"
	LayerPropsValidation    Layer = "props-validation"
	LayerStyleCompliance    Layer = "style-compliance"
)

// Layers returns all chain layers in execution order.
func Layers() []Layer {
	return []Layer{
		LayerJSONSyntax,
		LayerSchemaStructure,
		LayerComponentExistence,
		LayerPropsValidation,
		LayerStyleCompliance,
	}
}

// Severity of a chain error. Warnings never block acceptance.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ChainError is one defect found by a chain layer. Path is a dot/bracket
// JSON path identifying the offending node (root.children[2].props.className).
type ChainError struct {
	Layer      Layer    `json:"layer"`
	Severity   Severity `json:"severity"`
	Path       string   `json:"path"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Line       int      `json:"line,omitempty"`
	Column     int      `json:"column,omitempty"`
}

// Key is the defect identity used when diffing error sets across attempts:
// two errors are the same defect iff layer, path and message all match.
// Deeper fields (suggestion, line, column) deliberately do not participate.
func (e ChainError) Key() string {
	return string(e.Layer) + "\x00" + e.Path + "\x00" + e.Message
}

// ChainResult aggregates a full chain run. Valid holds iff no layer
// produced a severity=error entry.
type ChainResult struct {
	Valid    bool         `json:"valid"`
	Errors   []ChainError `json:"errors"`
	Warnings []ChainError `json:"warnings"`
}

func (r *ChainResult) add(e ChainError) {
	if e.Severity == SeverityWarning {
		r.Warnings = append(r.Warnings, e)
		return
	}
	r.Valid = false
	r.Errors = append(r.Errors, e)
}

func (r *ChainResult) merge(errs []ChainError) {
	for _, e := range errs {
		r.add(e)
	}
}

// PropSpec describes one legal prop of a component type.
type PropSpec struct {
	// Type is the expected JSON type: string, number, boolean, array, object.
	// Empty means any type is accepted.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	// Enum restricts string props to a fixed value set.
	Enum []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	// Required props must be present on every instance.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
}

// PropSchema is the prop legality contract of one registered component type.
type PropSchema struct {
	Props map[string]PropSpec `json:"props" yaml:"props"`
}

// Catalog resolves a component type name to its prop schema, or nil when the
// type is not registered. It is an injected read-only collaborator owned by
// the component-registration subsystem; the chain never mutates it.
type Catalog interface {
	Resolve(componentType string) *PropSchema
}

// MapCatalog is a Catalog backed by a plain map, the usual shape for tests
// and for catalogs loaded from configuration.
type MapCatalog map[string]*PropSchema

func (m MapCatalog) Resolve(componentType string) *PropSchema {
	return m[componentType]
}

// Types returns the registered component type names, sorted.
func (m MapCatalog) Types() []string {
	out := make([]string, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
