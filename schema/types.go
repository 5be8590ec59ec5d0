// Package schema defines the UI schema artifact produced by generation and
// the extraction helpers that recover it from raw model output.
package schema

import "fmt"

// DefaultVersion is injected when a schema omits its version field.
const DefaultVersion = "1.0"

// UIComponent is one node of the rendered component tree.
type UIComponent struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Props    map[string]any `json:"props,omitempty"`
	Children []*UIComponent `json:"children,omitempty"`
}

// UISchema is the artifact under validation. The pipeline only reads it;
// ownership passes to the caller once a run returns.
type UISchema struct {
	Version string         `json:"version"`
	Root    *UIComponent   `json:"root"`
	Data    map[string]any `json:"data,omitempty"`

	// VersionDefaulted marks a schema whose source text omitted the version
	// field, so validation can still warn about it after the default is
	// injected.
	VersionDefaulted bool `json:"-"`
}

// ClassName returns the component's className prop, if it is a string.
func (c *UIComponent) ClassName() string {
	if c == nil || c.Props == nil {
		return ""
	}
	s, _ := c.Props["className"].(string)
	return s
}

// Style returns the component's inline style prop, if it is a map.
func (c *UIComponent) Style() map[string]any {
	if c == nil || c.Props == nil {
		return nil
	}
	m, _ := c.Props["style"].(map[string]any)
	return m
}

// Walk visits every component depth-first, threading the dot/bracket JSON
// path used by validation errors (root, root.children[0], ...). Traversal
// stops when fn returns false.
func (s *UISchema) Walk(fn func(path string, c *UIComponent) bool) {
	if s == nil || s.Root == nil {
		return
	}
	walk("root", s.Root, fn)
}

func walk(path string, c *UIComponent, fn func(string, *UIComponent) bool) bool {
	if !fn(path, c) {
		return false
	}
	for i, child := range c.Children {
		if child == nil {
			continue
		}
		if !walk(childPath(path, i), child, fn) {
			return false
		}
	}
	return true
}

func childPath(parent string, i int) string {
	return fmt.Sprintf("%s.children[%d]", parent, i)
}
