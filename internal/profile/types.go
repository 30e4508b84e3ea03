// Package profile holds the vendor profile model: detection rules plus the
// ordered extraction-spec list for each vendor, loaded once from YAML
// configuration and immutable afterwards.
package profile

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// GenericID is the reserved universal-fallback profile. It is never subjected
// to detection matching.
const GenericID = "generic"

// DetectRule is one test deciding whether a document belongs to a profile.
// Exactly one field is expected to be set; rules are evaluated lazily in
// declaration order and the first true rule matches the profile.
type DetectRule struct {
	// ID matches when an element with this id attribute exists.
	ID string `yaml:"id,omitempty"`
	// Selector matches when the CSS selector matches at least one element.
	Selector string `yaml:"selector,omitempty"`
	// ClassContains matches when any class attribute contains this token.
	ClassContains string `yaml:"class_contains,omitempty"`
	// TextContains matches when the page text contains this string
	// (case-insensitive).
	TextContains string `yaml:"text_contains,omitempty"`
	// CanonicalDomain matches when the canonical URL host contains this
	// substring.
	CanonicalDomain string `yaml:"canonical_domain,omitempty"`
}

// Spec is one declarative extraction pass: a type tag selecting the
// extractor implementation plus a flat map of type-specific parameters.
// Specs run in declared order; later specs may read values earlier specs
// already wrote.
type Spec struct {
	Type   string
	Params map[string]any
}

// UnmarshalYAML decodes a spec mapping, splitting the "type" tag from the
// remaining parameters.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return err
	}
	t, _ := m["type"].(string)
	if t == "" {
		return fmt.Errorf("spec missing type tag (line %d)", node.Line)
	}
	delete(m, "type")
	s.Type = t
	s.Params = m
	return nil
}

// Str returns a string parameter, or def when absent or not a string.
func (s Spec) Str(key, def string) string {
	if v, ok := s.Params[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Bool returns a bool parameter, or def when absent.
func (s Spec) Bool(key string, def bool) bool {
	if v, ok := s.Params[key].(bool); ok {
		return v
	}
	return def
}

// Int returns an int parameter, or def when absent. YAML integers decode as
// int; anything else falls back to def.
func (s Spec) Int(key string, def int) int {
	switch v := s.Params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// StrSlice returns a list parameter. A bare string becomes a one-element
// slice so configs can write either form.
func (s Spec) StrSlice(key string) []string {
	switch v := s.Params[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if str, ok := e.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Map returns a nested mapping parameter, or nil when absent.
func (s Spec) Map(key string) map[string]any {
	if v, ok := s.Params[key].(map[string]any); ok {
		return v
	}
	return nil
}

// Profile bundles one vendor's identity, detection rules and ordered
// extraction specs. Lower priority is tried earlier during detection.
type Profile struct {
	ID       string       `yaml:"-"`
	Name     string       `yaml:"name"`
	Priority int          `yaml:"priority"`
	Detect   []DetectRule `yaml:"detect"`
	Specs    []Spec       `yaml:"specs"`
}

// DisplayName returns the configured display name, falling back to the id.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Find returns the profile with the given id, or nil.
func Find(profiles []Profile, id string) *Profile {
	for i := range profiles {
		if profiles[i].ID == id {
			return &profiles[i]
		}
	}
	return nil
}
