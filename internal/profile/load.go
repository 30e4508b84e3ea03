package profile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// defaultPriority applies when a profile omits its priority.
const defaultPriority = 100

// Parse decodes a vendor-profile YAML document: a mapping keyed by vendor id.
//
// Declaration order is preserved (yaml.Node rather than a Go map) because it
// breaks priority ties during detection. The returned slice is sorted by
// ascending priority with a stable sort.
func Parse(data []byte) ([]Profile, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse profiles yaml: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("profiles yaml is empty")
	}

	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("profiles yaml must be a mapping keyed by vendor id")
	}

	var out []Profile
	for i := 0; i+1 < len(m.Content); i += 2 {
		id := m.Content[i].Value

		var p Profile
		if err := m.Content[i+1].Decode(&p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", id, err)
		}
		p.ID = id
		if p.Priority == 0 {
			p.Priority = defaultPriority
		}
		out = append(out, p)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("profiles yaml defines no vendors")
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out, nil
}

// Load reads and parses a vendor-profile YAML file.
func Load(path string) ([]Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	return Parse(b)
}
