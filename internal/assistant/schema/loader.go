// internal/assistant/schema/loader.go
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileRegistry is the YAML shape of an external registry override.
type fileRegistry struct {
	Version string   `yaml:"version"`
	Schemas []Schema `yaml:"schemas"`
}

// Load reads a YAML registry file. An empty path returns the built-in
// defaults; a named file must parse and contain at least one schema.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	var fr fileRegistry
	if err := yaml.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}
	if len(fr.Schemas) == 0 {
		return nil, fmt.Errorf("schema file %s declares no schemas", path)
	}

	return New(fr.Schemas)
}
