package project

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a JSON or YAML project definition from disk.
func LoadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("project: read %s: %w", path, err)
	}
	return Decode(data, path)
}

// LoadFS reads a JSON or YAML project definition from fsys.
func LoadFS(fsys fs.FS, path string) (*Project, error) {
	if fsys == nil {
		return nil, fmt.Errorf("project: nil filesystem for %s", path)
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("project: read %s: %w", path, err)
	}
	return Decode(data, path)
}

// Decode parses a definition and builds the project. JSON is tried first and
// YAML second unless the source extension says otherwise.
func Decode(data []byte, source string) (*Project, error) {
	def, err := DecodeDefinition(data, source)
	if err != nil {
		return nil, err
	}
	p, err := New(def)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, source)
	}
	return p, nil
}

// DecodeDefinition parses a definition without validating it.
func DecodeDefinition(data []byte, source string) (Definition, error) {
	var def Definition
	if len(strings.TrimSpace(string(data))) == 0 {
		return Definition{}, fmt.Errorf("project: file %s is empty", source)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &def); err != nil {
			return Definition{}, fmt.Errorf("project: parse %s: %w", source, err)
		}
		return def, nil
	case ".json":
		if err := json.Unmarshal(data, &def); err != nil {
			return Definition{}, fmt.Errorf("project: parse %s: %w", source, err)
		}
		return def, nil
	}

	if err := json.Unmarshal(data, &def); err == nil {
		return def, nil
	}
	def = Definition{}
	if err := yaml.Unmarshal(data, &def); err == nil {
		return def, nil
	}
	return Definition{}, fmt.Errorf("project: parse %s: invalid JSON or YAML", source)
}
