package memory

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-instanceselect/pkg/project"
)

// Fixture is the file representation of a store's contents.
type Fixture struct {
	Groups map[string]string `yaml:"groups,omitempty"`
	Values []project.Value   `yaml:"values"`
}

// DecodeFixture parses a YAML (or JSON, which YAML accepts) data fixture.
func DecodeFixture(data []byte, source string) (*Store, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("memory: fixture %s is empty", source)
	}
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("memory: parse fixture %s: %w", source, err)
	}
	for i, value := range fixture.Values {
		if value.Record == "" || value.Field == "" || value.EventID <= 0 {
			return nil, fmt.Errorf("memory: fixture %s value %d needs record, event_id and field", source, i)
		}
	}
	return New(WithValues(fixture.Values...), WithGroups(fixture.Groups)), nil
}

// LoadFixtureFile reads a data fixture from disk.
func LoadFixtureFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memory: read fixture %s: %w", path, err)
	}
	return DecodeFixture(data, path)
}

// LoadFixtureFS reads a data fixture from fsys.
func LoadFixtureFS(fsys fs.FS, path string) (*Store, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("memory: read fixture %s: %w", path, err)
	}
	return DecodeFixture(data, path)
}
