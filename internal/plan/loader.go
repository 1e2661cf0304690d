package plan

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPlanFile is the plan looked up when none is given explicitly.
const DefaultPlanFile = "plan.yaml"

// ParseDefinitionYAML decodes a plan definition from YAML/JSON bytes.
func ParseDefinitionYAML(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("plan: definition payload is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("plan: decode definition: %w", err)
	}
	return def.Normalized()
}

// LoadDefinitionReader reads YAML plan data from an io.Reader.
func LoadDefinitionReader(r io.Reader) (Definition, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Definition{}, fmt.Errorf("plan: read definition: %w", err)
	}
	return ParseDefinitionYAML(content)
}

// Loader reads plan inputs from a filesystem.
type Loader struct {
	fs afero.Fs
}

// NewLoader wraps fs; a nil fs reads from the operating system.
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs}
}

// LoadFile loads a plan. .yaml, .yml and .json files are decoded as
// definitions; anything else is parsed as an outline whose plan id is the
// file name without extension.
func (l *Loader) LoadFile(path string) (Definition, error) {
	content, err := l.read(path)
	if err != nil {
		return Definition{}, err
	}
	var def Definition
	if isStructured(path) {
		def, err = ParseDefinitionYAML(content)
	} else {
		def, err = ParseOutline(planIDFromPath(path), bytes.NewReader(content))
	}
	if err != nil {
		return Definition{}, fmt.Errorf("plan: %s: %w", path, err)
	}
	return def, nil
}

// LoadNameMap loads a `name, identifier` mapping file.
func (l *Loader) LoadNameMap(path string) (map[string]string, error) {
	content, err := l.read(path)
	if err != nil {
		return nil, err
	}
	names, err := ParseNameMap(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("plan: %s: %w", path, err)
	}
	return names, nil
}

// LoadWithNames loads a plan and, when namesPath is set, resolves task names
// to identifiers through it.
func (l *Loader) LoadWithNames(path, namesPath string) (Definition, error) {
	def, err := l.LoadFile(path)
	if err != nil {
		return Definition{}, err
	}
	if strings.TrimSpace(namesPath) == "" {
		return def, nil
	}
	names, err := l.LoadNameMap(namesPath)
	if err != nil {
		return Definition{}, err
	}
	resolved, err := def.ResolveNames(names)
	if err != nil {
		return Definition{}, fmt.Errorf("plan: %s: %w", path, err)
	}
	return resolved, nil
}

func (l *Loader) read(path string) ([]byte, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("plan: open %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("plan: %s is a directory, expected a file", path)
	}
	content, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("plan: read %s: %w", path, err)
	}
	return content, nil
}

func isStructured(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func planIDFromPath(path string) string {
	base := filepath.Base(path)
	id := slug(strings.TrimSuffix(base, filepath.Ext(base)))
	if id == "" {
		return "plan"
	}
	return id
}
