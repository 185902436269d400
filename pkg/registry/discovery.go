package registry

import (
	"bytes"
	"fmt"
	"io/fs"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// DefaultDefinitionPatterns matches per-component definition files under definitions/.
var DefaultDefinitionPatterns = []string{
	"definitions/**/*.yaml",
	"definitions/**/*.yml",
	"definitions/**/*.json",
}

// DiscoverDefinitionFiles expands the include globs over fsys.
// Returns a sorted, de-duplicated slice of slash-separated paths so that the
// assembled registry order is deterministic.
func DiscoverDefinitionFiles(fsys fs.FS, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultDefinitionPatterns
	}
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid definition pattern: %s", pattern)
		}
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// LoadDefinitions reads every definition file matched by patterns and
// concatenates their entries in file order. A file holds either a single
// definition (a mapping) or several (a sequence). JSON files parse the same way.
func LoadDefinitions(fsys fs.FS, patterns []string) ([]Definition, error) {
	files, err := DiscoverDefinitionFiles(fsys, patterns)
	if err != nil {
		return nil, err
	}

	defs := make([]Definition, 0, len(files))
	for _, path := range files {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read definition file %s: %w", path, err)
		}
		parsed, err := ParseDefinitions(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defs = append(defs, parsed...)
	}
	return defs, nil
}

// ParseDefinitions decodes one definition file.
func ParseDefinitions(data []byte) ([]Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		var d Definition
		if err := root.Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode definition: %w", err)
		}
		return []Definition{d}, nil
	case yaml.SequenceNode:
		var ds []Definition
		if err := root.Decode(&ds); err != nil {
			return nil, fmt.Errorf("failed to decode definitions: %w", err)
		}
		return ds, nil
	default:
		return nil, fmt.Errorf("definition file must hold a mapping or a sequence, got %s", nodeKind(root.Kind))
	}
}

func nodeKind(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind %d", k)
	}
}
