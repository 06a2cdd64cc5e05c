package importer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModelList is the supported-models file: `{"models": ["owner/name", ...]}`
// in JSON or YAML.
type ModelList struct {
	Models []string `yaml:"models" json:"models"`
}

// LoadModelList reads and validates a model list. Duplicates are dropped,
// keeping the first occurrence.
func LoadModelList(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("importer: read model list: %w", err)
	}
	return ParseModelList(raw)
}

// ParseModelList decodes a model list payload. YAML is a superset of JSON, so
// one decoder serves both.
func ParseModelList(raw []byte) ([]string, error) {
	var list ModelList
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("importer: parse model list: %w", err)
	}
	if len(list.Models) == 0 {
		return nil, errors.New("importer: model list is empty")
	}
	seen := make(map[string]struct{}, len(list.Models))
	out := make([]string, 0, len(list.Models))
	for _, id := range list.Models {
		id = strings.TrimSpace(id)
		if _, _, err := SplitModel(id); err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
