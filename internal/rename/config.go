package rename

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk rule format:
//
//	rules:
//	  - match: ../ecs/
//	    replacement: ../architecture/meta/
//	    anchored: true
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads an ordered rule set from a YAML file. The set is loaded once
// per invocation and immutable afterwards.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing rule file %s: %w", path, err)
	}

	set, err := NewSet(file.Rules)
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}
	return set, nil
}
