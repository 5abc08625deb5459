package rule

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads and compiles a YAML rule list:
//
//   - when: "words >= 30"
//     then:
//     knowledge: 1
//     examples: 1
func LoadFromFile(file string) (Set, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	return Parse(content)
}

// Parse compiles rules from YAML content. Empty content yields an empty Set.
func Parse(content []byte) (Set, error) {
	rules := Set{}
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	env, err := NewEnv()
	if err != nil {
		return nil, err
	}

	for i := range rules {
		if err := rules[i].Init(env); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return rules, nil
}
