package harness

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Suite is an optional YAML file overriding the default run: which model to
// target, token budgets, and which scenarios to execute.
type Suite struct {
	Model          string   `json:"model,omitempty"`
	MaxTokens      int      `json:"max_tokens,omitempty"`
	ThinkingBudget int      `json:"thinking_budget,omitempty"`
	Scenarios      []string `json:"scenarios,omitempty"`
}

// LoadSuite reads and parses a suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	var s Suite
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("parsing suite file %s: %w", path, err)
	}
	return &s, nil
}

// Apply overlays the suite's non-zero fields onto opts.
func (s *Suite) Apply(opts Options) Options {
	if s.Model != "" {
		opts.Model = s.Model
	}
	if s.MaxTokens > 0 {
		opts.MaxTokens = s.MaxTokens
	}
	if s.ThinkingBudget > 0 {
		opts.ThinkingBudget = s.ThinkingBudget
	}
	return opts
}
