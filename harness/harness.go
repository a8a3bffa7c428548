// Package harness defines the conformance scenarios run against an
// OpenAI-compatible endpoint and aggregates their outcomes into a final
// verdict.
package harness

import (
	"context"
	"fmt"

	"github.com/probelabs/apicheck/transport"
)

// Options carries the per-run knobs shared by every scenario. Like the
// endpoint config, it is read-only once the run starts.
type Options struct {
	Model          string
	MaxTokens      int
	ThinkingBudget int
}

// DefaultOptions matches the defaults of the server this harness grew up
// against.
func DefaultOptions() Options {
	return Options{
		Model:          "gemini-2.5-pro",
		MaxTokens:      200,
		ThinkingBudget: 1024,
	}
}

// Result is the outcome of one scenario. Immutable once produced.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Scenario is one independent, named conformance check. Run must be a pure
// function of its arguments: scenarios share nothing mutable, so a failure
// in one can never poison another.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, client transport.Client, opts Options) Result
}

// Catalogue returns the fixed scenario list in display order.
func Catalogue() []Scenario {
	return []Scenario{
		{Name: "health", Run: runHealth},
		{Name: "root", Run: runRoot},
		{Name: "models", Run: runModels},
		{Name: "simple_completion", Run: runSimpleCompletion},
		{Name: "streaming_completion", Run: runStreamingCompletion},
		{Name: "reasoning_mode", Run: runReasoningMode},
		{Name: "system_message", Run: runSystemMessage},
		{Name: "multi_turn", Run: runMultiTurn},
		{Name: "temperature_control", Run: runTemperatureControl},
		{Name: "debug_endpoints", Run: runDebugEndpoints},
		{Name: "usage_reporting", Run: runUsageReporting},
	}
}

// Select filters the catalogue down to the named scenarios, preserving
// declaration order. An unknown name is an error rather than a silent skip.
func Select(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return Catalogue(), nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var selected []Scenario
	for _, s := range Catalogue() {
		if wanted[s.Name] {
			selected = append(selected, s)
			delete(wanted, s.Name)
		}
	}
	for n := range wanted {
		return nil, fmt.Errorf("unknown scenario %q", n)
	}
	return selected, nil
}

func pass(name, detail string) Result {
	return Result{Name: name, Passed: true, Detail: detail}
}

func fail(name, detail string) Result {
	return Result{Name: name, Passed: false, Detail: detail}
}

func failErr(name string, err error) Result {
	if transport.IsTimeout(err) {
		return Result{Name: name, Passed: false, Detail: "timeout: " + err.Error()}
	}
	return Result{Name: name, Passed: false, Detail: err.Error()}
}

// preview shortens content for a detail line, the way the summary prints
// response snippets.
func preview(s string) string {
	const max = 50
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
