package harness

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
)

var (
	passStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")) // green
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")) // red
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // dim gray
	verdictStyle = lipgloss.NewStyle().Bold(true)
)

// Report collects scenario results in completion order and computes the
// overall verdict. Append is safe for concurrent use so parallel runs can
// share one report.
type Report struct {
	mu      sync.Mutex
	results []Result
}

func (r *Report) Add(results ...Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, results...)
}

// Results returns a copy of the collected results.
func (r *Report) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// AllPassed is the overall verdict: the logical AND of every result. An
// empty report did not validate anything and therefore did not pass.
func (r *Report) AllPassed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return false
	}
	for _, res := range r.results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Marker renders the one-line pass/fail marker printed as each scenario
// completes.
func Marker(res Result) string {
	mark := passStyle.Render("✅ PASS")
	if !res.Passed {
		mark = failStyle.Render("❌ FAIL")
	}
	if res.Detail == "" {
		return fmt.Sprintf("%s %s", mark, res.Name)
	}
	return fmt.Sprintf("%s %s\n     %s", mark, res.Name, detailStyle.Render(res.Detail))
}

// Render prints the tabulated summary followed by the overall verdict.
func (r *Report) Render(w io.Writer) {
	results := r.Results()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scenario", "Result", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	passed := 0
	for _, res := range results {
		verdict := "FAIL"
		if res.Passed {
			verdict = "PASS"
			passed++
		}
		table.Append([]string{res.Name, verdict, res.Detail})
	}
	table.Render()

	summary := fmt.Sprintf("%d/%d scenarios passed", passed, len(results))
	if r.AllPassed() {
		fmt.Fprintln(w, verdictStyle.Render("🎉 "+summary))
	} else {
		fmt.Fprintln(w, verdictStyle.Render("⚠️  "+summary))
	}
}
