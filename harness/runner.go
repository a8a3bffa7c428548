package harness

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/probelabs/apicheck/transport"
)

// Runner executes a scenario list against one endpoint. Scenarios run
// sequentially by default; Parallel runs them concurrently over independent
// connections, with results reconciled back to declaration order.
type Runner struct {
	client    transport.Client
	opts      Options
	scenarios []Scenario

	// Parallel enables concurrent scenario execution.
	Parallel bool
	// Progress, when set, receives each result as it is produced. In
	// parallel mode results are delivered in declaration order after all
	// scenarios finish, keeping the output deterministic.
	Progress func(Result)
}

func NewRunner(client transport.Client, opts Options, scenarios []Scenario) *Runner {
	return &Runner{client: client, opts: opts, scenarios: scenarios}
}

// Run executes the scenarios and returns their results in declaration
// order. When ctx is cancelled mid-run the results produced so far are
// returned along with ctx's error, so a partial summary can still be
// printed.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	if r.Parallel {
		return r.runParallel(ctx)
	}
	results := make([]Result, 0, len(r.scenarios))
	for _, s := range r.scenarios {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := r.runOne(ctx, s)
		results = append(results, res)
		if r.Progress != nil {
			r.Progress(res)
		}
	}
	return results, nil
}

func (r *Runner) runParallel(ctx context.Context) ([]Result, error) {
	results := make([]Result, len(r.scenarios))
	var g errgroup.Group
	for i, s := range r.scenarios {
		g.Go(func() error {
			results[i] = r.runOne(ctx, s)
			return nil
		})
	}
	// Scenario failures are results, not errors; Wait only observes panics
	// converted by runOne, so its error is always nil.
	_ = g.Wait()
	if r.Progress != nil {
		for _, res := range results {
			r.Progress(res)
		}
	}
	return results, ctx.Err()
}

// runOne isolates a single scenario: whatever goes wrong inside it, the
// rest of the run continues.
func (r *Runner) runOne(ctx context.Context, s Scenario) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = fail(s.Name, fmt.Sprintf("scenario panicked: %v", p))
		}
	}()
	return s.Run(ctx, r.client, r.opts)
}
