// Package orchestration wraps the external multi-agent analysis service that
// performs data retrieval and narrates trading decisions for each cycle.
package orchestration

import "context"

// CycleInputs are the parameters handed to the agents for one evaluation
// cycle.
type CycleInputs struct {
	Cycle    int      `json:"cycle"`
	Tenors   []string `json:"tenors"`
	Currency string   `json:"currency"`
}

// Runner executes one orchestration cycle and returns its free-form narrative
// output. Duration and determinism are outside the caller's control.
type Runner interface {
	Run(ctx context.Context, inputs CycleInputs) (string, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, inputs CycleInputs) (string, error)

func (f RunnerFunc) Run(ctx context.Context, inputs CycleInputs) (string, error) {
	return f(ctx, inputs)
}
