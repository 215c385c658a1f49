package ai

import (
	"context"
)

// Evaluator sends a rendered prompt to a language model and returns its reply.
// Implementations classify failures with the failure package.
type Evaluator interface {
	Evaluate(ctx context.Context, prompt string) (string, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, prompt string) (string, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
