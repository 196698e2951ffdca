// Package enrich runs independent side effects for one item in parallel
// stages, with stages executed in order.
package enrich

import "context"

// StepFunc does one unit of work on an item. Steps in the same stage share
// the item and must not write the same fields.
type StepFunc[T any] func(ctx context.Context, item *T) error

// Step is a named StepFunc.
type Step[T any] struct {
	name string
	run  StepFunc[T]
}

// NewStep names fn for logging.
func NewStep[T any](name string, fn StepFunc[T]) Step[T] {
	return Step[T]{name: name, run: fn}
}

// Stage groups steps that run concurrently for one item.
type Stage[T any] struct {
	steps []Step[T]
}

func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}
