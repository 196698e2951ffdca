package enrich

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Pipeline runs a sequence of stages over items. Steps within a stage run
// in parallel; stages run one after another. Step errors are logged and do
// not stop the item.
type Pipeline[T any] struct {
	name   string
	stages []Stage[T]
}

// NewPipeline builds a Pipeline. name only shows up in logs.
func NewPipeline[T any](name string, stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{name: name, stages: stages}
}

// Run applies every stage to item and returns once the last stage is done.
// It reports how many steps failed.
func (p *Pipeline[T]) Run(ctx context.Context, item *T) int {
	var (
		mu     sync.Mutex
		failed int
	)
	for _, stage := range p.stages {
		var wg sync.WaitGroup
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step.run(ctx, item); err != nil {
					zap.L().Warn("pipeline step failed",
						zap.String("pipeline", p.name),
						zap.String("step", step.name),
						zap.Error(err))
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}(step)
		}
		// stage barrier
		wg.Wait()
	}
	return failed
}

// Process runs every item received on in until the channel is closed.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T) {
	for item := range in {
		p.Run(ctx, item)
	}
}
