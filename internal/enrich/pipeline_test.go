package enrich

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type item struct {
	mu      sync.Mutex
	Results map[string]any
}

func newItem() *item {
	return &item{Results: make(map[string]any)}
}

func (i *item) set(key string, val any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Results[key] = val
}

func setValue(key string, val any) Step[item] {
	return NewStep(key, func(_ context.Context, it *item) error {
		it.set(key, val)
		return nil
	})
}

var failing = NewStep("fail", func(context.Context, *item) error {
	return errors.New("step failed")
})

func TestPipeline_Run(t *testing.T) {
	tests := []struct {
		name       string
		stages     []Stage[item]
		expected   map[string]any
		wantFailed int
	}{
		{
			name:     "single step",
			stages:   []Stage[item]{NewStage(setValue("foo", "bar"))},
			expected: map[string]any{"foo": "bar"},
		},
		{
			name:     "two steps in one stage",
			stages:   []Stage[item]{NewStage(setValue("x", 1), setValue("y", 2))},
			expected: map[string]any{"x": 1, "y": 2},
		},
		{
			name: "stages run in order",
			stages: []Stage[item]{
				NewStage(setValue("a", "first")),
				NewStage(NewStep("b", func(_ context.Context, it *item) error {
					it.mu.Lock()
					prev := it.Results["a"]
					it.mu.Unlock()
					it.set("b", prev)
					return nil
				})),
			},
			expected: map[string]any{"a": "first", "b": "first"},
		},
		{
			name:       "failed step does not stop the item",
			stages:     []Stage[item]{NewStage(failing, setValue("ok", true)), NewStage(setValue("after", true))},
			expected:   map[string]any{"ok": true, "after": true},
			wantFailed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			it := newItem()
			failed := NewPipeline("test", tt.stages...).Run(ctx, it)

			if failed != tt.wantFailed {
				t.Errorf("failed = %d, want %d", failed, tt.wantFailed)
			}
			if !reflect.DeepEqual(it.Results, tt.expected) {
				t.Errorf("got %+v, expected %+v", it.Results, tt.expected)
			}
		})
	}
}

func TestPipeline_Process(t *testing.T) {
	in := make(chan *item, 2)
	a, b := newItem(), newItem()
	in <- a
	in <- b
	close(in)

	NewPipeline("test", NewStage(setValue("seen", true))).Process(context.Background(), in)

	for _, it := range []*item{a, b} {
		if it.Results["seen"] != true {
			t.Errorf("item not processed: %+v", it.Results)
		}
	}
}
