package main

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"nearby/internal/service"
	"nearby/models"
)

type fakeMessages struct {
	ch chan kafka.Message
}

func (f *fakeMessages) Messages() <-chan kafka.Message { return f.ch }

func (f *fakeMessages) CommitOffset(context.Context, kafka.Message) error { return nil }

func TestPipeline_LogsAndTalliesConsumedEvents(t *testing.T) {
	src := &fakeMessages{ch: make(chan kafka.Message, 3)}
	src.ch <- kafka.Message{Value: []byte(`{"id":"a","trigger":"gps","params":{"coordinates":{"lat":12.97,"lng":77.6},"radius":0.5,"sortBy":"distance","filters":{}}}`)}
	src.ch <- kafka.Message{Value: []byte(`{"id":"b","trigger":"manual","params":{"location":"HSR Layout","sortBy":"best-match","filters":{}}}`)}
	src.ch <- kafka.Message{Value: []byte(`{"id":"c","trigger":"gps","params":{"coordinates":{"lat":12.97,"lng":77.6},"location":"HSR Layout","sortBy":"distance","filters":{}}}`)}
	close(src.ch)

	core, logs := observer.New(zapcore.DebugLevel)
	var counts tally

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	events := service.NewIterator(src, service.JSON[models.SearchEvent])
	newPipeline(zap.New(core), &counts).Process(ctx, events.Objects(ctx))

	assert.Equal(t, map[string]int{"gps": 2, "manual": 1}, counts.snapshot())
	assert.Equal(t, 2, logs.FilterMessage("search").Len())
	assert.Equal(t, 1, logs.FilterMessage("invalid search event").Len())
}
