// Package service turns a stream of Kafka messages into typed values.
package service

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Iterator decodes messages from a MessageIterator and commits each offset
// once the value was handed to the reader of Objects.
type Iterator[T any] struct {
	msgIterator MessageIterator
	decode      DecodeFunc[T]
}

func NewIterator[T any](iterator MessageIterator, decode DecodeFunc[T]) *Iterator[T] {
	return &Iterator[T]{msgIterator: iterator, decode: decode}
}

// Objects streams decoded values until the message channel closes or ctx
// ends. Messages that fail to decode are logged, committed and skipped so
// a poison message cannot stall the group.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *Decoded[T] {
	out := make(chan *Decoded[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			data, err := it.decode(ctx, msg)
			if err != nil {
				zap.L().Warn("skipping undecodable message",
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
				it.commit(ctx, msg)
				continue
			}

			select {
			case out <- &Decoded[T]{Data: data, Message: msg}:
			case <-ctx.Done():
				return
			}
			it.commit(ctx, msg)
		}
	}()
	return out
}

func (it *Iterator[T]) commit(ctx context.Context, msg kafka.Message) {
	if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
		zap.L().Warn("commit offset", zap.Int64("offset", msg.Offset), zap.Error(err))
	}
}

// JSON decodes the message value as JSON into T.
func JSON[T any](_ context.Context, msg kafka.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Value, &v); err != nil {
		return v, eris.Wrap(err, "service: decode message")
	}
	return v, nil
}
