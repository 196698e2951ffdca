package service

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessageIterator is a source of Kafka messages with manual commits.
// *kafkaclient.Consumer implements it.
type MessageIterator interface {
	// Messages is closed by the implementation when consumption stops.
	Messages() <-chan kafka.Message
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// DecodeFunc turns a message payload into T.
type DecodeFunc[T any] func(ctx context.Context, msg kafka.Message) (T, error)

// Decoded pairs a decoded value with the message it came from.
type Decoded[T any] struct {
	Data    T
	Message kafka.Message
}
