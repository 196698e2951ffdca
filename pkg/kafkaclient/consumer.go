// Package kafkaclient wraps kafka-go for the search event topic: a producer
// that publishes events and a consumer that streams them with manual
// offset commits.
package kafkaclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reader is the subset of *kafka.Reader the consumer uses.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer pumps messages from a Reader onto a channel until stopped.
type Consumer struct {
	reader   Reader
	backoff  time.Duration
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	messages chan kafka.Message
}

// NewConsumer reads topic as part of groupID. Offsets are only committed
// through CommitOffset.
func NewConsumer(broker, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          topic,
		GroupID:        groupID,
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return newConsumer(reader)
}

func newConsumer(r Reader) *Consumer {
	return &Consumer{
		reader:   r,
		backoff:  time.Second,
		done:     make(chan struct{}),
		messages: make(chan kafka.Message),
	}
}

// Messages is closed once the consume loop exits.
func (c *Consumer) Messages() <-chan kafka.Message {
	return c.messages
}

func (c *Consumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	zap.L().Debug("committing offset",
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset))
	return c.reader.CommitMessages(ctx, msg)
}

// Start runs the consume loop in the background.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.messages)
		c.loop(ctx)
	}()
}

func (c *Consumer) loop(ctx context.Context) {
	log := zap.L().With(zap.String("component", "kafka-consumer"))
	log.Info("consumer started")
	for {
		select {
		case <-ctx.Done():
			log.Info("context canceled, stopping consumer")
			return
		case <-c.done:
			log.Info("stop requested, stopping consumer")
			return
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			log.Warn("read message", zap.Error(err))
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
			continue
		}

		select {
		case c.messages <- msg:
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

// Stop ends the loop, waits for it and closes the reader.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
		if err := c.reader.Close(); err != nil {
			zap.L().Warn("close kafka reader", zap.Error(err))
		}
	})
}
