package kafkaclient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"nearby/models"
)

// Writer is the subset of *kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes search events keyed by profile, so one profile's
// searches stay ordered on a partition.
type Producer struct {
	writer Writer
}

func NewProducer(broker, topic string) *Producer {
	return &Producer{writer: &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

// Emit publishes ev.
func (p *Producer) Emit(ctx context.Context, ev models.SearchEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "kafkaclient: encode search event")
	}
	msg := kafka.Message{
		Key:   []byte(ev.Profile),
		Value: value,
		Headers: []kafka.Header{
			{Key: "trigger", Value: []byte(ev.Trigger)},
			{Key: "mode", Value: []byte(ev.Params.Mode())},
		},
		Time: ev.CreatedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return eris.Wrapf(err, "kafkaclient: publish search %s", ev.ID)
	}
	zap.L().Debug("search event published", zap.String("id", ev.ID), zap.String("trigger", ev.Trigger))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
