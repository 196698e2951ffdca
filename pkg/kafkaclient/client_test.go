package kafkaclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby/models"
)

// mockReader serves messages from a channel and records commits.
type mockReader struct {
	messages chan kafka.Message
	mu       sync.Mutex
	commits  []kafka.Message
	closed   bool
}

func newMockReader(count int) *mockReader {
	r := &mockReader{messages: make(chan kafka.Message, count)}
	for i := 0; i < count; i++ {
		r.messages <- kafka.Message{
			Topic:  "searches",
			Offset: int64(i),
			Value:  []byte(fmt.Sprintf("event-%d", i)),
		}
	}
	return r
}

func (r *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg, ok := <-r.messages:
		if !ok {
			return kafka.Message{}, io.EOF
		}
		return msg, nil
	}
}

func (r *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, msgs...)
	return nil
}

func (r *mockReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestConsumer_DeliversAndCommits(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader(3)
	close(reader.messages)
	c := newConsumer(reader)
	c.Start(ctx)

	var got []string
	for msg := range c.Messages() {
		got = append(got, string(msg.Value))
		require.NoError(t, c.CommitOffset(ctx, msg))
	}
	c.Stop()

	assert.Equal(t, []string{"event-0", "event-1", "event-2"}, got)
	assert.Len(t, reader.commits, 3)
	assert.True(t, reader.closed)
}

func TestConsumer_StopWhileStreaming(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader(50)
	c := newConsumer(reader)
	c.Start(ctx)

	for i := 0; i < 5; i++ {
		select {
		case <-c.Messages():
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timed out waiting for a message")
		}
	}
	c.Stop()
	c.Stop()

	remaining := 0
	for range c.Messages() {
		remaining++
	}
	assert.Zero(t, remaining)
	assert.True(t, reader.closed)
}

type mockWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func TestProducer_Emit(t *testing.T) {
	w := &mockWriter{}
	p := &Producer{writer: w}
	coord := models.Coordinate{Lat: 12.9, Lng: 77.6}
	ev := models.SearchEvent{
		ID:      "e1",
		Profile: "alice",
		Trigger: "gps",
		Params:  models.SearchParams{Coordinates: &coord, SortBy: models.SortDistance},
	}

	require.NoError(t, p.Emit(context.Background(), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "alice", string(msg.Key))
	assert.Equal(t, kafka.Header{Key: "mode", Value: []byte("proximity")}, msg.Headers[1])

	var decoded models.SearchEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
	assert.Equal(t, coord, *decoded.Params.Coordinates)
}

func TestProducer_EmitError(t *testing.T) {
	p := &Producer{writer: &mockWriter{err: errors.New("leader not available")}}
	err := p.Emit(context.Background(), models.SearchEvent{ID: "e2"})
	assert.ErrorContains(t, err, "e2")
}
