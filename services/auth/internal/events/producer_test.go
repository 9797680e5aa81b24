package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, topic: "auth_events"}

	err := p.Publish(context.Background(), Event{Type: TypeSessionsRevoked, UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "auth_events", msg.Topic)
	assert.Equal(t, []byte("u-1"), msg.Key)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, TypeSessionsRevoked, got.Type)
	assert.False(t, got.At.IsZero())
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &recordingWriter{err: errors.New("broker down")}, topic: "auth_events"}
	err := p.Publish(context.Background(), Event{Type: TypeUserRegistered, UserID: "u-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
