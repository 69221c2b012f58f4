package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/event-impact-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestWriter(fw *fakeWriter) *Writer {
	return &Writer{writer: fw, topic: "event-impacts", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func sampleRecord() domain.EventImpact {
	return domain.EventImpact{
		EventID:      "2024-01-05-fed-policy",
		EventName:    "Fed Policy",
		EventCount:   12,
		AvgReturn1D:  domain.Known(0.8),
		AvgReturn7D:  domain.Known(-1.1),
		DataComplete: true,
	}
}

func TestSerializeToMessage(t *testing.T) {
	fetchedAt := time.Date(2024, 1, 6, 9, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	msg, err := serializeToMessage(sampleRecord(), fetchedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("2024-01-05-fed-policy"), msg.Key)
	assert.Contains(t, string(msg.Value), `"eventName":"Fed Policy"`)
	assert.Contains(t, string(msg.Value), `"avgReturn1D":0.8`)
	assert.Contains(t, string(msg.Value), `"avgReturn3D":null`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "data_complete", msg.Headers[0].Key)
	assert.Equal(t, []byte("true"), msg.Headers[0].Value)
	assert.Equal(t, "fetched_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-01-06T04:00:00Z"), msg.Headers[1].Value)
}

func TestPublish_WritesOneMessagePerRecord(t *testing.T) {
	fw := &fakeWriter{}
	w := newTestWriter(fw)

	second := sampleRecord()
	second.EventID = "2024-01-05-economics"
	second.DataComplete = false

	err := w.Publish(context.Background(), []domain.EventImpact{sampleRecord(), second}, time.Now())
	require.NoError(t, err)

	require.Len(t, fw.msgs, 2)
	assert.Equal(t, []byte("2024-01-05-fed-policy"), fw.msgs[0].Key)
	assert.Equal(t, []byte("2024-01-05-economics"), fw.msgs[1].Key)
	assert.Equal(t, []byte("false"), fw.msgs[1].Headers[0].Value)
}

func TestPublish_EmptyIsNoop(t *testing.T) {
	fw := &fakeWriter{err: errors.New("should not be called")}
	w := newTestWriter(fw)

	require.NoError(t, w.Publish(context.Background(), nil, time.Now()))
	assert.Empty(t, fw.msgs)
}

func TestPublish_WrapsWriteError(t *testing.T) {
	broker := errors.New("leader not available")
	w := newTestWriter(&fakeWriter{err: broker})

	err := w.Publish(context.Background(), []domain.EventImpact{sampleRecord()}, time.Now())
	require.ErrorIs(t, err, broker)
	assert.Contains(t, err.Error(), "event-impacts")
}

func TestClose(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, newTestWriter(fw).Close())
	assert.True(t, fw.closed)
}
