//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/event-impact-service/internal/adapter/kafka"
	"github.com/couchcryptid/event-impact-service/internal/adapter/upstream"
	"github.com/couchcryptid/event-impact-service/internal/config"
	"github.com/couchcryptid/event-impact-service/internal/domain"
	"github.com/couchcryptid/event-impact-service/internal/observability"
	"github.com/couchcryptid/event-impact-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "test-event-impacts"

// publishedMessage holds a deserialized message read from the sink topic.
type publishedMessage struct {
	Record  domain.EventImpact
	Key     string
	Headers map[string]string
}

// readPublished reads a single message from the sink consumer and deserializes it.
func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var rec domain.EventImpact
	require.NoError(t, json.Unmarshal(msg.Value, &rec), "unmarshal sink message")

	return publishedMessage{Record: rec, Key: string(msg.Key), Headers: headers}
}

// TestWriterPublish verifies the sink adapter round-trips a record through
// Kafka with its key and headers intact.
func TestWriterPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testSinkTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	rec := domain.EventImpact{
		EventID:      "2024-01-05-fed-policy",
		EventName:    "Fed Policy",
		EventCount:   12,
		AvgReturn1D:  domain.Known(0.8),
		DataComplete: true,
	}
	fetchedAt := time.Date(2024, time.January, 6, 9, 0, 0, 0, time.UTC)
	require.NoError(t, writer.Publish(ctx, []domain.EventImpact{rec}, fetchedAt))

	consumer := newConsumer(broker, "test-writer")
	t.Cleanup(func() { _ = consumer.Close() })

	pm := readPublished(ctx, t, consumer)
	assert.Equal(t, rec.EventID, pm.Key)
	assert.Equal(t, "true", pm.Headers["data_complete"])
	assert.Equal(t, "2024-01-06T09:00:00Z", pm.Headers["fetched_at"])
	if diff := cmp.Diff(rec, pm.Record, cmp.AllowUnexported(domain.Value{})); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

// TestPipelineEndToEnd serves the mock payload over HTTP, runs one refresh
// through the real upstream client, normalizer and Kafka writer, and checks
// every published record against the normalized fixture.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	payload := loadMockData(t, "event_impact_payload.json")
	var expected []domain.EventImpact
	require.NoError(t, json.Unmarshal(loadMockData(t, "event_impact_normalized.json"), &expected))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(ts.Close)

	metrics := observability.NewMetricsForTesting()
	client := upstream.NewClient(ts.URL, 5*time.Second, metrics, discardLogger())

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testSinkTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(client, pipeline.NewNormalizer(domain.DefaultBenchmark), writer, discardLogger(), metrics, 0)
	require.NoError(t, p.Run(ctx))

	snap := p.Snapshot()
	require.Equal(t, domain.StatusOK, snap.Status)
	require.Len(t, snap.Records, len(expected))
	assert.True(t, snap.DataPending)

	consumer := newConsumer(broker, "test-e2e")
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]publishedMessage, 0, len(expected))
	for len(received) < len(expected) {
		received = append(received, readPublished(ctx, t, consumer))
	}

	// Messages sharing a key keep their order; compare per key in publish order.
	byKey := map[string][]domain.EventImpact{}
	for _, pm := range received {
		assert.Equal(t, pm.Record.EventID, pm.Key)
		assert.Equal(t, strconv.FormatBool(pm.Record.DataComplete), pm.Headers["data_complete"])
		_, err := time.Parse(time.RFC3339, pm.Headers["fetched_at"])
		assert.NoError(t, err, "fetched_at should be valid RFC3339")
		byKey[pm.Key] = append(byKey[pm.Key], pm.Record)
	}
	wantByKey := map[string][]domain.EventImpact{}
	for _, rec := range expected {
		wantByKey[rec.EventID] = append(wantByKey[rec.EventID], rec)
	}
	if diff := cmp.Diff(wantByKey, byKey, cmp.AllowUnexported(domain.Value{})); diff != "" {
		t.Errorf("published records mismatch (-want +got):\n%s", diff)
	}
}

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("event-impact-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func newConsumer(broker, prefix string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
}

func loadMockData(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", name))
	require.NoError(t, err, "read mock fixture %s", name)
	return data
}
