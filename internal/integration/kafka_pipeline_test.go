//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/supply-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/supply-map-service/internal/config"
	"github.com/couchcryptid/supply-map-service/internal/domain"
	"github.com/couchcryptid/supply-map-service/internal/observability"
	"github.com/couchcryptid/supply-map-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-subjects"
	testSinkTopic   = "test-joined"
)

var suppliers = []map[string]any{
	{"supplier_name": "Amul", "state": "Gujarat", "category": "Dairy"},
	{"supplier_name": "Tata Steel", "state": "Jharkhand", "category": "Steel"},
	{"supplier_name": "Kerala Spices", "state": " kerala ", "category": "Spices"},
	{"supplier_name": "Lost Traders", "state": "Atlantis", "category": "Misc"},
}

func referenceIndex() *domain.RegionIndex {
	return domain.NewRegionIndex([]domain.ReferenceRegion{
		{Name: "Gujarat", Geo: domain.Geo{Lat: 22.2587, Lon: 71.1924}},
		{Name: "Jharkhand", Geo: domain.Geo{Lat: 23.6102, Lon: 85.2799}},
		{Name: "Kerala", Geo: domain.Geo{Lat: 10.8505, Lon: 76.2711}},
	})
}

// joinedMessage holds a deserialized message read from the sink topic.
type joinedMessage struct {
	Record  domain.JoinedRecord
	Key     string
	Headers map[string]string
}

func readJoined(ctx context.Context, t *testing.T, consumer *kafkago.Reader) joinedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var record domain.JoinedRecord
	require.NoError(t, json.Unmarshal(msg.Value, &record), "unmarshal sink message")

	return joinedMessage{Record: record, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func publish(ctx context.Context, t *testing.T, broker string, msgs ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter round-trips one subject record through the reader,
// the join transformer, and the writer.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	payload, err := json.Marshal(suppliers[0])
	require.NoError(t, err)
	publish(ctx, t, broker, kafkago.Message{Key: []byte("amul"), Value: payload})

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for len(batch) == 0 {
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("amul"), raw.Key)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	transformer := pipeline.NewTransformer(referenceIndex, "state", observability.NewMetricsForTesting(), discardLogger())
	out, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	jm := readJoined(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "gujarat", jm.Key)
	assert.Equal(t, "Gujarat", jm.Headers["location"])
	_, err = time.Parse(time.RFC3339, jm.Headers["joined_at"])
	assert.NoError(t, err, "joined_at should be valid RFC3339")
	assert.Equal(t, domain.Geo{Lat: 22.2587, Lon: 71.1924}, jm.Record.Geo)
	assert.Equal(t, "Amul", jm.Record.StringField("supplier_name"))
}

// TestPipelineEndToEnd runs the full pipeline and checks that matched
// records are published and the unmatched one is skipped.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	msgs := make([]kafkago.Message, 0, len(suppliers)+1)
	msgs = append(msgs, kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")})
	for i, s := range suppliers {
		payload, err := json.Marshal(s)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Key: []byte(fmt.Sprintf("supplier-%d", i)), Value: payload})
	}
	publish(ctx, t, broker, msgs...)

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(referenceIndex, "state", metrics, discardLogger())
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := map[string]joinedMessage{}
	for len(received) < 3 {
		jm := readJoined(ctx, t, consumer)
		received[jm.Record.StringField("supplier_name")] = jm
	}

	// Nothing else should arrive: the poison pill and Atlantis were skipped.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no further messages on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, domain.Geo{Lat: 23.6102, Lon: 85.2799}, received["Tata Steel"].Record.Geo)
	assert.Equal(t, "kerala", received["Kerala Spices"].Key)
	assert.Equal(t, " kerala ", received["Kerala Spices"].Headers["location"])
	assert.NotContains(t, received, "Lost Traders")
}
