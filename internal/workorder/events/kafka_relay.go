// Package events mirrors notification-hub traffic onto a Kafka topic so
// off-process consumers (reporting, audit tails) can follow job activity.
// Like the hub itself the relay is best-effort: a full queue drops the
// event and the reconciliation contract covers the gap.
package events

import (
	"context"
	"encoding/json"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/hub"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Relay buffers hub events and writes them to Kafka from a single loop,
// keeping the request path non-blocking.
type Relay struct {
	writer    KafkaWriter
	events    chan hub.Event
	logger    *zap.Logger
	closeChan chan struct{}
}

func NewRelay(brokers []string, topic string, logger *zap.Logger) (*Relay, error) {
	// Create topic if it doesn't exist
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	topicConfigs := []kafka.TopicConfig{
		{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
	}

	err = conn.CreateTopics(topicConfigs...)
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}
	r := &Relay{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
			Topic:    topic,
		},
		events:    make(chan hub.Event, 1000),
		logger:    logger.Named("kafka_relay"),
		closeChan: make(chan struct{}),
	}

	go r.eventLoop()
	return r, nil
}

// Relay implements hub.RelaySink. It never blocks; when the queue is full
// the event is dropped and logged.
func (r *Relay) Relay(event hub.Event) {
	select {
	case r.events <- event:
	default:
		r.logger.Warn("relay queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("job_id", event.Job.ID.String()),
		)
	}
}

func (r *Relay) eventLoop() {
	for {
		select {
		case event := <-r.events:
			r.sendEvent(context.Background(), event)
		case <-r.closeChan:
			return
		}
	}
}

func (r *Relay) sendEvent(ctx context.Context, event hub.Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		r.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("job_id", event.Job.ID.String()),
		)
		return
	}
	// Keyed by job id so per-job ordering survives partitioning.
	err = r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Job.ID.String()),
		Value: value,
	})
	if err != nil {
		r.logger.Error("Failed to relay event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("job_id", event.Job.ID.String()),
		)
		return
	}
}

func (r *Relay) Close() {
	close(r.closeChan)
	if err := r.writer.Close(); err != nil {
		r.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
