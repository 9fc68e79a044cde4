package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"lendledger/internal/domain/events"
)

const envelopeVersion = 1

// Envelope is the wire format on the ledger topic.
type Envelope struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	EventVersion int       `json:"event_version"`
	Producer     string    `json:"producer"`
	Timestamp    time.Time `json:"timestamp"`
	Data         any       `json:"data"`
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	service  string
	logger   *slog.Logger
}

var _ events.Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher dials the brokers with an idempotent, all-acks producer.
func NewKafkaPublisher(brokers []string, topic, service string, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers required")
	}
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_7_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, service, logger), nil
}

func NewKafkaPublisherWithProducer(p sarama.SyncProducer, topic, service string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{producer: p, topic: topic, service: service, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev events.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	payload, err := json.Marshal(Envelope{
		EventID:      uuid.NewString(),
		EventType:    ev.Type,
		EventVersion: envelopeVersion,
		Producer:     p.service,
		Timestamp:    time.Now().UTC(),
		Data:         ev.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.Key),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(ev.Type)},
		},
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		p.logger.Error("kafka publish failed", "topic", p.topic, "event_type", ev.Type, "error", err)
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
