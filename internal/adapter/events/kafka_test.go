package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"lendledger/internal/domain/events"
	"lendledger/internal/infrastructure/logging"
)

func TestKafkaPublisher_SendsEnvelope(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, cfg)

	var got Envelope
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "ledger.events" {
			t.Errorf("topic = %s", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "acc-1" {
			t.Errorf("key = %s", key)
		}
		raw, _ := msg.Value.Encode()
		return json.Unmarshal(raw, &got)
	})

	p := NewKafkaPublisherWithProducer(sp, "ledger.events", "lendledger", logging.Discard())
	err := p.Publish(context.Background(), events.Event{
		Type:    events.TypeTransactionPosted,
		Key:     "acc-1",
		Payload: map[string]string{"id": "tx-1"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got.EventType != events.TypeTransactionPosted || got.EventID == "" || got.Producer != "lendledger" {
		t.Fatalf("envelope = %+v", got)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaPublisher_Failure(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, cfg)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewKafkaPublisherWithProducer(sp, "ledger.events", "lendledger", logging.Discard())
	err := p.Publish(context.Background(), events.Event{Type: events.TypeTransactionFailed, Key: "k"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("err = %v", err)
	}
	_ = p.Close()
}

func TestKafkaPublisher_CancelledContext(t *testing.T) {
	cfg := mocks.NewTestConfig()
	sp := mocks.NewSyncProducer(t, cfg)
	p := NewKafkaPublisherWithProducer(sp, "t", "s", logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, events.Event{Type: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	_ = p.Close()
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, "t", "s", nil); err == nil {
		t.Fatal("expected error")
	}
}
