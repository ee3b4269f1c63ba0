package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mfadhilr/edupay/internal/common/config"
	"github.com/mfadhilr/edupay/internal/common/logger"
)

type testEvent struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func setupKafka(t *testing.T, suffix string) (config.KafkaConfig, string) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	// Unique topic and group per run so stale offsets from earlier runs
	// cannot leak in.
	run := fmt.Sprintf("%s-%d", suffix, time.Now().UnixNano())
	cfg := config.KafkaConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "test-group-" + run,
	}
	return cfg, "test.events." + run
}

func TestProducerConsumer(t *testing.T) {
	cfg, topic := setupKafka(t, "roundtrip")
	log := logger.New("test")

	producer := NewProducer(cfg, log)
	defer producer.Close()

	consumer := NewConsumer(cfg, topic, log)
	defer consumer.Close()

	event := testEvent{ID: "evt-1", Message: "hello"}

	ctx := context.Background()
	if err := producer.PublishEvent(ctx, topic, event.ID, event); err != nil {
		t.Skipf("Cannot publish to Kafka: %v", err)
		return
	}

	received := make(chan testEvent, 1)
	consumeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	go consumer.Consume(consumeCtx, func(ctx context.Context, key, value []byte) error {
		var got testEvent
		if err := UnmarshalEvent(value, &got); err != nil {
			return err
		}
		received <- got
		return nil
	})

	select {
	case got := <-received:
		if got.ID != event.ID || got.Message != event.Message {
			t.Errorf("received %+v, want %+v", got, event)
		}
	case <-time.After(12 * time.Second):
		t.Skip("Kafka not available or message not received in time")
	}
}

// A handler error must not consume the message: the same message is retried
// until the handler accepts it.
func TestConsumeRetriesFailedHandler(t *testing.T) {
	cfg, topic := setupKafka(t, "retry")
	log := logger.New("test")

	producer := NewProducer(cfg, log)
	defer producer.Close()

	consumer := NewConsumer(cfg, topic, log)
	defer consumer.Close()

	event := testEvent{ID: "evt-retry", Message: "settle me"}

	ctx := context.Background()
	if err := producer.PublishEvent(ctx, topic, event.ID, event); err != nil {
		t.Skipf("Cannot publish to Kafka: %v", err)
		return
	}

	deliveries := make(chan testEvent, 4)
	attempts := 0
	consumeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	go consumer.Consume(consumeCtx, func(ctx context.Context, key, value []byte) error {
		var got testEvent
		if err := UnmarshalEvent(value, &got); err != nil {
			return err
		}
		deliveries <- got

		attempts++
		if attempts == 1 {
			return errors.New("storage temporarily unavailable")
		}
		return nil
	})

	for i := 0; i < 2; i++ {
		select {
		case got := <-deliveries:
			if got.ID != event.ID {
				t.Errorf("delivery %d: got id %s, want %s", i+1, got.ID, event.ID)
			}
		case <-time.After(15 * time.Second):
			if i == 0 {
				t.Skip("Kafka not available or message not received in time")
			}
			t.Fatal("message was not redelivered after handler failure")
		}
	}
}
