package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mfadhilr/edupay/internal/common/config"
	"github.com/mfadhilr/edupay/internal/common/logger"
)

type Producer struct {
	writer  *kafka.Writer
	brokers []string
	logger  *logger.Logger
}

func NewProducer(cfg config.KafkaConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		// Topics are created by the first publish in development setups.
		AllowAutoTopicCreation: true,
	}

	return &Producer{writer: writer, brokers: cfg.Brokers, logger: log}
}

// PublishEvent marshals payload as JSON and publishes it keyed by key.
func (p *Producer) PublishEvent(ctx context.Context, topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.Debugf("Published event to %s (key=%s)", topic, key)
	return nil
}

// Ping verifies at least one broker is reachable.
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka broker %s unreachable: %w", p.brokers[0], err)
	}
	return conn.Close()
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

func NewConsumer(cfg config.KafkaConfig, topic string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})

	return &Consumer{reader: reader, logger: log}
}

// retryDelay spaces out handler retries for a message that failed transiently.
const retryDelay = 2 * time.Second

// Consume reads messages until ctx is cancelled, passing each to handler. The
// offset is committed only after the handler returns nil, so a message is
// never lost to a transient failure: the handler is retried in place, and an
// uncommitted offset is redelivered after a restart or rebalance. Handlers
// drop poison messages by returning nil themselves.
func (c *Consumer) Consume(ctx context.Context, handler func(ctx context.Context, key, value []byte) error) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Errorf("Failed to fetch message: %v", err)
			continue
		}

		for {
			if err := handler(ctx, msg.Key, msg.Value); err == nil {
				break
			} else {
				c.logger.Errorf("Handler failed for message on %s, retrying: %v", msg.Topic, err)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Errorf("Failed to commit offset on %s: %v", msg.Topic, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// UnmarshalEvent decodes a JSON event payload into v.
func UnmarshalEvent(value []byte, v interface{}) error {
	return json.Unmarshal(value, v)
}
