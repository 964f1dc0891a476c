package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/shreyas/kumbhmela-leads/config"
	"go.uber.org/zap"
)

// Consumer wraps a Kafka consumer
type Consumer struct {
	consumer *kafka.Consumer
	config   config.KafkaConfig
	log      *zap.Logger
}

// MessageHandler processes the value of a single Kafka message
type MessageHandler func(key, value []byte) error

// InstanceGroup returns a consumer group unique to one process. Change events
// are a broadcast: each instance must read every partition, so instances
// never share a group.
func InstanceGroup(base, instance string) string {
	if instance == "" {
		return base
	}
	return base + "-" + instance
}

// NewConsumer creates a new Kafka consumer in its own group named after
// instance (see InstanceGroup)
func NewConsumer(cfg config.KafkaConfig, instance string, log *zap.Logger) (*Consumer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	group := InstanceGroup(cfg.ConsumerGroup, instance)
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"group.id":          group,
		"auto.offset.reset": "latest",
	}
	if err := applySASL(configMap, cfg); err != nil {
		return nil, err
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	log.Info("kafka consumer created", zap.String("group", group))
	return &Consumer{
		consumer: consumer,
		config:   cfg,
		log:      log,
	}, nil
}

// Subscribe subscribes to Kafka topics
func (c *Consumer) Subscribe(topics []string) error {
	return c.consumer.SubscribeTopics(topics, nil)
}

const readRetryDelay = time.Second

// Consume reads messages until ctx is cancelled and calls handler for each one.
// Handler errors are logged and the message is still committed. Read errors
// are logged and retried; only a fatal client error stops the loop.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		msg, err := c.consumer.ReadMessage(500 * time.Millisecond)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if isFatal(err) {
				return fmt.Errorf("error reading message: %w", err)
			}
			c.log.Warn("kafka read failed, retrying", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readRetryDelay):
			}
			continue
		}

		if err := handler(msg.Key, msg.Value); err != nil {
			c.log.Warn("error processing kafka message",
				zap.Stringp("topic", msg.TopicPartition.Topic),
				zap.Error(err))
		}

		if _, err := c.consumer.CommitMessage(msg); err != nil {
			c.log.Warn("error committing kafka message", zap.Error(err))
		}
	}
}

func isTimeout(err error) bool {
	var kerr kafka.Error
	return errors.As(err, &kerr) && kerr.IsTimeout()
}

// isFatal reports whether the client can no longer be used. Errors that are
// not kafka.Error values come from the wrapper itself and are treated as fatal.
func isFatal(err error) bool {
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.IsFatal()
	}
	return true
}

// Close closes the Kafka consumer
func (c *Consumer) Close() {
	if c.consumer != nil {
		_ = c.consumer.Close()
	}
}
