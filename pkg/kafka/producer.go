package kafka

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/shreyas/kumbhmela-leads/config"
	"go.uber.org/zap"
)

// Producer wraps a Kafka producer
type Producer struct {
	producer *kafka.Producer
	config   config.KafkaConfig
	log      *zap.Logger
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg config.KafkaConfig, log *zap.Logger) (*Producer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"client.id":         cfg.ClientID,
		"acks":              "all",
	}
	if err := applySASL(configMap, cfg); err != nil {
		return nil, err
	}

	producer, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	go func() {
		for e := range producer.Events() {
			if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
				log.Warn("kafka delivery failed",
					zap.Stringp("topic", ev.TopicPartition.Topic),
					zap.Error(ev.TopicPartition.Error))
			}
		}
	}()

	return &Producer{
		producer: producer,
		config:   cfg,
		log:      log,
	}, nil
}

// Produce sends a message to a Kafka topic (async)
func (p *Producer) Produce(topic string, key, value []byte) error {
	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   key,
		Value: value,
	}

	return p.producer.Produce(message, nil)
}

// PublishJSON marshals data to JSON and publishes it. Messages with the same key
// (the table name for change events) land on the same partition and stay ordered.
func (p *Producer) PublishJSON(topic, key string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return p.Produce(topic, []byte(key), jsonData)
}

// Close flushes outstanding messages and closes the producer
func (p *Producer) Close() {
	if p.producer != nil {
		p.producer.Flush(p.config.ProducerTimeout)
		p.producer.Close()
	}
}

func applySASL(configMap *kafka.ConfigMap, cfg config.KafkaConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		return nil
	}
	protocol := "SASL_PLAINTEXT"
	if cfg.SSL {
		protocol = "SASL_SSL"
	}
	for k, v := range map[string]string{
		"sasl.mechanism":    strings.ToUpper(cfg.SASLMechanism),
		"sasl.username":     cfg.Username,
		"sasl.password":     cfg.Password,
		"security.protocol": protocol,
	} {
		if err := configMap.SetKey(k, v); err != nil {
			return fmt.Errorf("failed to set kafka option %s: %w", k, err)
		}
	}
	return nil
}
