package mq

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"

	"github.com/studiohub/studiohub/internal/services"
)

// MessageCreatedEvent is the post-commit event published for every
// persisted chat message. The consumer side drives the notification
// fanout from it.
type MessageCreatedEvent struct {
	Type    string              `json:"type"`
	Message services.MessageDTO `json:"message"`
}

const EventTypeMessageCreated = "message.created"

// KafkaProducer publishes post-commit events. Keyed by project ID so
// events of one project stay in one partition, in order.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start sarama producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		topic:    topic,
	}, nil
}

func (k *KafkaProducer) Publish(key string, event any) error {
	bytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(bytes),
	}

	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (k *KafkaProducer) Close() error {
	return k.producer.Close()
}

// KafkaDispatcher implements services.Dispatcher over the producer, with a
// fallback dispatcher for when publishing fails: the fanout is best-effort
// and must not be lost to a broker hiccup.
type KafkaDispatcher struct {
	producer *KafkaProducer
	fallback services.Dispatcher
}

func NewKafkaDispatcher(producer *KafkaProducer, fallback services.Dispatcher) *KafkaDispatcher {
	return &KafkaDispatcher{producer: producer, fallback: fallback}
}

func (d *KafkaDispatcher) MessageCreated(message services.MessageDTO) {
	event := MessageCreatedEvent{
		Type:    EventTypeMessageCreated,
		Message: message,
	}
	key := strconv.FormatUint(uint64(message.ProjectID), 10)
	if err := d.producer.Publish(key, event); err != nil && d.fallback != nil {
		d.fallback.MessageCreated(message)
	}
}
