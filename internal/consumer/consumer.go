package consumer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"

	"github.com/studiohub/studiohub/internal/services"
	"github.com/studiohub/studiohub/pkg/mq"
)

// EventConsumer consumes post-commit message events and drives the
// notification fanout. The message itself was persisted and broadcast to
// its project room before the event was published; only the personal
// channel notifications flow from here.
type EventConsumer struct {
	notifications *services.NotificationService
	log           *logger.Logger
}

func NewEventConsumer(notifications *services.NotificationService, log *logger.Logger) *EventConsumer {
	return &EventConsumer{
		notifications: notifications,
		log:           log,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (c *EventConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines
// have exited.
func (c *EventConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes one partition's events. Malformed or failed
// events are marked consumed and skipped; the fanout is best-effort by
// contract and must never wedge the partition.
func (c *EventConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var event mq.MessageCreatedEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			c.log.Warn("failed to decode event", zap.Error(err))
			session.MarkMessage(message, "")
			continue
		}

		if event.Type != mq.EventTypeMessageCreated {
			session.MarkMessage(message, "")
			continue
		}

		c.notifications.Dispatch(event.Message)
		session.MarkMessage(message, "")
	}
	return nil
}

// StartConsumer runs the consumer group loop in the background.
func StartConsumer(brokers []string, groupID string, topic string, consumer *EventConsumer, log *logger.Logger) error {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return err
	}

	ctx := context.Background()
	go func() {
		for {
			if err := client.Consume(ctx, []string{topic}, consumer); err != nil {
				log.Warn("consumer error", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return nil
}
