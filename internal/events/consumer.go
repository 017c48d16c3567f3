package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/kittygram/kittygram-api/models"
	"github.com/rs/zerolog/log"
)

type EventConsumer struct {
	client   pulsar.Client
	consumer pulsar.Consumer
}

// NewEventConsumer initializes the Pulsar client and consumer.
func NewEventConsumer(pulsarURL, topic, subscription string) (*EventConsumer, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: pulsarURL})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	consumer, err := client.Subscribe(pulsar.ConsumerOptions{
		Topic:            topic,
		SubscriptionName: subscription,
		Type:             pulsar.Shared,
		DLQ: &pulsar.DLQPolicy{
			MaxDeliveries:   3,
			DeadLetterTopic: topic + "-dlq",
		},
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar consumer: %w", err)
	}

	return &EventConsumer{client: client, consumer: consumer}, nil
}

// Run receives events until ctx is done and passes each to handle. Messages are acked when
// handle succeeds and nacked otherwise; undecodable messages are acked and dropped.
func (c *EventConsumer) Run(ctx context.Context, handle func(context.Context, models.ResourceEvent) error) error {
	for {
		msg, err := c.consumer.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to receive message: %w", err)
		}

		var event models.ResourceEvent
		if err := json.Unmarshal(msg.Payload(), &event); err != nil {
			log.Warn().Err(err).Str("message_id", msg.ID().String()).Msg("dropping undecodable event")
			c.ack(msg)
			continue
		}

		if err := handle(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.EventID.String()).Msg("failed to handle event")
			c.consumer.Nack(msg)
			continue
		}
		c.ack(msg)
	}
}

func (c *EventConsumer) ack(msg pulsar.Message) {
	if err := c.consumer.Ack(msg); err != nil {
		log.Warn().Err(err).Msg("failed to ack message")
	}
}

// Close cleans up the Pulsar consumer and client.
func (c *EventConsumer) Close() {
	c.consumer.Close()
	c.client.Close()
}
