package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/google/uuid"
	"github.com/kittygram/kittygram-api/models"
	"github.com/rs/zerolog/log"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Notifier publishes resource events.
type Notifier interface {
	Publish(ctx context.Context, event models.ResourceEvent) error
	Close()
}

// NewResourceEvent stamps an event with a fresh id and the current time.
func NewResourceEvent(resource string, id int64, action, actor string) models.ResourceEvent {
	return models.ResourceEvent{
		EventID:    uuid.New(),
		Resource:   resource,
		ResourceID: id,
		Action:     action,
		Actor:      actor,
		Timestamp:  time.Now().UTC().Unix(),
	}
}

type EventPublisher struct {
	client   pulsar.Client
	producer pulsar.Producer
}

// NewEventPublisher initializes the Pulsar client and producer.
func NewEventPublisher(pulsarURL, topic string) (*EventPublisher, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: pulsarURL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: topic,
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar producer: %w", err)
	}

	log.Info().Str("topic", topic).Msg("Pulsar client and producer initialized successfully")
	return &EventPublisher{client: client, producer: producer}, nil
}

// Publish sends an event to Pulsar, keyed by resource so events for one object stay ordered.
func (p *EventPublisher) Publish(ctx context.Context, event models.ResourceEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not serialize event payload: %w", err)
	}

	_, err = p.producer.Send(ctx, &pulsar.ProducerMessage{
		Key:     fmt.Sprintf("%s-%d", event.Resource, event.ResourceID),
		Payload: message,
	})
	if err != nil {
		return fmt.Errorf("could not send event to Pulsar: %w", err)
	}

	log.Debug().RawJSON("event", message).Msg("Event sent to Pulsar")
	return nil
}

// Close closes the Pulsar producer and client.
func (p *EventPublisher) Close() {
	p.producer.Close()
	p.client.Close()
	log.Info().Msg("Pulsar client and producer closed successfully")
}

// NoopNotifier drops every event. It is used when no Pulsar URL is configured.
type NoopNotifier struct{}

func (NoopNotifier) Publish(context.Context, models.ResourceEvent) error { return nil }

func (NoopNotifier) Close() {}
