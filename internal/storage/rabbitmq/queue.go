package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	repo "github.com/ahjazly/unified-notifier/internal/domain/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Ensure EventQueue implements the repository interface at compile time.
var _ repo.EventQueue = (*EventQueue)(nil)

// Constants for our RabbitMQ topology. Dispatch is best-effort, so there are
// no wait or retry exchanges: an event is consumed exactly once and its
// report is the audit trail.
const (
	EventsExchange = "notify.exchange"
	EventsQueue    = "notify.queue.dispatch"

	Direct = "direct"
)

// EventQueue implements the repository.EventQueue interface. It acts as a
// PUBLISHER, handing notification events from the API to the worker pool.
type EventQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger zerolog.Logger
}

// NewEventQueue creates a new instance of the EventQueue publisher.
// It receives a shared amqp.Connection to create its own channel.
func NewEventQueue(conn *amqp.Connection, logger *zerolog.Logger) (*EventQueue, error) {
	channel, err := conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to open a channel")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to open a channel: %w", err)
	}

	queue := &EventQueue{
		conn:   conn,
		ch:     channel,
		logger: logger.With().Str("component", "rabbitmq_publisher").Logger(),
	}

	if err = queue.setupTopology(); err != nil {
		queue.logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to setup topology")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to setup topology: %w", err)
	}

	return queue, nil
}

// setupTopology declares the exchange and queue used for event hand-off.
func (q *EventQueue) setupTopology() error {
	q.logger.Info().Msg("setting up rabbitmq topology")

	if err := q.ch.ExchangeDeclare(EventsExchange, Direct, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", EventsExchange, err)
	}
	if _, err := q.ch.QueueDeclare(EventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", EventsQueue, err)
	}
	if err := q.ch.QueueBind(EventsQueue, "", EventsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to exchange %s: %w", EventsQueue, EventsExchange, err)
	}

	q.logger.Info().Msg("rabbitmq topology setup successful")
	return nil
}

// Publish hands a notification event to the worker pool.
func (q *EventQueue) Publish(ctx context.Context, event *model.NotificationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		q.logger.Error().Err(err).Stringer("id", event.ID).Msg("failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}

	return q.ch.PublishWithContext(ctx, EventsExchange, "", false, false, msg)
}
