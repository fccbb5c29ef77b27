package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ahjazly/unified-notifier/internal/domain/model"
	repo "github.com/ahjazly/unified-notifier/internal/domain/repository"
	"github.com/ahjazly/unified-notifier/internal/service"
	"github.com/ahjazly/unified-notifier/internal/storage/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// defaultWorkerCount is the default number of worker goroutines in the pool.
const defaultWorkerCount = 5

// Consumer listens to the event queue and runs one dispatch cycle per
// message using a pool of workers. Channel-level failures are already part
// of the dispatch report, so a processed message is always acked: the report
// is the audit trail, never a retry signal.
type Consumer struct {
	logger      zerolog.Logger
	conn        *amqp.Connection // Raw connection to create channels for each worker.
	service     *service.DispatchService
	workerCount int
}

// New creates a new instance of Consumer.
func New(
	logger *zerolog.Logger,
	conn *amqp.Connection,
	service *service.DispatchService,
) *Consumer {
	return &Consumer{
		logger:      logger.With().Str("component", "consumer").Logger(),
		conn:        conn,
		service:     service,
		workerCount: defaultWorkerCount,
	}
}

// Start launches the worker pool to process messages from the queue.
// This is a blocking method that will run until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info().Int("count", c.workerCount).Msg("Starting worker pool")
	var wg sync.WaitGroup

	for i := 0; i < c.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.runWorker(ctx, workerID)
		}(i + 1)
	}

	wg.Wait()
	c.logger.Info().Msg("Consumer stopped")
}

// runWorker contains the main logic for a single worker goroutine.
func (c *Consumer) runWorker(ctx context.Context, workerID int) {
	logger := c.logger.With().Int("worker_id", workerID).Logger()
	logger.Info().Msg("Worker started")

	ch, err := c.conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open channel for worker")
		return
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error().Err(err).Msg("Failed to set QoS")
		return
	}

	// Declare the queue so the worker can start before any publisher has.
	if _, err := ch.QueueDeclare(rabbitmq.EventsQueue, true, false, false, false, nil); err != nil {
		logger.Error().Err(err).Msg("Failed to declare queue")
		return
	}

	msgs, err := ch.Consume(
		rabbitmq.EventsQueue,
		fmt.Sprintf("worker-%d", workerID), // A unique consumer tag.
		false,                              // autoAck: false. We will manually acknowledge messages.
		false,                              // exclusive
		false,                              // noLocal
		false,                              // noWait
		nil,                                // args
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register a consumer")
		return
	}

	logger.Info().Msg("Worker is waiting for messages")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Worker stopping due to context cancellation")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn().Msg("Message channel closed by RabbitMQ, worker stopping")
				return
			}
			c.handleMessage(ctx, msg, logger)
		}
	}
}

// handleMessage processes a single event from the queue.
func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery, logger zerolog.Logger) {
	var event model.NotificationEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logger.Error().Err(err).Msg("Failed to unmarshal event, rejecting")
		_ = msg.Nack(false, false)
		return
	}

	log := logger.With().Stringer("event_id", event.ID).Str("recipient_id", event.RecipientID).Logger()
	log.Info().Msg("Processing notification event")

	report, err := c.service.Dispatch(ctx, &event)
	if err != nil {
		if errors.Is(err, repo.ErrRecipientNotFound) {
			// Terminal: no recipient will ever appear for this event.
			log.Warn().Msg("Recipient unknown, dropping event")
			_ = msg.Ack(false)
			return
		}
		// Infrastructure failure before any send was attempted; the event
		// itself is still unprocessed, so hand it back to the queue.
		log.Error().Err(err).Msg("Dispatch failed before send, requeueing")
		_ = msg.Nack(false, true)
		return
	}

	log.Info().
		Int("attempted", report.Attempted()).
		Int("succeeded", report.Succeeded()).
		Msg("Event dispatched")
	_ = msg.Ack(false)
}
