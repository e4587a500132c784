package consumer

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Faysoula/SyncSolve-sub000/internal/execution"
	"github.com/Faysoula/SyncSolve-sub000/internal/handlers"
)

// ExecutionEventsConsumer handles consuming and processing execution-finished
// messages. Each finished execution marks its terminal session as recently
// active so the idle sweeper does not reclaim terminals that are in use.
type ExecutionEventsConsumer struct {
	handlerRepo *handlers.HandlerRepo
}

// NewExecutionEventsConsumer creates a new consumer instance.
func NewExecutionEventsConsumer(handlerRepo *handlers.HandlerRepo) *ExecutionEventsConsumer {
	return &ExecutionEventsConsumer{
		handlerRepo: handlerRepo,
	}
}

// Start begins consuming execution-finished messages from RabbitMQ. All
// instances share one durable queue, so the broker distributes messages
// between them and requeues anything an instance dies holding.
func (c *ExecutionEventsConsumer) Start(ctx context.Context) error {
	msgs, err := c.handlerRepo.GetRabbitClient().ConsumeExecutionEvents()
	if err != nil {
		return err
	}

	c.handlerRepo.GetLogger().Info("Execution events consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.handlerRepo.GetLogger().Info("Execution events consumer stopping")
				return

			case msg, ok := <-msgs:
				if !ok {
					c.handlerRepo.GetLogger().Error("Execution events messages channel closed")
					return
				}

				c.processMessage(msg)
			}
		}
	}()

	return nil
}

// processMessage handles a single execution-finished message.
func (c *ExecutionEventsConsumer) processMessage(msg amqp.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := c.handlerRepo.GetLogger()

	var finished execution.FinishedMessage
	if err := json.Unmarshal(msg.Body, &finished); err != nil {
		logger.Error("Failed to unmarshal execution finished message", "error", err)
		msg.Nack(false, false) // Don't requeue invalid messages
		return
	}

	if err := c.handlerRepo.TouchTerminal(ctx, finished.TerminalID); err != nil {
		logger.Error("Failed to refresh terminal activity",
			"execution_id", finished.ExecutionID,
			"terminal_id", finished.TerminalID,
			"error", err)
		// Nack and requeue for retry
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
	logger.Info("Refreshed terminal activity after execution",
		"execution_id", finished.ExecutionID,
		"terminal_id", finished.TerminalID,
		"status", finished.Status)
}
