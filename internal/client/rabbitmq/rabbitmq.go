package rabbitmq

import (
	"context"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

const ExecutionEventsExchange = "execution_events_exchange"

// ExecutionEventsQueue is the shared work queue for execution-finished
// messages. All instances consume from it and the broker round-robins
// deliveries between them.
const ExecutionEventsQueue = "execution_events_queue"

// RabbitMQClient holds the connection and channel for RabbitMQ operations.
type RabbitMQClient struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	logger  *slog.Logger
}

// NewRabbitMQClient establishes a connection, creates a channel, and declares
// the fanout exchange.
func NewRabbitMQClient(url string, logger *slog.Logger) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Declare a durable fanout exchange. It will survive broker restarts.
	err = ch.ExchangeDeclare(
		ExecutionEventsExchange, // name
		"fanout",                // type
		true,                    // durable
		false,                   // auto-deleted
		false,                   // internal
		false,                   // no-wait
		nil,                     // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("Successfully connected to RabbitMQ and declared exchange", "exchange", ExecutionEventsExchange)
	return &RabbitMQClient{Conn: conn, Channel: ch, logger: logger}, nil
}

// Publish sends a message to the execution events exchange.
func (c *RabbitMQClient) Publish(ctx context.Context, body []byte) error {
	return c.Channel.PublishWithContext(ctx,
		ExecutionEventsExchange, // exchange
		"",                      // routing key (ignored by fanout)
		false,                   // mandatory
		false,                   // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
}

// ConsumeExecutionEvents binds the shared durable queue to the exchange and
// returns a channel of deliveries. Acknowledgement is manual so a crashed
// instance's messages get requeued.
func (c *RabbitMQClient) ConsumeExecutionEvents() (<-chan amqp.Delivery, error) {
	q, err := c.Channel.QueueDeclare(
		ExecutionEventsQueue, // name
		true,                 // durable
		false,                // delete when unused
		false,                // exclusive
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		return nil, err
	}

	err = c.Channel.QueueBind(
		q.Name,                  // queue name
		"",                      // routing key (ignored by fanout)
		ExecutionEventsExchange, // exchange
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Queue declared and bound to exchange", "queue", q.Name, "exchange", ExecutionEventsExchange)

	return c.Channel.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack (ack manually after processing)
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
}

// Close gracefully shuts down the channel and connection.
func (c *RabbitMQClient) Close() {
	if c.Channel != nil {
		c.Channel.Close()
	}
	if c.Conn != nil {
		c.Conn.Close()
	}
	c.logger.Info("RabbitMQ connection closed.")
}
