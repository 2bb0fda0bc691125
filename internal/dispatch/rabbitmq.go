package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Publisher sends one message to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// RabbitMQPublisher implements Publisher on a single AMQP channel.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// NewRabbitMQPublisher dials the broker and opens a channel.
func NewRabbitMQPublisher(url string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	logger.Info("connected to RabbitMQ")
	return &RabbitMQPublisher{conn: conn, channel: ch, logger: logger}, nil
}

// Publish declares the durable queue and sends a persistent JSON message.
// streadway/amqp has no context support; ctx is only checked before sending.
func (p *RabbitMQPublisher) Publish(ctx context.Context, queueName string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q, err := p.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	err = p.channel.Publish(
		"",     // exchange
		q.Name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		})
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queueName, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *RabbitMQPublisher) Close() error {
	var lastErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			lastErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// QueueDispatcher hands files to the workflow through a message queue.
type QueueDispatcher struct {
	publisher Publisher
	queue     string
	logger    *zap.Logger
}

// NewQueueDispatcher creates a dispatcher publishing to queue.
func NewQueueDispatcher(publisher Publisher, queue string, logger *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher, queue: queue, logger: logger}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, file File) error {
	body, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	if err := d.publisher.Publish(ctx, d.queue, body); err != nil {
		d.logger.Error("failed to queue lead file",
			zap.String("lead_file_id", file.LeadFileID), zap.String("user_id", file.UserID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	d.logger.Info("lead file queued", zap.String("lead_file_id", file.LeadFileID), zap.String("queue", d.queue))
	return nil
}
