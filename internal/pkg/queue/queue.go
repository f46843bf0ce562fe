// Package queue moves recalculation tasks through RabbitMQ.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueueName = "schedule_recalculation"

// HandlerFunc processes one message body. Returning an error nacks the
// message without requeue.
type HandlerFunc func(ctx context.Context, body []byte) error

func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// Publisher sends task bodies to a durable queue. Channels are not safe for
// concurrent publishing, so every call holds mu.
type Publisher struct {
	mu      sync.Mutex
	ch      *amqp.Channel
	queue   string
	timeout time.Duration
}

func NewPublisher(conn *amqp.Connection, queueName string, timeout time.Duration) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if queueName == "" {
		queueName = DefaultQueueName
	}
	if _, err := declare(ch, queueName); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{ch: ch, queue: queueName, timeout: timeout}, nil
}

func (p *Publisher) Publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// Consumer delivers queued tasks to a handler one at a time.
type Consumer struct {
	ch    *amqp.Channel
	queue string
}

func NewConsumer(conn *amqp.Connection, queueName string, prefetch int) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if queueName == "" {
		queueName = DefaultQueueName
	}
	if _, err := declare(ch, queueName); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}
	return &Consumer{ch: ch, queue: queueName}, nil
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) error {
	msgs, err := c.ch.Consume(
		c.queue,
		"",    // consumer tag assigned by the broker
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", c.queue)
			}
			Dispatch(ctx, msg, handle)
		}
	}
}

func (c *Consumer) Close() error {
	return c.ch.Close()
}

// Acknowledger is the part of amqp.Delivery that Dispatch needs.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Dispatch runs handle for one delivery and settles it.
func Dispatch(ctx context.Context, msg amqp.Delivery, handle HandlerFunc) {
	settle(ctx, msg.Body, msg, handle)
}

func settle(ctx context.Context, body []byte, ack Acknowledger, handle HandlerFunc) {
	if err := handle(ctx, body); err != nil {
		slog.Error("recalculation task failed", "error", err, "body", string(body))
		_ = ack.Nack(false, false)
		return
	}
	if err := ack.Ack(false); err != nil {
		slog.Warn("ack failed", "error", err)
	}
}
