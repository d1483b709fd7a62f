package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

type MessageHandler func(context.Context, domain.Product) error

type Consumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	handler   MessageHandler
}

func NewConsumer(url, queueName string, handler MessageHandler) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// one unacked message at a time
	err = ch.Qos(
		1,
		0,
		false,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	slog.Info("consumer connected to RabbitMQ",
		"queue", queueName,
	)

	return &Consumer{
		conn:      conn,
		channel:   ch,
		queueName: queueName,
		handler:   handler,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("waiting for messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.Info("consumer stopped by context")
			return ctx.Err()

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := c.processMessage(ctx, msg.Body); err != nil {
				slog.Error("failed to process message",
					"error", err,
					"body", string(msg.Body),
				)
				// malformed payloads are dropped, handler failures requeued
				msg.Nack(false, !isDecodeError(err))
			} else {
				msg.Ack(false)
			}
		}
	}
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "failed to decode message: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	_, ok := err.(*decodeError)
	return ok
}

func (c *Consumer) processMessage(ctx context.Context, body []byte) error {
	var product domain.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return &decodeError{err: err}
	}

	slog.Info("processing product",
		"name", product.Name,
		"price", product.Price,
	)

	if err := c.handler(ctx, product); err != nil {
		return fmt.Errorf("handler failed: %w", err)
	}

	return nil
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return err
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
