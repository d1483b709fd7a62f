package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn      *amqp.Connection
	channel   channel
	queueName string
}

func NewPublisher(url, queueName string) (*Publisher, error) {
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

	slog.Info("publisher connected to RabbitMQ",
		"queue", queueName,
	)

	return &Publisher{
		conn:      conn,
		channel:   ch,
		queueName: queueName,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, product domain.Product) error {
	body, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}

	if err := p.publish(ctx, "application/json", body); err != nil {
		return err
	}

	slog.Debug("product published",
		"name", product.Name,
		"price", product.Price,
	)

	return nil
}

// Save publishes one message per product, stopping at the first failure.
func (p *Publisher) Save(ctx context.Context, products []domain.Product) error {
	for i, product := range products {
		if err := p.Publish(ctx, product); err != nil {
			return fmt.Errorf("published %d of %d products: %w", i, len(products), err)
		}
	}

	slog.Info("products published",
		"queue", p.queueName,
		"total_published", len(products),
	)
	return nil
}

func (p *Publisher) Notify(ctx context.Context, message string) error {
	return p.publish(ctx, "text/plain", []byte(message))
}

func (p *Publisher) publish(ctx context.Context, contentType string, body []byte) error {
	err := p.channel.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  contentType,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
