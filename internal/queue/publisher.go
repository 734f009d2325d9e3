package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQPublisher struct {
	client *RabbitMQ
}

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func (p *RabbitMQPublisher) PublishOutcome(ctx context.Context, event OutcomeEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid outcome event: %w", err)
	}
	return p.publish(ctx, OutcomeQueueName, event.RunID, event)
}

func (p *RabbitMQPublisher) PublishRun(ctx context.Context, event RunEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid run event: %w", err)
	}
	return p.publish(ctx, RunQueueName, event.RunID, event)
}

func (p *RabbitMQPublisher) publish(ctx context.Context, queueName, messageID string, payload any) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for queue %q: %w", queueName, err)
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    messageID,
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish message to queue %q: %w", queueName, err)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
