package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"story-organizer/shared/interfaces"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQContentPublisher реализует interfaces.ContentEventPublisher для RabbitMQ.
type RabbitMQContentPublisher struct {
	ch     *amqp091.Channel
	logger *zap.Logger
}

var _ interfaces.ContentEventPublisher = (*RabbitMQContentPublisher)(nil)

// NewRabbitMQContentPublisher открывает канал и объявляет topic exchange событий контента.
// Соединение conn управляется вызывающим кодом.
func NewRabbitMQContentPublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQContentPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	log := logger.Named("RabbitMQContentPublisher")

	ch, err := conn.Channel()
	if err != nil {
		log.Error("Failed to open a channel", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ContentEventsExchangeName, // name
		contentEventsExchangeType, // type
		true,                      // durable
		false,                     // auto-deleted
		false,                     // internal
		false,                     // no-wait
		nil,                       // arguments
	)
	if err != nil {
		_ = ch.Close()
		log.Error("Failed to declare exchange", zap.String("exchange", ContentEventsExchangeName), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", ContentEventsExchangeName, err)
	}

	log.Info("Content events exchange declared", zap.String("exchange", ContentEventsExchangeName))
	return &RabbitMQContentPublisher{ch: ch, logger: log}, nil
}

// RoutingKey ключ маршрутизации события: content.<entityType>.<action>.
func RoutingKey(event interfaces.ContentEvent) string {
	return fmt.Sprintf("%s.%s.%s", contentRoutingPrefix, event.EntityType, event.Action)
}

// PublishContentEvent публикует событие в exchange с ключом RoutingKey(event).
func (p *RabbitMQContentPublisher) PublishContentEvent(ctx context.Context, event interfaces.ContentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal content event: %w", err)
	}

	timestamp := event.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	routingKey := RoutingKey(event)
	err = p.ch.PublishWithContext(ctx,
		ContentEventsExchangeName, // exchange
		routingKey,                // routing key
		false,                     // mandatory
		false,                     // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
			Timestamp:    timestamp,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish content event",
			zap.String("routingKey", routingKey),
			zap.String("entityID", event.EntityID),
			zap.Error(err))
		return fmt.Errorf("failed to publish content event: %w", err)
	}

	p.logger.Debug("Content event published", zap.String("routingKey", routingKey), zap.String("entityID", event.EntityID))
	return nil
}

// Close закрывает канал RabbitMQ.
func (p *RabbitMQContentPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
