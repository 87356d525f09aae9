package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ContentEventHandler обрабатывает одно событие контента.
type ContentEventHandler interface {
	HandleContentEvent(ctx context.Context, event interfaces.ContentEvent) error
}

// ContentEventConsumer читает события контента из временной эксклюзивной очереди,
// привязанной к exchange событий по bindingKey.
type ContentEventConsumer struct {
	ch          *amqp091.Channel
	handler     ContentEventHandler
	logger      *zap.Logger
	queueName   string
	bindingKey  string
	consumerTag string
	done        chan struct{}
}

func NewContentEventConsumer(conn *amqp091.Connection, bindingKey string, handler ContentEventHandler, logger *zap.Logger) (*ContentEventConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("ContentEventHandler is nil")
	}

	consumerTag := fmt.Sprintf("content_event_consumer_%d", time.Now().UnixNano())
	c := &ContentEventConsumer{
		handler:     handler,
		logger:      logger.Named("ContentEventConsumer").With(zap.String("consumerTag", consumerTag)),
		bindingKey:  bindingKey,
		consumerTag: consumerTag,
		done:        make(chan struct{}),
	}
	if err := c.setupChannelAndQueue(conn); err != nil {
		return nil, err
	}
	c.logger.Info("ContentEventConsumer initialized",
		zap.String("exchange", ContentEventsExchangeName),
		zap.String("queue", c.queueName),
		zap.String("bindingKey", bindingKey))
	return c, nil
}

func (c *ContentEventConsumer) setupChannelAndQueue(conn *amqp091.Connection) error {
	var err error
	c.ch, err = conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	err = c.ch.ExchangeDeclare(
		ContentEventsExchangeName,
		contentEventsExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare exchange '%s': %w", ContentEventsExchangeName, err)
	}

	// Имя очереди генерирует брокер; очередь живет, пока живо соединение.
	q, err := c.ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	c.queueName = q.Name

	if err := c.ch.QueueBind(c.queueName, c.bindingKey, ContentEventsExchangeName, false, nil); err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.queueName, ContentEventsExchangeName, err)
	}
	return nil
}

// StartConsuming регистрирует консьюмера и обрабатывает сообщения в отдельной горутине
// до отмены ctx или закрытия канала.
func (c *ContentEventConsumer) StartConsuming(ctx context.Context) error {
	deliveries, err := c.ch.Consume(
		c.queueName,
		c.consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	go func() {
		defer close(c.done)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					c.logger.Warn("Deliveries channel closed")
					return
				}
				c.handleDelivery(ctx, d)
			}
		}
	}()
	return nil
}

func (c *ContentEventConsumer) handleDelivery(ctx context.Context, d amqp091.Delivery) {
	if err := c.handleMessage(ctx, d.Body); err != nil {
		c.logger.Error("Failed to handle content event", zap.String("routingKey", d.RoutingKey), zap.Error(err))
		// Битое сообщение повторно не доставляем
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}
	if err := d.Ack(false); err != nil {
		c.logger.Error("Failed to acknowledge message", zap.Error(err))
	}
}

func (c *ContentEventConsumer) handleMessage(ctx context.Context, body []byte) error {
	var event interfaces.ContentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal content event: %w", err)
	}
	if !event.EntityType.Valid() {
		return fmt.Errorf("%w: unknown entity type %q", models.ErrInvalidInput, event.EntityType)
	}
	return c.handler.HandleContentEvent(ctx, event)
}

// Stop отменяет подписку и закрывает канал.
func (c *ContentEventConsumer) Stop() {
	c.logger.Info("Stopping ContentEventConsumer")
	if err := c.ch.Cancel(c.consumerTag, false); err != nil {
		c.logger.Warn("Failed to cancel consumer", zap.Error(err))
	}
	if err := c.ch.Close(); err != nil {
		c.logger.Warn("Failed to close channel", zap.Error(err))
	}
}

// StoryCacheInvalidator сбрасывает кэш истории при ее изменении другим экземпляром сервиса.
type StoryCacheInvalidator struct {
	cache  interfaces.StoryCache
	logger *zap.Logger
}

var _ ContentEventHandler = (*StoryCacheInvalidator)(nil)

func NewStoryCacheInvalidator(cache interfaces.StoryCache, logger *zap.Logger) *StoryCacheInvalidator {
	return &StoryCacheInvalidator{cache: cache, logger: logger.Named("StoryCacheInvalidator")}
}

func (h *StoryCacheInvalidator) HandleContentEvent(ctx context.Context, event interfaces.ContentEvent) error {
	if event.EntityType != models.KindStory || event.Action == interfaces.ContentActionCreated {
		return nil
	}
	if err := h.cache.Invalidate(ctx, event.StoryID); err != nil {
		return fmt.Errorf("invalidate story %s: %w", event.StoryID, err)
	}
	h.logger.Debug("Story cache invalidated", zap.Stringer("storyID", event.StoryID), zap.String("action", string(event.Action)))
	return nil
}
