//go:build integration

package messaging

import (
	"context"
	"testing"
	"time"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type channelHandler chan interfaces.ContentEvent

func (h channelHandler) HandleContentEvent(_ context.Context, event interfaces.ContentEvent) error {
	h <- event
	return nil
}

type ContentEventsIntegrationSuite struct {
	suite.Suite
	ctx          context.Context
	rmqContainer *rabbitmq.RabbitMQContainer
	conn         *amqp.Connection
}

func (s *ContentEventsIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	rmqContainer, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").WithStartupTimeout(2*time.Minute),
		),
	)
	s.Require().NoError(err, "Failed to start rabbitmq container")
	s.rmqContainer = rmqContainer

	amqpURL, err := rmqContainer.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.conn, err = amqp.Dial(amqpURL)
	s.Require().NoError(err)
}

func (s *ContentEventsIntegrationSuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.rmqContainer != nil {
		s.Require().NoError(s.rmqContainer.Terminate(s.ctx))
	}
}

func (s *ContentEventsIntegrationSuite) consumer(bindingKey string) channelHandler {
	received := make(channelHandler, 16)
	consumer, err := NewContentEventConsumer(s.conn, bindingKey, received, zap.NewNop())
	s.Require().NoError(err)
	ctx, cancel := context.WithCancel(s.ctx)
	s.Require().NoError(consumer.StartConsuming(ctx))
	s.T().Cleanup(func() {
		cancel()
		consumer.Stop()
	})
	return received
}

func (s *ContentEventsIntegrationSuite) TestPublishRoutesByBindingKey() {
	all := s.consumer(AllContentBindingKey)
	stories := s.consumer(StoryChangesBindingKey)

	publisher, err := NewRabbitMQContentPublisher(s.conn, zap.NewNop())
	s.Require().NoError(err)
	defer publisher.Close()

	owner := uuid.New()
	momentEvent := interfaces.ContentEvent{StoryID: uuid.New(), EntityType: models.KindMoment, EntityID: uuid.NewString(), Action: interfaces.ContentActionCreated, UserID: owner}
	storyEvent := interfaces.ContentEvent{StoryID: uuid.New(), EntityType: models.KindStory, EntityID: uuid.NewString(), Action: interfaces.ContentActionUpdated, UserID: owner}
	s.Require().NoError(publisher.PublishContentEvent(s.ctx, momentEvent))
	s.Require().NoError(publisher.PublishContentEvent(s.ctx, storyEvent))

	receive := func(ch channelHandler) interfaces.ContentEvent {
		select {
		case e := <-ch:
			return e
		case <-time.After(10 * time.Second):
			s.FailNow("timed out waiting for content event")
			return interfaces.ContentEvent{}
		}
	}

	s.Equal(momentEvent.EntityID, receive(all).EntityID)
	s.Equal(storyEvent.EntityID, receive(all).EntityID)

	got := receive(stories)
	s.Equal(storyEvent.StoryID, got.StoryID)
	s.Equal(owner, got.UserID)
	select {
	case extra := <-stories:
		s.Failf("unexpected event", "story binding received %s", extra.EntityType)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestContentEventsIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode.")
	}
	suite.Run(t, new(ContentEventsIntegrationSuite))
}
