package mocks

import (
	"context"

	"gamebook-server/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// Mock EventPublisher
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishGameCompleted(ctx context.Context, payload messaging.GameCompletedEvent) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *EventPublisher) PublishStoryPublished(ctx context.Context, payload messaging.StoryPublishedEvent) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
