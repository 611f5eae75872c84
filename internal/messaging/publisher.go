package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// GameCompletedEvent публикуется при завершении игровой сессии.
// Консьюмеры на стороне хост-приложения (лента, ачивки) нам не известны.
type GameCompletedEvent struct {
	GameID          string    `json:"game_id"`
	StoryID         string    `json:"story_id"`
	PlayerID        string    `json:"player_id"`
	EndingPageID    string    `json:"ending_page_id"`
	IsPreview       bool      `json:"is_preview"`
	DurationSeconds int64     `json:"duration_seconds"`
	CompletedAt     time.Time `json:"completed_at"`
}

// StoryPublishedEvent публикуется при публикации истории автором.
type StoryPublishedEvent struct {
	StoryID     string    `json:"story_id"`
	AuthorID    string    `json:"author_id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

// EventPublisher defines the interface for publishing domain events.
type EventPublisher interface {
	PublishGameCompleted(ctx context.Context, payload GameCompletedEvent) error
	PublishStoryPublished(ctx context.Context, payload StoryPublishedEvent) error
}

// rabbitMQEventPublisher implements EventPublisher for RabbitMQ.
type rabbitMQEventPublisher struct {
	channel   *amqp.Channel
	queueName string
}

// NewRabbitMQEventPublisher создает паблишер доменных событий.
// Очередь объявляется здесь же, чтобы не зависеть от порядка запуска
// сервисов; параметры должны совпадать с консьюмером.
func NewRabbitMQEventPublisher(conn *amqp.Connection, queueName string) (EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("event publisher: не удалось открыть канал: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("event publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	return &rabbitMQEventPublisher{channel: ch, queueName: queueName}, nil
}

func (p *rabbitMQEventPublisher) PublishGameCompleted(ctx context.Context, payload GameCompletedEvent) error {
	return p.publish(ctx, "game.completed", payload)
}

func (p *rabbitMQEventPublisher) PublishStoryPublished(ctx context.Context, payload StoryPublishedEvent) error {
	return p.publish(ctx, "story.published", payload)
}

func (p *rabbitMQEventPublisher) publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("event publisher: ошибка маршалинга payload: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(pubCtx,
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         eventType,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("event publisher: ошибка публикации '%s': %w", eventType, err)
	}
	return nil
}
