package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/voyage-engine/pkg/state"
	"github.com/jwebster45206/voyage-engine/pkg/story"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSceneDisplayed   EventType = "scene.displayed"
	EventTypeChoiceMade       EventType = "choice.made"
	EventTypeSessionEnded     EventType = "session.ended"
	EventTypeSessionRestarted EventType = "session.restarted"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel returns the pub/sub channel carrying a session's events.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishSceneDisplayed publishes a scene.displayed event. Replays from
// back/forward navigation carry replay=true.
func (b *Broadcaster) PublishSceneDisplayed(ctx context.Context, sessionID uuid.UUID, scene story.SceneKey, progress int, replay bool) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSceneDisplayed,
		Data: map[string]any{
			"scene":    string(scene),
			"progress": progress,
			"replay":   replay,
		},
	})
}

// PublishChoiceMade publishes a choice.made event
func (b *Broadcaster) PublishChoiceMade(ctx context.Context, sessionID uuid.UUID, detail state.ChoiceDetail) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeChoiceMade,
		Data: map[string]any{
			"from":        string(detail.SceneKey),
			"choice":      detail.ChoiceLabel,
			"description": detail.Description,
			"next":        string(detail.NextScene),
		},
	})
}

// PublishSessionEnded publishes a session.ended event
func (b *Broadcaster) PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, ending string, terminated bool) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionEnded,
		Data: map[string]any{
			"ending":     ending,
			"terminated": terminated,
		},
	})
}

// PublishSessionRestarted publishes a session.restarted event
func (b *Broadcaster) PublishSessionRestarted(ctx context.Context, sessionID uuid.UUID) error {
	return b.publish(ctx, sessionID, Event{Type: EventTypeSessionRestarted})
}

// publish sends an event to the session-specific channel
func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := Channel(sessionID)
	event.SessionID = sessionID.String()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}
