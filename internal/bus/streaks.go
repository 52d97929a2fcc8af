package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/riftwatch/riftwatch/internal/domain"
)

// PublishStreak announces a detected streak on the guild's streak topic.
func PublishStreak(ctx context.Context, b domain.EventBus, event *domain.StreakEvent) error {
	if event == nil || event.GuildID == "" {
		return fmt.Errorf("streak event with guild id is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode streak event: %w", err)
	}

	return b.Publish(ctx, event.GuildID, domain.TopicStreakDetected, payload)
}

// SubscribeStreaks delivers decoded streak events for one guild. Messages
// that fail to decode are dropped; the alerting layer only ever sees
// well-formed events.
func SubscribeStreaks(ctx context.Context, b domain.EventBus, guildID string, handler func(ctx context.Context, event *domain.StreakEvent) error) (domain.Subscription, error) {
	return b.Subscribe(ctx, guildID, domain.TopicStreakDetected, func(ctx context.Context, msg *domain.Message) error {
		var event domain.StreakEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("malformed streak event: %w", err)
		}
		return handler(ctx, &event)
	})
}
