package websocket

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"freshr-backend/internal/models"
)

// RedisPublisher publishes session events for the Hub. Delivery is best
// effort; failures are logged and dropped.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (p *RedisPublisher) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", msg.Type, err)
		return
	}
	if err := p.client.Publish(ctx, Channel(userID), data).Err(); err != nil {
		log.Printf("Failed to publish %s event for user %s: %v", msg.Type, userID, err)
	}
}
