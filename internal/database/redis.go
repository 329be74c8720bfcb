package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients keeps pub/sub on its own connection so long-lived
// subscriptions never starve the command client.
type RedisClients struct {
	Commands *redis.Client
	PubSub   *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	commandClient := redis.NewClient(opt)
	if err := commandClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis (commands): %w", err)
	}

	pubsubOpt := *opt
	pubsubClient := redis.NewClient(&pubsubOpt)
	if err := pubsubClient.Ping(ctx).Err(); err != nil {
		commandClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (pubsub): %w", err)
	}

	return &RedisClients{
		Commands: commandClient,
		PubSub:   pubsubClient,
	}, nil
}

func (r *RedisClients) Close() {
	r.Commands.Close()
	r.PubSub.Close()
}

// Ping checks both connections.
func (r *RedisClients) Ping(ctx context.Context) error {
	if err := r.Commands.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis commands: %w", err)
	}
	if err := r.PubSub.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis pubsub: %w", err)
	}
	return nil
}
