package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergeiKhy/promo-links/internal/config"
	"github.com/SergeiKhy/promo-links/internal/models"
	"github.com/redis/go-redis/v9"
)

type RedisDB struct {
	Client *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisDB{Client: client}, nil
}

func (db *RedisDB) Close() error {
	return db.Client.Close()
}

// EventPublisher рассылает события жизненного цикла через Redis Pub/Sub
type EventPublisher struct {
	redis   *RedisDB
	channel string
}

func NewEventPublisher(redis *RedisDB, channel string) *EventPublisher {
	return &EventPublisher{redis: redis, channel: channel}
}

func (p *EventPublisher) Append(ctx context.Context, event *models.LinkEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal link event: %w", err)
	}

	if err := p.redis.Client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish link event: %w", err)
	}

	return nil
}

// Channel имя канала, в который публикуются события
func (p *EventPublisher) Channel() string {
	return p.channel
}
