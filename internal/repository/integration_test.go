package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SergeiKhy/promo-links/internal/config"
	"github.com/SergeiKhy/promo-links/internal/models"
	"github.com/SergeiKhy/promo-links/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres запускает контейнер PostgreSQL и возвращает подключение с готовой схемой
func setupPostgres(t *testing.T) *repository.PostgresDB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("links"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := repository.NewPostgresDB(config.DBConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "user",
		Password: "password",
		Name:     "links",
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	// Повторный вызов не должен падать
	require.NoError(t, db.EnsureSchema(ctx))

	return db
}

// setupRedis запускает контейнер Redis
func setupRedis(t *testing.T) *repository.RedisDB {
	t.Helper()
	ctx := context.Background()

	container, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := repository.NewRedisClient(config.RedisConfig{
		Host: host,
		Port: port.Port(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// TestIntegration_Journal проверяет запись и чтение журнала событий
func TestIntegration_Journal(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	db := setupPostgres(t)
	journal := repository.NewJournalRepository(db)
	ctx := context.Background()

	link := models.Link{ID: "link-1", OwnerID: "u1", VisitLimit: 2, TTL: time.Hour}
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	created := models.NewLinkEvent(models.EventCreated, link, at)
	require.NoError(t, journal.Append(ctx, created))
	assert.NotZero(t, created.ID)

	link.VisitCount = 2
	require.NoError(t, journal.Append(ctx, models.NewLinkEvent(models.EventExhausted, link, at.Add(time.Minute))))
	require.NoError(t, journal.Append(ctx, models.NewLinkEvent(models.EventCreated, models.Link{ID: "link-2", OwnerID: "u2"}, at)))

	events, err := journal.ListByLink(ctx, "link-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventCreated, events[0].Kind)
	assert.Equal(t, models.EventExhausted, events[1].Kind)
	assert.Equal(t, 2, events[1].VisitCount)
	assert.True(t, at.Equal(events[0].OccurredAt))

	limited, err := journal.ListByLink(ctx, "link-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	empty, err := journal.ListByLink(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// TestIntegration_EventPublisher проверяет публикацию событий в Redis Pub/Sub
func TestIntegration_EventPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	client := setupRedis(t)
	publisher := repository.NewEventPublisher(client, "links:events:test")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub := client.Client.Subscribe(ctx, publisher.Channel())
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	event := models.NewLinkEvent(models.EventDeleted, models.Link{ID: "link-1", OwnerID: "u1", VisitLimit: 5}, time.Now().UTC())
	require.NoError(t, publisher.Append(ctx, event))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got models.LinkEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "link-1", got.LinkID)
	assert.Equal(t, models.EventDeleted, got.Kind)
	assert.Equal(t, 5, got.VisitLimit)
}
