package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/SergeiKhy/promo-links/internal/models"
	"github.com/SergeiKhy/promo-links/internal/repository"
	"github.com/SergeiKhy/promo-links/internal/service"
	"github.com/SergeiKhy/promo-links/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestSweeper_RunOnce удаляет истёкшие ссылки из того же хранилища, что обслуживает сервис
func TestSweeper_RunOnce(t *testing.T) {
	linkService, store, _, clock := setupTestService()
	events := mocks.NewMockEventEmitter()
	ctx := context.Background()

	short, err := linkService.CreateLink(ctx, &models.CreateLinkInput{
		TargetURL: "https://example.com/short",
		OwnerID:   "u1",
		TTL:       time.Minute,
	})
	require.NoError(t, err)
	long, err := linkService.CreateLink(ctx, &models.CreateLinkInput{
		TargetURL: "https://example.com/long",
		OwnerID:   "u1",
		TTL:       time.Hour,
	})
	require.NoError(t, err)

	sweeper := service.NewSweeper(store, events, time.Hour, zap.NewNop()).WithClock(clock.Now)

	assert.Equal(t, 0, sweeper.RunOnce(ctx))

	clock.Advance(time.Minute)
	assert.Equal(t, 1, sweeper.RunOnce(ctx))
	assert.Equal(t, 1, store.Len())

	_, err = linkService.ResolveLink(ctx, short.ID)
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	target, err := linkService.ResolveLink(ctx, long.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/long", target)

	require.Len(t, events.Events(), 1)
	assert.Equal(t, models.EventExpired, events.Events()[0].Kind)
	assert.Equal(t, short.ID, events.Events()[0].LinkID)
}

// TestSweeper_StartStop периодическая очистка работает по таймеру и корректно останавливается
func TestSweeper_StartStop(t *testing.T) {
	clock := newFakeClock()
	store := repository.NewLinkStore(repository.WithClock(clock.Now))

	_, err := store.Create("https://example.com/a", "u1", 1, time.Second)
	require.NoError(t, err)
	clock.Advance(time.Second)

	sweeper := service.NewSweeper(store, nil, 10*time.Millisecond, nil).WithClock(clock.Now)
	sweeper.Start()
	sweeper.Start() // повторный запуск ничего не делает

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	sweeper.Stop()
	sweeper.Stop()
}
