package models_test

import (
	"testing"
	"time"

	"github.com/SergeiKhy/promo-links/internal/models"
	"github.com/stretchr/testify/assert"
)

var created = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newLink(limit, count int) *models.Link {
	return &models.Link{
		ID:         "abc",
		TargetURL:  "https://example.com/a",
		OwnerID:    "u1",
		VisitLimit: limit,
		VisitCount: count,
		CreatedAt:  created,
		TTL:        100 * time.Second,
	}
}

// TestLink_IsExpired проверяет границу времени жизни
func TestLink_IsExpired(t *testing.T) {
	link := newLink(5, 0)

	assert.False(t, link.IsExpired(created))
	assert.False(t, link.IsExpired(created.Add(99*time.Second)))
	assert.True(t, link.IsExpired(created.Add(100*time.Second)), "ровно TTL уже истекло")
	assert.True(t, link.IsExpired(created.Add(time.Hour)))
	assert.Equal(t, created.Add(100*time.Second), link.ExpiresAt())
}

// TestLink_CanBeVisited проверяет оба условия доступности
func TestLink_CanBeVisited(t *testing.T) {
	tests := []struct {
		name  string
		count int
		at    time.Duration
		want  bool
	}{
		{name: "новая ссылка", count: 0, at: 0, want: true},
		{name: "последний переход", count: 1, at: 10 * time.Second, want: true},
		{name: "лимит исчерпан", count: 2, at: 10 * time.Second, want: false},
		{name: "время истекло", count: 0, at: 100 * time.Second, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := newLink(2, tt.count)
			assert.Equal(t, tt.want, link.CanBeVisited(created.Add(tt.at)))
		})
	}
}

// TestLink_RecordVisit проверяет, что переход увеличивает счётчик ровно на единицу
func TestLink_RecordVisit(t *testing.T) {
	link := newLink(2, 0)

	link.RecordVisit()
	assert.Equal(t, 1, link.VisitCount)
	assert.Equal(t, models.LinkStateActive, link.State(created))

	link.RecordVisit()
	assert.Equal(t, 2, link.VisitCount)
	assert.Equal(t, models.LinkStateExhausted, link.State(created))
	assert.False(t, link.CanBeVisited(created))
}

// TestLink_State проверяет, что истечение важнее исчерпания
func TestLink_State(t *testing.T) {
	link := newLink(1, 1)
	assert.Equal(t, models.LinkStateExhausted, link.State(created))
	assert.Equal(t, models.LinkStateExpired, link.State(created.Add(time.Hour)))

	stats := models.NewLinkStats(*link, created.Add(time.Hour))
	assert.Equal(t, models.LinkStateExpired, stats.State)
	assert.Equal(t, 1, stats.VisitCount)
	assert.Equal(t, link.ExpiresAt(), stats.ExpiresAt)
}

func TestNewLinkEvent(t *testing.T) {
	link := newLink(3, 1)
	event := models.NewLinkEvent(models.EventLimitChanged, *link, created)

	assert.Equal(t, "abc", event.LinkID)
	assert.Equal(t, "u1", event.OwnerID)
	assert.Equal(t, models.EventLimitChanged, event.Kind)
	assert.Equal(t, 1, event.VisitCount)
	assert.Equal(t, 3, event.VisitLimit)
	assert.Equal(t, created, event.OccurredAt)
}
