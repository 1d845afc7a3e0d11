package models

import (
	"time"
)

// LinkState состояние короткой ссылки в её жизненном цикле
type LinkState string

const (
	LinkStateActive    LinkState = "active"
	LinkStateExhausted LinkState = "exhausted"
	LinkStateExpired   LinkState = "expired"
)

// Link короткая ссылка с лимитом переходов и временем жизни.
// Изменяемые поля (VisitLimit, VisitCount) трогает только хранилище под своей блокировкой.
type Link struct {
	ID         string        `json:"id"`
	TargetURL  string        `json:"target_url"`
	OwnerID    string        `json:"owner_id"`
	VisitLimit int           `json:"visit_limit"`
	VisitCount int           `json:"visit_count"`
	CreatedAt  time.Time     `json:"created_at"`
	TTL        time.Duration `json:"ttl"`
}

// ExpiresAt момент, начиная с которого ссылка считается истёкшей
func (l *Link) ExpiresAt() time.Time {
	return l.CreatedAt.Add(l.TTL)
}

// IsExpired истекло ли время жизни ссылки к моменту now
func (l *Link) IsExpired(now time.Time) bool {
	return now.Sub(l.CreatedAt) >= l.TTL
}

// CanBeVisited можно ли перейти по ссылке в момент now
func (l *Link) CanBeVisited(now time.Time) bool {
	return l.VisitCount < l.VisitLimit && !l.IsExpired(now)
}

// RecordVisit увеличивает счётчик переходов.
// Вызывающий обязан удерживать блокировку записи и уже проверить CanBeVisited.
func (l *Link) RecordVisit() {
	l.VisitCount++
}

// State возвращает состояние ссылки в момент now. Истечение важнее исчерпания.
func (l *Link) State(now time.Time) LinkState {
	switch {
	case l.IsExpired(now):
		return LinkStateExpired
	case l.VisitCount >= l.VisitLimit:
		return LinkStateExhausted
	default:
		return LinkStateActive
	}
}

// CreateLinkInput входные данные для создания ссылки.
// Нулевые VisitLimit и TTL означают значения из конфигурации.
type CreateLinkInput struct {
	TargetURL  string
	OwnerID    string
	VisitLimit int
	TTL        time.Duration
}

// LinkStats сводка по ссылке для её владельца
type LinkStats struct {
	ID         string    `json:"id"`
	TargetURL  string    `json:"target_url"`
	VisitCount int       `json:"visit_count"`
	VisitLimit int       `json:"visit_limit"`
	State      LinkState `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewLinkStats строит сводку по снимку ссылки
func NewLinkStats(link Link, now time.Time) *LinkStats {
	return &LinkStats{
		ID:         link.ID,
		TargetURL:  link.TargetURL,
		VisitCount: link.VisitCount,
		VisitLimit: link.VisitLimit,
		State:      link.State(now),
		CreatedAt:  link.CreatedAt,
		ExpiresAt:  link.ExpiresAt(),
	}
}
