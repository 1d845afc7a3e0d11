package models

import (
	"time"
)

// EventKind тип события жизненного цикла ссылки
type EventKind string

const (
	EventCreated      EventKind = "created"
	EventExhausted    EventKind = "exhausted"
	EventLimitChanged EventKind = "limit_changed"
	EventDeleted      EventKind = "deleted"
	EventExpired      EventKind = "expired"
)

// LinkEvent событие жизненного цикла ссылки для журнала и подписчиков
type LinkEvent struct {
	ID         int64     `json:"id,omitempty"`
	LinkID     string    `json:"link_id"`
	OwnerID    string    `json:"owner_id"`
	Kind       EventKind `json:"kind"`
	VisitCount int       `json:"visit_count"`
	VisitLimit int       `json:"visit_limit"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewLinkEvent строит событие по снимку ссылки
func NewLinkEvent(kind EventKind, link Link, at time.Time) *LinkEvent {
	return &LinkEvent{
		LinkID:     link.ID,
		OwnerID:    link.OwnerID,
		Kind:       kind,
		VisitCount: link.VisitCount,
		VisitLimit: link.VisitLimit,
		OccurredAt: at,
	}
}
