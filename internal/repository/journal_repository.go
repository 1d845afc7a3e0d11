package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/promo-links/internal/models"
)

// JournalRepository stores link lifecycle events in Postgres.
type JournalRepository interface {
	EventSink
	ListByLink(ctx context.Context, linkID string, limit int) ([]models.LinkEvent, error)
}

type journalRepository struct {
	db *PostgresDB
}

func NewJournalRepository(db *PostgresDB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) Append(ctx context.Context, event *models.LinkEvent) error {
	query := `
		INSERT INTO link_events (link_id, owner_id, kind, visit_count, visit_limit, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		event.LinkID,
		event.OwnerID,
		string(event.Kind),
		event.VisitCount,
		event.VisitLimit,
		event.OccurredAt,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("failed to append link event: %w", err)
	}

	return nil
}

func (r *journalRepository) ListByLink(ctx context.Context, linkID string, limit int) ([]models.LinkEvent, error) {
	query := `
		SELECT id, link_id, owner_id, kind, visit_count, visit_limit, occurred_at
		FROM link_events
		WHERE link_id = $1
		ORDER BY occurred_at, id
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, linkID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list link events: %w", err)
	}
	defer rows.Close()

	events := []models.LinkEvent{}
	for rows.Next() {
		var event models.LinkEvent
		var kind string
		if err := rows.Scan(
			&event.ID,
			&event.LinkID,
			&event.OwnerID,
			&kind,
			&event.VisitCount,
			&event.VisitLimit,
			&event.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link event: %w", err)
		}
		event.Kind = models.EventKind(kind)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link events: %w", err)
	}

	return events, nil
}
