package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/promo-links/internal/config"
	"github.com/SergeiKhy/promo-links/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventSink принимает события жизненного цикла ссылок
type EventSink interface {
	Append(ctx context.Context, event *models.LinkEvent) error
}

type PostgresDB struct {
	Pool *pgxpool.Pool
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB config: %w", err)
	}

	// Журнал пишут только воркеры процессора событий, большой пул не нужен
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

// EnsureSchema создаёт таблицу журнала, если её ещё нет
func (db *PostgresDB) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS link_events (
			id          BIGSERIAL PRIMARY KEY,
			link_id     TEXT        NOT NULL,
			owner_id    TEXT        NOT NULL,
			kind        TEXT        NOT NULL,
			visit_count INTEGER     NOT NULL,
			visit_limit INTEGER     NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS link_events_link_id_idx ON link_events (link_id, occurred_at);
	`

	if _, err := db.Pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create link_events table: %w", err)
	}

	return nil
}

func (db *PostgresDB) Close() {
	db.Pool.Close()
}
