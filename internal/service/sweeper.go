package service

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/promo-links/internal/metrics"
	"github.com/SergeiKhy/promo-links/internal/models"
	"github.com/SergeiKhy/promo-links/internal/repository"
	"go.uber.org/zap"
)

// Sweeper периодически удаляет истёкшие ссылки из живого хранилища.
// Работает в одной горутине, поэтому два Sweep никогда не идут одновременно.
type Sweeper struct {
	store    repository.LinkStore
	events   EventEmitter
	logger   *zap.Logger
	interval time.Duration
	clock    func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper создаёт sweeper для переданного хранилища
func NewSweeper(store repository.LinkStore, events EventEmitter, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		store:    store,
		events:   events,
		logger:   logger,
		interval: interval,
		clock:    time.Now,
	}
}

// WithClock подменяет источник времени
func (s *Sweeper) WithClock(clock func() time.Time) *Sweeper {
	s.clock = clock
	return s
}

// Start запускает периодическую очистку. Повторный вызов ничего не делает.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("Запуск очистки истёкших ссылок", zap.Duration("interval", s.interval))
	go s.loop(ctx)
}

// Stop останавливает очистку и дожидается выхода из цикла
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.logger.Info("Очистка истёкших ссылок остановлена")
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход очистки и возвращает число удалённых ссылок
func (s *Sweeper) RunOnce(ctx context.Context) int {
	now := s.clock()
	removed := s.store.Sweep(now)

	metrics.RecordSwept(len(removed))
	metrics.SetActiveLinks(s.store.Len())

	if s.events != nil {
		for _, link := range removed {
			if err := s.events.Publish(ctx, models.NewLinkEvent(models.EventExpired, link, now)); err != nil {
				s.logger.Warn("Не удалось отправить событие истечения",
					zap.String("link_id", link.ID),
					zap.Error(err),
				)
			}
		}
	}

	s.logger.Info("Очистка истёкших ссылок выполнена",
		zap.Int("removed", len(removed)),
		zap.Int("remaining", s.store.Len()),
	)

	return len(removed)
}
