package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/SergeiKhy/promo-links/internal/config"
	"github.com/SergeiKhy/promo-links/internal/metrics"
	"github.com/SergeiKhy/promo-links/internal/models"
	"github.com/SergeiKhy/promo-links/internal/repository"
	"go.uber.org/zap"
)

// Ошибки сервиса. Все ошибки валидации оборачивают repository.ErrInvalidArgument.
var (
	ErrInvalidURL   = fmt.Errorf("%w: невалидный URL", repository.ErrInvalidArgument)
	ErrSpamDomain   = fmt.Errorf("%w: домен в чёрном списке", repository.ErrInvalidArgument)
	ErrInvalidLimit = fmt.Errorf("%w: невалидный лимит переходов", repository.ErrInvalidArgument)
	ErrInvalidTTL   = fmt.Errorf("%w: невалидное время жизни", repository.ErrInvalidArgument)
)

var urlPattern = regexp.MustCompile(`^https?://[^\s]+$`)

// Чёрный список доменов
var blacklistedDomains = []string{
	"malware.com",
	"phishing.com",
	"spam.com",
}

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	ResolveLink(ctx context.Context, id string) (string, error)
	GetStats(ctx context.Context, id, ownerID string) (*models.LinkStats, error)
	UpdateVisitLimit(ctx context.Context, id, ownerID string, visitLimit int) (*models.LinkStats, error)
	DeleteLink(ctx context.Context, id, ownerID string) error
}

// linkService реализация сервиса ссылок поверх хранилища
type linkService struct {
	store  repository.LinkStore
	events EventEmitter
	limits config.LinksConfig
	logger *zap.Logger
	clock  func() time.Time
}

// ServiceOption настраивает сервис ссылок
type ServiceOption func(*linkService)

// WithServiceClock подменяет источник времени (для тестов)
func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(s *linkService) {
		s.clock = clock
	}
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(
	store repository.LinkStore,
	events EventEmitter,
	limits config.LinksConfig,
	logger *zap.Logger,
	opts ...ServiceOption,
) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &linkService{
		store:  store,
		events: events,
		limits: limits,
		logger: logger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLink создаёт новую короткую ссылку
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	if err := s.validateURL(input.TargetURL); err != nil {
		return nil, err
	}
	if err := s.checkSpamDomain(input.TargetURL); err != nil {
		return nil, err
	}

	visitLimit := input.VisitLimit
	switch {
	case visitLimit < 0:
		return nil, ErrInvalidLimit
	case visitLimit == 0:
		visitLimit = s.limits.DefaultVisitLimit
	}

	ttl := input.TTL
	switch {
	case ttl < 0:
		return nil, ErrInvalidTTL
	case ttl == 0:
		ttl = s.limits.DefaultTTL
	case s.limits.MaxTTL > 0 && ttl > s.limits.MaxTTL:
		ttl = s.limits.MaxTTL
	}

	link, err := s.store.Create(input.TargetURL, input.OwnerID, visitLimit, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	metrics.RecordLinkCreated()
	metrics.SetActiveLinks(s.store.Len())
	s.emit(ctx, models.EventCreated, link)

	return &link, nil
}

// ResolveLink засчитывает переход и возвращает целевой URL
func (s *linkService) ResolveLink(ctx context.Context, id string) (string, error) {
	link, err := s.store.Visit(id, s.clock())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			metrics.RecordResolve(metrics.ResolveNotFound)
		case errors.Is(err, repository.ErrLinkUnavailable):
			metrics.RecordResolve(metrics.ResolveUnavailable)
		}
		return "", err
	}

	metrics.RecordResolve(metrics.ResolveOK)
	if link.VisitCount == link.VisitLimit {
		s.emit(ctx, models.EventExhausted, link)
	}

	return link.TargetURL, nil
}

// GetStats возвращает сводку по ссылке её владельцу
func (s *linkService) GetStats(ctx context.Context, id, ownerID string) (*models.LinkStats, error) {
	link, err := s.store.Get(id, ownerID)
	if err != nil {
		return nil, err
	}
	return models.NewLinkStats(link, s.clock()), nil
}

// UpdateVisitLimit меняет лимит переходов, если ownerID совпадает с владельцем
func (s *linkService) UpdateVisitLimit(ctx context.Context, id, ownerID string, visitLimit int) (*models.LinkStats, error) {
	link, err := s.store.Edit(id, ownerID, visitLimit)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, models.EventLimitChanged, link)
	return models.NewLinkStats(link, s.clock()), nil
}

// DeleteLink удаляет ссылку, если ownerID совпадает с владельцем
func (s *linkService) DeleteLink(ctx context.Context, id, ownerID string) error {
	link, err := s.store.Delete(id, ownerID)
	if err != nil {
		return err
	}

	metrics.SetActiveLinks(s.store.Len())
	s.emit(ctx, models.EventDeleted, link)
	return nil
}

func (s *linkService) emit(ctx context.Context, kind models.EventKind, link models.Link) {
	if s.events == nil {
		return
	}
	// Событие не должно зависеть от отмены запроса
	if err := s.events.Publish(context.WithoutCancel(ctx), models.NewLinkEvent(kind, link, s.clock())); err != nil {
		s.logger.Warn("Не удалось отправить событие",
			zap.String("link_id", link.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

// validateURL проверяет формат URL с помощью регулярного выражения
func (s *linkService) validateURL(raw string) error {
	if !urlPattern.MatchString(raw) {
		return ErrInvalidURL
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		return ErrInvalidURL
	}
	return nil
}

// checkSpamDomain проверяет, не входит ли хост URL в чёрный список
func (s *linkService) checkSpamDomain(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range blacklistedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return ErrSpamDomain
		}
	}
	return nil
}
