package repository

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SergeiKhy/promo-links/internal/models"
	"github.com/google/uuid"
)

var (
	ErrLinkNotFound    = errors.New("link not found")
	ErrLinkUnavailable = errors.New("link expired or visit limit reached")
	ErrNotOwner        = errors.New("link belongs to another owner")
	ErrInvalidArgument = errors.New("invalid argument")
)

// maxIDAttempts bounds the retry loop on id collision with a live link.
const maxIDAttempts = 3

// LinkStore is the concurrency-safe registry of short links.
type LinkStore interface {
	Create(targetURL, ownerID string, visitLimit int, ttl time.Duration) (models.Link, error)
	Resolve(id string, now time.Time) (string, error)
	Visit(id string, now time.Time) (models.Link, error)
	Get(id, ownerID string) (models.Link, error)
	Edit(id, ownerID string, visitLimit int) (models.Link, error)
	Delete(id, ownerID string) (models.Link, error)
	Sweep(now time.Time) []models.Link
	Len() int
}

// linkEntry guards the mutable fields of one link. removed is set under mu
// when the entry leaves the index, so a caller that fetched the entry before
// removal observes NotFound instead of a stale record.
type linkEntry struct {
	mu      sync.Mutex
	link    models.Link
	removed bool
}

type linkStore struct {
	mu    sync.RWMutex
	links map[string]*linkEntry
	clock func() time.Time
	newID func() string
}

// StoreOption configures a LinkStore.
type StoreOption func(*linkStore)

// WithClock overrides the time source used for CreatedAt.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *linkStore) {
		s.clock = clock
	}
}

// WithIDGenerator overrides the id source. Ids must stay unpredictable and unique.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *linkStore) {
		s.newID = newID
	}
}

// NewLinkStore creates an empty in-memory link store.
func NewLinkStore(opts ...StoreOption) LinkStore {
	s := &linkStore{
		links: make(map[string]*linkEntry),
		clock: time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *linkStore) Create(targetURL, ownerID string, visitLimit int, ttl time.Duration) (models.Link, error) {
	if targetURL == "" {
		return models.Link{}, fmt.Errorf("%w: empty target url", ErrInvalidArgument)
	}
	if visitLimit <= 0 {
		return models.Link{}, fmt.Errorf("%w: visit limit must be positive, got %d", ErrInvalidArgument, visitLimit)
	}
	if ttl <= 0 {
		return models.Link{}, fmt.Errorf("%w: ttl must be positive, got %s", ErrInvalidArgument, ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID()
		if _, exists := s.links[id]; exists {
			continue
		}

		link := models.Link{
			ID:         id,
			TargetURL:  targetURL,
			OwnerID:    ownerID,
			VisitLimit: visitLimit,
			CreatedAt:  s.clock(),
			TTL:        ttl,
		}
		s.links[id] = &linkEntry{link: link}
		return link, nil
	}

	return models.Link{}, fmt.Errorf("failed to allocate unique link id after %d attempts", maxIDAttempts)
}

func (s *linkStore) Resolve(id string, now time.Time) (string, error) {
	link, err := s.Visit(id, now)
	if err != nil {
		return "", err
	}
	return link.TargetURL, nil
}

// Visit performs the check-and-increment as one critical section on the
// entry and returns the link as it is right after the visit.
func (s *linkStore) Visit(id string, now time.Time) (models.Link, error) {
	entry := s.lookup(id)
	if entry == nil {
		return models.Link{}, ErrLinkNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.removed {
		return models.Link{}, ErrLinkNotFound
	}
	if !entry.link.CanBeVisited(now) {
		return models.Link{}, ErrLinkUnavailable
	}

	entry.link.RecordVisit()
	if entry.link.VisitCount > entry.link.VisitLimit {
		panic(fmt.Sprintf("link %s: visit count %d exceeds limit %d", id, entry.link.VisitCount, entry.link.VisitLimit))
	}

	return entry.link, nil
}

func (s *linkStore) Get(id, ownerID string) (models.Link, error) {
	entry := s.lookup(id)
	if entry == nil {
		return models.Link{}, ErrLinkNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.removed {
		return models.Link{}, ErrLinkNotFound
	}
	if entry.link.OwnerID != ownerID {
		return models.Link{}, ErrNotOwner
	}

	return entry.link, nil
}

func (s *linkStore) Edit(id, ownerID string, visitLimit int) (models.Link, error) {
	if visitLimit <= 0 {
		return models.Link{}, fmt.Errorf("%w: visit limit must be positive, got %d", ErrInvalidArgument, visitLimit)
	}

	entry := s.lookup(id)
	if entry == nil {
		return models.Link{}, ErrLinkNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.removed {
		return models.Link{}, ErrLinkNotFound
	}
	if entry.link.OwnerID != ownerID {
		return models.Link{}, ErrNotOwner
	}
	if visitLimit < entry.link.VisitCount {
		return models.Link{}, fmt.Errorf("%w: visit limit %d is below visit count %d",
			ErrInvalidArgument, visitLimit, entry.link.VisitCount)
	}

	entry.link.VisitLimit = visitLimit
	return entry.link, nil
}

func (s *linkStore) Delete(id, ownerID string) (models.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.links[id]
	if !exists {
		return models.Link{}, ErrLinkNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.link.OwnerID != ownerID {
		return models.Link{}, ErrNotOwner
	}

	entry.removed = true
	delete(s.links, id)
	return entry.link, nil
}

// Sweep removes every link expired at now and returns what was removed.
// Each entry is locked before removal, so a visit in progress finishes first.
func (s *linkStore) Sweep(now time.Time) []models.Link {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []models.Link
	for id, entry := range s.links {
		entry.mu.Lock()
		if entry.link.IsExpired(now) {
			entry.removed = true
			delete(s.links, id)
			removed = append(removed, entry.link)
		}
		entry.mu.Unlock()
	}

	return removed
}

func (s *linkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

func (s *linkStore) lookup(id string) *linkEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.links[id]
}
