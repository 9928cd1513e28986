package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/SergeiKhy/shortlink-analytics/internal/models"
	"github.com/SergeiKhy/shortlink-analytics/internal/repository"
)

// MockStore in-memory хранилище ссылок и кликов. Уникальность кода и каскадное
// удаление кликов ведут себя так же, как в БД.
type MockStore struct {
	mu          sync.RWMutex
	links       []*models.Link
	clicks      []models.Click
	nextLinkID  int64
	nextClickID int64
}

func NewMockStore() *MockStore {
	return &MockStore{nextLinkID: 1, nextClickID: 1}
}

func (s *MockStore) Links() *MockLinkRepository {
	return &MockLinkRepository{store: s}
}

func (s *MockStore) Clicks() *MockClickRepository {
	return &MockClickRepository{store: s}
}

func (s *MockStore) findLocked(code string) int {
	return slices.IndexFunc(s.links, func(l *models.Link) bool { return l.Code == code })
}

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	store *MockStore
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(link.Code) >= 0 {
		return repository.ErrCodeExists
	}

	link.ID = s.nextLinkID
	s.nextLinkID++
	stored := *link
	s.links = append(s.links, &stored)
	return nil
}

func (m *MockLinkRepository) GetByCode(ctx context.Context, code string) (*models.Link, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.findLocked(code)
	if i < 0 {
		return nil, repository.ErrLinkNotFound
	}
	link := *s.links[i]
	return &link, nil
}

func (m *MockLinkRepository) FindByDestination(ctx context.Context, destinationURL string) (*models.Link, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.links {
		if l.DestinationURL == destinationURL && !l.IsCustom {
			link := *l
			return &link, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (m *MockLinkRepository) List(ctx context.Context) ([]models.ListedLink, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, c := range s.clicks {
		counts[c.LinkCode]++
	}

	out := make([]models.ListedLink, 0, len(s.links))
	for _, l := range s.links {
		out = append(out, models.ListedLink{Link: *l, ClickCount: counts[l.Code]})
	}
	return out, nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, code string) (*models.Link, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(code)
	if i < 0 {
		return nil, repository.ErrLinkNotFound
	}
	deleted := *s.links[i]
	s.links = slices.Delete(s.links, i, i+1)
	s.clicks = slices.DeleteFunc(s.clicks, func(c models.Click) bool { return c.LinkCode == code })
	return &deleted, nil
}

// MockClickRepository implements repository.ClickRepository for testing
type MockClickRepository struct {
	store *MockStore

	// Err, если задан, возвращается из Create
	Err         error
	mu          sync.Mutex
	createCalls int
}

func (m *MockClickRepository) Create(ctx context.Context, click *models.Click) error {
	m.mu.Lock()
	m.createCalls++
	err := m.Err
	m.mu.Unlock()
	if err != nil {
		return err
	}

	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(click.LinkCode) < 0 {
		return repository.ErrLinkNotFound
	}

	click.ID = s.nextClickID
	s.nextClickID++
	s.clicks = append(s.clicks, *click)
	return nil
}

func (m *MockClickRepository) ListByCode(ctx context.Context, code string) ([]models.Click, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Click{}
	for _, c := range s.clicks {
		if c.LinkCode == code {
			out = append(out, c)
		}
	}
	// новые первыми, при равном времени по убыванию id
	slices.SortStableFunc(out, func(a, b models.Click) int {
		if cmp := b.ClickedAt.Compare(a.ClickedAt); cmp != 0 {
			return cmp
		}
		return int(b.ID - a.ID)
	})
	return out, nil
}

func (m *MockClickRepository) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[code]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	return link, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cached := *link
	m.cache[link.Code] = &cached
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, code)
	return nil
}

// SequenceGenerator выдаёт коды из заранее заданного списка, затем повторяет последний
type SequenceGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func NewSequenceGenerator(codes ...string) *SequenceGenerator {
	return &SequenceGenerator{codes: codes}
}

func (g *SequenceGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := min(g.calls, len(g.codes)-1)
	g.calls++
	return g.codes[i], nil
}

func (g *SequenceGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

var (
	_ repository.LinkRepository  = (*MockLinkRepository)(nil)
	_ repository.ClickRepository = (*MockClickRepository)(nil)
	_ repository.CacheRepository = (*MockCacheRepository)(nil)
)
