package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu     sync.RWMutex
	links  map[int64]*models.Link
	nextID int64

	// LastUpdate последние параметры Update, для проверок диффа тегов
	LastUpdate *repository.UpdateLinkParams
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links:  make(map[int64]*models.Link),
		nextID: 1,
	}
}

func cloneLink(l *models.Link) *models.Link {
	c := *l
	c.Tags = append([]string(nil), l.Tags...)
	if l.UTM != nil {
		u := *l.UTM
		c.UTM = &u
	}
	return &c
}

// codeTaken: код занят другой неархивной ссылкой
func (m *MockLinkRepository) codeTaken(code string, exceptID int64) bool {
	for id, l := range m.links {
		if id != exceptID && l.ShortCode == code && l.DeletedAt == nil {
			return true
		}
	}
	return false
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.codeTaken(link.ShortCode, 0) {
		return repository.ErrCodeExists
	}

	link.ID = m.nextID
	m.nextID++
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	link.UpdatedAt = link.CreatedAt
	if link.Tags == nil {
		link.Tags = []string{}
	}
	m.links[link.ID] = cloneLink(link)
	return nil
}

// Put кладёт ссылку как есть, минуя проверки
func (m *MockLinkRepository) Put(link *models.Link) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if link.ID == 0 {
		link.ID = m.nextID
	}
	if link.ID >= m.nextID {
		m.nextID = link.ID + 1
	}
	m.links[link.ID] = cloneLink(link)
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *models.Link
	for _, l := range m.links {
		if l.ShortCode != code {
			continue
		}
		switch {
		case found == nil:
			found = l
		case found.DeletedAt != nil && l.DeletedAt == nil:
			found = l
		case (found.DeletedAt == nil) == (l.DeletedAt == nil) && l.ID > found.ID:
			found = l
		}
	}
	if found == nil {
		return nil, repository.ErrLinkNotFound
	}
	return cloneLink(found), nil
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id int64) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[id]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return cloneLink(link), nil
}

func (m *MockLinkRepository) FindPage(ctx context.Context, filter models.LinkFilter, page models.Pagination) (*models.Page[models.Link], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	var matched []models.Link
	for _, l := range m.links {
		if filter.UserID != nil && l.UserID != *filter.UserID {
			continue
		}
		if filter.ExcludeUserID != nil && l.UserID == *filter.ExcludeUserID {
			continue
		}
		if filter.Deleted != nil && l.IsArchived() != *filter.Deleted {
			continue
		}
		if filter.Expired != nil && l.IsExpired(now) != *filter.Expired {
			continue
		}
		matched = append(matched, *cloneLink(l))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return models.NewPage(matched[start:end], total, page), nil
}

func (m *MockLinkRepository) Update(ctx context.Context, params repository.UpdateLinkParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.links[params.Link.ID]
	if !exists {
		return repository.ErrLinkNotFound
	}
	if params.Link.ShortCode != stored.ShortCode && m.codeTaken(params.Link.ShortCode, stored.ID) {
		return repository.ErrCodeExists
	}

	p := params
	m.LastUpdate = &p

	stored.ShortCode = params.Link.ShortCode
	stored.ExpiresAt = params.Link.ExpiresAt
	stored.ExpiredRedirectURL = params.Link.ExpiredRedirectURL
	stored.QRCode = params.Link.QRCode
	stored.Comments = params.Link.Comments
	stored.UpdatedAt = time.Now()
	if params.UTM != nil {
		u := *params.UTM
		stored.UTM = &u
	}

	remove := make(map[string]struct{}, len(params.Tags.ToRemove))
	for _, t := range params.Tags.ToRemove {
		remove[t] = struct{}{}
	}
	tags := []string{}
	for _, t := range stored.Tags {
		if _, ok := remove[t]; !ok {
			tags = append(tags, t)
		}
	}
	stored.Tags = append(tags, params.Tags.ToAdd...)
	return nil
}

func (m *MockLinkRepository) SetDeletedAt(ctx context.Context, id int64, at *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.links[id]
	if !exists {
		return repository.ErrLinkNotFound
	}
	if at == nil && m.codeTaken(stored.ShortCode, id) {
		return repository.ErrCodeExists
	}
	stored.DeletedAt = at
	return nil
}

func (m *MockLinkRepository) RemoveUTM(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, exists := m.links[id]; exists {
		stored.UTM = nil
	}
	return nil
}

func (m *MockLinkRepository) ListUserTags(ctx context.Context, userID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	var tags []string
	for _, l := range m.links {
		if l.UserID != userID {
			continue
		}
		for _, t := range l.Tags {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[int64]*models.Link)
	m.nextID = 1
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

func (m *MockCacheRepository) Get(ctx context.Context, key string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[key]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	return cloneLink(link), nil
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, link *models.Link, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = cloneLink(link)
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

func (m *MockCacheRepository) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cache[key]
	return ok
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.Link)
}

// RecordedClick клик вместе с отпечатком, как он ушёл в хранилище
type RecordedClick struct {
	Click     models.Click
	UserAgent models.UserAgent
}

// MockClickRepository implements repository.ClickRepository for testing
type MockClickRepository struct {
	mu     sync.RWMutex
	clicks []RecordedClick

	// Rows строки, которые вернёт Insight (фильтруются по окну и коду)
	Rows []models.ClickRow
	// LastQuery последний запрос Insight
	LastQuery *models.ClickQuery
	// FailTimes сколько первых вызовов RecordClick вернут Err
	FailTimes int
	Err       error
	calls     int
}

func NewMockClickRepository() *MockClickRepository {
	return &MockClickRepository{}
}

func (m *MockClickRepository) RecordClick(ctx context.Context, click *models.Click, ua *models.UserAgent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.calls <= m.FailTimes {
		return m.Err
	}

	ua.ID = int64(len(m.clicks) + 1)
	click.UserAgentID = ua.ID
	click.ID = int64(len(m.clicks) + 1)
	m.clicks = append(m.clicks, RecordedClick{Click: *click, UserAgent: *ua})
	return nil
}

func (m *MockClickRepository) Insight(ctx context.Context, q models.ClickQuery) ([]models.ClickRow, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastQuery = &q
	var rows []models.ClickRow
	for _, r := range m.Rows {
		if q.ShortCode != "" && r.ShortCode != q.ShortCode {
			continue
		}
		if q.From != nil && r.Timestamp.Before(*q.From) {
			continue
		}
		if q.To != nil && r.Timestamp.After(*q.To) {
			continue
		}
		rows = append(rows, r)
	}
	return rows, int64(len(rows)), nil
}

func (m *MockClickRepository) GetStats(ctx context.Context, linkID int64) (int64, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	uniqueIPs := make(map[string]bool)
	for _, rc := range m.clicks {
		if rc.Click.LinkID == linkID {
			total++
			uniqueIPs[rc.Click.IP] = true
		}
	}
	return total, int64(len(uniqueIPs)), nil
}

// Clicks записанные клики
func (m *MockClickRepository) Clicks() []RecordedClick {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedClick(nil), m.clicks...)
}

func (m *MockClickRepository) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *MockClickRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = nil
	m.calls = 0
}
