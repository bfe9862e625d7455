package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
)

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	nextID int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[int64]*models.User), nextID: 1}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (m *MockUserRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// MockReviewRepository implements repository.ReviewRepository for testing
type MockReviewRepository struct {
	mu      sync.Mutex
	urls    map[string]*models.ReviewedURL
	reviews []models.Review
}

func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{urls: make(map[string]*models.ReviewedURL)}
}

func (m *MockReviewRepository) UpsertURL(ctx context.Context, originalURL string, linkType models.LinkType) (*models.ReviewedURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.urls[originalURL]
	if !ok {
		u = &models.ReviewedURL{ID: int64(len(m.urls) + 1), OriginalURL: originalURL, CreatedAt: time.Now()}
		m.urls[originalURL] = u
	}
	u.Type = linkType
	result := *u
	return &result, nil
}

func (m *MockReviewRepository) CreateReview(ctx context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	review.ID = int64(len(m.reviews) + 1)
	review.CreatedAt = time.Now()
	m.reviews = append(m.reviews, *review)
	return nil
}

func (m *MockReviewRepository) ListReviews(ctx context.Context, page models.Pagination) (*models.Page[models.Review], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := page.Offset()
	if start > len(m.reviews) {
		start = len(m.reviews)
	}
	end := start + page.Limit
	if end > len(m.reviews) {
		end = len(m.reviews)
	}
	items := append([]models.Review(nil), m.reviews[start:end]...)
	return models.NewPage(items, int64(len(m.reviews)), page), nil
}

var (
	_ repository.UserRepository   = (*MockUserRepository)(nil)
	_ repository.ReviewRepository = (*MockReviewRepository)(nil)
	_ repository.LinkRepository   = (*MockLinkRepository)(nil)
	_ repository.CacheRepository  = (*MockCacheRepository)(nil)
	_ repository.ClickRepository  = (*MockClickRepository)(nil)
)
