package mocks

import (
	"context"
	"sort"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
)

// MockAnalyticsRepository считает показатели по ссылкам в памяти
type MockAnalyticsRepository struct {
	Links  []*models.Link
	Clicks map[int64]int64 // link_id -> количество кликов
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{Clicks: make(map[int64]int64)}
}

func (m *MockAnalyticsRepository) owned(userID int64) []*models.Link {
	var result []*models.Link
	for _, l := range m.Links {
		if l.UserID == userID {
			result = append(result, l)
		}
	}
	return result
}

func (m *MockAnalyticsRepository) LinkClickCounts(ctx context.Context, userID int64) ([]models.LinkClickCount, error) {
	var counts []models.LinkClickCount
	for _, l := range m.owned(userID) {
		counts = append(counts, models.LinkClickCount{
			LinkID:      l.ID,
			ShortCode:   l.ShortCode,
			OriginalURL: l.OriginalURL,
			CreatedAt:   l.CreatedAt,
			Clicks:      m.Clicks[l.ID],
		})
	}
	return counts, nil
}

func (m *MockAnalyticsRepository) CountLinks(ctx context.Context, filter models.LinkCountFilter) (int64, error) {
	var n int64
	for _, l := range m.owned(filter.UserID) {
		switch filter.Metric {
		case models.MetricActive:
			if l.ExpiresAt != nil || l.DeletedAt != nil {
				continue
			}
		case models.MetricExpired:
			if l.ExpiresAt == nil {
				continue
			}
		case models.MetricArchived:
			if l.DeletedAt == nil {
				continue
			}
		}
		if filter.CreatedFrom != nil && l.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && !l.CreatedAt.Before(*filter.CreatedTo) {
			continue
		}
		n++
	}
	return n, nil
}

func (m *MockAnalyticsRepository) TagUsage(ctx context.Context, userID int64) ([]models.TagUsage, error) {
	usage := make(map[string]int64)
	for _, l := range m.owned(userID) {
		for _, t := range l.Tags {
			usage[t]++
		}
	}

	var result []models.TagUsage
	for name, n := range usage {
		result = append(result, models.TagUsage{TagName: name, UsageCount: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TagName < result[j].TagName })
	return result, nil
}

func (m *MockAnalyticsRepository) TypeDistribution(ctx context.Context, userID int64) ([]models.TypeCount, error) {
	counts := make(map[models.LinkType]int64)
	for _, l := range m.owned(userID) {
		counts[l.Type]++
	}

	var result []models.TypeCount
	for t, n := range counts {
		result = append(result, models.TypeCount{Type: t, Count: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result, nil
}

// MockAdminRepository implements repository.AdminRepository for testing
type MockAdminRepository struct {
	Links       int64
	ClickTotal  int64
	MostClicked []models.LinkClickCount
	Users       models.UserStatistics
	LastLimit   int
}

func (m *MockAdminRepository) TotalLinks(ctx context.Context) (int64, error) {
	return m.Links, nil
}

func (m *MockAdminRepository) TotalClicks(ctx context.Context) (int64, error) {
	return m.ClickTotal, nil
}

func (m *MockAdminRepository) MostClickedLinks(ctx context.Context, limit int) ([]models.LinkClickCount, error) {
	m.LastLimit = limit
	if len(m.MostClicked) > limit {
		return m.MostClicked[:limit], nil
	}
	return m.MostClicked, nil
}

func (m *MockAdminRepository) UserStatistics(ctx context.Context) (*models.UserStatistics, error) {
	stats := m.Users
	return &stats, nil
}

var (
	_ repository.AnalyticsRepository = (*MockAnalyticsRepository)(nil)
	_ repository.AdminRepository     = (*MockAdminRepository)(nil)
)
