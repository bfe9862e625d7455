package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/service"
	"github.com/SergeiKhy/linkpulse/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentageChange(t *testing.T) {
	tests := []struct {
		current, previous int64
		want              float64
	}{
		{0, 0, 0},
		{5, 0, 100},
		{5, 10, -50},
		{15, 10, 50},
		{10, 10, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, service.PercentageChange(tt.current, tt.previous), 0.0001,
			"current=%d previous=%d", tt.current, tt.previous)
	}
}

func TestWeekBounds(t *testing.T) {
	// среда 2024-05-15 13:30 UTC
	now := time.Date(2024, 5, 15, 13, 30, 0, 0, time.UTC)

	thisWeek, lastWeek := service.WeekBounds(now, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), thisWeek)
	assert.Equal(t, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), lastWeek)

	// в воскресенье неделя начинается в тот же день
	sunday := time.Date(2024, 5, 12, 0, 0, 1, 0, time.UTC)
	thisWeek, _ = service.WeekBounds(sunday, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), thisWeek)
}

func TestWeekBounds_Location(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// суббота 22:00 UTC = воскресенье 03:00 в UTC+5
	now := time.Date(2024, 5, 18, 22, 0, 0, 0, time.UTC)

	thisWeek, _ := service.WeekBounds(now, loc)
	assert.Equal(t, time.Date(2024, 5, 19, 0, 0, 0, 0, loc), thisWeek)
}

func TestTopAndNeverClicked(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	counts := []models.LinkClickCount{
		{LinkID: 1, ShortCode: "one", Clicks: 3, CreatedAt: base},
		{LinkID: 2, ShortCode: "two", Clicks: 0, CreatedAt: base.Add(48 * time.Hour)},
		{LinkID: 3, ShortCode: "three", Clicks: 7, CreatedAt: base.Add(time.Hour)},
		{LinkID: 4, ShortCode: "four", Clicks: 3, CreatedAt: base.Add(2 * time.Hour)},
		{LinkID: 5, ShortCode: "five", Clicks: 0, CreatedAt: base.Add(24 * time.Hour)},
	}

	top := service.TopLinks(counts, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "three", top[0].ShortCode)
	assert.Equal(t, "one", top[1].ShortCode, "при равенстве кликов раньше меньший id")
	assert.Equal(t, "four", top[2].ShortCode)

	never := service.NeverClickedLinks(counts, 5)
	require.Len(t, never, 2)
	assert.Equal(t, "five", never[0].ShortCode)
	assert.Equal(t, "2024-01-02", never[0].CreatedAt)
	assert.Equal(t, "two", never[1].ShortCode)
}

func TestTopAndNeverClicked_Empty(t *testing.T) {
	assert.NotNil(t, service.TopLinks(nil, 5))
	assert.Empty(t, service.TopLinks(nil, 5))
	assert.NotNil(t, service.NeverClickedLinks(nil, 5))
}

// TestAnalyticsService_Summarize проверяет сводку на фиксированных часах
func TestAnalyticsService_Summarize(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) // среда
	thisWeek := time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC)
	lastWeek := time.Date(2024, 5, 7, 9, 0, 0, 0, time.UTC)
	older := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	repo := mocks.NewMockAnalyticsRepository()
	repo.Links = []*models.Link{
		{ID: 1, UserID: 1, ShortCode: "a", Type: models.LinkTypeBenign, CreatedAt: thisWeek, Tags: []string{"go"}},
		{ID: 2, UserID: 1, ShortCode: "b", Type: models.LinkTypeBenign, CreatedAt: thisWeek, Tags: []string{"go", "db"}},
		{ID: 3, UserID: 1, ShortCode: "c", Type: models.LinkTypePhishing, CreatedAt: lastWeek, DeletedAt: &now},
		{ID: 4, UserID: 1, ShortCode: "d", Type: models.LinkTypeBenign, CreatedAt: older, ExpiresAt: &older},
		{ID: 5, UserID: 2, ShortCode: "other", Type: models.LinkTypeBenign, CreatedAt: thisWeek},
	}
	repo.Clicks[1] = 4
	repo.Clicks[3] = 9
	repo.Clicks[5] = 100

	svc := service.NewAnalyticsService(repo, time.UTC, func() time.Time { return now }, zap.NewNop())

	summary, err := svc.Summarize(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.Links.Total.Overall)
	assert.Equal(t, int64(2), summary.Links.Total.ThisWeek)
	assert.Equal(t, int64(1), summary.Links.Total.LastWeek)
	assert.InDelta(t, 100.0, summary.Links.Total.PercentageChange.ThisWeek, 0.0001)

	assert.Equal(t, int64(2), summary.Links.Active.Overall)
	assert.Equal(t, int64(1), summary.Links.Expired.Overall)
	assert.Equal(t, int64(1), summary.Links.Archived.Overall)
	assert.Equal(t, int64(1), summary.Links.Archived.LastWeek)
	assert.InDelta(t, -100.0, summary.Links.Archived.PercentageChange.ThisWeek, 0.0001)

	require.Len(t, summary.TopLinks, 4)
	assert.Equal(t, "c", summary.TopLinks[0].ShortCode)
	assert.Equal(t, int64(9), summary.TopLinks[0].Clicks)

	require.Len(t, summary.NeverClickedLinks, 2)
	assert.Equal(t, "d", summary.NeverClickedLinks[0].ShortCode)

	assert.Equal(t, []string{"db", "go"}, summary.Tags.List)
	assert.Equal(t, int64(2), summary.Tags.Usage[1].UsageCount)

	require.Len(t, summary.Type.List, 2)
	assert.Equal(t, models.TypeCount{Type: models.LinkTypeBenign, Count: 3}, summary.Type.List[0])
}
