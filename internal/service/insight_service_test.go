package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/service"
	"github.com/SergeiKhy/linkpulse/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var insightNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func TestInsightQuery_Window(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	t.Run("фильтр 24h", func(t *testing.T) {
		from, to, err := service.InsightQuery{Filter: "24h"}.Window(insightNow)
		require.NoError(t, err)
		assert.Equal(t, insightNow.Add(-24*time.Hour), *from)
		assert.Equal(t, insightNow, *to)
	})

	t.Run("пара дат важнее фильтра", func(t *testing.T) {
		from, to, err := service.InsightQuery{Filter: "24h", StartDate: &start, EndDate: &end}.Window(insightNow)
		require.NoError(t, err)
		assert.Equal(t, start, *from)
		assert.Equal(t, end, *to)
	})

	t.Run("неизвестный фильтр", func(t *testing.T) {
		_, _, err := service.InsightQuery{Filter: "3 days"}.Window(insightNow)
		assert.ErrorIs(t, err, service.ErrInvalidFilter)
		assert.ErrorIs(t, err, service.ErrInvalidArgument)
	})

	t.Run("неизвестный фильтр вместе с парой дат", func(t *testing.T) {
		from, to, err := service.InsightQuery{Filter: "3 days", StartDate: &start, EndDate: &end}.Window(insightNow)
		assert.ErrorIs(t, err, service.ErrInvalidArgument)
		assert.Nil(t, from)
		assert.Nil(t, to)
	})

	t.Run("перевёрнутый интервал", func(t *testing.T) {
		_, _, err := service.InsightQuery{StartDate: &end, EndDate: &start}.Window(insightNow)
		assert.ErrorIs(t, err, service.ErrInvalidRange)
	})

	t.Run("одна граница", func(t *testing.T) {
		from, to, err := service.InsightQuery{StartDate: &start}.Window(insightNow)
		require.NoError(t, err)
		assert.Equal(t, start, *from)
		assert.Nil(t, to)
	})

	t.Run("без ограничений", func(t *testing.T) {
		from, to, err := service.InsightQuery{}.Window(insightNow)
		require.NoError(t, err)
		assert.Nil(t, from)
		assert.Nil(t, to)
	})
}

func TestDailySeries(t *testing.T) {
	rows := []models.ClickRow{
		{Timestamp: time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 3, 9, 1, 0, 0, 0, time.UTC)},
	}

	series := service.DailySeries(rows)
	assert.Equal(t, []models.DailyClicks{
		{Date: "2024-03-08", TotalClicks: 1},
		{Date: "2024-03-09", TotalClicks: 2},
	}, series)

	assert.NotNil(t, service.DailySeries(nil))
}

func TestInteractions_SkipsEmptyValues(t *testing.T) {
	rows := []models.ClickRow{
		{City: "Berlin", Country: "Germany", Browser: "Chrome", DeviceType: "desktop"},
		{City: "Berlin", Country: "Germany", Browser: "Firefox"},
		{Country: "France"},
	}

	in := service.Interactions(rows)
	assert.Equal(t, map[string]int64{"Berlin": 2}, in.Location)
	assert.Equal(t, map[string]int64{"Germany": 2, "France": 1}, in.Country)
	assert.Equal(t, map[string]int64{"Chrome": 1, "Firefox": 1}, in.Browser)
	assert.Equal(t, map[string]int64{"desktop": 1}, in.DeviceType)
	assert.Empty(t, in.OS)
	assert.NotNil(t, in.Region)
}

// TestInsightService_Build: окно 24h отсекает старые клики
func TestInsightService_Build(t *testing.T) {
	clicks := mocks.NewMockClickRepository()
	clicks.Rows = []models.ClickRow{
		{ShortCode: "abc", Timestamp: insightNow.Add(-time.Hour), City: "Oslo", Browser: "Chrome"},
		{ShortCode: "abc", Timestamp: insightNow.Add(-2 * time.Hour), City: "Oslo"},
		{ShortCode: "abc", Timestamp: insightNow.Add(-72 * time.Hour), City: "Rome"},
		{ShortCode: "xyz", Timestamp: insightNow.Add(-time.Hour), City: "Paris"},
	}
	svc := service.NewInsightService(clicks, func() time.Time { return insightNow })

	insight, err := svc.Build(context.Background(), service.InsightQuery{UserID: 1, Filter: "24h", ShortCode: "abc"})
	require.NoError(t, err)

	assert.Equal(t, int64(2), insight.Click.TotalClick)
	assert.Equal(t, []models.DailyClicks{{Date: "2024-03-10", TotalClicks: 2}}, insight.Click.Data)
	assert.Equal(t, map[string]int64{"Oslo": 2}, insight.Interaction.Location)

	require.NotNil(t, clicks.LastQuery)
	assert.Equal(t, int64(1), clicks.LastQuery.UserID)
	assert.Equal(t, timePtr(insightNow.Add(-24*time.Hour)), clicks.LastQuery.From)
}

func TestInsightService_Build_InvalidFilter(t *testing.T) {
	clicks := mocks.NewMockClickRepository()
	svc := service.NewInsightService(clicks, func() time.Time { return insightNow })

	insight, err := svc.Build(context.Background(), service.InsightQuery{Filter: "3 days"})
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	assert.Nil(t, insight)
	assert.Nil(t, clicks.LastQuery)
}
