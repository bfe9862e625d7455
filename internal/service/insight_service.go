package service

import (
	"context"
	"sort"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
)

// Окна фильтра /clicks
var insightWindows = map[string]time.Duration{
	"24h":     24 * time.Hour,
	"7 days":  7 * 24 * time.Hour,
	"28 days": 28 * 24 * time.Hour,
}

type InsightQuery struct {
	UserID    int64
	Filter    string
	StartDate *time.Time
	EndDate   *time.Time
	ShortCode string
}

type InsightService interface {
	Build(ctx context.Context, q InsightQuery) (*models.ClickInsight, error)
}

type insightService struct {
	clickRepo repository.ClickRepository
	now       func() time.Time
}

func NewInsightService(clickRepo repository.ClickRepository, now func() time.Time) InsightService {
	if now == nil {
		now = time.Now
	}
	return &insightService{clickRepo: clickRepo, now: now}
}

// Window определяет границы выборки. Фильтр проверяется всегда,
// но явная пара дат важнее него
func (q InsightQuery) Window(now time.Time) (from, to *time.Time, err error) {
	window, ok := insightWindows[q.Filter]
	if q.Filter != "" && !ok {
		return nil, nil, ErrInvalidFilter
	}

	switch {
	case q.StartDate != nil && q.EndDate != nil:
		from, to = q.StartDate, q.EndDate
	case q.Filter != "":
		start := now.Add(-window)
		from, to = &start, &now
	default:
		from, to = q.StartDate, q.EndDate
	}

	if from != nil && to != nil && from.After(*to) {
		return nil, nil, ErrInvalidRange
	}
	return from, to, nil
}

func (s *insightService) Build(ctx context.Context, q InsightQuery) (*models.ClickInsight, error) {
	from, to, err := q.Window(s.now())
	if err != nil {
		return nil, err
	}

	rows, total, err := s.clickRepo.Insight(ctx, models.ClickQuery{
		UserID:    q.UserID,
		ShortCode: q.ShortCode,
		From:      from,
		To:        to,
	})
	if err != nil {
		return nil, err
	}

	return &models.ClickInsight{
		Click:       models.ClickSeries{Data: DailySeries(rows), TotalClick: total},
		Interaction: Interactions(rows),
	}, nil
}

// DailySeries группирует клики по UTC-дню по возрастанию даты
func DailySeries(rows []models.ClickRow) []models.DailyClicks {
	perDay := make(map[string]int64)
	for _, row := range rows {
		perDay[row.Timestamp.UTC().Format(time.DateOnly)]++
	}

	series := make([]models.DailyClicks, 0, len(perDay))
	for date, n := range perDay {
		series = append(series, models.DailyClicks{Date: date, TotalClicks: n})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

// Interactions считает значения по девяти измерениям, пустые пропускаются
func Interactions(rows []models.ClickRow) models.Interaction {
	in := models.Interaction{
		Location:       map[string]int64{},
		Region:         map[string]int64{},
		Country:        map[string]int64{},
		Browser:        map[string]int64{},
		BrowserVersion: map[string]int64{},
		OS:             map[string]int64{},
		OSVersion:      map[string]int64{},
		CPUArch:        map[string]int64{},
		DeviceType:     map[string]int64{},
	}

	inc := func(m map[string]int64, v string) {
		if v != "" {
			m[v]++
		}
	}
	for _, row := range rows {
		inc(in.Location, row.City)
		inc(in.Region, row.Region)
		inc(in.Country, row.Country)
		inc(in.Browser, row.Browser)
		inc(in.BrowserVersion, row.BrowserVersion)
		inc(in.OS, row.OS)
		inc(in.OSVersion, row.OSVersion)
		inc(in.CPUArch, row.CPUArch)
		inc(in.DeviceType, row.DeviceType)
	}
	return in
}
