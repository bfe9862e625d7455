package service

import (
	"context"
	"sort"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
	"go.uber.org/zap"
)

const summaryListSize = 5

type AnalyticsService interface {
	Summarize(ctx context.Context, ownerID int64) (*models.AnalyticsSummary, error)
}

type analyticsService struct {
	repo   repository.AnalyticsRepository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewAnalyticsService: loc задаёт часовой пояс, в котором начинается неделя
func NewAnalyticsService(repo repository.AnalyticsRepository, loc *time.Location, now func() time.Time, logger *zap.Logger) AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &analyticsService{repo: repo, loc: loc, now: now, logger: logger}
}

func (s *analyticsService) Summarize(ctx context.Context, ownerID int64) (*models.AnalyticsSummary, error) {
	counts, err := s.repo.LinkClickCounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	links, err := s.linkMetrics(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	usage, err := s.repo.TagUsage(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	tags := models.TagSummary{List: make([]string, 0, len(usage)), Usage: make([]models.TagUsage, 0, len(usage))}
	for _, u := range usage {
		tags.List = append(tags.List, u.TagName)
		tags.Usage = append(tags.Usage, u)
	}

	types, err := s.repo.TypeDistribution(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []models.TypeCount{}
	}

	return &models.AnalyticsSummary{
		TopLinks:          TopLinks(counts, summaryListSize),
		NeverClickedLinks: NeverClickedLinks(counts, summaryListSize),
		Links:             *links,
		Tags:              tags,
		Type:              models.TypeSummary{List: types},
	}, nil
}

func (s *analyticsService) linkMetrics(ctx context.Context, ownerID int64) (*models.LinkMetrics, error) {
	thisWeekStart, lastWeekStart := WeekBounds(s.now(), s.loc)

	metric := func(m models.LinkMetric) (models.WeeklyMetric, error) {
		var wm models.WeeklyMetric
		var err error

		wm.Overall, err = s.repo.CountLinks(ctx, models.LinkCountFilter{UserID: ownerID, Metric: m})
		if err != nil {
			return wm, err
		}
		wm.ThisWeek, err = s.repo.CountLinks(ctx, models.LinkCountFilter{
			UserID: ownerID, Metric: m, CreatedFrom: &thisWeekStart,
		})
		if err != nil {
			return wm, err
		}
		wm.LastWeek, err = s.repo.CountLinks(ctx, models.LinkCountFilter{
			UserID: ownerID, Metric: m, CreatedFrom: &lastWeekStart, CreatedTo: &thisWeekStart,
		})
		if err != nil {
			return wm, err
		}

		wm.PercentageChange.ThisWeek = PercentageChange(wm.ThisWeek, wm.LastWeek)
		return wm, nil
	}

	var (
		metrics models.LinkMetrics
		err     error
	)
	if metrics.Total, err = metric(models.MetricTotal); err != nil {
		return nil, err
	}
	if metrics.Active, err = metric(models.MetricActive); err != nil {
		return nil, err
	}
	if metrics.Expired, err = metric(models.MetricExpired); err != nil {
		return nil, err
	}
	if metrics.Archived, err = metric(models.MetricArchived); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// WeekBounds возвращает начало текущей недели (воскресенье 00:00 в loc)
// и начало предыдущей
func WeekBounds(now time.Time, loc *time.Location) (thisWeek, lastWeek time.Time) {
	local := now.In(loc)
	thisWeek = time.Date(local.Year(), local.Month(), local.Day()-int(local.Weekday()), 0, 0, 0, 0, loc)
	lastWeek = thisWeek.AddDate(0, 0, -7)
	return thisWeek, lastWeek
}

// PercentageChange изменение current относительно previous в процентах
func PercentageChange(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// TopLinks: самые кликаемые ссылки, при равенстве - меньший id раньше
func TopLinks(counts []models.LinkClickCount, limit int) []models.TopLink {
	sorted := append([]models.LinkClickCount(nil), counts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Clicks != sorted[j].Clicks {
			return sorted[i].Clicks > sorted[j].Clicks
		}
		return sorted[i].LinkID < sorted[j].LinkID
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	top := make([]models.TopLink, 0, len(sorted))
	for _, c := range sorted {
		top = append(top, models.TopLink{ShortCode: c.ShortCode, Clicks: c.Clicks, OriginalURL: c.OriginalURL})
	}
	return top
}

// NeverClickedLinks: ссылки без кликов в порядке создания
func NeverClickedLinks(counts []models.LinkClickCount, limit int) []models.NeverClickedLink {
	var zero []models.LinkClickCount
	for _, c := range counts {
		if c.Clicks == 0 {
			zero = append(zero, c)
		}
	}
	sort.SliceStable(zero, func(i, j int) bool {
		if !zero[i].CreatedAt.Equal(zero[j].CreatedAt) {
			return zero[i].CreatedAt.Before(zero[j].CreatedAt)
		}
		return zero[i].LinkID < zero[j].LinkID
	})

	if len(zero) > limit {
		zero = zero[:limit]
	}
	result := make([]models.NeverClickedLink, 0, len(zero))
	for _, c := range zero {
		result = append(result, models.NeverClickedLink{
			ShortCode:   c.ShortCode,
			OriginalURL: c.OriginalURL,
			CreatedAt:   c.CreatedAt.UTC().Format(time.DateOnly),
		})
	}
	return result
}
