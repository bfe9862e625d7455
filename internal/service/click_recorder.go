package service

import (
	"context"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/enrichment"
	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
	"go.uber.org/zap"
)

// ClickRecorder сохраняет клик вместе с отпечатком user-agent
type ClickRecorder interface {
	// Record возвращает false, если ни геоданные, ни user-agent ничего не дали
	// и клик не записан
	Record(ctx context.Context, linkID int64, ip, userAgent string) (bool, error)
}

type clickRecorder struct {
	clickRepo  repository.ClickRepository
	geo        enrichment.GeoLocator
	uaParser   enrichment.UserAgentParser
	geoTimeout time.Duration
	logger     *zap.Logger
}

func NewClickRecorder(
	clickRepo repository.ClickRepository,
	geo enrichment.GeoLocator,
	uaParser enrichment.UserAgentParser,
	geoTimeout time.Duration,
	logger *zap.Logger,
) ClickRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &clickRecorder{
		clickRepo:  clickRepo,
		geo:        geo,
		uaParser:   uaParser,
		geoTimeout: geoTimeout,
		logger:     logger,
	}
}

func (r *clickRecorder) Record(ctx context.Context, linkID int64, ip, userAgent string) (bool, error) {
	geo := r.lookup(ctx, ip)
	ua := r.uaParser.Parse(userAgent)

	if geo.IsEmpty() && ua.IsEmpty() {
		r.logger.Debug("Клик без геоданных и user-agent пропущен", zap.Int64("link_id", linkID))
		return false, nil
	}

	click := &models.Click{
		LinkID:    linkID,
		IP:        ip,
		Timestamp: time.Now().UTC(),
	}
	if geo != nil {
		click.City = geo.City
		click.Region = geo.Region
		click.Country = geo.Country
		click.CountryCode = geo.CountryCode
		click.Loc = geo.Loc
		click.Org = geo.Org
		click.Postal = geo.Postal
		click.Timezone = geo.Timezone
	}

	if err := r.clickRepo.RecordClick(ctx, click, ua); err != nil {
		return false, err
	}
	return true, nil
}

// lookup ошибки и таймауты геолокации означают "нет данных"
func (r *clickRecorder) lookup(ctx context.Context, ip string) *models.GeoInfo {
	if r.geo == nil || ip == "" {
		return nil
	}

	if r.geoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.geoTimeout)
		defer cancel()
	}

	info, err := r.geo.LookupIP(ctx, ip)
	if err != nil {
		r.logger.Debug("Геолокация недоступна", zap.String("ip", ip), zap.Error(err))
		return nil
	}
	return info
}
