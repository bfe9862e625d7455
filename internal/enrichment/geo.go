// Package enrichment дополняет клик геоданными по IP и разобранным user-agent.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/config"
	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
	"github.com/ipinfo/go/v2/ipinfo"
	"go.uber.org/zap"
)

// IPInfoClient - часть клиента ipinfo.io, которая нам нужна
type IPInfoClient interface {
	GetIPInfo(ip net.IP) (*ipinfo.Core, error)
}

type GeoLocator interface {
	// LookupIP возвращает nil без ошибки для адресов, которые не геолоцируются
	LookupIP(ctx context.Context, ip string) (*models.GeoInfo, error)
}

type geoLocator struct {
	client   IPInfoClient
	cache    repository.GeoCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewGeoLocator(cfg config.GeoConfig, cache repository.GeoCache, logger *zap.Logger) GeoLocator {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return NewGeoLocatorWithClient(ipinfo.NewClient(httpClient, nil, cfg.IPInfoToken), cache, cfg.CacheTTL, logger)
}

func NewGeoLocatorWithClient(client IPInfoClient, cache repository.GeoCache, cacheTTL time.Duration, logger *zap.Logger) GeoLocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &geoLocator{
		client:   client,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// isPublicIP отсекает приватные, loopback и служебные адреса
func isPublicIP(ip net.IP) bool {
	return ip != nil &&
		!ip.IsPrivate() &&
		!ip.IsLoopback() &&
		!ip.IsUnspecified() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsMulticast()
}

func (g *geoLocator) LookupIP(ctx context.Context, raw string) (*models.GeoInfo, error) {
	ip := net.ParseIP(raw)
	if !isPublicIP(ip) {
		return nil, nil
	}
	key := ip.String()

	if g.cache != nil {
		info, err := g.cache.GetGeo(ctx, key)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			g.logger.Warn("Ошибка чтения гео-кэша", zap.String("ip", key), zap.Error(err))
		}
	}

	type result struct {
		core *ipinfo.Core
		err  error
	}
	done := make(chan result, 1)
	go func() {
		core, err := g.client.GetIPInfo(ip)
		done <- result{core: core, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("ipinfo lookup %s: %w", key, res.err)
	}
	if res.core == nil || res.core.Bogon {
		return nil, nil
	}

	info := geoFromCore(key, res.core)

	if g.cache != nil {
		if err := g.cache.SetGeo(ctx, key, info, g.cacheTTL); err != nil {
			g.logger.Warn("Не удалось сохранить гео-кэш", zap.String("ip", key), zap.Error(err))
		}
	}
	return info, nil
}

func geoFromCore(ip string, core *ipinfo.Core) *models.GeoInfo {
	country := core.CountryName
	if country == "" {
		country = core.Country
	}
	return &models.GeoInfo{
		IP:          ip,
		City:        core.City,
		Region:      core.Region,
		Country:     country,
		CountryCode: core.Country,
		Loc:         core.Location,
		Org:         core.Org,
		Postal:      core.Postal,
		Timezone:    core.Timezone,
	}
}
