package mocks

import (
	"context"
	"sync"

	"github.com/SergeiKhy/linkpulse/internal/enrichment"
	"github.com/SergeiKhy/linkpulse/internal/models"
)

// MockGeoLocator implements enrichment.GeoLocator for testing
type MockGeoLocator struct {
	mu    sync.Mutex
	Info  *models.GeoInfo
	Err   error
	calls int
}

func (m *MockGeoLocator) LookupIP(ctx context.Context, ip string) (*models.GeoInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Info == nil {
		return nil, nil
	}
	info := *m.Info
	info.IP = ip
	return &info, nil
}

func (m *MockGeoLocator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ enrichment.GeoLocator = (*MockGeoLocator)(nil)
