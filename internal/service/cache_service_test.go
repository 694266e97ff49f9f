package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/commission-api/internal/core/estimate"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

type memoryCache struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.failGet {
		return errors.New("connection refused")
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestCacheServiceEstimateRoundTrip(t *testing.T) {
	repo := newMemoryCache()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()

	_, hit := svc.Estimate(ctx, "artist-1", "listing-1")
	require.False(t, hit)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	window := estimate.Window{BaseDate: base, EarliestDate: base.AddDate(0, 0, 7), LatestDate: base.AddDate(0, 0, 21)}
	svc.StoreEstimate(ctx, "artist-1", "listing-1", window, 0)
	require.Equal(t, time.Minute, repo.ttls["estimate:artist-1:listing-1"])

	cached, hit := svc.Estimate(ctx, "artist-1", "listing-1")
	require.True(t, hit)
	require.True(t, cached.LatestDate.Equal(window.LatestDate))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
}

func TestCacheServiceInvalidateArtistDropsEveryListing(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()
	window := estimate.Window{BaseDate: time.Now().UTC()}

	svc.StoreEstimate(ctx, "artist-1", "listing-1", window, 0)
	svc.StoreEstimate(ctx, "artist-1", "listing-2", window, 0)
	svc.StoreEstimate(ctx, "artist-2", "listing-3", window, 0)

	svc.InvalidateArtist(ctx, "artist-1")
	require.Len(t, repo.entries, 1)
	_, hit := svc.Estimate(ctx, "artist-2", "listing-3")
	require.True(t, hit)

	svc.InvalidateListing(ctx, "artist-2", "listing-3")
	require.Empty(t, repo.entries)
}

func TestCacheServiceDisabledOrFailingIsAMiss(t *testing.T) {
	ctx := context.Background()
	disabled := NewCacheService(newMemoryCache(), nil, time.Minute, nil, false)
	disabled.StoreEstimate(ctx, "artist-1", "listing-1", estimate.Window{}, 0)
	_, hit := disabled.Estimate(ctx, "artist-1", "listing-1")
	require.False(t, hit)

	var nilCache *CacheService
	_, hit = nilCache.Estimate(ctx, "artist-1", "listing-1")
	require.False(t, hit)
	nilCache.InvalidateArtist(ctx, "artist-1")

	repo := newMemoryCache()
	repo.failGet = true
	failing := NewCacheService(repo, nil, time.Minute, nil, true)
	_, hit = failing.Estimate(ctx, "artist-1", "listing-1")
	require.False(t, hit)
}
