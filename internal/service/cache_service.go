package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/commission-api/internal/core/estimate"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService keeps availability windows served to readers. Windows depend
// on the artist's backlog, so entries are keyed by artist and listing and
// dropped whenever either changes. Cache errors never fail a request.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Estimate returns the cached window of a listing, if any.
func (s *CacheService) Estimate(ctx context.Context, artistID, listingID string) (*estimate.Window, bool) {
	if !s.Enabled() {
		return nil, false
	}
	var window estimate.Window
	start := time.Now()
	err := s.repo.Get(ctx, estimateCacheKey(artistID, listingID), &window)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("estimate cache read failed", zap.String("listing_id", listingID), zap.Error(err))
		}
		return nil, false
	}
	return &window, true
}

// StoreEstimate caches a freshly computed window.
func (s *CacheService) StoreEstimate(ctx context.Context, artistID, listingID string, window estimate.Window, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, estimateCacheKey(artistID, listingID), window, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("estimate cache write failed", zap.String("listing_id", listingID), zap.Error(err))
	}
}

// InvalidateListing drops the window of one listing.
func (s *CacheService) InvalidateListing(ctx context.Context, artistID, listingID string) {
	s.invalidate(ctx, estimateCacheKey(artistID, listingID))
}

// InvalidateArtist drops every window of an artist, used when their backlog
// of active contracts changes.
func (s *CacheService) InvalidateArtist(ctx context.Context, artistID string) {
	s.invalidate(ctx, estimateCacheKey(artistID, "*"))
}

func (s *CacheService) invalidate(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("estimate cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func estimateCacheKey(artistID, listingID string) string {
	return fmt.Sprintf("estimate:%s:%s", artistID, listingID)
}
