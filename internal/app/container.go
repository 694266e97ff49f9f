// Package app wires configuration into the concrete repositories and
// services shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/commission-api/internal/repository"
	"github.com/noah-isme/commission-api/internal/service"
	"github.com/noah-isme/commission-api/pkg/cache"
	"github.com/noah-isme/commission-api/pkg/config"
	"github.com/noah-isme/commission-api/pkg/database"
	"github.com/noah-isme/commission-api/pkg/mq"
	"github.com/noah-isme/commission-api/pkg/storage"
)

// Container holds the long-lived dependencies of a process.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	DB        *sqlx.DB
	Redis     *redis.Client
	Publisher *mq.Publisher

	Metrics    *service.MetricsService
	Cache      *service.CacheService
	Tokens     *service.TokenVerifier
	References *service.ReferenceService
	Listings   *service.ListingService
	Proposals  *service.ProposalService
	Exports    *service.ExportService
}

// Build connects to the configured backends and constructs the services.
// Redis and AMQP are optional: a failed connection is logged and the
// feature runs disabled.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c := &Container{Config: cfg, Logger: logger, DB: db, Metrics: service.NewMetricsService()}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, estimate cache disabled", zap.Error(err))
		} else {
			c.Redis = client
		}
	}
	cacheRepo := repository.NewCacheRepository(c.Redis, logger)
	c.Cache = service.NewCacheService(cacheRepo, c.Metrics, cfg.Redis.EstimateCacheTTL, logger, c.Redis != nil)

	var publisher service.EventPublisher
	if cfg.Events.Enabled {
		p, err := mq.NewPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			logger.Warn("amqp unavailable, proposal events disabled", zap.Error(err))
		} else {
			c.Publisher = p
			publisher = p
		}
	}
	events := service.NewEventEmitter(publisher, c.Metrics, logger)

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init reference storage: %w", err)
	}
	c.References = service.NewReferenceService(store, service.ReferenceConfig{
		MaxFileSize:   cfg.Uploads.MaxFileSizeBytes,
		MaxImages:     cfg.Proposals.MaxReferenceImages,
		AllowedMIMEs:  cfg.Uploads.AllowedMIMEs,
		PublicBaseURL: cfg.PublicBaseURL,
	}, logger)

	listingRepo := repository.NewListingRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	contractRepo := repository.NewContractRepository(db)

	c.Tokens = service.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	c.Listings = service.NewListingService(listingRepo, c.Cache, nil, logger)
	c.Proposals = service.NewProposalService(proposalRepo, listingRepo, contractRepo, db,
		service.WithExpiryThreshold(cfg.Proposals.ExpiryThreshold),
		service.WithReferences(c.References),
		service.WithEstimateCache(c.Cache, cfg.Redis.EstimateCacheTTL),
		service.WithEvents(events),
		service.WithMetrics(c.Metrics),
		service.WithLogger(logger),
	)
	c.Exports = service.NewExportService(c.Proposals, listingRepo, logger, nil, nil)
	return c, nil
}

// Close releases every backend connection.
func (c *Container) Close() {
	if c.Publisher != nil {
		c.Publisher.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("close postgres", zap.Error(err))
		}
	}
}
