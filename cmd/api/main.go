package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/commission-api/api/swagger"
	"github.com/noah-isme/commission-api/internal/app"
	"github.com/noah-isme/commission-api/internal/handler"
	"github.com/noah-isme/commission-api/internal/middleware"
	"github.com/noah-isme/commission-api/internal/models"
	"github.com/noah-isme/commission-api/internal/service"
	"github.com/noah-isme/commission-api/pkg/config"
	"github.com/noah-isme/commission-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/commission-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/commission-api/pkg/middleware/requestid"
)

// @title Commission API
// @version 1.0.0
// @description Commission listings, proposal negotiation and contracts.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "api")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	container, err := app.Build(bootCtx, cfg, logr)
	cancel()
	if err != nil {
		logr.Fatal("failed to build services", zap.Error(err))
	}
	defer container.Close()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, container)

	if cfg.Sweeper.Enabled {
		sweeper := service.NewExpirySweeper(container.Proposals, service.SweeperConfig{
			Interval:   cfg.Sweeper.Interval,
			MaxRetries: 2,
			RetryDelay: 30 * time.Second,
			Logger:     logr.With(zap.String("worker", "expiry-sweeper")),
		})
		go sweeper.Run(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown error", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, c *app.Container) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = max(32<<20, cfg.Uploads.MaxFileSizeBytes*int64(cfg.Proposals.MaxReferenceImages))
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(c.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(c.Metrics))

	checks := map[string]handler.Pinger{"database": c.DB}
	if c.Redis != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() })
	}
	if c.Publisher != nil {
		checks["amqp"] = handler.PingFunc(func(context.Context) error {
			if !c.Publisher.IsConnected() {
				return errors.New("connection closed")
			}
			return nil
		})
	}
	metricsHandler := handler.NewMetricsHandler(c.Metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	references := handler.NewReferenceHandler(c.References)
	r.GET("/references/*key", references.Serve)

	listings := handler.NewListingHandler(c.Listings)
	proposals := handler.NewProposalHandler(c.Proposals, c.Exports, handler.WithMaxUploadSize(cfg.Uploads.MaxFileSizeBytes))
	auth := middleware.JWT(c.Tokens)

	api := r.Group(cfg.APIPrefix)
	api.GET("/listings", middleware.OptionalJWT(c.Tokens), listings.List)
	api.GET("/listings/:id", listings.Get)
	api.GET("/listings/:id/estimate", proposals.Estimate)

	secured := api.Group("", auth)
	secured.POST("/listings", middleware.RequireRoles(models.RoleArtist, models.RoleAdmin), listings.Create)
	secured.PUT("/listings/:id", listings.Update)
	secured.POST("/listings/:id/proposals", proposals.Create)

	secured.GET("/proposals", proposals.List)
	secured.GET("/proposals/export", middleware.RequireRoles(models.RoleArtist), proposals.Export)
	secured.GET("/proposals/:id", proposals.Get)
	secured.PUT("/proposals/:id", proposals.Update)
	secured.GET("/proposals/:id/quote", proposals.Quote)
	secured.POST("/proposals/:id/artist-response", proposals.ArtistRespond)
	secured.POST("/proposals/:id/client-response", proposals.ClientRespond)
	secured.POST("/proposals/:id/finalize", proposals.Finalize)

	admin := secured.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/proposals/expire", proposals.Expire)
	return r
}
