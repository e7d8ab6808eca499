package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncapp "github.com/marketsync/backend/internal/application/sync"
	"github.com/marketsync/backend/internal/domain/reconcile"
	"github.com/marketsync/backend/internal/infrastructure/cache"
	"github.com/marketsync/backend/internal/infrastructure/config"
	"github.com/marketsync/backend/internal/infrastructure/erp"
	"github.com/marketsync/backend/internal/infrastructure/images"
	"github.com/marketsync/backend/internal/infrastructure/llm"
	"github.com/marketsync/backend/internal/infrastructure/logger"
	"github.com/marketsync/backend/internal/infrastructure/marketplace"
	"github.com/marketsync/backend/internal/infrastructure/persistence"
	"github.com/marketsync/backend/internal/infrastructure/scheduler"
	"github.com/marketsync/backend/internal/interfaces/http/handler"
	"github.com/marketsync/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting marketsync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("store", cfg.App.Store),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	listings := persistence.NewGormListingRepository(db.DB)
	properties := persistence.NewGormPropertiesRepository(db.DB)
	runs := persistence.NewGormRunRepository(db.DB)
	refCatalog := persistence.NewGormReferenceCatalog(db.DB)

	// Marketplace token cache: Redis when configured, in-memory otherwise.
	var tokens cache.TokenCache
	if cfg.Redis.Host != "" {
		redisCache, err := cache.NewRedisTokenCache(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory token cache", zap.Error(err))
			tokens = cache.NewMemoryTokenCache()
		} else {
			defer func() {
				_ = redisCache.Close()
			}()
			tokens = redisCache
		}
	} else {
		tokens = cache.NewMemoryTokenCache()
	}

	erpClient := erp.NewClient(cfg.ERP, log)
	gateway := marketplace.NewClient(cfg.Marketplace, tokens, log)

	var oracle reconcile.Oracle
	if cfg.Oracle.Enabled {
		oracle = llm.NewOracle(cfg.Oracle, log)
	} else {
		log.Warn("color disambiguation oracle disabled, ambiguous colors will be rejected")
	}

	resolver := reconcile.NewResolver(oracle, cfg.Matching.MinColorConfidence, log)
	chain := reconcile.NewChain(refCatalog, resolver, log)
	driver := reconcile.NewDriver(chain, reconcile.NewAssembler(), log)

	var locator syncapp.ImageLocator
	if cfg.Images.Enabled {
		s3Locator, err := images.NewS3Locator(&cfg.Images, log)
		if err != nil {
			log.Fatal("Failed to initialize image locator", zap.Error(err))
		}
		locator = s3Locator
	} else {
		log.Warn("image hosting disabled, card creation will reject every record")
	}

	syncService := syncapp.NewService(
		syncapp.Settings{
			Store:      cfg.App.Store,
			Warehouses: []string{cfg.ERP.StoreFilter},
		},
		erpClient, gateway, locator, driver,
		listings, properties, runs, log,
	)

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(scheduler.Config{
			CardsInterval:      cfg.Scheduler.CardsInterval,
			PricesInterval:     cfg.Scheduler.PricesInterval,
			QuantitiesInterval: cfg.Scheduler.QuantitiesInterval,
			BackfillInterval:   cfg.Scheduler.BackfillInterval,
		}, syncService, log)
		sched.Start(context.Background())
		defer sched.Stop()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	r := router.NewRouter(engine)
	r.Register(handler.NewSyncHandler(syncService, log)).
		Register(handler.NewCatalogHandler(cfg.App.Store, refCatalog, properties, log)).
		Register(handler.NewSystemHandler(db))
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
