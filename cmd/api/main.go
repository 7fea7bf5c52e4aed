package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/vendas-api/internal/application/service"
	"github.com/sangkips/vendas-api/internal/config"
	"github.com/sangkips/vendas-api/internal/domain/pricing"
	domainRepo "github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/sangkips/vendas-api/internal/infrastructure/database"
	"github.com/sangkips/vendas-api/internal/infrastructure/repository"
	"github.com/sangkips/vendas-api/internal/presentation/http/handler"
	"github.com/sangkips/vendas-api/internal/presentation/http/middleware"
	"github.com/sangkips/vendas-api/internal/presentation/http/routes"
	"github.com/sangkips/vendas-api/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	closers := make([]func() error, 0, 2)

	// Tracing
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		log.Printf("Warning: tracing disabled: %v", err)
		shutdownTracer = func(context.Context) error { return nil }
	} else if cfg.Telemetry.Enabled() {
		log.Printf("tracing: exporting to %s", cfg.Telemetry.OTLPEndpoint)
	}

	// Connect to database
	db, err := database.Open(&cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, sqlDB.Close)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed default data
	if err := database.SeedDefaultData(db, cfg.Pricing.PackagingCosts); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}

	policy, err := pricing.NewPolicy(cfg.Pricing)
	if err != nil {
		log.Fatalf("Invalid pricing configuration: %v", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	packagingRepo := repository.NewPackagingRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	var idempotencyRepo domainRepo.IdempotencyRepository = repository.NewIdempotencyRepository(db)
	if cfg.Redis.Enabled() {
		redisRepo := repository.NewRedisIdempotencyRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisRepo.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), storing idempotency keys in the database", err)
			_ = redisRepo.Close()
		} else {
			idempotencyRepo = redisRepo
			closers = append(closers, redisRepo.Close)
			log.Println("idempotency: redis")
		}
	} else {
		log.Println("idempotency: database")
	}

	// Initialize services
	saleService := service.NewSaleService(saleRepo, productRepo, packagingRepo, policy)
	productService := service.NewProductService(productRepo)
	packagingService := service.NewPackagingService(packagingRepo)

	// Initialize handlers
	handlers := &routes.Handlers{
		Sale:      handler.NewSaleHandler(saleService),
		Product:   handler.NewProductHandler(productService),
		Packaging: handler.NewPackagingHandler(packagingService),
	}

	rateLimiter := middleware.NewClientRateLimiter(
		middleware.RateLimiterConfigFrom(cfg.RateLimit.Requests, cfg.RateLimit.Duration))
	defer rateLimiter.Stop()

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
	})

	stopCleanup := make(chan struct{})
	go purgeExpiredKeys(idempotencyRepo, time.Hour, stopCleanup)

	server := &http.Server{
		Addr:              cfg.App.Address(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on %s...", cfg.App.Name, cfg.App.Address())
		log.Printf("Environment: %s", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	close(stopCleanup)

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("tracer shutdown error: %v", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// purgeExpiredKeys drops stale idempotency records until stop is closed.
func purgeExpiredKeys(repo domainRepo.IdempotencyRepository, every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := repo.DeleteExpired(ctx); err != nil {
				log.Printf("Warning: failed to purge idempotency keys: %v", err)
			}
			cancel()
		case <-stop:
			return
		}
	}
}
