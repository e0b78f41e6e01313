package main

import (
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/ather123970/aalacomputer-sub003/config"
	httpDelivery "github.com/ather123970/aalacomputer-sub003/internal/delivery/http"
	"github.com/ather123970/aalacomputer-sub003/internal/domain"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/cache"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/reachability"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/rulebook"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/sqlite"
	"github.com/ather123970/aalacomputer-sub003/internal/usecase"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting product normalization API",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port))

	// Rule tables are compiled once; any problem stops startup.
	book, err := rulebook.Load(cfg.Rules.Path)
	if err != nil {
		logger.Fatal("Failed to load rulebook", zap.String("path", cfg.Rules.Path), zap.Error(err))
	}
	tables, err := usecase.NewTables(book)
	if err != nil {
		logger.Fatal("Failed to compile rulebook", zap.Error(err))
	}
	logger.Info("Rulebook loaded",
		zap.String("rulebook_version", tables.Version),
		zap.Int("category_rules", tables.Rules.Len(domain.AxisCategory)),
		zap.Int("brand_rules", tables.Rules.Len(domain.AxisBrand)),
		zap.Int("brands", tables.Brands.Len()))

	pipeline := usecase.NewPipeline(tables, logger.Named("pipeline"))

	// Initialize infrastructure dependencies
	store, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal("Failed to open product store", zap.String("path", cfg.Store.Path), zap.Error(err))
	}
	defer store.Close()

	memoryCache := cache.NewMemoryCache(0)
	defer memoryCache.Close()

	checker := reachability.NewClient(reachability.Config{
		PublicDir:         cfg.Images.PublicDir,
		Timeout:           cfg.Reachability.Timeout,
		RequestsPerSecond: cfg.Reachability.RequestsPerSecond,
		Burst:             cfg.Reachability.Burst,
		MaxRetries:        cfg.Reachability.MaxRetries,
	}, logger.Named("reachability"))

	verifier := usecase.NewImageVerifier(memoryCache, checker, usecase.ImageVerifierConfig{
		CacheTTL:    cfg.Reachability.CacheTTL,
		Concurrency: cfg.Pipeline.Workers,
	}, logger.Named("verifier"))

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(pipeline, httpDelivery.HandlerOptions{
		Products: store,
		Verifier: verifier,
		Workers:  cfg.Pipeline.Workers,
	}, logger.Named("http"))

	router := httpDelivery.SetupRouter(cfg, handler, logger.Named("http"))

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
