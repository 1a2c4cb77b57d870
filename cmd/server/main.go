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
	"github.com/nomena/pharmastock/internal/api"
	"github.com/nomena/pharmastock/internal/cache"
	"github.com/nomena/pharmastock/internal/config"
	"github.com/nomena/pharmastock/internal/migrations"
	"github.com/nomena/pharmastock/internal/repository/postgres"
	"github.com/nomena/pharmastock/internal/service"
	"github.com/nomena/pharmastock/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Ensure schema is up to date
	migrations.Run(db.DB)

	// Initialize dashboard cache (noop when disabled)
	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("dashboard cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	// Initialize repositories
	medicineRepo := postgres.NewMedicineRepository(db)
	entryRepo := postgres.NewEntryRepository(db)
	expeditionRepo := postgres.NewExpeditionRepository(db)
	reportRepo := postgres.NewReportRepository(db)

	// Initialize services
	stockService := service.NewStockService(entryRepo, expeditionRepo)
	medicineService := service.NewMedicineService(medicineRepo, dashboardCache)
	entryService := service.NewEntryService(entryRepo, medicineRepo, dashboardCache)
	expeditionService := service.NewExpeditionService(medicineRepo, entryRepo, expeditionRepo, stockService, dashboardCache)
	dashboardService := service.NewDashboardService(reportRepo, dashboardCache)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		Medicines:   medicineService,
		Entries:     entryService,
		Expeditions: expeditionService,
		Dashboard:   dashboardService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
