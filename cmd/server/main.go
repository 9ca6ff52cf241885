// Command server runs the investment-analysis HTTP service and its
// background sync jobs.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clientdata"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clients/coingecko"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clients/fred"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clients/glassnode"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/config"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/database"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/analysis"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/coins"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/conditions"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/scheduler"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/server"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting analysis server")

	marketDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "market.db"),
		Profile: database.ProfileStandard,
		Name:    "market",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open market database")
	}
	defer marketDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{marketDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("db", db.Name()).Msg("Migration failed")
		}
	}

	// Repositories
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	coinRepo := coins.NewRepository(marketDB.Conn(), log)
	analysisRepo := analysis.NewRepository(marketDB.Conn(), log)

	// External API clients, all cache-first through cacheRepo
	coingeckoClient := coingecko.NewClient(cfg.CoinGeckoAPIKey, cacheRepo, log)
	glassnodeClient := glassnode.NewClient(cfg.GlassnodeAPIKey, cacheRepo, log)
	fredClient := fred.NewClient(cfg.FredAPIKey, cacheRepo, log)

	if !glassnodeClient.Enabled() {
		log.Warn().Msg("No Glassnode API key configured, analyses run without on-chain metrics")
	}

	// Services
	conditionsService := conditions.NewService(coingeckoClient, glassnodeClient, fredClient, log)
	analysisService := analysis.NewService(coingeckoClient, fredClient, conditionsService, analysisRepo, log)
	syncService := coins.NewSyncService(coinRepo, coingeckoClient, cfg.TrackedCoins, log)

	// Background jobs
	sched := scheduler.New(log)
	jobs := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.PriceSyncSchedule, syncService},
		{cfg.MacroSyncSchedule, conditions.NewRefreshJob(glassnodeClient, fredClient, coinRepo, log)},
		{cfg.CacheCleanupSchedule, clientdata.NewCleanupJob(cacheRepo, log)},
	}
	for _, j := range jobs {
		if err := sched.AddJob(j.schedule, j.job); err != nil {
			log.Fatal().Err(err).Str("job", j.job.Name()).Msg("Failed to register job")
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:             log,
		Config:          cfg,
		MarketDB:        marketDB,
		CacheDB:         cacheDB,
		AnalysisService: analysisService,
		AnalysisRepo:    analysisRepo,
		CoinRepo:        coinRepo,
		Conditions:      conditionsService,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Warm the coin catalog in the background so the first analysis does
	// not pay the full sync cost.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := syncService.SyncAll(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial coin sync failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("Server error")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
