// Package main is the entry point for the fintrack personal finance tracker.
// It wires the ledger and cache databases, the market data client, the
// performance engine and the HTTP API, then runs until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/fintrack/internal/clients/marketdata"
	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/database"
	"github.com/aristath/fintrack/internal/modules/accounts"
	accountshandlers "github.com/aristath/fintrack/internal/modules/accounts/handlers"
	"github.com/aristath/fintrack/internal/modules/cash_flows"
	cashflowshandlers "github.com/aristath/fintrack/internal/modules/cash_flows/handlers"
	"github.com/aristath/fintrack/internal/modules/charts"
	chartshandlers "github.com/aristath/fintrack/internal/modules/charts/handlers"
	"github.com/aristath/fintrack/internal/modules/dividends"
	dividendshandlers "github.com/aristath/fintrack/internal/modules/dividends/handlers"
	"github.com/aristath/fintrack/internal/modules/performance"
	performancehandlers "github.com/aristath/fintrack/internal/modules/performance/handlers"
	"github.com/aristath/fintrack/internal/modules/recurring"
	recurringhandlers "github.com/aristath/fintrack/internal/modules/recurring/handlers"
	"github.com/aristath/fintrack/internal/modules/trading"
	tradinghandlers "github.com/aristath/fintrack/internal/modules/trading/handlers"
	"github.com/aristath/fintrack/internal/pricecache"
	"github.com/aristath/fintrack/internal/reliability"
	"github.com/aristath/fintrack/internal/scheduler"
	"github.com/aristath/fintrack/internal/server"
	"github.com/aristath/fintrack/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting fintrack")

	// Databases: ledger.db is the append-only source of truth, cache.db
	// holds ephemeral price series
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{ledgerDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	// Repositories
	accountRepo := accounts.NewRepository(ledgerDB.Conn(), log)
	tradeRepo := trading.NewTradeRepository(ledgerDB.Conn(), log)
	transactionRepo := cash_flows.NewRepository(ledgerDB.Conn(), log)
	transferRepo := cash_flows.NewTransferRepository(ledgerDB.Conn(), log)
	dividendRepo := dividends.NewRepository(ledgerDB.Conn(), log)
	recurringRepo := recurring.NewRepository(ledgerDB.Conn(), log)
	priceCacheRepo := pricecache.NewRepository(cacheDB.Conn())

	// Market data with read-through price cache
	priceClient := marketdata.NewClient(cfg.PriceAPIBaseURL, cfg.PriceAPIKey, log)
	priceSource := pricecache.NewCachingSource(
		priceClient,
		priceCacheRepo,
		time.Duration(cfg.PriceCacheTTL)*time.Minute,
		log,
	)

	// Services
	performanceService := performance.NewService(
		accountRepo,
		tradeRepo,
		dividendRepo,
		priceSource,
		cfg.BenchmarkSymbol,
		log,
	)
	chartService := charts.NewService(priceSource, log)
	postingJob := recurring.NewPostingJob(recurringRepo, transactionRepo, log)

	// Optional S3 backups
	var backupService *reliability.BackupService
	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(
			cfg.Backup.Endpoint,
			cfg.Backup.Region,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			cfg.Backup.Bucket,
			log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup storage client")
		}
		backupService = reliability.NewBackupService(
			s3Client,
			[]*database.DB{ledgerDB, cacheDB},
			cfg.DataDir,
			cfg.Backup.Retention,
			log,
		)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Cloud backups enabled")
	}

	// Background jobs
	sched := scheduler.New(log)
	// Post due recurring payments shortly after midnight; the job also
	// catches up occurrences missed while the process was down
	if err := sched.AddJob("0 5 0 * * *", postingJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule recurring payment job")
	}
	maintenanceJob := reliability.NewMaintenanceJob([]*database.DB{ledgerDB, cacheDB}, priceCacheRepo, log)
	if err := sched.AddJob("0 0 2 * * *", maintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule maintenance job")
	}
	if backupService != nil {
		backupJob := reliability.NewBackupJob(backupService, log)
		if err := sched.AddJob(cfg.Backup.Schedule, backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule backup job")
		}
	}
	sched.Start()
	defer sched.Stop()

	// Catch up recurring postings missed while down
	if err := sched.RunNow(postingJob); err != nil {
		log.Warn().Err(err).Msg("Recurring payment catch-up run failed")
	}

	systemHandlers := server.NewSystemHandlers(log, cfg.DataDir, []*database.DB{ledgerDB, cacheDB}, backupService)

	srv := server.New(server.Config{
		Log:            log,
		Config:         cfg,
		LedgerDB:       ledgerDB,
		CacheDB:        cacheDB,
		SystemHandlers: systemHandlers,
		Modules: []server.RouteRegistrar{
			accountshandlers.NewHandler(accountRepo, log),
			tradinghandlers.NewHandler(tradeRepo, log),
			cashflowshandlers.NewHandler(transactionRepo, transferRepo, log),
			dividendshandlers.NewHandler(dividendRepo, log),
			recurringhandlers.NewHandler(recurringRepo, postingJob, log),
			performancehandlers.NewHandler(performanceService, log),
			chartshandlers.NewHandler(chartService, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
