package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/audit"
	"github.com/garyjia/billing-audit/internal/bill"
	"github.com/garyjia/billing-audit/internal/config"
	"github.com/garyjia/billing-audit/internal/export"
	"github.com/garyjia/billing-audit/internal/extract"
	"github.com/garyjia/billing-audit/internal/models"
	"github.com/garyjia/billing-audit/internal/notify"
	"github.com/garyjia/billing-audit/internal/pdftext"
	"github.com/garyjia/billing-audit/internal/rates"
	"github.com/garyjia/billing-audit/internal/repository"
	"github.com/garyjia/billing-audit/internal/server"
	"github.com/garyjia/billing-audit/internal/service"
	"github.com/garyjia/billing-audit/internal/storage"
	"github.com/garyjia/billing-audit/internal/worker"
	"github.com/garyjia/billing-audit/pkg/database"
	"github.com/garyjia/billing-audit/pkg/logger"
)

func main() {
	// .env values fill in unset variables only; the real environment wins.
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting bill audit server",
		zap.String("config", configPath),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, log)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		log.Fatal("Failed to create upload directory", zap.Error(err))
	}
	if err := os.MkdirAll(cfg.Export.OutputDir, 0o755); err != nil {
		log.Fatal("Failed to create export directory", zap.Error(err))
	}

	runRepo := repository.NewRunRepository(db.DB, log)
	itemRepo := repository.NewItemRepository(db.DB, log)

	table := rates.NewLoader(log).Load(cfg.Rates.SheetPath)
	log.Info("Rate table loaded",
		zap.String("path", cfg.Rates.SheetPath),
		zap.Int("standard_codes", table.Count(models.SchemeStandard)),
		zap.Int("cghs_codes", table.Count(models.SchemeCGHS)))

	provider, err := extract.NewProvider(extract.Config{
		Provider: cfg.Extract.Provider,
		APIKey:   cfg.ExtractAPIKey(),
		Model:    cfg.Extract.Model,
	})
	if err != nil {
		log.Fatal("Failed to initialize extraction provider", zap.Error(err))
	}

	auditor := service.NewAuditor(
		pdftext.NewReader(log),
		bill.NewParser(bill.DefaultConfig(), log),
		extract.NewExtractor(provider, log),
		audit.NewValidator(table, log),
		log,
	)
	auditor.SetExtractLimits(cfg.Extract.Timeout, cfg.Extract.MaxPages)

	svc := service.NewAuditService(db, runRepo, itemRepo, auditor, log)

	if cfg.Lark.Enabled() {
		larkClient := notify.NewClient(notify.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
			ChatID:    cfg.Lark.ChatID,
		}, log)
		svc.SetNotifier(notify.NewNotifier(larkClient, cfg.Lark.ChatID, log))
		log.Info("Lark notifications enabled", zap.String("chat_id", cfg.Lark.ChatID))
	} else {
		log.Info("Lark notifications disabled")
	}

	auditWorker := worker.NewAuditWorker(runRepo, svc, log)
	auditWorker.SetPollInterval(cfg.Worker.PollInterval)
	auditWorker.SetBatchSize(cfg.Worker.BatchSize)
	auditWorker.SetRunTimeout(cfg.Worker.RunTimeout)
	if err := auditWorker.Start(context.Background()); err != nil {
		log.Fatal("Failed to start audit worker", zap.Error(err))
	}

	handlers := server.NewHandlers(
		runRepo,
		itemRepo,
		storage.NewLocalFileStorage(cfg.Storage.UploadDir, log),
		table,
		export.NewExporter(log),
		auditWorker,
		log,
	)

	srv := server.NewServer(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Debug:        cfg.Logger.Level == "debug",
	}, handlers, log)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("Shutdown signal received")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		auditWorker.Stop()
		log.Fatal("HTTP server failed", zap.Error(err))
	}

	auditWorker.Stop()
	log.Info("Server exited successfully")
}
