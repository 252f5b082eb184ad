package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tonlotto/lottery-indexer/internal/adapter"
	"github.com/tonlotto/lottery-indexer/internal/classifier"
	"github.com/tonlotto/lottery-indexer/internal/config"
	"github.com/tonlotto/lottery-indexer/internal/domain"
	"github.com/tonlotto/lottery-indexer/internal/logger"
	"github.com/tonlotto/lottery-indexer/internal/messaging"
	"github.com/tonlotto/lottery-indexer/internal/pipeline"
	"github.com/tonlotto/lottery-indexer/internal/providers/jetstream"
	"github.com/tonlotto/lottery-indexer/internal/providers/toncenter"
	"github.com/tonlotto/lottery-indexer/internal/store"
	"github.com/tonlotto/lottery-indexer/internal/store/schema"
	"github.com/tonlotto/lottery-indexer/internal/validator"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "indexer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Lottery Indexer")

	// The config loader already validated the address
	contract, err := domain.NormalizeAddress(cfg.Lottery.ContractAddress)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to normalize contract address", zap.Error(err))
	}

	// Connect to database when any backend needs it
	var db *gorm.DB
	if cfg.Sink.Kind == "postgres" || cfg.State.Kind == "postgres" {
		db, err = gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
		}
		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime); err != nil {
			logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
		}
		if err := db.AutoMigrate(&schema.LotteryTransaction{}, &schema.KeyValueStore{}); err != nil {
			logger.FatalCtx(ctx, "Failed to migrate database schema", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Connected to database")
	}

	// Initialize stores
	var records store.RecordStore
	switch cfg.Sink.Kind {
	case "postgres":
		records = store.NewPGRecordStore(db)
	default:
		records = store.NewCSVRecordStore(cfg.Sink.CSVPath)
	}
	defer func() {
		if err := records.Close(); err != nil {
			logger.Warn("Failed to close record store", zap.Error(err))
		}
	}()

	var cursor store.CursorStore
	switch cfg.State.Kind {
	case "postgres":
		cursor = store.NewPGCursorStore(db)
	default:
		cursor = store.NewFileCursorStore(cfg.State.Path)
	}

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	httpClient := adapter.NewHTTPClient(cfg.API.Timeout)

	// Initialize trace source
	toncenterClient := toncenter.NewClient(cfg.API.BaseURL, cfg.API.APIKey, httpClient)
	source := toncenter.NewSource(toncenterClient, clockAdapter, contract, cfg.Lottery.PageLimit, cfg.Lottery.PageDelay)

	// Initialize classifier and validator
	cls, err := classifier.New(classifier.Config{
		ContractAddress:    cfg.Lottery.ContractAddress,
		Variant:            cfg.Lottery.Variant,
		ReferralPrecedence: cfg.Lottery.ReferralPrecedence,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create classifier", zap.Error(err))
	}
	val, err := validator.New(cfg.Lottery.ContractAddress)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create validator", zap.Error(err))
	}

	// Initialize NATS publisher when configured
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		natsJS := adapter.NewNatsJetStream()
		publisher, err = jetstream.NewPublisher(jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, natsJS, jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		defer publisher.Close()
		logger.InfoCtx(ctx, "Connected to NATS JetStream")
	}

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	run := pipeline.New(source, cls, val, records, cursor, publisher, contract)

	// Channel for pipeline errors
	errCh := make(chan error, 1)

	go func() {
		written, err := run.Run(ctx)
		if err != nil {
			errCh <- err
			return
		}
		logger.InfoCtx(ctx, "Indexing finished", zap.Int("records_written", written))
		errCh <- nil
	}()

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.ErrorCtx(ctx, err, zap.String("state", string(run.State())))
			logger.Flush(2 * time.Second)
			os.Exit(1)
		}
	}
}
