package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tonlotto/lottery-indexer/internal/adapter"
	"github.com/tonlotto/lottery-indexer/internal/config"
	"github.com/tonlotto/lottery-indexer/internal/logger"
	"github.com/tonlotto/lottery-indexer/internal/report"
	"github.com/tonlotto/lottery-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

// criticalRatioThreshold is the share of fake plus suspicious records above
// which a full re-parse is recommended
const criticalRatioThreshold = 0.1

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadRevalidateConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "revalidate",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting revalidation of existing lottery data")

	records := store.NewCSVRecordStore(cfg.Sink.CSVPath)
	rows, err := records.ReadAll(ctx)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to read records", zap.Error(err), zap.String("path", cfg.Sink.CSVPath))
	}
	if len(rows) == 0 {
		logger.InfoCtx(ctx, "No records found, nothing to revalidate", zap.String("path", cfg.Sink.CSVPath))
		return
	}

	logger.InfoCtx(ctx, "Analyzing transactions", zap.Int("count", len(rows)))
	result := report.Build(rows, adapter.NewClock())

	if err := result.Write(cfg.ReportPath); err != nil {
		logger.FatalCtx(ctx, "Failed to write report", zap.Error(err), zap.String("path", cfg.ReportPath))
	}

	logger.InfoCtx(ctx, "Validation report complete",
		zap.Int("total", result.TotalTransactions),
		zap.Int("fake", result.FakeTransactions),
		zap.Int("suspicious", result.SuspiciousTransactions),
		zap.Int("low_score", result.LowScoreTransactions),
		zap.Int("issues", len(result.DetailedIssues)),
		zap.String("report_path", cfg.ReportPath))

	if result.CriticalRatio() > criticalRatioThreshold {
		logger.WarnCtx(ctx, "More than 10% of transactions are suspicious or fake, consider a full re-parse")
		logger.Flush(2 * time.Second)
		os.Exit(2)
	}
}
