package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mukamba/internal/config"
	"mukamba/internal/database"
	"mukamba/internal/domain/lead"
	"mukamba/internal/logger"
)

const defaultRetentionDays = 180

// lead_cleanup purges leads that have sat in the lost stage longer than
// LOST_RETENTION_DAYS. Meant to run from cron next to the API.
func main() {
	log := logger.New(logger.DefaultConfig())
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	days := defaultRetentionDays
	if v := os.Getenv("LOST_RETENTION_DAYS"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days <= 0 {
			log.Fatal("LOST_RETENTION_DAYS must be a positive integer", zap.String("value", v))
		}
	}

	db, err := database.Connect(cfg.DatabaseURL, log, logger.GormLevel(cfg.LogLevel))
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}

	ctx := context.Background()
	repo := lead.NewRepository(db)
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	purged, err := repo.PurgeLost(ctx, cutoff)
	if err != nil {
		log.Fatal("cleanup failed", zap.Error(err))
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		log.Fatal("count leads failed", zap.Error(err))
	}
	log.Info("lead cleanup completed",
		zap.Int64("purged", purged),
		zap.Time("cutoff", cutoff),
		zap.Any("remaining_by_stage", counts),
	)
}
