package storage

import (
	"context"
	"fmt"
	"time"

	"realtycore/internal/config"
	"realtycore/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenPostgres connects with the configured pool settings. Connection
// attempts are retried a bounded number of times so the API can start
// alongside its database container.
func OpenPostgres(ctx context.Context, cfg *config.Config, lg *zap.SugaredLogger) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	tries := cfg.DBConnectTries
	if tries < 1 {
		tries = 1
	}
	var (
		db  *gorm.DB
		err error
	)
	for attempt := 1; attempt <= tries; attempt++ {
		db, err = gorm.Open(postgres.New(postgres.Config{DSN: cfg.DatabaseURL}), &gorm.Config{
			Logger:         logger.Default.LogMode(cfg.DBLogLevel),
			TranslateError: true,
		})
		if err == nil {
			err = ping(ctx, db)
		}
		if err == nil {
			break
		}
		lg.Warnw("db connect failed", "attempt", attempt, "error", err)
		if attempt < tries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.DBConnectWait):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnLifetime)
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
