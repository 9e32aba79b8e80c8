package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/synaptica-ai/mindmeter/pkg/common/config"
	"github.com/synaptica-ai/mindmeter/pkg/common/logger"
	"github.com/synaptica-ai/mindmeter/pkg/common/retry"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectAttempts = 5

var (
	db     *gorm.DB
	dbErr  error
	dbOnce sync.Once
)

// PostgresDSN builds the libpq connection string for cfg.
func PostgresDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.PostgresHost,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresDB,
		cfg.PostgresPort,
		cfg.PostgresSSLMode,
	)
}

// GetPostgres opens the shared connection on first use. Later calls return
// the same handle or the same error.
func GetPostgres(cfg *config.Config) (*gorm.DB, error) {
	dbOnce.Do(func() {
		dbErr = retry.Do(context.Background(), connectAttempts, 500*time.Millisecond, func() error {
			var err error
			db, err = gorm.Open(postgres.Open(PostgresDSN(cfg)), &gorm.Config{
				Logger: gormlogger.Default.LogMode(gormlogger.Warn),
			})
			if err != nil {
				logger.Log.WithError(err).Warn("PostgreSQL not reachable yet")
			}
			return err
		})
		if dbErr != nil {
			db = nil
			logger.Log.WithError(dbErr).Error("Failed to connect to PostgreSQL")
			return
		}

		logger.Log.WithField("host", cfg.PostgresHost).Info("Connected to PostgreSQL")
	})

	return db, dbErr
}

func ClosePostgres() error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
