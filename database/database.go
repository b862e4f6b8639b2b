package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"feedback-moderation-server/config"
	"feedback-moderation-server/models"
)

// Initialize sets up the database connection and runs migrations
func Initialize(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("connected to database")

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed")

	return db, nil
}

func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Feedback{}); err != nil {
		return err
	}

	// Review queue scans filter on both flags together.
	if !db.Migrator().HasIndex(&models.Feedback{}, "idx_feedback_review_state") {
		if err := db.Exec(
			"CREATE INDEX IF NOT EXISTS idx_feedback_review_state ON feedback (requires_review, is_approved)",
		).Error; err != nil {
			return err
		}
	}
	return nil
}
