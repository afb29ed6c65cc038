package persistence

import (
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// Open connects to Postgres, configures the connection pool and installs
// query tracing when telemetry is enabled.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: newGormLogger(cfg, log),
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.Database.ConnMaxIdleTime) * time.Minute)

	if cfg.Telemetry.Enabled {
		if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Database.DBName))); err != nil {
			return nil, fmt.Errorf("install gorm tracing: %w", err)
		}
	}

	return db, nil
}

func newGormLogger(cfg *config.Config, log *zap.Logger) gormlogger.Interface {
	l := logger.NewGormLogger(log.Named("gorm"))
	if cfg.App.Env == "development" {
		return l.LogMode(gormlogger.Info)
	}
	return l
}
