// Package db establishes the gorm connection to the relational store.
package db

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/marineinst/doimint/internal/config"
)

// NewDB opens a connection to the publication store. The schema is owned by
// the store; no migration is run here.
func NewDB(cfg *config.Postgres, log hclog.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)

	gormConfig := &gorm.Config{}
	if log != nil {
		gormConfig.Logger = NewGormLogger(log.Named("gorm"))
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if log != nil {
		log.Info("connected to database",
			"host", cfg.Host,
			"database", cfg.DBName,
		)
	}

	return db, nil
}
