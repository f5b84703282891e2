package db

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

func NewPostgresService(cfg Config, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "PostgresService")

	connCfg, err := pgx.ParseConfig(cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	sqlDB := stdlib.OpenDB(*connCfg)

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 30 * time.Minute
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	serviceLog.Info("postgres connected",
		"host", connCfg.Host,
		"port", connCfg.Port,
		"database", connCfg.Database,
		"max_open_conns", maxOpen,
	)
	return &Service{db: db, driver: DriverPostgres, log: serviceLog}, nil
}
