package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

// NewSQLiteService opens a file-backed SQLite store with foreign keys enforced.
// A single connection serializes writers so concurrent group scopes queue instead of failing with SQLITE_BUSY.
func NewSQLiteService(path string, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "SQLiteService")

	path = strings.TrimSpace(path)
	if path == "" {
		path = "data/lvflow.db"
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	serviceLog.Info("sqlite opened", "path", path)
	return &Service{db: db, driver: DriverSQLite, log: serviceLog}, nil
}

func SQLiteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=1&_busy_timeout=5000"
}
