package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the audit log at dsn, dispatching between SQLite and
// Postgres by dsn shape. algex only ever wants one audit connection per
// CLI invocation, so this stays a single function rather than a pool of
// named connections.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		if dsn != ":memory:" && dsn != "" {
			if dir := filepath.Dir(dsn); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("audit: create database directory: %w", err)
				}
			}
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("audit: connect: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	return db, nil
}

// Migrate runs the audit log's schema migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&SolveRecord{}, &SubstituteRecord{})
}

// Close releases the audit log's underlying database handle. gorm.DB itself
// has no Close; reach through db.DB() for the underlying *sql.DB.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
