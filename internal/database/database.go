// Package database provides the sqlite3 archive store for go-nntparc.
package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"github.com/go-while/go-nntparc/internal/config"
)

// Database wraps the sqlite connection pool for the archive store.
type Database struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the archive database and applies
// pending migrations.
func Open(cfg *config.DatabaseConfig) (*Database, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_loc=UTC", cfg.Path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database '%s': %w", cfg.Path, err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database '%s': %w", cfg.Path, err)
	}

	db := &Database{db: sqlDB, path: cfg.Path}
	if err := db.applyMigrations(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	log.Printf("[DB] opened archive database at '%s'", cfg.Path)
	return db, nil
}

// Close closes the underlying connection pool.
func (db *Database) Close() error {
	return db.db.Close()
}

// MainDB exposes the raw connection for specialized tools.
func (db *Database) MainDB() *sql.DB {
	return db.db
}
