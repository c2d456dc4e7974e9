package sqldb

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/guildforge/internal/store"
)

// OpenDB opens the catalogue database. A postgres:// (or postgresql://) DSN
// selects the pgx driver; anything else is treated as a SQLite file path.
func OpenDB(dsn string) (*sql.DB, error) {
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// A single writer keeps SQLite's lock contention out of the picture;
		// busy_timeout covers the consumer/worker overlap.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA busy_timeout = 5000; PRAGMA journal_mode = WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragmas: %w", err)
		}
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// NewStores creates all catalogue stores over one database handle.
func NewStores(db *sql.DB) *store.Stores {
	return &store.Stores{
		Groups:   NewGroupStore(db),
		Channels: NewChannelStore(db),
		Jobs:     NewJobStore(db),
		Stats:    NewStatsStore(db),
	}
}

// isUniqueViolation matches the duplicate-key errors of both supported
// drivers without importing either's error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || // pgx
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed") || // modernc sqlite
		strings.Contains(msg, "constraint failed: UNIQUE")
}
