// Package sqlite is the durable keyed store for accounts, stakes, tasks and
// the earning log. Every mutation is an atomic single-record
// read-modify-write: account updates are version-checked, and operations
// that touch an account plus a second record (stake creation, stake
// settlement, task completion, referral linking) run in one transaction.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection and implements the domain store interfaces.
type DB struct {
	db *sql.DB
}

// Open creates or opens the database under dir and applies migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, "tonance.db")
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	db := &DB{db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.db.Close()
}

// Migrations returns the schema statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Accounts — the accrual and claim state machine
		`CREATE TABLE IF NOT EXISTS accounts (
			id               TEXT PRIMARY KEY,
			telegram_user_id TEXT NOT NULL UNIQUE,
			username         TEXT NOT NULL UNIQUE,
			role             TEXT NOT NULL DEFAULT 'User',
			role_expiry      TEXT,
			balance          INTEGER NOT NULL DEFAULT 0 CHECK(balance >= 0),
			total_earnings   INTEGER NOT NULL DEFAULT 0,
			game_score       INTEGER NOT NULL DEFAULT 0,
			is_earning       INTEGER NOT NULL DEFAULT 0,
			last_start_time  TEXT,
			last_claim_time  TEXT,
			referred_by      TEXT,
			last_active      TEXT NOT NULL,
			created_at       TEXT NOT NULL,
			version          INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_created ON accounts(created_at)`,

		// Referral links, append-only
		`CREATE TABLE IF NOT EXISTS account_referrals (
			referrer_id TEXT NOT NULL,
			referred_id TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			PRIMARY KEY (referrer_id, referred_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_referrals_referrer ON account_referrals(referrer_id)`,

		// Stakes — settled stakes stay as historical records
		`CREATE TABLE IF NOT EXISTS stakes (
			id            TEXT PRIMARY KEY,
			owner         TEXT NOT NULL,
			principal     INTEGER NOT NULL CHECK(principal > 0),
			period        INTEGER NOT NULL,
			interest_rate REAL NOT NULL,
			end_date      TEXT NOT NULL,
			claimed       INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stakes_owner ON stakes(owner)`,

		// Task catalog
		`CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			topic       TEXT NOT NULL,
			description TEXT NOT NULL,
			image_url   TEXT DEFAULT '',
			link        TEXT NOT NULL,
			points      INTEGER NOT NULL,
			is_active   INTEGER NOT NULL DEFAULT 1,
			expires_at  TEXT,
			created_at  TEXT NOT NULL
		)`,

		// Per-account task completion records
		`CREATE TABLE IF NOT EXISTS account_tasks (
			account_id   TEXT NOT NULL,
			task_id      TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			PRIMARY KEY (account_id, task_id)
		)`,

		// Append-only balance history
		`CREATE TABLE IF NOT EXISTS earning_log (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id    TEXT NOT NULL,
			source        TEXT NOT NULL,
			amount        INTEGER NOT NULL,
			balance_after INTEGER NOT NULL,
			note          TEXT DEFAULT '',
			at            TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_earning_log_account ON earning_log(account_id)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// isUniqueViolation detects a violated UNIQUE or PRIMARY KEY constraint.
// The modernc driver surfaces these only as message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ─── Time Encoding ──────────────────────────────────────────────────────────
// Timestamps are stored as RFC 3339 text in UTC.

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func decodeTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := decodeTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
