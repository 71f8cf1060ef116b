/*
Package sqlite provides a SQLite-backed leave.Store.

KEY TABLES:
  vacation_periods: committed leave periods, one row per period
  vacation_quotas:  one quota row per user, upserted in place

FIELD SHAPES:
  Dates are ISO calendar strings (YYYY-MM-DD), the category and granularity
  are their short tags, and working_days is a decimal string so half days
  round-trip exactly. The unpaid column of vacation_quotas is kept at 0 for
  compatibility; unpaid leave is uncapped.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The read-modify-write cycle of an
  admission is serialized by leave.Planner, not here.

WAL MODE:
  File databases are opened with WAL so readers don't block the writer.
  ":memory:" databases are pinned to one connection, since every new
  connection would otherwise see its own empty database.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  planner := leave.NewPlanner(store, store, logger)

SEE ALSO:
  - leave/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
  - store/postgres: PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
)

// Store implements leave.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ leave.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vacation_periods (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		type TEXT NOT NULL,
		period_type TEXT NOT NULL DEFAULT 'full',
		working_days TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	-- Listing a user's periods by start date (hot path)
	CREATE INDEX IF NOT EXISTS idx_vacation_periods_user_start
		ON vacation_periods(user_id, start_date);

	CREATE TABLE IF NOT EXISTS vacation_quotas (
		user_id TEXT PRIMARY KEY,
		vacation TEXT NOT NULL,
		rtt TEXT NOT NULL,
		previous_year TEXT NOT NULL,
		unpaid TEXT NOT NULL DEFAULT '0',
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PERIOD STORE
// =============================================================================

// ListPeriods returns the user's periods ordered by start date, then insertion.
func (s *Store) ListPeriods(ctx context.Context, userID leave.UserID) ([]leave.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, type, period_type, working_days, description
		FROM vacation_periods
		WHERE user_id = ?
		ORDER BY start_date ASC, created_at ASC, rowid ASC`,
		string(userID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := []leave.Period{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// InsertPeriod stores p under userID.
func (s *Store) InsertPeriod(ctx context.Context, userID leave.UserID, p leave.Period) (leave.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vacation_periods
			(id, user_id, start_date, end_date, type, period_type, working_days, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID),
		string(userID),
		p.Start.String(),
		p.End.String(),
		string(p.Category),
		string(p.Granularity),
		p.WorkingDays.String(),
		nullString(p.Note),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return leave.Period{}, fmt.Errorf("insert period %s: %w", p.ID, err)
	}
	return p, nil
}

// DeletePeriod removes the period if userID owns it.
func (s *Store) DeletePeriod(ctx context.Context, userID leave.UserID, id leave.PeriodID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM vacation_periods WHERE id = ? AND user_id = ?",
		string(id), string(userID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrPeriodNotFound
	}
	return nil
}

func scanPeriod(rows *sql.Rows) (leave.Period, error) {
	var (
		p                                  leave.Period
		id, start, end, category, gran, wd string
		note                               sql.NullString
	)
	if err := rows.Scan(&id, &start, &end, &category, &gran, &wd, &note); err != nil {
		return leave.Period{}, err
	}

	var err error
	if p.Start, err = generic.ParseDate(start); err != nil {
		return leave.Period{}, fmt.Errorf("period %s: %w", id, err)
	}
	if p.End, err = generic.ParseDate(end); err != nil {
		return leave.Period{}, fmt.Errorf("period %s: %w", id, err)
	}
	if p.WorkingDays, err = generic.ParseDays(wd); err != nil {
		return leave.Period{}, fmt.Errorf("period %s: %w", id, err)
	}
	p.ID = leave.PeriodID(id)
	p.Category = leave.Category(category)
	p.Granularity = leave.Granularity(gran)
	p.Note = note.String
	return p, nil
}

// =============================================================================
// QUOTA STORE
// =============================================================================

// GetQuota returns nil, nil when the user has no quota row.
func (s *Store) GetQuota(ctx context.Context, userID leave.UserID) (*leave.Quota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var annual, compTime, carriedOver string
	err := s.db.QueryRowContext(ctx,
		"SELECT vacation, rtt, previous_year FROM vacation_quotas WHERE user_id = ?",
		string(userID),
	).Scan(&annual, &compTime, &carriedOver)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var q leave.Quota
	if q.Annual, err = generic.ParseDays(annual); err != nil {
		return nil, err
	}
	if q.CompTime, err = generic.ParseDays(compTime); err != nil {
		return nil, err
	}
	if q.CarriedOver, err = generic.ParseDays(carriedOver); err != nil {
		return nil, err
	}
	return &q, nil
}

// UpsertQuota replaces the user's quota row.
func (s *Store) UpsertQuota(ctx context.Context, userID leave.UserID, q leave.Quota) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO vacation_quotas (user_id, vacation, rtt, previous_year, unpaid, updated_at)
		VALUES (?, ?, ?, ?, '0', ?)
		ON CONFLICT(user_id) DO UPDATE SET
			vacation = excluded.vacation,
			rtt = excluded.rtt,
			previous_year = excluded.previous_year,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		string(userID),
		q.Annual.String(),
		q.CompTime.String(),
		q.CarriedOver.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset deletes all data. Only for demos and tests.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM vacation_periods; DELETE FROM vacation_quotas;")
	return err
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
