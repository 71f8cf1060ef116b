/*
Package postgres provides a PostgreSQL-backed leave.Store using pgx.

The schema mirrors store/sqlite with native types: DATE for the period
bounds and NUMERIC for day counts. Day counts cross the driver boundary as
text so half days round-trip exactly through generic.Days.

USAGE:
  pool, err := postgres.Connect(ctx, os.Getenv("DATABASE_URL"))
  store := postgres.New(pool)
  if err := store.Migrate(ctx); err != nil { ... }
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
)

// Store implements leave.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ leave.Store = (*Store)(nil)

// Connect opens a pool sized for a single service instance.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Migrate creates the tables if they do not exist and widens amount columns
// created with a fixed scale.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS vacation_periods (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			type TEXT NOT NULL,
			period_type TEXT NOT NULL DEFAULT 'full',
			working_days NUMERIC NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_vacation_periods_user_start
			ON vacation_periods(user_id, start_date);

		CREATE TABLE IF NOT EXISTS vacation_quotas (
			user_id TEXT PRIMARY KEY,
			vacation NUMERIC NOT NULL,
			rtt NUMERIC NOT NULL,
			previous_year NUMERIC NOT NULL,
			unpaid NUMERIC NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		-- Unconstrained NUMERIC keeps amounts exactly as saved
		ALTER TABLE vacation_periods ALTER COLUMN working_days TYPE NUMERIC;
		ALTER TABLE vacation_quotas
			ALTER COLUMN vacation TYPE NUMERIC,
			ALTER COLUMN rtt TYPE NUMERIC,
			ALTER COLUMN previous_year TYPE NUMERIC,
			ALTER COLUMN unpaid TYPE NUMERIC;
	`)
	return err
}

// =============================================================================
// PERIOD STORE
// =============================================================================

func (s *Store) ListPeriods(ctx context.Context, userID leave.UserID) ([]leave.Period, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, start_date, end_date, type, period_type, working_days::text, COALESCE(description, '')
		FROM vacation_periods
		WHERE user_id = $1
		ORDER BY start_date ASC, created_at ASC`,
		string(userID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := []leave.Period{}
	for rows.Next() {
		var (
			p                  leave.Period
			id, category, gran string
			start, end         time.Time
			workingDays        string
		)
		if err := rows.Scan(&id, &start, &end, &category, &gran, &workingDays, &p.Note); err != nil {
			return nil, err
		}
		if p.WorkingDays, err = generic.ParseDays(workingDays); err != nil {
			return nil, fmt.Errorf("period %s: %w", id, err)
		}
		p.ID = leave.PeriodID(id)
		p.Start = generic.DateOf(start)
		p.End = generic.DateOf(end)
		p.Category = leave.Category(category)
		p.Granularity = leave.Granularity(gran)
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *Store) InsertPeriod(ctx context.Context, userID leave.UserID, p leave.Period) (leave.Period, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vacation_periods
			(id, user_id, start_date, end_date, type, period_type, working_days, description)
		VALUES ($1, $2, $3::date, $4::date, $5, $6, $7::text::numeric, NULLIF($8, ''))`,
		string(p.ID),
		string(userID),
		p.Start.String(),
		p.End.String(),
		string(p.Category),
		string(p.Granularity),
		p.WorkingDays.String(),
		p.Note,
	)
	if err != nil {
		return leave.Period{}, fmt.Errorf("insert period %s: %w", p.ID, err)
	}
	return p, nil
}

func (s *Store) DeletePeriod(ctx context.Context, userID leave.UserID, id leave.PeriodID) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM vacation_periods WHERE id = $1 AND user_id = $2",
		string(id), string(userID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrPeriodNotFound
	}
	return nil
}

// =============================================================================
// QUOTA STORE
// =============================================================================

func (s *Store) GetQuota(ctx context.Context, userID leave.UserID) (*leave.Quota, error) {
	var annual, compTime, carriedOver string
	err := s.pool.QueryRow(ctx,
		"SELECT vacation::text, rtt::text, previous_year::text FROM vacation_quotas WHERE user_id = $1",
		string(userID),
	).Scan(&annual, &compTime, &carriedOver)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *Store) UpsertQuota(ctx context.Context, userID leave.UserID, q leave.Quota) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vacation_quotas (user_id, vacation, rtt, previous_year, unpaid, updated_at)
		VALUES ($1, $2::text::numeric, $3::text::numeric, $4::text::numeric, 0, now())
		ON CONFLICT (user_id) DO UPDATE SET
			vacation = excluded.vacation,
			rtt = excluded.rtt,
			previous_year = excluded.previous_year,
			updated_at = excluded.updated_at`,
		string(userID),
		q.Annual.String(),
		q.CompTime.String(),
		q.CarriedOver.String(),
	)
	return err
}

// Reset deletes all data. Only for demos and tests.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "TRUNCATE vacation_periods, vacation_quotas")
	return err
}
