package leave

import "context"

// UserID identifies the account that owns periods and a quota.
type UserID string

// PeriodStore persists committed periods per user.
//
// Implementations:
//   - store/memory: in-memory, for tests and development
//   - store/sqlite: default backend
//   - store/postgres: PostgreSQL via pgx
type PeriodStore interface {
	// ListPeriods returns the user's periods ordered by start date ascending.
	// A user with no periods gets an empty slice and no error.
	ListPeriods(ctx context.Context, userID UserID) ([]Period, error)

	// InsertPeriod persists p as given, ID included, and returns the stored record.
	InsertPeriod(ctx context.Context, userID UserID, p Period) (Period, error)

	// DeletePeriod removes one period of the user. Returns ErrPeriodNotFound
	// if the user has no period with that ID.
	DeletePeriod(ctx context.Context, userID UserID, id PeriodID) error
}

// QuotaStore persists one quota record per user, without history.
type QuotaStore interface {
	// GetQuota returns nil, nil when the user never saved a quota.
	GetQuota(ctx context.Context, userID UserID) (*Quota, error)

	UpsertQuota(ctx context.Context, userID UserID, q Quota) error
}

// Store is implemented by backends serving both records.
type Store interface {
	PeriodStore
	QuotaStore
}
