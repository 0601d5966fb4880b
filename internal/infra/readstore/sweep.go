package readstore

import (
	"context"
	"time"

	"parking-booking/internal/infra"
	"parking-booking/internal/infra/db"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// SweepCandidateStore lists the bookings whose state the clock may change.
type SweepCandidateStore struct {
	db db.DBTX
}

func NewSweepCandidateStore(db db.DBTX) *SweepCandidateStore {
	return &SweepCandidateStore{db: db}
}

// ExpiredActive returns active bookings that ended strictly before now.
func (r *SweepCandidateStore) ExpiredActive(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return r.ids(ctx, "expired bookings", expiredActiveQuery(now))
}

// ConfirmableAt returns paid pending bookings whose interval covers now.
func (r *SweepCandidateStore) ConfirmableAt(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return r.ids(ctx, "confirmable bookings", confirmableQuery(now))
}

func expiredActiveQuery(now time.Time) sq.SelectBuilder {
	return psql.Select("id").From("bookings").
		Where(sq.Eq{"status": activeStatuses}).
		Where(sq.Lt{"end_time": now}).
		OrderBy("end_time", "id")
}

func confirmableQuery(now time.Time) sq.SelectBuilder {
	return psql.Select("id").From("bookings").
		Where(sq.Eq{"status": "pending", "payment_status": "completed"}).
		Where(sq.LtOrEq{"start_time": now}).
		Where(sq.Gt{"end_time": now}).
		OrderBy("start_time", "id")
}

func (r *SweepCandidateStore) ids(ctx context.Context, what string, b sq.SelectBuilder) ([]uuid.UUID, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build query for "+what, err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list "+what, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan "+what, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate "+what, err)
	}
	return ids, nil
}
