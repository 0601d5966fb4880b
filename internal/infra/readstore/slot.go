package readstore

import (
	"context"

	"parking-booking/internal/domain/money"
	"parking-booking/internal/infra"
	"parking-booking/internal/infra/db"
	"parking-booking/internal/pkg/pgconv"
	"parking-booking/internal/usecase/queries"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var slotViewColumns = []string{
	"id", "slot_number", "state", "city", "location", "address", "location_type", "floor",
	"vehicle_type", "price_per_hour_minor", "is_available", "features", "created_at", "updated_at",
}

type SlotReadStore struct {
	db db.DBTX
}

func NewSlotReadStore(db db.DBTX) *SlotReadStore {
	return &SlotReadStore{db: db}
}

func (r *SlotReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.SlotView, error) {
	query, args, err := liveSlots().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build slot query", err)
	}
	v, err := scanSlotView(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("parking slot not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find parking slot", err)
	}
	return v, nil
}

func (r *SlotReadStore) List(ctx context.Context, filter queries.SlotFilter) ([]*queries.SlotView, error) {
	query, args, err := buildSlotListQuery(filter).ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build slot list query", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list parking slots", err)
	}
	defer rows.Close()

	result := make([]*queries.SlotView, 0)
	for rows.Next() {
		v, err := scanSlotView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan parking slot", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate parking slots", err)
	}
	return result, nil
}

func liveSlots() sq.SelectBuilder {
	return psql.Select(slotViewColumns...).From("parking_slots").Where(sq.Eq{"deleted_at": nil})
}

func buildSlotListQuery(f queries.SlotFilter) sq.SelectBuilder {
	q := liveSlots()
	if f.State != "" {
		q = q.Where(sq.Eq{"state": f.State})
	}
	if f.City != "" {
		q = q.Where(sq.Eq{"city": f.City})
	}
	if f.LocationType != nil {
		q = q.Where(sq.Eq{"location_type": f.LocationType.String()})
	}
	if f.VehicleType != nil {
		q = q.Where(sq.Eq{"vehicle_type": f.VehicleType.String()})
	}
	if f.Available != nil {
		q = q.Where(sq.Eq{"is_available": *f.Available})
	}
	return q.OrderBy("created_at DESC", "id DESC")
}

func scanSlotView(row pgx.Row) (*queries.SlotView, error) {
	var (
		v          queries.SlotView
		priceMinor int64
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	err := row.Scan(
		&v.ID, &v.SlotNumber, &v.State, &v.City, &v.Location, &v.Address, &v.LocationType,
		&v.Floor, &v.VehicleType, &priceMinor, &v.IsAvailable, &v.Features, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.PricePerHour = money.MustFromMinor(priceMinor)
	v.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	v.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)
	return &v, nil
}
