package repository

import (
	"context"
	"time"

	"parking-booking/internal/domain/money"
	"parking-booking/internal/domain/slot"
	"parking-booking/internal/infra"
	"parking-booking/internal/infra/db"
	"parking-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const slotColumns = `id, slot_number, state, city, location, address, location_type, floor,
	vehicle_type, price_per_hour_minor, is_available, features, created_at, updated_at, deleted_at`

const (
	insertSlotSQL = `INSERT INTO parking_slots (` + slotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	selectSlotForUpdateSQL = `SELECT ` + slotColumns + ` FROM parking_slots WHERE id = $1 FOR UPDATE`

	updateSlotSQL = `UPDATE parking_slots SET
		slot_number = $2, state = $3, city = $4, location = $5, address = $6,
		location_type = $7, floor = $8, vehicle_type = $9, price_per_hour_minor = $10,
		features = $11, updated_at = $12, deleted_at = $13
		WHERE id = $1`

	setSlotAvailabilitySQL = `UPDATE parking_slots SET is_available = $2, updated_at = $3 WHERE id = $1`
)

type SlotRepository struct {
	db db.DBTX
}

func NewSlotRepository(db db.DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(ctx context.Context, s *slot.ParkingSlot) error {
	a := s.Attributes()
	_, err := r.db.Exec(ctx, insertSlotSQL,
		s.ID(), a.SlotNumber, a.State, a.City, a.Location, a.Address,
		a.LocationType.String(), a.Floor, a.VehicleType.String(), a.PricePerHour.Minor(),
		s.IsAvailable(), a.Features, s.CreatedAt(), s.UpdatedAt(), s.DeletedAt(),
	)
	if err != nil {
		return mapPgErr("failed to create parking slot", err)
	}
	return nil
}

func (r *SlotRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*slot.ParkingSlot, error) {
	s, err := scanSlot(r.db.QueryRow(ctx, selectSlotForUpdateSQL, id))
	if err != nil {
		return nil, mapPgErr("failed to lock parking slot", err)
	}
	return s, nil
}

func (r *SlotRepository) Update(ctx context.Context, s *slot.ParkingSlot) error {
	a := s.Attributes()
	tag, err := r.db.Exec(ctx, updateSlotSQL,
		s.ID(), a.SlotNumber, a.State, a.City, a.Location, a.Address,
		a.LocationType.String(), a.Floor, a.VehicleType.String(), a.PricePerHour.Minor(),
		a.Features, s.UpdatedAt(), s.DeletedAt(),
	)
	if err != nil {
		return mapPgErr("failed to update parking slot", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "parking slot not found")
	}
	return nil
}

func (r *SlotRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool, at time.Time) error {
	tag, err := r.db.Exec(ctx, setSlotAvailabilitySQL, id, available, at)
	if err != nil {
		return mapPgErr("failed to set slot availability", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "parking slot not found")
	}
	return nil
}

func scanSlot(row pgx.Row) (*slot.ParkingSlot, error) {
	var (
		id           uuid.UUID
		attrs        slot.Attributes
		locationType string
		vehicleType  string
		priceMinor   int64
		isAvailable  bool
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
		deletedAt    pgtype.Timestamptz
	)
	err := row.Scan(
		&id, &attrs.SlotNumber, &attrs.State, &attrs.City, &attrs.Location, &attrs.Address,
		&locationType, &attrs.Floor, &vehicleType, &priceMinor, &isAvailable, &attrs.Features,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	attrs.LocationType = slot.LocationType(locationType)
	attrs.VehicleType = slot.VehicleType(vehicleType)
	attrs.PricePerHour = money.MustFromMinor(priceMinor)

	return slot.ReconstructParkingSlot(
		id,
		attrs,
		isAvailable,
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
		pgconv.TimePtrFromPgtype(deletedAt),
	), nil
}
