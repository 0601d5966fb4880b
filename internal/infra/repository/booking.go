package repository

import (
	"context"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/domain/money"
	"parking-booking/internal/infra"
	"parking-booking/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, user_id, slot_id, vehicle_number, vehicle_model, start_time, end_time,
	total_hours, total_price_minor, status, payment_status, payment_id, payment_order_id,
	payment_failure_reason, created_at, updated_at`

// activeStatusPredicate must stay in sync with the exclusion constraint.
const activeStatusPredicate = `status IN ('pending', 'confirmed')`

const (
	insertBookingSQL = `INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	selectBookingSQL = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	// conditional on the state the caller read
	updateBookingSQL = `UPDATE bookings SET
		status = $2, payment_status = $3, payment_id = $4, payment_order_id = $5,
		payment_failure_reason = $6, updated_at = $7
		WHERE id = $1 AND status = $8 AND payment_status = $9`

	overlapSQL = `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE slot_id = $1 AND ` + activeStatusPredicate + `
		  AND start_time < $3 AND end_time > $2)`

	activeCoveringSQL = `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE slot_id = $1 AND ` + activeStatusPredicate + `
		  AND start_time <= $2 AND end_time > $2)`

	activeEndingAfterSQL = `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE slot_id = $1 AND ` + activeStatusPredicate + ` AND end_time > $2)`
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(db db.DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	rec := b.Record()
	_, err := r.db.Exec(ctx, insertBookingSQL,
		rec.ID, rec.UserID, rec.SlotID, rec.VehicleNumber, rec.VehicleModel,
		rec.StartTime, rec.EndTime, rec.TotalHours, rec.TotalPrice.Minor(),
		rec.Status.String(), rec.PaymentStatus.String(), rec.PaymentID, rec.PaymentOrderID,
		rec.FailureReason, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return mapPgErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, selectBookingSQL, id))
	if err != nil {
		return nil, mapPgErr("failed to find booking", err)
	}
	return b, nil
}

func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking, expected booking.State) error {
	rec := b.Record()
	tag, err := r.db.Exec(ctx, updateBookingSQL,
		rec.ID, rec.Status.String(), rec.PaymentStatus.String(), rec.PaymentID,
		rec.PaymentOrderID, rec.FailureReason, rec.UpdatedAt,
		expected.Status.String(), expected.PaymentStatus.String(),
	)
	if err != nil {
		return mapPgErr("failed to update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindStale, "booking changed since it was read")
	}
	return nil
}

func (r *BookingRepository) HasOverlap(ctx context.Context, slotID uuid.UUID, ts booking.TimeSlot) (bool, error) {
	return r.exists(ctx, "failed to check booking overlap", overlapSQL, slotID, ts.Start(), ts.End())
}

func (r *BookingRepository) HasActiveCovering(ctx context.Context, slotID uuid.UUID, at time.Time) (bool, error) {
	return r.exists(ctx, "failed to check covering bookings", activeCoveringSQL, slotID, at)
}

func (r *BookingRepository) HasActiveEndingAfter(ctx context.Context, slotID uuid.UUID, at time.Time) (bool, error) {
	return r.exists(ctx, "failed to check upcoming bookings", activeEndingAfterSQL, slotID, at)
}

func (r *BookingRepository) exists(ctx context.Context, msg, query string, args ...any) (bool, error) {
	var found bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		return false, mapPgErr(msg, err)
	}
	return found, nil
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		rec           booking.Record
		priceMinor    int64
		status        string
		paymentStatus string
	)
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.SlotID, &rec.VehicleNumber, &rec.VehicleModel,
		&rec.StartTime, &rec.EndTime, &rec.TotalHours, &priceMinor,
		&status, &paymentStatus, &rec.PaymentID, &rec.PaymentOrderID,
		&rec.FailureReason, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.TotalPrice = money.MustFromMinor(priceMinor)
	rec.Status = booking.Status(status)
	rec.PaymentStatus = booking.PaymentStatus(paymentStatus)
	return booking.ReconstructBooking(rec), nil
}
