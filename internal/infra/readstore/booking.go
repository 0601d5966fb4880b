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

var bookingViewColumns = []string{
	"b.id", "b.user_id", "b.slot_id", "b.vehicle_number", "b.vehicle_model", "b.start_time", "b.end_time",
	"b.total_hours", "b.total_price_minor", "b.status", "b.payment_status", "b.payment_id",
	"b.payment_order_id", "b.payment_failure_reason", "b.created_at", "b.updated_at",
	"s.id", "s.slot_number", "s.state", "s.city", "s.location", "s.address", "s.location_type",
	"s.floor", "s.vehicle_type", "s.price_per_hour_minor",
	"u.id", "u.name", "u.email", "u.phone",
}

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(db db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: db}
}

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	query, args, err := bookingViews().Where(sq.Eq{"b.id": id}).ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build booking query", err)
	}
	v, err := scanBookingView(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return v, nil
}

func (r *BookingReadStore) List(ctx context.Context, filter queries.BookingFilter) ([]*queries.BookingView, error) {
	query, args, err := buildBookingListQuery(filter).ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build booking list query", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	result := make([]*queries.BookingView, 0)
	for rows.Next() {
		v, err := scanBookingView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate bookings", err)
	}
	return result, nil
}

// bookingViews joins slots without the soft-delete filter so history stays readable.
func bookingViews() sq.SelectBuilder {
	return psql.Select(bookingViewColumns...).
		From("bookings b").
		Join("parking_slots s ON s.id = b.slot_id").
		LeftJoin("users u ON u.id = b.user_id")
}

func buildBookingListQuery(f queries.BookingFilter) sq.SelectBuilder {
	q := bookingViews()
	if f.UserID != nil {
		q = q.Where(sq.Eq{"b.user_id": *f.UserID})
	}
	if f.Status != nil {
		q = q.Where(sq.Eq{"b.status": f.Status.String()})
	}
	return q.OrderBy("b.created_at DESC", "b.id DESC")
}

func scanBookingView(row pgx.Row) (*queries.BookingView, error) {
	var (
		v          queries.BookingView
		priceMinor int64
		slotPrice  int64
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
		userID     pgtype.UUID
		userName   pgtype.Text
		userEmail  pgtype.Text
		userPhone  pgtype.Text
	)
	err := row.Scan(
		&v.ID, &v.UserID, &v.SlotID, &v.VehicleNumber, &v.VehicleModel, &v.StartTime, &v.EndTime,
		&v.TotalHours, &priceMinor, &v.Status, &v.PaymentStatus, &v.PaymentID,
		&v.PaymentOrderID, &v.FailureReason, &createdAt, &updatedAt,
		&v.Slot.ID, &v.Slot.SlotNumber, &v.Slot.State, &v.Slot.City, &v.Slot.Location, &v.Slot.Address,
		&v.Slot.LocationType, &v.Slot.Floor, &v.Slot.VehicleType, &slotPrice,
		&userID, &userName, &userEmail, &userPhone,
	)
	if err != nil {
		return nil, err
	}
	v.TotalPrice = money.MustFromMinor(priceMinor)
	v.Slot.PricePerHour = money.MustFromMinor(slotPrice)
	v.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	v.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)
	if id := pgconv.UUIDPtrFromPgtype(userID); id != nil {
		v.User = &queries.UserSummary{
			ID:    *id,
			Name:  userName.String,
			Email: userEmail.String,
			Phone: userPhone.String,
		}
	}
	return &v, nil
}
