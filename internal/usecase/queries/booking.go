package queries

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/queries/$GOFILE -package=queriesmock

import (
	"context"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/domain/user"
	"parking-booking/internal/infra"
	"parking-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

type BookingFilter struct {
	UserID *uuid.UUID
	Status *booking.Status
}

// BookingReadStore returns bookings enriched with slot and owner summaries,
// newest first.
type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	List(ctx context.Context, filter BookingFilter) ([]*BookingView, error)
}

type BookingQueries interface {
	GetBooking(ctx context.Context, actor user.Actor, id uuid.UUID) (*BookingView, error)
	// GetBookingSystem skips the ownership check; used for read-after-write.
	GetBookingSystem(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListMyBookings(ctx context.Context, actor user.Actor) ([]*BookingView, error)
	ListAllBookings(ctx context.Context, actor user.Actor, status *booking.Status) ([]*BookingView, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetBooking(ctx context.Context, actor user.Actor, id uuid.UUID) (*BookingView, error) {
	v, err := q.GetBookingSystem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(v.UserID) {
		return nil, booking.ErrNotBookingOwner
	}
	return v, nil
}

func (q *bookingQueriesImpl) GetBookingSystem(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	v, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, errs.Wrap(err, "get booking")
	}
	return v, nil
}

func (q *bookingQueriesImpl) ListMyBookings(ctx context.Context, actor user.Actor) ([]*BookingView, error) {
	uid := actor.ID
	rows, err := q.store.List(ctx, BookingFilter{UserID: &uid})
	if err != nil {
		return nil, errs.Wrap(err, "list user bookings")
	}
	return rows, nil
}

func (q *bookingQueriesImpl) ListAllBookings(ctx context.Context, actor user.Actor, status *booking.Status) ([]*BookingView, error) {
	if !actor.IsAdmin() {
		return nil, user.ErrAdminRequired
	}
	rows, err := q.store.List(ctx, BookingFilter{Status: status})
	if err != nil {
		return nil, errs.Wrap(err, "list bookings")
	}
	return rows, nil
}
