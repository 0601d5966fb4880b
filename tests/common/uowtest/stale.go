package uowtest

import (
	"context"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/infra"
	"parking-booking/internal/usecase/shared"
)

// StaleUpdates makes every conditional booking update miss, as it does when
// another writer commits a different state between the read and the write.
// Everything else goes to the wrapped unit of work.
type StaleUpdates struct {
	shared.UnitOfWork
}

func (u StaleUpdates) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.UnitOfWork.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return fn(ctx, staleTx{tx})
	})
}

type staleTx struct {
	shared.Tx
}

func (t staleTx) Bookings() shared.BookingRepository {
	return staleBookings{t.Tx.Bookings()}
}

type staleBookings struct {
	shared.BookingRepository
}

func (staleBookings) Update(context.Context, *booking.Booking, booking.State) error {
	return infra.NewRepoErr(infra.KindStale, "booking state changed")
}
