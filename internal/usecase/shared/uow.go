package shared

import (
	"context"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/domain/slot"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic.
	// fn may run more than once and must not leak state between attempts.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Slots() SlotRepository
	Bookings() BookingRepository
}

type SlotRepository interface {
	Create(ctx context.Context, s *slot.ParkingSlot) error
	// FindByIDForUpdate locks the slot row until the transaction ends.
	// Soft-deleted slots are returned too.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*slot.ParkingSlot, error)
	Update(ctx context.Context, s *slot.ParkingSlot) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool, at time.Time) error
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// Update persists b only if the stored state still equals expected.
	Update(ctx context.Context, b *booking.Booking, expected booking.State) error
	HasOverlap(ctx context.Context, slotID uuid.UUID, ts booking.TimeSlot) (bool, error)
	HasActiveCovering(ctx context.Context, slotID uuid.UUID, at time.Time) (bool, error)
	HasActiveEndingAfter(ctx context.Context, slotID uuid.UUID, at time.Time) (bool, error)
}
