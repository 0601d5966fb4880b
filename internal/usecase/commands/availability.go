package commands

import (
	"context"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/domain/slot"
	"parking-booking/internal/infra"
	"parking-booking/internal/pkg/errs"
	"parking-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

// reconcileSlot recomputes the availability flag from the active bookings
// covering now. The slot row is locked first so a concurrent booking cannot
// slip in between the check and the write.
func reconcileSlot(ctx context.Context, tx shared.Tx, slotID uuid.UUID, now time.Time) error {
	s, err := tx.Slots().FindByIDForUpdate(ctx, slotID)
	if err != nil {
		return slotRepoErr(err)
	}
	covered, err := tx.Bookings().HasActiveCovering(ctx, slotID, now)
	if err != nil {
		return errs.Wrap(err, "check active bookings")
	}
	if !s.SetAvailability(!covered, now) {
		return nil
	}
	if err := tx.Slots().SetAvailability(ctx, slotID, s.IsAvailable(), now); err != nil {
		return slotRepoErr(err)
	}
	return nil
}

func slotRepoErr(err error) error {
	switch {
	case infra.IsKind(err, infra.KindNotFound):
		return slot.ErrSlotNotFound
	case infra.IsKind(err, infra.KindDuplicateKey):
		return slot.ErrDuplicateSlot
	default:
		return err
	}
}

// bookingRepoErr maps a failed conditional update to onStale.
func bookingRepoErr(err error, onStale error) error {
	switch {
	case infra.IsKind(err, infra.KindNotFound):
		return booking.ErrBookingNotFound
	case infra.IsKind(err, infra.KindConflict):
		return booking.ErrOverlapConflict
	case infra.IsKind(err, infra.KindStale):
		return onStale
	default:
		return err
	}
}
