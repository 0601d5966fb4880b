package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"log/slog"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/domain/user"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/errs"
	"parking-booking/internal/pkg/metrics"
	"parking-booking/internal/usecase/queries"
	"parking-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type CreateBookingInput struct {
	SlotID        uuid.UUID
	VehicleNumber string
	VehicleModel  string
	StartTime     time.Time
	EndTime       time.Time
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, actor user.Actor, in CreateBookingInput) (*queries.BookingView, error)
	CancelBooking(ctx context.Context, actor user.Actor, bookingID uuid.UUID) (*queries.BookingView, error)
	UpdateBookingStatus(ctx context.Context, actor user.Actor, bookingID uuid.UUID, next booking.Status) (*queries.BookingView, error)
	// TransitionOnTime applies whatever the clock implies for one booking.
	// It is the only path the sweeper uses to move bookings.
	TransitionOnTime(ctx context.Context, bookingID uuid.UUID, now time.Time) (booking.Transition, error)
}

type bookingCommandsImpl struct {
	uow     shared.UnitOfWork
	reads   queries.BookingQueries
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	reads queries.BookingQueries,
	clock clock.Clock,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) BookingCommands {
	return &bookingCommandsImpl{
		uow:     uow,
		reads:   reads,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *bookingCommandsImpl) CreateBooking(ctx context.Context, actor user.Actor, in CreateBookingInput) (*queries.BookingView, error) {
	vehicle, err := booking.NewVehicle(in.VehicleNumber, in.VehicleModel)
	if err != nil {
		return nil, err
	}
	ts, err := booking.NewTimeSlot(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	var created *booking.Booking
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		s, err := tx.Slots().FindByIDForUpdate(ctx, in.SlotID)
		if err != nil {
			return slotRepoErr(err)
		}
		if err := s.EnsureBookable(); err != nil {
			return err
		}

		overlap, err := tx.Bookings().HasOverlap(ctx, s.ID(), ts)
		if err != nil {
			return errs.Wrap(err, "check overlapping bookings")
		}
		if overlap {
			return booking.ErrOverlapConflict
		}

		b, err := booking.NewBooking(actor.ID, s.ID(), vehicle, ts, s.PricePerHour(), now)
		if err != nil {
			return err
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return bookingRepoErr(err, booking.ErrOverlapConflict)
		}
		if s.SetAvailability(false, now) {
			if err := tx.Slots().SetAvailability(ctx, s.ID(), false, now); err != nil {
				return slotRepoErr(err)
			}
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("booking created",
		"booking_id", created.ID(),
		"slot_id", created.SlotID(),
		"user_id", created.UserID(),
		"total_hours", created.TotalHours(),
		"total_price", created.TotalPrice().String())

	return c.reads.GetBookingSystem(ctx, created.ID())
}

func (c *bookingCommandsImpl) CancelBooking(ctx context.Context, actor user.Actor, bookingID uuid.UUID) (*queries.BookingView, error) {
	now := c.clock.Now()
	var from booking.Status
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return bookingRepoErr(err, booking.ErrTerminalState)
		}
		if !actor.CanAccess(b.UserID()) {
			return booking.ErrNotBookingOwner
		}

		expected := b.State()
		if err := b.Cancel(now); err != nil {
			return err
		}
		// losing a race against the sweeper surfaces as a terminal state
		if err := tx.Bookings().Update(ctx, b, expected); err != nil {
			return bookingRepoErr(err, booking.ErrTerminalState)
		}
		from = expected.Status
		return reconcileSlot(ctx, tx, b.SlotID(), now)
	})
	if err != nil {
		return nil, err
	}

	c.recordTransition(bookingID, from, booking.StatusCancelled, shared.SourceUser)
	return c.reads.GetBookingSystem(ctx, bookingID)
}

func (c *bookingCommandsImpl) UpdateBookingStatus(ctx context.Context, actor user.Actor, bookingID uuid.UUID, next booking.Status) (*queries.BookingView, error) {
	if !actor.IsAdmin() {
		return nil, user.ErrAdminRequired
	}

	now := c.clock.Now()
	var (
		from    booking.Status
		changed bool
	)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}

		expected := b.State()
		changed, err = b.ChangeStatus(next, now)
		if err != nil || !changed {
			return err
		}
		if err := tx.Bookings().Update(ctx, b, expected); err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}
		from = expected.Status
		if next.IsTerminal() {
			return reconcileSlot(ctx, tx, b.SlotID(), now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		c.recordTransition(bookingID, from, next, shared.SourceAdmin)
	}
	return c.reads.GetBookingSystem(ctx, bookingID)
}

func (c *bookingCommandsImpl) TransitionOnTime(ctx context.Context, bookingID uuid.UUID, now time.Time) (booking.Transition, error) {
	var (
		applied booking.Transition
		from    booking.Status
		to      booking.Status
	)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		applied = booking.TransitionNone
		b, err := tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}

		expected := b.State()
		t := b.ApplyTimeTransition(now)
		if t == booking.TransitionNone {
			return nil
		}
		if err := tx.Bookings().Update(ctx, b, expected); err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}
		if t == booking.TransitionCompleted {
			if err := reconcileSlot(ctx, tx, b.SlotID(), now); err != nil {
				return err
			}
		}
		applied, from, to = t, expected.Status, b.Status()
		return nil
	})
	if err != nil {
		return booking.TransitionNone, err
	}

	if applied != booking.TransitionNone {
		c.recordTransition(bookingID, from, to, shared.SourceSweeper)
	}
	return applied, nil
}

func (c *bookingCommandsImpl) recordTransition(bookingID uuid.UUID, from, to booking.Status, source shared.TransitionSource) {
	c.metrics.IncTransition(from.String(), to.String(), source.String())
	c.logger.Info("booking status changed",
		"booking_id", bookingID,
		"from", from.String(),
		"to", to.String(),
		"source", source.String())
}
