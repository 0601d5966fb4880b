package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"log/slog"

	"parking-booking/internal/domain/slot"
	"parking-booking/internal/domain/user"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/errs"
	"parking-booking/internal/usecase/queries"
	"parking-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type SlotCommands interface {
	CreateSlot(ctx context.Context, actor user.Actor, attrs slot.Attributes) (*queries.SlotView, error)
	UpdateSlot(ctx context.Context, actor user.Actor, id uuid.UUID, p slot.Patch) (*queries.SlotView, error)
	DeleteSlot(ctx context.Context, actor user.Actor, id uuid.UUID) error
	// OverrideAvailability is the administrative escape hatch for the flag.
	OverrideAvailability(ctx context.Context, actor user.Actor, id uuid.UUID, available bool) (*queries.SlotView, error)
}

type slotCommandsImpl struct {
	uow    shared.UnitOfWork
	reads  queries.SlotQueries
	clock  clock.Clock
	logger *slog.Logger
}

func NewSlotCommands(uow shared.UnitOfWork, reads queries.SlotQueries, clock clock.Clock, logger *slog.Logger) SlotCommands {
	return &slotCommandsImpl{
		uow:    uow,
		reads:  reads,
		clock:  clock,
		logger: logger,
	}
}

func (c *slotCommandsImpl) CreateSlot(ctx context.Context, actor user.Actor, attrs slot.Attributes) (*queries.SlotView, error) {
	if !actor.IsAdmin() {
		return nil, user.ErrAdminRequired
	}
	s, err := slot.NewParkingSlot(attrs, c.clock.Now())
	if err != nil {
		return nil, err
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Slots().Create(ctx, s); err != nil {
			return slotRepoErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("parking slot created", "slot_id", s.ID(), "slot_number", s.SlotNumber(), "city", s.City())
	return c.reads.GetSlot(ctx, s.ID())
}

func (c *slotCommandsImpl) UpdateSlot(ctx context.Context, actor user.Actor, id uuid.UUID, p slot.Patch) (*queries.SlotView, error) {
	if !actor.IsAdmin() {
		return nil, user.ErrAdminRequired
	}

	now := c.clock.Now()
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		s, err := loadLiveSlot(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.Apply(p, now); err != nil {
			return err
		}
		if err := tx.Slots().Update(ctx, s); err != nil {
			return slotRepoErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.reads.GetSlot(ctx, id)
}

func (c *slotCommandsImpl) DeleteSlot(ctx context.Context, actor user.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return user.ErrAdminRequired
	}

	now := c.clock.Now()
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		s, err := loadLiveSlot(ctx, tx, id)
		if err != nil {
			return err
		}
		inUse, err := tx.Bookings().HasActiveEndingAfter(ctx, id, now)
		if err != nil {
			return errs.Wrap(err, "check slot bookings")
		}
		if inUse {
			return slot.ErrSlotInUse
		}
		s.MarkDeleted(now)
		if err := tx.Slots().Update(ctx, s); err != nil {
			return slotRepoErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("parking slot deleted", "slot_id", id)
	return nil
}

func (c *slotCommandsImpl) OverrideAvailability(ctx context.Context, actor user.Actor, id uuid.UUID, available bool) (*queries.SlotView, error) {
	if !actor.IsAdmin() {
		return nil, user.ErrAdminRequired
	}

	now := c.clock.Now()
	var changed bool
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		s, err := loadLiveSlot(ctx, tx, id)
		if err != nil {
			return err
		}
		changed = s.SetAvailability(available, now)
		if !changed {
			return nil
		}
		if err := tx.Slots().SetAvailability(ctx, id, available, now); err != nil {
			return slotRepoErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		c.logger.Warn("slot availability overridden by admin",
			"slot_id", id,
			"available", available,
			"admin_id", actor.ID)
	}
	return c.reads.GetSlot(ctx, id)
}

func loadLiveSlot(ctx context.Context, tx shared.Tx, id uuid.UUID) (*slot.ParkingSlot, error) {
	s, err := tx.Slots().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, slotRepoErr(err)
	}
	if s.IsDeleted() {
		return nil, slot.ErrSlotNotFound
	}
	return s, nil
}
