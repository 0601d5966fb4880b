package queries

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/queries/$GOFILE -package=queriesmock

import (
	"context"

	"parking-booking/internal/domain/slot"
	"parking-booking/internal/infra"
	"parking-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

type SlotFilter struct {
	State        string
	City         string
	LocationType *slot.LocationType
	VehicleType  *slot.VehicleType
	Available    *bool
}

// SlotReadStore lists live (not soft-deleted) slots, newest first.
type SlotReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SlotView, error)
	List(ctx context.Context, filter SlotFilter) ([]*SlotView, error)
}

type SlotQueries interface {
	GetSlot(ctx context.Context, id uuid.UUID) (*SlotView, error)
	ListSlots(ctx context.Context, filter SlotFilter) ([]*SlotView, error)
}

type slotQueriesImpl struct {
	store SlotReadStore
}

func NewSlotQueries(store SlotReadStore) SlotQueries {
	return &slotQueriesImpl{store: store}
}

func (q *slotQueriesImpl) GetSlot(ctx context.Context, id uuid.UUID) (*SlotView, error) {
	v, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, slot.ErrSlotNotFound
		}
		return nil, errs.Wrap(err, "get slot")
	}
	return v, nil
}

func (q *slotQueriesImpl) ListSlots(ctx context.Context, filter SlotFilter) ([]*SlotView, error) {
	rows, err := q.store.List(ctx, filter)
	if err != nil {
		return nil, errs.Wrap(err, "list slots")
	}
	return rows, nil
}
