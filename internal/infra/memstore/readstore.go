package memstore

import (
	"context"
	"slices"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/infra"
	"parking-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

// SlotViews adapts the store to queries.SlotReadStore.
type SlotViews struct{ *Store }

// BookingViews adapts the store to queries.BookingReadStore.
type BookingViews struct{ *Store }

// SweepCandidates adapts the store to the sweeper's candidate source.
type SweepCandidates struct{ *Store }

func (s *Store) SlotViews() SlotViews             { return SlotViews{s} }
func (s *Store) BookingViews() BookingViews       { return BookingViews{s} }
func (s *Store) SweepCandidates() SweepCandidates { return SweepCandidates{s} }

func (v SlotViews) FindByID(_ context.Context, id uuid.UUID) (*queries.SlotView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	row, ok := v.slots[id]
	if !ok || row.deletedAt != nil {
		return nil, infra.NewRepoErr(infra.KindNotFound, "parking slot not found")
	}
	return toSlotView(row), nil
}

func (v SlotViews) List(_ context.Context, f queries.SlotFilter) ([]*queries.SlotView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	rows := make([]slotRow, 0, len(v.slots))
	for _, row := range v.slots {
		if row.deletedAt == nil && matchSlot(row, f) {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b slotRow) int {
		return newestFirst(a.createdAt, b.createdAt, a.seq, b.seq)
	})
	out := make([]*queries.SlotView, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSlotView(row))
	}
	return out, nil
}

func (v BookingViews) FindByID(_ context.Context, id uuid.UUID) (*queries.BookingView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	row, ok := v.bookings[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
	}
	return v.toBookingView(row.rec), nil
}

func (v BookingViews) List(_ context.Context, f queries.BookingFilter) ([]*queries.BookingView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	rows := make([]bookingRow, 0, len(v.bookings))
	for _, row := range v.bookings {
		if f.UserID != nil && row.rec.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && row.rec.Status != *f.Status {
			continue
		}
		rows = append(rows, row)
	}
	slices.SortFunc(rows, func(a, b bookingRow) int {
		return newestFirst(a.rec.CreatedAt, b.rec.CreatedAt, a.seq, b.seq)
	})
	out := make([]*queries.BookingView, 0, len(rows))
	for _, row := range rows {
		out = append(out, v.toBookingView(row.rec))
	}
	return out, nil
}

func (v SweepCandidates) ExpiredActive(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	return v.bookingIDs(func(r booking.Record) bool {
		return r.Status.IsActive() && r.EndTime.Before(now)
	}), nil
}

func (v SweepCandidates) ConfirmableAt(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	return v.bookingIDs(func(r booking.Record) bool {
		return r.Status == booking.StatusPending && r.PaymentStatus == booking.PaymentCompleted &&
			!r.StartTime.After(now) && r.EndTime.After(now)
	}), nil
}

func (s *Store) bookingIDs(match func(booking.Record) bool) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []bookingRow
	for _, row := range s.bookings {
		if match(row.rec) {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b bookingRow) int { return int(a.seq - b.seq) })
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.rec.ID)
	}
	return ids
}

func matchSlot(row slotRow, f queries.SlotFilter) bool {
	a := row.attrs
	switch {
	case f.State != "" && a.State != f.State:
		return false
	case f.City != "" && a.City != f.City:
		return false
	case f.LocationType != nil && a.LocationType != *f.LocationType:
		return false
	case f.VehicleType != nil && a.VehicleType != *f.VehicleType:
		return false
	case f.Available != nil && row.isAvailable != *f.Available:
		return false
	}
	return true
}

func newestFirst(ta, tb time.Time, sa, sb int64) int {
	if c := tb.Compare(ta); c != 0 {
		return c
	}
	return int(sb - sa)
}

func toSlotView(row slotRow) *queries.SlotView {
	a := row.attrs
	return &queries.SlotView{
		ID:           row.id,
		SlotNumber:   a.SlotNumber,
		State:        a.State,
		City:         a.City,
		Location:     a.Location,
		Address:      a.Address,
		LocationType: a.LocationType.String(),
		Floor:        a.Floor,
		VehicleType:  a.VehicleType.String(),
		PricePerHour: a.PricePerHour,
		IsAvailable:  row.isAvailable,
		Features:     slices.Clone(a.Features),
		CreatedAt:    row.createdAt,
		UpdatedAt:    row.updatedAt,
	}
}

func (s *Store) toBookingView(r booking.Record) *queries.BookingView {
	v := &queries.BookingView{
		ID:             r.ID,
		UserID:         r.UserID,
		SlotID:         r.SlotID,
		VehicleNumber:  r.VehicleNumber,
		VehicleModel:   r.VehicleModel,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		TotalHours:     r.TotalHours,
		TotalPrice:     r.TotalPrice,
		Status:         r.Status.String(),
		PaymentStatus:  r.PaymentStatus.String(),
		PaymentID:      r.PaymentID,
		PaymentOrderID: r.PaymentOrderID,
		FailureReason:  r.FailureReason,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if row, ok := s.slots[r.SlotID]; ok {
		a := row.attrs
		v.Slot = queries.SlotSummary{
			ID:           row.id,
			SlotNumber:   a.SlotNumber,
			State:        a.State,
			City:         a.City,
			Location:     a.Location,
			Address:      a.Address,
			LocationType: a.LocationType.String(),
			Floor:        a.Floor,
			VehicleType:  a.VehicleType.String(),
			PricePerHour: a.PricePerHour,
		}
	}
	if u, ok := s.users[r.UserID]; ok {
		uc := u
		v.User = &uc
	}
	return v
}
