package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/domain/slot"
	"parking-booking/internal/infra"
	"parking-booking/internal/usecase/queries"
	"parking-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type slotRow struct {
	id          uuid.UUID
	attrs       slot.Attributes
	isAvailable bool
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
	seq         int64
}

type bookingRow struct {
	rec booking.Record
	seq int64
}

// Store keeps everything in process memory. A single mutex is held for the
// whole of Within, so transactions are fully serialized. Read-store methods
// take the same mutex and must not be called from inside Within.
type Store struct {
	mu       sync.Mutex
	slots    map[uuid.UUID]slotRow
	bookings map[uuid.UUID]bookingRow
	users    map[uuid.UUID]queries.UserSummary
	seq      int64
}

func New() *Store {
	return &Store{
		slots:    make(map[uuid.UUID]slotRow),
		bookings: make(map[uuid.UUID]bookingRow),
		users:    make(map[uuid.UUID]queries.UserSummary),
	}
}

// PutUser seeds the identity data used for booking summaries.
func (s *Store) PutUser(u queries.UserSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// Within rolls every map back to its prior state when fn fails.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slotsBefore := maps.Clone(s.slots)
	bookingsBefore := maps.Clone(s.bookings)
	seqBefore := s.seq

	if err := fn(ctx, &memTx{store: s}); err != nil {
		s.slots = slotsBefore
		s.bookings = bookingsBefore
		s.seq = seqBefore
		return err
	}
	return nil
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

type memTx struct {
	store *Store
}

func (t *memTx) Slots() shared.SlotRepository {
	return slotRepo{store: t.store}
}

func (t *memTx) Bookings() shared.BookingRepository {
	return bookingRepo{store: t.store}
}

type slotRepo struct {
	store *Store
}

func (r slotRepo) Create(_ context.Context, sl *slot.ParkingSlot) error {
	if r.identityTaken(sl.ID(), sl.Attributes()) {
		return infra.NewRepoErr(infra.KindDuplicateKey, "parking slot identity already exists")
	}
	r.store.slots[sl.ID()] = slotRow{
		id:          sl.ID(),
		attrs:       cloneAttrs(sl.Attributes()),
		isAvailable: sl.IsAvailable(),
		createdAt:   sl.CreatedAt(),
		updatedAt:   sl.UpdatedAt(),
		deletedAt:   sl.DeletedAt(),
		seq:         r.store.nextSeq(),
	}
	return nil
}

func (r slotRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*slot.ParkingSlot, error) {
	row, ok := r.store.slots[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "parking slot not found")
	}
	return slot.ReconstructParkingSlot(row.id, cloneAttrs(row.attrs), row.isAvailable, row.createdAt, row.updatedAt, row.deletedAt), nil
}

func (r slotRepo) Update(_ context.Context, sl *slot.ParkingSlot) error {
	row, ok := r.store.slots[sl.ID()]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "parking slot not found")
	}
	if !sl.IsDeleted() && r.identityTaken(sl.ID(), sl.Attributes()) {
		return infra.NewRepoErr(infra.KindDuplicateKey, "parking slot identity already exists")
	}
	row.attrs = cloneAttrs(sl.Attributes())
	row.updatedAt = sl.UpdatedAt()
	row.deletedAt = sl.DeletedAt()
	r.store.slots[sl.ID()] = row
	return nil
}

func (r slotRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool, at time.Time) error {
	row, ok := r.store.slots[id]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "parking slot not found")
	}
	row.isAvailable = available
	row.updatedAt = at
	r.store.slots[id] = row
	return nil
}

// identityTaken mirrors the partial unique index over live slots.
func (r slotRepo) identityTaken(self uuid.UUID, a slot.Attributes) bool {
	for id, row := range r.store.slots {
		if id == self || row.deletedAt != nil {
			continue
		}
		if row.attrs.State == a.State && row.attrs.City == a.City && row.attrs.Location == a.Location &&
			row.attrs.Floor == a.Floor && row.attrs.SlotNumber == a.SlotNumber {
			return true
		}
	}
	return false
}

type bookingRepo struct {
	store *Store
}

func (r bookingRepo) Create(_ context.Context, b *booking.Booking) error {
	if _, ok := r.store.slots[b.SlotID()]; !ok {
		return infra.NewRepoErr(infra.KindForeignKeyViolated, "booking references unknown slot")
	}
	// same guarantee as the exclusion constraint
	if b.Status().IsActive() && r.store.anyActive(b.SlotID(), b.TimeSlot().Overlaps) {
		return infra.NewRepoErr(infra.KindConflict, "overlapping active booking")
	}
	r.store.bookings[b.ID()] = bookingRow{rec: b.Record(), seq: r.store.nextSeq()}
	return nil
}

func (r bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	row, ok := r.store.bookings[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
	}
	return booking.ReconstructBooking(row.rec), nil
}

func (r bookingRepo) Update(_ context.Context, b *booking.Booking, expected booking.State) error {
	row, ok := r.store.bookings[b.ID()]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "booking not found")
	}
	if row.rec.Status != expected.Status || row.rec.PaymentStatus != expected.PaymentStatus {
		return infra.NewRepoErr(infra.KindStale, "booking changed since it was read")
	}
	next := b.Record()
	row.rec.Status = next.Status
	row.rec.PaymentStatus = next.PaymentStatus
	row.rec.PaymentID = next.PaymentID
	row.rec.PaymentOrderID = next.PaymentOrderID
	row.rec.FailureReason = next.FailureReason
	row.rec.UpdatedAt = next.UpdatedAt
	r.store.bookings[b.ID()] = row
	return nil
}

func (r bookingRepo) HasOverlap(_ context.Context, slotID uuid.UUID, ts booking.TimeSlot) (bool, error) {
	return r.store.anyActive(slotID, ts.Overlaps), nil
}

func (r bookingRepo) HasActiveCovering(_ context.Context, slotID uuid.UUID, at time.Time) (bool, error) {
	return r.store.anyActive(slotID, func(ts booking.TimeSlot) bool { return ts.Covers(at) }), nil
}

func (r bookingRepo) HasActiveEndingAfter(_ context.Context, slotID uuid.UUID, at time.Time) (bool, error) {
	return r.store.anyActive(slotID, func(ts booking.TimeSlot) bool { return ts.End().After(at) }), nil
}

func (s *Store) anyActive(slotID uuid.UUID, match func(booking.TimeSlot) bool) bool {
	for _, row := range s.bookings {
		if row.rec.SlotID != slotID || !row.rec.Status.IsActive() {
			continue
		}
		ts, err := booking.NewTimeSlot(row.rec.StartTime, row.rec.EndTime)
		if err != nil {
			continue
		}
		if match(ts) {
			return true
		}
	}
	return false
}

func cloneAttrs(a slot.Attributes) slot.Attributes {
	a.Features = slices.Clone(a.Features)
	return a
}
