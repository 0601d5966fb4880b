//go:build unit

package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/domain/money"
	"parking-booking/internal/domain/user"
	"parking-booking/internal/infra/memstore"
	"parking-booking/internal/infra/sweeplock"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/metrics"
	"parking-booking/internal/usecase/commands"
	"parking-booking/internal/usecase/queries"
	"parking-booking/internal/usecase/shared"
	"parking-booking/tests/common/builder"
	"parking-booking/tests/common/uowtest"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type SweeperSuite struct {
	suite.Suite
	store    *memstore.Store
	clock    *clock.MockClock
	metrics  *metrics.Metrics
	slots    commands.SlotCommands
	bookings commands.BookingCommands
	slotQ    queries.SlotQueries
	bookingQ queries.BookingQueries
	sweeper  *Sweeper
	admin    user.Actor
	driver   user.Actor
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperSuite))
}

func (s *SweeperSuite) SetupTest() {
	s.store = memstore.New()
	s.clock = clock.NewMockClock(base)
	s.metrics = metrics.New()
	s.slotQ = queries.NewSlotQueries(s.store.SlotViews())
	s.bookingQ = queries.NewBookingQueries(s.store.BookingViews())
	s.slots = commands.NewSlotCommands(s.store, s.slotQ, s.clock, discard())
	s.bookings = commands.NewBookingCommands(s.store, s.bookingQ, s.clock, s.metrics, discard())
	s.sweeper = NewSweeper(s.store.SweepCandidates(), s.bookings, sweeplock.Local{}, s.clock, s.metrics, discard(), time.Minute)
	s.admin = user.NewActor(uuid.New(), user.RoleAdmin)
	s.driver = user.NewActor(uuid.New(), user.RoleUser)
}

func (s *SweeperSuite) createSlot(number string) uuid.UUID {
	attrs := builder.NewSlotBuilder().With(func(b *builder.SlotBuilder) { b.SlotNumber = number }).BuildAttrs()
	v, err := s.slots.CreateSlot(context.Background(), s.admin, attrs)
	s.Require().NoError(err)
	return v.ID
}

func (s *SweeperSuite) book(slotID uuid.UUID, start, end time.Time) uuid.UUID {
	in := builder.NewBookingBuilder(slotID, start).Between(start, end).BuildInput()
	v, err := s.bookings.CreateBooking(context.Background(), s.driver, in)
	s.Require().NoError(err)
	return v.ID
}

// seedPaidPending stores a pending booking whose payment already completed.
func (s *SweeperSuite) seedPaidPending(slotID uuid.UUID, start, end time.Time) uuid.UUID {
	id := uuid.New()
	err := s.store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		return tx.Bookings().Create(ctx, booking.ReconstructBooking(booking.Record{
			ID:             id,
			UserID:         s.driver.ID,
			SlotID:         slotID,
			VehicleNumber:  "KA01AB1234",
			StartTime:      start,
			EndTime:        end,
			TotalHours:     2,
			TotalPrice:     money.MustFromMinor(10000),
			Status:         booking.StatusPending,
			PaymentStatus:  booking.PaymentCompleted,
			PaymentID:      "pay_seeded",
			PaymentOrderID: "order_seeded",
			CreatedAt:      base,
			UpdatedAt:      base,
		}))
	})
	s.Require().NoError(err)
	return id
}

func (s *SweeperSuite) status(id uuid.UUID) string {
	v, err := s.bookingQ.GetBookingSystem(context.Background(), id)
	s.Require().NoError(err)
	return v.Status
}

func (s *SweeperSuite) available(slotID uuid.UUID) bool {
	v, err := s.slotQ.GetSlot(context.Background(), slotID)
	s.Require().NoError(err)
	return v.IsAvailable
}

func (s *SweeperSuite) TestSweep_CompletesExpiredAndFreesSlot() {
	slotID := s.createSlot("A-1")
	id := s.book(slotID, base.Add(time.Hour), base.Add(3*time.Hour))
	s.False(s.available(slotID))

	s.clock.Set(base.Add(3*time.Hour + time.Minute))
	rep := s.sweeper.Sweep(context.Background())

	s.True(rep.Ran)
	s.Equal(1, rep.Completed)
	s.Equal(booking.StatusCompleted.String(), s.status(id))
	s.True(s.available(slotID))
}

func (s *SweeperSuite) TestSweep_EndEqualToNowIsNotExpired() {
	slotID := s.createSlot("A-1")
	id := s.book(slotID, base.Add(time.Hour), base.Add(2*time.Hour))

	s.clock.Set(base.Add(2 * time.Hour))
	rep := s.sweeper.Sweep(context.Background())

	s.Zero(rep.Completed)
	s.Equal(booking.StatusPending.String(), s.status(id))
}

func (s *SweeperSuite) TestSweep_IsIdempotent() {
	slotID := s.createSlot("A-1")
	s.book(slotID, base.Add(time.Hour), base.Add(2*time.Hour))
	s.clock.Set(base.Add(5 * time.Hour))

	first := s.sweeper.Sweep(context.Background())
	second := s.sweeper.Sweep(context.Background())

	s.Equal(1, first.Completed)
	s.Equal(Report{Ran: true}, second)
	n, err := testutil.GatherAndCount(s.metrics.Registry(), "parking_booking_transitions_total")
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *SweeperSuite) TestSweep_ConfirmsPaidPendingWhenStarted() {
	slotID := s.createSlot("A-1")
	id := s.seedPaidPending(slotID, base.Add(time.Hour), base.Add(3*time.Hour))

	s.clock.Set(base.Add(30 * time.Minute))
	rep := s.sweeper.Sweep(context.Background())
	s.Zero(rep.Confirmed, "not started yet")

	s.clock.Set(base.Add(time.Hour))
	rep = s.sweeper.Sweep(context.Background())
	s.Equal(1, rep.Confirmed)
	s.Equal(booking.StatusConfirmed.String(), s.status(id))
}

func (s *SweeperSuite) TestSweep_KeepsSlotHeldByAnotherCoveringBooking() {
	slotID := s.createSlot("A-1")
	s.book(slotID, base, base.Add(time.Hour))
	// the flag is coarse, so the second booking needs an explicit reopen
	_, err := s.slots.OverrideAvailability(context.Background(), s.admin, slotID, true)
	s.Require().NoError(err)
	s.book(slotID, base.Add(time.Hour), base.Add(4*time.Hour))

	s.clock.Set(base.Add(2 * time.Hour))
	rep := s.sweeper.Sweep(context.Background())

	s.Equal(1, rep.Completed)
	s.False(s.available(slotID))
}

func (s *SweeperSuite) TestSweep_LeavesCancelledAlone() {
	slotID := s.createSlot("A-1")
	id := s.book(slotID, base.Add(time.Hour), base.Add(2*time.Hour))
	_, err := s.bookings.CancelBooking(context.Background(), s.driver, id)
	s.Require().NoError(err)

	s.clock.Set(base.Add(5 * time.Hour))
	rep := s.sweeper.Sweep(context.Background())

	s.Zero(rep.Completed)
	s.Equal(booking.StatusCancelled.String(), s.status(id))
}

func (s *SweeperSuite) TestSweep_SkipsBookingMovedConcurrently() {
	slotID := s.createSlot("A-1")
	id := s.book(slotID, base.Add(time.Hour), base.Add(2*time.Hour))
	raced := commands.NewBookingCommands(uowtest.StaleUpdates{UnitOfWork: s.store}, s.bookingQ, s.clock, s.metrics, discard())
	sw := NewSweeper(s.store.SweepCandidates(), raced, sweeplock.Local{}, s.clock, s.metrics, discard(), time.Minute)

	s.clock.Set(base.Add(3 * time.Hour))
	rep := sw.Sweep(context.Background())

	s.Equal(Report{Skipped: 1, Ran: true}, rep)
	s.Equal(booking.StatusPending.String(), s.status(id))
	s.False(s.available(slotID))
}

type mockCandidates struct{ mock.Mock }

func (m *mockCandidates) ExpiredActive(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *mockCandidates) ConfirmableAt(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

type mockTransitioner struct{ mock.Mock }

func (m *mockTransitioner) TransitionOnTime(ctx context.Context, id uuid.UUID, now time.Time) (booking.Transition, error) {
	args := m.Called(ctx, id, now)
	return args.Get(0).(booking.Transition), args.Error(1)
}

type mockLocker struct{ mock.Mock }

func (m *mockLocker) TryLock(ctx context.Context) (sweeplock.UnlockFunc, bool, error) {
	args := m.Called(ctx)
	unlock, _ := args.Get(0).(sweeplock.UnlockFunc)
	return unlock, args.Bool(1), args.Error(2)
}

func TestSweep_ErrorsDoNotStopTheTick(t *testing.T) {
	c := clock.NewMockClock(base)
	broken, stale, ok, confirm := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	cands := &mockCandidates{}
	cands.On("ExpiredActive", mock.Anything, base).Return([]uuid.UUID{broken, stale, ok}, nil)
	cands.On("ConfirmableAt", mock.Anything, base).Return([]uuid.UUID{confirm}, nil)

	tr := &mockTransitioner{}
	tr.On("TransitionOnTime", mock.Anything, broken, base).Return(booking.TransitionNone, errors.New("db down"))
	tr.On("TransitionOnTime", mock.Anything, stale, base).Return(booking.TransitionNone, booking.ErrStaleBooking)
	tr.On("TransitionOnTime", mock.Anything, ok, base).Return(booking.TransitionCompleted, nil)
	tr.On("TransitionOnTime", mock.Anything, confirm, base).Return(booking.TransitionConfirmed, nil)

	m := metrics.New()
	sw := NewSweeper(cands, tr, nil, c, m, discard(), time.Minute)
	rep := sw.Sweep(context.Background())

	assert.Equal(t, Report{Completed: 1, Confirmed: 1, Failed: 1, Skipped: 1, Ran: true}, rep)
	tr.AssertNumberOfCalls(t, "TransitionOnTime", 4)
	n, err := testutil.GatherAndCount(m.Registry(), "parking_sweep_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSweep_ListFailureStillRunsSecondPass(t *testing.T) {
	c := clock.NewMockClock(base)
	id := uuid.New()

	cands := &mockCandidates{}
	cands.On("ExpiredActive", mock.Anything, base).Return(nil, errors.New("timeout"))
	cands.On("ConfirmableAt", mock.Anything, base).Return([]uuid.UUID{id}, nil)
	tr := &mockTransitioner{}
	tr.On("TransitionOnTime", mock.Anything, id, base).Return(booking.TransitionConfirmed, nil)

	rep := NewSweeper(cands, tr, nil, c, nil, discard(), time.Minute).Sweep(context.Background())

	assert.Equal(t, 1, rep.Confirmed)
}

func TestSweep_SkipsWhenLeaseHeldElsewhere(t *testing.T) {
	lock := &mockLocker{}
	lock.On("TryLock", mock.Anything).Return(nil, false, nil)
	cands := &mockCandidates{}
	tr := &mockTransitioner{}

	rep := NewSweeper(cands, tr, lock, clock.NewMockClock(base), nil, discard(), time.Minute).Sweep(context.Background())

	assert.False(t, rep.Ran)
	cands.AssertNotCalled(t, "ExpiredActive", mock.Anything, mock.Anything)
}

func TestSweep_LeaseErrorSkipsTick(t *testing.T) {
	lock := &mockLocker{}
	lock.On("TryLock", mock.Anything).Return(nil, false, errors.New("redis down"))
	cands := &mockCandidates{}

	rep := NewSweeper(cands, &mockTransitioner{}, lock, clock.NewMockClock(base), nil, discard(), time.Minute).Sweep(context.Background())

	assert.False(t, rep.Ran)
	cands.AssertNotCalled(t, "ExpiredActive", mock.Anything, mock.Anything)
}

func TestSweep_ReleasesLease(t *testing.T) {
	released := false
	unlock := sweeplock.UnlockFunc(func(context.Context) error {
		released = true
		return nil
	})
	lock := &mockLocker{}
	lock.On("TryLock", mock.Anything).Return(unlock, true, nil)
	cands := &mockCandidates{}
	cands.On("ExpiredActive", mock.Anything, base).Return(nil, nil)
	cands.On("ConfirmableAt", mock.Anything, base).Return(nil, nil)

	NewSweeper(cands, &mockTransitioner{}, lock, clock.NewMockClock(base), nil, discard(), time.Minute).Sweep(context.Background())

	assert.True(t, released)
}

// blockingTransitioner parks inside the first call until released.
type blockingTransitioner struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingTransitioner) TransitionOnTime(context.Context, uuid.UUID, time.Time) (booking.Transition, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return booking.TransitionCompleted, nil
}

func TestSweep_SkipsWhileAnotherTickRuns(t *testing.T) {
	cands := &mockCandidates{}
	cands.On("ExpiredActive", mock.Anything, base).Return([]uuid.UUID{uuid.New()}, nil)
	cands.On("ConfirmableAt", mock.Anything, base).Return(nil, nil)
	tr := &blockingTransitioner{entered: make(chan struct{}), release: make(chan struct{})}
	sw := NewSweeper(cands, tr, nil, clock.NewMockClock(base), nil, discard(), time.Minute)

	done := make(chan Report)
	go func() { done <- sw.Sweep(context.Background()) }()
	<-tr.entered

	overlapping := sw.Sweep(context.Background())
	close(tr.release)
	first := <-done

	assert.False(t, overlapping.Ran)
	assert.Equal(t, 1, first.Completed)
}

func TestSweeper_StartRunsImmediatelyAndStops(t *testing.T) {
	cands := &mockCandidates{}
	cands.On("ExpiredActive", mock.Anything, base).Return(nil, nil)
	cands.On("ConfirmableAt", mock.Anything, base).Return(nil, nil)
	sw := NewSweeper(cands, &mockTransitioner{}, nil, clock.NewMockClock(base), nil, discard(), time.Hour)

	require.NoError(t, sw.Start(context.Background()))
	cands.AssertNumberOfCalls(t, "ExpiredActive", 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, sw.Stop(ctx))
}

func TestSweeper_StopWithoutStart(t *testing.T) {
	sw := NewSweeper(&mockCandidates{}, &mockTransitioner{}, nil, clock.NewMockClock(base), nil, discard(), time.Minute)
	assert.NoError(t, sw.Stop(context.Background()))
}
