//go:build unit

package repository

import (
	"context"
	"testing"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/domain/money"
	"parking-booking/internal/domain/slot"
	"parking-booking/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDBTX struct {
	mock.Mock
}

func (m *MockDBTX) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgconn.CommandTag), mockArgs.Error(1)
}

func (m *MockDBTX) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgx.Rows), mockArgs.Error(1)
}

func (m *MockDBTX) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgx.Row)
}

type boolRow struct {
	value bool
	err   error
}

func (r boolRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*bool)) = r.value
	return nil
}

func newTestBooking(t *testing.T) *booking.Booking {
	t.Helper()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ts, err := booking.NewTimeSlot(start, start.Add(2*time.Hour))
	require.NoError(t, err)
	v, err := booking.NewVehicle("KA01AB1234", "Swift")
	require.NoError(t, err)
	b, err := booking.NewBooking(uuid.New(), uuid.New(), v, ts, money.MustFromMinor(5000), start.Add(-time.Hour))
	require.NoError(t, err)
	return b
}

func TestBookingRepository_Update(t *testing.T) {
	tests := []struct {
		name     string
		tag      pgconn.CommandTag
		execErr  error
		wantKind infra.RepositoryErrorKind
	}{
		{name: "success", tag: pgconn.NewCommandTag("UPDATE 1")},
		{name: "stale state", tag: pgconn.NewCommandTag("UPDATE 0"), wantKind: infra.KindStale},
		{name: "driver failure", tag: pgconn.CommandTag{}, execErr: assert.AnError, wantKind: infra.KindDBFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBooking(t)
			expected := b.State()
			require.NoError(t, b.Cancel(time.Now()))

			dbtx := new(MockDBTX)
			dbtx.On("Exec", mock.Anything, updateBookingSQL, mock.MatchedBy(func(args []any) bool {
				return args[1] == "cancelled" && args[7] == "pending" && args[8] == "pending"
			})).Return(tt.tag, tt.execErr)

			err := NewBookingRepository(dbtx).Update(context.Background(), b, expected)

			if tt.wantKind == "" {
				assert.NoError(t, err)
			} else {
				assert.True(t, infra.IsKind(err, tt.wantKind), "got %v", err)
			}
			dbtx.AssertExpectations(t)
		})
	}
}

func TestBookingRepository_CreateMapsExclusionViolation(t *testing.T) {
	dbtx := new(MockDBTX)
	dbtx.On("Exec", mock.Anything, insertBookingSQL, mock.Anything).
		Return(pgconn.CommandTag{}, &pgconn.PgError{Code: pgErrCodeExclusionViolation})

	err := NewBookingRepository(dbtx).Create(context.Background(), newTestBooking(t))

	assert.True(t, infra.IsKind(err, infra.KindConflict))
}

func TestBookingRepository_HasOverlap(t *testing.T) {
	b := newTestBooking(t)

	dbtx := new(MockDBTX)
	dbtx.On("QueryRow", mock.Anything, overlapSQL, []any{b.SlotID(), b.TimeSlot().Start(), b.TimeSlot().End()}).
		Return(boolRow{value: true})

	got, err := NewBookingRepository(dbtx).HasOverlap(context.Background(), b.SlotID(), b.TimeSlot())

	require.NoError(t, err)
	assert.True(t, got)
}

func TestBookingRepository_FindByIDNotFound(t *testing.T) {
	id := uuid.New()
	dbtx := new(MockDBTX)
	dbtx.On("QueryRow", mock.Anything, selectBookingSQL, []any{id}).Return(boolRow{err: pgx.ErrNoRows})

	_, err := NewBookingRepository(dbtx).FindByID(context.Background(), id)

	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}

func TestSlotRepository_CreateMapsDuplicate(t *testing.T) {
	s, err := slot.NewParkingSlot(slot.Attributes{
		SlotNumber:   "A-1",
		State:        "Karnataka",
		City:         "Bengaluru",
		Location:     "Phoenix Mall",
		LocationType: slot.LocationMall,
		VehicleType:  slot.VehicleCar,
		PricePerHour: money.MustFromMinor(5000),
	}, time.Now())
	require.NoError(t, err)

	dbtx := new(MockDBTX)
	dbtx.On("Exec", mock.Anything, insertSlotSQL, mock.Anything).
		Return(pgconn.CommandTag{}, &pgconn.PgError{Code: pgErrCodeUniqueViolation})

	err = NewSlotRepository(dbtx).Create(context.Background(), s)

	assert.True(t, infra.IsKind(err, infra.KindDuplicateKey))
}

func TestSlotRepository_SetAvailabilityMissingRow(t *testing.T) {
	id := uuid.New()
	at := time.Now()
	dbtx := new(MockDBTX)
	dbtx.On("Exec", mock.Anything, setSlotAvailabilitySQL, []any{id, false, at}).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := NewSlotRepository(dbtx).SetAvailability(context.Background(), id, false, at)

	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}
