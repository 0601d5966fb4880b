//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"parking-booking/internal/domain/user"
	"parking-booking/internal/infra/memstore"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/metrics"
	"parking-booking/internal/usecase/commands"
	"parking-booking/internal/usecase/queries"
	"parking-booking/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// 2025-06-01 09:00 IST
var base = time.Date(2025, 6, 1, 3, 30, 0, 0, time.UTC)

type harness struct {
	suite.Suite
	store    *memstore.Store
	clock    *clock.MockClock
	metrics  *metrics.Metrics
	slotQ    queries.SlotQueries
	bookingQ queries.BookingQueries
	slots    commands.SlotCommands
	bookings commands.BookingCommands
	admin    user.Actor
	driver   user.Actor
	other    user.Actor
}

func (h *harness) SetupTest() {
	h.store = memstore.New()
	h.clock = clock.NewMockClock(base)
	h.metrics = metrics.New()
	h.slotQ = queries.NewSlotQueries(h.store.SlotViews())
	h.bookingQ = queries.NewBookingQueries(h.store.BookingViews())
	h.slots = commands.NewSlotCommands(h.store, h.slotQ, h.clock, discardLogger())
	h.bookings = commands.NewBookingCommands(h.store, h.bookingQ, h.clock, h.metrics, discardLogger())
	h.admin = user.NewActor(uuid.New(), user.RoleAdmin)
	h.driver = user.NewActor(uuid.New(), user.RoleUser)
	h.other = user.NewActor(uuid.New(), user.RoleUser)
	h.store.PutUser(queries.UserSummary{ID: h.driver.ID, Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (h *harness) ctx() context.Context {
	return context.Background()
}

func (h *harness) newSlot(mutate ...func(*builder.SlotBuilder)) *queries.SlotView {
	b := builder.NewSlotBuilder()
	for _, m := range mutate {
		b.With(m)
	}
	v, err := h.slots.CreateSlot(h.ctx(), h.admin, b.BuildAttrs())
	h.Require().NoError(err)
	return v
}

func (h *harness) book(actor user.Actor, slotID uuid.UUID, start, end time.Time) *queries.BookingView {
	v, err := h.bookings.CreateBooking(h.ctx(), actor, builder.NewBookingBuilder(slotID, start).Between(start, end).BuildInput())
	h.Require().NoError(err)
	return v
}

func (h *harness) slotAvailable(id uuid.UUID) bool {
	v, err := h.slotQ.GetSlot(h.ctx(), id)
	h.Require().NoError(err)
	return v.IsAvailable
}

func (h *harness) bookingView(id uuid.UUID) *queries.BookingView {
	v, err := h.bookingQ.GetBookingSystem(h.ctx(), id)
	h.Require().NoError(err)
	return v
}

func at(hour, minute int) time.Time {
	return base.Add(time.Duration(hour-9)*time.Hour + time.Duration(minute)*time.Minute)
}
