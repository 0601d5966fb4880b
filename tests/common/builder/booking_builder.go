//go:build unit || e2e

package builder

import (
	"math"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/domain/money"
	"parking-booking/internal/usecase/commands"
	"parking-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	SlotID        uuid.UUID
	VehicleNumber string
	VehicleModel  string
	StartTime     time.Time
	EndTime       time.Time
}

func NewBookingBuilder(slotID uuid.UUID, start time.Time) *BookingBuilder {
	return &BookingBuilder{
		SlotID:        slotID,
		VehicleNumber: "KA01AB1234",
		VehicleModel:  "Swift",
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) Between(start, end time.Time) *BookingBuilder {
	b.StartTime = start
	b.EndTime = end
	return b
}

func (b *BookingBuilder) BuildInput() commands.CreateBookingInput {
	return commands.CreateBookingInput{
		SlotID:        b.SlotID,
		VehicleNumber: b.VehicleNumber,
		VehicleModel:  b.VehicleModel,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
	}
}

// BuildRequest returns the JSON body accepted by POST /api/bookings.
func (b *BookingBuilder) BuildRequest() map[string]any {
	return map[string]any{
		"parkingSlotId": b.SlotID.String(),
		"vehicleNumber": b.VehicleNumber,
		"vehicleModel":  b.VehicleModel,
		"startTime":     b.StartTime.Format(time.RFC3339),
		"endTime":       b.EndTime.Format(time.RFC3339),
	}
}

// BuildView returns a pending booking read model priced at pricePerHourMinor.
func (b *BookingBuilder) BuildView(id, userID uuid.UUID, pricePerHourMinor int64, now time.Time) *queries.BookingView {
	hours := int(math.Ceil(b.EndTime.Sub(b.StartTime).Hours()))
	return &queries.BookingView{
		ID:            id,
		UserID:        userID,
		SlotID:        b.SlotID,
		VehicleNumber: b.VehicleNumber,
		VehicleModel:  b.VehicleModel,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		TotalHours:    hours,
		TotalPrice:    money.MustFromMinor(pricePerHourMinor * int64(hours)),
		Status:        booking.StatusPending.String(),
		PaymentStatus: booking.PaymentPending.String(),
		CreatedAt:     now,
		UpdatedAt:     now,
		Slot: queries.SlotSummary{
			ID:           b.SlotID,
			SlotNumber:   "A-101",
			City:         "Bengaluru",
			PricePerHour: money.MustFromMinor(pricePerHourMinor),
		},
	}
}
