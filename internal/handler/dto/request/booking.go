package request

import (
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ParkingSlotID uuid.UUID `json:"parkingSlotId" binding:"required"`
	VehicleNumber string    `json:"vehicleNumber" binding:"required,max=64"`
	VehicleModel  string    `json:"vehicleModel" binding:"max=64"`
	StartTime     time.Time `json:"startTime" binding:"required"`
	EndTime       time.Time `json:"endTime" binding:"required"`
}

func (r CreateBookingRequest) ToInput() commands.CreateBookingInput {
	return commands.CreateBookingInput{
		SlotID:        r.ParkingSlotID,
		VehicleNumber: r.VehicleNumber,
		VehicleModel:  r.VehicleModel,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
	}
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (r UpdateBookingStatusRequest) ToStatus() (booking.Status, error) {
	return booking.NewStatus(r.Status)
}
