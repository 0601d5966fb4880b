package queries

import (
	"time"

	"parking-booking/internal/domain/money"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type SlotView struct {
	ID           uuid.UUID
	SlotNumber   string
	State        string
	City         string
	Location     string
	Address      string
	LocationType string
	Floor        int
	VehicleType  string
	PricePerHour money.Money
	IsAvailable  bool
	Features     []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SlotSummary struct {
	ID           uuid.UUID
	SlotNumber   string
	State        string
	City         string
	Location     string
	Address      string
	LocationType string
	Floor        int
	VehicleType  string
	PricePerHour money.Money
}

type UserSummary struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
}

type BookingView struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	SlotID         uuid.UUID
	VehicleNumber  string
	VehicleModel   string
	StartTime      time.Time
	EndTime        time.Time
	TotalHours     int
	TotalPrice     money.Money
	Status         string
	PaymentStatus  string
	PaymentID      string
	PaymentOrderID string
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Slot SlotSummary
	// User is nil when the owner is unknown to the identity tables.
	User *UserSummary
}
