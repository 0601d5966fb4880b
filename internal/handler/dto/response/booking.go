package response

import (
	"time"

	"parking-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type SlotSummaryResponse struct {
	ID           uuid.UUID `json:"id"`
	SlotNumber   string    `json:"slotNumber"`
	State        string    `json:"state"`
	City         string    `json:"city"`
	Location     string    `json:"location"`
	Address      string    `json:"address"`
	LocationType string    `json:"locationType"`
	Floor        int       `json:"floor"`
	VehicleType  string    `json:"vehicleType"`
	PricePerHour float64   `json:"pricePerHour" copier:"-"`
}

type UserSummaryResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone"`
}

type BookingResponse struct {
	ID             uuid.UUID            `json:"id"`
	UserID         uuid.UUID            `json:"userId"`
	VehicleNumber  string               `json:"vehicleNumber"`
	VehicleModel   string               `json:"vehicleModel"`
	StartTime      time.Time            `json:"startTime"`
	EndTime        time.Time            `json:"endTime"`
	TotalHours     int                  `json:"totalHours"`
	TotalPrice     float64              `json:"totalPrice" copier:"-"`
	Status         string               `json:"status"`
	PaymentStatus  string               `json:"paymentStatus"`
	PaymentID      string               `json:"paymentId,omitempty"`
	PaymentOrderID string               `json:"paymentOrderId,omitempty"`
	FailureReason  string               `json:"paymentFailureReason,omitempty"`
	ParkingSlot    *SlotSummaryResponse `json:"parkingSlot" copier:"-"`
	User           *UserSummaryResponse `json:"user,omitempty" copier:"-"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

type BookingEnvelope struct {
	Message string           `json:"message"`
	Booking *BookingResponse `json:"booking"`
}

type BookingListEnvelope struct {
	Message  string             `json:"message"`
	Count    int                `json:"count"`
	Bookings []*BookingResponse `json:"bookings"`
}

func FromBookingView(v *queries.BookingView) *BookingResponse {
	var r BookingResponse
	mustCopy(&r, v)
	r.TotalPrice = v.TotalPrice.Major()

	var s SlotSummaryResponse
	mustCopy(&s, &v.Slot)
	s.PricePerHour = v.Slot.PricePerHour.Major()
	r.ParkingSlot = &s

	if v.User != nil {
		var u UserSummaryResponse
		mustCopy(&u, v.User)
		r.User = &u
	}
	return &r
}

func FromBookingViews(vs []*queries.BookingView) []*BookingResponse {
	out := make([]*BookingResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, FromBookingView(v))
	}
	return out
}
