package response

import (
	"time"

	"parking-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type SlotResponse struct {
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
	IsAvailable  bool      `json:"isAvailable"`
	Features     []string  `json:"features"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SlotEnvelope struct {
	Message string        `json:"message"`
	Slot    *SlotResponse `json:"slot"`
}

type SlotListEnvelope struct {
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Slots   []*SlotResponse `json:"slots"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func FromSlotView(v *queries.SlotView) *SlotResponse {
	var r SlotResponse
	mustCopy(&r, v)
	r.PricePerHour = v.PricePerHour.Major()
	if r.Features == nil {
		r.Features = []string{}
	}
	return &r
}

func FromSlotViews(vs []*queries.SlotView) []*SlotResponse {
	out := make([]*SlotResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, FromSlotView(v))
	}
	return out
}
