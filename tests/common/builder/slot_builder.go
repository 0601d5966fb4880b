//go:build unit || e2e

package builder

import (
	"time"

	"parking-booking/internal/domain/money"
	"parking-booking/internal/domain/slot"
	"parking-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type SlotBuilder struct {
	SlotNumber   string
	State        string
	City         string
	Location     string
	Address      string
	LocationType slot.LocationType
	Floor        int
	VehicleType  slot.VehicleType
	PriceMinor   int64
	Features     []string
}

func NewSlotBuilder() *SlotBuilder {
	return &SlotBuilder{
		SlotNumber:   "A-101",
		State:        "Karnataka",
		City:         "Bengaluru",
		Location:     "Phoenix Marketcity",
		Address:      "Whitefield Main Road",
		LocationType: slot.LocationMall,
		Floor:        1,
		VehicleType:  slot.VehicleCar,
		PriceMinor:   5000,
		Features:     []string{"covered", "cctv"},
	}
}

func (b *SlotBuilder) With(mutate func(*SlotBuilder)) *SlotBuilder {
	mutate(b)
	return b
}

func (b *SlotBuilder) BuildAttrs() slot.Attributes {
	return slot.Attributes{
		SlotNumber:   b.SlotNumber,
		State:        b.State,
		City:         b.City,
		Location:     b.Location,
		Address:      b.Address,
		LocationType: b.LocationType,
		Floor:        b.Floor,
		VehicleType:  b.VehicleType,
		PricePerHour: money.MustFromMinor(b.PriceMinor),
		Features:     append([]string(nil), b.Features...),
	}
}

func (b *SlotBuilder) BuildDomain(now time.Time) (*slot.ParkingSlot, error) {
	return slot.NewParkingSlot(b.BuildAttrs(), now)
}

// BuildRequest returns the JSON body accepted by POST /api/slots.
func (b *SlotBuilder) BuildRequest() map[string]any {
	return map[string]any{
		"slotNumber":   b.SlotNumber,
		"state":        b.State,
		"city":         b.City,
		"location":     b.Location,
		"address":      b.Address,
		"locationType": b.LocationType.String(),
		"floor":        b.Floor,
		"vehicleType":  b.VehicleType.String(),
		"pricePerHour": money.MustFromMinor(b.PriceMinor).Major(),
		"features":     b.Features,
	}
}

// BuildView returns the read model the queries layer would hand back.
func (b *SlotBuilder) BuildView(id uuid.UUID, now time.Time) *queries.SlotView {
	a := b.BuildAttrs()
	return &queries.SlotView{
		ID:           id,
		SlotNumber:   a.SlotNumber,
		State:        a.State,
		City:         a.City,
		Location:     a.Location,
		Address:      a.Address,
		LocationType: a.LocationType.String(),
		Floor:        a.Floor,
		VehicleType:  a.VehicleType.String(),
		PricePerHour: a.PricePerHour,
		IsAvailable:  true,
		Features:     a.Features,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
