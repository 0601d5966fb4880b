package request

import (
	"parking-booking/internal/domain/money"
	"parking-booking/internal/domain/slot"
)

type CreateSlotRequest struct {
	SlotNumber   string   `json:"slotNumber" binding:"required,max=255"`
	State        string   `json:"state" binding:"required,max=255"`
	City         string   `json:"city" binding:"required,max=255"`
	Location     string   `json:"location" binding:"required,max=255"`
	Address      string   `json:"address" binding:"max=255"`
	LocationType string   `json:"locationType" binding:"required"`
	Floor        *int     `json:"floor" binding:"required"`
	VehicleType  string   `json:"vehicleType" binding:"required"`
	PricePerHour float64  `json:"pricePerHour" binding:"required,gt=0"`
	Features     []string `json:"features"`
}

func (r CreateSlotRequest) ToAttributes() (slot.Attributes, error) {
	locationType, err := slot.NewLocationType(r.LocationType)
	if err != nil {
		return slot.Attributes{}, err
	}
	vehicleType, err := slot.NewVehicleType(r.VehicleType)
	if err != nil {
		return slot.Attributes{}, err
	}
	price, err := money.FromMajor(r.PricePerHour)
	if err != nil {
		return slot.Attributes{}, err
	}
	return slot.Attributes{
		SlotNumber:   r.SlotNumber,
		State:        r.State,
		City:         r.City,
		Location:     r.Location,
		Address:      r.Address,
		LocationType: locationType,
		Floor:        *r.Floor,
		VehicleType:  vehicleType,
		PricePerHour: price,
		Features:     r.Features,
	}, nil
}

// UpdateSlotRequest is a partial update. isAvailable is not accepted here;
// use the availability endpoint.
type UpdateSlotRequest struct {
	SlotNumber   *string   `json:"slotNumber" binding:"omitempty,max=255"`
	State        *string   `json:"state" binding:"omitempty,max=255"`
	City         *string   `json:"city" binding:"omitempty,max=255"`
	Location     *string   `json:"location" binding:"omitempty,max=255"`
	Address      *string   `json:"address" binding:"omitempty,max=255"`
	LocationType *string   `json:"locationType"`
	Floor        *int      `json:"floor"`
	VehicleType  *string   `json:"vehicleType"`
	PricePerHour *float64  `json:"pricePerHour" binding:"omitempty,gt=0"`
	Features     *[]string `json:"features"`
}

func (r UpdateSlotRequest) ToPatch() (slot.Patch, error) {
	p := slot.Patch{
		SlotNumber: r.SlotNumber,
		State:      r.State,
		City:       r.City,
		Location:   r.Location,
		Address:    r.Address,
		Floor:      r.Floor,
		Features:   r.Features,
	}
	if r.LocationType != nil {
		lt, err := slot.NewLocationType(*r.LocationType)
		if err != nil {
			return slot.Patch{}, err
		}
		p.LocationType = &lt
	}
	if r.VehicleType != nil {
		vt, err := slot.NewVehicleType(*r.VehicleType)
		if err != nil {
			return slot.Patch{}, err
		}
		p.VehicleType = &vt
	}
	if r.PricePerHour != nil {
		price, err := money.FromMajor(*r.PricePerHour)
		if err != nil {
			return slot.Patch{}, err
		}
		p.PricePerHour = &price
	}
	return p, nil
}

type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" binding:"required"`
}
