package slot

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"parking-booking/internal/domain/money"
	"parking-booking/internal/pkg/errs"
	"parking-booking/internal/pkg/patch"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound        = errs.Kind("parking slot not found", errs.ErrNotFound)
	ErrSlotUnavailable     = errs.Kind("parking slot is not available", errs.ErrConflict)
	ErrDuplicateSlot       = errs.Kind("a parking slot with the same number already exists at this location and floor", errs.ErrConflict)
	ErrSlotInUse           = errs.Kind("parking slot has active bookings", errs.ErrConflict)
	ErrInvalidLocationType = errs.Kind("invalid location type", errs.ErrValidation)
	ErrInvalidVehicleType  = errs.Kind("invalid vehicle type", errs.ErrValidation)
	ErrInvalidPrice        = errs.Kind("price per hour must be greater than zero", errs.ErrValidation)
)

const MaxTextLength = 255

type Attributes struct {
	SlotNumber   string
	State        string
	City         string
	Location     string
	Address      string
	LocationType LocationType
	Floor        int
	VehicleType  VehicleType
	PricePerHour money.Money
	Features     []string
}

// Patch carries a partial update; nil fields are left untouched. Availability
// is deliberately absent and changes only through booking transitions or an
// explicit override.
type Patch struct {
	SlotNumber   *string
	State        *string
	City         *string
	Location     *string
	Address      *string
	LocationType *LocationType
	Floor        *int
	VehicleType  *VehicleType
	PricePerHour *money.Money
	Features     *[]string
}

type ParkingSlot struct {
	id          uuid.UUID
	attrs       Attributes
	isAvailable bool
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

func NewParkingSlot(attrs Attributes, now time.Time) (*ParkingSlot, error) {
	normalized, err := normalize(attrs)
	if err != nil {
		return nil, err
	}
	return &ParkingSlot{
		id:          uuid.New(),
		attrs:       normalized,
		isAvailable: true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func ReconstructParkingSlot(
	id uuid.UUID,
	attrs Attributes,
	isAvailable bool,
	createdAt, updatedAt time.Time,
	deletedAt *time.Time,
) *ParkingSlot {
	return &ParkingSlot{
		id:          id,
		attrs:       attrs,
		isAvailable: isAvailable,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		deletedAt:   deletedAt,
	}
}

func (s *ParkingSlot) Apply(p Patch, now time.Time) error {
	next := Attributes{
		SlotNumber:   patch.Coalesce(p.SlotNumber, s.attrs.SlotNumber),
		State:        patch.Coalesce(p.State, s.attrs.State),
		City:         patch.Coalesce(p.City, s.attrs.City),
		Location:     patch.Coalesce(p.Location, s.attrs.Location),
		Address:      patch.Coalesce(p.Address, s.attrs.Address),
		LocationType: patch.Coalesce(p.LocationType, s.attrs.LocationType),
		Floor:        patch.Coalesce(p.Floor, s.attrs.Floor),
		VehicleType:  patch.Coalesce(p.VehicleType, s.attrs.VehicleType),
		PricePerHour: patch.Coalesce(p.PricePerHour, s.attrs.PricePerHour),
		Features:     patch.Coalesce(p.Features, s.attrs.Features),
	}
	normalized, err := normalize(next)
	if err != nil {
		return err
	}
	s.attrs = normalized
	s.updatedAt = now
	return nil
}

// SetAvailability reports whether the flag actually changed.
func (s *ParkingSlot) SetAvailability(available bool, now time.Time) bool {
	if s.isAvailable == available {
		return false
	}
	s.isAvailable = available
	s.updatedAt = now
	return true
}

func (s *ParkingSlot) MarkDeleted(now time.Time) {
	s.deletedAt = &now
	s.updatedAt = now
}

// EnsureBookable is the coarse availability gate applied before the overlap check.
func (s *ParkingSlot) EnsureBookable() error {
	if s.IsDeleted() {
		return ErrSlotNotFound
	}
	if !s.isAvailable {
		return ErrSlotUnavailable
	}
	return nil
}

func (s *ParkingSlot) ID() uuid.UUID              { return s.id }
func (s *ParkingSlot) Attributes() Attributes     { return s.attrs }
func (s *ParkingSlot) SlotNumber() string         { return s.attrs.SlotNumber }
func (s *ParkingSlot) State() string              { return s.attrs.State }
func (s *ParkingSlot) City() string               { return s.attrs.City }
func (s *ParkingSlot) Location() string           { return s.attrs.Location }
func (s *ParkingSlot) Address() string            { return s.attrs.Address }
func (s *ParkingSlot) LocationType() LocationType { return s.attrs.LocationType }
func (s *ParkingSlot) Floor() int                 { return s.attrs.Floor }
func (s *ParkingSlot) VehicleType() VehicleType   { return s.attrs.VehicleType }
func (s *ParkingSlot) PricePerHour() money.Money  { return s.attrs.PricePerHour }
func (s *ParkingSlot) Features() []string         { return slices.Clone(s.attrs.Features) }
func (s *ParkingSlot) IsAvailable() bool          { return s.isAvailable }
func (s *ParkingSlot) CreatedAt() time.Time       { return s.createdAt }
func (s *ParkingSlot) UpdatedAt() time.Time       { return s.updatedAt }
func (s *ParkingSlot) DeletedAt() *time.Time      { return s.deletedAt }
func (s *ParkingSlot) IsDeleted() bool            { return s.deletedAt != nil }

func normalize(a Attributes) (Attributes, error) {
	var err error
	if a.SlotNumber, err = requiredText("slotNumber", a.SlotNumber); err != nil {
		return Attributes{}, err
	}
	if a.State, err = requiredText("state", a.State); err != nil {
		return Attributes{}, err
	}
	if a.City, err = requiredText("city", a.City); err != nil {
		return Attributes{}, err
	}
	if a.Location, err = requiredText("location", a.Location); err != nil {
		return Attributes{}, err
	}
	a.Address = strings.TrimSpace(a.Address)
	if len(a.Address) > MaxTextLength {
		return Attributes{}, errs.Kind(fmt.Sprintf("address must be at most %d characters", MaxTextLength), errs.ErrValidation)
	}
	if !a.LocationType.IsValid() {
		return Attributes{}, ErrInvalidLocationType
	}
	if !a.VehicleType.IsValid() {
		return Attributes{}, ErrInvalidVehicleType
	}
	if a.PricePerHour.Minor() <= 0 {
		return Attributes{}, ErrInvalidPrice
	}
	a.Features = normalizeFeatures(a.Features)
	return a, nil
}

func requiredText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errs.Kind(field+" is required", errs.ErrValidation)
	}
	if len(v) > MaxTextLength {
		return "", errs.Kind(fmt.Sprintf("%s must be at most %d characters", field, MaxTextLength), errs.ErrValidation)
	}
	return v, nil
}

func normalizeFeatures(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, f := range in {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
