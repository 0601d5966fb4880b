package slot

type LocationType string

const (
	LocationHotel          LocationType = "Hotel"
	LocationHospital       LocationType = "Hospital"
	LocationMall           LocationType = "Mall"
	LocationAirport        LocationType = "Airport"
	LocationRailwayStation LocationType = "Railway Station"
	LocationOffice         LocationType = "Office"
	LocationResidential    LocationType = "Residential"
	LocationRestaurant     LocationType = "Restaurant"
	LocationStadium        LocationType = "Stadium"
	LocationCollege        LocationType = "College"
)

var locationTypes = []LocationType{
	LocationHotel,
	LocationHospital,
	LocationMall,
	LocationAirport,
	LocationRailwayStation,
	LocationOffice,
	LocationResidential,
	LocationRestaurant,
	LocationStadium,
	LocationCollege,
}

func LocationTypes() []LocationType {
	out := make([]LocationType, len(locationTypes))
	copy(out, locationTypes)
	return out
}

func (l LocationType) String() string {
	return string(l)
}

func (l LocationType) IsValid() bool {
	for _, v := range locationTypes {
		if v == l {
			return true
		}
	}
	return false
}

func NewLocationType(s string) (LocationType, error) {
	l := LocationType(s)
	if !l.IsValid() {
		return "", ErrInvalidLocationType
	}
	return l, nil
}

type VehicleType string

const (
	VehicleCar   VehicleType = "car"
	VehicleBike  VehicleType = "bike"
	VehicleTruck VehicleType = "truck"
)

func (v VehicleType) String() string {
	return string(v)
}

func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleCar, VehicleBike, VehicleTruck:
		return true
	default:
		return false
	}
}

func NewVehicleType(s string) (VehicleType, error) {
	v := VehicleType(s)
	if !v.IsValid() {
		return "", ErrInvalidVehicleType
	}
	return v, nil
}
