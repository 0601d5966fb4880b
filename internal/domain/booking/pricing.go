package booking

import (
	"time"

	"parking-booking/internal/domain/money"
)

type Quote struct {
	Hours int
	Total money.Money
}

// Price bills every started hour as a full hour.
func Price(start, end time.Time, ratePerHour money.Money) (Quote, error) {
	if !end.After(start) {
		return Quote{}, ErrInvalidInterval
	}
	d := end.Sub(start)
	// Sub saturates at MaxInt64, so the bound also keeps the round-up from wrapping.
	if d > MaxBookingDuration {
		return Quote{}, ErrIntervalTooLong
	}
	hours := int64((d + time.Hour - 1) / time.Hour)
	total, err := ratePerHour.Times(hours)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Hours: int(hours),
		Total: total,
	}, nil
}
