package booking

import (
	"strings"
	"time"
)

const (
	MaxVehicleFieldLength = 64
	MaxBookingDuration    = 366 * 24 * time.Hour
)

// TimeSlot is the half-open interval [start, end).
type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if start.IsZero() || end.IsZero() {
		return TimeSlot{}, ErrTimeRequired
	}
	if !end.After(start) {
		return TimeSlot{}, ErrInvalidInterval
	}
	if end.Sub(start) > MaxBookingDuration {
		return TimeSlot{}, ErrIntervalTooLong
	}
	return TimeSlot{start: start, end: end}, nil
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.end
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.end.Sub(ts.start)
}

// Overlaps uses strict comparisons so back-to-back intervals do not conflict.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.start.Before(other.end) && ts.end.After(other.start)
}

// Covers reports whether t falls inside [start, end).
func (ts TimeSlot) Covers(t time.Time) bool {
	return !t.Before(ts.start) && t.Before(ts.end)
}

// EndedBefore reports whether the interval finished strictly before t.
func (ts TimeSlot) EndedBefore(t time.Time) bool {
	return ts.end.Before(t)
}

type Vehicle struct {
	number string
	model  string
}

func NewVehicle(number, model string) (Vehicle, error) {
	number = strings.TrimSpace(number)
	model = strings.TrimSpace(model)
	if number == "" {
		return Vehicle{}, ErrVehicleNumberRequired
	}
	if len(number) > MaxVehicleFieldLength || len(model) > MaxVehicleFieldLength {
		return Vehicle{}, ErrVehicleFieldTooLong
	}
	return Vehicle{number: number, model: model}, nil
}

func (v Vehicle) Number() string {
	return v.number
}

func (v Vehicle) Model() string {
	return v.model
}
