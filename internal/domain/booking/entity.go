package booking

import (
	"strings"
	"time"

	"parking-booking/internal/domain/money"
	"parking-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound       = errs.Kind("booking not found", errs.ErrNotFound)
	ErrNotBookingOwner       = errs.Kind("not authorized to access this booking", errs.ErrForbidden)
	ErrOverlapConflict       = errs.Kind("slot is already booked for the selected time", errs.ErrConflict)
	ErrTerminalState         = errs.Kind("booking is already cancelled or completed", errs.ErrConflict)
	ErrInvalidTransition     = errs.Kind("booking status cannot move backwards", errs.ErrConflict)
	ErrAlreadyPaid           = errs.Kind("payment already completed", errs.ErrConflict)
	ErrStaleBooking          = errs.Kind("booking was modified concurrently", errs.ErrConflict)
	ErrOrderMismatch         = errs.Kind("payment order does not belong to this booking", errs.ErrSignature)
	ErrInvalidInterval       = errs.Kind("end time must be after start time", errs.ErrValidation)
	ErrIntervalTooLong       = errs.Kind("booking cannot be longer than 366 days", errs.ErrValidation)
	ErrTimeRequired          = errs.Kind("start time and end time are required", errs.ErrValidation)
	ErrVehicleNumberRequired = errs.Kind("vehicle number is required", errs.ErrValidation)
	ErrVehicleFieldTooLong   = errs.Kind("vehicle details are too long", errs.ErrValidation)
	ErrInvalidStatus         = errs.Kind("invalid booking status", errs.ErrValidation)
)

const MaxFailureReasonLength = 500

type Booking struct {
	id             uuid.UUID
	userID         uuid.UUID
	slotID         uuid.UUID
	vehicle        Vehicle
	timeSlot       TimeSlot
	totalHours     int
	totalPrice     money.Money
	status         Status
	paymentStatus  PaymentStatus
	paymentID      string
	paymentOrderID string
	failureReason  string
	createdAt      time.Time
	updatedAt      time.Time
}

// NewBooking prices the interval at the given rate and freezes the result.
func NewBooking(userID, slotID uuid.UUID, vehicle Vehicle, ts TimeSlot, ratePerHour money.Money, now time.Time) (*Booking, error) {
	quote, err := Price(ts.Start(), ts.End(), ratePerHour)
	if err != nil {
		return nil, err
	}
	return &Booking{
		id:            uuid.New(),
		userID:        userID,
		slotID:        slotID,
		vehicle:       vehicle,
		timeSlot:      ts,
		totalHours:    quote.Hours,
		totalPrice:    quote.Total,
		status:        StatusPending,
		paymentStatus: PaymentPending,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

type Record struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	SlotID         uuid.UUID
	VehicleNumber  string
	VehicleModel   string
	StartTime      time.Time
	EndTime        time.Time
	TotalHours     int
	TotalPrice     money.Money
	Status         Status
	PaymentStatus  PaymentStatus
	PaymentID      string
	PaymentOrderID string
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func ReconstructBooking(r Record) *Booking {
	return &Booking{
		id:             r.ID,
		userID:         r.UserID,
		slotID:         r.SlotID,
		vehicle:        Vehicle{number: r.VehicleNumber, model: r.VehicleModel},
		timeSlot:       TimeSlot{start: r.StartTime, end: r.EndTime},
		totalHours:     r.TotalHours,
		totalPrice:     r.TotalPrice,
		status:         r.Status,
		paymentStatus:  r.PaymentStatus,
		paymentID:      r.PaymentID,
		paymentOrderID: r.PaymentOrderID,
		failureReason:  r.FailureReason,
		createdAt:      r.CreatedAt,
		updatedAt:      r.UpdatedAt,
	}
}

func (b *Booking) Record() Record {
	return Record{
		ID:             b.id,
		UserID:         b.userID,
		SlotID:         b.slotID,
		VehicleNumber:  b.vehicle.number,
		VehicleModel:   b.vehicle.model,
		StartTime:      b.timeSlot.start,
		EndTime:        b.timeSlot.end,
		TotalHours:     b.totalHours,
		TotalPrice:     b.totalPrice,
		Status:         b.status,
		PaymentStatus:  b.paymentStatus,
		PaymentID:      b.paymentID,
		PaymentOrderID: b.paymentOrderID,
		FailureReason:  b.failureReason,
		CreatedAt:      b.createdAt,
		UpdatedAt:      b.updatedAt,
	}
}

func (b *Booking) Cancel(now time.Time) error {
	if b.status.IsTerminal() {
		return ErrTerminalState
	}
	b.status = StatusCancelled
	b.updatedAt = now
	return nil
}

// ChangeStatus is the administrative override. Setting the current status
// again is a no-op; anything else must follow the forward-only graph.
func (b *Booking) ChangeStatus(next Status, now time.Time) (bool, error) {
	if !next.IsValid() {
		return false, ErrInvalidStatus
	}
	if next == b.status {
		return false, nil
	}
	if b.status.IsTerminal() {
		return false, ErrTerminalState
	}
	if !b.status.CanTransitionTo(next) {
		return false, ErrInvalidTransition
	}
	b.status = next
	b.updatedAt = now
	return true, nil
}

// TimeTransition decides what the clock implies for this booking without
// mutating it.
func (b *Booking) TimeTransition(now time.Time) Transition {
	if b.status.IsActive() && b.timeSlot.EndedBefore(now) {
		return TransitionCompleted
	}
	if b.status == StatusPending && b.paymentStatus == PaymentCompleted && b.timeSlot.Covers(now) {
		return TransitionConfirmed
	}
	return TransitionNone
}

func (b *Booking) ApplyTimeTransition(now time.Time) Transition {
	t := b.TimeTransition(now)
	switch t {
	case TransitionCompleted:
		b.status = StatusCompleted
		b.updatedAt = now
	case TransitionConfirmed:
		b.status = StatusConfirmed
		b.updatedAt = now
	}
	return t
}

func (b *Booking) RecordOrder(orderID string, now time.Time) error {
	if b.paymentStatus == PaymentCompleted {
		return ErrAlreadyPaid
	}
	if b.status.IsTerminal() {
		return ErrTerminalState
	}
	b.paymentOrderID = orderID
	b.updatedAt = now
	return nil
}

// ConfirmPayment applies a verified provider payment. Replaying the same
// payment id is a no-op and reports false.
func (b *Booking) ConfirmPayment(orderID, paymentID string, now time.Time) (bool, error) {
	if b.paymentStatus == PaymentCompleted {
		if b.paymentID == paymentID {
			return false, nil
		}
		return false, ErrAlreadyPaid
	}
	if b.status.IsTerminal() {
		return false, ErrTerminalState
	}
	// a signature only proves the pair came from the provider, not that the
	// order was opened for this booking
	if b.paymentOrderID == "" || b.paymentOrderID != orderID {
		return false, ErrOrderMismatch
	}
	b.paymentID = paymentID
	b.paymentStatus = PaymentCompleted
	b.failureReason = ""
	if b.status == StatusPending {
		b.status = StatusConfirmed
	}
	b.updatedAt = now
	return true, nil
}

func (b *Booking) RecordPaymentFailure(reason string, now time.Time) error {
	if b.paymentStatus == PaymentCompleted {
		return ErrAlreadyPaid
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxFailureReasonLength {
		reason = reason[:MaxFailureReasonLength]
	}
	b.paymentStatus = PaymentFailed
	b.failureReason = reason
	b.updatedAt = now
	return nil
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) UserID() uuid.UUID            { return b.userID }
func (b *Booking) SlotID() uuid.UUID            { return b.slotID }
func (b *Booking) Vehicle() Vehicle             { return b.vehicle }
func (b *Booking) TimeSlot() TimeSlot           { return b.timeSlot }
func (b *Booking) TotalHours() int              { return b.totalHours }
func (b *Booking) TotalPrice() money.Money      { return b.totalPrice }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) PaymentID() string            { return b.paymentID }
func (b *Booking) PaymentOrderID() string       { return b.paymentOrderID }
func (b *Booking) FailureReason() string        { return b.failureReason }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

func (b *Booking) State() State {
	return State{Status: b.status, PaymentStatus: b.paymentStatus}
}
