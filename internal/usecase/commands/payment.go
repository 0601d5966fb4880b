package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/domain/user"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/errs"
	"parking-booking/internal/pkg/metrics"
	"parking-booking/internal/usecase/queries"
	"parking-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrGatewayNotConfigured = errs.Kind("Payment gateway not configured. Please contact administrator.", errs.ErrGatewayUnavailable)
	ErrGatewayCallFailed    = errs.Kind("payment gateway is unavailable, please try again later", errs.ErrGatewayUnavailable)
	ErrInvalidSignature     = errs.Kind("Invalid payment signature", errs.ErrSignature)
	ErrPaymentFieldsMissing = errs.Kind("order id, payment id and signature are required", errs.ErrValidation)
)

const receiptPrefix = "booking_"

type PaymentSettings struct {
	Currency string
	Timeout  time.Duration
}

type VerifyPaymentInput struct {
	BookingID uuid.UUID
	OrderID   string
	PaymentID string
	Signature string
}

type OrderResult struct {
	BookingID   uuid.UUID
	OrderID     string
	AmountMinor int64
	Currency    string
	KeyID       string
}

type PaymentCommands interface {
	CreateOrder(ctx context.Context, actor user.Actor, bookingID uuid.UUID) (*OrderResult, error)
	VerifyPayment(ctx context.Context, actor user.Actor, in VerifyPaymentInput) (*queries.BookingView, error)
	RecordFailure(ctx context.Context, actor user.Actor, bookingID uuid.UUID, reason string) (*queries.BookingView, error)
}

type paymentCommandsImpl struct {
	uow      shared.UnitOfWork
	reads    queries.BookingQueries
	gateway  PaymentGateway
	settings PaymentSettings
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewPaymentCommands accepts a nil gateway; every gateway-backed operation
// then fails with ErrGatewayNotConfigured.
func NewPaymentCommands(
	uow shared.UnitOfWork,
	reads queries.BookingQueries,
	gateway PaymentGateway,
	settings PaymentSettings,
	clock clock.Clock,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) PaymentCommands {
	return &paymentCommandsImpl{
		uow:      uow,
		reads:    reads,
		gateway:  gateway,
		settings: settings,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

func (c *paymentCommandsImpl) CreateOrder(ctx context.Context, actor user.Actor, bookingID uuid.UUID) (*OrderResult, error) {
	if c.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	var (
		amount int64
		userID uuid.UUID
	)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}
		if err := checkPayable(actor, b); err != nil {
			return err
		}
		amount = b.TotalPrice().Minor()
		userID = b.UserID()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// the provider call stays outside the transaction
	callCtx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()
	order, err := c.gateway.CreateOrder(callCtx, OrderRequest{
		AmountMinor: amount,
		Currency:    c.settings.Currency,
		Receipt:     receiptPrefix + bookingID.String(),
		Notes: map[string]string{
			"bookingId": bookingID.String(),
			"userId":    userID.String(),
		},
	})
	if err != nil {
		c.logger.Error("payment order creation failed", "booking_id", bookingID, "error", err.Error())
		return nil, ErrGatewayCallFailed
	}

	now := c.clock.Now()
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}
		expected := b.State()
		if err := b.RecordOrder(order.ID, now); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b, expected); err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("payment order created", "booking_id", bookingID, "order_id", order.ID, "amount", order.AmountMinor)
	return &OrderResult{
		BookingID:   bookingID,
		OrderID:     order.ID,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		KeyID:       c.gateway.KeyID(),
	}, nil
}

func (c *paymentCommandsImpl) VerifyPayment(ctx context.Context, actor user.Actor, in VerifyPaymentInput) (*queries.BookingView, error) {
	if c.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, ErrPaymentFieldsMissing
	}
	// nothing is read or written before the signature holds
	if !c.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		c.logger.Warn("payment signature mismatch", "booking_id", in.BookingID, "order_id", in.OrderID)
		return nil, ErrInvalidSignature
	}

	now := c.clock.Now()
	var (
		from    booking.Status
		to      booking.Status
		changed bool
	)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, in.BookingID)
		if err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}
		if !actor.CanAccess(b.UserID()) {
			return booking.ErrNotBookingOwner
		}

		expected := b.State()
		changed, err = b.ConfirmPayment(in.OrderID, in.PaymentID, now)
		if err != nil || !changed {
			return err
		}
		if err := tx.Bookings().Update(ctx, b, expected); err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}
		from, to = expected.Status, b.Status()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		c.logger.Info("payment verified", "booking_id", in.BookingID, "payment_id", in.PaymentID)
		if from != to {
			c.metrics.IncTransition(from.String(), to.String(), shared.SourcePayment.String())
		}
	}
	return c.reads.GetBookingSystem(ctx, in.BookingID)
}

func (c *paymentCommandsImpl) RecordFailure(ctx context.Context, actor user.Actor, bookingID uuid.UUID, reason string) (*queries.BookingView, error) {
	now := c.clock.Now()
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}
		if !actor.CanAccess(b.UserID()) {
			return booking.ErrNotBookingOwner
		}

		expected := b.State()
		if err := b.RecordPaymentFailure(reason, now); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b, expected); err != nil {
			return bookingRepoErr(err, booking.ErrStaleBooking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("payment failure recorded", "booking_id", bookingID)
	return c.reads.GetBookingSystem(ctx, bookingID)
}

// checkPayable allows only the owner to start a payment.
func checkPayable(actor user.Actor, b *booking.Booking) error {
	if actor.ID != b.UserID() {
		return booking.ErrNotBookingOwner
	}
	if b.PaymentStatus() == booking.PaymentCompleted {
		return booking.ErrAlreadyPaid
	}
	if b.Status().IsTerminal() {
		return booking.ErrTerminalState
	}
	return nil
}
