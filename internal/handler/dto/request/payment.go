package request

import (
	"parking-booking/internal/usecase/commands"

	"github.com/google/uuid"
)

// Field names follow the Razorpay checkout callback.

type CreateOrderRequest struct {
	BookingID uuid.UUID `json:"bookingId" binding:"required"`
}

type VerifyPaymentRequest struct {
	BookingID         uuid.UUID `json:"bookingId" binding:"required"`
	RazorpayOrderID   string    `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string    `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string    `json:"razorpay_signature" binding:"required"`
}

func (r VerifyPaymentRequest) ToInput() commands.VerifyPaymentInput {
	return commands.VerifyPaymentInput{
		BookingID: r.BookingID,
		OrderID:   r.RazorpayOrderID,
		PaymentID: r.RazorpayPaymentID,
		Signature: r.RazorpaySignature,
	}
}

type PaymentFailureRequest struct {
	BookingID uuid.UUID `json:"bookingId" binding:"required"`
	Error     string    `json:"error"`
}
