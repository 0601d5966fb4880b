package response

import (
	"parking-booking/internal/usecase/commands"

	"github.com/google/uuid"
)

// OrderResponse is what the checkout widget needs. Amount is in paise.
type OrderResponse struct {
	Message   string    `json:"message"`
	BookingID uuid.UUID `json:"bookingId"`
	OrderID   string    `json:"orderId"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	KeyID     string    `json:"keyId"`
}

func FromOrderResult(msg string, r *commands.OrderResult) *OrderResponse {
	return &OrderResponse{
		Message:   msg,
		BookingID: r.BookingID,
		OrderID:   r.OrderID,
		Amount:    r.AmountMinor,
		Currency:  r.Currency,
		KeyID:     r.KeyID,
	}
}
