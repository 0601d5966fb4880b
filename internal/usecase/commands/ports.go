package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
)

// OrderRequest asks the payment provider for an order. Amount is in minor
// currency units.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
}

// PaymentGateway is the external order-creation and signature-verification
// service. A nil gateway means the integration is not configured.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	// KeyID is the public key handle the client checkout needs.
	KeyID() string
}
