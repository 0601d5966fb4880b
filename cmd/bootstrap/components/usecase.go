package components

import (
	"log/slog"

	"parking-booking/internal/infra/payment"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/config"
	"parking-booking/internal/usecase/commands"
	"parking-booking/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewPaymentGateway,
	NewPaymentSettings,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewSlotCommands,
		commands.NewBookingCommands,
		commands.NewPaymentCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewSlotQueries,
		queries.NewBookingQueries,
	),
)

// NewPaymentGateway returns nil when credentials are missing; payment
// endpoints then answer 503.
func NewPaymentGateway(cfg config.Config, logger *slog.Logger) commands.PaymentGateway {
	if !cfg.Payment.Configured() {
		logger.Warn("payment gateway not configured, payment endpoints are disabled")
		return nil
	}
	return payment.NewRazorpayClient(payment.Options{
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		BaseURL:   cfg.Payment.BaseURL,
		Timeout:   cfg.Payment.Timeout,
	})
}

func NewPaymentSettings(cfg config.Config) commands.PaymentSettings {
	return commands.PaymentSettings{
		Currency: cfg.Payment.Currency,
		Timeout:  cfg.Payment.Timeout,
	}
}
