package components

import (
	"parking-booking/internal/handler"
	"parking-booking/internal/handler/api"
	"parking-booking/internal/handler/middleware"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/config"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewSlotHandler,
		api.NewBookingHandler,
		api.NewPaymentHandler,
		middleware.NewAuthMiddleware,
		func(cfg config.Config, clk clock.Clock) *middleware.RateLimiter {
			return middleware.NewRateLimiter(cfg.RateLimit, clk)
		},
	),
	fx.Invoke(handler.NewRouter),
)
