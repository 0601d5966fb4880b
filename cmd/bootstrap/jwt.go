package bootstrap

import (
	"parking-booking/internal/handler/middleware"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/config"
	"parking-booking/internal/pkg/jwt"

	"go.uber.org/fx"
)

var JWTModule = fx.Module("jwt",
	fx.Provide(
		NewJWTService,
		func(s *jwt.Service) middleware.ActorVerifier { return s },
	),
)

func NewJWTService(cfg config.Config, clk clock.Clock) *jwt.Service {
	return jwt.NewService(cfg.JWT.Secret, cfg.JWT.Duration, clk)
}
