package components

import (
	"context"
	"log/slog"

	"parking-booking/internal/infra/sweeplock"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/config"
	"parking-booking/internal/pkg/metrics"
	"parking-booking/internal/usecase/commands"
	"parking-booking/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewSweepLocker,
		NewSweeper,
	),
	fx.Invoke(registerSweeper),
)

func NewSweepLocker(client *redis.Client, cfg config.Config) worker.Locker {
	if client == nil {
		return sweeplock.Local{}
	}
	return sweeplock.NewRedisLocker(client, sweeplock.DefaultKey, cfg.Sweeper.LockTTL)
}

func NewSweeper(
	candidates worker.Candidates,
	bookings commands.BookingCommands,
	locker worker.Locker,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg config.Config,
) *worker.Sweeper {
	return worker.NewSweeper(candidates, bookings, locker, clk, m, logger, cfg.Sweeper.Interval)
}

func registerSweeper(lc fx.Lifecycle, s *worker.Sweeper, cfg config.Config, logger *slog.Logger) {
	if !cfg.Sweeper.Enabled {
		logger.Info("booking sweeper disabled")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// the start context ends with OnStart; ticks get their own
			return s.Start(context.Background())
		},
		OnStop: s.Stop,
	})
}
