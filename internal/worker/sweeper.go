package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"parking-booking/internal/domain/booking"
	"parking-booking/internal/infra/sweeplock"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/errs"
	"parking-booking/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	resultOK      = "ok"
	resultPartial = "partial"
	resultError   = "error"
	resultSkipped = "skipped"
)

// Candidates lists the bookings a tick has to look at.
type Candidates interface {
	ExpiredActive(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	ConfirmableAt(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// Transitioner is satisfied by commands.BookingCommands.
type Transitioner interface {
	TransitionOnTime(ctx context.Context, bookingID uuid.UUID, now time.Time) (booking.Transition, error)
}

type Locker interface {
	TryLock(ctx context.Context) (sweeplock.UnlockFunc, bool, error)
}

type Report struct {
	Completed int
	Confirmed int
	Failed    int
	Skipped   int
	// Ran is false when the tick did not sweep at all.
	Ran bool
}

type Sweeper struct {
	candidates  Candidates
	transitions Transitioner
	locker      Locker
	clock       clock.Clock
	metrics     *metrics.Metrics
	logger      *slog.Logger
	interval    time.Duration

	running atomic.Bool
	cron    *cron.Cron
	cancel  context.CancelFunc
}

func NewSweeper(
	candidates Candidates,
	transitions Transitioner,
	locker Locker,
	clock clock.Clock,
	metrics *metrics.Metrics,
	logger *slog.Logger,
	interval time.Duration,
) *Sweeper {
	if locker == nil {
		locker = sweeplock.Local{}
	}
	return &Sweeper{
		candidates:  candidates,
		transitions: transitions,
		locker:      locker,
		clock:       clock,
		metrics:     metrics,
		logger:      logger.With("component", "sweeper"),
		interval:    interval,
	}
}

// Start runs one sweep right away and then schedules the rest.
func (s *Sweeper) Start(ctx context.Context) error {
	l := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	base, cancel := context.WithCancel(context.Background())
	job := cron.FuncJob(func() {
		s.Sweep(base)
	})
	if _, err := c.AddJob("@every "+s.interval.String(), job); err != nil {
		cancel()
		return errs.Wrap(err, "schedule sweeper")
	}
	s.cron = c
	s.cancel = cancel

	s.Sweep(ctx)
	c.Start()
	s.logger.Info("sweeper started", "interval", s.interval.String())
	return nil
}

// Stop waits for a running tick to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	defer s.cancel()
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep runs a single tick. Overlapping calls return immediately.
func (s *Sweeper) Sweep(ctx context.Context) Report {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("sweep already running, skipping tick")
		return Report{}
	}
	defer s.running.Store(false)

	started := time.Now()
	unlock, ok, err := s.locker.TryLock(ctx)
	if err != nil {
		s.logger.Error("failed to acquire sweep lease", "error", err.Error())
		s.metrics.ObserveSweep(resultError, time.Since(started))
		return Report{}
	}
	if !ok {
		s.logger.Debug("sweep lease held elsewhere")
		s.metrics.ObserveSweep(resultSkipped, time.Since(started))
		return Report{}
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release sweep lease", "error", err.Error())
		}
	}()

	now := s.clock.Now()
	rep := Report{Ran: true}
	listFailed := false

	expired, err := s.candidates.ExpiredActive(ctx, now)
	if err != nil {
		s.logger.Error("failed to list expired bookings", "error", err.Error())
		listFailed = true
	}
	s.apply(ctx, expired, now, &rep)

	confirmable, err := s.candidates.ConfirmableAt(ctx, now)
	if err != nil {
		s.logger.Error("failed to list confirmable bookings", "error", err.Error())
		listFailed = true
	}
	s.apply(ctx, confirmable, now, &rep)

	result := resultOK
	switch {
	case listFailed && rep.Completed+rep.Confirmed == 0:
		result = resultError
	case listFailed || rep.Failed > 0:
		result = resultPartial
	}
	s.metrics.ObserveSweep(result, time.Since(started))

	if rep.Completed+rep.Confirmed+rep.Failed > 0 {
		s.logger.Info("sweep finished",
			"completed", rep.Completed,
			"confirmed", rep.Confirmed,
			"failed", rep.Failed,
			"skipped", rep.Skipped)
	}
	return rep
}

func (s *Sweeper) apply(ctx context.Context, ids []uuid.UUID, now time.Time, rep *Report) {
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		t, err := s.transitions.TransitionOnTime(ctx, id, now)
		switch {
		case errs.Is(err, booking.ErrStaleBooking):
			// someone else moved it first
			rep.Skipped++
		case err != nil:
			rep.Failed++
			s.logger.Error("failed to transition booking", "booking_id", id, "error", err.Error())
		case t == booking.TransitionCompleted:
			rep.Completed++
		case t == booking.TransitionConfirmed:
			rep.Confirmed++
		default:
			rep.Skipped++
		}
	}
}
