package components

import (
	"log/slog"

	"parking-booking/internal/infra/memstore"
	"parking-booking/internal/infra/readstore"
	"parking-booking/internal/infra/uow"
	"parking-booking/internal/usecase/queries"
	"parking-booking/internal/usecase/shared"
	"parking-booking/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewPersistence,
	),
)

// Persistence is everything the usecases and the sweeper read and write
// through. Both backends provide the same set.
type Persistence struct {
	fx.Out

	UnitOfWork  shared.UnitOfWork
	SlotReads   queries.SlotReadStore
	BookingRead queries.BookingReadStore
	Candidates  worker.Candidates
}

// NewPersistence picks the in-memory store when no pool was opened.
func NewPersistence(pool *pgxpool.Pool, logger *slog.Logger) Persistence {
	if pool == nil {
		store := memstore.New()
		return Persistence{
			UnitOfWork:  store,
			SlotReads:   store.SlotViews(),
			BookingRead: store.BookingViews(),
			Candidates:  store.SweepCandidates(),
		}
	}

	return Persistence{
		UnitOfWork:  uow.NewPostgresUoW(pool, logger),
		SlotReads:   readstore.NewSlotReadStore(pool),
		BookingRead: readstore.NewBookingReadStore(pool),
		Candidates:  readstore.NewSweepCandidateStore(pool),
	}
}
