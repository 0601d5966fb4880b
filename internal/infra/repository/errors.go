package repository

import (
	"errors"

	"parking-booking/internal/infra"
	"parking-booking/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeUniqueViolation     = "23505"
	pgErrCodeForeignKeyViolation = "23503"
	pgErrCodeExclusionViolation  = "23P01"
)

// mapPgErr classifies a driver error into a repository error kind.
func mapPgErr(msg string, err error) error {
	if pgconv.IsNoRows(err) {
		return infra.WrapRepoErr(msg, err, infra.KindNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrCodeUniqueViolation:
			return infra.WrapRepoErr(msg, err, infra.KindDuplicateKey)
		case pgErrCodeForeignKeyViolation:
			return infra.WrapRepoErr(msg, err, infra.KindForeignKeyViolated)
		case pgErrCodeExclusionViolation:
			return infra.WrapRepoErr(msg, err, infra.KindConflict)
		}
	}
	return infra.WrapRepoErr(msg, err)
}
