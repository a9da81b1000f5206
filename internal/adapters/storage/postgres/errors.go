package postgres

import (
	"database/sql"
	"errors"

	"pet-placement/internal/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// mapErr traduce errores del driver a los tipos del dominio.
// Un índice único violado significa que otro llegó primero: conflicto, no 500.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperrors.Conflict("%s already exists (%s)", what, pgErr.ConstraintName)
		case codeSerializationFailure, codeDeadlockDetected:
			return apperrors.Conflict("%s was modified concurrently", what)
		}
	}
	return err
}
