package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes recognized by ErrorMap.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

// ErrorMap names the domain errors a repository surfaces in place of
// driver errors. A nil field leaves the matching driver error unchanged.
type ErrorMap struct {
	NotFound  error
	Duplicate error
	Invalid   error
}

// Map translates err: sql.ErrNoRows becomes NotFound, a unique violation
// becomes Duplicate, and a check constraint violation becomes Invalid.
func (m ErrorMap) Map(err error) error {
	if err == nil {
		return nil
	}

	var (
		target error
		pgErr  *pgconn.PgError
	)
	if errors.Is(err, sql.ErrNoRows) {
		target = m.NotFound
	} else if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			target = m.Duplicate
		case codeCheckViolation:
			target = m.Invalid
		}
	}

	if target == nil {
		return err
	}
	return target
}
