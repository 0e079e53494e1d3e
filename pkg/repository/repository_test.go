package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/rackscan/pkg/repository"
)

var (
	errScanNotFound = errors.New("scan not found")
	errDuplicate    = errors.New("duplicate case")
	errInvalid      = errors.New("invalid case")
)

func TestErrorMap(t *testing.T) {
	m := repository.ErrorMap{
		NotFound:  errScanNotFound,
		Duplicate: errDuplicate,
		Invalid:   errInvalid,
	}
	other := errors.New("connection reset")
	fkErr := &pgconn.PgError{Code: "23503"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errScanNotFound},
		{"wrapped no rows", fmt.Errorf("find: %w", sql.ErrNoRows), errScanNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"check violation", &pgconn.PgError{Code: "23514"}, errInvalid},
		{"other postgres code", fkErr, fkErr},
		{"passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Map(tt.err); got != tt.want {
				t.Errorf("Map(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorMapNilFieldPassesThrough(t *testing.T) {
	m := repository.ErrorMap{NotFound: errScanNotFound}
	check := &pgconn.PgError{Code: "23514"}

	if got := m.Map(check); got != check {
		t.Errorf("Map(check violation) = %v, want original error", got)
	}
}
