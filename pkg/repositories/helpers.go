// Package repositories implements PostgreSQL data access for zi-engine.
// Every repository reads its connection from the request scope in ctx.
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zinspection/zi-engine/pkg/apperrors"
)

var errNoScope = errors.New("no database scope in context")

// notFoundOr maps pgx.ErrNoRows to apperrors.ErrNotFound and wraps anything else.
func notFoundOr(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// isUniqueViolation reports a PostgreSQL unique constraint violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// toJSONB marshals v for a JSONB column. Nil slices are stored as [].
func toJSONB[T any](v []T) ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

// fromJSONB unmarshals a JSONB column, treating NULL and empty input as "no value".
func fromJSONB(data []byte, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// rowsIterator is the subset of pgx.Rows the collect helpers need.
type rowsIterator interface {
	rowScanner
	Next() bool
	Err() error
}
