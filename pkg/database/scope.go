package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// ScopeKey is the context key for storing the request-scoped database connection.
const ScopeKey contextKey = "dbScope"

// Scope wraps a pooled connection held for the duration of one request.
type Scope struct {
	Conn *pgxpool.Conn
}

// Close releases the connection to the pool. Safe to call on a nil-conn scope.
func (s *Scope) Close() {
	if s.Conn == nil {
		return
	}
	s.Conn.Release()
}

// Acquire takes a connection from the pool.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) Acquire(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Scope{Conn: conn}, nil
}

// GetScope retrieves the request-scoped database connection from context.
// Returns nil and false if not present.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok && scope != nil && scope.Conn != nil
}

// SetScope stores the database connection in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// Acquirer hands out pooled connections. *DB implements it.
type Acquirer interface {
	Acquire(ctx context.Context) (*Scope, error)
}

var _ Acquirer = (*DB)(nil)

// WithNewScope runs fn with its own pooled connection in ctx. A request's
// scope connection must not be shared between goroutines, so concurrent work
// acquires one scope per goroutine through this helper.
func WithNewScope(ctx context.Context, a Acquirer, fn func(ctx context.Context) error) error {
	scope, err := a.Acquire(ctx)
	if err != nil {
		return err
	}
	defer scope.Close()

	return fn(SetScope(ctx, scope))
}
