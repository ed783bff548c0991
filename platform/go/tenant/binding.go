package tenant

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DataHandle is an open session bound to one tenant's isolated database,
// valid only for the lifetime of the current request. *pgx.Conn satisfies it.
type DataHandle interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// Binding captures the resolved tenant identity and its open data handle.
// It is attached to the request context by the resolution middleware once, and
// is immutable afterwards; downstream handlers read it through the accessors
// instead of re-deriving the tenant from claims.
type Binding struct {
	TenantID   uuid.UUID
	Identifier string
	Handle     DataHandle
}

type ctxKey struct{}

// WithBinding returns a derived context carrying the tenant Binding.
func WithBinding(ctx context.Context, b Binding) context.Context {
	return context.WithValue(ctx, ctxKey{}, b)
}

// FromContext extracts the tenant Binding and a boolean indicating presence.
func FromContext(ctx context.Context) (Binding, bool) {
	b, ok := ctx.Value(ctxKey{}).(Binding)
	return b, ok
}

// CurrentTenantID returns the bound tenant id, or ErrNoTenantBound when the
// request never went through tenant resolution.
func CurrentTenantID(ctx context.Context) (uuid.UUID, error) {
	b, ok := FromContext(ctx)
	if !ok {
		return uuid.Nil, ErrNoTenantBound
	}
	return b.TenantID, nil
}

// CurrentHandle returns the bound data handle, or ErrNoTenantBound when the
// request never went through tenant resolution.
func CurrentHandle(ctx context.Context) (DataHandle, error) {
	b, ok := FromContext(ctx)
	if !ok || b.Handle == nil {
		return nil, ErrNoTenantBound
	}
	return b.Handle, nil
}
