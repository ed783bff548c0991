package tenant

import "errors"

// Resolution and binding failures. The HTTP layer maps these to status codes;
// services compare with errors.Is instead of matching message text.
var (
	// ErrMissingIdentifier is returned when a non-public request carries no
	// tenant identifier in header, query or claims.
	ErrMissingIdentifier = errors.New("tenant identifier is required")

	// ErrNotFound is returned when the identifier does not match any tenant
	// in the directory.
	ErrNotFound = errors.New("tenant not found")

	// ErrInactive is returned when the tenant exists but has been disabled
	// by an administrator.
	ErrInactive = errors.New("tenant is inactive")

	// ErrDatabaseUnreachable is returned when the tenant database cannot be
	// opened for the current request.
	ErrDatabaseUnreachable = errors.New("tenant database unreachable")

	// ErrNoTenantBound is returned by the context accessors when called
	// outside a tenant-scoped request.
	ErrNoTenantBound = errors.New("no tenant bound to request")
)
