package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/corelinehq/coreline-crm/platform/go/auth"
	"github.com/corelinehq/coreline-crm/platform/go/httpx"
	"github.com/corelinehq/coreline-crm/platform/go/logging"
	"github.com/corelinehq/coreline-crm/platform/go/metrics"
	"github.com/corelinehq/coreline-crm/platform/go/tenant"
)

// HeaderTenantIdentifier is the explicit routing header, checked first.
const HeaderTenantIdentifier = "X-Tenant-Identifier"

// QueryTenantIdentifier is the query-parameter fallback, checked second.
const QueryTenantIdentifier = "tenant"

// DefaultPublicPrefixes lists the path prefixes that bypass tenant resolution:
// authentication, tenant and role administration (they operate on the
// directory store directly), health checks, metrics and documentation.
var DefaultPublicPrefixes = []string{
	"/api/auth",
	"/api/tenants",
	"/api/roles",
	"/healthz",
	"/readyz",
	"/metrics",
	"/docs",
}

// Resolver maps a tenant identifier to its routing descriptor. Implemented by
// the tenants service; read-only against the directory store.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) (tenant.Descriptor, error)
}

// Opener dials a tenant database for the duration of one request.
type Opener interface {
	Open(ctx context.Context, dsn string) (tenant.DataHandle, error)
}

// Config controls middleware behavior.
type Config struct {
	// PublicPrefixes overrides the allow-list; nil uses DefaultPublicPrefixes.
	PublicPrefixes []string
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
}

// ResolveAndBind is the guard in front of every tenant-scoped handler. It
// extracts the tenant identifier (header, then query parameter, then
// authenticated claim), looks the tenant up in the directory, opens the
// tenant's isolated database and binds both onto the request context. The
// handle is closed unconditionally when the request completes. Failures
// short-circuit before any downstream handler runs, so handlers never need to
// defend against an unbound tenant.
func ResolveAndBind(resolver Resolver, opener Opener, cfg Config) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}
	if opener == nil {
		panic("tenant middleware: opener is required")
	}
	if cfg.Logger == nil {
		panic("tenant middleware: logger is required")
	}

	prefixes := cfg.PublicPrefixes
	if prefixes == nil {
		prefixes = DefaultPublicPrefixes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path, prefixes) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			logger := logging.FromRequest(r, cfg.Logger)

			identifier, err := identifierFromRequest(r)
			if err != nil {
				cfg.Metrics.ObserveResolution("missing", start)
				logger.Warn("tenant identifier not found in request", zap.Error(err))
				httpx.WriteError(w, http.StatusBadRequest,
					"Tenant identifier is required. Ensure you are logged in and have a valid tenant.")
				return
			}

			desc, err := resolver.Resolve(r.Context(), identifier)
			if err != nil {
				switch {
				case errors.Is(err, tenant.ErrNotFound):
					cfg.Metrics.ObserveResolution("not_found", start)
					logger.Warn("tenant not found", zap.String("tenant", identifier))
					httpx.WriteError(w, http.StatusNotFound,
						fmt.Sprintf("Tenant with identifier '%s' not found. Please contact your administrator.", identifier))
				case errors.Is(err, tenant.ErrInactive):
					cfg.Metrics.ObserveResolution("inactive", start)
					logger.Warn("tenant is inactive", zap.String("tenant", identifier))
					httpx.WriteError(w, http.StatusForbidden,
						"Your tenant account is inactive. Please contact your administrator.")
				default:
					cfg.Metrics.ObserveResolution("error", start)
					logger.Error("tenant resolution failed", zap.String("tenant", identifier), zap.Error(err))
					httpx.WriteError(w, http.StatusInternalServerError,
						"An error occurred while processing your request. Please try again later.")
				}
				return
			}

			handle, err := opener.Open(r.Context(), desc.ConnectionDSN)
			if err != nil {
				cfg.Metrics.ObserveResolution("unreachable", start)
				logger.Error("tenant database unreachable", zap.String("tenant", desc.Identifier), zap.Error(err))
				httpx.WriteError(w, http.StatusServiceUnavailable,
					"Tenant database is temporarily unavailable. Please try again later.")
				return
			}
			defer func() {
				// The request context may already be canceled; closing gets
				// its own deadline so the connection is always released.
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = handle.Close(closeCtx)
			}()

			cfg.Metrics.ObserveResolution("ok", start)

			binding := tenant.Binding{
				TenantID:   desc.TenantID,
				Identifier: desc.Identifier,
				Handle:     handle,
			}
			ctx := tenant.WithBinding(r.Context(), binding)
			ctx = logging.WithTenant(logging.WithLogger(ctx, logger), desc.Identifier)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identifierFromRequest applies the precedence order: explicit header, query
// parameter, then the TenantIdentifier claim of an authenticated principal.
func identifierFromRequest(r *http.Request) (string, error) {
	if v := strings.TrimSpace(r.Header.Get(HeaderTenantIdentifier)); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(r.URL.Query().Get(QueryTenantIdentifier)); v != "" {
		return v, nil
	}
	if creds, ok := auth.UserFromContext(r.Context()); ok && creds.TenantIdentifier != nil {
		if v := strings.TrimSpace(*creds.TenantIdentifier); v != "" {
			return v, nil
		}
	}
	return "", tenant.ErrMissingIdentifier
}

// isPublicPath matches on segment boundaries, like "/api/auth" covering
// "/api/auth/login" but not "/api/authority".
func isPublicPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
