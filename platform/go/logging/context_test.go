package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithTenantEnrichesContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	ctx = WithTenant(ctx, "acme-corp")

	logger, ok := FromContext(ctx)
	require.True(t, ok)
	logger.Info("handled")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "acme-corp", entries[0].ContextMap()["tenant"])
}

func TestWithTenantWithoutLoggerIsNoop(t *testing.T) {
	ctx := WithTenant(context.Background(), "acme-corp")

	_, ok := FromContext(ctx)
	require.False(t, ok)
}

func TestFromRequestFallsBack(t *testing.T) {
	fallback := zap.NewNop()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	require.Same(t, fallback, FromRequest(r, fallback))
}

func TestRequestLoggerEmitsCompletionEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	var sawContextLogger bool
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawContextLogger = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.True(t, sawContextLogger)
	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.EqualValues(t, http.StatusTeapot, fields["status"])
	require.Equal(t, "/api/customers", fields["path"])
}
