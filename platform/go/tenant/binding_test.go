package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBindingRoundTrip(t *testing.T) {
	id := uuid.New()
	b := Binding{TenantID: id, Identifier: "acme"}

	ctx := WithBinding(context.Background(), b)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, b, got)

	tenantID, err := CurrentTenantID(ctx)
	require.NoError(t, err)
	require.Equal(t, id, tenantID)
}

func TestUnboundContext(t *testing.T) {
	ctx := context.Background()

	_, ok := FromContext(ctx)
	require.False(t, ok)

	_, err := CurrentTenantID(ctx)
	require.ErrorIs(t, err, ErrNoTenantBound)

	_, err = CurrentHandle(ctx)
	require.ErrorIs(t, err, ErrNoTenantBound)
}

func TestCurrentHandleRequiresHandle(t *testing.T) {
	ctx := WithBinding(context.Background(), Binding{TenantID: uuid.New(), Identifier: "acme"})

	_, err := CurrentHandle(ctx)
	require.ErrorIs(t, err, ErrNoTenantBound)
}
