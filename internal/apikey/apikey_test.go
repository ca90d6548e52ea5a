package apikey

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.Empty(t, FromContext(ctx))

	ctx = WithKey(ctx, "sk-test")
	require.Equal(t, "sk-test", FromContext(ctx))
}

func TestResolve_Precedence(t *testing.T) {
	t.Setenv(EnvVar, "from-env")

	ctx := WithKey(context.Background(), "from-ctx")

	require.Equal(t, "override", Resolve(ctx, "override"))
	require.Equal(t, "from-ctx", Resolve(ctx, ""))
	require.Equal(t, "from-env", Resolve(context.Background(), ""))
}
