package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_ExclusivePerName(t *testing.T) {
	client, _ := newTestClient(t)
	g := NewGuard(client, time.Minute)
	ctx := context.Background()

	release, ok, err := g.TryAcquire(ctx, "sweep:org-1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = g.TryAcquire(ctx, "sweep:org-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = g.TryAcquire(ctx, "sweep:org-2")
	require.NoError(t, err)
	assert.True(t, ok, "other organizations are independent")

	release()
	_, ok, err = g.TryAcquire(ctx, "sweep:org-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

//Personal.AI order the ending
