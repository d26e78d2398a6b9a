package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "sentinel:"}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewClient_Success(t *testing.T) {
	c, _ := newTestClient(t)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	c, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1"}, logging.NewNopLogger())
	require.Error(t, err)
	assert.Nil(t, c)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError))
}

func TestClient_Key(t *testing.T) {
	c, _ := newTestClient(t)
	assert.Equal(t, "sentinel:lock:sweep:org-1", c.Key("lock", "sweep:org-1"))
	assert.Equal(t, "sentinel:", c.Key())
}

func TestClient_Close(t *testing.T) {
	c, _ := newTestClient(t)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Ping(context.Background()), ErrClientClosed)
}

//Personal.AI order the ending
