package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/testutil"
)

func TestNewServer_Defaults(t *testing.T) {
	s := NewServer(config.ServerConfig{Port: 8080}, http.NotFoundHandler(), testutil.NewMockLogger())

	assert.Equal(t, ":8080", s.Addr())
	assert.Equal(t, 15*time.Second, s.srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, s.shutdownTimeout)
}

func TestServer_ServeAndStop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	logger := testutil.NewMockLogger()
	s := NewServer(config.ServerConfig{ShutdownTimeout: time.Second}, r, logger)

	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/ping", l.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	require.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, <-done)
	assert.True(t, logger.HasMessage("info", "HTTP server stopped"))
}

//Personal.AI order the ending
