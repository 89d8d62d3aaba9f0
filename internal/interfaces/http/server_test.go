package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CDNAtlas/internal/config"
	"github.com/turtacn/CDNAtlas/internal/testutil"
)

func TestNewServer(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 8080, ReadTimeout: time.Second, WriteTimeout: 2 * time.Second}
	mux := http.NewServeMux()
	s := NewServer(cfg, mux, nil)

	require.NotNil(t, s)
	assert.Equal(t, "127.0.0.1:8080", s.srv.Addr)
	assert.Equal(t, time.Second, s.srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, s.srv.WriteTimeout)
	assert.Equal(t, http.Handler(mux), s.Handler())
}

func TestServer_ServeAndStop(t *testing.T) {
	log := testutil.NewMockLogger()
	s := newStack(t)
	srv := NewServer(config.ServerConfig{ShutdownTimeout: time.Second, MaxBodySize: 64}, s.router, log)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Bodies above MaxBodySize are rejected before decoding completes.
	resp, err = http.Post(base+"/api/v1/criticality", "application/json",
		strings.NewReader(`{"scope":"global","content":{"contentType":"media"},"metrics":{"latency":`+strings.Repeat("1", 128)+`}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.NoError(t, srv.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
	assert.True(t, log.HasMessage("info", "HTTP server listening"))
	assert.True(t, log.HasMessage("info", "HTTP server stopped"))
}

func TestServer_StartFailsOnBadAddress(t *testing.T) {
	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: -1}, http.NewServeMux(), nil)
	assert.Error(t, srv.Start())
}
