package profiler

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, port int) *Server {
	t.Helper()
	server := New(port)
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})
	return server
}

func TestServer_Start_binds_loopback(t *testing.T) {
	server := startServer(t, 0)

	host, port, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)
	assert.True(t, net.ParseIP(host).IsLoopback(), "listening on %s", host)
	assert.NotEqual(t, "0", port)
}

func TestServer_Start_port_in_use(t *testing.T) {
	taken := startServer(t, 0)
	_, portStr, err := net.SplitHostPort(taken.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	err = New(port).Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create listener")
}

func TestServer_Addr_before_start(t *testing.T) {
	assert.Empty(t, New(0).Addr())
}

func TestServer_logs_as_component(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	server := startServer(t, 0)

	assert.Contains(t, buf.String(), `"cmp":"profiler"`)
	assert.Contains(t, buf.String(), server.Addr())
}

func TestServer_PprofEndpoints(t *testing.T) {
	server := startServer(t, 0)
	baseURL := "http://" + server.Addr()

	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "index", endpoint: "/debug/pprof/"},
		{name: "cmdline", endpoint: "/debug/pprof/cmdline"},
		{name: "symbol", endpoint: "/debug/pprof/symbol"},
		{name: "goroutine", endpoint: "/debug/pprof/goroutine?debug=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(baseURL + tt.endpoint)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}
