package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_NotConfigured(t *testing.T) {
	setupTestServices(t, &Services{})

	_, err := run(t, "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "intelligence service not configured")
}

func TestServe_StopsOnCancel(t *testing.T) {
	w := &mockWarmer{}
	setupTestServices(t, &Services{
		Gatherer:      &mockGatherer{bundle: testBundle()},
		Catalogue:     &mockCatalogue{sources: testSources()},
		Warmer:        w,
		WarmerEnabled: true,
	})
	serveAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	buf := new(bytes.Buffer)
	serveCmd.SetContext(ctx)
	serveCmd.SetOut(buf)
	t.Cleanup(func() {
		serveCmd.SetContext(context.Background())
		serveCmd.SetOut(nil)
	})

	err := runServe(serveCmd, nil)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Synapse listening on 127.0.0.1:0")
	w.mu.Lock()
	defer w.mu.Unlock()
	assert.True(t, w.stopped)
}

func TestMCPServe_NotConfigured(t *testing.T) {
	setupTestServices(t, &Services{})

	_, err := run(t, "mcp", "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "intelligence service not configured")
}

func TestServerAddrDefaults(t *testing.T) {
	prev := serverAddr
	t.Cleanup(func() { serverAddr = prev })

	SetServerAddr("")
	assert.Equal(t, prev, serverAddr)

	SetServerAddr(":9090")
	assert.Equal(t, ":9090", serverAddr)
}
