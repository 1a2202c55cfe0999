package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busnap/tracking-bridge/internal/pkg/config"
	"github.com/busnap/tracking-bridge/pkg/logger"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	want := map[string]bool{"serve": false, "start": false, "stop": false, "status": false, "listen": false, "call": false, "version": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		assert.True(t, found, "missing subcommand %q", name)
	}
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "busnap-tracker version test-version-1.0.0")
}

func TestCallCmd_RequiresMethod(t *testing.T) {
	_, err := execute(t, "call")
	assert.Error(t, err)
}

// fakeDaemon answers the command channel like the real router does.
func fakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/channels/location_service/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/channels/location_service/startBackgroundTracking",
			"/v1/channels/location_service/stopBackgroundTracking":
			_, _ = w.Write([]byte(`{"result":true}`))
		default:
			w.WriteHeader(http.StatusNotImplemented)
			_, _ = w.Write([]byte(`{"error":"not implemented"}`))
		}
	})
	mux.HandleFunc("/v1/tracking/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tracking":false,"state":"idle","listening":false,"last_error":"location permission denied"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStartStopCmds(t *testing.T) {
	srv := fakeDaemon(t)

	out, err := execute(t, "--addr", srv.URL, "start")
	require.NoError(t, err)
	assert.Contains(t, out, "startBackgroundTracking: true")

	out, err = execute(t, "--addr", srv.URL, "stop")
	require.NoError(t, err)
	assert.Contains(t, out, "stopBackgroundTracking: true")
}

func TestCallCmd_NotImplemented(t *testing.T) {
	srv := fakeDaemon(t)

	_, err := execute(t, "--addr", srv.URL, "call", "getLastLocation")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "getLastLocation: not implemented")
}

func TestStatusCmd_ShowsLastError(t *testing.T) {
	srv := fakeDaemon(t)

	out, err := execute(t, "--addr", srv.URL, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "State:     idle")
	assert.Contains(t, out, "Last error: location permission denied")
}

func wireConfig(providerName string) *config.Config {
	return &config.Config{
		Port: "0",
		Tracking: config.TrackingConfig{
			Provider:     providerName,
			NMEADevice:   "/dev/null",
			LeaseTTL:     30 * time.Second,
			IntentBuffer: 4,
		},
	}
}

func TestWire_ProviderSelectsIngestRoute(t *testing.T) {
	logger.Init(logger.Options{Output: io.Discard})

	tests := []struct {
		provider string
		wantCode int
	}{
		{config.ProviderPush, http.StatusConflict},
		{config.ProviderNMEA, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.provider, func(t *testing.T) {
			d, err := wire(context.Background(), wireConfig(tc.provider), logger.Get(), prometheus.NewRegistry())
			require.NoError(t, err)
			require.NotNil(t, d.tracking)
			require.NotNil(t, d.looper)

			req := httptest.NewRequest(http.MethodPost, "/v1/provider/fixes", strings.NewReader(`{"latitude":1,"longitude":2}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			d.router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.False(t, d.tracking.Status().Tracking())
		})
	}
}
