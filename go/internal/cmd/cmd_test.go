package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/racedash/go/internal/config"
	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/race"
	"github.com/mcdev12/racedash/go/internal/store"
)

const testToken = "pit-wall"

type testServer struct {
	services *Services
	clock    *clockwork.FakeClock
	url      string
}

// newTestServer serves a memory store over httptest and points the client
// commands at it with token.
func newTestServer(t *testing.T, token string) *testServer {
	t.Helper()

	st := store.NewMemory()
	t.Cleanup(func() { _ = st.Close() })

	serverCfg := config.Default()
	serverCfg.AdminToken = testToken

	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	services := setupServices(&serverCfg, st, clock)
	ts := httptest.NewServer(setupServer(&serverCfg, services).Handler)
	t.Cleanup(ts.Close)

	prev := cfg
	cfg = &config.Config{ServerURL: ts.URL, AdminToken: token, TickInterval: time.Second}
	t.Cleanup(func() { cfg = prev })

	return &testServer{services: services, clock: clock, url: ts.URL}
}

func runCommand(t *testing.T, c *cobra.Command, run func(*cobra.Command, []string) error, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	c.SetOut(&out)
	c.SetIn(strings.NewReader(stdin))
	c.SetContext(context.Background())
	t.Cleanup(func() {
		c.SetOut(nil)
		c.SetIn(nil)
	})

	err := run(c, args)
	return out.String(), err
}

func setFlag(t *testing.T, c *cobra.Command, name, value string) {
	t.Helper()
	flag := c.Flags().Lookup(name)
	require.NotNil(t, flag, name)
	prev := flag.Value.String()
	require.NoError(t, c.Flags().Set(name, value))
	t.Cleanup(func() { _ = c.Flags().Set(name, prev) })
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name   string
		yes    bool
		input  string
		expect bool
	}{
		{name: "yes flag skips prompt", yes: true, expect: true},
		{name: "y", input: "y\n", expect: true},
		{name: "YES", input: "YES\n", expect: true},
		{name: "n", input: "n\n", expect: false},
		{name: "empty answer", input: "\n", expect: false},
		{name: "no input", input: "", expect: false},
		{name: "other", input: "sure\n", expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &cobra.Command{Use: "test"}
			c.Flags().Bool("yes", tt.yes, "")
			var out bytes.Buffer
			c.SetOut(&out)
			c.SetIn(strings.NewReader(tt.input))

			assert.Equal(t, tt.expect, confirm(c, "Proceed?"))
			if tt.yes {
				assert.Empty(t, out.String())
			} else {
				assert.Equal(t, "Proceed? [y/N]: ", out.String())
			}
		})
	}
}

func TestTimerCommands(t *testing.T) {
	srv := newTestServer(t, testToken)

	out, err := runCommand(t, timerStartCmd, runTimerStart, "")
	require.NoError(t, err)
	assert.Equal(t, "Timer 00:00:00 (Running)\n", out)

	srv.clock.Advance(65 * time.Second)

	out, err = runCommand(t, timerStopCmd, runTimerStop, "")
	require.NoError(t, err)
	assert.Equal(t, "Timer 00:01:05 (Stopped)\n", out)

	out, err = runCommand(t, timerResetCmd, runTimerReset, "n\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset cancelled.")

	rec, err := srv.services.App.GetTimer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(65_000), rec.Elapsed)

	out, err = runCommand(t, timerResetCmd, runTimerReset, "y\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Timer 00:00:00 (Stopped)")

	rec, err = srv.services.App.GetTimer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StoppedTimer(0), *rec)
}

func TestDriverCommands(t *testing.T) {
	srv := newTestServer(t, testToken)
	ctx := context.Background()

	_, err := runCommand(t, driverAddCmd, runDriverAdd, "")
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	setFlag(t, driverAddCmd, "name", "Ayrton Senna")
	setFlag(t, driverAddCmd, "team", "McLaren")
	setFlag(t, driverAddCmd, "car", "MP4/4")
	out, err := runCommand(t, driverAddCmd, runDriverAdd, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Ayrton Senna (")

	drivers, err := srv.services.App.ListDrivers(ctx)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	id := drivers.IDs()[0]

	out, err = runCommand(t, stateCmd, runState, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Timer: 00:00:00 (Stopped)")
	assert.Contains(t, out, "Drivers (1):")
	assert.Contains(t, out, "Ayrton Senna  McLaren • MP4/4  ["+id+"]")

	out, err = runCommand(t, driverRemoveCmd, runDriverRemove, "n\n", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Delete cancelled.")
	drivers, err = srv.services.App.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Len(t, drivers, 1)

	setFlag(t, driverRemoveCmd, "yes", "true")
	out, err = runCommand(t, driverRemoveCmd, runDriverRemove, "", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)
	drivers, err = srv.services.App.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Empty(t, drivers)
}

func TestDriverClear(t *testing.T) {
	srv := newTestServer(t, testToken)
	ctx := context.Background()

	for _, name := range []string{"Prost", "Piquet"} {
		_, _, err := srv.services.App.AddDriver(ctx, race.AddDriverRequest{Name: name})
		require.NoError(t, err)
	}

	out, err := runCommand(t, driverClearCmd, runDriverClear, "\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Clear cancelled.")
	drivers, err := srv.services.App.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Len(t, drivers, 2)

	out, err = runCommand(t, driverClearCmd, runDriverClear, "y\n")
	require.NoError(t, err)
	assert.Contains(t, out, "All drivers deleted.")
	drivers, err = srv.services.App.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Empty(t, drivers)
}

func TestDriverExport(t *testing.T) {
	srv := newTestServer(t, testToken)
	ctx := context.Background()

	_, _, err := srv.services.App.AddDriver(ctx, race.AddDriverRequest{Name: "Mansell", Team: "Williams", Car: "FW11"})
	require.NoError(t, err)
	want, err := srv.services.App.ExportDrivers(ctx)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), race.ExportFilename)
	setFlag(t, driverExportCmd, "output", path)
	out, err := runCommand(t, driverExportCmd, runDriverExport, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 drivers")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := race.UnmarshalExport(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	setFlag(t, driverExportCmd, "output", "-")
	out, err = runCommand(t, driverExportCmd, runDriverExport, "")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Mansell"`)
}

func TestCommandsRequireAdminToken(t *testing.T) {
	srv := newTestServer(t, "wrong-token")

	_, err := runCommand(t, timerStartCmd, runTimerStart, "")
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = runCommand(t, driverExportCmd, runDriverExport, "")
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	rec, err := srv.services.App.GetTimer(context.Background())
	require.NoError(t, err)
	assert.False(t, rec.Running)

	// reads stay open
	out, err := runCommand(t, stateCmd, runState, "")
	require.NoError(t, err)
	assert.Contains(t, out, "No drivers yet")
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, testToken)

	resp, err := http.Get(srv.url + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestRemoteTarget(t *testing.T) {
	prev := cfg
	cfg = &config.Config{ServerURL: "http://from-config:8080", AdminToken: "config-token"}
	t.Cleanup(func() {
		cfg = prev
		serverFlag = ""
		tokenFlag = ""
	})

	server, token := remoteTarget()
	assert.Equal(t, "http://from-config:8080", server)
	assert.Equal(t, "config-token", token)

	serverFlag = "http://from-flag:9090"
	tokenFlag = "flag-token"
	server, token = remoteTarget()
	assert.Equal(t, "http://from-flag:9090", server)
	assert.Equal(t, "flag-token", token)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	memCfg := config.Default()
	st, err := openStore(ctx, &memCfg)
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, st)
	require.NoError(t, st.Close())

	boltCfg := config.Default()
	boltCfg.StoreBackend = config.BackendBolt
	boltCfg.BoltPath = filepath.Join(t.TempDir(), "racedash.db")
	st, err = openStore(ctx, &boltCfg)
	require.NoError(t, err)
	assert.IsType(t, &store.Bolt{}, st)
	require.NoError(t, st.Close())

	badCfg := config.Default()
	badCfg.StoreBackend = "redis"
	_, err = openStore(ctx, &badCfg)
	assert.ErrorContains(t, err, "unknown store backend")
}
