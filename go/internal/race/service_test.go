package race

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/racedash/go/internal/rpc"
	"github.com/mcdev12/racedash/go/internal/store"
)

const testToken = "s3cret"

func newTestServer(t *testing.T) (*httptest.Server, *clockwork.FakeClock) {
	t.Helper()
	mem := store.NewMemory()
	t.Cleanup(func() { _ = mem.Close() })

	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	repo := NewRepository(mem)
	svc := NewService(NewApp(repo, repo, clock))

	mux := http.NewServeMux()
	path, handler := rpc.NewRaceServiceHandler(svc, connect.WithInterceptors(rpc.NewAdminAuth(testToken).Interceptor()))
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, clock
}

func adminClient(srv *httptest.Server) *rpc.RaceServiceClient {
	return rpc.NewRaceServiceClient(srv.Client(), srv.URL, connect.WithInterceptors(rpc.BearerToken(testToken)))
}

func TestServiceTimerRoundTrip(t *testing.T) {
	srv, clock := newTestServer(t)
	client := adminClient(srv)
	ctx := context.Background()

	start, err := client.StartTimer(ctx, connect.NewRequest(&rpc.StartTimerRequest{}))
	require.NoError(t, err)
	assert.True(t, start.Msg.Timer.Running)
	assert.Equal(t, "00:00:00", start.Msg.Timer.Display)

	clock.Advance(3661 * time.Second)
	got, err := client.GetTimer(ctx, connect.NewRequest(&rpc.GetTimerRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "01:01:01", got.Msg.Timer.Display)

	stop, err := client.StopTimer(ctx, connect.NewRequest(&rpc.StopTimerRequest{}))
	require.NoError(t, err)
	assert.False(t, stop.Msg.Timer.Running)
	assert.Equal(t, int64(3_661_000), stop.Msg.Timer.Elapsed)

	_, err = client.ResetTimer(ctx, connect.NewRequest(&rpc.ResetTimerRequest{}))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	reset, err := client.ResetTimer(ctx, connect.NewRequest(&rpc.ResetTimerRequest{Confirmed: true}))
	require.NoError(t, err)
	assert.Equal(t, "00:00:00", reset.Msg.Timer.Display)
	assert.Zero(t, reset.Msg.Timer.Elapsed)
}

func TestServiceDrivers(t *testing.T) {
	srv, _ := newTestServer(t)
	client := adminClient(srv)
	ctx := context.Background()

	_, err := client.AddDriver(ctx, connect.NewRequest(&rpc.AddDriverRequest{Name: "  "}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	first, err := client.AddDriver(ctx, connect.NewRequest(&rpc.AddDriverRequest{Name: "Senna", Team: "McLaren", Car: "MP4/4"}))
	require.NoError(t, err)
	second, err := client.AddDriver(ctx, connect.NewRequest(&rpc.AddDriverRequest{Name: "Prost", Team: "McLaren", Car: "MP4/4"}))
	require.NoError(t, err)

	list, err := client.ListDrivers(ctx, connect.NewRequest(&rpc.ListDriversRequest{}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Drivers, 2)
	ids := []string{list.Msg.Drivers[0].Id, list.Msg.Drivers[1].Id}
	assert.ElementsMatch(t, []string{first.Msg.Driver.Id, second.Msg.Driver.Id}, ids)
	assert.Less(t, ids[0], ids[1])

	export, err := client.ExportDrivers(ctx, connect.NewRequest(&rpc.ExportDriversRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "Senna", export.Msg.Drivers[first.Msg.Driver.Id].Name)

	_, err = client.DeleteDriver(ctx, connect.NewRequest(&rpc.DeleteDriverRequest{Id: "bad/id", Confirmed: true}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.DeleteDriver(ctx, connect.NewRequest(&rpc.DeleteDriverRequest{Id: first.Msg.Driver.Id, Confirmed: true}))
	require.NoError(t, err)
	_, err = client.ClearDrivers(ctx, connect.NewRequest(&rpc.ClearDriversRequest{Confirmed: true}))
	require.NoError(t, err)

	list, err = client.ListDrivers(ctx, connect.NewRequest(&rpc.ListDriversRequest{}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Drivers)
}

func TestServiceRejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t)
	anonymous := rpc.NewRaceServiceClient(srv.Client(), srv.URL)
	wrong := rpc.NewRaceServiceClient(srv.Client(), srv.URL, connect.WithInterceptors(rpc.BearerToken("nope")))
	ctx := context.Background()

	for _, client := range []*rpc.RaceServiceClient{anonymous, wrong} {
		_, err := client.StartTimer(ctx, connect.NewRequest(&rpc.StartTimerRequest{}))
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		_, err = client.ExportDrivers(ctx, connect.NewRequest(&rpc.ExportDriversRequest{}))
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	}

	// reads stay open
	_, err := anonymous.GetTimer(ctx, connect.NewRequest(&rpc.GetTimerRequest{}))
	require.NoError(t, err)
	_, err = anonymous.ListDrivers(ctx, connect.NewRequest(&rpc.ListDriversRequest{}))
	require.NoError(t, err)
}
