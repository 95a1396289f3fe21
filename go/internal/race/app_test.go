package race

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/store"
)

// countingStore records mutating calls and can pause after reads.
type countingStore struct {
	store.Store
	writes    atomic.Int32
	afterRead func()
}

func (c *countingStore) ReadOnce(ctx context.Context, path string) (json.RawMessage, error) {
	raw, err := c.Store.ReadOnce(ctx, path)
	if c.afterRead != nil {
		c.afterRead()
	}
	return raw, err
}

func (c *countingStore) WriteFull(ctx context.Context, path string, value json.RawMessage) error {
	c.writes.Add(1)
	return c.Store.WriteFull(ctx, path, value)
}

func (c *countingStore) WriteKeyed(ctx context.Context, path string, value json.RawMessage) (string, error) {
	c.writes.Add(1)
	return c.Store.WriteKeyed(ctx, path, value)
}

func (c *countingStore) RemoveKeyed(ctx context.Context, path, id string) error {
	c.writes.Add(1)
	return c.Store.RemoveKeyed(ctx, path, id)
}

func (c *countingStore) RemoveAll(ctx context.Context, path string) error {
	c.writes.Add(1)
	return c.Store.RemoveAll(ctx, path)
}

type fixture struct {
	app   *App
	repo  *Repository
	store *countingStore
	clock *clockwork.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := store.NewMemory()
	t.Cleanup(func() { _ = mem.Close() })

	cs := &countingStore{Store: mem}
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	repo := NewRepository(cs)
	return fixture{
		app:   NewApp(repo, repo, clock),
		repo:  repo,
		store: cs,
		clock: clock,
	}
}

func TestStartTimerFromAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.app.StartTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TimerRecord{Running: true, StartTime: f.clock.Now().UnixMilli(), Elapsed: 0}, *rec)

	stored, err := f.repo.GetTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)
}

func TestStartThenStopAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.PutTimer(ctx, models.StoppedTimer(4_000)))
	_, err := f.app.StartTimer(ctx)
	require.NoError(t, err)

	f.clock.Advance(90 * time.Second)
	rec, err := f.app.StopTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TimerRecord{Running: false, StartTime: 0, Elapsed: 94_000}, *rec)
}

func TestStopRunningRecordWithoutStartTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// written by another client that left startTime out
	require.NoError(t, f.store.WriteFull(ctx, models.PathTimer, json.RawMessage(`{"running":true,"elapsed":5000}`)))

	rec, err := f.app.StopTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StoppedTimer(5_000), *rec)

	stored, err := f.repo.GetTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), stored.Elapsed)
}

func TestDoubleStartRebasesAndKeepsElapsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.PutTimer(ctx, models.StoppedTimer(1_000)))
	_, err := f.app.StartTimer(ctx)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	rec, err := f.app.StartTimer(ctx)
	require.NoError(t, err)
	assert.True(t, rec.Running)
	assert.Equal(t, f.clock.Now().UnixMilli(), rec.StartTime)
	assert.Equal(t, int64(1_000), rec.Elapsed)
}

func TestStopWithoutRecordWritesNothing(t *testing.T) {
	f := newFixture(t)

	rec, err := f.app.StopTimer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.TimerRecord{}, *rec)
	assert.Equal(t, int32(0), f.store.writes.Load())
}

func TestResetFromAnyState(t *testing.T) {
	states := []models.TimerRecord{
		models.StoppedTimer(0),
		models.StoppedTimer(55_000),
		models.RunningTimer(time.UnixMilli(1_699_999_000_000), 12_000),
	}
	for _, state := range states {
		f := newFixture(t)
		ctx := context.Background()
		require.NoError(t, f.repo.PutTimer(ctx, state))

		rec, err := f.app.ResetTimer(ctx, ResetTimerRequest{Confirmed: true})
		require.NoError(t, err)
		assert.Equal(t, models.TimerRecord{}, *rec)

		stored, err := f.repo.GetTimer(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.TimerRecord{}, *stored)
	}
}

func TestUnconfirmedDestructiveCommandsAreNoOps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.app.ResetTimer(ctx, ResetTimerRequest{})
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.ErrorIs(t, f.app.DeleteDriver(ctx, DeleteDriverRequest{ID: "abc"}), ErrNotConfirmed)
	assert.ErrorIs(t, f.app.ClearDrivers(ctx, ClearDriversRequest{}), ErrNotConfirmed)
	assert.Equal(t, int32(0), f.store.writes.Load())
}

func TestAddDriverTrimsAndStamps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, rec, err := f.app.AddDriver(ctx, AddDriverRequest{Name: "  Ayrton Senna ", Team: " McLaren", Car: "MP4/4  "})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, models.DriverRecord{
		Name:      "Ayrton Senna",
		Team:      "McLaren",
		Car:       "MP4/4",
		CreatedAt: f.clock.Now().UnixMilli(),
	}, *rec)

	drivers, err := f.app.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Drivers{id: *rec}, drivers)
}

func TestAddDriverBlankNameWritesNothing(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"", "   ", "\t\n"} {
		_, _, err := f.app.AddDriver(context.Background(), AddDriverRequest{Name: name, Team: "x"})
		assert.ErrorIs(t, err, ErrDriverNameRequired)
	}
	assert.Equal(t, int32(0), f.store.writes.Load())
}

func TestDeleteAndClearDrivers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _, err := f.app.AddDriver(ctx, AddDriverRequest{Name: "A"})
	require.NoError(t, err)
	b, _, err := f.app.AddDriver(ctx, AddDriverRequest{Name: "B"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.app.DeleteDriver(ctx, DeleteDriverRequest{ID: " ", Confirmed: true}), ErrDriverIDRequired)

	require.NoError(t, f.app.DeleteDriver(ctx, DeleteDriverRequest{ID: a, Confirmed: true}))
	drivers, err := f.app.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, drivers.IDs())

	require.NoError(t, f.app.ClearDrivers(ctx, ClearDriversRequest{Confirmed: true}))
	drivers, err = f.app.ExportDrivers(ctx)
	require.NoError(t, err)
	assert.Empty(t, drivers)
}

func TestConcurrentAdminsLastWriterWins(t *testing.T) {
	mem := store.NewMemory()
	defer mem.Close()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))

	// admin A pauses between its read and its write
	readDone := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	slow := &countingStore{Store: mem, afterRead: func() {
		once.Do(func() {
			close(readDone)
			<-release
		})
	}}
	adminA := NewApp(NewRepository(slow), NewRepository(slow), clock)
	adminB := NewApp(NewRepository(mem), NewRepository(mem), clock)

	seed := NewRepository(mem)
	require.NoError(t, seed.PutTimer(ctx, models.RunningTimer(clock.Now(), 0)))
	clock.Advance(30 * time.Second)

	errA := make(chan error, 1)
	go func() {
		_, err := adminA.StopTimer(ctx)
		errA <- err
	}()
	<-readDone

	// admin B restarts the timer while A holds a stale read
	clock.Advance(5 * time.Second)
	_, err := adminB.StartTimer(ctx)
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-errA)

	// A's write lands last and B's start is lost
	final, err := seed.GetTimer(ctx)
	require.NoError(t, err)
	assert.False(t, final.Running)
	assert.Equal(t, int64(35_000), final.Elapsed)
}
