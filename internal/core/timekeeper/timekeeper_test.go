package timekeeper

import (
	"context"
	"errors"
	"sync"
	"testing"

	"takearest/internal/core/bus"
	"takearest/internal/core/model"
	"takearest/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// manualClock never fires on its own. With fireOnStart it calls the
// callback synchronously from Start, like a timer re-armed inside the
// transition that fires immediately. onStop runs once, from the next Stop,
// to interleave a call with a transition.
type manualClock struct {
	mu          sync.Mutex
	running     bool
	starts      int
	fireOnStart bool
	onStop      func()
}

func (clock *manualClock) Start(fn func()) {
	clock.mu.Lock()
	if clock.running {
		clock.mu.Unlock()
		return
	}
	clock.running = true
	clock.starts++
	fire := clock.fireOnStart
	clock.mu.Unlock()
	if fire {
		fn()
	}
}

func (clock *manualClock) Stop() {
	clock.mu.Lock()
	clock.running = false
	hook := clock.onStop
	clock.onStop = nil
	clock.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (clock *manualClock) Running() bool {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.running
}

func (clock *manualClock) Starts() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.starts
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SessionState() (model.SessionState, error) {
	args := m.Called()
	return args.Get(0).(model.SessionState), args.Error(1)
}

func (m *mockStore) ListAll(ctx context.Context) ([]model.TimingConfiguration, error) {
	args := m.Called(ctx)
	configs, _ := args.Get(0).([]model.TimingConfiguration)
	return configs, args.Error(1)
}

func (m *mockStore) SetLastUsedDurations(workSeconds, restSeconds int) error {
	return m.Called(workSeconds, restSeconds).Error(0)
}

func (m *mockStore) SetLastSelectedID(id int64) error {
	return m.Called(id).Error(0)
}

func newTestEngine(t *testing.T, store Store) (*Engine, *manualClock) {
	t.Helper()
	clock := &manualClock{}
	engine := New(store, Config{Clock: clock})
	t.Cleanup(engine.Close)
	return engine, clock
}

func openTestStore(t *testing.T, dir string, presets []model.Preset) *storage.SettingsStore {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.Options{Dir: dir, Presets: presets})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func tickN(engine *Engine, n int) {
	for i := 0; i < n; i++ {
		engine.Tick()
	}
}

func TestNewEngineStartsWorkingWithClockStopped(t *testing.T) {
	engine, clock := newTestEngine(t, nil)

	snapshot := engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.Equal(t, model.DefaultWorkSeconds, snapshot.Remaining)
	assert.Equal(t, model.DefaultWorkSeconds, snapshot.WorkSeconds)
	assert.Equal(t, model.DefaultRestSeconds, snapshot.RestSeconds)
	assert.False(t, snapshot.Paused)
	assert.False(t, snapshot.RestOverlayVisible)
	assert.False(t, snapshot.Running)
	assert.Zero(t, clock.Starts())
	assert.Equal(t, model.DefaultRestExtensionSeconds, engine.RestExtensionSeconds())
}

func TestResetTimerRestoresFullWorkCountdown(t *testing.T) {
	cases := []struct{ work, rest int }{{1, 1}, {60, 30}, {1500, 300}, {3600, 600}}
	for _, tc := range cases {
		engine, _ := newTestEngine(t, nil)
		engine.SetWorkSeconds(tc.work)
		engine.SetRestSeconds(tc.rest)
		engine.SwitchMode()
		engine.TogglePause()

		engine.ResetTimer()

		snapshot := engine.Snapshot()
		assert.Equal(t, ModeWorking, snapshot.Mode)
		assert.Equal(t, tc.work, snapshot.Remaining)
		assert.False(t, snapshot.Paused)
		assert.False(t, snapshot.RestOverlayVisible)
	}
}

func TestTickIsInertWhilePaused(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.SetWorkSeconds(5)
	engine.TogglePause()

	tickN(engine, 100)

	snapshot := engine.Snapshot()
	assert.Equal(t, 5, snapshot.Remaining)
	assert.Equal(t, ModeWorking, snapshot.Mode)
}

func TestCountdownTransitionsOnTheLastTick(t *testing.T) {
	for _, k := range []int{1, 2, 7, 60} {
		engine, clock := newTestEngine(t, nil)
		engine.SetRestSeconds(30)
		engine.SetWorkSeconds(k)
		events := engine.Subscribe(4 * k)

		tickN(engine, k-1)
		assert.Equal(t, ModeWorking, engine.Snapshot().Mode, "k=%d", k)

		engine.Tick()
		snapshot := engine.Snapshot()
		assert.Equal(t, ModeResting, snapshot.Mode, "k=%d", k)
		assert.Equal(t, 30, snapshot.Remaining)
		assert.True(t, snapshot.RestOverlayVisible)
		assert.True(t, snapshot.Running)
		assert.Equal(t, 1, clock.Starts())

		transitions := 0
		for len(events) > 0 {
			if (<-events).Type == EventStateChange {
				transitions++
			}
		}
		assert.Equal(t, 1, transitions, "k=%d", k)
	}
}

func TestZeroDurationIsClampedOnTransition(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.SetWorkSeconds(3)
	engine.SetRestSeconds(0)

	tickN(engine, 3)

	snapshot := engine.Snapshot()
	assert.Equal(t, ModeResting, snapshot.Mode)
	assert.Equal(t, 1, snapshot.Remaining)

	engine.Tick()
	snapshot = engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.Equal(t, 3, snapshot.Remaining)
	assert.False(t, snapshot.RestOverlayVisible)
}

func TestExpiredCountdownTransitionsOnNextTick(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.SetWorkSeconds(0)
	require.Equal(t, 0, engine.Snapshot().Remaining)

	engine.Tick()

	snapshot := engine.Snapshot()
	assert.Equal(t, ModeResting, snapshot.Mode)
	assert.Equal(t, model.DefaultRestSeconds, snapshot.Remaining)
}

func TestReentrantTickDuringTransitionIsIgnored(t *testing.T) {
	clock := &manualClock{fireOnStart: true}
	engine := New(nil, Config{Clock: clock})
	t.Cleanup(engine.Close)
	engine.SetWorkSeconds(1)
	engine.SetRestSeconds(10)

	engine.Tick()

	snapshot := engine.Snapshot()
	assert.Equal(t, ModeResting, snapshot.Mode)
	assert.Equal(t, 10, snapshot.Remaining, "re-armed clock must not advance the fresh countdown")
	assert.Equal(t, 1, clock.Starts())
}

func TestSwitchModeClampsAndTracksOverlay(t *testing.T) {
	engine, clock := newTestEngine(t, nil)
	engine.SetRestSeconds(0)

	engine.SwitchMode()
	snapshot := engine.Snapshot()
	assert.Equal(t, ModeResting, snapshot.Mode)
	assert.Equal(t, 1, snapshot.Remaining)
	assert.True(t, snapshot.RestOverlayVisible)

	engine.SetWorkSeconds(0)
	engine.SwitchMode()
	snapshot = engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.Equal(t, 1, snapshot.Remaining)
	assert.False(t, snapshot.RestOverlayVisible)
	assert.Zero(t, clock.Starts())
}

func TestSetDurationsOnlyRestartCurrentMode(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	engine.SetRestSeconds(120)
	assert.Equal(t, model.DefaultWorkSeconds, engine.Snapshot().Remaining)

	engine.SetWorkSeconds(900)
	assert.Equal(t, 900, engine.Snapshot().Remaining)

	engine.SwitchMode()
	engine.SetWorkSeconds(600)
	snapshot := engine.Snapshot()
	assert.Equal(t, 120, snapshot.Remaining)
	assert.Equal(t, 600, snapshot.WorkSeconds)

	engine.SetRestSeconds(-5)
	snapshot = engine.Snapshot()
	assert.Equal(t, 0, snapshot.RestSeconds)
	assert.Equal(t, 0, snapshot.Remaining)
}

func TestExtendRestOnlyWhileResting(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.SetRestSeconds(300)

	assert.False(t, engine.ExtendRest(300))
	assert.Equal(t, 300, engine.Snapshot().RestSeconds)

	engine.SwitchMode()
	engine.Tick()
	assert.False(t, engine.ExtendRest(0))
	assert.True(t, engine.ExtendRest(300))

	snapshot := engine.Snapshot()
	assert.Equal(t, 600, snapshot.RestSeconds)
	assert.Equal(t, 600, snapshot.Remaining)
}

func TestLockUnlockSymmetry(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	engine.OnSystemLock()
	snapshot := engine.Snapshot()
	assert.True(t, snapshot.Paused)
	assert.True(t, snapshot.AutoPausedByLock)

	engine.OnSystemUnlock()
	snapshot = engine.Snapshot()
	assert.False(t, snapshot.Paused)
	assert.False(t, snapshot.AutoPausedByLock)
}

func TestLockWhileManuallyPausedDoesNotAutoResume(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.TogglePause()

	engine.OnSystemLock()
	assert.False(t, engine.Snapshot().AutoPausedByLock)

	engine.OnSystemUnlock()
	assert.True(t, engine.Snapshot().Paused)
}

func TestLockDuringRestIsIgnored(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.SwitchMode()

	engine.OnSystemLock()
	snapshot := engine.Snapshot()
	assert.False(t, snapshot.Paused)
	assert.False(t, snapshot.AutoPausedByLock)
}

func TestManualResumeClearsLockPause(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.OnSystemLock()

	engine.TogglePause()
	assert.False(t, engine.Snapshot().AutoPausedByLock)

	engine.TogglePause()
	engine.OnSystemUnlock()
	assert.True(t, engine.Snapshot().Paused)
}

func TestDismissRestOverlayKeepsResting(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	events := engine.Subscribe(8)

	engine.DismissRestOverlay()
	engine.SwitchMode()
	engine.DismissRestOverlay()

	snapshot := engine.Snapshot()
	assert.Equal(t, ModeResting, snapshot.Mode)
	assert.False(t, snapshot.RestOverlayVisible)

	var types []EventType
	for len(events) > 0 {
		types = append(types, (<-events).Type)
	}
	assert.Equal(t, []EventType{EventStateChange, EventOverlayChange}, types)
}

func TestPauseStateIsBroadcastOnTheBus(t *testing.T) {
	messages := bus.New()
	var (
		mu     sync.Mutex
		states []bool
	)
	bus.On(messages, bus.TopicPauseState, func(state bus.PauseState) {
		mu.Lock()
		states = append(states, state.IsPaused)
		mu.Unlock()
	})

	engine := New(nil, Config{Clock: &manualClock{}, Bus: messages})
	t.Cleanup(engine.Close)

	engine.TogglePause()
	engine.ResetTimer()
	engine.OnSystemLock()
	engine.OnSystemUnlock()
	bus.RequestTogglePause(messages)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false, true, false, true}, states)
	assert.True(t, engine.Snapshot().Paused)
}

func TestCloseDetachesFromBus(t *testing.T) {
	messages := bus.New()
	engine := New(nil, Config{Clock: &manualClock{}, Bus: messages})
	events := engine.Subscribe(1)

	engine.Close()
	engine.Close()
	bus.RequestTogglePause(messages)

	assert.False(t, engine.Snapshot().Paused)
	_, open := <-events
	assert.False(t, open)
}

func TestLoadUserSettingsWithoutStoreUsesDefaults(t *testing.T) {
	clock := &manualClock{}
	engine := New(nil, Config{Clock: clock, DefaultWorkSeconds: 1200, DefaultRestSeconds: 120})
	t.Cleanup(engine.Close)

	engine.LoadUserSettings(context.Background())

	snapshot := engine.Snapshot()
	assert.Equal(t, 1200, snapshot.WorkSeconds)
	assert.Equal(t, 120, snapshot.RestSeconds)
	assert.Equal(t, 1200, snapshot.Remaining)
	assert.True(t, snapshot.Running)
}

func TestLoadUserSettingsFallsBackWhenStoreFails(t *testing.T) {
	store := new(mockStore)
	diskErr := &storage.StorageError{Op: "get session state", Err: errors.New("permission denied")}
	store.On("SessionState").Return(model.SessionState{}, diskErr)
	store.On("SetLastUsedDurations", model.DefaultWorkSeconds, model.DefaultRestSeconds).
		Return(errors.New("disk full"))

	engine, clock := newTestEngine(t, store)
	engine.LoadUserSettings(context.Background())
	engine.Flush()

	snapshot := engine.Snapshot()
	assert.Equal(t, model.DefaultWorkSeconds, snapshot.Remaining)
	assert.True(t, clock.Running())
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "ListAll", mock.Anything)
}

func TestLoadUserSettingsPrefersLastUsedDurations(t *testing.T) {
	selected := int64(3)
	store := new(mockStore)
	store.On("SessionState").Return(model.SessionState{
		LastSelectedConfigurationID: &selected,
		LastUsed:                    &model.Durations{WorkSeconds: 1500, RestSeconds: 300},
	}, nil)

	engine, _ := newTestEngine(t, store)
	engine.LoadUserSettings(context.Background())
	engine.Flush()

	snapshot := engine.Snapshot()
	assert.Equal(t, 1500, snapshot.WorkSeconds)
	assert.Equal(t, 300, snapshot.RestSeconds)
	store.AssertNotCalled(t, "ListAll", mock.Anything)
	store.AssertNotCalled(t, "SetLastUsedDurations", mock.Anything, mock.Anything)
}

func TestLoadUserSettingsResolvesLastSelectedConfiguration(t *testing.T) {
	selected := int64(2)
	store := new(mockStore)
	store.On("SessionState").Return(model.SessionState{LastSelectedConfigurationID: &selected}, nil)
	store.On("ListAll", mock.Anything).Return([]model.TimingConfiguration{
		{ID: 1, Name: "Pomodoro", WorkSeconds: 1500, RestSeconds: 300},
		{ID: 2, Name: "Deep work", WorkSeconds: 5400, RestSeconds: 600},
	}, nil)
	store.On("SetLastUsedDurations", 5400, 600).Return(nil)

	engine, _ := newTestEngine(t, store)
	engine.LoadUserSettings(context.Background())
	engine.Flush()

	assert.Equal(t, 5400, engine.Snapshot().Remaining)
	store.AssertExpectations(t)
}

func TestLoadUserSettingsToleratesDanglingSelection(t *testing.T) {
	selected := int64(99)
	store := new(mockStore)
	store.On("SessionState").Return(model.SessionState{LastSelectedConfigurationID: &selected}, nil)
	store.On("ListAll", mock.Anything).Return([]model.TimingConfiguration{
		{ID: 1, Name: "Pomodoro", WorkSeconds: 1500, RestSeconds: 300},
	}, nil)
	store.On("SetLastUsedDurations", model.DefaultWorkSeconds, model.DefaultRestSeconds).Return(nil)

	engine, _ := newTestEngine(t, store)
	engine.LoadUserSettings(context.Background())
	engine.Flush()

	assert.Equal(t, model.DefaultWorkSeconds, engine.Snapshot().WorkSeconds)
	store.AssertExpectations(t)
}

func TestCommandsSurviveFailingWrites(t *testing.T) {
	store := new(mockStore)
	store.On("SetLastUsedDurations", mock.Anything, mock.Anything).Return(errors.New("read-only filesystem"))
	store.On("SetLastSelectedID", mock.Anything).Return(errors.New("read-only filesystem"))

	engine, _ := newTestEngine(t, store)
	engine.SetWorkSeconds(600)
	engine.SelectConfiguration(model.TimingConfiguration{ID: 4, Name: "Short cycle", WorkSeconds: 900, RestSeconds: 300})
	engine.Flush()

	snapshot := engine.Snapshot()
	assert.Equal(t, 900, snapshot.WorkSeconds)
	assert.Equal(t, 900, snapshot.Remaining)
}

func TestWorkSecondsSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	store := openTestStore(t, dir, nil)

	first, _ := newTestEngine(t, store)
	first.LoadUserSettings(context.Background())
	first.SetWorkSeconds(1500)
	first.Close()

	second, _ := newTestEngine(t, store)
	second.LoadUserSettings(context.Background())

	assert.Equal(t, 1500, second.Snapshot().WorkSeconds)
	assert.Equal(t, 1500, second.Snapshot().Remaining)
}

func TestSelectedPresetRunsFullCycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, t.TempDir(), []model.Preset{
		{Name: "Pomodoro", WorkSeconds: 1500, RestSeconds: 300},
		{Name: "Long", WorkSeconds: 2700, RestSeconds: 600},
	})
	require.NoError(t, store.SeedSystemPresets(ctx))

	engine, _ := newTestEngine(t, store)
	engine.LoadUserSettings(ctx)

	long, ok, err := store.GetByName(ctx, "Long")
	require.NoError(t, err)
	require.True(t, ok)
	engine.SelectConfiguration(long)

	snapshot := engine.Snapshot()
	assert.Equal(t, 2700, snapshot.WorkSeconds)
	assert.Equal(t, 600, snapshot.RestSeconds)

	tickN(engine, 2700)
	snapshot = engine.Snapshot()
	assert.Equal(t, ModeResting, snapshot.Mode)
	assert.Equal(t, 600, snapshot.Remaining)

	require.True(t, engine.ExtendRest(300))
	snapshot = engine.Snapshot()
	assert.Equal(t, 900, snapshot.RestSeconds)
	assert.Equal(t, 900, snapshot.Remaining)

	engine.Flush()
	state, err := store.SessionState()
	require.NoError(t, err)
	require.NotNil(t, state.LastSelectedConfigurationID)
	assert.Equal(t, long.ID, *state.LastSelectedConfigurationID)
	durations, ok := state.LastUsedDurations()
	require.True(t, ok)
	assert.Equal(t, model.Durations{WorkSeconds: 2700, RestSeconds: 900}, durations)
}

func TestSubscribersReceiveTicksWithoutBlocking(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.SetWorkSeconds(10)
	events := engine.Subscribe(1)

	tickN(engine, 3)

	event := <-events
	assert.Equal(t, EventTick, event.Type)
	assert.Equal(t, 9, event.Snapshot.Remaining)
	assert.Equal(t, "00:09", event.Snapshot.FormattedRemaining())
	assert.Equal(t, 7, engine.Snapshot().Remaining)
}

func TestStopIsIdempotent(t *testing.T) {
	engine, clock := newTestEngine(t, nil)
	engine.LoadUserSettings(context.Background())
	require.True(t, clock.Running())

	engine.Stop()
	engine.Stop()
	assert.False(t, engine.Snapshot().Running)
}

func TestResetDuringTransitionWins(t *testing.T) {
	engine, clock := newTestEngine(t, nil)
	engine.SetWorkSeconds(1)
	engine.SetRestSeconds(10)
	clock.onStop = engine.ResetTimer

	engine.Tick()

	snapshot := engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.Equal(t, 1, snapshot.Remaining)
	assert.False(t, snapshot.RestOverlayVisible)
	assert.False(t, snapshot.Paused)
}

func TestSelectConfigurationDuringTransitionWins(t *testing.T) {
	engine, clock := newTestEngine(t, nil)
	engine.SetWorkSeconds(1)
	clock.onStop = func() {
		engine.SelectConfiguration(model.TimingConfiguration{Name: "Pomodoro", WorkSeconds: 1500, RestSeconds: 300})
	}

	engine.Tick()

	snapshot := engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.Equal(t, 1500, snapshot.Remaining)
	assert.False(t, snapshot.RestOverlayVisible)
}

func TestCloseDuringTransitionLeavesClockStopped(t *testing.T) {
	engine, clock := newTestEngine(t, nil)
	engine.SetWorkSeconds(1)
	clock.onStop = engine.Close

	engine.Tick()

	assert.False(t, clock.Running())
	assert.Zero(t, clock.Starts())

	engine.LoadUserSettings(context.Background())
	assert.False(t, clock.Running(), "a closed engine is never re-armed")
}

func TestEndRest(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.SetWorkSeconds(1200)

	assert.False(t, engine.EndRest(), "working countdown is left alone")
	assert.Equal(t, ModeWorking, engine.Snapshot().Mode)
	assert.Equal(t, 1200, engine.Snapshot().Remaining)

	engine.SwitchMode()
	require.Equal(t, ModeResting, engine.Snapshot().Mode)

	assert.True(t, engine.EndRest())
	snapshot := engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.Equal(t, 1200, snapshot.Remaining)
	assert.False(t, snapshot.RestOverlayVisible)
	assert.False(t, engine.EndRest())
}

func TestEndRestIgnoredDuringTransition(t *testing.T) {
	engine, clock := newTestEngine(t, nil)
	engine.SetWorkSeconds(1)
	engine.SetRestSeconds(10)
	ended := true
	clock.onStop = func() { ended = engine.EndRest() }

	engine.Tick()

	assert.False(t, ended)
	assert.Equal(t, ModeResting, engine.Snapshot().Mode)
	assert.Equal(t, 10, engine.Snapshot().Remaining)
}
