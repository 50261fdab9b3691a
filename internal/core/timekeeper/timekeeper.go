// Package timekeeper implements the work/rest state machine that drives the
// countdown, the rest overlay flag and the pause bookkeeping.
package timekeeper

import (
	"context"
	"sync"
	"time"

	"takearest/internal/core/bus"
	"takearest/internal/core/model"
	"takearest/internal/logger"
)

// Store is the slice of the settings store the engine needs.
type Store interface {
	SessionState() (model.SessionState, error)
	ListAll(ctx context.Context) ([]model.TimingConfiguration, error)
	SetLastUsedDurations(workSeconds, restSeconds int) error
	SetLastSelectedID(id int64) error
}

// Config contains runtime options for Engine.
type Config struct {
	DefaultWorkSeconds   int
	DefaultRestSeconds   int
	RestExtensionSeconds int
	// TickInterval is used when Clock is nil.
	TickInterval time.Duration
	// StoreTimeout bounds each store read during LoadUserSettings.
	StoreTimeout time.Duration
	Clock        Clock
	Bus          *bus.Bus
	Logger       *logger.Logger
}

const (
	writeKeyDurations = "durations"
	writeKeySelected  = "selected"
)

// Engine owns the timer state. All methods are safe for concurrent use.
type Engine struct {
	mu            sync.Mutex
	options       Config
	store         Store
	clock         Clock
	bus           *bus.Bus
	log           *logger.Logger
	writer        *writeBehind
	events        []chan Event
	unsubscribe   func()
	mode          Mode
	remaining     int
	paused        bool
	overlay       bool
	autoPaused    bool
	workSeconds   int
	restSeconds   int
	transitioning bool
	closed        bool
}

// New creates an Engine in working mode at the default work duration.
// The clock stays stopped until LoadUserSettings. A nil store disables
// persistence.
func New(store Store, options Config) *Engine {
	if options.DefaultWorkSeconds <= 0 {
		options.DefaultWorkSeconds = model.DefaultWorkSeconds
	}
	if options.DefaultRestSeconds <= 0 {
		options.DefaultRestSeconds = model.DefaultRestSeconds
	}
	if options.RestExtensionSeconds <= 0 {
		options.RestExtensionSeconds = model.DefaultRestExtensionSeconds
	}
	if options.StoreTimeout <= 0 {
		options.StoreTimeout = 5 * time.Second
	}
	if options.Clock == nil {
		options.Clock = NewTickerClock(options.TickInterval)
	}

	engine := &Engine{
		options:     options,
		store:       store,
		clock:       options.Clock,
		bus:         options.Bus,
		log:         options.Logger,
		writer:      newWriteBehind(),
		mode:        ModeWorking,
		remaining:   options.DefaultWorkSeconds,
		workSeconds: options.DefaultWorkSeconds,
		restSeconds: options.DefaultRestSeconds,
	}
	if engine.bus != nil {
		engine.unsubscribe = bus.On(engine.bus, bus.TopicTogglePause, func(bus.TogglePause) {
			engine.TogglePause()
		})
	}
	return engine
}

// Subscribe registers a new observer channel. Slow observers miss events
// rather than stall the engine.
func (engine *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed {
		close(ch)
		return ch
	}
	engine.events = append(engine.events, ch)
	return ch
}

// Snapshot returns the current state.
func (engine *Engine) Snapshot() Snapshot {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.snapshotLocked()
}

// RestExtensionSeconds is the configured step for ExtendRest buttons.
func (engine *Engine) RestExtensionSeconds() int {
	return engine.options.RestExtensionSeconds
}

// LoadUserSettings adopts the remembered durations (or the last selected
// configuration, or the defaults), resets to working and starts the clock.
// Callers run it once per process.
func (engine *Engine) LoadUserSettings(ctx context.Context) {
	engine.clock.Stop()

	durations, remembered := engine.resolveDurations(ctx)
	if !remembered {
		engine.persistDurations(durations.WorkSeconds, durations.RestSeconds)
	}

	engine.mu.Lock()
	engine.workSeconds = durations.WorkSeconds
	engine.restSeconds = durations.RestSeconds
	engine.resetLocked()
	engine.emitLocked(EventDurationsChange)
	engine.emitLocked(EventStateChange)
	engine.mu.Unlock()

	engine.log.Info("timer loaded: work %ds rest %ds", durations.WorkSeconds, durations.RestSeconds)
	bus.PublishPauseState(engine.bus, false)
	engine.startClock()
}

func (engine *Engine) resolveDurations(ctx context.Context) (model.Durations, bool) {
	defaults := model.Durations{
		WorkSeconds: engine.options.DefaultWorkSeconds,
		RestSeconds: engine.options.DefaultRestSeconds,
	}
	if engine.store == nil {
		return defaults, false
	}

	state, err := engine.store.SessionState()
	if err != nil {
		engine.log.Warn("load session state: %v", err)
		return defaults, false
	}
	if durations, ok := state.LastUsedDurations(); ok {
		return durations, true
	}
	if state.LastSelectedConfigurationID == nil {
		return defaults, false
	}

	ctx, cancel := context.WithTimeout(ctx, engine.options.StoreTimeout)
	defer cancel()
	configs, err := engine.store.ListAll(ctx)
	if err != nil {
		engine.log.Warn("list configurations: %v", err)
		return defaults, false
	}
	config, found := model.FindByID(configs, *state.LastSelectedConfigurationID)
	if !found {
		engine.log.Debug("last selected configuration %d is gone", *state.LastSelectedConfigurationID)
		return defaults, false
	}
	return config.Durations(), false
}

// Tick advances the countdown by one second. The tick that reaches zero
// switches mode and re-arms the clock; ticks arriving meanwhile are dropped.
// The switch is applied before the lock is released, so a command racing
// with the re-arm lands after the transition.
func (engine *Engine) Tick() {
	engine.mu.Lock()
	if engine.paused || engine.transitioning || engine.closed {
		engine.mu.Unlock()
		return
	}
	if engine.remaining > 0 {
		engine.remaining--
		if engine.remaining > 0 {
			engine.emitLocked(EventTick)
			engine.mu.Unlock()
			return
		}
	}
	engine.transitioning = true
	engine.switchModeLocked()
	mode := engine.mode
	engine.emitLocked(EventStateChange)
	engine.mu.Unlock()

	engine.clock.Stop()
	engine.log.Debug("countdown expired, now %s", mode)
	engine.startClock()

	engine.mu.Lock()
	engine.transitioning = false
	engine.mu.Unlock()
}

// EndRest switches a resting countdown back to work. It reports false,
// changing nothing, outside rest mode or while an expiry is in flight.
func (engine *Engine) EndRest() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.mode != ModeResting || engine.transitioning {
		return false
	}
	engine.switchModeLocked()
	engine.emitLocked(EventStateChange)
	return true
}

// TogglePause flips the pause flag. Resuming always clears a lock-induced
// pause.
func (engine *Engine) TogglePause() {
	engine.mu.Lock()
	engine.paused = !engine.paused
	if !engine.paused {
		engine.autoPaused = false
	}
	paused := engine.paused
	engine.emitLocked(EventPauseChange)
	engine.mu.Unlock()

	bus.PublishPauseState(engine.bus, paused)
}

// ResetTimer returns to an unpaused working countdown at the full work
// duration.
func (engine *Engine) ResetTimer() {
	engine.mu.Lock()
	engine.resetLocked()
	engine.emitLocked(EventStateChange)
	engine.mu.Unlock()

	bus.PublishPauseState(engine.bus, false)
}

// SwitchMode skips to the other mode. It is ignored while an expiry
// transition is in flight.
func (engine *Engine) SwitchMode() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.transitioning {
		return
	}
	engine.switchModeLocked()
	engine.emitLocked(EventStateChange)
}

// SetWorkSeconds changes the work duration, restarting the countdown when
// working. Negative values are treated as zero.
func (engine *Engine) SetWorkSeconds(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	engine.mu.Lock()
	engine.workSeconds = seconds
	if engine.mode == ModeWorking {
		engine.remaining = seconds
	}
	work, rest := engine.workSeconds, engine.restSeconds
	engine.emitLocked(EventDurationsChange)
	engine.mu.Unlock()

	engine.persistDurations(work, rest)
}

// SetRestSeconds changes the rest duration, restarting the countdown when
// resting. Negative values are treated as zero.
func (engine *Engine) SetRestSeconds(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	engine.mu.Lock()
	engine.restSeconds = seconds
	if engine.mode == ModeResting {
		engine.remaining = seconds
	}
	work, rest := engine.workSeconds, engine.restSeconds
	engine.emitLocked(EventDurationsChange)
	engine.mu.Unlock()

	engine.persistDurations(work, rest)
}

// ExtendRest lengthens the rest duration by extraSeconds and restarts the
// rest countdown at the new length. It reports false, changing nothing,
// outside rest mode or for a non-positive extension.
func (engine *Engine) ExtendRest(extraSeconds int) bool {
	engine.mu.Lock()
	if engine.mode != ModeResting || extraSeconds <= 0 {
		engine.mu.Unlock()
		return false
	}
	engine.restSeconds += extraSeconds
	engine.remaining = engine.restSeconds
	work, rest := engine.workSeconds, engine.restSeconds
	engine.emitLocked(EventDurationsChange)
	engine.mu.Unlock()

	engine.persistDurations(work, rest)
	return true
}

// SelectConfiguration adopts a preset's durations and restarts the work
// countdown. The pause flag is left alone.
func (engine *Engine) SelectConfiguration(config model.TimingConfiguration) {
	engine.mu.Lock()
	engine.workSeconds = config.WorkSeconds
	engine.restSeconds = config.RestSeconds
	engine.mode = ModeWorking
	engine.remaining = config.WorkSeconds
	engine.overlay = false
	engine.emitLocked(EventDurationsChange)
	engine.emitLocked(EventStateChange)
	engine.mu.Unlock()

	engine.persistDurations(config.WorkSeconds, config.RestSeconds)
	if config.ID != 0 {
		engine.persistSelection(config.ID)
	}
}

// DismissRestOverlay hides the overlay while the rest countdown continues.
func (engine *Engine) DismissRestOverlay() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.overlay {
		return
	}
	engine.overlay = false
	engine.emitLocked(EventOverlayChange)
}

// OnSystemLock pauses a running work countdown and remembers that the lock
// did it. A rest countdown, or one already paused, is left alone.
func (engine *Engine) OnSystemLock() {
	engine.mu.Lock()
	if engine.mode != ModeWorking || engine.paused {
		engine.mu.Unlock()
		return
	}
	engine.paused = true
	engine.autoPaused = true
	engine.emitLocked(EventPauseChange)
	engine.mu.Unlock()

	engine.log.Debug("session locked, timer paused")
	bus.PublishPauseState(engine.bus, true)
}

// OnSystemUnlock resumes only a pause made by OnSystemLock.
func (engine *Engine) OnSystemUnlock() {
	engine.mu.Lock()
	if !engine.autoPaused {
		engine.mu.Unlock()
		return
	}
	engine.paused = false
	engine.autoPaused = false
	engine.emitLocked(EventPauseChange)
	engine.mu.Unlock()

	engine.log.Debug("session unlocked, timer resumed")
	bus.PublishPauseState(engine.bus, false)
}

// Stop halts the clock. It is safe to call repeatedly.
func (engine *Engine) Stop() {
	engine.clock.Stop()
}

// Flush waits for queued persistence writes.
func (engine *Engine) Flush() {
	engine.writer.Flush()
}

// Close stops the clock, finishes pending writes, detaches from the bus and
// closes observer channels. The clock is never re-armed afterwards.
func (engine *Engine) Close() {
	engine.mu.Lock()
	alreadyClosed := engine.closed
	engine.closed = true
	events := engine.events
	engine.events = nil
	unsubscribe := engine.unsubscribe
	engine.unsubscribe = nil
	engine.mu.Unlock()

	engine.clock.Stop()
	engine.writer.Close()
	if alreadyClosed {
		return
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	for _, ch := range events {
		close(ch)
	}
}

// startClock arms the clock unless the engine is closed. A Close landing
// between the check and Start is caught by the second check.
func (engine *Engine) startClock() {
	if engine.isClosed() {
		return
	}
	engine.clock.Start(engine.Tick)
	if engine.isClosed() {
		engine.clock.Stop()
	}
}

func (engine *Engine) isClosed() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.closed
}

func (engine *Engine) resetLocked() {
	engine.mode = ModeWorking
	engine.remaining = engine.workSeconds
	engine.paused = false
	engine.autoPaused = false
	engine.overlay = false
}

func (engine *Engine) switchModeLocked() {
	if engine.mode == ModeWorking {
		engine.mode = ModeResting
		engine.remaining = max(engine.restSeconds, 1)
		engine.overlay = true
		return
	}
	engine.mode = ModeWorking
	engine.remaining = max(engine.workSeconds, 1)
	engine.overlay = false
}

func (engine *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Mode:               engine.mode,
		Remaining:          engine.remaining,
		Paused:             engine.paused,
		RestOverlayVisible: engine.overlay,
		AutoPausedByLock:   engine.autoPaused,
		WorkSeconds:        engine.workSeconds,
		RestSeconds:        engine.restSeconds,
		Running:            engine.clock.Running(),
	}
}

func (engine *Engine) emitLocked(eventType EventType) {
	if len(engine.events) == 0 {
		return
	}
	event := Event{Type: eventType, Snapshot: engine.snapshotLocked(), At: time.Now()}
	for _, ch := range engine.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func (engine *Engine) persistDurations(workSeconds, restSeconds int) {
	if engine.store == nil {
		return
	}
	engine.writer.Submit(writeKeyDurations, func() {
		if err := engine.store.SetLastUsedDurations(workSeconds, restSeconds); err != nil {
			engine.log.Warn("persist durations: %v", err)
		}
	})
}

func (engine *Engine) persistSelection(id int64) {
	if engine.store == nil {
		return
	}
	engine.writer.Submit(writeKeySelected, func() {
		if err := engine.store.SetLastSelectedID(id); err != nil {
			engine.log.Warn("persist selected configuration: %v", err)
		}
	})
}
