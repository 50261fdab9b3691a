package timekeeper

import "time"

// Mode is the half of the cycle the countdown belongs to.
type Mode string

const (
	ModeWorking Mode = "working"
	ModeResting Mode = "resting"
)

// EventType defines the type of Engine event.
type EventType string

const (
	EventStateChange     EventType = "state_change"
	EventTick            EventType = "tick"
	EventPauseChange     EventType = "pause_change"
	EventDurationsChange EventType = "durations_change"
	EventOverlayChange   EventType = "overlay_change"
)

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	Mode               Mode
	Remaining          int
	Paused             bool
	RestOverlayVisible bool
	AutoPausedByLock   bool
	WorkSeconds        int
	RestSeconds        int
	Running            bool
}

// FormattedRemaining renders Remaining as MM:SS.
func (snapshot Snapshot) FormattedRemaining() string {
	return FormatSeconds(snapshot.Remaining)
}

// Event represents an Engine update for observers.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	At       time.Time
}
