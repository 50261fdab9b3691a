package model

import (
	"sort"
	"time"
)

// Built-in durations in seconds.
const (
	DefaultWorkSeconds          = 45 * 60
	DefaultRestSeconds          = 5 * 60
	DefaultRestExtensionSeconds = 5 * 60
)

// Ranges enforced by the editing UI. The store accepts any positive value.
const (
	MinWorkSeconds = 60
	MaxWorkSeconds = 3600
	MinRestSeconds = 60
	MaxRestSeconds = 600
)

// Durations is a work/rest pair in seconds.
type Durations struct {
	WorkSeconds int `yaml:"work_seconds"`
	RestSeconds int `yaml:"rest_seconds"`
}

// TimingConfiguration is a named work/rest preset.
type TimingConfiguration struct {
	ID             int64
	Name           string
	WorkSeconds    int
	RestSeconds    int
	IsSystemPreset bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Durations returns the preset's work/rest pair.
func (config TimingConfiguration) Durations() Durations {
	return Durations{WorkSeconds: config.WorkSeconds, RestSeconds: config.RestSeconds}
}

// TotalSeconds is the length of one full work+rest cycle.
func (config TimingConfiguration) TotalSeconds() int {
	return config.WorkSeconds + config.RestSeconds
}

// SessionState is lightweight state remembered between launches.
// Both fields are optional and independent of each other.
type SessionState struct {
	LastSelectedConfigurationID *int64
	LastUsed                    *Durations
}

// LastUsedDurations reports the remembered durations, if any.
func (state SessionState) LastUsedDurations() (Durations, bool) {
	if state.LastUsed == nil {
		return Durations{}, false
	}
	if state.LastUsed.WorkSeconds < 0 || state.LastUsed.RestSeconds < 0 {
		return Durations{}, false
	}
	return *state.LastUsed, true
}

// Preset describes a system preset seeded on first run.
type Preset struct {
	Name        string
	WorkSeconds int
	RestSeconds int
}

// SystemPresets returns the presets seeded into an empty store.
func SystemPresets() []Preset {
	return []Preset{
		{Name: "Pomodoro", WorkSeconds: 25 * 60, RestSeconds: 5 * 60},
		{Name: "Long cycle", WorkSeconds: 45 * 60, RestSeconds: 10 * 60},
		{Name: "Short cycle", WorkSeconds: 15 * 60, RestSeconds: 5 * 60},
		{Name: "Deep work", WorkSeconds: 90 * 60, RestSeconds: 10 * 60},
		{Name: "Test mode", WorkSeconds: 10, RestSeconds: 10},
	}
}

// SortForDisplay orders configurations for preset lists: system presets
// first, then by total cycle length, longest first.
func SortForDisplay(configs []TimingConfiguration) {
	sort.SliceStable(configs, func(i, j int) bool {
		left, right := configs[i], configs[j]
		if left.IsSystemPreset != right.IsSystemPreset {
			return left.IsSystemPreset
		}
		if left.TotalSeconds() != right.TotalSeconds() {
			return left.TotalSeconds() > right.TotalSeconds()
		}
		return left.Name < right.Name
	})
}

// FindByID looks up a configuration in a listing.
func FindByID(configs []TimingConfiguration, id int64) (TimingConfiguration, bool) {
	for _, config := range configs {
		if config.ID == id {
			return config, true
		}
	}
	return TimingConfiguration{}, false
}

// OverwriteTarget returns the id an "overwrite" should save to. System
// presets are never mutated, so overwriting one becomes a new row (nil).
func OverwriteTarget(selected *TimingConfiguration) *int64 {
	if selected == nil || selected.IsSystemPreset || selected.ID == 0 {
		return nil
	}
	id := selected.ID
	return &id
}

// ClampWorkSeconds bounds a work duration to the editable range.
func ClampWorkSeconds(seconds int) int {
	return clamp(seconds, MinWorkSeconds, MaxWorkSeconds)
}

// ClampRestSeconds bounds a rest duration to the editable range.
func ClampRestSeconds(seconds int) int {
	return clamp(seconds, MinRestSeconds, MaxRestSeconds)
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
