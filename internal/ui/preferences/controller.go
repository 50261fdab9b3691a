package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"takearest/internal/core/model"
	"takearest/internal/core/timekeeper"
	"takearest/internal/logger"
	"takearest/internal/storage"
)

var (
	// ErrEmptyName rejects a blank preset name.
	ErrEmptyName = errors.New("preset name is empty")
	// ErrNeedsNewName means the selection cannot be overwritten in place
	// and the user has to save it under a new name.
	ErrNeedsNewName = errors.New("choose a name to save as a new preset")
	// ErrStorageUnavailable is returned when no store could be opened.
	ErrStorageUnavailable = errors.New("settings storage unavailable")
)

// Catalog is the part of the settings store the window edits.
type Catalog interface {
	ListAll(ctx context.Context) ([]model.TimingConfiguration, error)
	GetByID(ctx context.Context, id int64) (model.TimingConfiguration, bool, error)
	Save(ctx context.Context, request storage.SaveRequest) (int64, error)
	ResetAll(ctx context.Context) error
	SessionState() (model.SessionState, error)
}

// Timer is the part of the engine the window drives.
type Timer interface {
	Snapshot() timekeeper.Snapshot
	SelectConfiguration(config model.TimingConfiguration)
	SetWorkSeconds(seconds int)
	SetRestSeconds(seconds int)
}

// Controller holds the preset editing rules independent of any toolkit.
type Controller struct {
	catalog  Catalog
	timer    Timer
	log      *logger.Logger
	timeout  time.Duration
	mu       sync.Mutex
	selected *int64
}

// NewController binds a catalog (nil when storage failed to open) to timer.
func NewController(catalog Catalog, timer Timer, log *logger.Logger) *Controller {
	return &Controller{catalog: catalog, timer: timer, log: log, timeout: 5 * time.Second}
}

// Presets lists every configuration in display order.
func (controller *Controller) Presets(ctx context.Context) ([]model.TimingConfiguration, error) {
	if controller.catalog == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, controller.timeout)
	defer cancel()

	configs, err := controller.catalog.ListAll(ctx)
	if err != nil {
		controller.log.Warn("list presets: %v", err)
		return nil, err
	}
	model.SortForDisplay(configs)
	return configs, nil
}

// SelectedID is the preset chosen in this session, else the one remembered
// from the previous session.
func (controller *Controller) SelectedID() (int64, bool) {
	controller.mu.Lock()
	selected := controller.selected
	controller.mu.Unlock()
	if selected != nil {
		return *selected, true
	}
	if controller.catalog == nil {
		return 0, false
	}
	state, err := controller.catalog.SessionState()
	if err != nil || state.LastSelectedConfigurationID == nil {
		return 0, false
	}
	return *state.LastSelectedConfigurationID, true
}

// Select applies a preset to the timer.
func (controller *Controller) Select(config model.TimingConfiguration) {
	controller.setSelected(&config.ID)
	controller.timer.SelectConfiguration(config)
}

// ApplyDurations sets the timer durations within the editing ranges.
func (controller *Controller) ApplyDurations(workSeconds, restSeconds int) (int, int) {
	workSeconds = model.ClampWorkSeconds(workSeconds)
	restSeconds = model.ClampRestSeconds(restSeconds)
	snapshot := controller.timer.Snapshot()
	if snapshot.WorkSeconds != workSeconds {
		controller.timer.SetWorkSeconds(workSeconds)
	}
	if snapshot.RestSeconds != restSeconds {
		controller.timer.SetRestSeconds(restSeconds)
	}
	return workSeconds, restSeconds
}

// SaveAsNew stores the timer's current durations under name.
func (controller *Controller) SaveAsNew(ctx context.Context, name string) (model.TimingConfiguration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.TimingConfiguration{}, ErrEmptyName
	}
	return controller.save(ctx, nil, name)
}

// Overwrite stores the current durations into selected. System presets and
// unsaved selections yield ErrNeedsNewName.
func (controller *Controller) Overwrite(ctx context.Context, selected *model.TimingConfiguration) (model.TimingConfiguration, error) {
	target := model.OverwriteTarget(selected)
	if target == nil {
		return model.TimingConfiguration{}, ErrNeedsNewName
	}
	return controller.save(ctx, target, selected.Name)
}

// ResetAll wipes user presets and forgets the selection.
func (controller *Controller) ResetAll(ctx context.Context) error {
	if controller.catalog == nil {
		return ErrStorageUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, controller.timeout)
	defer cancel()

	if err := controller.catalog.ResetAll(ctx); err != nil {
		return fmt.Errorf("reset presets: %w", err)
	}
	controller.setSelected(nil)
	controller.log.Info("presets reset to defaults")
	return nil
}

func (controller *Controller) save(ctx context.Context, id *int64, name string) (model.TimingConfiguration, error) {
	if controller.catalog == nil {
		return model.TimingConfiguration{}, ErrStorageUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, controller.timeout)
	defer cancel()

	snapshot := controller.timer.Snapshot()
	savedID, err := controller.catalog.Save(ctx, storage.SaveRequest{
		ID:          id,
		Name:        name,
		WorkSeconds: snapshot.WorkSeconds,
		RestSeconds: snapshot.RestSeconds,
	})
	if err != nil {
		return model.TimingConfiguration{}, fmt.Errorf("save preset %q: %w", name, err)
	}
	saved, found, err := controller.catalog.GetByID(ctx, savedID)
	if err != nil {
		return model.TimingConfiguration{}, fmt.Errorf("reload preset %q: %w", name, err)
	}
	if !found {
		return model.TimingConfiguration{}, fmt.Errorf("reload preset %q: not found", name)
	}
	controller.setSelected(&saved.ID)
	controller.log.Info("saved preset %q (%d)", saved.Name, saved.ID)
	return saved, nil
}

func (controller *Controller) setSelected(id *int64) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	if id == nil {
		controller.selected = nil
		return
	}
	value := *id
	controller.selected = &value
}

// ParseMinutes reads "25" or "25:30" (minutes[:seconds]) as seconds.
func ParseMinutes(text string) (int, error) {
	text = strings.TrimSpace(text)
	minutesPart, secondsPart, hasSeconds := strings.Cut(text, ":")
	minutes, err := strconv.Atoi(minutesPart)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("parse minutes %q: not a number", text)
	}
	seconds := 0
	if hasSeconds {
		seconds, err = strconv.Atoi(secondsPart)
		if err != nil || seconds < 0 || seconds > 59 {
			return 0, fmt.Errorf("parse minutes %q: seconds must be 0-59", text)
		}
	}
	return minutes*60 + seconds, nil
}

// FormatMinutes is the inverse of ParseMinutes.
func FormatMinutes(seconds int) string {
	if seconds%60 == 0 {
		return strconv.Itoa(seconds / 60)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// PresetLabel is the text shown for a preset in the picker.
func PresetLabel(config model.TimingConfiguration) string {
	label := fmt.Sprintf("%s · %s / %s", config.Name,
		timekeeper.FormatSeconds(config.WorkSeconds), timekeeper.FormatSeconds(config.RestSeconds))
	if config.IsSystemPreset {
		label += " (built-in)"
	}
	return label
}
