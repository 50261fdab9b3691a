// Package tui is a terminal front end for the timer, for hosts without a
// desktop session.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"takearest/internal/core/model"
	"takearest/internal/core/timekeeper"
	"takearest/internal/ui/preferences"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Timer is the engine surface the terminal drives.
type Timer interface {
	Snapshot() timekeeper.Snapshot
	TogglePause()
	ResetTimer()
	SwitchMode()
	ExtendRest(extraSeconds int) bool
	RestExtensionSeconds() int
	DismissRestOverlay()
}

// Presets is the preset catalog surface; *preferences.Controller satisfies it.
type Presets interface {
	Presets(ctx context.Context) ([]model.TimingConfiguration, error)
	SelectedID() (int64, bool)
	Select(config model.TimingConfiguration)
	SaveAsNew(ctx context.Context, name string) (model.TimingConfiguration, error)
}

// Options wires a Model.
type Options struct {
	Timer   Timer
	Presets Presets
	// Events is an engine subscription; the program quits when it closes.
	Events <-chan timekeeper.Event
	// Lock locks the screen. Nil hides the binding.
	Lock  func()
	Theme *Theme
}

type viewState int

const (
	viewTimer viewState = iota
	viewPresets
	viewName
)

// EventMsg carries an engine event into the update loop.
type EventMsg timekeeper.Event

type eventsClosedMsg struct{}

type presetsLoadedMsg struct {
	configs []model.TimingConfiguration
	err     error
}

type presetSavedMsg struct {
	config model.TimingConfiguration
	err    error
}

type clearStatusMsg struct{ id int }

const statusLifetime = 4 * time.Second

// Model is the bubbletea model for the timer screen.
type Model struct {
	timer    Timer
	presets  Presets
	events   <-chan timekeeper.Event
	lock     func()
	theme    Theme
	keys     keyMap
	help     help.Model
	progress progress.Model
	input    textinput.Model

	snapshot   timekeeper.Snapshot
	state      viewState
	configs    []model.TimingConfiguration
	cursor     int
	selectedID int64
	hasChosen  bool
	status     string
	statusErr  bool
	statusID   int
	width      int
}

// New builds the model from opts.
func New(opts Options) Model {
	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	input := textinput.New()
	input.Placeholder = "Preset name"
	input.CharLimit = 64
	input.Width = 36

	keys := defaultKeyMap()
	keys.Lock.SetEnabled(opts.Lock != nil)
	keys.Presets.SetEnabled(opts.Presets != nil)
	keys.SaveNew.SetEnabled(opts.Presets != nil)

	m := Model{
		timer:    opts.Timer,
		presets:  opts.Presets,
		events:   opts.Events,
		lock:     opts.Lock,
		theme:    theme,
		keys:     keys,
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		input:    input,
		width:    60,
	}
	if opts.Timer != nil {
		m.snapshot = opts.Timer.Snapshot()
	}
	if opts.Presets != nil {
		m.selectedID, m.hasChosen = opts.Presets.SelectedID()
	}
	m.progress.Width = m.width - 4
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), m.loadPresets())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m.snapshot = msg.Snapshot
		return m, waitForEvent(m.events)
	case eventsClosedMsg:
		return m, tea.Quit
	case presetsLoadedMsg:
		return m.handlePresetsLoaded(msg), nil
	case presetSavedMsg:
		return m.handlePresetSaved(msg)
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = max(10, min(msg.Width-8, 72))
		return m, nil
	case tea.KeyMsg:
		switch m.state {
		case viewPresets:
			return m.handlePresetKey(msg)
		case viewName:
			return m.handleNameKey(msg)
		default:
			return m.handleTimerKey(msg)
		}
	}
	return m, nil
}

func (m Model) handleTimerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.timer.TogglePause()
	case key.Matches(msg, m.keys.Reset):
		m.timer.ResetTimer()
	case key.Matches(msg, m.keys.Switch):
		m.timer.SwitchMode()
	case key.Matches(msg, m.keys.Extend):
		if !m.timer.ExtendRest(m.timer.RestExtensionSeconds()) {
			return m.setStatus("extend only works while resting", true)
		}
	case key.Matches(msg, m.keys.Dismiss):
		m.timer.DismissRestOverlay()
	case key.Matches(msg, m.keys.Lock):
		m.lock()
	case key.Matches(msg, m.keys.Presets):
		m.state = viewPresets
		m.cursor = m.selectedIndex()
		return m, m.loadPresets()
	case key.Matches(msg, m.keys.SaveNew):
		m.state = viewName
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	default:
		return m, nil
	}
	m.snapshot = m.timer.Snapshot()
	return m, nil
}

func (m Model) handlePresetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Presets):
		m.state = viewTimer
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.configs)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Choose):
		if m.cursor >= len(m.configs) {
			return m, nil
		}
		chosen := m.configs[m.cursor]
		m.presets.Select(chosen)
		m.selectedID, m.hasChosen = chosen.ID, true
		m.state = viewTimer
		m.snapshot = m.timer.Snapshot()
		return m.setStatus(fmt.Sprintf("using %s", chosen.Name), false)
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleNameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.state = viewTimer
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		name := m.input.Value()
		m.state = viewTimer
		m.input.Blur()
		return m, m.savePreset(name)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePresetsLoaded(msg presetsLoadedMsg) Model {
	if msg.err != nil {
		m.status, m.statusErr = fmt.Sprintf("presets unavailable: %v", msg.err), true
		return m
	}
	m.configs = msg.configs
	if m.cursor >= len(m.configs) {
		m.cursor = max(0, len(m.configs)-1)
	}
	return m
}

func (m Model) handlePresetSaved(msg presetSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.setStatus(msg.err.Error(), true)
	}
	m.selectedID, m.hasChosen = msg.config.ID, true
	reload := m.loadPresets()
	next, clear := m.setStatus(fmt.Sprintf("saved %s", msg.config.Name), false)
	return next, tea.Batch(clear, reload)
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusID++
	m.status, m.statusErr = text, isErr
	id := m.statusID
	return m, tea.Tick(statusLifetime, func(time.Time) tea.Msg { return clearStatusMsg{id: id} })
}

func (m Model) selectedIndex() int {
	for i, config := range m.configs {
		if m.hasChosen && config.ID == m.selectedID {
			return i
		}
	}
	return 0
}

func (m Model) loadPresets() tea.Cmd {
	if m.presets == nil {
		return nil
	}
	presets := m.presets
	return func() tea.Msg {
		configs, err := presets.Presets(context.Background())
		return presetsLoadedMsg{configs: configs, err: err}
	}
}

func (m Model) savePreset(name string) tea.Cmd {
	presets := m.presets
	return func() tea.Msg {
		config, err := presets.SaveAsNew(context.Background(), name)
		return presetSavedMsg{config: config, err: err}
	}
}

func waitForEvent(events <-chan timekeeper.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg(event)
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Header.Render("TakeARest"))
	b.WriteString("\n\n")

	switch m.state {
	case viewPresets:
		b.WriteString(m.presetsView())
	case viewName:
		b.WriteString("Save current durations as:\n")
		b.WriteString(m.theme.Input.Render(m.input.View()))
		b.WriteString("\n")
		b.WriteString(m.theme.Dim.Render("enter to save, esc to cancel"))
	default:
		b.WriteString(m.timerView())
	}

	if m.status != "" {
		b.WriteString("\n\n")
		if m.statusErr {
			b.WriteString(m.theme.Error.Render(m.status))
		} else {
			b.WriteString(m.theme.Status.Render(m.status))
		}
	}
	if m.state == viewTimer {
		b.WriteString("\n\n")
		b.WriteString(m.help.View(m.keys))
	}
	return m.theme.Base.Render(b.String())
}

func (m Model) timerView() string {
	snapshot := m.snapshot
	var heading string
	if snapshot.Mode == timekeeper.ModeResting {
		heading = m.theme.Resting.Render("Resting")
	} else {
		heading = m.theme.Working.Render("Working")
	}
	if snapshot.Paused {
		heading += " " + m.theme.Paused.Render("(paused)")
	}

	lines := []string{
		heading,
		m.theme.Countdown.Render(snapshot.FormattedRemaining()),
		m.progress.ViewAs(elapsedFraction(snapshot)),
		m.theme.Dim.Render(fmt.Sprintf("work %s · rest %s",
			preferences.FormatMinutes(snapshot.WorkSeconds), preferences.FormatMinutes(snapshot.RestSeconds))),
	}
	if snapshot.RestOverlayVisible {
		lines = append(lines, m.theme.Banner.Render("Time to rest. Step away from the screen."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) presetsView() string {
	if len(m.configs) == 0 {
		return m.theme.Dim.Render("No presets available. esc to go back.")
	}
	var b strings.Builder
	for i, config := range m.configs {
		line := preferences.PresetLabel(config)
		if m.hasChosen && config.ID == m.selectedID {
			line += " ✓"
		}
		if i == m.cursor {
			b.WriteString(m.theme.Selected.Render("> " + line))
		} else {
			b.WriteString(m.theme.Preset.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Dim.Render("↑/↓ move, enter select, esc back"))
	return b.String()
}

// elapsedFraction is the share of the current period already used.
func elapsedFraction(snapshot timekeeper.Snapshot) float64 {
	total := snapshot.WorkSeconds
	if snapshot.Mode == timekeeper.ModeResting {
		total = snapshot.RestSeconds
	}
	if total <= 0 {
		return 0
	}
	fraction := 1 - float64(snapshot.Remaining)/float64(total)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
