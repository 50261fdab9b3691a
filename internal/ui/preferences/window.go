package preferences

import (
	"context"
	"errors"
	"fmt"

	"takearest/internal/core/model"
	"takearest/internal/core/timekeeper"
	"takearest/internal/storage"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Actions are the timer commands exposed as buttons.
type Actions struct {
	OnTogglePause func()
	OnReset       func()
	OnSwitchMode  func()
}

// Window is the main window: countdown, timer controls and preset editor.
// Its methods must run on the fyne main goroutine.
type Window struct {
	window       fyne.Window
	controller   *Controller
	actions      Actions
	modeLabel    *widget.Label
	countdown    *widget.Label
	pauseButton  *widget.Button
	switchButton *widget.Button
	presetSelect *widget.Select
	workEntry    *widget.Entry
	restEntry    *widget.Entry
	presets      map[string]model.TimingConfiguration
	selected     *model.TimingConfiguration
	durations    model.Durations
	syncing      bool
}

// New creates the main window. Closing it only hides it.
func New(app fyne.App, title string, controller *Controller, actions Actions) *Window {
	window := app.NewWindow(title)

	modeLabel := widget.NewLabelWithStyle("Working", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	countdown := widget.NewLabelWithStyle("--:--", fyne.TextAlignCenter, fyne.TextStyle{Bold: true, Monospace: true})
	countdown.SizeName = theme.SizeNameHeadingText

	prefs := &Window{
		window:     window,
		controller: controller,
		actions:    actions,
		modeLabel:  modeLabel,
		countdown:  countdown,
		workEntry:  widget.NewEntry(),
		restEntry:  widget.NewEntry(),
		presets:    make(map[string]model.TimingConfiguration),
	}

	prefs.pauseButton = widget.NewButton("Pause", func() { call(prefs.actions.OnTogglePause) })
	prefs.switchButton = widget.NewButton("Start rest", func() { call(prefs.actions.OnSwitchMode) })
	resetButton := widget.NewButton("Reset", func() { call(prefs.actions.OnReset) })

	prefs.presetSelect = widget.NewSelect(nil, prefs.handleSelect)
	prefs.presetSelect.PlaceHolder = "Choose a preset"
	prefs.workEntry.SetPlaceHolder("minutes")
	prefs.restEntry.SetPlaceHolder("minutes")

	applyButton := widget.NewButton("Apply", func() { prefs.applyEntries() })
	saveNewButton := widget.NewButton("Save as new…", prefs.promptSaveAsNew)
	overwriteButton := widget.NewButton("Overwrite preset", prefs.handleOverwrite)
	resetAllButton := widget.NewButton("Reset all presets…", prefs.confirmResetAll)
	resetAllButton.Importance = widget.DangerImportance

	timerBox := container.NewVBox(
		modeLabel,
		countdown,
		container.NewGridWithColumns(3, prefs.pauseButton, resetButton, prefs.switchButton),
	)

	form := widget.NewForm(
		widget.NewFormItem("Preset", prefs.presetSelect),
		widget.NewFormItem("Work (min)", prefs.workEntry),
		widget.NewFormItem("Rest (min)", prefs.restEntry),
	)

	editor := container.NewVBox(
		widget.NewLabelWithStyle("Timing", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
		container.NewHBox(applyButton, layout.NewSpacer(), saveNewButton, overwriteButton),
		widget.NewSeparator(),
		container.NewHBox(layout.NewSpacer(), resetAllButton),
	)

	window.SetContent(container.NewPadded(container.NewVBox(timerBox, widget.NewSeparator(), editor)))
	window.Resize(fyne.NewSize(460, 420))
	window.SetCloseIntercept(window.Hide)

	return prefs
}

// Show displays the window and refreshes the preset list.
func (prefs *Window) Show() {
	prefs.ReloadPresets()
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// Update renders the timer state.
func (prefs *Window) Update(snapshot timekeeper.Snapshot) {
	if snapshot.Mode == timekeeper.ModeResting {
		prefs.modeLabel.SetText("Resting")
		prefs.switchButton.SetText("End rest")
	} else {
		prefs.modeLabel.SetText("Working")
		prefs.switchButton.SetText("Start rest")
	}
	if snapshot.Paused {
		prefs.pauseButton.SetText("Resume")
	} else {
		prefs.pauseButton.SetText("Pause")
	}
	prefs.countdown.SetText(snapshot.FormattedRemaining())

	durations := model.Durations{WorkSeconds: snapshot.WorkSeconds, RestSeconds: snapshot.RestSeconds}
	if durations != prefs.durations {
		prefs.durations = durations
		prefs.workEntry.SetText(FormatMinutes(durations.WorkSeconds))
		prefs.restEntry.SetText(FormatMinutes(durations.RestSeconds))
	}
}

// ReloadPresets re-reads the catalog into the picker.
func (prefs *Window) ReloadPresets() {
	configs, err := prefs.controller.Presets(context.Background())
	if err != nil {
		dialog.ShowError(fmt.Errorf("load presets: %w", err), prefs.window)
		return
	}

	options := make([]string, 0, len(configs))
	prefs.presets = make(map[string]model.TimingConfiguration, len(configs))
	prefs.selected = nil
	selectedID, hasSelection := prefs.controller.SelectedID()
	selectedLabel := ""
	for _, config := range configs {
		label := PresetLabel(config)
		options = append(options, label)
		prefs.presets[label] = config
		if hasSelection && config.ID == selectedID {
			chosen := config
			prefs.selected = &chosen
			selectedLabel = label
		}
	}

	prefs.syncing = true
	prefs.presetSelect.SetOptions(options)
	if selectedLabel != "" {
		prefs.presetSelect.SetSelected(selectedLabel)
	} else {
		prefs.presetSelect.ClearSelected()
	}
	prefs.syncing = false
}

func (prefs *Window) handleSelect(label string) {
	if prefs.syncing {
		return
	}
	config, ok := prefs.presets[label]
	if !ok {
		return
	}
	prefs.selected = &config
	prefs.controller.Select(config)
}

// applyEntries pushes the edited durations to the timer and reports
// whether both entries parsed.
func (prefs *Window) applyEntries() bool {
	work, err := ParseMinutes(prefs.workEntry.Text)
	if err != nil {
		dialog.ShowError(err, prefs.window)
		return false
	}
	rest, err := ParseMinutes(prefs.restEntry.Text)
	if err != nil {
		dialog.ShowError(err, prefs.window)
		return false
	}
	work, rest = prefs.controller.ApplyDurations(work, rest)
	prefs.workEntry.SetText(FormatMinutes(work))
	prefs.restEntry.SetText(FormatMinutes(rest))
	return true
}

func (prefs *Window) promptSaveAsNew() {
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Preset name")
	items := []*widget.FormItem{widget.NewFormItem("Name", nameEntry)}
	dialog.ShowForm("Save as new preset", "Save", "Cancel", items, func(confirmed bool) {
		if !confirmed {
			return
		}
		if !prefs.applyEntries() {
			return
		}
		_, err := prefs.controller.SaveAsNew(context.Background(), nameEntry.Text)
		prefs.reportSave(err)
	}, prefs.window)
}

func (prefs *Window) handleOverwrite() {
	if !prefs.applyEntries() {
		return
	}
	_, err := prefs.controller.Overwrite(context.Background(), prefs.selected)
	if errors.Is(err, ErrNeedsNewName) {
		prefs.promptSaveAsNew()
		return
	}
	prefs.reportSave(err)
}

func (prefs *Window) reportSave(err error) {
	switch {
	case err == nil:
		prefs.ReloadPresets()
	case errors.Is(err, storage.ErrDuplicateName):
		dialog.ShowInformation("Name taken", "A preset with this name already exists. Pick another name.", prefs.window)
	case errors.Is(err, ErrEmptyName):
		dialog.ShowInformation("Name required", "Enter a name for the preset.", prefs.window)
	default:
		dialog.ShowError(err, prefs.window)
	}
}

func (prefs *Window) confirmResetAll() {
	dialog.ShowConfirm("Reset all presets",
		"Delete your presets and restore the built-in ones?",
		func(confirmed bool) {
			if !confirmed {
				return
			}
			if err := prefs.controller.ResetAll(context.Background()); err != nil {
				dialog.ShowError(err, prefs.window)
				return
			}
			prefs.ReloadPresets()
		}, prefs.window)
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
