// Package overlay shows the blocking rest screen.
package overlay

import (
	"fmt"
	"image/color"

	"takearest/internal/core/timekeeper"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Config defines overlay visuals.
type Config struct {
	Opacity    uint8
	Fullscreen bool
	Message    string
}

// Actions are the overlay buttons.
type Actions struct {
	OnExtend     func()
	OnEndRest    func()
	OnLockScreen func()
	OnHide       func()
}

// Window manages the overlay UI. Its methods must run on the fyne main
// goroutine.
type Window struct {
	window       fyne.Window
	config       Config
	background   *canvas.Rectangle
	timerLabel   *canvas.Text
	messageLabel *canvas.Text
	extendButton *widget.Button
	visible      bool
}

const (
	overlayWidthFraction  = float32(0.4)
	overlayHeightFraction = float32(0.4)
	defaultScreenWidth    = float32(1920)
	defaultScreenHeight   = float32(1080)
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates a hidden overlay window.
func New(app fyne.App, config Config, extendSeconds int, actions Actions) *Window {
	window := app.NewWindow("TakeARest")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewRectangle(color.NRGBA{R: 0, G: 0, B: 0, A: config.Opacity})

	titleLabel := canvas.NewText("Time to rest", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	titleLabel.Alignment = fyne.TextAlignCenter
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 28

	messageLabel := canvas.NewText(config.Message, color.NRGBA{R: 220, G: 220, B: 220, A: 255})
	messageLabel.Alignment = fyne.TextAlignCenter
	messageLabel.TextSize = 16

	timerLabel := canvas.NewText("--:--", color.NRGBA{R: 120, G: 200, B: 120, A: 255})
	timerLabel.Alignment = fyne.TextAlignCenter
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.TextSize = 64

	extendButton := widget.NewButton(extendLabel(extendSeconds), func() { call(actions.OnExtend) })
	endButton := widget.NewButton("End rest early", func() { call(actions.OnEndRest) })
	lockButton := widget.NewButton("Lock screen", func() { call(actions.OnLockScreen) })
	hideButton := widget.NewButton("Hide", func() { call(actions.OnHide) })

	buttons := container.NewHBox(layout.NewSpacer(), extendButton, endButton, lockButton, hideButton, layout.NewSpacer())
	content := container.NewVBox(layout.NewSpacer(), titleLabel, messageLabel, timerLabel, buttons, layout.NewSpacer())
	window.SetContent(container.NewStack(background, container.NewCenter(content)))

	overlay := &Window{
		window:       window,
		config:       config,
		background:   background,
		timerLabel:   timerLabel,
		messageLabel: messageLabel,
		extendButton: extendButton,
	}
	window.SetCloseIntercept(func() { call(actions.OnHide) })
	return overlay
}

// Sync shows, updates or hides the overlay to match snapshot.
func (overlay *Window) Sync(snapshot timekeeper.Snapshot) {
	if !snapshot.RestOverlayVisible {
		overlay.Hide()
		return
	}
	overlay.SetRemaining(snapshot.Remaining)
	if !overlay.visible {
		overlay.show()
	}
}

// Hide closes the overlay.
func (overlay *Window) Hide() {
	if !overlay.visible {
		return
	}
	overlay.visible = false
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(false)
	}
	overlay.window.Hide()
}

// Visible reports whether the overlay is on screen.
func (overlay *Window) Visible() bool {
	return overlay.visible
}

// SetRemaining updates the timer label.
func (overlay *Window) SetRemaining(remaining int) {
	text := timekeeper.FormatSeconds(remaining)
	if overlay.timerLabel.Text == text {
		return
	}
	overlay.timerLabel.Text = text
	overlay.timerLabel.Refresh()
}

// UpdateConfig updates overlay visuals.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.background.FillColor = color.NRGBA{R: 0, G: 0, B: 0, A: config.Opacity}
	overlay.messageLabel.Text = config.Message
	canvas.Refresh(overlay.background)
	overlay.messageLabel.Refresh()
	if overlay.visible {
		overlay.applyWindowMode()
	}
}

func (overlay *Window) show() {
	overlay.visible = true
	overlay.applyWindowMode()
	overlay.window.Show()
	overlay.window.RequestFocus()
}

func (overlay *Window) applyWindowMode() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(true)
		return
	}
	overlay.window.SetFullScreen(false)
	overlay.resizeToScreenFraction()
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	// Canvas size can be reused as a proxy for monitor size when it is clearly screen-like.
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	width := screenSize.Width * overlayWidthFraction
	height := screenSize.Height * overlayHeightFraction
	minSize := overlay.window.Content().MinSize()
	if width < minSize.Width {
		width = minSize.Width
	}
	if height < minSize.Height {
		height = minSize.Height
	}

	overlay.window.Resize(fyne.NewSize(width, height))
	overlay.window.CenterOnScreen()
}

// OpacityToAlpha maps a 0..1 opacity to an alpha byte.
func OpacityToAlpha(opacity float64) uint8 {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return uint8(opacity * 255)
}

func extendLabel(seconds int) string {
	if seconds%60 == 0 {
		return fmt.Sprintf("+%d min", seconds/60)
	}
	return fmt.Sprintf("+%ds", seconds)
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
