// Package tray provides a desktop tray for bench tuning sessions of the
// target vision loop.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/frc2554/targetvision/internal/target"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	last        string
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuResult *systray.MenuItem
}

// New creates a new Tray instance with processing enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		last:    ResultTitle(target.NoTarget()),
	}
}

// ToggleTitle is the toggle menu label for the given state.
func ToggleTitle(enabled bool) string {
	if enabled {
		return "● Processing"
	}
	return "○ Paused"
}

// ResultTitle is the result menu label for r.
func ResultTitle(r target.DetectionResult) string {
	if !r.TargetExists {
		return "Yaw: no target"
	}
	return fmt.Sprintf("Yaw: %.2f°", r.YawAngle)
}

// OnToggle sets the callback function to be called when processing is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback for the dashboard menu item.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("TargetVision")
	systray.SetTooltip("Retro-reflective target tracking")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(ToggleTitle(t.enabled), "Pause or resume frame processing")
	systray.AddSeparator()

	t.menuResult = systray.AddMenuItem(t.last, "Last detection")
	t.menuResult.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Stop the vision loop and quit")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(ToggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetResult updates the last detection display. Only changes of the label
// reach the menu.
func (t *Tray) SetResult(r target.DetectionResult) {
	title := ResultTitle(r)

	t.mu.Lock()
	defer t.mu.Unlock()

	if title == t.last {
		return
	}
	t.last = title
	if t.menuResult != nil {
		t.menuResult.SetTitle(title)
	}
}

// LastTitle returns the label currently shown for the last detection.
func (t *Tray) LastTitle() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
