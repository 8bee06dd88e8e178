package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow        func()
	OnPreferences func()
	OnTransport   func()
	OnToggleMute  func()
	OnGenerate    func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app           desktop.App
	statusItem    *fyne.MenuItem
	transportItem *fyne.MenuItem
	muteItem      *fyne.MenuItem
	generateItem  *fyne.MenuItem
	callbacks     Callbacks
	playing       bool
	muted         bool
	statusLabel   string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:         app,
		callbacks:   callbacks,
		statusLabel: "idle",
	}

	manager.statusItem = fyne.NewMenuItem("", nil)
	manager.statusItem.Disabled = true
	manager.transportItem = fyne.NewMenuItem("Start", invoke(&manager.callbacks.OnTransport))
	manager.muteItem = fyne.NewMenuItem("Mute", invoke(&manager.callbacks.OnToggleMute))
	manager.generateItem = fyne.NewMenuItem("Generate new exercise", invoke(&manager.callbacks.OnGenerate))

	manager.refresh()
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	manager.statusLabel = status
	manager.refresh()
}

// SetPlaying switches the transport item between Start and Stop.
func (manager *Manager) SetPlaying(playing bool) {
	manager.playing = playing
	if !playing {
		manager.muted = false
	}
	manager.refresh()
}

// SetMuted updates the mute item label.
func (manager *Manager) SetMuted(muted bool) {
	manager.muted = muted
	manager.refresh()
}

func (manager *Manager) refresh() {
	manager.statusItem.Label = fmt.Sprintf("Status: %s", manager.statusLabel)
	if manager.playing {
		manager.transportItem.Label = "Stop"
	} else {
		manager.transportItem.Label = "Start"
	}
	if manager.muted {
		manager.muteItem.Label = "Unmute"
	} else {
		manager.muteItem.Label = "Mute"
	}
	manager.muteItem.Disabled = !manager.playing
	manager.generateItem.Disabled = manager.playing

	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.menu())
	}
}

func (manager *Manager) menu() *fyne.Menu {
	return fyne.NewMenu("Ritmo",
		manager.statusItem,
		fyne.NewMenuItem("Show trainer", invoke(&manager.callbacks.OnShow)),
		fyne.NewMenuItemSeparator(),
		manager.transportItem,
		manager.muteItem,
		manager.generateItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences", invoke(&manager.callbacks.OnPreferences)),
		fyne.NewMenuItem("Quit", invoke(&manager.callbacks.OnQuit)),
	)
}

// invoke reads the handler at call time so callbacks can be set later.
func invoke(handler *func()) func() {
	return func() {
		if *handler != nil {
			(*handler)()
		}
	}
}
