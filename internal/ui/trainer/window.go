// Package trainer is the main practice window: score, transport controls,
// count-in and next-bar preview.
package trainer

import (
	"context"
	"fmt"
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"ritmo/internal/core/library"
	"ritmo/internal/core/model"
	"ritmo/internal/core/scheduler"
	"ritmo/internal/ui/animation"
	"ritmo/internal/ui/notation"
	"ritmo/internal/ui/preferences"
)

// Player is the playback surface the window drives.
type Player interface {
	Start()
	Stop()
	ToggleMute() bool
	Regenerate() bool
	Status() scheduler.State
	Score() model.Score
	Config() model.TrainerConfig
	Snapshot() model.PlaybackState
}

// Callbacks defines window action handlers that need the application.
type Callbacks struct {
	OnSongChange  func(song string)
	OnPreferences func()
	OnQuit        func()
}

var (
	countColor = color.NRGBA{R: 232, G: 190, B: 66, A: 255}
	beatOff    = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	beatOn     = color.NRGBA{R: 232, G: 190, B: 66, A: 255}
	beatAccent = color.NRGBA{R: 214, G: 96, B: 48, A: 255}
)

// Window manages the trainer UI.
type Window struct {
	window    fyne.Window
	player    Player
	callbacks Callbacks
	songs     []string

	view       *notation.View
	hintView   *notation.View
	hintBox    *fyne.Container
	countLabel *canvas.Text
	statusText *widget.Label
	tempoText  *widget.Label
	beats      []*canvas.Circle

	startButton    *widget.Button
	generateButton *widget.Button
	muteButton     *widget.Button
	songSelect     *widget.Select

	engine   *animation.Engine
	state    scheduler.State
	barCount int
}

// New creates the trainer window.
func New(app fyne.App, player Player, songs []string, barsPerRow int, callbacks Callbacks) *Window {
	window := app.NewWindow("Ritmo")
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	config := notation.DefaultConfig()
	config.BarsPerRow = barsPerRow
	view := notation.NewView(config)

	hintConfig := notation.DefaultConfig()
	hintConfig.BarsPerRow = 1
	hintConfig.Margin = 4
	hintView := notation.NewView(hintConfig)

	countLabel := canvas.NewText("", countColor)
	countLabel.TextStyle = fyne.TextStyle{Bold: true}
	countLabel.TextSize = 72
	countLabel.Alignment = fyne.TextAlignCenter
	countLabel.Hide()

	trainer := &Window{
		window:     window,
		player:     player,
		callbacks:  callbacks,
		songs:      songs,
		view:       view,
		hintView:   hintView,
		countLabel: countLabel,
		statusText: widget.NewLabel(""),
		tempoText:  widget.NewLabel(""),
		state:      scheduler.StateIdle,
	}
	trainer.engine = animation.New(animation.DefaultConfig(), func(frame animation.Frame) {
		fyne.Do(func() { trainer.renderCount(frame) })
	})

	for i := 0; i < model.BeatsPerBar; i++ {
		dot := canvas.NewCircle(beatOff)
		dot.Resize(fyne.NewSize(14, 14))
		trainer.beats = append(trainer.beats, dot)
	}

	trainer.startButton = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), trainer.toggleTransport)
	trainer.generateButton = widget.NewButtonWithIcon("Generate", theme.ViewRefreshIcon(), func() {
		trainer.player.Regenerate()
	})
	trainer.muteButton = widget.NewButtonWithIcon("Mute", theme.VolumeMuteIcon(), func() {
		trainer.player.ToggleMute()
	})
	trainer.muteButton.Disable()
	settingsButton := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		if trainer.callbacks.OnPreferences != nil {
			trainer.callbacks.OnPreferences()
		}
	})

	trainer.songSelect = widget.NewSelect(preferences.SongOptions(songs), nil)
	trainer.songSelect.SetSelectedIndex(preferences.SongIndex(songs, player.Config().Song))
	trainer.songSelect.OnChanged = func(string) {
		song := preferences.SongAt(songs, trainer.songSelect.SelectedIndex())
		if trainer.callbacks.OnSongChange != nil {
			trainer.callbacks.OnSongChange(song)
		}
	}

	beatRow := container.NewHBox()
	for _, dot := range trainer.beats {
		beatRow.Add(container.NewGridWrap(fyne.NewSize(18, 18), dot))
	}

	toolbar := container.NewHBox(
		trainer.startButton,
		trainer.generateButton,
		trainer.muteButton,
		trainer.songSelect,
		layout.NewSpacer(),
		trainer.tempoText,
		beatRow,
		settingsButton,
	)

	trainer.hintBox = container.NewHBox(widget.NewLabel("Next:"), hintView.Object())
	trainer.hintBox.Hide()
	footer := container.NewHBox(trainer.statusText, layout.NewSpacer(), trainer.hintBox)

	score := container.NewScroll(view.Object())
	stage := container.NewStack(score, container.NewCenter(countLabel))
	window.SetContent(container.NewBorder(toolbar, footer, nil, nil, stage))
	window.Resize(fyne.NewSize(960, 520))
	window.SetCloseIntercept(func() {
		if trainer.callbacks.OnQuit != nil {
			trainer.callbacks.OnQuit()
			return
		}
		window.Close()
	})

	trainer.showScore(player.Score())
	trainer.showConfig(player.Config())
	return trainer
}

// Show displays the window.
func (trainer *Window) Show() {
	trainer.window.Show()
	trainer.window.RequestFocus()
}

// Listen applies scheduler events on the fyne thread until ctx ends or the
// channel closes.
func (trainer *Window) Listen(ctx context.Context, events <-chan scheduler.Event) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				fyne.Do(func() { trainer.apply(event) })
			}
		}
	}()
}

// SetBarsPerRow changes the score wrapping.
func (trainer *Window) SetBarsPerRow(count int) {
	trainer.view.SetBarsPerRow(count)
}

// Refresh re-reads score and configuration from the player.
func (trainer *Window) Refresh() {
	config := trainer.player.Config()
	trainer.showScore(trainer.player.Score())
	trainer.showConfig(config)

	onChanged := trainer.songSelect.OnChanged
	trainer.songSelect.OnChanged = nil
	trainer.songSelect.SetSelectedIndex(preferences.SongIndex(trainer.songs, config.Song))
	trainer.songSelect.OnChanged = onChanged
}

func (trainer *Window) apply(event scheduler.Event) {
	switch event.Type {
	case scheduler.EventStateChange:
		trainer.setState(event.State)
	case scheduler.EventPreRoll:
		trainer.countLabel.Show()
		trainer.engine.StartPulse(context.Background(), animation.Pulse{
			Text:   strconv.Itoa(event.PreRollBeat),
			Accent: event.PreRollBeat == 1,
		})
	case scheduler.EventBarAdvance:
		trainer.view.SetActive(event.Bar)
		trainer.statusText.SetText(statusLine(event.Bar, trainer.barCount, event.Section))
		trainer.showHint(event.Hint)
	case scheduler.EventScoreChange:
		if event.Score != nil {
			trainer.showScore(*event.Score)
		}
	case scheduler.EventClick:
		trainer.lightBeat(event.Beat)
	case scheduler.EventMute:
		trainer.setMuted(event.Muted)
	}
}

func (trainer *Window) setState(state scheduler.State) {
	trainer.state = state
	switch state {
	case scheduler.StateIdle:
		trainer.engine.Stop()
		trainer.countLabel.Hide()
		trainer.view.SetActive(-1)
		trainer.showHint(nil)
		trainer.lightBeat(0)
		trainer.setMuted(false)
		trainer.statusText.SetText("")
		trainer.startButton.SetText("Start")
		trainer.startButton.SetIcon(theme.MediaPlayIcon())
		trainer.generateButton.Enable()
		trainer.songSelect.Enable()
		trainer.muteButton.Disable()
		trainer.showConfig(trainer.player.Config())
	case scheduler.StatePreRoll:
		trainer.startButton.SetText("Stop")
		trainer.startButton.SetIcon(theme.MediaStopIcon())
		trainer.generateButton.Disable()
		trainer.songSelect.Disable()
		trainer.muteButton.Enable()
		trainer.setMuted(trainer.player.Snapshot().Muted)
	case scheduler.StateRunning:
		trainer.engine.Stop()
		trainer.countLabel.Hide()
	}
}

func (trainer *Window) toggleTransport() {
	if trainer.state == scheduler.StateIdle {
		trainer.player.Start()
		return
	}
	trainer.player.Stop()
}

func (trainer *Window) showScore(score model.Score) {
	trainer.barCount = score.Len()
	trainer.view.SetBars(score.Bars())
}

func (trainer *Window) showConfig(config model.TrainerConfig) {
	trainer.tempoText.SetText(fmt.Sprintf("♩ = %d", config.BPM))
}

func (trainer *Window) showHint(hint model.Bar) {
	if hint == nil {
		trainer.hintBox.Hide()
		return
	}
	trainer.hintView.SetBars([]model.Bar{hint})
	trainer.hintBox.Show()
}

func (trainer *Window) setMuted(muted bool) {
	if muted {
		trainer.muteButton.SetText("Unmute")
		trainer.muteButton.SetIcon(theme.VolumeUpIcon())
		return
	}
	trainer.muteButton.SetText("Mute")
	trainer.muteButton.SetIcon(theme.VolumeMuteIcon())
}

// lightBeat highlights the dot for beat (1-based); 0 turns all off.
func (trainer *Window) lightBeat(beat int) {
	for i, dot := range trainer.beats {
		fill := beatOff
		if i+1 == beat {
			fill = beatOn
			if beat == 1 {
				fill = beatAccent
			}
		}
		dot.FillColor = fill
		dot.Refresh()
	}
}

func (trainer *Window) renderCount(frame animation.Frame) {
	if trainer.state != scheduler.StatePreRoll {
		return
	}
	trainer.countLabel.Text = frame.Text
	trainer.countLabel.TextSize = 72 * frame.Scale
	trainer.countLabel.Color = color.NRGBA{R: countColor.R, G: countColor.G, B: countColor.B, A: frame.Alpha}
	trainer.countLabel.Refresh()
}

func statusLine(bar, total int, section string) string {
	if bar < 0 || total <= 0 {
		return ""
	}
	line := fmt.Sprintf("Bar %d/%d", bar+1, total)
	if section != "" {
		line += " · " + library.SongLabel(section)
	}
	return line
}
