package preferences

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"ritmo/internal/core/library"
)

// GeneratedLabel is the song option that selects generated exercises.
const GeneratedLabel = "Generated exercise"

// Window handles the preferences UI.
type Window struct {
	window     fyne.Window
	settings   Settings
	onSave     func(Settings)
	onCancel   func()
	songs      []string
	barCount   *widget.Entry
	bpm        *widget.Entry
	barsPerRow *widget.Slider
	regenerate *widget.Check
	endings    *widget.Check
	muted      *widget.Check
	song       *widget.Select
}

// New creates a preferences window. Songs are the library song names offered
// besides generated exercises.
func New(app fyne.App, settings Settings, songs []string, onSave func(Settings)) *Window {
	window := app.NewWindow("Ritmo Settings")

	barCount := widget.NewEntry()
	bpm := widget.NewEntry()

	barsPerRow := widget.NewSlider(MinBarsPerRow, MaxBarsPerRow)
	barsPerRow.Step = 1

	regenerate := widget.NewCheck("Regenerate when the exercise loops", nil)
	endings := widget.NewCheck("Use endings", nil)
	muted := widget.NewCheck("Start muted", nil)

	song := widget.NewSelect(SongOptions(songs), nil)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Exercise", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Bars"), barCount, widget.NewLabel(fmt.Sprintf("%d-%d", MinBarCount, MaxBarCount))),
		container.NewHBox(widget.NewLabel("Tempo"), bpm, widget.NewLabel("bpm")),
		song,
		endings,
		regenerate,
		muted,
		widget.NewLabel("Bars per row"),
		barsPerRow,
	)

	saveButton := widget.NewButton("Save", nil)
	cancelButton := widget.NewButton("Cancel", nil)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	content := container.NewBorder(nil, buttons, nil, nil, form)
	window.SetContent(content)
	window.Resize(fyne.NewSize(420, 380))

	prefs := &Window{
		window:     window,
		onSave:     onSave,
		songs:      songs,
		barCount:   barCount,
		bpm:        bpm,
		barsPerRow: barsPerRow,
		regenerate: regenerate,
		endings:    endings,
		muted:      muted,
		song:       song,
	}
	prefs.UpdateSettings(settings)

	saveButton.OnTapped = prefs.handleSave
	cancelButton.OnTapped = func() {
		window.Hide()
		if prefs.onCancel != nil {
			prefs.onCancel()
		}
	}
	window.SetCloseIntercept(cancelButton.OnTapped)

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	settings = settings.Clamp()
	prefs.settings = settings
	prefs.barCount.SetText(strconv.Itoa(settings.BarCount))
	prefs.bpm.SetText(strconv.Itoa(settings.BPM))
	prefs.barsPerRow.Value = float64(settings.BarsPerRow)
	prefs.barsPerRow.Refresh()
	prefs.regenerate.SetChecked(settings.RegenerateOnFinish)
	prefs.endings.SetChecked(settings.UseEndings)
	prefs.muted.SetChecked(settings.Muted)
	prefs.song.SetSelectedIndex(SongIndex(prefs.songs, settings.Song))
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	if bars, ok := parsePositiveInt(prefs.barCount.Text); ok {
		settings.BarCount = bars
	}
	if bpm, ok := parsePositiveInt(prefs.bpm.Text); ok {
		settings.BPM = bpm
	}
	settings.BarsPerRow = int(prefs.barsPerRow.Value)
	settings.RegenerateOnFinish = prefs.regenerate.Checked
	settings.UseEndings = prefs.endings.Checked
	settings.Muted = prefs.muted.Checked
	settings.Song = SongAt(prefs.songs, prefs.song.SelectedIndex())

	settings = settings.Clamp()
	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

// SongOptions returns select labels for songs, led by GeneratedLabel.
func SongOptions(songs []string) []string {
	options := []string{GeneratedLabel}
	for _, name := range songs {
		options = append(options, library.SongLabel(name))
	}
	return options
}

// SongIndex maps a song name to its select option; index 0 is the
// generated exercise.
func SongIndex(songs []string, name string) int {
	for i, song := range songs {
		if song == name {
			return i + 1
		}
	}
	return 0
}

// SongAt is the inverse of SongIndex.
func SongAt(songs []string, index int) string {
	if index <= 0 || index > len(songs) {
		return ""
	}
	return songs[index-1]
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
