package preferences

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/require"
)

var songs = []string{"chacarera_doble", "chacarera_simple"}

func TestSongSelection(t *testing.T) {
	require.Equal(t, 0, SongIndex(songs, ""))
	require.Equal(t, 0, SongIndex(songs, "zamba"))
	require.Equal(t, 2, SongIndex(songs, "chacarera_simple"))

	require.Equal(t, "", SongAt(songs, -1))
	require.Equal(t, "", SongAt(songs, 0))
	require.Equal(t, "chacarera_doble", SongAt(songs, 1))
	require.Equal(t, "", SongAt(songs, 3))

	require.Equal(t, []string{GeneratedLabel, "Chacarera doble", "Chacarera simple"}, SongOptions(songs))
}

func TestParsePositiveInt(t *testing.T) {
	value, ok := parsePositiveInt("96")
	require.True(t, ok)
	require.Equal(t, 96, value)

	for _, text := range []string{"", "0", "-4", "fast"} {
		_, ok := parsePositiveInt(text)
		require.False(t, ok, text)
	}
}

func TestWindowSaveClampsAndReports(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	var saved []Settings
	prefs := New(app, DefaultSettings(), songs, func(settings Settings) {
		saved = append(saved, settings)
	})
	require.Equal(t, "8", prefs.barCount.Text)
	require.Equal(t, GeneratedLabel, prefs.song.Selected)

	prefs.barCount.SetText("99")
	prefs.bpm.SetText("abc")
	prefs.endings.SetChecked(true)
	prefs.song.SetSelectedIndex(1)
	prefs.handleSave()

	require.Len(t, saved, 1)
	require.Equal(t, MaxBarCount, saved[0].BarCount)
	require.Equal(t, 120, saved[0].BPM)
	require.True(t, saved[0].UseEndings)
	require.Equal(t, "chacarera_doble", saved[0].Song)
}
