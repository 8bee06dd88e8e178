package preferences

import (
	"ritmo/internal/core/model"
)

const (
	MinBarCount = 1
	MaxBarCount = 32
	MinBPM      = 40
	MaxBPM      = 240

	MinBarsPerRow = 1
	MaxBarsPerRow = 8
)

// Settings defines editable user preferences.
type Settings struct {
	BarCount           int
	BPM                int
	Muted              bool
	RegenerateOnFinish bool
	UseEndings         bool

	BarsPerRow int
	// Song is an authored song name, empty for generated exercises.
	Song string
}

// DefaultSettings returns default settings for Ritmo.
func DefaultSettings() Settings {
	return Settings{
		BarCount:           8,
		BPM:                120,
		Muted:              false,
		RegenerateOnFinish: false,
		UseEndings:         false,
		BarsPerRow:         4,
	}
}

// Clamp pulls numeric settings into their allowed ranges.
func (settings Settings) Clamp() Settings {
	settings.BarCount = clamp(settings.BarCount, MinBarCount, MaxBarCount)
	settings.BPM = clamp(settings.BPM, MinBPM, MaxBPM)
	settings.BarsPerRow = clamp(settings.BarsPerRow, MinBarsPerRow, MaxBarsPerRow)
	return settings
}

// TrainerConfig converts settings to the scheduler configuration.
func (settings Settings) TrainerConfig() model.TrainerConfig {
	settings = settings.Clamp()
	return model.TrainerConfig{
		BPM:                settings.BPM,
		BarCount:           settings.BarCount,
		UseEndings:         settings.UseEndings,
		RegenerateOnFinish: settings.RegenerateOnFinish,
		Muted:              settings.Muted,
		Song:               settings.Song,
	}
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
