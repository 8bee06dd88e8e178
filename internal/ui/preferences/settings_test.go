package preferences

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ritmo/internal/core/model"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{
			name: "defaults untouched",
			in:   DefaultSettings(),
			want: DefaultSettings(),
		},
		{
			name: "below range",
			in:   Settings{BarCount: 0, BPM: 10, BarsPerRow: -3},
			want: Settings{BarCount: 1, BPM: 40, BarsPerRow: 1},
		},
		{
			name: "above range",
			in:   Settings{BarCount: 64, BPM: 400, BarsPerRow: 12, UseEndings: true},
			want: Settings{BarCount: 32, BPM: 240, BarsPerRow: 8, UseEndings: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.in.Clamp())
		})
	}
}

func TestTrainerConfig(t *testing.T) {
	settings := DefaultSettings()
	settings.BPM = 500
	settings.Muted = true
	settings.RegenerateOnFinish = true
	settings.Song = "chacarera_simple"

	require.Equal(t, model.TrainerConfig{
		BPM:                240,
		BarCount:           8,
		RegenerateOnFinish: true,
		Muted:              true,
		Song:               "chacarera_simple",
	}, settings.TrainerConfig())
}
