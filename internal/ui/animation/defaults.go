package animation

import "time"

// DefaultConfig returns the count-in pulse used by the trainer window.
func DefaultConfig() Config {
	return Config{
		FrameInterval: 16 * time.Millisecond,
		PulseLength:   350 * time.Millisecond,
		StartScale:    1.6,
		AccentScale:   2.0,
		EndAlpha:      60,
	}
}
