package animation

import "time"

// Frame is one rendered step of a count-in pulse.
type Frame struct {
	Text  string
	Scale float32
	Alpha uint8
	// Last marks the final frame of a pulse.
	Last bool
}

// Pulse describes one count-in beat.
type Pulse struct {
	Text   string
	Accent bool
	// Length overrides Config.PulseLength when positive.
	Length time.Duration
}
