package tempo

import (
	"time"

	"ritmo/internal/core/model"
)

// Clock derives every timing constant from a single BPM value.
type Clock struct {
	BPM int
}

// New returns a tempo clock for bpm.
func New(bpm int) Clock {
	return Clock{BPM: bpm}
}

// MsPerBeat returns 60000 / bpm.
func (clock Clock) MsPerBeat() float64 {
	return 60000 / float64(clock.BPM)
}

// MsPerBar returns the length of one 3/4 bar in milliseconds.
func (clock Clock) MsPerBar() float64 {
	return clock.MsPerBeat() * model.BeatsPerBar
}

// Beat returns the beat period.
func (clock Clock) Beat() time.Duration {
	return time.Minute / time.Duration(clock.BPM)
}

// Bar returns the bar period.
func (clock Clock) Bar() time.Duration {
	return clock.Beat() * model.BeatsPerBar
}
