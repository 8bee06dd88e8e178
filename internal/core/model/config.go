package model

// TrainerConfig contains runtime settings for the playback scheduler.
type TrainerConfig struct {
	BPM      int
	BarCount int

	UseEndings         bool
	RegenerateOnFinish bool
	// Muted is the mute state applied at Start.
	Muted bool

	// Song selects an authored song. Empty means generated exercises.
	Song string
}

// PlaybackState is a snapshot of the scheduler cursor.
type PlaybackState struct {
	CurrentBar  int
	PreRoll     bool
	PreRollBeat int
	NextBarHint *Bar
	Muted       bool
}

// HasHint reports whether a look-ahead bar is pending.
func (state PlaybackState) HasHint() bool {
	return state.NextBarHint != nil
}
