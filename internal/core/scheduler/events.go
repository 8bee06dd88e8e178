package scheduler

import (
	"time"

	"ritmo/internal/core/model"
)

// State represents the current Scheduler mode.
type State string

const (
	StateIdle    State = "idle"
	StatePreRoll State = "pre_roll"
	StateRunning State = "running"
)

// EventType defines the type of Scheduler event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventPreRoll     EventType = "pre_roll"
	EventBarAdvance  EventType = "bar_advance"
	EventScoreChange EventType = "score_change"
	EventClick       EventType = "click"
	EventMute        EventType = "mute"
)

// Event represents a Scheduler update for observers.
type Event struct {
	Type  EventType
	State State

	// Bar is the current bar index, -1 before the first bar-advance tick.
	Bar     int
	Section string
	// Hint is the look-ahead bar, only set while it is due next.
	Hint model.Bar

	PreRollBeat int
	Beat        int
	Accent      bool
	Muted       bool

	// Score is a private copy, set on EventScoreChange.
	Score *model.Score

	At time.Time
}
