package model

import (
	"errors"
	"fmt"
	"strings"
)

// BeatsPerBar is fixed: every exercise is in 3/4.
const BeatsPerBar = 3

// TicksPerBeat is the resolution used to sum durations. Twelve keeps
// triplet eighths integral.
const TicksPerBeat = 12

// BarTicks is the length every bar must add up to.
const BarTicks = BeatsPerBar * TicksPerBeat

// ErrInvalidBar indicates a bar that breaks the duration invariant.
var ErrInvalidBar = errors.New("invalid bar")

// Duration is a notated note value.
type Duration int

const (
	Quarter Duration = iota
	Eighth
	DottedQuarter
	Half
)

// Ticks returns the notated length of the duration.
func (duration Duration) Ticks() int {
	switch duration {
	case Quarter:
		return TicksPerBeat
	case Eighth:
		return TicksPerBeat / 2
	case DottedQuarter:
		return TicksPerBeat * 3 / 2
	case Half:
		return TicksPerBeat * 2
	}
	return 0
}

// Code returns the short notation code ("4", "8", "4.", "2").
func (duration Duration) Code() string {
	switch duration {
	case Quarter:
		return "4"
	case Eighth:
		return "8"
	case DottedQuarter:
		return "4."
	case Half:
		return "2"
	}
	return "?"
}

// Beamable reports whether the duration carries a flag and may be beamed.
func (duration Duration) Beamable() bool {
	return duration == Eighth
}

// Pitch is the staff position a sound is notated at.
type Pitch int

const (
	Low Pitch = iota
	High
	Percussive
)

// Letter returns the placeholder letter used in pattern files.
func (pitch Pitch) Letter() string {
	switch pitch {
	case High:
		return "g"
	case Low:
		return "e"
	case Percussive:
		return "x"
	}
	return "?"
}

// Event is one notated sound or silence.
type Event struct {
	Pitch    Pitch
	Duration Duration
	Rest     bool
}

func (event Event) String() string {
	if event.Rest {
		return "r" + event.Duration.Code()
	}
	return event.Pitch.Letter() + event.Duration.Code()
}

// ItemKind tags the variant held by an Item.
type ItemKind int

const (
	ItemEvent ItemKind = iota
	ItemTriplet
)

// Item is either an Event or a triplet marker grouping the three events
// before it.
type Item struct {
	Kind  ItemKind
	Event Event
}

// Note wraps an event as an Item.
func Note(pitch Pitch, duration Duration) Item {
	return Item{Kind: ItemEvent, Event: Event{Pitch: pitch, Duration: duration}}
}

// Rest wraps a rest as an Item.
func Rest(duration Duration) Item {
	return Item{Kind: ItemEvent, Event: Event{Pitch: Percussive, Duration: duration, Rest: true}}
}

// Triplet returns a triplet marker.
func Triplet() Item {
	return Item{Kind: ItemTriplet}
}

// IsTriplet reports whether the item is a triplet marker.
func (item Item) IsTriplet() bool {
	return item.Kind == ItemTriplet
}

// Bar is one measure of items.
type Bar []Item

// Events returns the bar's events without markers.
func (bar Bar) Events() []Event {
	events := make([]Event, 0, len(bar))
	for _, item := range bar {
		if !item.IsTriplet() {
			events = append(events, item.Event)
		}
	}
	return events
}

// TripletRange returns the event indexes [start, end) grouped by the
// triplet marker, if the bar has one.
func (bar Bar) TripletRange() (start, end int, ok bool) {
	events := 0
	for _, item := range bar {
		if item.IsTriplet() {
			if events < 3 {
				return 0, 0, false
			}
			return events - 3, events, true
		}
		events++
	}
	return 0, 0, false
}

// EventTicks returns the sounding length of each event, with the triplet
// group played in the time of two.
func (bar Bar) EventTicks() []int {
	events := bar.Events()
	ticks := make([]int, len(events))
	for i, event := range events {
		ticks[i] = event.Duration.Ticks()
	}
	if start, end, ok := bar.TripletRange(); ok {
		for i := start; i < end; i++ {
			ticks[i] = ticks[i] * 2 / 3
		}
	}
	return ticks
}

// Ticks returns the total sounding length of the bar.
func (bar Bar) Ticks() int {
	total := 0
	for _, ticks := range bar.EventTicks() {
		total += ticks
	}
	return total
}

// Validate checks the duration invariant and the triplet marker rules.
func (bar Bar) Validate() error {
	markers := 0
	events := 0
	for _, item := range bar {
		if item.IsTriplet() {
			markers++
			if events < 3 {
				return fmt.Errorf("%w: triplet marker after %d events", ErrInvalidBar, events)
			}
			continue
		}
		events++
	}
	if markers > 1 {
		return fmt.Errorf("%w: %d triplet markers", ErrInvalidBar, markers)
	}
	if events == 0 {
		return fmt.Errorf("%w: no events", ErrInvalidBar)
	}
	if ticks := bar.Ticks(); ticks != BarTicks {
		return fmt.Errorf("%w: %s lasts %d ticks, want %d", ErrInvalidBar, bar, ticks, BarTicks)
	}
	return nil
}

// Equal reports whether two bars hold the same items.
func (bar Bar) Equal(other Bar) bool {
	if len(bar) != len(other) {
		return false
	}
	for i := range bar {
		if bar[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no memory with bar.
func (bar Bar) Clone() Bar {
	if bar == nil {
		return nil
	}
	return append(Bar(nil), bar...)
}

// String renders the bar in compact text notation, e.g. "g4 e8 g8 e4" or
// "3[e8 e8 g8] g4 e4".
func (bar Bar) String() string {
	events := bar.Events()
	start, end, hasTriplet := bar.TripletRange()
	parts := make([]string, 0, len(events))
	for i := 0; i < len(events); i++ {
		if hasTriplet && i == start {
			group := make([]string, 0, 3)
			for j := start; j < end; j++ {
				group = append(group, events[j].String())
			}
			parts = append(parts, "3["+strings.Join(group, " ")+"]")
			i = end - 1
			continue
		}
		parts = append(parts, events[i].String())
	}
	return strings.Join(parts, " ")
}

// Ending is a cadence bar plus the bar that opens the next repetition.
type Ending struct {
	Final Bar
	Next  Bar
}
