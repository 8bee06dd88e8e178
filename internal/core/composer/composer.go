package composer

import (
	"errors"
	"fmt"

	"ritmo/internal/core/library"
	"ritmo/internal/core/model"
)

// ErrUnknownSong indicates a song name missing from the library.
var ErrUnknownSong = errors.New("unknown song")

// BarSource draws random material.
type BarSource interface {
	PickRandomBar() model.Bar
	PickRandomEnding() model.Ending
}

// Result is a composed exercise and the ending drawn for it, if any.
type Result struct {
	Score  model.Score
	Ending *model.Ending
}

// Composer assembles exercises from a bar source.
type Composer struct {
	lib    *library.Library
	source BarSource
}

// New creates a composer.
func New(lib *library.Library, source BarSource) *Composer {
	return &Composer{lib: lib, source: source}
}

// RandomBar draws a single bar.
func (composer *Composer) RandomBar() model.Bar {
	return composer.source.PickRandomBar()
}

// Compose builds a flat exercise of barCount random bars. With endings the
// last bar becomes the ending's cadence and, unless resuming into a bar
// that was already promised, the first bar becomes the ending's opener.
// With a single bar both writes land on index 0 and the cadence wins.
func (composer *Composer) Compose(barCount int, useEndings, resuming bool) Result {
	if barCount < 1 {
		barCount = 1
	}
	bars := make([]model.Bar, barCount)
	for i := range bars {
		bars[i] = composer.source.PickRandomBar()
	}

	result := Result{}
	if useEndings {
		ending := composer.source.PickRandomEnding()
		if !resuming {
			bars[0] = ending.Next.Clone()
		}
		bars[barCount-1] = ending.Final.Clone()
		result.Ending = &ending
	}
	result.Score = model.NewFlatScore(bars)
	return result
}

// LoadSong materializes an authored song section by section.
func (composer *Composer) LoadSong(name string) (model.Score, error) {
	sections, ok := composer.lib.Songs[name]
	if !ok {
		return model.Score{}, fmt.Errorf("%w: %s", ErrUnknownSong, name)
	}
	score := model.Score{Sections: make([]model.Section, 0, len(sections))}
	for _, section := range sections {
		bars := make([]model.Bar, len(section.Bars))
		for i, template := range section.Bars {
			bars[i] = template.Materialize()
		}
		score.Sections = append(score.Sections, model.Section{Name: section.Name, Bars: bars})
	}
	return score, nil
}
