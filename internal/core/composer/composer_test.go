package composer

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"ritmo/internal/core/library"
	"ritmo/internal/core/model"
	"ritmo/internal/core/selector"
)

// scriptedSource hands out distinct bars so substitutions are visible.
type scriptedSource struct {
	bars    []model.Bar
	next    int
	ending  model.Ending
	endings int
}

func (source *scriptedSource) PickRandomBar() model.Bar {
	bar := source.bars[source.next%len(source.bars)]
	source.next++
	return bar.Clone()
}

func (source *scriptedSource) PickRandomEnding() model.Ending {
	source.endings++
	return source.ending
}

var (
	barA   = model.Bar{model.Note(model.High, model.Quarter), model.Note(model.Low, model.Quarter), model.Note(model.Low, model.Quarter)}
	barB   = model.Bar{model.Note(model.High, model.Half), model.Note(model.Low, model.Quarter)}
	final  = model.Bar{model.Note(model.High, model.Half), model.Rest(model.Quarter)}
	opener = model.Bar{model.Rest(model.Eighth), model.Note(model.High, model.Eighth), model.Note(model.Low, model.Half)}
)

func newScripted() *scriptedSource {
	return &scriptedSource{
		bars:   []model.Bar{barA, barB},
		ending: model.Ending{Final: final, Next: opener},
	}
}

func TestComposeWithoutEndings(t *testing.T) {
	source := newScripted()
	result := New(library.Default(), source).Compose(4, false, false)

	require.Nil(t, result.Ending)
	require.Equal(t, 0, source.endings)
	require.Equal(t, []model.Bar{barA, barB, barA, barB}, result.Score.Bars())
	require.False(t, result.Score.IsSong())
}

func TestComposeSubstitutesEnding(t *testing.T) {
	for barCount := 2; barCount <= 8; barCount++ {
		result := New(library.Default(), newScripted()).Compose(barCount, true, false)
		bars := result.Score.Bars()

		require.Len(t, bars, barCount)
		require.NotNil(t, result.Ending)
		require.True(t, bars[barCount-1].Equal(result.Ending.Final))
		require.True(t, bars[0].Equal(result.Ending.Next))
	}
}

func TestComposeResumingKeepsFirstBar(t *testing.T) {
	result := New(library.Default(), newScripted()).Compose(3, true, true)
	bars := result.Score.Bars()

	require.True(t, bars[0].Equal(barA))
	require.True(t, bars[2].Equal(final))
}

func TestComposeSingleBarLastWriteWins(t *testing.T) {
	var result Result
	require.NotPanics(t, func() {
		result = New(library.Default(), newScripted()).Compose(1, true, false)
	})
	bars := result.Score.Bars()
	require.Len(t, bars, 1)
	require.True(t, bars[0].Equal(result.Ending.Final))
}

func TestComposeClampsBarCount(t *testing.T) {
	result := New(library.Default(), newScripted()).Compose(0, false, false)
	require.Equal(t, 1, result.Score.Len())
}

func TestComposedBarsKeepDurationInvariant(t *testing.T) {
	lib := library.Default()
	composer := New(lib, selector.New(lib, rand.NewSource(3)))
	for i := 0; i < 50; i++ {
		result := composer.Compose(1+i%12, i%2 == 0, i%3 == 0)
		for _, bar := range result.Score.Bars() {
			require.Equal(t, model.BarTicks, bar.Ticks(), bar.String())
		}
	}
}

func TestLoadSong(t *testing.T) {
	lib := library.Default()
	composer := New(lib, selector.New(lib, rand.NewSource(1)))

	score, err := composer.LoadSong("chacarera_simple")
	require.NoError(t, err)
	require.True(t, score.IsSong())
	require.Equal(t, "introduccion", score.Sections[0].Name)
	require.Equal(t, 14, score.Len())
	for _, bar := range score.Bars() {
		require.NoError(t, bar.Validate())
	}

	_, err = composer.LoadSong("milonga")
	require.True(t, errors.Is(err, ErrUnknownSong))
}
