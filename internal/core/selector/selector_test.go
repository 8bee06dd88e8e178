package selector

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"ritmo/internal/core/library"
	"ritmo/internal/core/model"
)

func TestPickRandomBarKeepsDurationInvariant(t *testing.T) {
	sel := New(library.Default(), rand.NewSource(7))
	for i := 0; i < 500; i++ {
		bar := sel.PickRandomBar()
		require.Equal(t, model.BarTicks, bar.Ticks(), bar.String())
	}
}

func TestPickRandomEndingKeepsDurationInvariant(t *testing.T) {
	sel := New(library.Default(), rand.NewSource(7))
	for i := 0; i < 100; i++ {
		ending := sel.PickRandomEnding()
		require.Equal(t, model.BarTicks, ending.Final.Ticks())
		require.Equal(t, model.BarTicks, ending.Next.Ticks())
	}
}

func TestSameSeedSameDraws(t *testing.T) {
	first := New(library.Default(), rand.NewSource(42))
	second := New(library.Default(), rand.NewSource(42))
	for i := 0; i < 50; i++ {
		require.True(t, first.PickRandomBar().Equal(second.PickRandomBar()))
	}
}

func TestPickRandomBarCoversCatalog(t *testing.T) {
	lib := library.Default()
	sel := New(lib, rand.NewSource(1))
	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		seen[sel.PickRandomBar().String()] = true
	}
	require.Len(t, seen, len(lib.Cells))
}

func TestConcurrentPicks(t *testing.T) {
	sel := New(library.Default(), nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = sel.PickRandomBar()
				_ = sel.PickRandomEnding()
			}
		}()
	}
	wg.Wait()
}
