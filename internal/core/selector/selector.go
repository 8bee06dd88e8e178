package selector

import (
	"math/rand"
	"sync"
	"time"

	"ritmo/internal/core/library"
	"ritmo/internal/core/model"
)

// Selector draws random cells and endings from a library.
type Selector struct {
	mu  sync.Mutex
	lib *library.Library
	rng *rand.Rand
}

// New creates a selector. A nil source seeds from the wall clock.
func New(lib *library.Library, source rand.Source) *Selector {
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}
	return &Selector{
		lib: lib,
		rng: rand.New(source),
	}
}

// PickRandomBar returns a freshly materialized random cell.
func (selector *Selector) PickRandomBar() model.Bar {
	index := selector.intn(len(selector.lib.Cells))
	return selector.lib.Cells[index].Materialize()
}

// PickRandomEnding returns a freshly materialized random ending.
func (selector *Selector) PickRandomEnding() model.Ending {
	index := selector.intn(len(selector.lib.Endings))
	return selector.lib.Endings[index].Materialize()
}

func (selector *Selector) intn(n int) int {
	selector.mu.Lock()
	defer selector.mu.Unlock()
	return selector.rng.Intn(n)
}
