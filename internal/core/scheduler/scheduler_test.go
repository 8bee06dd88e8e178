package scheduler

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"ritmo/internal/core/composer"
	"ritmo/internal/core/library"
	"ritmo/internal/core/model"
	"ritmo/internal/core/selector"
	"ritmo/internal/ticker"
)

var epoch = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

// recordingOutput is called from timer goroutines.
type recordingOutput struct {
	mu     sync.Mutex
	clicks []bool
	gains  []float64
}

func (output *recordingOutput) Click(accent bool) {
	output.mu.Lock()
	output.clicks = append(output.clicks, accent)
	output.mu.Unlock()
}

func (output *recordingOutput) SetGain(gain float64) {
	output.mu.Lock()
	output.gains = append(output.gains, gain)
	output.mu.Unlock()
}

func (output *recordingOutput) played() []bool {
	output.mu.Lock()
	defer output.mu.Unlock()
	return append([]bool(nil), output.clicks...)
}

func (output *recordingOutput) gain() float64 {
	output.mu.Lock()
	defer output.mu.Unlock()
	if len(output.gains) == 0 {
		return 1
	}
	return output.gains[len(output.gains)-1]
}

func newMock() *clock.Mock {
	mock := clock.NewMock()
	mock.Set(epoch)
	return mock
}

type harness struct {
	scheduler *Scheduler
	clock     *clock.Mock
	output    *recordingOutput
	events    <-chan Event
}

// pending counts the timers the scheduler still holds.
func (h *harness) pending() int {
	h.scheduler.mu.Lock()
	defer h.scheduler.mu.Unlock()
	count := len(h.scheduler.beatClicks)
	for _, periodic := range []*ticker.Ticker{h.scheduler.barTicker, h.scheduler.clickTicker, h.scheduler.preRollTicker} {
		if periodic != nil {
			count++
		}
	}
	return count
}

func newHarness(t *testing.T, config model.TrainerConfig) *harness {
	t.Helper()
	lib := library.Default()
	generator := composer.New(lib, selector.New(lib, rand.NewSource(11)))
	mock := newMock()
	output := &recordingOutput{}

	scheduler, err := New(config, generator, output, Options{Clock: mock})
	require.NoError(t, err)
	t.Cleanup(scheduler.Close)

	return &harness{
		scheduler: scheduler,
		clock:     mock,
		output:    output,
		events:    scheduler.Subscribe(4096),
	}
}

func (h *harness) drain() []Event {
	var events []Event
	for {
		select {
		case event := <-h.events:
			events = append(events, event)
		default:
			return events
		}
	}
}

func filter(events []Event, eventType EventType) []Event {
	var out []Event
	for _, event := range events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func TestScenarioFixedScore(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4})
	before := h.scheduler.Score()
	h.drain()

	h.scheduler.Start()
	h.clock.Add(5 * 1500 * time.Millisecond)

	events := h.drain()
	ticks := filter(events, EventBarAdvance)
	require.Len(t, ticks, 5)
	for i, tick := range ticks {
		require.Equal(t, i%4, tick.Bar)
		require.Equal(t, epoch.Add(time.Duration(i+1)*1500*time.Millisecond), tick.At)
		require.Nil(t, tick.Hint)
	}
	require.Empty(t, filter(events, EventScoreChange))

	after := h.scheduler.Score()
	require.Equal(t, before.Bars(), after.Bars())
}

func TestStartClicksImmediatelyAndInBeatOrder(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4})

	h.scheduler.Start()
	require.Equal(t, []bool{true}, h.output.played())

	h.clock.Add(500 * time.Millisecond)
	require.Equal(t, []bool{true, false}, h.output.played())

	h.clock.Add(2500 * time.Millisecond)
	require.Equal(t, []bool{true, false, false, true, false, false, true}, h.output.played())

	var beats []int
	for _, event := range filter(h.drain(), EventClick) {
		beats = append(beats, event.Beat)
	}
	require.Equal(t, []int{1, 2, 3, 1, 2, 3, 1}, beats)

	h.scheduler.Start()
	require.Len(t, h.output.played(), 7)
}

func TestPreRollCountIn(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4})

	h.scheduler.Start()
	state := h.scheduler.Snapshot()
	require.Equal(t, StatePreRoll, h.scheduler.Status())
	require.True(t, state.PreRoll)
	require.Equal(t, 1, state.PreRollBeat)
	require.Equal(t, -1, state.CurrentBar)

	h.clock.Add(500 * time.Millisecond)
	require.Equal(t, 2, h.scheduler.Snapshot().PreRollBeat)
	h.clock.Add(500 * time.Millisecond)
	require.Equal(t, 3, h.scheduler.Snapshot().PreRollBeat)

	h.clock.Add(500 * time.Millisecond)
	state = h.scheduler.Snapshot()
	require.False(t, state.PreRoll)
	require.Equal(t, 0, state.CurrentBar)
	require.Equal(t, StateRunning, h.scheduler.Status())

	var counts []int
	for _, event := range filter(h.drain(), EventPreRoll) {
		counts = append(counts, event.PreRollBeat)
	}
	require.Equal(t, []int{1, 2, 3}, counts)
}

func TestCursorWraparound(t *testing.T) {
	for _, barCount := range []int{1, 2, 5, 8} {
		h := newHarness(t, model.TrainerConfig{BPM: 200, BarCount: barCount})
		bar := 900 * time.Millisecond

		h.scheduler.Start()
		h.clock.Add(bar)
		require.Equal(t, 0, h.scheduler.Snapshot().CurrentBar)

		for i := 1; i <= barCount; i++ {
			h.clock.Add(bar)
			current := h.scheduler.Snapshot().CurrentBar
			require.GreaterOrEqual(t, current, 0)
			require.Less(t, current, barCount)
		}
		require.Equal(t, 0, h.scheduler.Snapshot().CurrentBar)
	}
}

func TestHintMatchesCommittedBar(t *testing.T) {
	for _, useEndings := range []bool{false, true} {
		h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4, RegenerateOnFinish: true, UseEndings: useEndings})
		bar := 1500 * time.Millisecond

		h.scheduler.Start()
		var promised *model.Bar
		commits := 0
		for tick := 0; tick < 4*6; tick++ {
			h.clock.Add(bar)
			state := h.scheduler.Snapshot()
			if state.CurrentBar == 0 && promised != nil {
				first, ok := h.scheduler.Score().Bar(0)
				require.True(t, ok)
				require.True(t, first.Equal(*promised), "want %s, got %s", promised, first)
				commits++
				promised = nil
			}
			if state.CurrentBar == 3 {
				require.NotNil(t, state.NextBarHint)
				promised = state.NextBarHint
			}
		}
		require.Equal(t, 5, commits)

		changes := filter(h.drain(), EventScoreChange)
		require.Len(t, changes, 5)
		for _, change := range changes {
			for _, bar := range change.Score.Bars() {
				require.Equal(t, model.BarTicks, bar.Ticks())
			}
		}
	}
}

func TestHintIsSurfacedOnLastBarOnly(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 3, RegenerateOnFinish: true})
	h.scheduler.Start()
	h.clock.Add(4 * 1500 * time.Millisecond)

	ticks := filter(h.drain(), EventBarAdvance)
	require.Len(t, ticks, 4)
	require.Nil(t, ticks[0].Hint)
	require.Nil(t, ticks[1].Hint)
	require.NotNil(t, ticks[2].Hint)
	require.Nil(t, ticks[3].Hint)

	first, _ := h.scheduler.Score().Bar(0)
	require.True(t, ticks[2].Hint.Equal(first))
}

func TestHintLifecycle(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4, RegenerateOnFinish: true})
	bar := 1500 * time.Millisecond

	h.scheduler.Start()
	require.Nil(t, h.scheduler.Snapshot().NextBarHint)

	for _, want := range []struct {
		bar     int
		hasHint bool
	}{
		{0, false}, {1, false}, {2, false}, {3, true},
		{0, true}, {1, false}, {2, false}, {3, true},
	} {
		h.clock.Add(bar)
		state := h.scheduler.Snapshot()
		require.Equal(t, want.bar, state.CurrentBar)
		require.Equal(t, want.hasHint, state.HasHint(), "bar %d", want.bar)
	}

	h.scheduler.Stop()
	state := h.scheduler.Snapshot()
	require.Nil(t, state.NextBarHint)
	require.Equal(t, -1, state.CurrentBar)
}

func TestNoHintWithoutRegeneration(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 2})
	h.scheduler.Start()
	for i := 0; i < 6; i++ {
		h.clock.Add(1500 * time.Millisecond)
		require.Nil(t, h.scheduler.Snapshot().NextBarHint)
	}
}

func TestEndingOpenerBecomesHint(t *testing.T) {
	lib := library.Default()
	generator := composer.New(lib, selector.New(lib, rand.NewSource(5)))
	mock := newMock()
	scheduler, err := New(model.TrainerConfig{BPM: 120, BarCount: 3, UseEndings: true, RegenerateOnFinish: true}, generator, &recordingOutput{}, Options{Clock: mock})
	require.NoError(t, err)
	defer scheduler.Close()

	opener, _ := scheduler.Score().Bar(0)
	scheduler.Start()
	mock.Add(3 * 1500 * time.Millisecond)

	hint := scheduler.Snapshot().NextBarHint
	require.NotNil(t, hint)
	require.True(t, hint.Equal(opener))
}

func TestSingleBarRegeneration(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 1, UseEndings: true, RegenerateOnFinish: true})
	bar := 1500 * time.Millisecond

	h.scheduler.Start()
	var promised *model.Bar
	for i := 0; i < 6; i++ {
		h.clock.Add(bar)
		state := h.scheduler.Snapshot()
		require.Equal(t, 0, state.CurrentBar)
		if promised != nil {
			current, _ := h.scheduler.Score().Bar(0)
			require.True(t, current.Equal(*promised))
		}
		require.NotNil(t, state.NextBarHint)
		promised = state.NextBarHint
	}
}

func TestStopCancelsEveryTimer(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4, RegenerateOnFinish: true})

	h.scheduler.Start()
	h.clock.Add(1700 * time.Millisecond)
	require.NotZero(t, h.pending())

	h.scheduler.Stop()
	require.Zero(t, h.pending())
	require.Equal(t, StateIdle, h.scheduler.Status())
	h.drain()
	clicks := len(h.output.played())

	h.clock.Add(time.Minute)
	require.Len(t, h.output.played(), clicks)
	require.Empty(t, h.drain())
	require.Equal(t, -1, h.scheduler.Snapshot().CurrentBar)
}

func TestStopThenStartBeginsAgain(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4})
	h.scheduler.Start()
	h.clock.Add(5 * time.Second)
	h.scheduler.Stop()

	h.scheduler.Start()
	require.Equal(t, StatePreRoll, h.scheduler.Status())
	h.clock.Add(1500 * time.Millisecond)
	require.Equal(t, 0, h.scheduler.Snapshot().CurrentBar)
}

func TestToggleMute(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4})
	require.False(t, h.scheduler.ToggleMute())

	h.scheduler.Start()
	original := h.output.gain()
	require.Equal(t, 1.0, original)

	require.True(t, h.scheduler.ToggleMute())
	require.Equal(t, 0.0, h.output.gain())
	require.True(t, h.scheduler.Snapshot().Muted)

	require.False(t, h.scheduler.ToggleMute())
	require.Equal(t, original, h.output.gain())

	h.scheduler.ToggleMute()
	h.scheduler.Stop()
	require.Equal(t, 1.0, h.output.gain())
	require.False(t, h.scheduler.Snapshot().Muted)
}

func TestStartMutedFromConfig(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4, Muted: true})
	h.scheduler.Start()
	require.Equal(t, 0.0, h.output.gain())
	require.True(t, h.scheduler.Snapshot().Muted)
}

func TestSongModeLoopsWithoutRegeneration(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, Song: "chacarera_simple", RegenerateOnFinish: true})
	score := h.scheduler.Score()
	require.True(t, score.IsSong())
	h.drain()

	h.scheduler.Start()
	h.clock.Add(time.Duration(score.Len()+1) * 1500 * time.Millisecond)

	events := h.drain()
	require.Empty(t, filter(events, EventScoreChange))
	ticks := filter(events, EventBarAdvance)
	require.Equal(t, "introduccion", ticks[0].Section)
	require.Equal(t, "final", ticks[score.Len()-1].Section)
	require.Equal(t, 0, ticks[score.Len()].Bar)
	require.Nil(t, h.scheduler.Snapshot().NextBarHint)
}

func TestUnknownSong(t *testing.T) {
	lib := library.Default()
	generator := composer.New(lib, selector.New(lib, rand.NewSource(1)))
	_, err := New(model.TrainerConfig{Song: "vidala"}, generator, &recordingOutput{}, Options{Clock: newMock()})
	require.ErrorIs(t, err, composer.ErrUnknownSong)

	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4})
	err = h.scheduler.UpdateConfig(model.TrainerConfig{BPM: 120, BarCount: 4, Song: "vidala"})
	require.ErrorIs(t, err, composer.ErrUnknownSong)
	require.Equal(t, "", h.scheduler.Config().Song)
}

func TestUpdateConfigWhileRunningDefersShape(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4})
	h.scheduler.Start()
	h.clock.Add(1500 * time.Millisecond)

	require.NoError(t, h.scheduler.UpdateConfig(model.TrainerConfig{BPM: 60, BarCount: 6}))
	require.Equal(t, 4, h.scheduler.Score().Len())

	h.drain()
	h.clock.Add(1500 * time.Millisecond)
	ticks := filter(h.drain(), EventBarAdvance)
	require.Len(t, ticks, 1)

	h.scheduler.Stop()
	require.Equal(t, 6, h.scheduler.Score().Len())

	h.scheduler.Start()
	h.clock.Add(2999 * time.Millisecond)
	require.Equal(t, -1, h.scheduler.Snapshot().CurrentBar)
	h.clock.Add(time.Millisecond)
	require.Equal(t, 0, h.scheduler.Snapshot().CurrentBar)
}

func TestRegenerateOnlyWhileIdle(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4})
	require.True(t, h.scheduler.Regenerate())

	h.scheduler.Start()
	require.False(t, h.scheduler.Regenerate())
}

func TestToggleEndingsWhileIdleRecomposes(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4, RegenerateOnFinish: true})
	h.drain()

	require.NoError(t, h.scheduler.UpdateConfig(model.TrainerConfig{BPM: 120, BarCount: 4, RegenerateOnFinish: true, UseEndings: true}))
	changes := filter(h.drain(), EventScoreChange)
	require.Len(t, changes, 1)

	score := h.scheduler.Score()
	require.Equal(t, 4, score.Len())
	last, ok := score.Bar(3)
	require.True(t, ok)
	require.True(t, isEndingFinal(last), "last bar %s is not a cadence", last)

	opener, _ := score.Bar(0)
	h.scheduler.Start()
	h.clock.Add(4 * 1500 * time.Millisecond)
	hint := h.scheduler.Snapshot().NextBarHint
	require.NotNil(t, hint)
	require.True(t, isEndingNext(*hint))
	require.True(t, hint.Equal(opener))

	h.scheduler.Stop()
	h.drain()
	require.NoError(t, h.scheduler.UpdateConfig(model.TrainerConfig{BPM: 120, BarCount: 4, RegenerateOnFinish: true, UseEndings: true}))
	require.Empty(t, filter(h.drain(), EventScoreChange))
}

func TestToggleEndingsWhileRunningRebuildsOnStop(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4})
	h.scheduler.Start()
	h.clock.Add(1500 * time.Millisecond)
	before := h.scheduler.Score()

	require.NoError(t, h.scheduler.UpdateConfig(model.TrainerConfig{BPM: 120, BarCount: 4, UseEndings: true}))
	require.Equal(t, before.Bars(), h.scheduler.Score().Bars())

	h.scheduler.Stop()
	last, _ := h.scheduler.Score().Bar(3)
	require.True(t, isEndingFinal(last), "last bar %s is not a cadence", last)
}

func TestUnknownSongRejectedWhileRunning(t *testing.T) {
	h := newHarness(t, model.TrainerConfig{BPM: 120, BarCount: 4})
	h.scheduler.Start()

	err := h.scheduler.UpdateConfig(model.TrainerConfig{BPM: 120, BarCount: 4, Song: "vidala"})
	require.ErrorIs(t, err, composer.ErrUnknownSong)
	require.Equal(t, "", h.scheduler.Config().Song)

	h.scheduler.Stop()
	require.False(t, h.scheduler.Score().IsSong())
	require.True(t, h.scheduler.Regenerate())

	require.NoError(t, h.scheduler.UpdateConfig(model.TrainerConfig{BPM: 120, Song: "chacarera_simple"}))
	require.Equal(t, "chacarera_simple", h.scheduler.Config().Song)
}

func isEndingFinal(bar model.Bar) bool {
	for _, ending := range library.Default().Endings {
		if ending.Materialize().Final.Equal(bar) {
			return true
		}
	}
	return false
}

func isEndingNext(bar model.Bar) bool {
	for _, ending := range library.Default().Endings {
		if ending.Materialize().Next.Equal(bar) {
			return true
		}
	}
	return false
}
