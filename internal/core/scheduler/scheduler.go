package scheduler

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ritmo/internal/core/composer"
	"ritmo/internal/core/model"
	"ritmo/internal/core/tempo"
	"ritmo/internal/ticker"
)

const (
	defaultBPM      = 120
	defaultBarCount = 8
)

// Generator supplies score material.
type Generator interface {
	Compose(barCount int, useEndings, resuming bool) composer.Result
	RandomBar() model.Bar
	LoadSong(name string) (model.Score, error)
}

// Output is the shared, muteable click output.
type Output interface {
	Click(accent bool)
	SetGain(gain float64)
}

// Options contains runtime collaborators for the Scheduler.
type Options struct {
	Clock  clock.Clock
	Logger *zap.Logger
}

// Scheduler is the playback state machine. It keeps the click track and the
// bar cursor on one tempo clock and regenerates material as the exercise
// loops.
type Scheduler struct {
	mu        sync.Mutex
	config    model.TrainerConfig
	options   Options
	log       *zap.Logger
	generator Generator
	output    Output

	state       State
	timing      tempo.Clock
	score       model.Score
	ending      *model.Ending
	current     int
	preRollBeat int
	hint        model.Bar
	muted       bool
	stale       bool

	generation uint64
	session    string

	barTicker     *ticker.Ticker
	clickTicker   *ticker.Ticker
	preRollTicker *ticker.Ticker
	beatClicks    map[uint64]*clock.Timer
	nextClickID   uint64

	events []chan Event
}

// New creates a Scheduler and composes the first score.
func New(config model.TrainerConfig, generator Generator, output Output, options Options) (*Scheduler, error) {
	if options.Clock == nil {
		options.Clock = clock.New()
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	sanitize(&config)

	scheduler := &Scheduler{
		config:     config,
		options:    options,
		log:        options.Logger.Named("scheduler"),
		generator:  generator,
		output:     output,
		state:      StateIdle,
		current:    -1,
		beatClicks: make(map[uint64]*clock.Timer),
	}
	if err := scheduler.rebuildLocked(); err != nil {
		return nil, err
	}
	return scheduler, nil
}

// Subscribe registers a new observer channel.
func (scheduler *Scheduler) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	scheduler.mu.Lock()
	scheduler.events = append(scheduler.events, ch)
	scheduler.mu.Unlock()
	return ch
}

// Close stops playback and closes observers.
func (scheduler *Scheduler) Close() {
	scheduler.Stop()

	scheduler.mu.Lock()
	events := scheduler.events
	scheduler.events = nil
	scheduler.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// Start plays the first accent click immediately and arms the bar-advance
// and click timers. It does nothing unless the scheduler is idle.
func (scheduler *Scheduler) Start() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.state != StateIdle {
		return
	}

	clk := scheduler.options.Clock
	now := clk.Now()
	timing := tempo.New(scheduler.config.BPM)
	scheduler.timing = timing
	scheduler.generation++
	generation := scheduler.generation
	scheduler.session = uuid.NewString()
	scheduler.state = StatePreRoll
	scheduler.preRollBeat = 1
	scheduler.current = -1
	scheduler.hint = nil
	scheduler.muted = scheduler.config.Muted
	scheduler.output.SetGain(gainFor(scheduler.muted))

	scheduler.log.Info("playback started",
		zap.String("session", scheduler.session),
		zap.Int("bpm", scheduler.config.BPM),
		zap.Int("bars", scheduler.score.Len()),
		zap.Bool("regenerate", scheduler.config.RegenerateOnFinish),
		zap.Bool("endings", scheduler.config.UseEndings),
	)
	scheduler.emitLocked(Event{Type: EventStateChange, State: StatePreRoll, Bar: -1, At: now})
	scheduler.emitLocked(Event{Type: EventPreRoll, State: StatePreRoll, Bar: -1, PreRollBeat: 1, At: now})

	scheduler.playBarLocked(generation, timing.Beat(), now)
	scheduler.preRollTicker = ticker.Every(clk, timing.Beat(), func(at time.Time) { scheduler.onPreRollBeat(generation, at) })
	scheduler.barTicker = ticker.Every(clk, timing.Bar(), func(at time.Time) { scheduler.onBarAdvance(generation, at) })
	scheduler.clickTicker = ticker.Every(clk, timing.Bar(), func(at time.Time) { scheduler.onClickPeriod(generation, at) })
}

// Stop cancels every pending timer and returns to idle. It is valid in any
// state.
func (scheduler *Scheduler) Stop() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	wasIdle := scheduler.state == StateIdle
	scheduler.generation++
	scheduler.cancelTimersLocked()
	scheduler.state = StateIdle
	scheduler.current = -1
	scheduler.preRollBeat = 0
	scheduler.hint = nil
	scheduler.muted = false
	scheduler.output.SetGain(1)

	if wasIdle {
		return
	}
	scheduler.log.Info("playback stopped", zap.String("session", scheduler.session))
	scheduler.emitLocked(Event{Type: EventStateChange, State: StateIdle, Bar: -1, At: scheduler.options.Clock.Now()})

	if scheduler.stale {
		if err := scheduler.rebuildLocked(); err != nil {
			scheduler.log.Warn("rebuild score", zap.Error(err))
		}
	}
}

// ToggleMute flips the mute state and writes the full gain immediately. It
// returns the new state and is a no-op while idle.
func (scheduler *Scheduler) ToggleMute() bool {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.state == StateIdle {
		return scheduler.muted
	}
	scheduler.muted = !scheduler.muted
	scheduler.output.SetGain(gainFor(scheduler.muted))
	scheduler.emitLocked(Event{
		Type:  EventMute,
		State: scheduler.state,
		Bar:   scheduler.current,
		Muted: scheduler.muted,
		At:    scheduler.options.Clock.Now(),
	})
	return scheduler.muted
}

// UpdateConfig replaces the runtime configuration. Endings and
// regeneration apply at once to future regenerations. Tempo, bar count and
// song apply from the next Start, since the running timers keep the period
// they were armed with. While idle, a change of shape or of endings
// recomposes the score. An unknown song is rejected in either state and
// leaves the configuration untouched.
func (scheduler *Scheduler) UpdateConfig(config model.TrainerConfig) error {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	sanitize(&config)

	previous := scheduler.config
	reshaped := config.BarCount != previous.BarCount || config.Song != previous.Song ||
		(config.Song == "" && config.UseEndings != previous.UseEndings)
	if scheduler.state != StateIdle {
		if config.Song != "" && config.Song != previous.Song {
			if _, err := scheduler.generator.LoadSong(config.Song); err != nil {
				return err
			}
		}
		scheduler.config = config
		// The running score keeps its shape until Stop.
		if reshaped {
			scheduler.stale = true
		}
		return nil
	}
	scheduler.config = config
	if !reshaped {
		return nil
	}
	if err := scheduler.rebuildLocked(); err != nil {
		scheduler.config = previous
		return err
	}
	return nil
}

// Regenerate composes a new score. It only works while idle.
func (scheduler *Scheduler) Regenerate() bool {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.state != StateIdle {
		return false
	}
	if err := scheduler.rebuildLocked(); err != nil {
		scheduler.log.Warn("regenerate", zap.Error(err))
		return false
	}
	return true
}

// Status returns the current state machine state.
func (scheduler *Scheduler) Status() State {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.state
}

// Snapshot returns a copy of the playback state.
func (scheduler *Scheduler) Snapshot() model.PlaybackState {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	state := model.PlaybackState{
		CurrentBar:  scheduler.current,
		PreRoll:     scheduler.state == StatePreRoll,
		PreRollBeat: scheduler.preRollBeat,
		Muted:       scheduler.muted,
	}
	if scheduler.hint != nil {
		hint := scheduler.hint.Clone()
		state.NextBarHint = &hint
	}
	return state
}

// Score returns a copy of the current score.
func (scheduler *Scheduler) Score() model.Score {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.score.Clone()
}

// Config returns the configuration, including changes deferred to the
// next Start.
func (scheduler *Scheduler) Config() model.TrainerConfig {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.config
}

func (scheduler *Scheduler) onPreRollBeat(generation uint64, at time.Time) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if generation != scheduler.generation || scheduler.state != StatePreRoll {
		return
	}
	scheduler.preRollBeat++
	if scheduler.preRollBeat > model.BeatsPerBar {
		scheduler.finishPreRollLocked(at)
		return
	}
	scheduler.emitLocked(Event{
		Type:        EventPreRoll,
		State:       StatePreRoll,
		Bar:         scheduler.current,
		PreRollBeat: scheduler.preRollBeat,
		At:          at,
	})
}

// onBarAdvance runs the whole bar transition in one ordered pass: move the
// cursor, retire a consumed hint, regenerate on wrap, then look ahead.
func (scheduler *Scheduler) onBarAdvance(generation uint64, at time.Time) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if generation != scheduler.generation || scheduler.state == StateIdle {
		return
	}
	if scheduler.state == StatePreRoll {
		scheduler.finishPreRollLocked(at)
	}

	barCount := scheduler.score.Len()
	previous := scheduler.current
	scheduler.current = (scheduler.current + 1) % barCount
	wrapped := scheduler.current == 0 && previous != -1

	if scheduler.current == 1 {
		scheduler.hint = nil
	}
	if wrapped && scheduler.regenerates() {
		scheduler.regenerateLocked(barCount, at)
	}
	scheduler.lookAheadLocked(barCount)

	event := Event{
		Type:    EventBarAdvance,
		State:   scheduler.state,
		Bar:     scheduler.current,
		Section: scheduler.score.SectionAt(scheduler.current),
		Muted:   scheduler.muted,
		At:      at,
	}
	if scheduler.hint != nil && barCount-scheduler.current == 1 {
		event.Hint = scheduler.hint.Clone()
	}
	scheduler.log.Debug("bar advance",
		zap.String("session", scheduler.session),
		zap.Int("bar", scheduler.current),
		zap.Bool("wrapped", wrapped),
		zap.Bool("hint", scheduler.hint != nil),
	)
	scheduler.emitLocked(event)
}

func (scheduler *Scheduler) onClickPeriod(generation uint64, at time.Time) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if generation != scheduler.generation || scheduler.state == StateIdle {
		return
	}
	scheduler.playBarLocked(generation, scheduler.timing.Beat(), at)
}

func (scheduler *Scheduler) onBeatClick(generation, id uint64, beat int, at time.Time) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	delete(scheduler.beatClicks, id)
	if generation != scheduler.generation || scheduler.state == StateIdle {
		return
	}
	scheduler.clickLocked(beat, at)
}

// playBarLocked sounds beat one now and schedules the remaining beats as
// offsets from the same period start, so they always fire in order.
func (scheduler *Scheduler) playBarLocked(generation uint64, beat time.Duration, now time.Time) {
	scheduler.clickLocked(1, now)
	for n := 2; n <= model.BeatsPerBar; n++ {
		scheduler.nextClickID++
		id := scheduler.nextClickID
		number := n
		offset := time.Duration(n-1) * beat
		scheduler.beatClicks[id] = scheduler.options.Clock.AfterFunc(offset, func() {
			scheduler.onBeatClick(generation, id, number, now.Add(offset))
		})
	}
}

func (scheduler *Scheduler) clickLocked(beat int, now time.Time) {
	accent := beat == 1
	scheduler.output.Click(accent)
	scheduler.emitLocked(Event{
		Type:   EventClick,
		State:  scheduler.state,
		Bar:    scheduler.current,
		Beat:   beat,
		Accent: accent,
		Muted:  scheduler.muted,
		At:     now,
	})
}

func (scheduler *Scheduler) finishPreRollLocked(at time.Time) {
	if scheduler.preRollTicker != nil {
		scheduler.preRollTicker.Stop()
		scheduler.preRollTicker = nil
	}
	if scheduler.state != StatePreRoll {
		return
	}
	scheduler.state = StateRunning
	scheduler.preRollBeat = 0
	scheduler.emitLocked(Event{
		Type:  EventStateChange,
		State: StateRunning,
		Bar:   scheduler.current,
		At:    at,
	})
}

func (scheduler *Scheduler) regenerates() bool {
	return scheduler.config.RegenerateOnFinish && !scheduler.score.IsSong()
}

// regenerateLocked recomposes the score and commits the promised hint as
// the first bar.
func (scheduler *Scheduler) regenerateLocked(barCount int, at time.Time) {
	result := scheduler.generator.Compose(barCount, scheduler.config.UseEndings, scheduler.hint != nil)
	if scheduler.hint != nil {
		result.Score.SetBar(0, scheduler.hint.Clone())
	}
	scheduler.score = result.Score
	scheduler.ending = result.Ending
	if barCount == 1 {
		// The committed bar is already current and index 1 never comes.
		scheduler.hint = nil
	}

	score := scheduler.score.Clone()
	scheduler.emitLocked(Event{
		Type:  EventScoreChange,
		State: scheduler.state,
		Bar:   scheduler.current,
		Score: &score,
		At:    at,
	})
}

func (scheduler *Scheduler) lookAheadLocked(barCount int) {
	if !scheduler.regenerates() || scheduler.hint != nil {
		return
	}
	if barCount-scheduler.current != 1 {
		return
	}
	if scheduler.config.UseEndings && scheduler.ending != nil {
		scheduler.hint = scheduler.ending.Next.Clone()
		return
	}
	scheduler.hint = scheduler.generator.RandomBar()
}

func (scheduler *Scheduler) rebuildLocked() error {
	scheduler.stale = false
	if scheduler.config.Song != "" {
		score, err := scheduler.generator.LoadSong(scheduler.config.Song)
		if err != nil {
			return err
		}
		scheduler.score = score
		scheduler.ending = nil
	} else {
		result := scheduler.generator.Compose(scheduler.config.BarCount, scheduler.config.UseEndings, false)
		scheduler.score = result.Score
		scheduler.ending = result.Ending
	}

	score := scheduler.score.Clone()
	scheduler.emitLocked(Event{
		Type:  EventScoreChange,
		State: scheduler.state,
		Bar:   scheduler.current,
		Score: &score,
		At:    scheduler.options.Clock.Now(),
	})
	return nil
}

func (scheduler *Scheduler) cancelTimersLocked() {
	for _, periodic := range []*ticker.Ticker{scheduler.barTicker, scheduler.clickTicker, scheduler.preRollTicker} {
		if periodic != nil {
			periodic.Stop()
		}
	}
	scheduler.barTicker = nil
	scheduler.clickTicker = nil
	scheduler.preRollTicker = nil
	for id, timer := range scheduler.beatClicks {
		timer.Stop()
		delete(scheduler.beatClicks, id)
	}
}

func (scheduler *Scheduler) emitLocked(event Event) {
	events := append([]chan Event(nil), scheduler.events...)
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}

func sanitize(config *model.TrainerConfig) {
	if config.BPM <= 0 {
		config.BPM = defaultBPM
	}
	if config.BarCount <= 0 {
		config.BarCount = defaultBarCount
	}
}

func gainFor(muted bool) float64 {
	if muted {
		return 0
	}
	return 1
}
