package animation

import (
	"context"
	"sync"
	"time"
)

// Config contains animation timing values.
type Config struct {
	FrameInterval time.Duration
	PulseLength   time.Duration

	StartScale  float32
	AccentScale float32
	// EndAlpha is the opacity a pulse fades to.
	EndAlpha uint8
}

// Engine animates count-in numbers. Render is called from the animation
// goroutine; callers marshal onto their UI thread.
type Engine struct {
	mu     sync.Mutex
	config Config
	render func(Frame)
	cancel context.CancelFunc
}

// New creates a new animation engine.
func New(config Config, render func(Frame)) *Engine {
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultConfig().FrameInterval
	}
	return &Engine{
		config: config,
		render: render,
	}
}

// StartPulse replaces any running pulse with a new one.
func (engine *Engine) StartPulse(ctx context.Context, pulse Pulse) {
	length := pulse.Length
	if length <= 0 {
		length = engine.config.PulseLength
	}
	engine.start(ctx, func(runCtx context.Context) {
		start := time.Now()
		for {
			elapsed := time.Since(start)
			frame := engine.config.FrameAt(pulse, elapsed, length)
			engine.render(frame)
			if frame.Last {
				return
			}
			if !sleepWithContext(runCtx, engine.config.FrameInterval) {
				return
			}
		}
	})
}

// Stop terminates any active animation.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.cancel != nil {
		engine.cancel()
		engine.cancel = nil
	}
}

// FrameAt computes the pulse frame after elapsed time: the text shrinks from
// its start scale to 1 and fades to EndAlpha with an ease-out curve.
func (config Config) FrameAt(pulse Pulse, elapsed, length time.Duration) Frame {
	progress := float32(1)
	if length > 0 && elapsed < length {
		progress = float32(elapsed) / float32(length)
	}
	if progress < 0 {
		progress = 0
	}
	eased := 1 - (1-progress)*(1-progress)

	scale := config.StartScale
	if pulse.Accent {
		scale = config.AccentScale
	}
	if scale < 1 {
		scale = 1
	}
	return Frame{
		Text:  pulse.Text,
		Scale: scale - (scale-1)*eased,
		Alpha: uint8(255 - float32(255-int(config.EndAlpha))*eased),
		Last:  progress >= 1,
	}
}

func (engine *Engine) start(parent context.Context, run func(context.Context)) {
	engine.mu.Lock()
	if engine.cancel != nil {
		engine.cancel()
	}
	runCtx, cancel := context.WithCancel(parent)
	engine.cancel = cancel
	engine.mu.Unlock()

	go run(runCtx)
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
