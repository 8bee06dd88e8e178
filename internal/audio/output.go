package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// ErrNoDevice indicates that no audio device could be opened.
var ErrNoDevice = errors.New("no audio device")

// Output plays clicks on the default audio device. Gain applies to clicks
// that are already sounding as well as to later ones.
type Output struct {
	mu      sync.Mutex
	context *oto.Context
	log     *zap.Logger
	gain    float64
	accent  []byte
	beat    []byte
	players []*oto.Player
}

// Open initializes the device context and prerenders both click tones.
func Open(logger *zap.Logger) (*Output, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	<-ready

	return &Output{
		context: context,
		log:     logger.Named("audio"),
		gain:    1,
		accent:  Encode(Samples(true)),
		beat:    Encode(Samples(false)),
	}, nil
}

// Click starts one click without waiting for it to finish.
func (output *Output) Click(accent bool) {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.pruneLocked()

	if err := output.context.Err(); err != nil {
		output.log.Warn("audio context failed", zap.Error(err))
		return
	}
	data := output.beat
	if accent {
		data = output.accent
	}
	player := output.context.NewPlayer(bytes.NewReader(data))
	player.SetVolume(output.gain)
	player.Play()
	output.players = append(output.players, player)
}

// SetGain writes an absolute gain, clamped to [0, 1].
func (output *Output) SetGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}
	output.mu.Lock()
	defer output.mu.Unlock()
	output.gain = gain
	for _, player := range output.players {
		player.SetVolume(gain)
	}
}

// Gain returns the current gain.
func (output *Output) Gain() float64 {
	output.mu.Lock()
	defer output.mu.Unlock()
	return output.gain
}

// Close releases the players. The oto context lives for the whole process.
func (output *Output) Close() error {
	output.mu.Lock()
	defer output.mu.Unlock()
	var errs []error
	for _, player := range output.players {
		if err := player.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close player: %w", err))
		}
	}
	output.players = nil
	return errors.Join(errs...)
}

func (output *Output) pruneLocked() {
	live := output.players[:0]
	for _, player := range output.players {
		if player.IsPlaying() {
			live = append(live, player)
			continue
		}
		if err := player.Close(); err != nil {
			output.log.Debug("close finished player", zap.Error(err))
		}
	}
	for i := len(live); i < len(output.players); i++ {
		output.players[i] = nil
	}
	output.players = live
}

// Silent counts clicks and records the gain without producing sound.
type Silent struct {
	mu      sync.Mutex
	gain    float64
	clicks  int
	accents int
}

// NewSilent returns a Silent output at full gain.
func NewSilent() *Silent {
	return &Silent{gain: 1}
}

func (silent *Silent) Click(accent bool) {
	silent.mu.Lock()
	defer silent.mu.Unlock()
	silent.clicks++
	if accent {
		silent.accents++
	}
}

func (silent *Silent) SetGain(gain float64) {
	silent.mu.Lock()
	defer silent.mu.Unlock()
	silent.gain = gain
}

func (silent *Silent) Gain() float64 {
	silent.mu.Lock()
	defer silent.mu.Unlock()
	return silent.gain
}

// Clicks returns the number of clicks and accented clicks so far.
func (silent *Silent) Clicks() (int, int) {
	silent.mu.Lock()
	defer silent.mu.Unlock()
	return silent.clicks, silent.accents
}
