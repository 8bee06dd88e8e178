// Package audio renders metronome clicks and owns the shared output gain.
package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	SampleRate = 44100

	AccentFrequency = 1200.0
	BeatFrequency   = 800.0

	ClickLength = 50 * time.Millisecond
	// fadeFloor is the envelope level reached at the end of a click.
	fadeFloor = 0.001
)

// Samples synthesizes one click as mono float32 samples: a sine tone with an
// exponential fade from 1 to fadeFloor over ClickLength.
func Samples(accent bool) []float32 {
	frequency := BeatFrequency
	if accent {
		frequency = AccentFrequency
	}
	count := int(ClickLength.Seconds() * SampleRate)
	samples := make([]float32, count)
	decay := math.Log(fadeFloor) / float64(count-1)
	for i := range samples {
		phase := 2 * math.Pi * frequency * float64(i) / SampleRate
		envelope := math.Exp(decay * float64(i))
		samples[i] = float32(math.Sin(phase) * envelope)
	}
	return samples
}

// Encode writes samples as little-endian float32 PCM.
func Encode(samples []float32) []byte {
	buf := make([]byte, 4*len(samples))
	for i, sample := range samples {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(sample))
	}
	return buf
}
