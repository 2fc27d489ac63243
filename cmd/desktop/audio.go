package main

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"chip8go/pkg/config"
)

const sampleRate = 44100

// squareWave is an endless 16-bit little-endian stereo square wave stream.
type squareWave struct {
	freq   float64
	amp    int16
	phase  float64
	stride float64
}

func newSquareWave(freq, volume float64) *squareWave {
	return &squareWave{
		freq:   freq,
		amp:    int16(volume / 20 * math.MaxInt16),
		stride: freq / sampleRate,
	}
}

func (s *squareWave) Read(p []byte) (int, error) {
	n := len(p) / 4 * 4
	for i := 0; i < n; i += 4 {
		v := s.amp
		if s.phase >= 0.5 {
			v = -s.amp
		}
		s.phase += s.stride
		if s.phase >= 1 {
			s.phase -= 1
		}

		lo, hi := byte(v), byte(uint16(v)>>8)
		p[i+0], p[i+1] = lo, hi // left
		p[i+2], p[i+3] = lo, hi // right
	}
	return n, nil
}

// beeper drives the single-tone buzzer. The underlying stream never ends;
// the player is paused whenever the sound timer is at zero.
type beeper struct {
	player *audio.Player
}

func newBeeper(cfg config.SoundSettings) (*beeper, error) {
	ctx := audio.NewContext(sampleRate)
	player, err := ctx.NewPlayer(newSquareWave(cfg.Tone, cfg.Volume))
	if err != nil {
		return nil, err
	}
	return &beeper{player: player}, nil
}

func (b *beeper) set(on bool) {
	if on && !b.player.IsPlaying() {
		b.player.Play()
	}
	if !on && b.player.IsPlaying() {
		b.player.Pause()
	}
}
