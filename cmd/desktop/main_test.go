package main

import (
	"testing"
)

func TestKeypadMapCoversAllKeys(t *testing.T) {
	if len(keypadMap) != 16 {
		t.Fatalf("keypad map has %d bindings; want 16", len(keypadMap))
	}

	seen := map[byte]bool{}
	for key, pad := range keypadMap {
		if pad > 0xF {
			t.Errorf("key %v bound to %X, outside the keypad", key, pad)
		}
		if seen[pad] {
			t.Errorf("keypad key %X bound twice", pad)
		}
		seen[pad] = true
	}
}

func TestLerp(t *testing.T) {
	tests := []struct {
		a, b byte
		t    float64
		want byte
	}{
		{0, 255, 0, 0},
		{0, 255, 1, 255},
		{0, 200, 0.5, 100},
		{100, 100, 0.7, 100},
		{255, 0, 1, 0},
	}

	for _, tc := range tests {
		if got := lerp(tc.a, tc.b, tc.t); got != tc.want {
			t.Errorf("lerp(%d, %d, %v) = %d; want %d", tc.a, tc.b, tc.t, got, tc.want)
		}
	}
}

func TestSquareWaveStream(t *testing.T) {
	wave := newSquareWave(330, 0.5)

	buf := make([]byte, 4096+2) // odd tail must not be filled
	n, err := wave.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 4096 {
		t.Fatalf("read %d bytes; want full frames only (4096)", n)
	}

	amp := wave.amp
	highs, lows := 0, 0
	for i := 0; i < n; i += 4 {
		left := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
		right := int16(uint16(buf[i+2]) | uint16(buf[i+3])<<8)
		if left != right {
			t.Fatalf("frame %d is not mono-duplicated: %d vs %d", i/4, left, right)
		}
		switch left {
		case amp:
			highs++
		case -amp:
			lows++
		default:
			t.Fatalf("frame %d has level %d; want ±%d", i/4, left, amp)
		}
	}

	// a square wave spends about half its time on each level
	if highs == 0 || lows == 0 {
		t.Errorf("wave never alternated: %d highs, %d lows", highs, lows)
	}
}

func TestSquareWaveSilentAtZeroVolume(t *testing.T) {
	wave := newSquareWave(330, 0)

	buf := make([]byte, 64)
	n, _ := wave.Read(buf)
	for i := 0; i < n; i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d = 0x%02X; want silence", i, buf[i])
		}
	}
}
