package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	settings, err := Load(path)
	assert.NoError(t, err)

	// the file now exists and holds the defaults
	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, Default(), *settings)
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	contents := `
[chip8]
shift_quirk = true
or_and_xor_quirk = false
mem_quirk = true
sprite_wrapping_quirk = false
jump_offset_quirk = true
execution_speed_multiple = 2.5
font_memory_starting_location = 0x000
program_folder_path = "roms"

[window]
width = 640
height = 320
background_color = [16, 16, 32]
foreground_color = [0, 255, 0]
fullscreen = true
sprite_flicker_filter = false
pixel_fade_micros = 250

[sound]
tone = 440.0
volume = 0.25
`
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	settings, err := Load(path)
	assert.NoError(t, err)

	assert.True(t, settings.Chip8.ShiftQuirk)
	assert.False(t, settings.Chip8.OrAndXorQuirk)
	assert.True(t, settings.Chip8.JumpOffsetQuirk)
	assert.Equal(t, 2.5, settings.Chip8.ExecutionSpeedMultiple)
	assert.Equal(t, uint16(0), settings.Chip8.FontStartingLocation)
	assert.Equal(t, "roms", settings.Chip8.ProgramFolderPath)
	assert.Equal(t, 640, settings.Window.Width)
	assert.True(t, settings.Window.Fullscreen)
	assert.False(t, settings.Window.SpriteFlickerFilter)
	assert.Equal(t, 440.0, settings.Sound.Tone)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero speed", func(s *Settings) { s.Chip8.ExecutionSpeedMultiple = 0 }},
		{"negative speed", func(s *Settings) { s.Chip8.ExecutionSpeedMultiple = -1 }},
		{"font overlaps program space", func(s *Settings) { s.Chip8.FontStartingLocation = 0x1D0 }},
		{"empty program folder", func(s *Settings) { s.Chip8.ProgramFolderPath = "" }},
		{"zero window width", func(s *Settings) { s.Window.Width = 0 }},
		{"negative fade", func(s *Settings) { s.Window.PixelFadeMicros = -1 }},
		{"zero tone", func(s *Settings) { s.Sound.Tone = 0 }},
		{"volume above 1", func(s *Settings) { s.Sound.Volume = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := Default()
			tt.mutate(&settings)
			assert.Error(t, settings.Validate())
		})
	}
}

func TestVMSettings(t *testing.T) {
	c := Chip8Settings{
		ShiftQuirk:             true,
		MemQuirk:               true,
		JumpOffsetQuirk:        true,
		ExecutionSpeedMultiple: 1.5,
		FontStartingLocation:   0x100,
	}

	vs := c.VMSettings()
	assert.True(t, vs.ShiftQuirk)
	assert.False(t, vs.LogicQuirk)
	assert.True(t, vs.MemQuirk)
	assert.False(t, vs.SpriteWrapQuirk)
	assert.True(t, vs.JumpOffsetQuirk)
	assert.Equal(t, 1.5, vs.SpeedMultiplier)
	assert.Equal(t, uint16(0x100), vs.FontBase)
}

func TestColorAccessors(t *testing.T) {
	w := WindowSettings{
		BackgroundColor: [3]uint8{1, 2, 3},
		ForegroundColor: [3]uint8{200, 100, 50},
	}

	bg := w.Background()
	assert.Equal(t, uint8(1), bg.R)
	assert.Equal(t, uint8(2), bg.G)
	assert.Equal(t, uint8(3), bg.B)
	assert.Equal(t, uint8(0xFF), bg.A)

	fg := w.Foreground()
	assert.Equal(t, uint8(200), fg.R)
	assert.Equal(t, uint8(0xFF), fg.A)
}
