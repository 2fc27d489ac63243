// Package config loads the interpreter's settings.toml, creating it with
// default values on first run. The loaded settings are immutable for the
// lifetime of the process.
package config

import (
	"bytes"
	"fmt"
	"image/color"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/retroenv/retrogolib/log"

	"chip8go/pkg/chip8"
)

// DefaultFile is the settings file looked up in the working directory.
const DefaultFile = "settings.toml"

// Chip8Settings configures the VM core: the five behavior quirks, the
// execution speed, the font location, and where ROMs are looked up.
type Chip8Settings struct {
	ShiftQuirk             bool    `toml:"shift_quirk"`
	OrAndXorQuirk          bool    `toml:"or_and_xor_quirk"`
	MemQuirk               bool    `toml:"mem_quirk"`
	SpriteWrappingQuirk    bool    `toml:"sprite_wrapping_quirk"`
	JumpOffsetQuirk        bool    `toml:"jump_offset_quirk"`
	ExecutionSpeedMultiple float64 `toml:"execution_speed_multiple"`
	FontStartingLocation   uint16  `toml:"font_memory_starting_location"`
	ProgramFolderPath      string  `toml:"program_folder_path"`
}

// WindowSettings configures the desktop front end.
type WindowSettings struct {
	Width               int      `toml:"width"`
	Height              int      `toml:"height"`
	BackgroundColor     [3]uint8 `toml:"background_color"`
	ForegroundColor     [3]uint8 `toml:"foreground_color"`
	Fullscreen          bool     `toml:"fullscreen"`
	SpriteFlickerFilter bool     `toml:"sprite_flicker_filter"`
	PixelFadeMicros     int64    `toml:"pixel_fade_micros"`
}

// SoundSettings configures the buzzer.
type SoundSettings struct {
	Tone   float64 `toml:"tone"`
	Volume float64 `toml:"volume"`
}

// Settings is the full settings.toml contents.
type Settings struct {
	Chip8  Chip8Settings  `toml:"chip8"`
	Window WindowSettings `toml:"window"`
	Sound  SoundSettings  `toml:"sound"`
}

// Default returns the settings written on first run: the common
// modern-interpreter quirk profile at original speed, a 768×384 window with
// white-on-black pixels, and a 330 Hz buzzer.
func Default() Settings {
	return Settings{
		Chip8: Chip8Settings{
			OrAndXorQuirk:          true,
			MemQuirk:               true,
			SpriteWrappingQuirk:    true,
			ExecutionSpeedMultiple: 1.0,
			FontStartingLocation:   0x050,
			ProgramFolderPath:      "programs",
		},
		Window: WindowSettings{
			Width:               768,
			Height:              384,
			BackgroundColor:     [3]uint8{0, 0, 0},
			ForegroundColor:     [3]uint8{255, 255, 255},
			SpriteFlickerFilter: true,
			PixelFadeMicros:     100,
		},
		Sound: SoundSettings{
			Tone:   330.0,
			Volume: 0.5,
		},
	}
}

// Load reads settings from path. A missing file is created with defaults
// first, so the user has something to edit.
func Load(path string) (*Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefaults(path); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking settings file %q: %w", path, err)
	}

	var settings Settings
	if _, err := toml.DecodeFile(path, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings file %q: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings file %q: %w", path, err)
	}

	return &settings, nil
}

func writeDefaults(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(Default()); err != nil {
		return fmt.Errorf("encoding default settings: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing settings file %q: %w", path, err)
	}
	return nil
}

// Validate rejects values the VM or front end cannot work with.
func (s *Settings) Validate() error {
	if s.Chip8.ExecutionSpeedMultiple <= 0 {
		return fmt.Errorf("execution_speed_multiple must be positive, got %v", s.Chip8.ExecutionSpeedMultiple)
	}
	if int(s.Chip8.FontStartingLocation)+80 > chip8.ProgramStart {
		return fmt.Errorf("font_memory_starting_location 0x%03X does not fit below 0x%03X", s.Chip8.FontStartingLocation, chip8.ProgramStart)
	}
	if s.Chip8.ProgramFolderPath == "" {
		return fmt.Errorf("program_folder_path must not be empty")
	}
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d is not usable", s.Window.Width, s.Window.Height)
	}
	if s.Window.PixelFadeMicros < 0 {
		return fmt.Errorf("pixel_fade_micros must not be negative, got %d", s.Window.PixelFadeMicros)
	}
	if s.Sound.Tone <= 0 {
		return fmt.Errorf("sound tone must be positive, got %v", s.Sound.Tone)
	}
	if s.Sound.Volume < 0 || s.Sound.Volume > 1 {
		return fmt.Errorf("sound volume must be in [0, 1], got %v", s.Sound.Volume)
	}
	return nil
}

// VMSettings maps the [chip8] section onto the core's settings record.
func (c Chip8Settings) VMSettings() chip8.Settings {
	return chip8.Settings{
		ShiftQuirk:      c.ShiftQuirk,
		LogicQuirk:      c.OrAndXorQuirk,
		MemQuirk:        c.MemQuirk,
		SpriteWrapQuirk: c.SpriteWrappingQuirk,
		JumpOffsetQuirk: c.JumpOffsetQuirk,
		SpeedMultiplier: c.ExecutionSpeedMultiple,
		FontBase:        c.FontStartingLocation,
	}
}

// Background returns the configured background color as an RGBA value.
func (w WindowSettings) Background() color.RGBA {
	return color.RGBA{R: w.BackgroundColor[0], G: w.BackgroundColor[1], B: w.BackgroundColor[2], A: 0xFF}
}

// Foreground returns the configured foreground color as an RGBA value.
func (w WindowSettings) Foreground() color.RGBA {
	return color.RGBA{R: w.ForegroundColor[0], G: w.ForegroundColor[1], B: w.ForegroundColor[2], A: 0xFF}
}

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
