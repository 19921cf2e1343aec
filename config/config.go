// Package config handles application configuration and setup
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/retroenv/retrogolib/log"
	"github.com/tuboc/chip8vm/chip8"
)

// Color is an RGBA color written as "#RRGGBB" or "#RRGGBBAA" in config files.
type Color struct {
	R, G, B, A uint8
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "#")
	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color %q", text)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", text, err)
	}
	*c = Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)), nil
}

// Theme holds the colors of the emulator window.
type Theme struct {
	Background Color `toml:"background"`
	Foreground Color `toml:"foreground"`
	Panel      Color `toml:"panel"`
	Text       Color `toml:"text"`
}

// DefaultTheme is pastel red on cream.
func DefaultTheme() Theme {
	return Theme{
		Background: Color{0xFE, 0xFF, 0xF3, 0xFF},
		Foreground: Color{0xFF, 0x8B, 0x8B, 0xFF},
		Panel:      Color{0x20, 0x20, 0x20, 0xFF},
		Text:       Color{0x77, 0xDD, 0x78, 0xFF},
	}
}

// Options are the emulator settings read from the config file and flags.
type Options struct {
	Rom        string `toml:"-"`
	Scale      int    `toml:"scale"`
	SuperChip  bool   `toml:"superchip"`
	SpriteWrap bool   `toml:"sprite_wrap"`
	TimerRate  int    `toml:"timer_rate"`
	DebugPanel bool   `toml:"debug_panel"`
	TraceDepth int    `toml:"trace_depth"`
	Theme      Theme  `toml:"theme"`

	StepMode bool `toml:"-"`
	Headless bool `toml:"-"`
	Cycles   int  `toml:"-"`
	Debug    bool `toml:"-"`
	Quiet    bool `toml:"-"`
}

// Default returns the built in settings.
func Default() Options {
	return Options{
		Scale:      10,
		TimerRate:  chip8.TimerFrequency,
		TraceDepth: chip8.DefaultTraceDepth,
		Theme:      DefaultTheme(),
	}
}

// Load reads a TOML file over the defaults. Keys missing in the file keep
// their default values.
func Load(path string) (Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}

	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return opts, fmt.Errorf("config file %s not found: %w", path, err)
		}
		return opts, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return opts, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	return opts, opts.Validate()
}

// Validate checks the value ranges of the settings.
func (o Options) Validate() error {
	if o.Scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", o.Scale)
	}
	if o.TimerRate < 1 {
		return fmt.Errorf("timer rate must be at least 1 Hz, got %d", o.TimerRate)
	}
	if o.TraceDepth < 0 {
		return fmt.Errorf("trace depth must not be negative, got %d", o.TraceDepth)
	}
	return nil
}

// DisplayMode returns the framebuffer resolution to emulate.
func (o Options) DisplayMode() chip8.Mode {
	if o.SuperChip {
		return chip8.ModeSuperChip
	}
	return chip8.ModeChip8
}

// Logger returns a logger for the level selected by the Debug and Quiet
// options. Debug wins over Quiet.
func (o Options) Logger() *log.Logger {
	cfg := log.DefaultConfig()
	switch {
	case o.Debug:
		cfg.Level = log.DebugLevel
	case o.Quiet:
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
