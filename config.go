/*
 * Copyright 2026 Joshua Jones <joshua.jones.software@gmail.com>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      www.apache.org
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package emul8

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"emul8/chip8"

	"github.com/BurntSushi/toml"
)

const (
	DefaultScale     int = 10
	DefaultClockRate int = 700 // 700hz

	MaxScale     int = 64
	MaxClockRate int = 100_000
)

type QuirksConfig struct {
	ShiftUsesVY              bool   `toml:"shift_uses_vy"`
	LoadStoreIncrementsIndex bool   `toml:"load_store_increments_index"`
	LogicResetsFlag          bool   `toml:"logic_resets_flag"`
	Memory                   string `toml:"memory"`
}

// Config holds everything the desktop driver can be told from a TOML file
// or the command line.
type Config struct {
	Scale      int               `toml:"scale"`
	ClockRate  int               `toml:"clock_rate"`
	Timers     string            `toml:"timers"`
	Watch      bool              `toml:"watch"`
	Foreground string            `toml:"foreground"`
	Background string            `toml:"background"`
	Quirks     QuirksConfig      `toml:"quirks"`
	Keys       map[string]string `toml:"keys"`
}

func DefaultConfig() Config {
	return Config{
		Scale:      DefaultScale,
		ClockRate:  DefaultClockRate,
		Timers:     chip8.TimerPerCycle.String(),
		Foreground: "#FFFFFF",
		Background: "#000000",
		Quirks: QuirksConfig{
			Memory: chip8.MemoryFail.String(),
		},
	}
}

// LoadConfig decodes a TOML file over the defaults. Keys the decoder does
// not recognise are reported as errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Scale < 1 || c.Scale > MaxScale {
		errs = append(errs, fmt.Errorf("scale must be between 1 and %d, got %d", MaxScale, c.Scale))
	}

	if c.ClockRate < 1 || c.ClockRate > MaxClockRate {
		errs = append(errs, fmt.Errorf("clock_rate must be between 1 and %d, got %d", MaxClockRate, c.ClockRate))
	}

	if _, err := chip8.ParseTimerMode(c.Timers); err != nil {
		errs = append(errs, err)
	}

	if _, err := chip8.ParseMemoryPolicy(c.Quirks.Memory); err != nil {
		errs = append(errs, err)
	}

	if _, err := parseColor(c.Foreground); err != nil {
		errs = append(errs, fmt.Errorf("foreground: %w", err))
	}

	if _, err := parseColor(c.Background); err != nil {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}

	if _, err := c.KeyMap(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Options translates the configuration into processor options.
func (c Config) Options() ([]chip8.Option, error) {
	timers, err := chip8.ParseTimerMode(c.Timers)
	if err != nil {
		return nil, err
	}

	memory, err := chip8.ParseMemoryPolicy(c.Quirks.Memory)
	if err != nil {
		return nil, err
	}

	quirks := chip8.Quirks{
		ShiftUsesVY:              c.Quirks.ShiftUsesVY,
		LoadStoreIncrementsIndex: c.Quirks.LoadStoreIncrementsIndex,
		LogicResetsFlag:          c.Quirks.LogicResetsFlag,
		Memory:                   memory,
	}

	return []chip8.Option{
		chip8.WithQuirks(quirks),
		chip8.WithTimerMode(timers),
	}, nil
}

// CycleDuration is the time between two instructions at the configured
// clock rate.
func (c Config) CycleDuration() time.Duration {
	if c.ClockRate <= 0 {
		return time.Second / time.Duration(DefaultClockRate)
	}
	return time.Second / time.Duration(c.ClockRate)
}

// Colors returns the lit and unlit pixel colors.
func (c Config) Colors() (on, off color.RGBA, err error) {
	on, err = parseColor(c.Foreground)
	if err != nil {
		return on, off, err
	}
	off, err = parseColor(c.Background)
	return on, off, err
}

// parseColor accepts #RRGGBB.
func parseColor(s string) (color.RGBA, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok || len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q is not #RRGGBB", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q is not #RRGGBB", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
