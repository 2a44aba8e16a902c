// Package config loads run settings from YAML files for the headless and
// terminal frontends.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brensch/handlords/game"
	"github.com/brensch/handlords/rng"
	"github.com/brensch/handlords/sim"
)

// Run is the file schema. Zero values mean "use the default"; out-of-range
// values are clamped on apply, matching the live tuning surface.
type Run struct {
	PairsPerTick         int      `yaml:"pairs_per_tick"`
	TicksPerSecond       int      `yaml:"ticks_per_second"`
	RotationAverage      int      `yaml:"rotation_average"`
	RotationHalfInterval int      `yaml:"rotation_half_interval"`
	Level                int      `yaml:"level"`
	RngKind              rng.Kind `yaml:"rng_kind"`
	Seed                 uint16   `yaml:"seed"`
}

// Default returns the settings used when no file is given.
func Default() Run {
	return Run{
		PairsPerTick:         game.DefaultPairsPerTick,
		TicksPerSecond:       game.DefaultTicksPerSecond,
		RotationAverage:      game.DefaultRotationAverage,
		RotationHalfInterval: game.DefaultRotationHalfInterval,
		Level:                1,
		RngKind:              rng.KindLFSR,
		Seed:                 rng.DefaultSeed,
	}
}

// Load reads a Run from path, filling unset fields with defaults.
func Load(path string) (Run, error) {
	r := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if r.PairsPerTick == 0 {
		r.PairsPerTick = game.DefaultPairsPerTick
	}
	if r.TicksPerSecond == 0 {
		r.TicksPerSecond = game.DefaultTicksPerSecond
	}
	if r.RotationAverage == 0 {
		r.RotationAverage = game.DefaultRotationAverage
	}
	if r.RotationHalfInterval == 0 {
		r.RotationHalfInterval = game.DefaultRotationHalfInterval
	}
	if r.Level == 0 {
		r.Level = 1
	}
	return r, nil
}

// NewSource builds the RNG the Run asks for.
func (r Run) NewSource() (rng.Source, error) {
	return rng.New(r.RngKind, r.Seed)
}

// NewEngine builds an engine configured per the Run.
func (r Run) NewEngine() (*sim.Engine, error) {
	src, err := r.NewSource()
	if err != nil {
		return nil, err
	}
	e := sim.New(src)
	e.State.Level = r.Level
	e.SetPairsPerTick(r.PairsPerTick)
	e.SetTicksPerSecond(r.TicksPerSecond)
	e.SetRotationAverage(r.RotationAverage)
	e.SetRotationHalfInterval(r.RotationHalfInterval)
	return e, nil
}
