// Package config holds the run options and resolves them into the
// validated motion and output models used by the engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/odemakov/rawtherapee-timelapse/internal/easing"
	"github.com/odemakov/rawtherapee-timelapse/internal/geometry"
	"github.com/odemakov/rawtherapee-timelapse/internal/resolution"
)

// ErrInvalidZoomRange marks a zoom level outside (0,100] or a range
// string that does not parse as START-END percentages.
var ErrInvalidZoomRange = errors.New("invalid zoom level range")

// Config is the raw run configuration as given on the command line,
// through RTT_* environment variables or a YAML profile.
type Config struct {
	Directory string `yaml:"-" env:"-"`
	DryRun    bool   `yaml:"-" env:"-"`
	Backup    bool   `yaml:"backup" env:"RTT_BACKUP"`
	Force     bool   `yaml:"force" env:"RTT_FORCE"`

	AspectDrift string `yaml:"aspect-drift" env:"RTT_ASPECT_DRIFT"`
	ZoomLevel   string `yaml:"zoom-level" env:"RTT_ZOOM_LEVEL"`
	ZoomAnchor  string `yaml:"zoom-anchor" env:"RTT_ZOOM_ANCHOR"`
	ZoomEasing  string `yaml:"zoom-easing" env:"RTT_ZOOM_EASING"`
	Output      string `yaml:"output" env:"RTT_OUTPUT"`

	Workers   int  `yaml:"workers" env:"RTT_WORKERS"`
	ShowStats bool `yaml:"stats" env:"RTT_STATS"`
	Verbose   bool `yaml:"verbose" env:"RTT_VERBOSE"`
}

// Default returns the configuration matching a plain run with no flags.
func Default() Config {
	return Config{
		Directory:   ".",
		Backup:      true,
		AspectDrift: "center",
		ZoomLevel:   "100-100",
		ZoomAnchor:  "center",
		ZoomEasing:  "linear",
		Output:      "4k",
		Workers:     runtime.NumCPU(),
	}
}

// ApplyEnv overlays RTT_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// LoadProfile overlays settings from a YAML profile file. Zero values
// in the profile leave the current setting untouched.
func (c *Config) LoadProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}

	var p Config
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse profile %s: %w", path, err)
	}

	if p.AspectDrift != "" {
		c.AspectDrift = p.AspectDrift
	}
	if p.ZoomLevel != "" {
		c.ZoomLevel = p.ZoomLevel
	}
	if p.ZoomAnchor != "" {
		c.ZoomAnchor = p.ZoomAnchor
	}
	if p.ZoomEasing != "" {
		c.ZoomEasing = p.ZoomEasing
	}
	if p.Output != "" {
		c.Output = p.Output
	}
	if p.Workers != 0 {
		c.Workers = p.Workers
	}
	if p.Force {
		c.Force = true
	}
	if p.ShowStats {
		c.ShowStats = true
	}
	return nil
}

// ApplyZoomPreset maps the -zoom shorthand to a level range unless an
// explicit -zoom-level was already given.
func (c *Config) ApplyZoomPreset(preset string, levelSet bool) error {
	if preset == "" || levelSet {
		return nil
	}
	switch preset {
	case "in":
		c.ZoomLevel = "100-70"
	case "out":
		c.ZoomLevel = "70-100"
	default:
		return fmt.Errorf("unknown zoom preset %q (want in or out)", preset)
	}
	return nil
}

// Resolved carries the validated models derived from a Config.
type Resolved struct {
	Drift      geometry.DriftMode
	Zoom       *geometry.Zoom // nil when FOV is constant 100
	Resolution resolution.Resolution
	Workers    int
}

// Engine builds the crop geometry engine for this configuration.
func (r Resolved) Engine() *geometry.Engine {
	return &geometry.Engine{Drift: r.Drift, Zoom: r.Zoom}
}

// Resolve validates the configuration and builds the motion and output
// models. All validation failures surface here, before any frame work.
func (c Config) Resolve() (Resolved, error) {
	drift, err := geometry.ParseDriftMode(c.AspectDrift)
	if err != nil {
		return Resolved{}, err
	}

	res, err := resolution.Lookup(c.Output)
	if err != nil {
		return Resolved{}, err
	}

	start, end, err := ParseZoomLevel(c.ZoomLevel)
	if err != nil {
		return Resolved{}, err
	}

	var zoom *geometry.Zoom
	if start != end {
		anchor, err := geometry.ParseAnchor(c.ZoomAnchor)
		if err != nil {
			return Resolved{}, err
		}
		curve, err := easing.ForName(c.ZoomEasing)
		if err != nil {
			return Resolved{}, err
		}
		zoom = &geometry.Zoom{
			StartFOV: start,
			EndFOV:   end,
			Anchor:   anchor,
			Curve:    curve,
		}
	}

	workers := c.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	return Resolved{
		Drift:      drift,
		Zoom:       zoom,
		Resolution: res,
		Workers:    workers,
	}, nil
}

// ParseZoomLevel parses a "START-END" field-of-view range in percent.
// A single value means a constant field of view. Both ends must lie in
// (0,100].
func ParseZoomLevel(s string) (start, end float64, err error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	switch len(parts) {
	case 1:
		start, err = parseFOV(parts[0])
		if err != nil {
			return 0, 0, err
		}
		return start, start, nil
	case 2:
		start, err = parseFOV(parts[0])
		if err != nil {
			return 0, 0, err
		}
		end, err = parseFOV(parts[1])
		if err != nil {
			return 0, 0, err
		}
		return start, end, nil
	}
	return 0, 0, fmt.Errorf("%w: %q (want START-END)", ErrInvalidZoomRange, s)
}

func parseFOV(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidZoomRange, s)
	}
	if v <= 0 || v > 100 {
		return 0, fmt.Errorf("%w: %g not in (0,100]", ErrInvalidZoomRange, v)
	}
	return v, nil
}
