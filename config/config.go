// Package config holds the tuning parameters of the extraction pipeline.
//
// A Config is built once, validated, and then passed by pointer to every stage
// constructor. Stages never modify it. Lengths are given in pixels at
// Resolution.Target and converted with Scale for grids at other resolutions.
package config

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mcuadros/go-defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/high-horse/fpextract/fault"
)

// Config is the full pipeline configuration.
type Config struct {
	// Workers bounds the goroutines used by the block-parallel stages.
	// Zero means runtime.NumCPU().
	Workers int `toml:"workers" yaml:"workers"`

	Resolution  ResolutionConfig  `toml:"resolution" yaml:"resolution"`
	Field       FieldConfig       `toml:"field" yaml:"field"`
	Enhancement EnhancementConfig `toml:"enhancement" yaml:"enhancement"`
	Minutiae    MinutiaeConfig    `toml:"minutiae" yaml:"minutiae"`
}

// ResolutionConfig controls how image resolution is resolved and normalized.
type ResolutionConfig struct {
	// Default DPI when neither the caller nor the image supplies one.
	Default float64 `toml:"default" yaml:"default" default:"500"`
	// Target DPI all length parameters are expressed in.
	Target float64 `toml:"target" yaml:"target" default:"500"`
	// Normalize resamples decoded images to Target.
	Normalize bool `toml:"normalize" yaml:"normalize" default:"true"`
	// MaxDimension caps width and height after normalization.
	MaxDimension int `toml:"max_dimension" yaml:"max_dimension" default:"4000"`
}

// FieldConfig tunes orientation, frequency and segmentation estimation.
type FieldConfig struct {
	BlockSize int `toml:"block_size" yaml:"block_size" default:"16"`
	// MinContrast is the minimum intensity standard deviation (intensities in
	// [0,1]) for a block to count as foreground.
	MinContrast float64 `toml:"min_contrast" yaml:"min_contrast" default:"0.03"`
	// Admissible ridge period range in pixels.
	MinPeriod       float64 `toml:"min_period" yaml:"min_period" default:"4"`
	MaxPeriod       float64 `toml:"max_period" yaml:"max_period" default:"15"`
	SmoothingRadius int     `toml:"smoothing_radius" yaml:"smoothing_radius" default:"1"`
}

// EnhancementConfig tunes the contextual (Gabor) filter.
type EnhancementConfig struct {
	Sigma        float64 `toml:"sigma" yaml:"sigma" default:"4"`
	Orientations int     `toml:"orientations" yaml:"orientations" default:"16"`
}

// MinutiaeConfig tunes skeleton cleanup, tracing and deduplication.
type MinutiaeConfig struct {
	BorderMargin   float64 `toml:"border_margin" yaml:"border_margin" default:"10"`
	MergeDistance  float64 `toml:"merge_distance" yaml:"merge_distance" default:"8"`
	MergeAngle     float64 `toml:"merge_angle" yaml:"merge_angle" default:"30"` // degrees
	TraceLength    float64 `toml:"trace_length" yaml:"trace_length" default:"12"`
	MinRidgeLength float64 `toml:"min_ridge_length" yaml:"min_ridge_length" default:"10"`
	SpurLength     float64 `toml:"spur_length" yaml:"spur_length" default:"8"`
}

// Default returns a configuration with every field at its tagged default.
func Default() *Config {
	cfg := new(Config)
	defaults.SetDefaults(cfg)
	return cfg
}

// Load overlays the file at path on top of Default. The format is picked by
// extension: .toml, .yaml or .yml. Unknown TOML keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fault.New(fault.ErrInvalidConfiguration, fault.StageConfig, errors.Wrapf(err, "parse %s", path))
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, fault.Invalid(fault.StageConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fault.New(fault.ErrInvalidConfiguration, fault.StageConfig, errors.Wrapf(err, "parse %s", path))
		}
	default:
		return nil, fault.Invalid(fault.StageConfig, "%s: unsupported config format %q", path, ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first parameter that breaks its invariant.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"resolution.default", c.Resolution.Default},
		{"resolution.target", c.Resolution.Target},
		{"field.min_contrast", c.Field.MinContrast},
		{"field.min_period", c.Field.MinPeriod},
		{"field.max_period", c.Field.MaxPeriod},
		{"enhancement.sigma", c.Enhancement.Sigma},
		{"minutiae.merge_distance", c.Minutiae.MergeDistance},
		{"minutiae.merge_angle", c.Minutiae.MergeAngle},
		{"minutiae.trace_length", c.Minutiae.TraceLength},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fault.Invalid(fault.StageConfig, "%s must be a finite positive number, got %v", p.name, p.v)
		}
	}

	nonNegative := []struct {
		name string
		v    float64
	}{
		{"minutiae.border_margin", c.Minutiae.BorderMargin},
		{"minutiae.min_ridge_length", c.Minutiae.MinRidgeLength},
		{"minutiae.spur_length", c.Minutiae.SpurLength},
	}
	for _, p := range nonNegative {
		if !(p.v >= 0) || math.IsInf(p.v, 0) {
			return fault.Invalid(fault.StageConfig, "%s must be a finite non-negative number, got %v", p.name, p.v)
		}
	}

	switch {
	case c.Workers < 0:
		return fault.Invalid(fault.StageConfig, "workers must not be negative, got %d", c.Workers)
	case c.Resolution.MaxDimension <= 0 || c.Resolution.MaxDimension > math.MaxUint16:
		return fault.Invalid(fault.StageConfig, "resolution.max_dimension must be in 1..%d, got %d", math.MaxUint16, c.Resolution.MaxDimension)
	case c.Field.BlockSize < 4:
		return fault.Invalid(fault.StageConfig, "field.block_size must be at least 4, got %d", c.Field.BlockSize)
	case c.Field.MinPeriod >= c.Field.MaxPeriod:
		return fault.Invalid(fault.StageConfig, "field.min_period %v must be below field.max_period %v", c.Field.MinPeriod, c.Field.MaxPeriod)
	case c.Field.SmoothingRadius < 0:
		return fault.Invalid(fault.StageConfig, "field.smoothing_radius must not be negative, got %d", c.Field.SmoothingRadius)
	case c.Enhancement.Orientations < 2:
		return fault.Invalid(fault.StageConfig, "enhancement.orientations must be at least 2, got %d", c.Enhancement.Orientations)
	case c.Minutiae.MergeAngle > 180:
		return fault.Invalid(fault.StageConfig, "minutiae.merge_angle must not exceed 180 degrees, got %v", c.Minutiae.MergeAngle)
	}
	return nil
}

// WorkerCount resolves Workers, substituting the CPU count for zero.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Scale converts a length in pixels at the target resolution to pixels at the
// given resolution.
func (c *Config) Scale(px, resolution float64) float64 {
	return px * resolution / c.Resolution.Target
}

// MergeAngleRadians returns Minutiae.MergeAngle in radians.
func (c *Config) MergeAngleRadians() float64 {
	return c.Minutiae.MergeAngle * math.Pi / 180
}
