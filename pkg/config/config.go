// Package config holds the tunable parameters of the acoustic simulation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Channel modes
const (
	ChannelModeDuplicate = "duplicate"
	ChannelModeStereoPan = "stereo_pan"
)

// Config is the full set of simulation knobs. The JSON schema is the one
// accepted by Load and served by the web server.
type Config struct {
	// Tracing
	RaysPerTick              int     `json:"rays_per_tick"`
	MaxBounces               int     `json:"max_bounces"`
	RussianRouletteProb      float64 `json:"russian_roulette_prob"`
	BinDurationSeconds       float64 `json:"bin_duration_seconds"`
	SimulatedDurationSeconds float64 `json:"simulated_duration_seconds"`
	AirAbsorptionCoefficient float64 `json:"air_absorption_coefficient"`
	SpeedOfSound             float64 `json:"speed_of_sound"`

	// Output layout
	SampleRate  int    `json:"sample_rate"`
	Channels    int    `json:"channels"`
	ChannelMode string `json:"channel_mode"`
	Band        int    `json:"band"` // -1 averages all bands

	// Evaluation
	ProbabilityExponent float64 `json:"probability_exponent"`
	OutputGain          float64 `json:"output_gain"`
	SurfaceOffset       float64 `json:"surface_offset"`
	ConnectionBias      float64 `json:"connection_bias"`
	MinSegmentDistance  float64 `json:"min_segment_distance"`
	MaxRayDistance      float64 `json:"max_ray_distance"`
	EnergyEpsilon       float64 `json:"energy_epsilon"`
	MISEnabled          bool    `json:"mis_enabled"`
	IncludeDirectPath   bool    `json:"include_direct_path"`

	// Reconstruction
	FilterAlpha float64 `json:"filter_alpha"`
	NormalizeIR bool    `json:"normalize_ir"`

	// Early reflections and occlusion
	MaxTaps            int     `json:"max_taps"`
	TapWindowSeconds   float64 `json:"tap_window_seconds"`
	MaxOcclusionLayers int     `json:"max_occlusion_layers"`

	// Runtime
	NumWorkers    int     `json:"num_workers"` // 0 = runtime.NumCPU()
	WarmupSeconds float64 `json:"warmup_seconds"`
	Seed          int64   `json:"seed"`
	Verbose       bool    `json:"verbose"`
}

// DefaultConfig returns the defaults used when no file is given
func DefaultConfig() Config {
	return Config{
		RaysPerTick:              1000,
		MaxBounces:               16,
		RussianRouletteProb:      0.9,
		BinDurationSeconds:       0.001,
		SimulatedDurationSeconds: 1.0,
		AirAbsorptionCoefficient: 0.05,
		SpeedOfSound:             343.0,

		SampleRate:  48000,
		Channels:    2,
		ChannelMode: ChannelModeDuplicate,
		Band:        2,

		ProbabilityExponent: 1.0,
		OutputGain:          10.0,
		SurfaceOffset:       1e-3,
		ConnectionBias:      1e-3,
		MinSegmentDistance:  1e-2,
		MaxRayDistance:      1000.0,
		EnergyEpsilon:       1e-12,
		MISEnabled:          true,
		IncludeDirectPath:   true,

		FilterAlpha: 0.25,
		NormalizeIR: false,

		MaxTaps:            8,
		TapWindowSeconds:   0.08,
		MaxOcclusionLayers: 8,

		NumWorkers:    0,
		WarmupSeconds: 1.0,
		Seed:          42,
	}
}

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Hard limits enforced by Validate. They bound the per-tick allocations of
// a pipeline (nodes, bins and samples).
const (
	MaxBounceLimit    = 64
	MaxRaysPerTick    = 1_000_000
	MaxBins           = 1 << 20
	MaxSampleRate     = 384_000
	MaxSimulatedSecs  = 60.0
	MaxChannels       = 8
	MaxOcclusionLimit = 64
)

// Load reads a JSON config file on top of DefaultConfig. Fields omitted from
// the file keep their default values, so partial configs are safe.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints
func (c Config) Validate() error {
	check := func(ok bool, format string, args ...interface{}) error {
		if ok {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	checks := []error{
		check(c.RaysPerTick > 0 && c.RaysPerTick <= MaxRaysPerTick,
			"rays_per_tick must be between 1 and %d, got %d", MaxRaysPerTick, c.RaysPerTick),
		check(c.MaxBounces > 0 && c.MaxBounces <= MaxBounceLimit,
			"max_bounces must be between 1 and %d, got %d", MaxBounceLimit, c.MaxBounces),
		check(c.RussianRouletteProb >= 0 && c.RussianRouletteProb <= 1,
			"russian_roulette_prob must be between 0 and 1, got %f", c.RussianRouletteProb),
		check(c.BinDurationSeconds > 0, "bin_duration_seconds must be positive, got %f", c.BinDurationSeconds),
		check(c.SimulatedDurationSeconds > 0 && c.SimulatedDurationSeconds <= MaxSimulatedSecs,
			"simulated_duration_seconds must be in (0, %g], got %f", MaxSimulatedSecs, c.SimulatedDurationSeconds),
		check(c.BinCount() <= MaxBins, "simulated_duration_seconds / bin_duration_seconds must not exceed %d bins, got %d",
			MaxBins, c.BinCount()),
		check(c.AirAbsorptionCoefficient >= 0, "air_absorption_coefficient must be non-negative, got %f", c.AirAbsorptionCoefficient),
		check(c.SpeedOfSound > 0, "speed_of_sound must be positive, got %f", c.SpeedOfSound),
		check(c.SampleRate > 0 && c.SampleRate <= MaxSampleRate,
			"sample_rate must be between 1 and %d, got %d", MaxSampleRate, c.SampleRate),
		check(c.Channels > 0 && c.Channels <= MaxChannels, "channels must be between 1 and %d, got %d", MaxChannels, c.Channels),
		check(c.ChannelMode == ChannelModeDuplicate || c.ChannelMode == ChannelModeStereoPan,
			"channel_mode must be %q or %q, got %q", ChannelModeDuplicate, ChannelModeStereoPan, c.ChannelMode),
		check(c.Band >= -1, "band must be -1 (average) or a band index, got %d", c.Band),
		check(c.ProbabilityExponent >= 0, "probability_exponent must be non-negative, got %f", c.ProbabilityExponent),
		check(c.OutputGain >= 0, "output_gain must be non-negative, got %f", c.OutputGain),
		check(c.SurfaceOffset >= 0, "surface_offset must be non-negative, got %f", c.SurfaceOffset),
		check(c.ConnectionBias >= 0, "connection_bias must be non-negative, got %f", c.ConnectionBias),
		check(c.MinSegmentDistance >= 0, "min_segment_distance must be non-negative, got %f", c.MinSegmentDistance),
		check(c.MaxRayDistance > 0, "max_ray_distance must be positive, got %f", c.MaxRayDistance),
		check(c.EnergyEpsilon > 0, "energy_epsilon must be positive, got %g", c.EnergyEpsilon),
		check(c.FilterAlpha > 0 && c.FilterAlpha <= 1, "filter_alpha must be in (0, 1], got %f", c.FilterAlpha),
		check(c.MaxTaps >= 0, "max_taps must be non-negative, got %d", c.MaxTaps),
		check(c.TapWindowSeconds >= 0, "tap_window_seconds must be non-negative, got %f", c.TapWindowSeconds),
		check(c.MaxOcclusionLayers > 0 && c.MaxOcclusionLayers <= MaxOcclusionLimit,
			"max_occlusion_layers must be between 1 and %d, got %d", MaxOcclusionLimit, c.MaxOcclusionLayers),
		check(c.NumWorkers >= 0, "num_workers must be non-negative, got %d", c.NumWorkers),
		check(c.WarmupSeconds >= 0, "warmup_seconds must be non-negative, got %f", c.WarmupSeconds),
	}
	return errors.Join(checks...)
}

// Warmup returns WarmupSeconds as a duration
func (c Config) Warmup() time.Duration {
	return time.Duration(c.WarmupSeconds * float64(time.Second))
}

// BinCount returns ceil(duration / binDuration)
func (c Config) BinCount() int {
	return BinCount(c.SimulatedDurationSeconds, c.BinDurationSeconds)
}

// BinCount returns the number of histogram bins needed to cover duration
func BinCount(duration, binDuration float64) int {
	if binDuration <= 0 || duration <= 0 {
		return 0
	}
	n := duration / binDuration
	count := int(n)
	// Rounding noise just above an integer does not add a bin
	if n-float64(count) > 1e-9 {
		count++
	}
	return count
}
