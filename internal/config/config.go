// Package config holds the tunable parameters of the segmentation pipeline.
//
// Defaults match the reference scale the thresholds were tuned for: pages
// rescaled to 512 pixels high. Values can be loaded from a TOML file and
// overridden from HANDSEG_* environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// ReferenceHeight is the page height the default thresholds were tuned at.
const ReferenceHeight = 512

// Config holds every pipeline tunable.
type Config struct {
	// Raster preparation
	PageHeight     int     `toml:"page_height" json:"page_height"`
	WordHeight     int     `toml:"word_height" json:"word_height"`
	BlurRadius     float64 `toml:"blur_radius" json:"blur_radius"`
	AdaptiveRadius float64 `toml:"adaptive_radius" json:"adaptive_radius"`
	AdaptiveOffset float64 `toml:"adaptive_offset" json:"adaptive_offset"`

	// Line/word extraction
	DilateRadius    int     `toml:"dilate_radius" json:"dilate_radius"`
	LineBand        int     `toml:"line_band" json:"line_band"`
	MinContourArea  float64 `toml:"min_contour_area" json:"min_contour_area"`
	ScaleWithHeight bool    `toml:"scale_with_height" json:"scale_with_height"`

	// Character segmentation
	OpenRadius   int     `toml:"open_radius" json:"open_radius"`
	ProfileNoise int     `toml:"profile_noise" json:"profile_noise"`
	PeakRatio    float64 `toml:"peak_ratio" json:"peak_ratio"`
	PSCMaxInk    int     `toml:"psc_max_ink" json:"psc_max_ink"`

	// Execution
	Workers int `toml:"workers" json:"workers"`

	// Classifier adapter
	ClassifierSize  int    `toml:"classifier_size" json:"classifier_size"`
	ClassifierBatch int    `toml:"classifier_batch" json:"classifier_batch"`
	Language        string `toml:"language" json:"language"`

	LogLevel string `toml:"log_level" json:"log_level"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		PageHeight:      ReferenceHeight,
		WordHeight:      128,
		BlurRadius:      2,
		AdaptiveRadius:  5,
		AdaptiveOffset:  2,
		DilateRadius:    2,
		LineBand:        30,
		MinContourArea:  50,
		OpenRadius:      1,
		ProfileNoise:    20,
		PeakRatio:       0.5,
		PSCMaxInk:       1,
		Workers:         runtime.NumCPU(),
		ClassifierSize:  224,
		ClassifierBatch: 32,
		Language:        "eng",
		LogLevel:        "info",
	}
}

// Load reads a TOML file on top of Default. Keys absent from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// FromEnv applies HANDSEG_* environment overrides to cfg.
func FromEnv(cfg Config) (Config, error) {
	ints := []struct {
		key string
		dst *int
	}{
		{"HANDSEG_PAGE_HEIGHT", &cfg.PageHeight},
		{"HANDSEG_WORD_HEIGHT", &cfg.WordHeight},
		{"HANDSEG_DILATE_RADIUS", &cfg.DilateRadius},
		{"HANDSEG_LINE_BAND", &cfg.LineBand},
		{"HANDSEG_OPEN_RADIUS", &cfg.OpenRadius},
		{"HANDSEG_PROFILE_NOISE", &cfg.ProfileNoise},
		{"HANDSEG_PSC_MAX_INK", &cfg.PSCMaxInk},
		{"HANDSEG_WORKERS", &cfg.Workers},
		{"HANDSEG_CLASSIFIER_SIZE", &cfg.ClassifierSize},
		{"HANDSEG_CLASSIFIER_BATCH", &cfg.ClassifierBatch},
	}
	for _, e := range ints {
		v, ok := os.LookupEnv(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"HANDSEG_BLUR_RADIUS", &cfg.BlurRadius},
		{"HANDSEG_ADAPTIVE_RADIUS", &cfg.AdaptiveRadius},
		{"HANDSEG_ADAPTIVE_OFFSET", &cfg.AdaptiveOffset},
		{"HANDSEG_MIN_CONTOUR_AREA", &cfg.MinContourArea},
		{"HANDSEG_PEAK_RATIO", &cfg.PeakRatio},
	}
	for _, e := range floats {
		v, ok := os.LookupEnv(e.key)
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = f
	}

	if v := os.Getenv("HANDSEG_SCALE_WITH_HEIGHT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("HANDSEG_SCALE_WITH_HEIGHT: %w", err)
		}
		cfg.ScaleWithHeight = b
	}
	if v := os.Getenv("HANDSEG_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("HANDSEG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations no stage can run with.
func (c Config) Validate() error {
	switch {
	case c.PageHeight < 0:
		return fmt.Errorf("page_height must be >= 0, got %d", c.PageHeight)
	case c.WordHeight < 0:
		return fmt.Errorf("word_height must be >= 0, got %d", c.WordHeight)
	case c.BlurRadius < 0 || c.AdaptiveRadius <= 0:
		return fmt.Errorf("blur_radius must be >= 0 and adaptive_radius > 0")
	case c.DilateRadius < 0 || c.OpenRadius < 0:
		return fmt.Errorf("dilate_radius and open_radius must be >= 0")
	case c.LineBand <= 0:
		return fmt.Errorf("line_band must be > 0, got %d", c.LineBand)
	case c.MinContourArea < 0:
		return fmt.Errorf("min_contour_area must be >= 0")
	case c.ProfileNoise < 0 || c.PSCMaxInk < 0:
		return fmt.Errorf("profile_noise and psc_max_ink must be >= 0")
	case c.PeakRatio <= 0:
		return fmt.Errorf("peak_ratio must be > 0, got %g", c.PeakRatio)
	case c.Workers < 1:
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	case c.ClassifierSize < 1 || c.ClassifierBatch < 1:
		return fmt.Errorf("classifier_size and classifier_batch must be >= 1")
	}
	return nil
}

// EffectiveLineBand returns the line band thickness, scaled linearly with
// the page height when ScaleWithHeight is set.
func (c Config) EffectiveLineBand() int {
	if !c.ScaleWithHeight || c.PageHeight <= 0 {
		return c.LineBand
	}
	band := int(math.Round(float64(c.LineBand) * float64(c.PageHeight) / ReferenceHeight))
	if band < 1 {
		band = 1
	}
	return band
}

// EffectiveMinContourArea returns the noise area threshold, scaled with the
// square of the page height ratio when ScaleWithHeight is set.
func (c Config) EffectiveMinContourArea() float64 {
	if !c.ScaleWithHeight || c.PageHeight <= 0 {
		return c.MinContourArea
	}
	r := float64(c.PageHeight) / ReferenceHeight
	return c.MinContourArea * r * r
}
