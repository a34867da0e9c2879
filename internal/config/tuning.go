// Package config loads the sensor's two configuration layers: the
// key/value text file that selects base identity, remote control and
// sink toggles, and the JSON tuning overlay that carries the numeric
// detection/tracking parameters. The schema mirrors the teacher's
// split between a hand-edited text config and a machine-editable JSON
// tuning file so the same tuning JSON can later back a runtime-update
// API without changing this package.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultTuningConfigPath is the canonical tuning defaults file used by
// MustLoadDefaultTuning for tests and as the cmd/sensor flag default.
const DefaultTuningConfigPath = "config/tuning.defaults.json"

// TuningConfig holds every numeric tunable named in spec.md, as
// pointers so a partial JSON document can override only a subset and
// leave the rest at their package defaults. All-pointer-fields with
// `omitempty` and a Validate() method mirror the teacher's
// internal/config.TuningConfig.
type TuningConfig struct {
	// Tracker tunables (§4.4, §9)
	MissingHorizon *int `json:"missing_horizon,omitempty"`
	EuclideanGate  *int `json:"euclidean_gate,omitempty"`
	MaxTriggers    *int `json:"max_triggers,omitempty"`

	// Crossing evaluator tunables (§4.5)
	MinCourseLength *float64 `json:"min_course_length,omitempty"`
	MinTrackedCount *int     `json:"min_tracked_count,omitempty"`

	// Contour extractor tunables (§4.2, §3)
	MinROIWidth  *int `json:"min_roi_width,omitempty"`
	MinROIHeight *int `json:"min_roi_height,omitempty"`
	MaxROIWidth  *int `json:"max_roi_width,omitempty"`
	MaxROIHeight *int `json:"max_roi_height,omitempty"`
	MaxTargets   *int `json:"max_targets,omitempty"`

	// Segmenter tunables (§4.1)
	PrimaryHistory          *int     `json:"primary_history,omitempty"`
	PrimaryVarianceThresh   *float64 `json:"primary_variance_threshold,omitempty"`
	SecondaryHistory        *int     `json:"secondary_history,omitempty"`
	SecondaryVarianceThresh *float64 `json:"secondary_variance_threshold,omitempty"`
	ErosionSize             *int     `json:"erosion_size,omitempty"`

	// Frame-output queue (§4.6)
	FrameQueueCapacity *int `json:"frame_queue_capacity,omitempty"`

	// Pause debounce (dragon-eye.cpp push-button edge debounce)
	PauseDebounceFrames *int `json:"pause_debounce_frames,omitempty"`
}

func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// EmptyTuningConfig returns a TuningConfig with every field nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns the production-default tunable values
// named throughout spec.md §8's concrete scenarios.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		MissingHorizon:          ptrInt(10),
		EuclideanGate:           ptrInt(240),
		MaxTriggers:             ptrInt(4),
		MinCourseLength:         ptrFloat64(120),
		MinTrackedCount:         ptrInt(3),
		MinROIWidth:             ptrInt(9),
		MinROIHeight:            ptrInt(9),
		MaxROIWidth:             ptrInt(320),
		MaxROIHeight:            ptrInt(320),
		MaxTargets:              ptrInt(3),
		PrimaryHistory:          ptrInt(90),
		PrimaryVarianceThresh:   ptrFloat64(16),
		SecondaryHistory:        ptrInt(90),
		SecondaryVarianceThresh: ptrFloat64(32),
		ErosionSize:             ptrInt(6),
		FrameQueueCapacity:      ptrInt(3),
		PauseDebounceFrames:     ptrInt(10),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields absent
// from the file retain nil; callers should reconcile with
// DefaultTuningConfig via Merge.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tuning config: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("tuning config too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning config: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tuning config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning config: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultTuning loads DefaultTuningConfigPath by walking up from
// the current directory, intended for test setup only. Panics if not found.
func MustLoadDefaultTuning() *TuningConfig {
	candidates := []string{
		DefaultTuningConfigPath,
		"../" + DefaultTuningConfigPath,
		"../../" + DefaultTuningConfigPath,
		"../../../" + DefaultTuningConfigPath,
		"../../../../" + DefaultTuningConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultTuningConfigPath + " - run tests from repository root")
}

// Validate checks that any set fields hold sane values.
func (c *TuningConfig) Validate() error {
	if c.MissingHorizon != nil && *c.MissingHorizon < 0 {
		return fmt.Errorf("missing_horizon must be non-negative, got %d", *c.MissingHorizon)
	}
	if c.EuclideanGate != nil && *c.EuclideanGate < 0 {
		return fmt.Errorf("euclidean_gate must be non-negative, got %d", *c.EuclideanGate)
	}
	if c.MaxTriggers != nil && *c.MaxTriggers < 1 {
		return fmt.Errorf("max_triggers must be positive, got %d", *c.MaxTriggers)
	}
	if c.MinCourseLength != nil && *c.MinCourseLength < 0 {
		return fmt.Errorf("min_course_length must be non-negative, got %f", *c.MinCourseLength)
	}
	if c.MinTrackedCount != nil && *c.MinTrackedCount < 1 {
		return fmt.Errorf("min_tracked_count must be positive, got %d", *c.MinTrackedCount)
	}
	if c.MaxTargets != nil && *c.MaxTargets < 1 {
		return fmt.Errorf("max_targets must be positive, got %d", *c.MaxTargets)
	}
	if c.FrameQueueCapacity != nil && *c.FrameQueueCapacity < 1 {
		return fmt.Errorf("frame_queue_capacity must be positive, got %d", *c.FrameQueueCapacity)
	}
	return nil
}

// Merge returns a new TuningConfig with every nil field in c replaced by
// the corresponding field from defaults. c's non-nil fields win.
func (c *TuningConfig) Merge(defaults *TuningConfig) *TuningConfig {
	out := *defaults
	if c.MissingHorizon != nil {
		out.MissingHorizon = c.MissingHorizon
	}
	if c.EuclideanGate != nil {
		out.EuclideanGate = c.EuclideanGate
	}
	if c.MaxTriggers != nil {
		out.MaxTriggers = c.MaxTriggers
	}
	if c.MinCourseLength != nil {
		out.MinCourseLength = c.MinCourseLength
	}
	if c.MinTrackedCount != nil {
		out.MinTrackedCount = c.MinTrackedCount
	}
	if c.MinROIWidth != nil {
		out.MinROIWidth = c.MinROIWidth
	}
	if c.MinROIHeight != nil {
		out.MinROIHeight = c.MinROIHeight
	}
	if c.MaxROIWidth != nil {
		out.MaxROIWidth = c.MaxROIWidth
	}
	if c.MaxROIHeight != nil {
		out.MaxROIHeight = c.MaxROIHeight
	}
	if c.MaxTargets != nil {
		out.MaxTargets = c.MaxTargets
	}
	if c.PrimaryHistory != nil {
		out.PrimaryHistory = c.PrimaryHistory
	}
	if c.PrimaryVarianceThresh != nil {
		out.PrimaryVarianceThresh = c.PrimaryVarianceThresh
	}
	if c.SecondaryHistory != nil {
		out.SecondaryHistory = c.SecondaryHistory
	}
	if c.SecondaryVarianceThresh != nil {
		out.SecondaryVarianceThresh = c.SecondaryVarianceThresh
	}
	if c.ErosionSize != nil {
		out.ErosionSize = c.ErosionSize
	}
	if c.FrameQueueCapacity != nil {
		out.FrameQueueCapacity = c.FrameQueueCapacity
	}
	if c.PauseDebounceFrames != nil {
		out.PauseDebounceFrames = c.PauseDebounceFrames
	}
	return &out
}
