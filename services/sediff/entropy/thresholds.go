// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package entropy

// Thresholds maps raw entropy onto the ordered level scale.
//
// Each boundary is inclusive on its lower edge: a value at exactly
// Thresholds.High classifies as high. Values below Low classify as
// minimal. Boundaries must be non-negative and strictly increasing;
// Validate enforces this before any classification runs.
type Thresholds struct {
	Minimal  float64 `json:"minimal" yaml:"minimal"`
	Low      float64 `json:"low" yaml:"low"`
	Moderate float64 `json:"moderate" yaml:"moderate"`
	High     float64 `json:"high" yaml:"high"`
	Critical float64 `json:"critical" yaml:"critical"`
}

// DefaultThresholds returns the calibrated default threshold table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Minimal:  0.0,
		Low:      0.5,
		Moderate: 1.5,
		High:     3.0,
		Critical: 5.0,
	}
}

// Validate checks that boundaries are non-negative and strictly
// increasing. The returned ConfigurationError names the first
// offending field.
func (t Thresholds) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"minimal", t.Minimal},
		{"low", t.Low},
		{"moderate", t.Moderate},
		{"high", t.High},
		{"critical", t.Critical},
	}

	for i, f := range fields {
		if f.value < 0 {
			return &ConfigurationError{
				Field:   f.name,
				Message: "threshold must be non-negative",
			}
		}
		if i > 0 && f.value <= fields[i-1].value {
			return &ConfigurationError{
				Field:   f.name,
				Message: "threshold must be strictly greater than " + fields[i-1].name,
			}
		}
	}
	return nil
}

// Classify maps a raw entropy value onto the level scale.
//
// Assumes the receiver has been validated. Each boundary is inclusive
// on its lower edge.
func (t Thresholds) Classify(value float64) Level {
	switch {
	case value >= t.Critical:
		return LevelCritical
	case value >= t.High:
		return LevelHigh
	case value >= t.Moderate:
		return LevelModerate
	case value >= t.Low:
		return LevelLow
	default:
		return LevelMinimal
	}
}
