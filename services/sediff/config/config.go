// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates analysis configuration.
//
// Configuration is YAML on disk, layered over compiled-in defaults and
// validated eagerly at load time: a bad file fails fast before any
// analysis runs.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/sediff/services/sediff/entropy"
)

// EntropyConfig tunes the entropy calculator.
type EntropyConfig struct {
	// Thresholds maps raw entropy onto risk levels. Must be
	// non-negative and strictly increasing.
	Thresholds entropy.Thresholds `yaml:"thresholds"`

	// DecayFactor attenuates aggregation ranks, in (0,1].
	DecayFactor float64 `yaml:"decay_factor" validate:"gt=0,lte=1"`

	// NormalizationBound is the raw value mapping to normalized 1.0.
	NormalizationBound float64 `yaml:"normalization_bound" validate:"gt=0"`

	// HotspotLimit caps ranked hotspot lists.
	HotspotLimit int `yaml:"hotspot_limit" validate:"gte=1"`

	// SuppressBelow drops transitions scoring under this raw value
	// from reported change lists. Aggregates still count them.
	SuppressBelow float64 `yaml:"suppress_below" validate:"gte=0"`
}

// ParseConfig tunes the parser stage.
type ParseConfig struct {
	// TimeoutSeconds bounds one parse call.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"gte=1"`

	// MaxFileSizeBytes rejects oversized inputs.
	MaxFileSizeBytes int `yaml:"max_file_size_bytes" validate:"gte=1"`
}

// CacheConfig tunes parse-result caching.
type CacheConfig struct {
	// Enabled toggles the content-hash parse cache.
	Enabled bool `yaml:"enabled"`

	// Size is the number of retained parse results.
	Size int `yaml:"size" validate:"gte=1"`
}

// LoggingConfig tunes diagnostics output.
type LoggingConfig struct {
	// Level is the minimum severity: debug, info, warn, or error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Dir enables file logging when non-empty.
	Dir string `yaml:"dir"`

	// JSON switches stderr output to JSON.
	JSON bool `yaml:"json"`
}

// Config is the full analysis configuration.
type Config struct {
	Entropy EntropyConfig `yaml:"entropy"`
	Parse   ParseConfig   `yaml:"parse"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`

	// Workers sizes the batch worker pool; 0 means all cores.
	Workers int `yaml:"workers" validate:"gte=0"`

	// ReviewThreshold is the risk score forcing review, in (0,1].
	ReviewThreshold float64 `yaml:"review_threshold" validate:"gt=0,lte=1"`
}

// Default returns the compiled-in defaults.
func Default() *Config {
	return &Config{
		Entropy: EntropyConfig{
			Thresholds:         entropy.DefaultThresholds(),
			DecayFactor:        entropy.DefaultDecayFactor,
			NormalizationBound: entropy.DefaultNormalizationBound,
			HotspotLimit:       entropy.DefaultHotspotLimit,
			SuppressBelow:      0.05,
		},
		Parse: ParseConfig{
			TimeoutSeconds:   10,
			MaxFileSizeBytes: 10 * 1024 * 1024,
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    512,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Workers:         0,
		ReviewThreshold: 0.7,
	}
}

// Load reads a YAML file over the defaults and validates the result.
//
// # Inputs
//
//   - path: YAML file path. Empty returns validated defaults.
//
// # Outputs
//
//   - *Config: The validated configuration.
//   - error: Read, parse, or validation failures. Validation is eager:
//     no partially valid configuration is ever returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field, failing fast on the first violation.
//
// Structural constraints run through the validator tags; the threshold
// table additionally enforces strict ordering, naming the offending
// field.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Entropy.Thresholds.Validate(); err != nil {
		return err
	}
	return nil
}

// CalculatorOptions derives calculator options from the configuration.
func (c *Config) CalculatorOptions() entropy.CalculatorOptions {
	return entropy.CalculatorOptions{
		Thresholds:         c.Entropy.Thresholds,
		DecayFactor:        c.Entropy.DecayFactor,
		NormalizationBound: c.Entropy.NormalizationBound,
		HotspotLimit:       c.Entropy.HotspotLimit,
	}
}
