// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sediff/services/sediff/entropy"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sediff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	// Defaults feed straight into a working calculator.
	_, err := entropy.NewCalculator(cfg.CalculatorOptions())
	assert.NoError(t, err)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
entropy:
  thresholds:
    minimal: 0.5
    low: 1.5
    moderate: 3.0
    high: 5.0
    critical: 6.0
  decay_factor: 0.8
workers: 4
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Entropy.Thresholds.Minimal)
	assert.Equal(t, 6.0, cfg.Entropy.Thresholds.Critical)
	assert.Equal(t, 0.8, cfg.Entropy.DecayFactor)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Parse, cfg.Parse)
}

func TestLoad_RejectsUnorderedThresholds(t *testing.T) {
	path := writeConfig(t, `
entropy:
  thresholds:
    minimal: 5.0
    low: 1.5
    moderate: 3.0
    high: 5.0
    critical: 6.0
`)

	_, err := Load(path)
	require.Error(t, err)

	var ce *entropy.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "low", ce.Field)
}

func TestLoad_RejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"decay above one", "entropy:\n  decay_factor: 1.5\n"},
		{"negative workers", "workers: -1\n"},
		{"bad log level", "logging:\n  level: verbose\n"},
		{"zero cache size", "cache:\n  size: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "entropy: [not a mapping"))
	assert.Error(t, err)
}
