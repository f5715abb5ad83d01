// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package entropy scores code-change transitions with an
// information-theoretic entropy measure.
//
// # Description
//
// A node transition earns raw entropy from three components: structural
// (subtree depth and child-type diversity), semantic (node kind and
// change kind weighting), and propagation (a fan-out proxy, negative
// for removals). Raw entropy is rescaled into [0,1] against a
// calibrated bound and mapped onto an ordered level scale. Aggregation
// over a change set applies diminishing returns so broad changes score
// higher than a single change but never sum without bound.
//
// The package also provides distribution entropy (Shannon) and
// divergence measures (Kullback-Leibler, Jensen-Shannon) used for
// comparing level distributions between analyses.
package entropy

import (
	"github.com/AleutianAI/sediff/services/sediff/hashtree"
)

// Level is an ordered risk category for a scored change.
type Level string

const (
	LevelMinimal  Level = "minimal"
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// levelRanks orders levels for comparison.
var levelRanks = map[Level]int{
	LevelMinimal:  0,
	LevelLow:      1,
	LevelModerate: 2,
	LevelHigh:     3,
	LevelCritical: 4,
}

// Rank returns the ordinal position of the level, minimal first.
// Unknown levels rank below minimal.
func (l Level) Rank() int {
	if rank, ok := levelRanks[l]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether l is at or above other on the level scale.
func (l Level) AtLeast(other Level) bool {
	return l.Rank() >= other.Rank()
}

// String implements fmt.Stringer.
func (l Level) String() string {
	return string(l)
}

// AllLevels returns the levels in ascending order.
func AllLevels() []Level {
	return []Level{LevelMinimal, LevelLow, LevelModerate, LevelHigh, LevelCritical}
}

// Components is the decomposition of one raw entropy value.
type Components struct {
	// Structural grows with subtree depth and child-type diversity.
	Structural float64 `json:"structural"`

	// Semantic weights the node kind and the change kind.
	Semantic float64 `json:"semantic"`

	// Propagation is a fan-out proxy (child count based). Negative for
	// removals to distinguish "disappeared" from "changed".
	Propagation float64 `json:"propagation"`
}

// NodeEntropy is the per-transition scoring record.
//
// Computed on demand by the calculator; never mutated afterwards.
type NodeEntropy struct {
	// Identity is the composite identity of the scored node.
	Identity string `json:"identity"`

	// ChangeKind is the transition kind the score covers.
	ChangeKind hashtree.ChangeKind `json:"change_kind"`

	// Raw is the unbounded entropy value, always >= 0.
	Raw float64 `json:"raw"`

	// Normalized is Raw rescaled into [0,1] against the calibrated
	// normalization bound.
	Normalized float64 `json:"normalized"`

	// Level is the classification of Raw on the threshold scale.
	Level Level `json:"level"`

	// Components is the decomposition that produced Raw.
	Components Components `json:"components"`
}

// Analysis aggregates the entropy of one diff pass.
type Analysis struct {
	// Total is the decayed aggregate over all raw values.
	Total float64 `json:"total"`

	// Average is the arithmetic mean of raw values; 0 for an empty set.
	Average float64 `json:"average"`

	// Distribution counts scored transitions per level. Every level
	// appears, including zero counts.
	Distribution map[Level]int `json:"distribution"`

	// Hotspots holds the top entries descending by raw entropy, capped
	// at the configured hotspot limit.
	Hotspots []NodeEntropy `json:"hotspots"`

	// OverallLevel classifies Total on the same threshold scale.
	OverallLevel Level `json:"overall_level"`
}
