// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package differ orchestrates the semantic diff pipeline: parse both
// versions, build hash trees, partition by identity, score every
// transition, and emit a deterministic, timestamped result.
package differ

import (
	"time"

	"github.com/AleutianAI/sediff/services/sediff/ast"
	"github.com/AleutianAI/sediff/services/sediff/classify"
	"github.com/AleutianAI/sediff/services/sediff/entropy"
	"github.com/AleutianAI/sediff/services/sediff/hashtree"
	"github.com/AleutianAI/sediff/services/sediff/propagation"
)

// Result serialization constants. FormatVersion guards the JSON shape;
// AlgorithmID names the scoring algorithm for forward compatibility.
const (
	FormatVersion = "1.0"
	AlgorithmID   = "sed-v1"
)

// FilePair is the input for one file comparison.
type FilePair struct {
	// Path identifies the logical unit, relative to the analysis root.
	Path string `json:"path"`

	// Language is the language tag; when empty the parser is resolved
	// from the path extension.
	Language string `json:"language,omitempty"`

	// OldContent is the old version of the file; nil for new files.
	OldContent []byte `json:"-"`

	// NewContent is the new version of the file; nil for deleted
	// files.
	NewContent []byte `json:"-"`
}

// Change is one reported node transition.
type Change struct {
	// ID is the composite identity of the changed node.
	ID string `json:"id"`

	// Operation is the transition kind.
	Operation hashtree.ChangeKind `json:"operation"`

	// Kind is the node kind of the changed construct.
	Kind ast.NodeKind `json:"kind"`

	// Path locates the change as "filePath:qualified.name".
	Path string `json:"path"`

	// Exported is true when the construct is part of the public
	// surface.
	Exported bool `json:"exported"`

	// Range is the source range in the version the node exists in
	// (new for additions and modifications, old for removals).
	Range ast.Range `json:"range"`

	// Entropy is the scoring record for the transition.
	Entropy entropy.NodeEntropy `json:"entropy"`

	// Description is human-readable summary text.
	Description string `json:"description"`
}

// FileStats summarizes one file comparison.
//
// Counts include transitions suppressed from the change list by the
// entropy threshold; suppression is presentation-only.
type FileStats struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`

	// Suppressed counts changes dropped from the list for scoring
	// below the entropy threshold.
	Suppressed int `json:"suppressed"`

	// MeanEntropy is the average raw entropy over every scored
	// transition, suppressed ones included.
	MeanEntropy float64 `json:"mean_entropy"`

	// TotalEntropy is the decayed aggregate over the same set.
	TotalEntropy float64 `json:"total_entropy"`

	// Level classifies TotalEntropy.
	Level entropy.Level `json:"level"`
}

// PropagationSummary is the blast radius of a file's minimal changed
// subtrees over the containment graph of both versions.
type PropagationSummary struct {
	// AffectedCount is the number of distinct nodes reached, changed
	// nodes themselves excluded.
	AffectedCount int `json:"affected_count"`

	// MaxDepth is the longest observed propagation distance.
	MaxDepth int `json:"max_depth"`

	// Level is the coarse impact level derived from AffectedCount.
	Level propagation.ImpactLevel `json:"level"`

	// Cascading is true when the affected set spans multiple node kinds.
	Cascading bool `json:"cascading"`

	// Score is the normalized propagation score in [0,1].
	Score float64 `json:"score"`
}

// FileResult is the outcome of one file comparison.
type FileResult struct {
	Path     string    `json:"path"`
	Language string    `json:"language"`
	Changes  []Change  `json:"changes"`
	Stats    FileStats `json:"stats"`

	// Propagation estimates how far this file's changes reach.
	Propagation PropagationSummary `json:"propagation"`

	// scoredRaws holds the raw entropy of every scored transition,
	// suppressed ones included, so batch aggregation sees the same set
	// the file stats were computed from.
	scoredRaws []float64
}

// FileFailure records a file excluded from the batch by a parse or
// build failure.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Summary aggregates a whole diff result.
type Summary struct {
	TotalFiles   int `json:"total_files"`
	TotalChanges int `json:"total_changes"`

	// ByOperation counts transitions per change kind, suppressed ones
	// included.
	ByOperation map[hashtree.ChangeKind]int `json:"by_operation"`

	// TotalEntropy is the decayed aggregate over every scored
	// transition in the batch.
	TotalEntropy float64 `json:"total_entropy"`

	// AverageEntropy is the plain mean over the same set.
	AverageEntropy float64 `json:"average_entropy"`

	// OverallLevel classifies TotalEntropy.
	OverallLevel entropy.Level `json:"overall_level"`

	// Hotspots lists changes at high or critical level, descending by
	// entropy, capped at the hotspot limit.
	Hotspots []Change `json:"hotspots"`
}

// Metadata stamps a result for forward compatibility.
type Metadata struct {
	// ID is a UUID for this result.
	ID string `json:"id"`

	// FormatVersion is the JSON shape version.
	FormatVersion string `json:"format_version"`

	// Algorithm is the fixed scoring algorithm identifier.
	Algorithm string `json:"algorithm"`

	// GeneratedAt is the UTC emission timestamp.
	GeneratedAt time.Time `json:"generated_at"`

	// ComputeTimeMs is the wall time of the whole run.
	ComputeTimeMs int64 `json:"compute_time_ms"`
}

// Result is the full output of a diff run, serializable to a stable
// JSON shape.
type Result struct {
	Files    []FileResult  `json:"files"`
	Failures []FileFailure `json:"failures,omitempty"`
	Summary  Summary       `json:"summary"`

	// Review is the classifier's aggregate over every reported change.
	Review classify.Summary `json:"review"`

	Metadata Metadata `json:"metadata"`
}
