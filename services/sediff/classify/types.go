// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify converts scored changes into risk assessments and
// review recommendations.
//
// # Description
//
// A classifier holds an ordered rule table of tagged predicates. Every
// rule matching a (change, entropy) pair contributes its weight
// multiplicatively to the risk score. Built-in rules cover contract
// surfaces, public API exposure, removals, large additions, and
// structural churn; custom rules append at runtime and never displace
// the built-ins.
package classify

import (
	"github.com/AleutianAI/sediff/services/sediff/ast"
	"github.com/AleutianAI/sediff/services/sediff/entropy"
	"github.com/AleutianAI/sediff/services/sediff/hashtree"
)

// Change is the classifier's view of one node transition.
type Change struct {
	// ID is the composite identity of the changed node.
	ID string `json:"id"`

	// Operation is the transition kind.
	Operation hashtree.ChangeKind `json:"operation"`

	// Kind is the node kind of the changed construct.
	Kind ast.NodeKind `json:"kind"`

	// Exported is true when the construct is part of the public
	// surface.
	Exported bool `json:"exported"`

	// Path locates the change as "filePath:qualified.name".
	Path string `json:"path"`

	// ChildCount is the fan-out of the changed subtree root.
	ChildCount int `json:"child_count"`
}

// Rule is one tagged predicate in the rule table.
//
// All matching rules apply their weight multiplicatively to the risk
// score. Weights above 1 amplify, below 1 dampen.
type Rule struct {
	// Tag names the rule in classification output.
	Tag string

	// Weight is the multiplicative risk factor; must be positive.
	Weight float64

	// Predicate reports whether the rule applies to the transition.
	Predicate func(change Change, e entropy.NodeEntropy) bool
}

// Classification is the risk assessment of one change.
type Classification struct {
	// Change is the assessed transition.
	Change Change `json:"change"`

	// Entropy is the scoring record the assessment was based on.
	Entropy entropy.NodeEntropy `json:"entropy"`

	// RiskScore is in [0,1]: normalized entropy times the product of
	// matched rule weights, clamped.
	RiskScore float64 `json:"risk_score"`

	// Tags lists the matched rule tags in table order.
	Tags []string `json:"tags"`

	// ReviewRequired is true when the risk score reaches the review
	// threshold or the entropy level is high or critical.
	ReviewRequired bool `json:"review_required"`

	// Rationale is generated explanatory text for reviewers.
	Rationale string `json:"rationale"`
}

// TagFrequency pairs a rule tag with its occurrence count in a batch.
type TagFrequency struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Summary aggregates a batch of classifications.
type Summary struct {
	// TotalChanges is the number of classified changes.
	TotalChanges int `json:"total_changes"`

	// ReviewRequired counts changes flagged for review.
	ReviewRequired int `json:"review_required"`

	// LevelHistogram counts changes per entropy level; every level
	// appears.
	LevelHistogram map[entropy.Level]int `json:"level_histogram"`

	// TopTags lists the five most frequent matched tags, descending by
	// count with tag name as tiebreaker.
	TopTags []TagFrequency `json:"top_tags"`

	// MeanRiskScore is the arithmetic mean risk; 0 for an empty batch.
	MeanRiskScore float64 `json:"mean_risk_score"`

	// Recommendations holds deterministic guidance strings triggered
	// by fixed count thresholds.
	Recommendations []string `json:"recommendations"`
}
