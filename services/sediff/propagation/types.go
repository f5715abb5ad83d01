// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package propagation estimates the blast radius of code changes over
// a dependency graph.
//
// # Description
//
// A tracker owns a directed dependency graph (node id to dependent
// ids) built either from hash-tree adjacency or from explicitly
// supplied edges. Breadth-first traversal from a changed node assigns
// each reachable dependent a decayed impact score; epsilon and
// max-depth guards bound the walk on cyclic or dense graphs.
//
// # Thread Safety
//
// A tracker's graph is mutable instance state. Trackers must be reset
// between unrelated analyses or instantiated per job, never shared
// across concurrent jobs without external synchronization.
package propagation

import "github.com/AleutianAI/sediff/services/sediff/ast"

// PropagationType tags the mechanism by which impact travels along a
// path.
type PropagationType string

const (
	// PropagationInterface means either endpoint is interface-kind.
	// Contract changes travel furthest, so this takes top precedence.
	PropagationInterface PropagationType = "interface"

	// PropagationInheritance means both endpoints are class-kind.
	PropagationInheritance PropagationType = "inheritance"

	// PropagationDirect means the target immediately depends on the
	// source.
	PropagationDirect PropagationType = "direct"

	// PropagationTransitive covers every other multi-hop path.
	PropagationTransitive PropagationType = "transitive"
)

// Path records how a change at Source reaches Target.
type Path struct {
	// Source is the id of the changed node.
	Source string `json:"source"`

	// Target is the id of the affected dependent.
	Target string `json:"target"`

	// Distance is the hop count from source to target, >= 1.
	Distance int `json:"distance"`

	// Impact is initialImpact * decay^Distance.
	Impact float64 `json:"impact"`

	// Type tags the propagation mechanism, chosen by type precedence
	// over the endpoints, never by distance alone.
	Type PropagationType `json:"type"`
}

// ImpactLevel is the coarse blast-radius category of an analysis.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "low"
	ImpactModerate ImpactLevel = "moderate"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// impactMultipliers scale the propagation score by level.
var impactMultipliers = map[ImpactLevel]float64{
	ImpactLow:      0.25,
	ImpactModerate: 0.5,
	ImpactHigh:     0.75,
	ImpactCritical: 1.0,
}

// ChangeRef identifies one changed node in flat-change mode.
type ChangeRef struct {
	// ID is the composite identity of the changed node.
	ID string `json:"id"`

	// Kind is the node kind, used for propagation typing and the
	// cascading check.
	Kind ast.NodeKind `json:"kind"`
}

// Analysis summarizes the estimated blast radius of a change set.
type Analysis struct {
	// AffectedCount is the number of distinct affected nodes, sources
	// excluded.
	AffectedCount int `json:"affected_count"`

	// MaxDepth is the deepest hop distance observed across all walks.
	MaxDepth int `json:"max_depth"`

	// Level is the coarse impact category derived from AffectedCount.
	Level ImpactLevel `json:"level"`

	// Cascading is true when at least three affected nodes span more
	// than one node kind.
	Cascading bool `json:"cascading"`

	// Paths holds every propagation path found, ordered by (distance,
	// source, target) for deterministic output.
	Paths []Path `json:"paths"`
}
