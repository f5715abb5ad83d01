// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package propagation

import (
	"math"
	"sort"

	"github.com/AleutianAI/sediff/services/sediff/ast"
	"github.com/AleutianAI/sediff/services/sediff/hashtree"
)

// Default traversal parameters.
const (
	// DefaultDecayFactor attenuates impact per hop.
	DefaultDecayFactor = 0.5

	// DefaultEpsilon stops a branch once its impact falls below this.
	DefaultEpsilon = 0.01

	// DefaultMaxDepth bounds the hop distance of any walk.
	DefaultMaxDepth = 10

	// DefaultInitialImpact seeds a walk when the caller does not
	// supply one.
	DefaultInitialImpact = 1.0
)

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithDecayFactor overrides the per-hop impact decay. Values outside
// (0,1] are ignored.
func WithDecayFactor(decay float64) TrackerOption {
	return func(t *Tracker) {
		if decay > 0 && decay <= 1 {
			t.decay = decay
		}
	}
}

// WithEpsilon overrides the impact cutoff. Non-positive values are
// ignored.
func WithEpsilon(epsilon float64) TrackerOption {
	return func(t *Tracker) {
		if epsilon > 0 {
			t.epsilon = epsilon
		}
	}
}

// WithTraversalDepth overrides the maximum hop distance. Values below
// 1 are ignored.
func WithTraversalDepth(depth int) TrackerOption {
	return func(t *Tracker) {
		if depth >= 1 {
			t.maxDepth = depth
		}
	}
}

// Tracker owns one dependency graph and runs decayed-impact traversals
// over it.
//
// Description:
//
//	The graph maps a node id to the set of ids that depend on it. It is
//	populated either from hash-tree adjacency (BuildGraphFromTrees) or
//	edge by edge (AddDependency) and must be reset between independent
//	analyses.
type Tracker struct {
	decay    float64
	epsilon  float64
	maxDepth int

	// dependents maps node id -> set of dependent ids.
	dependents map[string]map[string]bool

	// kinds maps node id -> node kind for propagation typing.
	kinds map[string]ast.NodeKind
}

// NewTracker creates a tracker with an empty graph.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		decay:      DefaultDecayFactor,
		epsilon:    DefaultEpsilon,
		maxDepth:   DefaultMaxDepth,
		dependents: make(map[string]map[string]bool),
		kinds:      make(map[string]ast.NodeKind),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Reset clears the graph. Must be called between unrelated analyses
// when a tracker instance is reused.
func (t *Tracker) Reset() {
	t.dependents = make(map[string]map[string]bool)
	t.kinds = make(map[string]ast.NodeKind)
}

// NodeCount returns the number of distinct nodes known to the graph.
func (t *Tracker) NodeCount() int {
	return len(t.kinds)
}

// RegisterNode records a node and its kind without adding edges.
func (t *Tracker) RegisterNode(id string, kind ast.NodeKind) {
	t.kinds[id] = kind
}

// AddDependency records that dependent depends on source: a change to
// source propagates to dependent. Unknown endpoints are registered
// with kind Other.
func (t *Tracker) AddDependency(source, dependent string) {
	if source == "" || dependent == "" || source == dependent {
		return
	}
	if _, ok := t.kinds[source]; !ok {
		t.kinds[source] = ast.KindOther
	}
	if _, ok := t.kinds[dependent]; !ok {
		t.kinds[dependent] = ast.KindOther
	}
	set, ok := t.dependents[source]
	if !ok {
		set = make(map[string]bool)
		t.dependents[source] = set
	}
	set[dependent] = true
}

// BuildGraphFromTrees populates the graph from hash-tree adjacency.
//
// # Description
//
// Each child's enclosing scope is registered as its dependent: a change
// to a member affects the construct that contains it, mirroring how
// combined hashes bubble upward. Existing graph content is kept;
// callers wanting a fresh graph must Reset first.
//
// # Inputs
//
//   - roots: Hash forest to ingest. Nil roots are skipped.
func (t *Tracker) BuildGraphFromTrees(roots []*hashtree.HashNode) {
	for _, root := range roots {
		if root == nil {
			continue
		}
		t.ingestTree(root)
	}
}

func (t *Tracker) ingestTree(node *hashtree.HashNode) {
	t.kinds[node.Identity()] = node.Node.Kind
	for _, child := range node.Children {
		t.ingestTree(child)
		t.AddDependency(child.Identity(), node.Identity())
	}
}

// TrackPropagation walks the graph breadth-first from a changed node.
//
// # Description
//
// Each reachable dependent gets impact = initialImpact * decay^distance
// at its true breadth-first distance. A branch stops expanding once its
// impact falls below epsilon or the hop distance exceeds the maximum;
// together with the visited set this guarantees termination on cyclic
// graphs. Paths are ordered by (distance, target) and each node is
// reported once at its shortest distance.
//
// # Inputs
//
//   - sourceID: Identity of the changed node.
//   - initialImpact: Impact seed; non-positive values fall back to
//     DefaultInitialImpact.
//
// # Outputs
//
//   - []Path: Ordered propagation paths. Empty (non-nil) for unknown
//     sources or sources without dependents.
func (t *Tracker) TrackPropagation(sourceID string, initialImpact float64) []Path {
	if initialImpact <= 0 {
		initialImpact = DefaultInitialImpact
	}

	paths := make([]Path, 0)
	visited := map[string]bool{sourceID: true}

	type frontier struct {
		id       string
		distance int
	}
	queue := []frontier{{id: sourceID, distance: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		nextDistance := current.distance + 1
		if nextDistance > t.maxDepth {
			continue
		}
		impact := initialImpact * math.Pow(t.decay, float64(nextDistance))
		if impact < t.epsilon {
			continue
		}

		for _, dependent := range t.sortedDependents(current.id) {
			if visited[dependent] {
				continue
			}
			visited[dependent] = true

			paths = append(paths, Path{
				Source:   sourceID,
				Target:   dependent,
				Distance: nextDistance,
				Impact:   impact,
				Type:     t.pathType(sourceID, dependent, nextDistance),
			})
			queue = append(queue, frontier{id: dependent, distance: nextDistance})
		}
	}

	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Distance != paths[j].Distance {
			return paths[i].Distance < paths[j].Distance
		}
		return paths[i].Target < paths[j].Target
	})
	return paths
}

// sortedDependents returns the dependents of a node in lexical order
// for deterministic traversal.
func (t *Tracker) sortedDependents(id string) []string {
	set, ok := t.dependents[id]
	if !ok || len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for dependent := range set {
		out = append(out, dependent)
	}
	sort.Strings(out)
	return out
}

// pathType picks the propagation mechanism by endpoint-kind
// precedence: interface > inheritance > direct > transitive.
func (t *Tracker) pathType(source, target string, distance int) PropagationType {
	sourceKind := t.kinds[source]
	targetKind := t.kinds[target]

	switch {
	case sourceKind == ast.KindInterface || targetKind == ast.KindInterface:
		return PropagationInterface
	case sourceKind == ast.KindClass && targetKind == ast.KindClass:
		return PropagationInheritance
	case distance == 1:
		return PropagationDirect
	default:
		return PropagationTransitive
	}
}

// AnalyzePropagation estimates the blast radius of a flat change list
// over the explicitly supplied graph.
//
// # Description
//
// Every change seeds a breadth-first walk; affected sets are unioned
// and depths reflect true graph distance. The impact level is derived
// from the distinct affected count and the cascading flag fires when
// at least three affected nodes span more than one node kind.
//
// # Inputs
//
//   - changes: Changed nodes with their kinds. Kinds are registered
//     into the graph so subsequent typing sees them.
//
// # Outputs
//
//   - Analysis: Blast-radius summary with deterministic path ordering.
func (t *Tracker) AnalyzePropagation(changes []ChangeRef) Analysis {
	for _, change := range changes {
		if change.ID != "" {
			t.kinds[change.ID] = change.Kind
		}
	}

	sources := make(map[string]bool, len(changes))
	for _, change := range changes {
		sources[change.ID] = true
	}

	affected := make(map[string]bool)
	allPaths := make([]Path, 0)
	maxDepth := 0

	for _, change := range changes {
		for _, path := range t.TrackPropagation(change.ID, DefaultInitialImpact) {
			allPaths = append(allPaths, path)
			if !sources[path.Target] {
				affected[path.Target] = true
			}
			if path.Distance > maxDepth {
				maxDepth = path.Distance
			}
		}
	}

	sort.Slice(allPaths, func(i, j int) bool {
		if allPaths[i].Distance != allPaths[j].Distance {
			return allPaths[i].Distance < allPaths[j].Distance
		}
		if allPaths[i].Source != allPaths[j].Source {
			return allPaths[i].Source < allPaths[j].Source
		}
		return allPaths[i].Target < allPaths[j].Target
	})

	return Analysis{
		AffectedCount: len(affected),
		MaxDepth:      maxDepth,
		Level:         impactLevelFor(len(affected)),
		Cascading:     t.isCascading(affected),
		Paths:         allPaths,
	}
}

// impactLevelFor maps a distinct affected count onto the coarse level
// scale.
func impactLevelFor(affectedCount int) ImpactLevel {
	switch {
	case affectedCount >= 15:
		return ImpactCritical
	case affectedCount >= 8:
		return ImpactHigh
	case affectedCount >= 3:
		return ImpactModerate
	default:
		return ImpactLow
	}
}

// isCascading reports whether the affected set spans multiple node
// kinds with at least three members.
func (t *Tracker) isCascading(affected map[string]bool) bool {
	if len(affected) < 3 {
		return false
	}
	kinds := make(map[ast.NodeKind]bool)
	for id := range affected {
		kinds[t.kinds[id]] = true
		if len(kinds) > 1 {
			return true
		}
	}
	return false
}

// CalculateScore normalizes an analysis into [0,1].
//
// Combines the affected-node ratio against the total graph size, the
// impact-level multiplier, and a cascading bonus, clamped to 1.
// Returns 0 when the graph is empty or nothing is affected.
func (t *Tracker) CalculateScore(analysis Analysis) float64 {
	total := t.NodeCount()
	if total == 0 || analysis.AffectedCount == 0 {
		return 0
	}

	ratio := float64(analysis.AffectedCount) / float64(total)
	score := ratio * impactMultipliers[analysis.Level]
	if analysis.Cascading {
		score += 0.2
	}
	if score > 1 {
		return 1
	}
	return score
}
