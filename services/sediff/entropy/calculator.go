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

import (
	"math"
	"sort"

	"github.com/AleutianAI/sediff/services/sediff/ast"
	"github.com/AleutianAI/sediff/services/sediff/hashtree"
)

// Weighting constants for the node-level entropy formula:
// raw = (structuralWeight*structural + semanticWeight*semantic) * |propagation|.
const (
	structuralWeight = 0.4
	semanticWeight   = 0.6
)

// Default calculator parameters.
const (
	// DefaultDecayFactor attenuates each successive rank in the
	// diminishing-returns aggregate.
	DefaultDecayFactor = 0.9

	// DefaultNormalizationBound is the calibrated raw-entropy value that
	// maps to a normalized score of 1.0.
	DefaultNormalizationBound = 10.0

	// DefaultHotspotLimit caps the ranked hotspot list in an Analysis.
	DefaultHotspotLimit = 10
)

// defaultKindWeights ranks node kinds by semantic significance.
// Contract surfaces (interface, class, type) weigh above leaf-level
// declarations (variable, import).
var defaultKindWeights = map[ast.NodeKind]float64{
	ast.KindInterface: 1.5,
	ast.KindModule:    1.3,
	ast.KindClass:     1.2,
	ast.KindType:      1.1,
	ast.KindFunction:  1.0,
	ast.KindMethod:    1.0,
	ast.KindExport:    0.8,
	ast.KindVariable:  0.5,
	ast.KindConstant:  0.4,
	ast.KindImport:    0.3,
	ast.KindOther:     0.3,
}

// defaultChangeKindWeights scales semantic significance per transition
// kind. Removals weigh above modifications since disappearance breaks
// callers outright.
var defaultChangeKindWeights = map[hashtree.ChangeKind]float64{
	hashtree.ChangeAdded:    1.0,
	hashtree.ChangeRemoved:  1.2,
	hashtree.ChangeModified: 1.0,
}

// CalculatorOptions configures a Calculator.
type CalculatorOptions struct {
	// Thresholds maps raw entropy to levels. Validated at construction.
	Thresholds Thresholds

	// DecayFactor attenuates aggregation ranks; must be in (0,1].
	DecayFactor float64

	// NormalizationBound is the raw value mapping to normalized 1.0;
	// must be positive.
	NormalizationBound float64

	// HotspotLimit caps the Analysis hotspot list; must be positive.
	HotspotLimit int

	// KindWeights overrides the per-node-kind semantic weights. Kinds
	// absent from the map fall back to the default table.
	KindWeights map[ast.NodeKind]float64
}

// DefaultCalculatorOptions returns the calibrated defaults.
func DefaultCalculatorOptions() CalculatorOptions {
	return CalculatorOptions{
		Thresholds:         DefaultThresholds(),
		DecayFactor:        DefaultDecayFactor,
		NormalizationBound: DefaultNormalizationBound,
		HotspotLimit:       DefaultHotspotLimit,
	}
}

// Calculator scores node transitions and aggregates change sets.
//
// Thread Safety:
//
//	Calculator is immutable after construction and safe for concurrent
//	use.
type Calculator struct {
	thresholds  Thresholds
	decay       float64
	bound       float64
	hotspotCap  int
	kindWeights map[ast.NodeKind]float64
}

// NewCalculator builds a Calculator, validating the configuration
// eagerly.
//
// # Inputs
//
//   - opts: Calculator configuration. Zero values for DecayFactor,
//     NormalizationBound, and HotspotLimit fall back to defaults.
//
// # Outputs
//
//   - *Calculator: Ready for use. Never nil on success.
//   - error: A *ConfigurationError naming the offending field.
func NewCalculator(opts CalculatorOptions) (*Calculator, error) {
	if opts.DecayFactor == 0 {
		opts.DecayFactor = DefaultDecayFactor
	}
	if opts.NormalizationBound == 0 {
		opts.NormalizationBound = DefaultNormalizationBound
	}
	if opts.HotspotLimit == 0 {
		opts.HotspotLimit = DefaultHotspotLimit
	}

	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if opts.DecayFactor <= 0 || opts.DecayFactor > 1 {
		return nil, &ConfigurationError{
			Field:   "decay_factor",
			Message: "must be in (0, 1]",
		}
	}
	if opts.NormalizationBound < 0 {
		return nil, &ConfigurationError{
			Field:   "normalization_bound",
			Message: "must be positive",
		}
	}
	if opts.HotspotLimit < 0 {
		return nil, &ConfigurationError{
			Field:   "hotspot_limit",
			Message: "must be positive",
		}
	}

	weights := make(map[ast.NodeKind]float64, len(defaultKindWeights))
	for kind, w := range defaultKindWeights {
		weights[kind] = w
	}
	for kind, w := range opts.KindWeights {
		weights[kind] = w
	}

	return &Calculator{
		thresholds:  opts.Thresholds,
		decay:       opts.DecayFactor,
		bound:       opts.NormalizationBound,
		hotspotCap:  opts.HotspotLimit,
		kindWeights: weights,
	}, nil
}

// Thresholds returns the calculator's validated threshold table.
func (c *Calculator) Thresholds() Thresholds {
	return c.thresholds
}

// Compute scores one node transition.
//
// # Description
//
// The scored node is the new version when present, else the old one
// (removals). Unchanged transitions score zero. The raw value is
// (0.4*structural + 0.6*semantic) * |propagation|; the propagation
// component keeps its negative sign for removals in the decomposition
// while the magnitude drives the score.
//
// # Inputs
//
//   - oldNode: Old version of the node; nil for additions.
//   - newNode: New version of the node; nil for removals.
//   - kind: The transition kind.
//
// # Outputs
//
//   - NodeEntropy: The scoring record. Raw >= 0 and Normalized in
//     [0,1] for all inputs.
func (c *Calculator) Compute(oldNode, newNode *hashtree.HashNode, kind hashtree.ChangeKind) NodeEntropy {
	subject := newNode
	if subject == nil {
		subject = oldNode
	}
	if subject == nil || kind == hashtree.ChangeUnchanged {
		identity := ""
		if subject != nil {
			identity = subject.Identity()
		}
		return NodeEntropy{
			Identity:   identity,
			ChangeKind: kind,
			Level:      LevelMinimal,
		}
	}

	structural := structuralComponent(subject)
	semantic := c.semanticComponent(subject, kind)
	propagation := propagationComponent(subject, kind)

	raw := (structuralWeight*structural + semanticWeight*semantic) * math.Abs(propagation)
	normalized := clamp01(raw / c.bound)

	return NodeEntropy{
		Identity:   subject.Identity(),
		ChangeKind: kind,
		Raw:        raw,
		Normalized: normalized,
		Level:      c.thresholds.Classify(raw),
		Components: Components{
			Structural:  structural,
			Semantic:    semantic,
			Propagation: propagation,
		},
	}
}

// Classify maps a raw entropy value onto the level scale using the
// calculator's thresholds.
func (c *Calculator) Classify(value float64) Level {
	return c.thresholds.Classify(value)
}

// Normalize rescales a raw entropy value into [0,1] against the
// calibrated bound.
func (c *Calculator) Normalize(raw float64) float64 {
	return clamp01(raw / c.bound)
}

// Aggregate folds raw entropy values with diminishing returns.
//
// Values are sorted descending and summed as value_i * decay^i, so the
// result is order-invariant over the input multiset and never exceeds
// the simple sum. Rewards breadth of change without linear stacking.
func (c *Calculator) Aggregate(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	total := 0.0
	weight := 1.0
	for _, v := range sorted {
		total += v * weight
		weight *= c.decay
	}
	return total
}

// Analyze aggregates a set of scored transitions into one Analysis.
//
// # Description
//
// Total uses the decayed aggregate; Average is the plain mean. The
// hotspot list is sorted descending by raw entropy with identity as a
// deterministic tiebreaker and capped at the configured limit. The
// distribution histogram covers every level, zero counts included.
func (c *Calculator) Analyze(entries []NodeEntropy) Analysis {
	distribution := make(map[Level]int, len(levelRanks))
	for _, level := range AllLevels() {
		distribution[level] = 0
	}

	raws := make([]float64, 0, len(entries))
	sum := 0.0
	for _, e := range entries {
		raws = append(raws, e.Raw)
		sum += e.Raw
		distribution[e.Level]++
	}

	average := 0.0
	if len(entries) > 0 {
		average = sum / float64(len(entries))
	}

	hotspots := make([]NodeEntropy, len(entries))
	copy(hotspots, entries)
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Raw != hotspots[j].Raw {
			return hotspots[i].Raw > hotspots[j].Raw
		}
		return hotspots[i].Identity < hotspots[j].Identity
	})
	if len(hotspots) > c.hotspotCap {
		hotspots = hotspots[:c.hotspotCap]
	}

	total := c.Aggregate(raws)
	return Analysis{
		Total:        total,
		Average:      average,
		Distribution: distribution,
		Hotspots:     hotspots,
		OverallLevel: c.thresholds.Classify(total),
	}
}

// structuralComponent grows with subtree depth and child-kind
// diversity.
func structuralComponent(node *hashtree.HashNode) float64 {
	distinct := make(map[ast.NodeKind]bool, len(node.Children))
	for _, child := range node.Children {
		distinct[child.Node.Kind] = true
	}
	return math.Log2(1+float64(node.Depth)) + 0.25*float64(len(distinct))
}

// semanticComponent weights the node kind and change kind.
func (c *Calculator) semanticComponent(node *hashtree.HashNode, kind hashtree.ChangeKind) float64 {
	kindWeight, ok := c.kindWeights[node.Node.Kind]
	if !ok {
		kindWeight = defaultKindWeights[ast.KindOther]
	}
	changeWeight, ok := defaultChangeKindWeights[kind]
	if !ok {
		changeWeight = 1.0
	}
	return kindWeight * changeWeight
}

// propagationComponent is a coarse fan-out proxy: one plus the child
// count, negated for removals so "disappeared" is distinguishable from
// "changed" in the decomposition.
func propagationComponent(node *hashtree.HashNode, kind hashtree.ChangeKind) float64 {
	fanOut := 1 + float64(len(node.Children))
	if kind == hashtree.ChangeRemoved {
		return -fanOut
	}
	return fanOut
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
