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
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sediff/services/sediff/ast"
	"github.com/AleutianAI/sediff/services/sediff/hashtree"
)

// newCalculator builds a calculator with defaults and fails the test
// on error.
func newCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(DefaultCalculatorOptions())
	require.NoError(t, err)
	return calc
}

// makeHashNode builds a single hash node over a synthetic semantic
// node with the given kind and child count.
func makeHashNode(t *testing.T, kind ast.NodeKind, childCount int) *hashtree.HashNode {
	t.Helper()

	children := make([]*ast.SemanticNode, 0, childCount)
	for i := 0; i < childCount; i++ {
		children = append(children, &ast.SemanticNode{
			Name:        fmt.Sprintf("child%d", i),
			Kind:        ast.KindFunction,
			Qualifier:   "parent",
			FilePath:    "pkg/thing.go",
			Language:    "go",
			ContentHash: ast.HashContent([]byte(fmt.Sprintf("body %d", i))),
		})
	}
	root := &ast.SemanticNode{
		Name:        "parent",
		Kind:        kind,
		FilePath:    "pkg/thing.go",
		Language:    "go",
		ContentHash: ast.HashContent([]byte("parent body")),
		Children:    children,
	}

	roots, _, err := hashtree.Build([]*ast.SemanticNode{root})
	require.NoError(t, err)
	return roots[0]
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name       string
		thresholds Thresholds
		wantField  string
	}{
		{
			name:       "ordered and non-negative",
			thresholds: Thresholds{Minimal: 0.5, Low: 1.5, Moderate: 3.0, High: 5.0, Critical: 6.0},
		},
		{
			name:       "defaults",
			thresholds: DefaultThresholds(),
		},
		{
			name:       "minimal above low",
			thresholds: Thresholds{Minimal: 5.0, Low: 1.5, Moderate: 3.0, High: 5.0, Critical: 6.0},
			wantField:  "low",
		},
		{
			name:       "equal boundaries",
			thresholds: Thresholds{Minimal: 0, Low: 1, Moderate: 1, High: 5, Critical: 6},
			wantField:  "moderate",
		},
		{
			name:       "negative boundary",
			thresholds: Thresholds{Minimal: -1, Low: 1, Moderate: 2, High: 3, Critical: 4},
			wantField:  "minimal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.thresholds.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Field)
		})
	}
}

func TestThresholds_ClassifyBoundariesInclusive(t *testing.T) {
	th := Thresholds{Minimal: 0, Low: 0.5, Moderate: 1.5, High: 3.0, Critical: 5.0}

	tests := []struct {
		value float64
		want  Level
	}{
		{0.0, LevelMinimal},
		{0.49, LevelMinimal},
		{0.5, LevelLow},
		{1.5, LevelModerate},
		{2.99, LevelModerate},
		{3.0, LevelHigh},
		{5.0, LevelCritical},
		{100.0, LevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Classify(tt.value), "value %v", tt.value)
	}
}

func TestClassify_Monotonic(t *testing.T) {
	calc := newCalculator(t)

	prev := -1
	for v := 0.0; v <= 12.0; v += 0.1 {
		rank := calc.Classify(v).Rank()
		assert.GreaterOrEqual(t, rank, prev, "level rank decreased at %v", v)
		prev = rank
	}
}

func TestCompute_RawNonNegativeNormalizedBounded(t *testing.T) {
	calc := newCalculator(t)

	kinds := []ast.NodeKind{
		ast.KindFunction, ast.KindClass, ast.KindInterface,
		ast.KindVariable, ast.KindImport, ast.KindOther,
	}
	changes := []hashtree.ChangeKind{
		hashtree.ChangeAdded, hashtree.ChangeRemoved, hashtree.ChangeModified,
	}

	for _, kind := range kinds {
		for _, change := range changes {
			for _, childCount := range []int{0, 1, 5, 20} {
				node := makeHashNode(t, kind, childCount)
				e := calc.Compute(node, node, change)

				assert.GreaterOrEqual(t, e.Raw, 0.0)
				assert.GreaterOrEqual(t, e.Normalized, 0.0)
				assert.LessOrEqual(t, e.Normalized, 1.0)
			}
		}
	}
}

func TestCompute_RemovalKeepsNegativePropagationSign(t *testing.T) {
	calc := newCalculator(t)
	node := makeHashNode(t, ast.KindClass, 3)

	removed := calc.Compute(node, nil, hashtree.ChangeRemoved)
	modified := calc.Compute(node, node, hashtree.ChangeModified)

	assert.Negative(t, removed.Components.Propagation)
	assert.Positive(t, modified.Components.Propagation)
	assert.Positive(t, removed.Raw)

	// Same magnitude drives both scores.
	assert.InDelta(t,
		math.Abs(removed.Components.Propagation),
		math.Abs(modified.Components.Propagation), 1e-12)
}

func TestCompute_InterfaceWeighsAboveVariable(t *testing.T) {
	calc := newCalculator(t)

	iface := calc.Compute(nil, makeHashNode(t, ast.KindInterface, 2), hashtree.ChangeModified)
	variable := calc.Compute(nil, makeHashNode(t, ast.KindVariable, 2), hashtree.ChangeModified)

	assert.Greater(t, iface.Raw, variable.Raw)
}

func TestCompute_Unchanged(t *testing.T) {
	calc := newCalculator(t)
	node := makeHashNode(t, ast.KindFunction, 2)

	e := calc.Compute(node, node, hashtree.ChangeUnchanged)

	assert.Zero(t, e.Raw)
	assert.Zero(t, e.Normalized)
	assert.Equal(t, LevelMinimal, e.Level)
}

func TestAggregate_OrderInvariant(t *testing.T) {
	calc := newCalculator(t)
	values := []float64{3.2, 0.1, 7.5, 1.1, 0.9, 2.4}

	want := calc.Aggregate(values)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]float64, len(values))
		copy(shuffled, values)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.InDelta(t, want, calc.Aggregate(shuffled), 1e-12)
	}
}

func TestAggregate_BoundedBySimpleSum(t *testing.T) {
	calc := newCalculator(t)
	values := []float64{5.0, 4.0, 3.0, 2.0, 1.0}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	aggregate := calc.Aggregate(values)
	assert.LessOrEqual(t, aggregate, sum)
	assert.Greater(t, aggregate, values[0], "aggregate should reward breadth")
	assert.Zero(t, calc.Aggregate(nil))
}

func TestAnalyze(t *testing.T) {
	calc := newCalculator(t)

	entries := make([]NodeEntropy, 0, 15)
	for i := 0; i < 15; i++ {
		raw := float64(i) * 0.5
		entries = append(entries, NodeEntropy{
			Identity:   fmt.Sprintf("function:%d:f%d", i, i),
			ChangeKind: hashtree.ChangeModified,
			Raw:        raw,
			Normalized: raw / DefaultNormalizationBound,
			Level:      calc.Classify(raw),
		})
	}

	analysis := calc.Analyze(entries)

	assert.Positive(t, analysis.Total)
	assert.Positive(t, analysis.Average)
	assert.Len(t, analysis.Hotspots, DefaultHotspotLimit)

	for i := 1; i < len(analysis.Hotspots); i++ {
		assert.GreaterOrEqual(t,
			analysis.Hotspots[i-1].Raw, analysis.Hotspots[i].Raw,
			"hotspots must be descending")
	}

	count := 0
	for _, level := range AllLevels() {
		n, ok := analysis.Distribution[level]
		assert.True(t, ok, "distribution must cover level %s", level)
		count += n
	}
	assert.Equal(t, len(entries), count)
}

func TestAnalyze_Empty(t *testing.T) {
	calc := newCalculator(t)

	analysis := calc.Analyze(nil)

	assert.Zero(t, analysis.Total)
	assert.Zero(t, analysis.Average)
	assert.Empty(t, analysis.Hotspots)
	assert.Equal(t, LevelMinimal, analysis.OverallLevel)
}

func TestNewCalculator_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CalculatorOptions)
		wantField string
	}{
		{
			name:   "defaults valid",
			mutate: func(o *CalculatorOptions) {},
		},
		{
			name:      "decay above one",
			mutate:    func(o *CalculatorOptions) { o.DecayFactor = 1.5 },
			wantField: "decay_factor",
		},
		{
			name:      "negative decay",
			mutate:    func(o *CalculatorOptions) { o.DecayFactor = -0.5 },
			wantField: "decay_factor",
		},
		{
			name:      "negative bound",
			mutate:    func(o *CalculatorOptions) { o.NormalizationBound = -1 },
			wantField: "normalization_bound",
		},
		{
			name:      "unordered thresholds",
			mutate:    func(o *CalculatorOptions) { o.Thresholds.Critical = 0.1 },
			wantField: "critical",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultCalculatorOptions()
			tt.mutate(&opts)

			calc, err := NewCalculator(opts)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.NotNil(t, calc)
				return
			}
			require.Error(t, err)

			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Field)
		})
	}
}

func TestShannonEntropy(t *testing.T) {
	// Single outcome yields zero.
	h, err := ShannonEntropy([]float64{1, 0, 0, 0})
	require.NoError(t, err)
	assert.Zero(t, h)

	// Uniform attains the maximum log2(n).
	h, err = ShannonEntropy([]float64{0.25, 0.25, 0.25, 0.25})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, h, 1e-12)

	// Any distribution stays within [0, log2(n)].
	h, err = ShannonEntropy([]float64{0.7, 0.1, 0.1, 0.1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, h, 0.0)
	assert.LessOrEqual(t, h, 2.0)

	// Raw counts are normalized.
	h, err = ShannonEntropy([]float64{5, 5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, h, 1e-12)

	_, err = ShannonEntropy([]float64{0, 0})
	assert.ErrorIs(t, err, ErrEmptyDistribution)
}

func TestKLDivergence(t *testing.T) {
	p := []float64{0.5, 0.5}
	q := []float64{0.9, 0.1}

	// Identical distributions diverge by zero.
	kl, err := KLDivergence(p, p)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, kl, 1e-12)

	kl, err = KLDivergence(p, q)
	require.NoError(t, err)
	assert.Positive(t, kl)

	// Zero reference mass where P has mass is undefined.
	_, err = KLDivergence([]float64{0.5, 0.5}, []float64{1, 0})
	assert.ErrorIs(t, err, ErrDivergenceUndefined)

	_, err = KLDivergence([]float64{0.5, 0.5}, []float64{1})
	assert.ErrorIs(t, err, ErrDistributionLength)
}

func TestJensenShannonDivergence(t *testing.T) {
	p := []float64{0.6, 0.3, 0.1}
	q := []float64{0.1, 0.3, 0.6}

	forward, err := JensenShannonDivergence(p, q)
	require.NoError(t, err)
	backward, err := JensenShannonDivergence(q, p)
	require.NoError(t, err)

	assert.InDelta(t, forward, backward, 1e-12, "JS divergence must be symmetric")
	assert.Positive(t, forward)

	same, err := JensenShannonDivergence(p, p)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, same, 1e-12)

	// Defined even where KL is not.
	js, err := JensenShannonDivergence([]float64{0.5, 0.5}, []float64{1, 0})
	require.NoError(t, err)
	assert.Positive(t, js)
}
