// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package differ

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/AleutianAI/sediff/pkg/logging"
	"github.com/AleutianAI/sediff/services/sediff/ast"
	"github.com/AleutianAI/sediff/services/sediff/cache"
	"github.com/AleutianAI/sediff/services/sediff/classify"
	"github.com/AleutianAI/sediff/services/sediff/entropy"
	"github.com/AleutianAI/sediff/services/sediff/hashtree"
	"github.com/AleutianAI/sediff/services/sediff/propagation"
)

// DefaultEntropyThreshold is the raw-entropy floor below which a
// transition is suppressed from the reported change list. Suppressed
// transitions still count in every aggregate.
const DefaultEntropyThreshold = 0.05

// Options configures a Differ.
type Options struct {
	// Registry resolves parsers by language or extension. Defaults to
	// the built-in registry.
	Registry *ast.ParserRegistry

	// Calculator scores transitions. Defaults to a calculator with
	// DefaultCalculatorOptions.
	Calculator *entropy.Calculator

	// Classifier assesses reported changes. Defaults to the built-in
	// rule table.
	Classifier *classify.Classifier

	// Cache reuses parse results across revisions by content hash.
	// Nil disables caching.
	Cache *cache.ParseCache

	// EntropyThreshold suppresses low-scoring transitions from the
	// change list. Negative disables suppression; zero means default.
	EntropyThreshold float64

	// Workers sizes the batch worker pool. Zero means GOMAXPROCS.
	Workers int

	// Logger receives pipeline diagnostics. Defaults to
	// logging.Default.
	Logger *logging.Logger
}

// Differ runs the semantic diff pipeline.
//
// Description:
//
//	The pipeline per file is fixed and no stage is skippable:
//	parse both versions, build hash trees, verify tree integrity,
//	partition by identity, score every transition, filter and emit.
//	Identical inputs always yield bit-identical change sets: every
//	internally unordered structure is explicitly sorted before
//	emission.
//
// Thread Safety:
//
//	Differ is immutable after construction and safe for concurrent
//	use; each comparison job owns its forests and trees.
type Differ struct {
	registry   *ast.ParserRegistry
	calculator *entropy.Calculator
	classifier *classify.Classifier
	cache      *cache.ParseCache
	threshold  float64
	workers    int
	logger     *logging.Logger
}

// New creates a Differ, filling unset options with defaults.
//
// Configuration is validated eagerly: an invalid calculator
// configuration fails here, before any analysis runs.
func New(opts Options) (*Differ, error) {
	if opts.Registry == nil {
		opts.Registry = ast.DefaultRegistry()
	}
	if opts.Calculator == nil {
		calc, err := entropy.NewCalculator(entropy.DefaultCalculatorOptions())
		if err != nil {
			return nil, err
		}
		opts.Calculator = calc
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.NewClassifier()
	}
	if opts.EntropyThreshold == 0 {
		opts.EntropyThreshold = DefaultEntropyThreshold
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	return &Differ{
		registry:   opts.Registry,
		calculator: opts.Calculator,
		classifier: opts.Classifier,
		cache:      opts.Cache,
		threshold:  opts.EntropyThreshold,
		workers:    opts.Workers,
		logger:     opts.Logger,
	}, nil
}

// DiffFile compares two versions of one file.
//
// # Inputs
//
//   - ctx: Context for cancellation; parsing honors its deadline.
//   - pair: The two versions. Nil OldContent means a new file, nil
//     NewContent a deleted one.
//
// # Outputs
//
//   - *FileResult: Changes and per-file statistics, deterministically
//     ordered.
//   - error: Parse failures, depth violations, or integrity errors.
//     Integrity errors block entropy computation entirely.
func (d *Differ) DiffFile(ctx context.Context, pair FilePair) (*FileResult, error) {
	start := time.Now()

	parser, err := d.resolveParser(pair)
	if err != nil {
		return nil, err
	}

	oldRoots, err := d.parseToTree(ctx, parser, pair.OldContent, pair.Path)
	if err != nil {
		return nil, fmt.Errorf("old version: %w", err)
	}
	newRoots, err := d.parseToTree(ctx, parser, pair.NewContent, pair.Path)
	if err != nil {
		return nil, fmt.Errorf("new version: %w", err)
	}

	// Unverified trees must never feed the calculator.
	if err := hashtree.VerifyIntegrity(oldRoots); err != nil {
		return nil, err
	}
	if err := hashtree.VerifyIntegrity(newRoots); err != nil {
		return nil, err
	}

	comparison := hashtree.Compare(oldRoots, newRoots)
	result := d.scoreComparison(pair, parser.Language(), comparison)
	result.Propagation = propagationSummary(oldRoots, newRoots)

	recordDiffMetrics(ctx, parser.Language(), time.Since(start), len(result.Changes), true)
	return result, nil
}

// propagationSummary walks the containment graph of both versions from
// the minimal changed subtrees. Seeding from the minimal set keeps
// enclosing scopes out of the sources, so reaching one counts as
// propagation rather than being absorbed as a change of its own.
func propagationSummary(oldRoots, newRoots []*hashtree.HashNode) PropagationSummary {
	tracker := propagation.NewTracker()
	tracker.BuildGraphFromTrees(oldRoots)
	tracker.BuildGraphFromTrees(newRoots)

	subtrees := hashtree.FindChangedSubtrees(oldRoots, newRoots)
	refs := make([]propagation.ChangeRef, 0, len(subtrees))
	for _, change := range subtrees {
		subject := change.New
		if subject == nil {
			subject = change.Old
		}
		refs = append(refs, propagation.ChangeRef{
			ID:   subject.Identity(),
			Kind: subject.Node.Kind,
		})
	}

	analysis := tracker.AnalyzePropagation(refs)
	return PropagationSummary{
		AffectedCount: analysis.AffectedCount,
		MaxDepth:      analysis.MaxDepth,
		Level:         analysis.Level,
		Cascading:     analysis.Cascading,
		Score:         tracker.CalculateScore(analysis),
	}
}

// resolveParser picks a parser by language tag, falling back to the
// path extension.
func (d *Differ) resolveParser(pair FilePair) (ast.Parser, error) {
	if pair.Language != "" {
		if parser, ok := d.registry.GetByLanguage(pair.Language); ok {
			return parser, nil
		}
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, pair.Language)
	}
	ext := filepath.Ext(pair.Path)
	if parser, ok := d.registry.GetByExtension(ext); ok {
		return parser, nil
	}
	return nil, fmt.Errorf("%w: no parser for %q", ast.ErrUnsupportedLanguage, pair.Path)
}

// parseToTree parses one version and builds its hash forest. Empty
// content yields an empty forest (new or deleted file).
func (d *Differ) parseToTree(ctx context.Context, parser ast.Parser, content []byte, path string) ([]*hashtree.HashNode, error) {
	if len(content) == 0 {
		return nil, nil
	}

	var parsed *ast.ParseResult
	if d.cache != nil {
		key := cache.Key(content)
		if cached, ok := d.cache.Get(key); ok {
			parsed = cached
		} else {
			result, err := parser.Parse(ctx, content, path)
			if err != nil {
				return nil, err
			}
			d.cache.Put(key, result)
			parsed = result
		}
	} else {
		result, err := parser.Parse(ctx, content, path)
		if err != nil {
			return nil, err
		}
		parsed = result
	}

	roots, _, err := hashtree.Build(parsed.Roots)
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// scoreComparison turns a partition into a FileResult: score every
// transition, apply the suppression threshold, and compute stats.
func (d *Differ) scoreComparison(pair FilePair, language string, comparison hashtree.Comparison) *FileResult {
	type scored struct {
		change     Change
		suppressed bool
	}

	all := make([]scored, 0,
		len(comparison.Added)+len(comparison.Removed)+len(comparison.Modified))

	appendChange := func(oldNode, newNode *hashtree.HashNode, op hashtree.ChangeKind) {
		e := d.calculator.Compute(oldNode, newNode, op)
		subject := newNode
		if subject == nil {
			subject = oldNode
		}
		all = append(all, scored{
			change: Change{
				ID:          subject.Identity(),
				Operation:   op,
				Kind:        subject.Node.Kind,
				Exported:    subject.Node.Exported,
				Path:        pair.Path + ":" + subject.Node.QualifiedName(),
				Range:       subject.Node.Range,
				Entropy:     e,
				Description: describe(op, subject.Node),
			},
			suppressed: e.Raw < d.threshold,
		})
	}

	for _, node := range comparison.Added {
		appendChange(nil, node, hashtree.ChangeAdded)
	}
	for _, node := range comparison.Removed {
		appendChange(node, nil, hashtree.ChangeRemoved)
	}
	for _, pairNodes := range comparison.Modified {
		appendChange(pairNodes.Old, pairNodes.New, hashtree.ChangeModified)
	}

	stats := FileStats{Unchanged: len(comparison.Unchanged)}
	raws := make([]float64, 0, len(all))
	changes := make([]Change, 0, len(all))

	for _, s := range all {
		switch s.change.Operation {
		case hashtree.ChangeAdded:
			stats.Added++
		case hashtree.ChangeRemoved:
			stats.Removed++
		case hashtree.ChangeModified:
			stats.Modified++
		}
		raws = append(raws, s.change.Entropy.Raw)
		if s.suppressed {
			stats.Suppressed++
			continue
		}
		changes = append(changes, s.change)
	}

	if len(raws) > 0 {
		sum := 0.0
		for _, r := range raws {
			sum += r
		}
		stats.MeanEntropy = sum / float64(len(raws))
	}
	stats.TotalEntropy = d.calculator.Aggregate(raws)
	stats.Level = d.calculator.Classify(stats.TotalEntropy)

	sortChanges(changes)

	return &FileResult{
		Path:       pair.Path,
		Language:   language,
		Changes:    changes,
		Stats:      stats,
		scoredRaws: raws,
	}
}

// sortChanges orders changes deterministically by (ID, operation).
func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].ID != changes[j].ID {
			return changes[i].ID < changes[j].ID
		}
		return changes[i].Operation < changes[j].Operation
	})
}

// describe renders human-readable summary text for one transition.
func describe(op hashtree.ChangeKind, node *ast.SemanticNode) string {
	return fmt.Sprintf("%s %s %s", op, node.Kind, node.QualifiedName())
}
