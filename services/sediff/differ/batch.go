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
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/sediff/services/sediff/classify"
	"github.com/AleutianAI/sediff/services/sediff/entropy"
	"github.com/AleutianAI/sediff/services/sediff/hashtree"
)

// Diff compares a batch of file pairs on a worker pool.
//
// # Description
//
// Independent file comparisons share no mutable state and run
// concurrently, one job per worker at a time. A failure in one file is
// logged, recorded under Failures, and excluded from aggregates; the
// batch continues. Cancellation is cooperative: workers check the
// context between files and the batch returns ctx.Err() once drained.
// Output ordering is deterministic: files sort by path, changes by
// identity.
//
// # Inputs
//
//   - ctx: Context for cooperative cancellation.
//   - pairs: The file pairs to compare.
//
// # Outputs
//
//   - *Result: Per-file results, aggregate summary, classifier review,
//     and result metadata. Non-nil even when some files failed.
//   - error: Only for cancellation or when construction-level
//     invariants break; per-file failures never surface here.
func (d *Differ) Diff(ctx context.Context, pairs []FilePair) (*Result, error) {
	start := time.Now()

	type outcome struct {
		index   int
		result  *FileResult
		failure *FileFailure
	}

	jobs := make(chan int)
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < d.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				// Cooperative cancellation between per-file iterations.
				if ctx.Err() != nil {
					return
				}
				pair := pairs[index]
				result, err := d.DiffFile(ctx, pair)
				if err != nil {
					d.logger.Error("file comparison failed",
						"path", pair.Path, "error", err.Error())
					recordDiffMetrics(ctx, pair.Language, 0, 0, false)
					outcomes <- outcome{index: index, failure: &FileFailure{
						Path:  pair.Path,
						Error: err.Error(),
					}}
					continue
				}
				outcomes <- outcome{index: index, result: result}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range pairs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	files := make([]FileResult, 0, len(pairs))
	failures := make([]FileFailure, 0)
	for o := range outcomes {
		if o.failure != nil {
			failures = append(failures, *o.failure)
			continue
		}
		files = append(files, *o.result)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })

	result := &Result{
		Files:    files,
		Failures: failures,
		Summary:  d.summarize(files),
		Review:   d.review(files),
		Metadata: Metadata{
			ID:            uuid.NewString(),
			FormatVersion: FormatVersion,
			Algorithm:     AlgorithmID,
			GeneratedAt:   time.Now().UTC(),
			ComputeTimeMs: time.Since(start).Milliseconds(),
		},
	}

	d.logger.Info("diff complete",
		"files", len(files),
		"failures", len(failures),
		"changes", result.Summary.TotalChanges,
		"level", string(result.Summary.OverallLevel),
		"duration_ms", result.Metadata.ComputeTimeMs)
	return result, nil
}

// summarize folds per-file results into the batch summary.
func (d *Differ) summarize(files []FileResult) Summary {
	byOperation := map[hashtree.ChangeKind]int{
		hashtree.ChangeAdded:    0,
		hashtree.ChangeRemoved:  0,
		hashtree.ChangeModified: 0,
	}

	raws := make([]float64, 0)
	hotspots := make([]Change, 0)
	totalChanges := 0
	sum := 0.0

	for _, file := range files {
		byOperation[hashtree.ChangeAdded] += file.Stats.Added
		byOperation[hashtree.ChangeRemoved] += file.Stats.Removed
		byOperation[hashtree.ChangeModified] += file.Stats.Modified
		totalChanges += file.Stats.Added + file.Stats.Removed + file.Stats.Modified

		// Aggregate over every scored transition, suppressed ones
		// included; the change list alone undercounts.
		raws = append(raws, file.scoredRaws...)
		for _, r := range file.scoredRaws {
			sum += r
		}

		for _, change := range file.Changes {
			if change.Entropy.Level.AtLeast(entropy.LevelHigh) {
				hotspots = append(hotspots, change)
			}
		}
	}

	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Entropy.Raw != hotspots[j].Entropy.Raw {
			return hotspots[i].Entropy.Raw > hotspots[j].Entropy.Raw
		}
		return hotspots[i].ID < hotspots[j].ID
	})
	if len(hotspots) > entropy.DefaultHotspotLimit {
		hotspots = hotspots[:entropy.DefaultHotspotLimit]
	}

	average := 0.0
	if len(raws) > 0 {
		average = sum / float64(len(raws))
	}

	total := d.calculator.Aggregate(raws)
	return Summary{
		TotalFiles:     len(files),
		TotalChanges:   totalChanges,
		ByOperation:    byOperation,
		TotalEntropy:   total,
		AverageEntropy: average,
		OverallLevel:   d.calculator.Classify(total),
		Hotspots:       hotspots,
	}
}

// review runs the classifier over every reported change.
//
// Entropy records are looked up per file: node identities are only
// unique within one file, so a batch-wide map could cross-wire two
// files that declare the same construct.
func (d *Differ) review(files []FileResult) classify.Summary {
	classifications := make([]classify.Classification, 0)

	for _, file := range files {
		changes := make([]classify.Change, 0, len(file.Changes))
		entropies := make(map[string]entropy.NodeEntropy, len(file.Changes))
		for _, change := range file.Changes {
			changes = append(changes, classify.Change{
				ID:        change.ID,
				Operation: change.Operation,
				Kind:      change.Kind,
				Exported:  change.Exported,
				Path:      change.Path,
			})
			entropies[change.ID] = change.Entropy
		}
		classifications = append(classifications, d.classifier.ClassifyBatch(changes, entropies)...)
	}

	return d.classifier.GenerateSummary(classifications)
}
