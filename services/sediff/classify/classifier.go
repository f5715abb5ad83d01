// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/AleutianAI/sediff/services/sediff/entropy"
)

// Sentinel errors for classifier configuration.
var (
	// ErrInvalidRule is returned when a custom rule is malformed.
	ErrInvalidRule = errors.New("classify: invalid rule")

	// ErrDuplicateTag is returned when a custom rule reuses an
	// existing tag.
	ErrDuplicateTag = errors.New("classify: duplicate rule tag")
)

// DefaultReviewThreshold is the risk score at which review becomes
// mandatory regardless of entropy level.
const DefaultReviewThreshold = 0.7

// mandatoryReviewCriticalCount is the critical-change count that
// triggers the mandatory-review recommendation.
const mandatoryReviewCriticalCount = 3

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithReviewThreshold overrides the review threshold. Values outside
// (0,1] are ignored.
func WithReviewThreshold(threshold float64) ClassifierOption {
	return func(c *Classifier) {
		if threshold > 0 && threshold <= 1 {
			c.reviewThreshold = threshold
		}
	}
}

// Classifier turns (change, entropy) pairs into risk assessments.
//
// Description:
//
//	The rule table starts with the immutable built-ins; custom rules
//	append via RegisterRule and can never remove or reorder the
//	built-ins. All matching rules contribute their weight
//	multiplicatively to the risk score.
//
// Thread Safety:
//
//	Classification is safe for concurrent use. RegisterRule takes a
//	write lock and may run concurrently with classification.
type Classifier struct {
	mu              sync.RWMutex
	rules           []Rule
	builtinCount    int
	reviewThreshold float64
}

// NewClassifier creates a classifier with the built-in rule table.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		rules:           builtinRules(),
		reviewThreshold: DefaultReviewThreshold,
	}
	c.builtinCount = len(c.rules)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterRule appends a custom rule to the table.
//
// # Inputs
//
//   - rule: Must have a non-empty tag not already in the table, a
//     positive weight, and a non-nil predicate.
//
// # Outputs
//
//   - error: ErrInvalidRule or ErrDuplicateTag; nil on success.
func (c *Classifier) RegisterRule(rule Rule) error {
	if rule.Tag == "" {
		return fmt.Errorf("%w: empty tag", ErrInvalidRule)
	}
	if rule.Weight <= 0 {
		return fmt.Errorf("%w: weight must be positive, got %v", ErrInvalidRule, rule.Weight)
	}
	if rule.Predicate == nil {
		return fmt.Errorf("%w: nil predicate", ErrInvalidRule)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.rules {
		if existing.Tag == rule.Tag {
			return fmt.Errorf("%w: %s", ErrDuplicateTag, rule.Tag)
		}
	}
	c.rules = append(c.rules, rule)
	return nil
}

// RuleCount returns the number of rules in the table, built-ins
// included.
func (c *Classifier) RuleCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rules)
}

// Classify assesses one change against the rule table.
//
// # Description
//
// The risk score is the normalized entropy multiplied by every matched
// rule weight, clamped to [0,1]. Review is required when the score
// reaches the review threshold or the entropy level is high or
// critical.
func (c *Classifier) Classify(change Change, e entropy.NodeEntropy) Classification {
	c.mu.RLock()
	rules := c.rules
	threshold := c.reviewThreshold
	c.mu.RUnlock()

	tags := make([]string, 0)
	weight := 1.0
	for _, rule := range rules {
		if rule.Predicate(change, e) {
			tags = append(tags, rule.Tag)
			weight *= rule.Weight
		}
	}

	risk := e.Normalized * weight
	if risk > 1 {
		risk = 1
	}
	if risk < 0 {
		risk = 0
	}

	review := risk >= threshold || e.Level.AtLeast(entropy.LevelHigh)

	return Classification{
		Change:         change,
		Entropy:        e,
		RiskScore:      risk,
		Tags:           tags,
		ReviewRequired: review,
		Rationale:      rationale(change, e, tags, risk, review),
	}
}

// ClassifyBatch assesses a set of changes.
//
// Changes lacking a tracked entropy record are scored against a
// zero-valued minimal default instead of failing; output order matches
// the input.
func (c *Classifier) ClassifyBatch(changes []Change, entropies map[string]entropy.NodeEntropy) []Classification {
	out := make([]Classification, 0, len(changes))
	for _, change := range changes {
		e, ok := entropies[change.ID]
		if !ok {
			e = entropy.NodeEntropy{
				Identity:   change.ID,
				ChangeKind: change.Operation,
				Level:      entropy.LevelMinimal,
			}
		}
		out = append(out, c.Classify(change, e))
	}
	return out
}

// GenerateSummary aggregates a batch of classifications.
//
// Recommendations are deterministic strings triggered by fixed count
// thresholds, so identical batches always summarize identically.
func (c *Classifier) GenerateSummary(classifications []Classification) Summary {
	histogram := make(map[entropy.Level]int, 5)
	for _, level := range entropy.AllLevels() {
		histogram[level] = 0
	}

	tagCounts := make(map[string]int)
	reviewCount := 0
	riskSum := 0.0
	for _, cl := range classifications {
		histogram[cl.Entropy.Level]++
		if cl.ReviewRequired {
			reviewCount++
		}
		riskSum += cl.RiskScore
		for _, tag := range cl.Tags {
			tagCounts[tag]++
		}
	}

	meanRisk := 0.0
	if len(classifications) > 0 {
		meanRisk = riskSum / float64(len(classifications))
	}

	return Summary{
		TotalChanges:    len(classifications),
		ReviewRequired:  reviewCount,
		LevelHistogram:  histogram,
		TopTags:         topTags(tagCounts, 5),
		MeanRiskScore:   meanRisk,
		Recommendations: recommendations(histogram, reviewCount, len(classifications)),
	}
}

// topTags ranks tag frequencies descending by count, tag name breaking
// ties.
func topTags(counts map[string]int, limit int) []TagFrequency {
	out := make([]TagFrequency, 0, len(counts))
	for tag, count := range counts {
		out = append(out, TagFrequency{Tag: tag, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// recommendations emits guidance strings for fixed count thresholds.
func recommendations(histogram map[entropy.Level]int, reviewCount, total int) []string {
	recs := make([]string, 0)

	if histogram[entropy.LevelCritical] >= mandatoryReviewCriticalCount {
		recs = append(recs, fmt.Sprintf(
			"Mandatory review: %d critical-entropy changes detected; do not merge without a second reviewer.",
			histogram[entropy.LevelCritical]))
	}
	if histogram[entropy.LevelHigh]+histogram[entropy.LevelCritical] > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d high-risk changes warrant focused review before merge.",
			histogram[entropy.LevelHigh]+histogram[entropy.LevelCritical]))
	}
	if total > 0 && reviewCount*2 > total {
		recs = append(recs, "Over half the change set is flagged for review; consider splitting this change into smaller units.")
	}
	return recs
}

// rationale renders explanatory text for one classification.
func rationale(change Change, e entropy.NodeEntropy, tags []string, risk float64, review bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s scored %.2f entropy (%s)", change.Operation, change.ID, e.Raw, e.Level)
	if len(tags) > 0 {
		fmt.Fprintf(&b, "; matched rules: %s", strings.Join(tags, ", "))
	}
	fmt.Fprintf(&b, "; risk %.2f", risk)
	if review {
		b.WriteString("; review required")
	}
	return b.String()
}
