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
	"github.com/AleutianAI/sediff/services/sediff/ast"
	"github.com/AleutianAI/sediff/services/sediff/entropy"
	"github.com/AleutianAI/sediff/services/sediff/hashtree"
)

// Built-in rule tags.
const (
	TagContractChange   = "contract-change"
	TagPublicSurface    = "public-surface"
	TagRemoval          = "removal"
	TagLargeAddition    = "large-addition"
	TagStructuralChange = "structural-change"
)

// largeAdditionBar is the normalized-entropy bar above which an
// addition counts as large.
const largeAdditionBar = 0.3

// builtinRules returns the immutable built-in rule table.
//
// Evaluated in order; order only affects tag listing, never the score,
// since weights compose multiplicatively.
func builtinRules() []Rule {
	return []Rule{
		{
			Tag:    TagContractChange,
			Weight: 1.5,
			Predicate: func(change Change, e entropy.NodeEntropy) bool {
				return change.Kind == ast.KindInterface || change.Kind == ast.KindType
			},
		},
		{
			Tag:    TagPublicSurface,
			Weight: 1.4,
			Predicate: func(change Change, e entropy.NodeEntropy) bool {
				return change.Exported
			},
		},
		{
			Tag:    TagRemoval,
			Weight: 1.3,
			Predicate: func(change Change, e entropy.NodeEntropy) bool {
				return change.Operation == hashtree.ChangeRemoved
			},
		},
		{
			Tag:    TagLargeAddition,
			Weight: 1.2,
			Predicate: func(change Change, e entropy.NodeEntropy) bool {
				return change.Operation == hashtree.ChangeAdded &&
					e.Normalized > largeAdditionBar
			},
		},
		{
			Tag:    TagStructuralChange,
			Weight: 1.2,
			Predicate: func(change Change, e entropy.NodeEntropy) bool {
				return change.Operation == hashtree.ChangeModified &&
					e.Components.Structural > e.Components.Semantic
			},
		},
	}
}
