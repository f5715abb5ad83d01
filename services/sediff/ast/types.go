// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast provides the semantic node model and language-agnostic parser
// adapters for the semantic entropy differ.
//
// A SemanticNode represents one meaningful source construct (function, class,
// interface, ...). Parser implementations built on tree-sitter convert raw
// source text into a forest of SemanticNodes; everything downstream (hash
// trees, entropy, classification) operates on this model and never touches
// tree-sitter directly.
//
// Design principles:
//   - Language-agnostic: one node model for every supported language
//   - Immutable after creation: a forest is built once per analyzed version
//     and discarded after a single diff pass
//   - Identity by content, not position: nodes are keyed by the composite
//     kind + qualifier + name so unrelated line shifts never register as
//     changes
package ast

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// NodeKind classifies a semantic node.
//
// Each kind maps to a common programming construct that exists across
// multiple languages. Language-specific constructs are mapped to the
// closest general kind (e.g. a Go struct maps to KindClass).
type NodeKind int

const (
	// KindOther is the fallback for constructs that are semantically
	// significant but fit no specific kind.
	KindOther NodeKind = iota

	// KindModule represents a package or module declaration.
	KindModule

	// KindFunction represents a standalone function declaration.
	KindFunction

	// KindMethod represents a function attached to a type or class.
	KindMethod

	// KindClass represents a composite data type.
	// Examples: Go struct, Python class, JavaScript class.
	KindClass

	// KindInterface represents an interface or protocol definition.
	KindInterface

	// KindType represents a type alias or definition.
	KindType

	// KindVariable represents a variable declaration.
	KindVariable

	// KindConstant represents a constant declaration.
	KindConstant

	// KindImport represents an import statement.
	KindImport

	// KindExport represents an explicit export statement
	// (JavaScript/TypeScript export declarations).
	KindExport
)

// nodeKindNames maps NodeKind values to their string representations.
var nodeKindNames = map[NodeKind]string{
	KindOther:     "other",
	KindModule:    "module",
	KindFunction:  "function",
	KindMethod:    "method",
	KindClass:     "class",
	KindInterface: "interface",
	KindType:      "type",
	KindVariable:  "variable",
	KindConstant:  "constant",
	KindImport:    "import",
	KindExport:    "export",
}

// String returns the string representation of the NodeKind.
//
// Returns "other" for unrecognized values.
func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "other"
}

// MarshalJSON implements json.Marshaler for NodeKind.
//
// Serializes the kind as a JSON string (e.g. "function") rather than
// a number for readability and forward compatibility.
func (k NodeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler for NodeKind.
//
// Accepts both string values (e.g. "function") and numeric values
// for backward compatibility.
func (k *NodeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = ParseNodeKind(s)
		return nil
	}

	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("NodeKind must be string or int: %w", err)
	}
	*k = NodeKind(i)
	return nil
}

// ParseNodeKind converts a string to a NodeKind.
//
// Returns KindOther if the string is not recognized.
func ParseNodeKind(s string) NodeKind {
	for kind, name := range nodeKindNames {
		if name == s {
			return kind
		}
	}
	return KindOther
}

// Range represents a position range within a source file.
//
// Line numbers are 1-indexed (first line is 1).
// Column numbers are 0-indexed (first column is 0).
// Byte offsets are 0-indexed into the raw file content.
type Range struct {
	// StartLine is the 1-indexed line number where the node starts.
	StartLine int `json:"start_line"`

	// EndLine is the 1-indexed line number where the node ends.
	EndLine int `json:"end_line"`

	// StartCol is the 0-indexed column where the node starts on StartLine.
	StartCol int `json:"start_col"`

	// EndCol is the 0-indexed column where the node ends on EndLine.
	EndCol int `json:"end_col"`

	// StartByte is the byte offset where the node's source text begins.
	StartByte int `json:"start_byte"`

	// EndByte is the byte offset where the node's source text ends.
	EndByte int `json:"end_byte"`
}

// Contains reports whether r fully contains other.
//
// Containment is judged on byte offsets, which are authoritative;
// line/column fields are derived display data.
func (r Range) Contains(other Range) bool {
	return r.StartByte <= other.StartByte && other.EndByte <= r.EndByte
}

// String returns a human-readable representation of the range.
//
// Format: "startLine:startCol-endLine:endCol"
func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartCol, r.EndLine, r.EndCol)
}

// SemanticNode represents one meaningful source construct.
//
// # Description
//
// SemanticNodes form an acyclic ownership tree: each node owns its
// children, children never reference their parent. Identity is the
// composite of kind, qualifier path, and name so that a function keeps
// its identity when unrelated edits shift its line position.
//
// SemanticNodes are created once by a parser adapter and are immutable
// afterwards. A forest lives for exactly one diff pass.
type SemanticNode struct {
	// Name is the construct's identifier as it appears in source.
	// Import nodes use the import path as their name.
	Name string `json:"name"`

	// Kind classifies the construct.
	Kind NodeKind `json:"kind"`

	// Qualifier is the enclosing scope path, segments joined with ".".
	// Example: "Server.Start" for a closure inside method Start on Server.
	// Empty for top-level nodes.
	Qualifier string `json:"qualifier,omitempty"`

	// FilePath is the path of the containing file, relative to the
	// analysis root, using forward slashes.
	FilePath string `json:"file_path"`

	// Language is the source language of the containing file.
	Language string `json:"language"`

	// Range is the source extent of the node, including all children.
	Range Range `json:"range"`

	// ContentHash is the SHA256 hex digest of the node's raw source text.
	// Hashing is purely syntactic: a formatting-only edit changes the
	// hash even when its semantic significance is later judged negligible.
	ContentHash string `json:"content_hash"`

	// Exported indicates whether the construct is publicly visible.
	// Go: uppercase initial. Python: no leading underscore.
	// JavaScript: carried by an export statement.
	Exported bool `json:"exported"`

	// Children are the owned child nodes in source order.
	// May be nil for leaves.
	Children []*SemanticNode `json:"children,omitempty"`
}

// Identity returns the composite identity key for the node.
//
// Format: "kind:qualifier:name". Two nodes with equal identity in the
// old and new version of a file are treated as the same logical
// construct regardless of where they sit in the file.
func (n *SemanticNode) Identity() string {
	return n.Kind.String() + ":" + n.Qualifier + ":" + n.Name
}

// QualifiedName returns "qualifier.name", or just the name for
// top-level nodes.
func (n *SemanticNode) QualifiedName() string {
	if n.Qualifier == "" {
		return n.Name
	}
	return n.Qualifier + "." + n.Name
}

// HashContent returns the SHA256 hex digest of raw source bytes.
//
// Used by parser adapters to populate SemanticNode.ContentHash.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ValidationError represents a validation failure with field context.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MaxNodeDepth is the maximum nesting depth for node traversal.
// This prevents stack overflow from maliciously crafted input.
const MaxNodeDepth = 100

// Validate checks structural invariants of the node and its subtree.
//
// # Description
//
// Validates that:
//   - Name is non-empty
//   - FilePath contains no path traversal
//   - Range is well formed (EndByte >= StartByte, EndLine >= StartLine)
//   - Every child range is contained in the parent range
//   - Children appear in source order
//   - Nesting does not exceed MaxNodeDepth
//
// # Outputs
//
//   - error: nil if valid, or a ValidationError describing the first
//     violated invariant.
func (n *SemanticNode) Validate() error {
	return n.validate(0)
}

func (n *SemanticNode) validate(depth int) error {
	if depth > MaxNodeDepth {
		return ValidationError{Field: "Children", Message: fmt.Sprintf("nesting exceeds %d levels", MaxNodeDepth)}
	}

	if n.Name == "" {
		return ValidationError{Field: "Name", Message: "must not be empty"}
	}

	if strings.Contains(n.FilePath, "..") {
		return ValidationError{Field: "FilePath", Message: "must not contain path traversal (..)"}
	}

	if n.Range.EndByte < n.Range.StartByte {
		return ValidationError{Field: "Range", Message: "EndByte must be >= StartByte"}
	}

	if n.Range.EndLine < n.Range.StartLine {
		return ValidationError{Field: "Range", Message: "EndLine must be >= StartLine"}
	}

	prevStart := -1
	for i, child := range n.Children {
		if !n.Range.Contains(child.Range) {
			return ValidationError{
				Field:   fmt.Sprintf("Children[%d]", i),
				Message: fmt.Sprintf("range %s not contained in parent range %s", child.Range, n.Range),
			}
		}
		if child.Range.StartByte < prevStart {
			return ValidationError{
				Field:   fmt.Sprintf("Children[%d]", i),
				Message: "children must be in source order",
			}
		}
		prevStart = child.Range.StartByte

		if err := child.validate(depth + 1); err != nil {
			return err
		}
	}

	return nil
}

// Walk visits the node and every descendant in depth-first pre-order.
//
// Uses an explicit stack to avoid recursion limits. The visit function
// returns false to stop the walk early.
func (n *SemanticNode) Walk(visit func(node *SemanticNode, depth int) bool) {
	type entry struct {
		node  *SemanticNode
		depth int
	}

	stack := []entry{{node: n, depth: 0}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(e.node, e.depth) {
			return
		}

		// Push children in reverse so they pop in source order.
		for i := len(e.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, entry{node: e.node.Children[i], depth: e.depth + 1})
		}
	}
}

// Count returns the total number of nodes in the subtree rooted at n.
func (n *SemanticNode) Count() int {
	count := 0
	n.Walk(func(*SemanticNode, int) bool {
		count++
		return true
	})
	return count
}

// ForestCount returns the total number of nodes across a forest.
func ForestCount(roots []*SemanticNode) int {
	count := 0
	for _, root := range roots {
		count += root.Count()
	}
	return count
}
