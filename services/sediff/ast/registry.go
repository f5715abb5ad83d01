// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

// LanguageConfig classifies the tree-sitter node types of one language.
//
// # Description
//
// The config drives the generic tree walker: it decides which syntax
// nodes become SemanticNodes, which define a nested scope, and which are
// skipped entirely (comments, string literals, punctuation).
//
// LanguageConfig is plain injected configuration. There is deliberately
// no package-level default registry: callers construct the configs they
// need and pass them to parsers, which keeps tests free to substitute
// alternate tables.
type LanguageConfig struct {
	// Language is the canonical lowercase language name ("go", "python").
	Language string

	// Significant maps tree-sitter node type strings to the semantic
	// kind they produce. A syntax node whose type is absent from this
	// map does not become a SemanticNode (though the walker still
	// descends into it looking for significant descendants).
	Significant map[string]NodeKind

	// Refinements narrows the kind of a significant node based on the
	// type of one of its named children. Example for Go: a "type_spec"
	// maps to KindType, refined to KindInterface when it holds
	// an "interface_type" child and KindClass for a "struct_type".
	Refinements map[string]NodeKind

	// ScopeDefining marks node types whose SemanticNodes own their
	// significant descendants as children (and extend the qualifier
	// path). Non-scope significant nodes are leaves.
	ScopeDefining map[string]bool

	// Ignorable marks node types the walker must never descend into.
	// Typically comments and string literals.
	Ignorable map[string]bool

	// NameFields lists the tree-sitter field names probed, in order,
	// to find a significant node's identifier. Defaults to {"name"}
	// when empty.
	NameFields []string
}

// KindOf returns the semantic kind for a syntax node type and whether
// the type is significant.
func (c *LanguageConfig) KindOf(nodeType string) (NodeKind, bool) {
	kind, ok := c.Significant[nodeType]
	return kind, ok
}

// IsScope reports whether the node type defines a nested scope.
func (c *LanguageConfig) IsScope(nodeType string) bool {
	return c.ScopeDefining[nodeType]
}

// IsIgnorable reports whether the walker should skip the node type
// entirely.
func (c *LanguageConfig) IsIgnorable(nodeType string) bool {
	return c.Ignorable[nodeType]
}

// GoLanguageConfig returns the node-type table for Go.
func GoLanguageConfig() *LanguageConfig {
	return &LanguageConfig{
		Language: "go",
		Significant: map[string]NodeKind{
			"package_clause":       KindModule,
			"function_declaration": KindFunction,
			"method_declaration":   KindMethod,
			"type_spec":            KindType,
			"var_spec":             KindVariable,
			"const_spec":           KindConstant,
			"import_spec":          KindImport,
		},
		Refinements: map[string]NodeKind{
			"interface_type": KindInterface,
			"struct_type":    KindClass,
		},
		ScopeDefining: map[string]bool{
			"function_declaration": true,
			"method_declaration":   true,
			"type_spec":            true,
		},
		Ignorable: map[string]bool{
			"comment":                    true,
			"interpreted_string_literal": true,
			"raw_string_literal":         true,
		},
	}
}

// JavaScriptLanguageConfig returns the node-type table for JavaScript.
func JavaScriptLanguageConfig() *LanguageConfig {
	return &LanguageConfig{
		Language: "javascript",
		Significant: map[string]NodeKind{
			"function_declaration":           KindFunction,
			"generator_function_declaration": KindFunction,
			"method_definition":              KindMethod,
			"class_declaration":              KindClass,
			"lexical_declaration":            KindVariable,
			"variable_declaration":           KindVariable,
			"import_statement":               KindImport,
			"export_statement":               KindExport,
		},
		ScopeDefining: map[string]bool{
			"function_declaration":           true,
			"generator_function_declaration": true,
			"method_definition":              true,
			"class_declaration":              true,
			"export_statement":               true,
		},
		Ignorable: map[string]bool{
			"comment":         true,
			"string":          true,
			"template_string": true,
		},
	}
}

// PythonLanguageConfig returns the node-type table for Python.
func PythonLanguageConfig() *LanguageConfig {
	return &LanguageConfig{
		Language: "python",
		Significant: map[string]NodeKind{
			"function_definition":   KindFunction,
			"class_definition":      KindClass,
			"import_statement":      KindImport,
			"import_from_statement": KindImport,
		},
		ScopeDefining: map[string]bool{
			"function_definition": true,
			"class_definition":    true,
		},
		Ignorable: map[string]bool{
			"comment": true,
			"string":  true,
		},
	}
}
