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

import (
	"context"
	"sync"
)

// Parser defines the contract for language-specific semantic parsing.
//
// Description:
//
//	Parser implementations convert raw source text into a forest of
//	SemanticNodes. Each implementation handles one language but produces
//	output in the common ParseResult format defined in types.go.
//
//	The Parser interface is designed to be:
//	- Context-aware: supports cancellation and timeouts via context.Context
//	- Language-agnostic: common output format regardless of source language
//	- All-or-nothing on timeout: a parse that exceeds its budget surfaces
//	  a typed failure, never a partial forest
//
// Thread Safety:
//
//	Implementations must be safe for concurrent use. The pipeline still
//	holds one parser instance per worker as a pooling decision, not a
//	correctness requirement.
type Parser interface {
	// Parse converts source text into a semantic forest.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout. A deadline that fires
	//     mid-parse yields an error wrapping ErrTimeout.
	//   - content: Raw source bytes. Must be valid UTF-8.
	//   - filePath: Path to the file (relative to the analysis root), used
	//     for node identity and error reporting.
	//
	// Returns:
	//   - *ParseResult: The semantic forest and parse metadata. Never nil
	//     on success. Syntax errors in tolerable positions are reported in
	//     ParseResult.Errors alongside the partial forest.
	//   - error: Non-nil only for complete failures (invalid UTF-8,
	//     oversized input, timeout, cancellation).
	Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error)

	// Language returns the canonical lowercase language name
	// ("go", "javascript", "python").
	Language() string

	// Extensions returns the file extensions this parser handles,
	// including the leading dot, lowercase.
	Extensions() []string
}

// ParseResult contains the output of parsing a single source file.
type ParseResult struct {
	// FilePath is the path to the parsed file, relative to the analysis root.
	FilePath string `json:"file_path"`

	// Language is the language of the file.
	Language string `json:"language"`

	// Roots are the top-level semantic nodes in source order.
	Roots []*SemanticNode `json:"roots"`

	// NodeCount is the total number of semantic nodes in the forest.
	NodeCount int `json:"node_count"`

	// Hash is the SHA256 hex digest of the file content at parse time.
	// Used as the cache key for parse-result reuse.
	Hash string `json:"hash"`

	// ParsedAtMilli is the Unix timestamp in milliseconds when parsing
	// completed.
	ParsedAtMilli int64 `json:"parsed_at_milli"`

	// ParseDurationMs is how long parsing took in milliseconds.
	ParseDurationMs int64 `json:"parse_duration_ms"`

	// Errors contains non-fatal parse diagnostics. The forest may still
	// hold partial results despite entries here.
	Errors []string `json:"errors,omitempty"`
}

// HasErrors returns true if the parse produced any diagnostics.
func (r *ParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Validate checks every root in the forest.
//
// Returns nil if all roots satisfy SemanticNode.Validate, or the first
// violation found.
func (r *ParseResult) Validate() error {
	for _, root := range r.Roots {
		if err := root.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ParserRegistry manages parser instances by language and file extension.
//
// Description:
//
//	ParserRegistry provides a central lookup mechanism for finding the
//	appropriate parser for a given file or language. It supports
//	registration of multiple parsers and lookup by language name or file
//	extension.
//
// Thread Safety:
//
//	ParserRegistry is fully thread-safe. Registration uses write locks,
//	lookups use read locks.
type ParserRegistry struct {
	mu sync.RWMutex

	// byLanguage maps language names to parser instances.
	byLanguage map[string]Parser

	// byExtension maps file extensions to parser instances.
	byExtension map[string]Parser
}

// NewParserRegistry creates a new empty ParserRegistry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		byLanguage:  make(map[string]Parser),
		byExtension: make(map[string]Parser),
	}
}

// Register adds a parser to the registry.
//
// The parser is registered under its Language() name and all its
// Extensions(). Existing registrations for the same keys are overwritten.
func (r *ParserRegistry) Register(parser Parser) {
	if parser == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[parser.Language()] = parser

	for _, ext := range parser.Extensions() {
		r.byExtension[ext] = parser
	}
}

// GetByLanguage returns the parser for the given language name.
//
// Returns the parser and true, or nil and false when no parser is
// registered for the language.
func (r *ParserRegistry) GetByLanguage(language string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, ok := r.byLanguage[language]
	return parser, ok
}

// GetByExtension returns the parser for the given file extension
// (including the dot, e.g. ".go").
func (r *ParserRegistry) GetByExtension(ext string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, ok := r.byExtension[ext]
	return parser, ok
}

// Languages returns all registered language names.
func (r *ParserRegistry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	languages := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		languages = append(languages, lang)
	}
	return languages
}

// DefaultRegistry returns a registry with all built-in parsers
// registered (Go, JavaScript, Python).
func DefaultRegistry(opts ...TreeSitterOption) *ParserRegistry {
	registry := NewParserRegistry()
	registry.Register(NewGoParser(opts...))
	registry.Register(NewJavaScriptParser(opts...))
	registry.Register(NewPythonParser(opts...))
	return registry
}
