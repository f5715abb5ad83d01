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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// File size constants for input validation.
const (
	// DefaultMaxFileSize is the maximum file size the parser will accept (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the threshold at which a warning is logged (1MB).
	WarnFileSize = 1 * 1024 * 1024

	// DefaultParseTimeout bounds a single parse call when the caller's
	// context carries no deadline of its own.
	DefaultParseTimeout = 10 * time.Second
)

// TreeSitterOption configures a TreeSitterParser instance.
type TreeSitterOption func(*TreeSitterParser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Must be positive.
func WithMaxFileSize(bytes int64) TreeSitterOption {
	return func(p *TreeSitterParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithParseTimeout sets the default budget for a single parse call.
//
// The budget only applies when the caller's context has no deadline.
func WithParseTimeout(d time.Duration) TreeSitterOption {
	return func(p *TreeSitterParser) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// TreeSitterParser implements the Parser interface on top of a
// tree-sitter grammar and an injected LanguageConfig.
//
// Description:
//
//	One TreeSitterParser handles one language. The LanguageConfig decides
//	which syntax nodes become SemanticNodes; the parser itself only walks
//	the concrete syntax tree and assembles the semantic forest. Every
//	Parse call creates its own tree-sitter parser instance internally, so
//	a TreeSitterParser is safe for concurrent use.
type TreeSitterParser struct {
	language    *sitter.Language
	config      *LanguageConfig
	extensions  []string
	maxFileSize int64
	timeout     time.Duration
}

// NewTreeSitterParser creates a parser for one language.
//
// # Inputs
//
//   - language: The tree-sitter grammar.
//   - config: Node-type classification table for the language.
//   - extensions: File extensions handled, including the leading dot.
//   - opts: Optional configuration (WithMaxFileSize, WithParseTimeout).
//
// # Outputs
//
//   - *TreeSitterParser: Configured parser instance, never nil.
func NewTreeSitterParser(language *sitter.Language, config *LanguageConfig, extensions []string, opts ...TreeSitterOption) *TreeSitterParser {
	p := &TreeSitterParser{
		language:    language,
		config:      config,
		extensions:  extensions,
		maxFileSize: DefaultMaxFileSize,
		timeout:     DefaultParseTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Language returns the canonical language name for this parser.
func (p *TreeSitterParser) Language() string {
	return p.config.Language
}

// Extensions returns the file extensions this parser handles.
func (p *TreeSitterParser) Extensions() []string {
	return p.extensions
}

// Parse converts source text into a semantic forest.
//
// # Description
//
// Parse runs tree-sitter over the content and walks the resulting
// concrete syntax tree, emitting a SemanticNode for every syntax node
// the LanguageConfig marks significant. Scope-defining nodes own their
// significant descendants as children; ignorable nodes (comments,
// string literals) are never descended into.
//
// A parse that exceeds its time budget fails with an error wrapping
// ErrTimeout and yields no partial forest. Syntax errors in tolerable
// positions are reported in ParseResult.Errors alongside the forest.
//
// # Inputs
//
//   - ctx: Context for cancellation. When it carries no deadline, the
//     parser's configured timeout is applied.
//   - content: Raw source bytes. Must be valid UTF-8.
//   - filePath: Path used for node identity and error reporting.
//
// # Outputs
//
//   - *ParseResult: Semantic forest and parse metadata.
//   - error: Non-nil for complete failures (ErrFileTooLarge,
//     ErrInvalidContent, ErrTimeout, context cancellation).
//
// Thread Safety: safe for concurrent use.
func (p *TreeSitterParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	ctx, span := startParseSpan(ctx, p.config.Language, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, p.config.Language, time.Since(start), 0, false)
		return nil, NewParseError(filePath, p.config.Language, "canceled before start", err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, p.config.Language, time.Since(start), 0, false)
		return nil, NewParseError(filePath, p.config.Language,
			fmt.Sprintf("size %d exceeds limit %d", len(content), p.maxFileSize), ErrFileTooLarge)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(ctx, p.config.Language, time.Since(start), 0, false)
		return nil, NewParseError(filePath, p.config.Language, "content is not valid UTF-8", ErrInvalidContent)
	}

	// Apply the parser's own budget only when the caller set none.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	hash := HashContent(content)

	// New tree-sitter parser per call for thread safety.
	parser := sitter.NewParser()
	parser.SetLanguage(p.language)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, p.config.Language, time.Since(start), 0, false)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewParseError(filePath, p.config.Language, "budget exceeded", ErrTimeout)
		}
		return nil, NewParseError(filePath, p.config.Language, "tree-sitter parse failed", errors.Join(ErrParseFailed, err))
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, p.config.Language, time.Since(start), 0, false)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewParseError(filePath, p.config.Language, "budget exceeded", ErrTimeout)
		}
		return nil, NewParseError(filePath, p.config.Language, "canceled after tree-sitter", err)
	}

	result := &ParseResult{
		FilePath:      filePath,
		Language:      p.config.Language,
		Hash:          hash,
		Roots:         make([]*SemanticNode, 0),
		Errors:        make([]string, 0),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	rootNode := tree.RootNode()
	if rootNode == nil {
		result.Errors = append(result.Errors, "tree-sitter returned nil root node")
		result.ParseDurationMs = time.Since(start).Milliseconds()
		return result, nil
	}

	if rootNode.HasError() {
		result.Errors = append(result.Errors, "source contains syntax errors")
	}

	walker := &semanticWalker{
		config:   p.config,
		content:  content,
		filePath: filePath,
	}
	result.Roots = walker.collect(rootNode, nil, KindOther, 0)
	result.NodeCount = ForestCount(result.Roots)
	result.ParseDurationMs = time.Since(start).Milliseconds()

	if err := result.Validate(); err != nil {
		recordParseMetrics(ctx, p.config.Language, time.Since(start), 0, false)
		return nil, NewParseError(filePath, p.config.Language, "result validation failed", err)
	}

	setParseSpanResult(span, result.NodeCount, len(result.Errors))
	recordParseMetrics(ctx, p.config.Language, time.Since(start), result.NodeCount, true)

	return result, nil
}

// semanticWalker assembles SemanticNodes from a concrete syntax tree.
type semanticWalker struct {
	config   *LanguageConfig
	content  []byte
	filePath string
}

// collect returns the significant nodes found at or below n, in source
// order. Significant scope nodes own their significant descendants.
func (w *semanticWalker) collect(n *sitter.Node, qualifier []string, parentKind NodeKind, depth int) []*SemanticNode {
	if n == nil || depth > MaxNodeDepth || w.config.IsIgnorable(n.Type()) {
		return nil
	}

	kind, significant := w.config.KindOf(n.Type())
	if !significant {
		// Transparent wrapper: descend looking for significant children.
		nodes := make([]*SemanticNode, 0)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			nodes = append(nodes, w.collect(n.NamedChild(i), qualifier, parentKind, depth+1)...)
		}
		return nodes
	}

	kind = w.refine(n, kind)

	// A function declared directly inside a class scope is a method.
	if kind == KindFunction && (parentKind == KindClass || parentKind == KindInterface) {
		kind = KindMethod
	}

	name := w.nameOf(n)
	if name == "" {
		name = n.Type()
	}

	// A method's receiver type joins its qualifier so same-named methods
	// on different types keep distinct identities.
	ownQualifier := qualifier
	if recv := w.receiverTypeOf(n); recv != "" {
		ownQualifier = append(append([]string{}, qualifier...), recv)
	}

	node := &SemanticNode{
		Name:        name,
		Kind:        kind,
		Qualifier:   strings.Join(ownQualifier, "."),
		FilePath:    w.filePath,
		Language:    w.config.Language,
		Range:       rangeOf(n),
		ContentHash: HashContent(w.content[n.StartByte():n.EndByte()]),
		Exported:    w.exported(name),
	}

	if w.config.IsScope(n.Type()) {
		childQualifier := append(append([]string{}, ownQualifier...), name)
		children := make([]*SemanticNode, 0)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			children = append(children, w.collect(n.NamedChild(i), childQualifier, kind, depth+1)...)
		}
		if len(children) > 0 {
			node.Children = children
		}
	}

	// Export statements adopt their declaration's visibility.
	if kind == KindExport {
		node.Exported = true
		for _, child := range node.Children {
			child.Exported = true
		}
	}

	return []*SemanticNode{node}
}

// refine narrows a significant node's kind using the configured
// child-type refinements (e.g. Go type_spec -> interface vs struct).
func (w *semanticWalker) refine(n *sitter.Node, kind NodeKind) NodeKind {
	if len(w.config.Refinements) == 0 {
		return kind
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if refined, ok := w.config.Refinements[n.NamedChild(i).Type()]; ok {
			return refined
		}
	}
	return kind
}

// nameOf extracts the identifier of a significant syntax node.
func (w *semanticWalker) nameOf(n *sitter.Node) string {
	fields := w.config.NameFields
	if len(fields) == 0 {
		fields = []string{"name"}
	}
	for _, field := range fields {
		if c := n.ChildByFieldName(field); c != nil {
			return w.text(c)
		}
	}

	switch n.Type() {
	case "package_clause":
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); c.Type() == "package_identifier" {
				return w.text(c)
			}
		}
	case "import_spec":
		if c := n.ChildByFieldName("path"); c != nil {
			return stripQuotes(w.text(c))
		}
	case "import_statement", "import_from_statement":
		if c := n.ChildByFieldName("source"); c != nil {
			return stripQuotes(w.text(c))
		}
		if n.NamedChildCount() > 0 {
			return stripQuotes(w.text(n.NamedChild(0)))
		}
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "variable_declarator" {
				if nameNode := c.ChildByFieldName("name"); nameNode != nil {
					return w.text(nameNode)
				}
			}
		}
	case "export_statement":
		if c := n.ChildByFieldName("declaration"); c != nil {
			if name := w.nameOf(c); name != "" && name != c.Type() {
				return name
			}
		}
	}

	// Generic fallback: first identifier-like named child.
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "identifier", "type_identifier", "field_identifier", "property_identifier", "dotted_name":
			return w.text(c)
		}
	}

	return ""
}

// receiverTypeOf extracts the receiver type name of a method
// declaration, with pointer and type-parameter decoration stripped.
// Returns "" for nodes that carry no receiver field.
func (w *semanticWalker) receiverTypeOf(n *sitter.Node) string {
	receiver := n.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}

	// Go: receiver is a parameter_list holding one parameter_declaration
	// whose type field names the receiver type.
	typeNode := receiver
	if receiver.NamedChildCount() > 0 {
		decl := receiver.NamedChild(0)
		if t := decl.ChildByFieldName("type"); t != nil {
			typeNode = t
		} else {
			typeNode = decl
		}
	}
	for typeNode.Type() == "pointer_type" && typeNode.NamedChildCount() > 0 {
		typeNode = typeNode.NamedChild(0)
	}

	name := strings.TrimPrefix(w.text(typeNode), "*")
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// exported decides public visibility for a name in this language.
func (w *semanticWalker) exported(name string) bool {
	switch w.config.Language {
	case "go":
		r, _ := utf8.DecodeRuneInString(name)
		return unicode.IsUpper(r)
	case "python":
		return !strings.HasPrefix(name, "_")
	default:
		// JavaScript visibility is carried by export statements and
		// applied by the walker after children are collected.
		return false
	}
}

func (w *semanticWalker) text(n *sitter.Node) string {
	return string(w.content[n.StartByte():n.EndByte()])
}

func rangeOf(n *sitter.Node) Range {
	return Range{
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		StartCol:  int(n.StartPoint().Column),
		EndCol:    int(n.EndPoint().Column),
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
	}
}

func stripQuotes(s string) string {
	return strings.Trim(s, "\"'`")
}
