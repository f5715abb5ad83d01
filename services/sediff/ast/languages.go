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
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// NewGoParser creates a semantic parser for Go source files.
func NewGoParser(opts ...TreeSitterOption) *TreeSitterParser {
	return NewTreeSitterParser(golang.GetLanguage(), GoLanguageConfig(), []string{".go"}, opts...)
}

// NewJavaScriptParser creates a semantic parser for JavaScript source files.
func NewJavaScriptParser(opts ...TreeSitterOption) *TreeSitterParser {
	return NewTreeSitterParser(javascript.GetLanguage(), JavaScriptLanguageConfig(),
		[]string{".js", ".jsx", ".mjs", ".cjs"}, opts...)
}

// NewPythonParser creates a semantic parser for Python source files.
func NewPythonParser(opts ...TreeSitterOption) *TreeSitterParser {
	return NewTreeSitterParser(python.GetLanguage(), PythonLanguageConfig(),
		[]string{".py", ".pyi"}, opts...)
}
