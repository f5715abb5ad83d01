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
	"errors"
	"fmt"
)

// Sentinel errors for common parse failure conditions.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages.
var (
	// ErrUnsupportedLanguage indicates that no parser is available for the
	// requested language or file extension.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrParseFailed indicates that parsing failed completely and no
	// useful result could be produced.
	ErrParseFailed = errors.New("parse failed")

	// ErrInvalidContent indicates that the provided content is invalid
	// and cannot be processed (nil slice, non-UTF-8, binary data).
	ErrInvalidContent = errors.New("invalid content")

	// ErrFileTooLarge is returned when input content exceeds the maximum
	// file size.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")

	// ErrTimeout indicates that parsing exceeded the configured budget.
	// A timed-out parse surfaces this typed failure, never a partial tree.
	ErrTimeout = errors.New("parse timeout")
)

// ParseError provides detailed information about a parse failure.
//
// ParseError wraps an underlying error with context about where the
// failure occurred. It implements the error interface and can be
// unwrapped to access the underlying cause.
//
// Example:
//
//	result, err := parser.Parse(ctx, content, "main.go")
//	if err != nil {
//	    var parseErr *ParseError
//	    if errors.As(err, &parseErr) {
//	        fmt.Printf("error in %s (%s): %s\n",
//	            parseErr.FilePath, parseErr.Language, parseErr.Message)
//	    }
//	}
type ParseError struct {
	// FilePath is the path to the file where the error occurred.
	FilePath string

	// Language is the language of the failed parse, when known.
	Language string

	// Message describes the error in human-readable form.
	Message string

	// Cause is the underlying error that triggered this parse error.
	// May be nil if this is a primary error.
	Cause error
}

// Error returns a formatted error message including file context.
func (e *ParseError) Error() string {
	if e.Language != "" {
		return fmt.Sprintf("%s (%s): %s", e.FilePath, e.Language, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause error.
//
// This enables use with errors.Is() and errors.As() to check
// or extract the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a ParseError wrapping an underlying cause.
func NewParseError(filePath, language, message string, cause error) *ParseError {
	return &ParseError{
		FilePath: filePath,
		Language: language,
		Message:  message,
		Cause:    cause,
	}
}

// IsParseError checks if an error is or wraps a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// IsTimeout checks if an error indicates the parse budget was exceeded.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
