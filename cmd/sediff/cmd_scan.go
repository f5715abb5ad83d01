// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sediff/services/sediff/ast"
	"github.com/AleutianAI/sediff/services/sediff/config"
	"github.com/AleutianAI/sediff/services/sediff/differ"
	"github.com/AleutianAI/sediff/services/sediff/vcs"
)

// runScan scores every supported changed file between two revisions.
func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)
	defer logger.Close()

	d, err := buildDiffer(cfg, logger)
	if err != nil {
		return err
	}

	provider, err := vcs.OpenWithDetection(scanRepo)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	changed, err := provider.ChangedPaths(ctx, scanFrom, scanTo)
	if err != nil {
		return err
	}

	registry := ast.DefaultRegistry()
	pairs := make([]differ.FilePair, 0, len(changed))
	for _, change := range changed {
		if _, ok := registry.GetByExtension(filepath.Ext(change.Path)); !ok {
			logger.Debug("skipping unsupported file", "path", change.Path)
			continue
		}

		pair := differ.FilePair{Path: change.Path}
		if change.Status != vcs.StatusAdded {
			oldPath := change.Path
			if change.OldPath != "" {
				oldPath = change.OldPath
			}
			content, err := provider.FileAtRevision(ctx, oldPath, scanFrom)
			if err != nil && !errors.Is(err, vcs.ErrFileNotFound) {
				return err
			}
			pair.OldContent = content
		}
		if change.Status != vcs.StatusDeleted {
			content, err := provider.FileAtRevision(ctx, change.Path, scanTo)
			if err != nil && !errors.Is(err, vcs.ErrFileNotFound) {
				return err
			}
			pair.NewContent = content
		}
		pairs = append(pairs, pair)
	}

	if len(pairs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no supported source changes between %s and %s\n", scanFrom, scanTo)
		return nil
	}

	result, err := d.Diff(ctx, pairs)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Fprint(cmd.OutOrStdout(), renderResult(result))
	return nil
}
