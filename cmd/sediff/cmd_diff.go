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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sediff/services/sediff/config"
	"github.com/AleutianAI/sediff/services/sediff/differ"
)

// runDiff compares two on-disk versions of one source file.
func runDiff(cmd *cobra.Command, args []string) error {
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

	oldContent, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read old version: %w", err)
	}
	newContent, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read new version: %w", err)
	}

	result, err := d.Diff(cmd.Context(), []differ.FilePair{{
		Path:       args[1],
		Language:   languageID,
		OldContent: oldContent,
		NewContent: newContent,
	}})
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
