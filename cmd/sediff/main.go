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
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sediff/pkg/logging"
	"github.com/AleutianAI/sediff/services/sediff/ast"
	"github.com/AleutianAI/sediff/services/sediff/cache"
	"github.com/AleutianAI/sediff/services/sediff/classify"
	"github.com/AleutianAI/sediff/services/sediff/config"
	"github.com/AleutianAI/sediff/services/sediff/differ"
	"github.com/AleutianAI/sediff/services/sediff/entropy"
)

// --- Global Command Variables ---
var (
	configPath string
	jsonOutput bool
	languageID string

	scanRepo string
	scanFrom string
	scanTo   string

	rootCmd = &cobra.Command{
		Use:   "sediff",
		Short: "Semantic entropy scoring for code changes",
		Long: `sediff compares two versions of source code at the semantic level,
scores each change with an information-theoretic entropy measure, and
classifies the risk of the change set for review tooling.`,
		SilenceUsage: true,
	}

	diffCmd = &cobra.Command{
		Use:   "diff <old-file> <new-file>",
		Short: "Compare two versions of a source file",
		Args:  cobra.ExactArgs(2),
		RunE:  runDiff, // Defined in cmd_diff.go
	}

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Score every changed file between two revisions of a repository",
		RunE:  runScan, // Defined in cmd_scan.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a sediff YAML config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit the full result as JSON")

	diffCmd.Flags().StringVar(&languageID, "language", "", "language tag override (go, javascript, python)")

	scanCmd.Flags().StringVar(&scanRepo, "repo", ".", "path to the repository")
	scanCmd.Flags().StringVar(&scanFrom, "from", "HEAD~1", "old revision")
	scanCmd.Flags().StringVar(&scanTo, "to", "HEAD", "new revision")

	rootCmd.AddCommand(diffCmd, scanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildDiffer assembles the pipeline from the loaded configuration.
func buildDiffer(cfg *config.Config, logger *logging.Logger) (*differ.Differ, error) {
	calculator, err := entropy.NewCalculator(cfg.CalculatorOptions())
	if err != nil {
		return nil, err
	}

	var parseCache *cache.ParseCache
	if cfg.Cache.Enabled {
		parseCache, err = cache.NewParseCache(cfg.Cache.Size)
		if err != nil {
			return nil, err
		}
	}

	registry := ast.DefaultRegistry(
		ast.WithMaxFileSize(int64(cfg.Parse.MaxFileSizeBytes)),
		ast.WithParseTimeout(time.Duration(cfg.Parse.TimeoutSeconds)*time.Second),
	)

	return differ.New(differ.Options{
		Registry:         registry,
		Calculator:       calculator,
		Classifier:       classify.NewClassifier(classify.WithReviewThreshold(cfg.ReviewThreshold)),
		Cache:            parseCache,
		EntropyThreshold: cfg.Entropy.SuppressBelow,
		Workers:          cfg.Workers,
		Logger:           logger,
	})
}

// buildLogger creates the CLI logger from the loaded configuration.
func buildLogger(cfg *config.Config) *logging.Logger {
	level := logging.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	return logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "sediff",
		JSON:    cfg.Logging.JSON,
	})
}
