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
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/sediff/services/sediff/differ"
	"github.com/AleutianAI/sediff/services/sediff/entropy"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	pathStyle   = lipgloss.NewStyle().Bold(true)

	levelStyles = map[entropy.Level]lipgloss.Style{
		entropy.LevelMinimal:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		entropy.LevelLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		entropy.LevelModerate: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		entropy.LevelHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		entropy.LevelCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// styledLevel renders a level with its severity color.
func styledLevel(level entropy.Level) string {
	if style, ok := levelStyles[level]; ok {
		return style.Render(string(level))
	}
	return string(level)
}

// renderResult renders a human-readable summary of a diff result.
func renderResult(result *differ.Result) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Semantic diff"))
	b.WriteString("\n\n")

	for _, file := range result.Files {
		cascade := ""
		if file.Propagation.Cascading {
			cascade = "  " + levelStyles[entropy.LevelHigh].Render("cascading")
		}
		fmt.Fprintf(&b, "%s  %s  +%d ~%d -%d  entropy %.2f%s\n",
			pathStyle.Render(file.Path),
			styledLevel(file.Stats.Level),
			file.Stats.Added, file.Stats.Modified, file.Stats.Removed,
			file.Stats.TotalEntropy, cascade)

		for _, change := range file.Changes {
			fmt.Fprintf(&b, "  %-9s %-10s %s  %.2f %s\n",
				change.Operation, change.Kind, change.Path,
				change.Entropy.Raw, styledLevel(change.Entropy.Level))
		}
	}

	for _, failure := range result.Failures {
		fmt.Fprintf(&b, "%s  %s\n",
			pathStyle.Render(failure.Path),
			dimStyle.Render("skipped: "+failure.Error))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  files %d  changes %d  entropy %.2f  level %s\n",
		headerStyle.Render("Summary"),
		result.Summary.TotalFiles,
		result.Summary.TotalChanges,
		result.Summary.TotalEntropy,
		styledLevel(result.Summary.OverallLevel))

	if len(result.Summary.Hotspots) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Hotspots"))
		b.WriteString("\n")
		for i, hotspot := range result.Summary.Hotspots {
			fmt.Fprintf(&b, "  %d. %s  %.2f %s\n",
				i+1, hotspot.Path, hotspot.Entropy.Raw, styledLevel(hotspot.Entropy.Level))
		}
	}

	if result.Review.ReviewRequired > 0 {
		fmt.Fprintf(&b, "\n%d of %d changes require review (mean risk %.2f)\n",
			result.Review.ReviewRequired, result.Review.TotalChanges,
			result.Review.MeanRiskScore)
	}
	for _, rec := range result.Review.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", rec)
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("\n%s %s  %dms\n",
		result.Metadata.Algorithm, result.Metadata.ID, result.Metadata.ComputeTimeMs)))
	return b.String()
}
