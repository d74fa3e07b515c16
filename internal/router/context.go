package router

import (
	"fmt"
	"strings"

	"github.com/plansmith/takeoff/internal/model"
	"github.com/plansmith/takeoff/internal/reconcile"
)

// Context builders turn structured results into the single textual context
// returned with each answer. Output is bounded: large item sets collapse to
// summary lines.

func buildComponentContext(rec model.ReconcileResult, f reconcile.Filters) string {
	var b strings.Builder

	label := f.ItemName
	if label == "" {
		label = "component"
	}
	if f.Size != "" {
		fmt.Fprintf(&b, "Found %d %s %s(s) in the extracted drawing data.\n", rec.TotalCount, f.Size, label)
	} else {
		fmt.Fprintf(&b, "Found %d %s(s) in the extracted drawing data.\n", rec.TotalCount, label)
	}

	for _, g := range rec.BySize {
		fmt.Fprintf(&b, "- %s: %d (avg confidence %.2f)\n", g.Size, g.Count, g.AvgConfidence)
	}

	if rec.Excluded > 0 {
		fmt.Fprintf(&b, "Note: %d record(s) with unverifiable stations were excluded from the count.\n", rec.Excluded)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildLengthContext(length model.LengthResult, systemName string) string {
	var b strings.Builder

	name := length.UtilityName
	if name == "" {
		name = systemName
	}

	switch length.Source {
	case model.LengthFromTerminations:
		fmt.Fprintf(&b, "%s runs from station %s to station %s: %.2f LF.",
			name, length.BeginStation, length.EndStation, length.LengthLF)
	case model.LengthFromAggregate:
		fmt.Fprintf(&b, "%s totals %.2f LF per stored quantity records.", name, length.LengthLF)
	case model.LengthFromIndex:
		fmt.Fprintf(&b, "%s totals approximately %.2f LF.", name, length.LengthLF)
	}

	if length.Warning != "" {
		fmt.Fprintf(&b, "\nCaution: %s.", length.Warning)
	}
	return b.String()
}

func buildSummaryContext(summary *model.ProjectSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project %s: %d sheet(s), %d extracted component(s).",
		summary.ProjectID, summary.SheetCount, summary.ComponentCount)
	if len(summary.SystemNames) > 0 {
		fmt.Fprintf(&b, "\nSystems: %s.", strings.Join(summary.SystemNames, ", "))
	}
	if summary.TotalLengthLF > 0 {
		fmt.Fprintf(&b, "\nTotal alignment length: %.2f LF.", summary.TotalLengthLF)
	}
	return b.String()
}

func buildChunkContext(chunks []model.Chunk, limit int) string {
	if limit > 0 && len(chunks) > limit {
		chunks = chunks[:limit]
	}

	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		if c.SheetNumber != "" {
			fmt.Fprintf(&b, "[sheet %s] ", c.SheetNumber)
		}
		b.WriteString(strings.TrimSpace(c.Content))
	}
	return b.String()
}

func buildCrossingContext(crossings []model.UtilityCrossing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d utility crossing(s):\n", len(crossings))
	for _, c := range crossings {
		name := c.FullName
		if name == "" {
			name = c.CrossingUtilityCode
		}
		b.WriteString("- ")
		if c.Size != "" {
			fmt.Fprintf(&b, "%s ", c.Size)
		}
		b.WriteString(name)
		switch {
		case c.IsExisting:
			b.WriteString(" (existing)")
		case c.IsProposed:
			b.WriteString(" (proposed)")
		}
		if c.Station != "" {
			fmt.Fprintf(&b, " at station %s", c.Station)
		}
		if c.Elevation != "" {
			fmt.Fprintf(&b, ", elevation %s", c.Elevation)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
