// Package entity pulls structured entities (system name, item name, size,
// station, sheet reference) out of free-text questions. Extractors are pure
// and never fail: absence is the empty string.
package entity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/plansmith/takeoff/internal/station"
)

var systemRes = []*regexp.Regexp{
	// Most specific first: two-word system kinds before bare "line".
	regexp.MustCompile(`(?i)\b(reclaimed water line|water line|sewer line|force main|storm drain|gas line|gravity sewer)\s+['"]?([A-Z]|\d{1,2})['"]?\b`),
	regexp.MustCompile(`(?i)\b(reclaimed water line|water line|sewer line|force main|storm drain|gas line|gravity sewer)\b`),
}

// ItemPatterns maps a component category to the name variants that count as
// that category. Order within a pattern is most specific first so "gate
// valve" is not swallowed by "valve".
var itemRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(gate valves?|butterfly valves?|check valves?|air release valves?|plug valves?|tapping valves?)\b`),
	regexp.MustCompile(`(?i)\b(fire hydrants?|blow[- ]?offs?|manholes?|thrust blocks?)\b`),
	regexp.MustCompile(`(?i)\b(valves?|hydrants?|tees?|bends?|elbows?|reducers?|caps?|plugs?|fittings?|couplings?|sleeves?)\b`),
	regexp.MustCompile(`(?i)\b(pipes?|mains?)\b`),
}

var sizeRe = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:-|\s)?\s*(?:in(?:ch(?:es)?)?\b|")`)

var stationCandidateRe = regexp.MustCompile(`\d{1,3}\+\d{2}(?:\.\d{1,2})?`)

var sheetRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsheet\s+(?:no\.?\s*)?([A-Z]{0,2}-?\d{1,3}(?:\.\d{1,2})?)`),
	regexp.MustCompile(`\b([A-Z]{1,2}-\d{1,3})\b`),
}

// SystemName extracts a named system ("Water Line A") in title case.
func SystemName(text string) string {
	for i, re := range systemRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		kind := titleCase(m[1])
		if i == 0 {
			return fmt.Sprintf("%s %s", kind, strings.ToUpper(m[2]))
		}
		return kind
	}
	return ""
}

// ItemName extracts the component category being asked about, singularized
// and lowercased ("gate valves" -> "gate valve").
func ItemName(text string) string {
	for _, re := range itemRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return singular(strings.ToLower(m[1]))
	}
	return ""
}

// Size extracts a numeric size and normalizes the unit: "12 inch", "12-in",
// and `12"` all become "12-IN".
func Size(text string) string {
	m := sizeRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimLeft(m[1], "0") + "-IN"
}

// Station extracts the first station-shaped token that survives validation.
func Station(text string) string {
	for _, cand := range stationCandidateRe.FindAllString(text, -1) {
		if station.Valid(cand) {
			return cand
		}
	}
	return ""
}

// SheetNumber extracts a sheet reference ("sheet C-12", "sheet 5").
func SheetNumber(text string) string {
	for _, re := range sheetRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ves"):
		return strings.TrimSuffix(s, "s")
	case strings.HasSuffix(s, "es") && !strings.HasSuffix(s, "ses"):
		return strings.TrimSuffix(s, "s")
	case strings.HasSuffix(s, "s"):
		return strings.TrimSuffix(s, "s")
	}
	return s
}
