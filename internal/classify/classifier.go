// Package classify turns a free-text question into a QueryClassification:
// query type, intent, extracted entities, and the strategy flags the
// retrieval router acts on.
package classify

import (
	"regexp"

	"github.com/plansmith/takeoff/internal/entity"
	"github.com/plansmith/takeoff/internal/model"
)

// family is one row of the ordered classification table. The first family
// whose pattern matches wins; ties resolve to the earlier row. Confidence is
// a fixed per-family constant, deliberately not computed from match strength.
type family struct {
	name    string
	pattern *regexp.Regexp
	build   func(query string, c *model.QueryClassification)
}

var crossingRe = regexp.MustCompile(`(?i)\b(crossings?|crosses|cross\b|intersects?)`)

// families is evaluated in order. Priority: aggregation-flagged quantitative,
// plain quantitative, project summary, utility crossing, location,
// specification, detail, reference. No match falls back to general.
var families = []family{
	{
		name:    "aggregation",
		pattern: regexp.MustCompile(`(?i)\b(total|sum of|overall|combined|altogether|how much .*(pipe|line|main))\b`),
		build: func(q string, c *model.QueryClassification) {
			c.Type = model.QueryAggregation
			c.Intent = model.IntentQuantitative
			c.Confidence = 0.9
			c.IsAggregation = true
			c.NeedsDirectLookup = true
			c.NeedsCompleteData = true
		},
	},
	{
		name:    "quantitative",
		pattern: regexp.MustCompile(`(?i)\b(how many|count of|count the|number of|quantity of|qty)\b`),
		build: func(q string, c *model.QueryClassification) {
			c.Type = model.QueryQuantitative
			c.Intent = model.IntentQuantitative
			c.Confidence = 0.9
			c.NeedsDirectLookup = true
			c.NeedsCompleteData = true
			c.NeedsVectorSearch = true
			if crossingRe.MatchString(q) {
				// Crossing counts cannot be answered from indexed text.
				c.NeedsVisualAnalysis = true
				c.NeedsVectorSearch = false
			}
		},
	},
	{
		name:    "project_summary",
		pattern: regexp.MustCompile(`(?i)\b(project (summary|overview)|summar(y|ize|ise)|overview of|scope of (the )?(work|project))\b`),
		build: func(q string, c *model.QueryClassification) {
			c.Type = model.QueryProjectSummary
			c.Intent = model.IntentInformational
			c.Confidence = 0.85
			c.NeedsDirectLookup = true
		},
	},
	{
		name:    "utility_crossing",
		pattern: crossingRe,
		build: func(q string, c *model.QueryClassification) {
			c.Type = model.QueryCrossing
			c.Intent = model.IntentLocational
			c.Confidence = 0.85
			c.NeedsDirectLookup = true
			// Crossing labels are not reliably indexed as text.
			c.NeedsVisualAnalysis = true
			c.NeedsVectorSearch = false
		},
	},
	{
		name:    "location",
		pattern: regexp.MustCompile(`(?i)\b(where (is|are|does)|location of|located|at what station|station of|begins?|ends?|terminates?)\b`),
		build: func(q string, c *model.QueryClassification) {
			c.Type = model.QueryLocation
			c.Intent = model.IntentLocational
			c.Confidence = 0.8
			c.NeedsDirectLookup = true
			c.NeedsVectorSearch = true
		},
	},
	{
		name:    "specification",
		pattern: regexp.MustCompile(`(?i)\b(spec(ification)?s?\b|material|bedding|backfill|compaction|requirements?|standards?|astm|awwa)`),
		build: func(q string, c *model.QueryClassification) {
			c.Type = model.QuerySpecification
			c.Intent = model.IntentInformational
			c.Confidence = 0.75
			c.NeedsVectorSearch = true
		},
	},
	{
		name:    "detail",
		pattern: regexp.MustCompile(`(?i)\b(details?|typical|section view|connection|installation)\b`),
		build: func(q string, c *model.QueryClassification) {
			c.Type = model.QueryDetail
			c.Intent = model.IntentInformational
			c.Confidence = 0.7
			c.NeedsVectorSearch = true
		},
	},
	{
		name:    "reference",
		pattern: regexp.MustCompile(`(?i)\b(sheet|drawing|plan (no|number|set)|page|index)\b`),
		build: func(q string, c *model.QueryClassification) {
			c.Type = model.QueryReference
			c.Intent = model.IntentInformational
			c.Confidence = 0.6
			c.NeedsVectorSearch = true
		},
	},
}

// Classify is deterministic and side-effect-free. A query no family matches
// classifies as general/informational with confidence 0.5; that is a normal
// outcome, not an error.
func Classify(query string) model.QueryClassification {
	c := model.QueryClassification{
		ItemName:    entity.ItemName(query),
		SystemName:  entity.SystemName(query),
		Station:     entity.Station(query),
		SheetNumber: entity.SheetNumber(query),
		SizeFilter:  entity.Size(query),
	}

	for _, f := range families {
		if f.pattern.MatchString(query) {
			f.build(query, &c)
			return c
		}
	}

	c.Type = model.QueryGeneral
	c.Intent = model.IntentInformational
	c.Confidence = 0.5
	c.NeedsVectorSearch = true
	return c
}
