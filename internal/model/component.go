package model

// SourceContext records where on a drawing a component was read from.
// Index-sourced records are less trustworthy than callouts or profile views
// and are penalized during length resolution.
type SourceContext string

const (
	SourceCallout  SourceContext = "callout"
	SourceProfile  SourceContext = "profile"
	SourceSchedule SourceContext = "schedule"
	SourceIndex    SourceContext = "index"
	SourceUnknown  SourceContext = "unknown"
)

// ExtractedComponent is a single physical item read off a drawing by the
// vision collaborator. Components are value objects: the reconciliation
// engine merges them into new aggregates but never mutates them in place.
type ExtractedComponent struct {
	Name          string        `json:"name"`
	Size          string        `json:"size,omitempty"`
	Quantity      int           `json:"quantity"`
	Station       string        `json:"station,omitempty"`
	SheetNumber   string        `json:"sheet_number,omitempty"`
	SourceContext SourceContext `json:"source_context"`
	Confidence    float64       `json:"confidence"`
}

// SizeGroup is one row of a per-size quantity breakdown.
type SizeGroup struct {
	Size          string  `json:"size"`
	Count         int     `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// ReconcileResult is the output of the quantity reconciliation pipeline.
type ReconcileResult struct {
	TotalCount int                  `json:"total_count"`
	BySize     []SizeGroup          `json:"by_size"`
	Items      []ExtractedComponent `json:"items"`
	Excluded   int                  `json:"excluded"`
}
