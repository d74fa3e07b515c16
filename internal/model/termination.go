package model

// TerminationType labels a termination point marker on a drawing.
type TerminationType string

const (
	TerminationBegin    TerminationType = "BEGIN"
	TerminationEnd      TerminationType = "END"
	TerminationTieIn    TerminationType = "TIE_IN"
	TerminationTerminus TerminationType = "TERMINUS"
)

// TerminationPoint is a labeled BEGIN/END/TIE-IN marker for a utility run.
type TerminationPoint struct {
	UtilityName    string          `json:"utility_name"`
	Type           TerminationType `json:"type"`
	Station        string          `json:"station"`
	StationNumeric float64         `json:"station_numeric"`
	SheetNumber    string          `json:"sheet_number,omitempty"`
	Confidence     float64         `json:"confidence"`
}

// LengthSource records which kind of data a length was derived from, in
// descending order of trust.
type LengthSource string

const (
	LengthFromTerminations LengthSource = "termination_points"
	LengthFromAggregate    LengthSource = "stored_aggregate"
	LengthFromIndex        LengthSource = "index_sheet"
)

// LengthResult is a run length derived from a BEGIN+END pair, or from a
// lower-priority stored value when no pair exists. Warning is non-empty when
// the value should not be presented with full confidence.
type LengthResult struct {
	UtilityName  string       `json:"utility_name"`
	BeginStation string       `json:"begin_station,omitempty"`
	EndStation   string       `json:"end_station,omitempty"`
	LengthLF     float64      `json:"length_lf"`
	Source       LengthSource `json:"source"`
	Confidence   float64      `json:"confidence"`
	Warning      string       `json:"warning,omitempty"`
}

// UtilityCrossing describes a different utility intersecting the alignment
// under analysis. Crossings are never components of the alignment itself.
type UtilityCrossing struct {
	CrossingUtilityCode string  `json:"crossing_utility_code"`
	FullName            string  `json:"full_name"`
	Station             string  `json:"station,omitempty"`
	Elevation           string  `json:"elevation,omitempty"`
	IsExisting          bool    `json:"is_existing"`
	IsProposed          bool    `json:"is_proposed"`
	Size                string  `json:"size,omitempty"`
	Confidence          float64 `json:"confidence"`
}
