package model

// QueryType identifies which pattern family matched a question.
type QueryType string

const (
	QueryAggregation    QueryType = "aggregation"
	QueryQuantitative   QueryType = "quantitative"
	QueryProjectSummary QueryType = "project_summary"
	QueryCrossing       QueryType = "utility_crossing"
	QueryLocation       QueryType = "location"
	QuerySpecification  QueryType = "specification"
	QueryDetail         QueryType = "detail"
	QueryReference      QueryType = "reference"
	QueryGeneral        QueryType = "general"
)

// Intent is the coarse answer shape a question expects.
type Intent string

const (
	IntentQuantitative  Intent = "quantitative"
	IntentInformational Intent = "informational"
	IntentLocational    Intent = "locational"
)

// QueryClassification is the classifier's verdict on a single question.
// It is built fresh per query and never persisted.
type QueryClassification struct {
	Type       QueryType `json:"type"`
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`

	ItemName    string `json:"item_name,omitempty"`
	SystemName  string `json:"system_name,omitempty"`
	Station     string `json:"station,omitempty"`
	SheetNumber string `json:"sheet_number,omitempty"`
	SizeFilter  string `json:"size_filter,omitempty"`

	NeedsDirectLookup   bool `json:"needs_direct_lookup"`
	NeedsCompleteData   bool `json:"needs_complete_data"`
	NeedsVectorSearch   bool `json:"needs_vector_search"`
	NeedsVisualAnalysis bool `json:"needs_visual_analysis"`
	IsAggregation       bool `json:"is_aggregation"`
}
