package model

import "time"

// RoutingMethod names which retrieval path produced the answer context.
type RoutingMethod string

const (
	MethodDirectOnly     RoutingMethod = "direct_only"
	MethodVectorOnly     RoutingMethod = "vector_only"
	MethodHybrid         RoutingMethod = "hybrid"
	MethodCompleteData   RoutingMethod = "complete_data"
	MethodVisualAnalysis RoutingMethod = "visual_analysis"
	MethodNotFound       RoutingMethod = "not_found"
)

// ProvenanceRef records one step of the routing chain: whether it ran and
// whether it produced data. The ordered list is the audit trail for an answer.
type ProvenanceRef struct {
	Step      string `json:"step"`
	Attempted bool   `json:"attempted"`
	HasData   bool   `json:"has_data"`
	Detail    string `json:"detail,omitempty"`
}

// RoutingResult is the router's output for one question. Built once per
// query and never cached across queries.
type RoutingResult struct {
	Classification QueryClassification `json:"classification"`
	Context        string              `json:"context"`
	Method         RoutingMethod       `json:"method"`
	Sources        []ProvenanceRef     `json:"sources"`
	Confidence     float64             `json:"confidence"`
	Cautions       []string            `json:"cautions,omitempty"`
	TimingMs       int64               `json:"timing_ms"`
}

// Chunk is an embedded document fragment stored alongside its provenance.
type Chunk struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	SheetNumber string    `json:"sheet_number,omitempty"`
	SheetType   string    `json:"sheet_type,omitempty"`
	Content     string    `json:"content"`
	Stations    []string  `json:"stations,omitempty"`
	Similarity  float64   `json:"similarity,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectSummary is the pre-aggregated per-project rollup view.
type ProjectSummary struct {
	ProjectID      string         `json:"project_id"`
	SheetCount     int            `json:"sheet_count"`
	SystemNames    []string       `json:"system_names"`
	ComponentCount int            `json:"component_count"`
	TotalLengthLF  float64        `json:"total_length_lf"`
	CountsByType   map[string]int `json:"counts_by_type,omitempty"`
}

// SheetImage is one rasterized drawing page, either queued for vision
// extraction or stored for on-demand visual analysis. SheetType is filled
// during ingestion by the sheet-classification pass.
type SheetImage struct {
	ProjectID   string `json:"project_id"`
	SheetNumber string `json:"sheet_number"`
	SheetType   string `json:"sheet_type,omitempty"`
	MimeType    string `json:"mime_type"`
	Data        []byte `json:"-"`
}

// UsageStats carries token and cost metadata reported by the vision
// collaborator for one call.
type UsageStats struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd,omitempty"`
}
