// Package vision wraps the external vision-capable LLM: it selects the
// instruction profile for a task, hands over one rasterized sheet, and
// validates the structured JSON that comes back.
package vision

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/plansmith/takeoff/internal/common"
	"github.com/plansmith/takeoff/internal/config"
	"github.com/plansmith/takeoff/internal/llm"
	"github.com/plansmith/takeoff/internal/model"
	"github.com/plansmith/takeoff/internal/station"
)

type Analyzer struct {
	LLM     llm.LLMClient
	Prompts config.VisionPrompts
	log     *zap.Logger
}

func NewAnalyzer(client llm.LLMClient, prompts config.VisionPrompts, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if prompts.SheetClassification == "" {
		prompts.SheetClassification = defaultSheetClassificationPrompt
	}
	if prompts.ComponentExtraction == "" {
		prompts.ComponentExtraction = defaultComponentExtractionPrompt
	}
	if prompts.CrossingDetection == "" {
		prompts.CrossingDetection = defaultCrossingDetectionPrompt
	}
	if prompts.TerminationDetection == "" {
		prompts.TerminationDetection = defaultTerminationDetectionPrompt
	}
	return &Analyzer{LLM: client, Prompts: prompts, log: log}
}

type sheetClassification struct {
	SheetType   string  `json:"sheet_type"`
	SheetNumber string  `json:"sheet_number"`
	Confidence  float64 `json:"confidence"`
}

type componentList struct {
	Components []model.ExtractedComponent `json:"components"`
}

type crossingList struct {
	Crossings []model.UtilityCrossing `json:"crossings"`
}

type terminationList struct {
	TerminationPoints []model.TerminationPoint `json:"termination_points"`
}

// ClassifySheet identifies what kind of sheet an image shows.
func (a *Analyzer) ClassifySheet(ctx context.Context, sheet model.SheetImage) (string, model.UsageStats, error) {
	response, usage, err := a.LLM.GenerateVision(ctx, a.Prompts.SheetClassification, sheet.Data, sheet.MimeType)
	if err != nil {
		return "", usage, fmt.Errorf("sheet classification failed: %w", err)
	}
	result, err := common.ParseJSON[sheetClassification](response)
	if err != nil {
		return "", usage, fmt.Errorf("sheet classification parse failed: %w", err)
	}
	return result.SheetType, usage, nil
}

// ExtractComponents pulls structured component records for one component
// category off a sheet. Records are validated, not trusted: confidences are
// clamped, quantities default to 1, and the sheet number is stamped on.
// Invalid stations are kept here and excluded later by reconciliation, so
// the exclusion is logged exactly once.
func (a *Analyzer) ExtractComponents(ctx context.Context, sheet model.SheetImage, category string) ([]model.ExtractedComponent, model.UsageStats, error) {
	prompt := fmt.Sprintf(a.Prompts.ComponentExtraction, categoryOrAll(category))
	response, usage, err := a.LLM.GenerateVision(ctx, prompt, sheet.Data, sheet.MimeType)
	if err != nil {
		return nil, usage, fmt.Errorf("component extraction failed: %w", err)
	}
	result, err := common.ParseJSON[componentList](response)
	if err != nil {
		return nil, usage, fmt.Errorf("component extraction parse failed: %w", err)
	}

	out := result.Components[:0:0]
	for _, c := range result.Components {
		if c.Name == "" {
			continue
		}
		if c.Quantity < 1 {
			c.Quantity = 1
		}
		c.Confidence = clamp01(c.Confidence)
		if c.SheetNumber == "" {
			c.SheetNumber = sheet.SheetNumber
		}
		if c.SourceContext == "" {
			c.SourceContext = model.SourceUnknown
		}
		out = append(out, c)
	}
	return out, usage, nil
}

// DetectCrossings finds utilities crossing the named alignment on a sheet.
func (a *Analyzer) DetectCrossings(ctx context.Context, sheet model.SheetImage, utilityName string) ([]model.UtilityCrossing, model.UsageStats, error) {
	prompt := fmt.Sprintf(a.Prompts.CrossingDetection, categoryOrAll(utilityName))
	response, usage, err := a.LLM.GenerateVision(ctx, prompt, sheet.Data, sheet.MimeType)
	if err != nil {
		return nil, usage, fmt.Errorf("crossing detection failed: %w", err)
	}
	result, err := common.ParseJSON[crossingList](response)
	if err != nil {
		return nil, usage, fmt.Errorf("crossing detection parse failed: %w", err)
	}

	out := result.Crossings[:0:0]
	for _, c := range result.Crossings {
		if c.CrossingUtilityCode == "" && c.FullName == "" {
			continue
		}
		c.Confidence = clamp01(c.Confidence)
		out = append(out, c)
	}
	return out, usage, nil
}

// DetectTerminations finds BEGIN/END markers on a sheet. Points whose
// station does not parse are dropped and logged; a numeric station is
// required downstream to compute lengths.
func (a *Analyzer) DetectTerminations(ctx context.Context, sheet model.SheetImage) ([]model.TerminationPoint, model.UsageStats, error) {
	response, usage, err := a.LLM.GenerateVision(ctx, a.Prompts.TerminationDetection, sheet.Data, sheet.MimeType)
	if err != nil {
		return nil, usage, fmt.Errorf("termination detection failed: %w", err)
	}
	result, err := common.ParseJSON[terminationList](response)
	if err != nil {
		return nil, usage, fmt.Errorf("termination detection parse failed: %w", err)
	}

	out := result.TerminationPoints[:0:0]
	for _, p := range result.TerminationPoints {
		numeric, err := station.Parse(p.Station)
		if err != nil {
			a.log.Warn("dropping termination point with invalid station",
				zap.String("utility", p.UtilityName),
				zap.String("station", p.Station),
				zap.String("sheet", sheet.SheetNumber))
			continue
		}
		p.StationNumeric = numeric
		p.Confidence = clamp01(p.Confidence)
		if p.SheetNumber == "" {
			p.SheetNumber = sheet.SheetNumber
		}
		out = append(out, p)
	}
	return out, usage, nil
}

func categoryOrAll(s string) string {
	if s == "" {
		return "pipeline"
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
