// Package ingest runs bulk extraction over drawing sheets: small parallel
// batches against the vision collaborator, a pause between batches to
// respect its rate limits, and best-effort dedup before insert.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plansmith/takeoff/internal/config"
	"github.com/plansmith/takeoff/internal/model"
	"github.com/plansmith/takeoff/internal/reconcile"
	"github.com/plansmith/takeoff/internal/store"
	"github.com/plansmith/takeoff/internal/vision"
)

// Result summarizes one ingestion run.
type Result struct {
	RunID         string           `json:"run_id"`
	SheetsTotal   int              `json:"sheets_total"`
	SheetsFailed  int              `json:"sheets_failed"`
	Components    int              `json:"components"`
	Terminations  int              `json:"terminations"`
	Crossings     int              `json:"crossings"`
	Usage         model.UsageStats `json:"usage"`
}

type Pipeline struct {
	Analyzer *vision.Analyzer
	Store    store.Store
	cfg      config.IngestConfig
	log      *zap.Logger
}

func NewPipeline(analyzer *vision.Analyzer, st store.Store, cfg config.IngestConfig, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BatchSize < 2 || cfg.BatchSize > 3 {
		cfg.BatchSize = 3
	}
	if cfg.BatchDelayMs <= 0 {
		cfg.BatchDelayMs = 1500
	}
	return &Pipeline{Analyzer: analyzer, Store: st, cfg: cfg, log: log}
}

// ProcessSheets extracts components, termination points, and crossings from
// each sheet and persists them. Sheets within a batch run in parallel;
// batches run sequentially with a backoff pause. A failed sheet is logged
// and skipped, never aborting the batch or the run.
func (p *Pipeline) ProcessSheets(ctx context.Context, sheets []model.SheetImage, category string) Result {
	result := Result{
		RunID:       uuid.New().String(),
		SheetsTotal: len(sheets),
	}
	var mu sync.Mutex

	for start := 0; start < len(sheets); start += p.cfg.BatchSize {
		if ctx.Err() != nil {
			p.log.Warn("ingestion cancelled", zap.String("run_id", result.RunID), zap.Error(ctx.Err()))
			break
		}

		end := start + p.cfg.BatchSize
		if end > len(sheets) {
			end = len(sheets)
		}

		var wg sync.WaitGroup
		for _, sheet := range sheets[start:end] {
			wg.Add(1)
			go func(sheet model.SheetImage) {
				defer wg.Done()
				sr, err := p.processSheet(ctx, sheet, category)
				mu.Lock()
				defer mu.Unlock()
				result.Usage.InputTokens += sr.Usage.InputTokens
				result.Usage.OutputTokens += sr.Usage.OutputTokens
				if err != nil {
					result.SheetsFailed++
					p.log.Error("sheet processing failed, skipping",
						zap.String("sheet", sheet.SheetNumber),
						zap.Error(err))
					return
				}
				result.Components += sr.Components
				result.Terminations += sr.Terminations
				result.Crossings += sr.Crossings
			}(sheet)
		}
		wg.Wait()

		if end < len(sheets) {
			time.Sleep(time.Duration(p.cfg.BatchDelayMs) * time.Millisecond)
		}
	}
	return result
}

type sheetResult struct {
	Components   int
	Terminations int
	Crossings    int
	Usage        model.UsageStats
}

func (p *Pipeline) processSheet(ctx context.Context, sheet model.SheetImage, category string) (sheetResult, error) {
	var sr sheetResult

	// Classify and store the image first so visual analysis can revisit the
	// sheet later even if extraction below fails.
	sheetType, usage, err := p.Analyzer.ClassifySheet(ctx, sheet)
	sr.Usage.InputTokens += usage.InputTokens
	sr.Usage.OutputTokens += usage.OutputTokens
	if err != nil {
		p.log.Warn("sheet classification failed",
			zap.String("sheet", sheet.SheetNumber), zap.Error(err))
	}
	sheet.SheetType = sheetType
	if err := p.Store.SaveSheetImage(ctx, sheet); err != nil {
		p.log.Warn("sheet image save failed",
			zap.String("sheet", sheet.SheetNumber), zap.Error(err))
	}

	components, usage, err := p.Analyzer.ExtractComponents(ctx, sheet, category)
	sr.Usage.InputTokens += usage.InputTokens
	sr.Usage.OutputTokens += usage.OutputTokens
	if err != nil {
		return sr, err
	}

	// Best-effort dedup: read what is already stored, merge, then upsert.
	// The storage layer's identity-key constraint closes the remaining race.
	stored, err := p.Store.AllComponents(ctx, sheet.ProjectID, "")
	if err != nil {
		p.log.Warn("could not read stored components for dedup",
			zap.String("sheet", sheet.SheetNumber), zap.Error(err))
		stored = nil
	}
	merged := reconcile.MergeWithStored(components, stored)
	for _, c := range merged {
		if err := p.Store.UpsertComponent(ctx, sheet.ProjectID, c); err != nil {
			p.log.Warn("component upsert failed",
				zap.String("name", c.Name), zap.Error(err))
			continue
		}
	}
	sr.Components = len(components)

	points, usage, err := p.Analyzer.DetectTerminations(ctx, sheet)
	sr.Usage.InputTokens += usage.InputTokens
	sr.Usage.OutputTokens += usage.OutputTokens
	if err != nil {
		p.log.Warn("termination detection failed",
			zap.String("sheet", sheet.SheetNumber), zap.Error(err))
	}
	for _, pt := range points {
		if err := p.Store.SaveTerminationPoint(ctx, sheet.ProjectID, pt); err != nil {
			p.log.Warn("termination insert failed", zap.Error(err))
			continue
		}
		sr.Terminations++
	}

	crossings, usage, err := p.Analyzer.DetectCrossings(ctx, sheet, category)
	sr.Usage.InputTokens += usage.InputTokens
	sr.Usage.OutputTokens += usage.OutputTokens
	if err != nil {
		p.log.Warn("crossing detection failed",
			zap.String("sheet", sheet.SheetNumber), zap.Error(err))
	}
	for _, c := range crossings {
		if err := p.Store.SaveCrossing(ctx, sheet.ProjectID, c); err != nil {
			p.log.Warn("crossing insert failed", zap.Error(err))
			continue
		}
		sr.Crossings++
	}

	return sr, nil
}
