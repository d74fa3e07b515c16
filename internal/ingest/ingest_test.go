package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plansmith/takeoff/internal/config"
	"github.com/plansmith/takeoff/internal/model"
	"github.com/plansmith/takeoff/internal/vision"
)

type fakeStore struct {
	mu         sync.Mutex
	components []model.ExtractedComponent
	points     []model.TerminationPoint
	crossings  []model.UtilityCrossing
	sheets     []model.SheetImage
}

func (f *fakeStore) SearchComponents(ctx context.Context, projectID, name string) ([]model.ExtractedComponent, error) {
	return nil, nil
}

func (f *fakeStore) AllComponents(ctx context.Context, projectID, systemName string) ([]model.ExtractedComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ExtractedComponent(nil), f.components...), nil
}

func (f *fakeStore) UpsertComponent(ctx context.Context, projectID string, c model.ExtractedComponent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.components = append(f.components, c)
	return nil
}

func (f *fakeStore) TerminationPoints(ctx context.Context, projectID, utilityName string) ([]model.TerminationPoint, error) {
	return nil, nil
}

func (f *fakeStore) SaveTerminationPoint(ctx context.Context, projectID string, p model.TerminationPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, p)
	return nil
}

func (f *fakeStore) Crossings(ctx context.Context, projectID, utilityName string) ([]model.UtilityCrossing, error) {
	return nil, nil
}

func (f *fakeStore) SaveCrossing(ctx context.Context, projectID string, c model.UtilityCrossing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.crossings = append(f.crossings, c)
	return nil
}

func (f *fakeStore) ProjectSummary(ctx context.Context, projectID string) (*model.ProjectSummary, error) {
	return nil, nil
}

func (f *fakeStore) NearestChunks(ctx context.Context, projectID string, embedding []float32, limit int, sheetNumber string, sheetTypes []string) ([]model.Chunk, error) {
	return nil, nil
}

func (f *fakeStore) ChunksBySystem(ctx context.Context, projectID, systemName string) ([]model.Chunk, error) {
	return nil, nil
}

func (f *fakeStore) SystemMentionCounts(ctx context.Context, projectID string) (map[string]int, error) {
	return nil, nil
}

func (f *fakeStore) SaveSheetImage(ctx context.Context, img model.SheetImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets = append(f.sheets, img)
	return nil
}

func (f *fakeStore) Sheets(ctx context.Context, projectID string, sheetTypes []string, limit int) ([]model.SheetImage, error) {
	return nil, nil
}

func (f *fakeStore) Close() {}

// fakeVisionLLM fails any call whose sheet mime type is "fail".
type fakeVisionLLM struct {
	mu sync.Mutex
	n  int
}

func (f *fakeVisionLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

func (f *fakeVisionLLM) GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, model.UsageStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	if mimeType == "fail" {
		return "", model.UsageStats{}, errors.New("vision call failed")
	}
	// One valid answer regardless of task; unexpected keys are ignored.
	return `{"components": [{"name": "gate valve", "size": "12-IN", "quantity": 1, "station": "10+00", "confidence": 0.9}],
		"termination_points": [], "crossings": []}`, model.UsageStats{InputTokens: 10, OutputTokens: 5}, nil
}

func TestProcessSheets_SkipsFailedSheet(t *testing.T) {
	st := &fakeStore{}
	analyzer := vision.NewAnalyzer(&fakeVisionLLM{}, config.VisionPrompts{}, nil)
	p := NewPipeline(analyzer, st, config.IngestConfig{BatchSize: 2, BatchDelayMs: 1}, nil)

	sheets := []model.SheetImage{
		{ProjectID: "p1", SheetNumber: "C-1", MimeType: "image/png", Data: []byte{1}},
		{ProjectID: "p1", SheetNumber: "C-2", MimeType: "fail", Data: []byte{1}},
		{ProjectID: "p1", SheetNumber: "C-3", MimeType: "image/png", Data: []byte{1}},
	}
	result := p.ProcessSheets(context.Background(), sheets, "valve")

	assert.Equal(t, 3, result.SheetsTotal)
	assert.Equal(t, 1, result.SheetsFailed)
	assert.Equal(t, 2, result.Components)
	assert.True(t, result.Usage.InputTokens > 0)
}

func TestProcessSheets_DeduplicatesAgainstStored(t *testing.T) {
	st := &fakeStore{}
	analyzer := vision.NewAnalyzer(&fakeVisionLLM{}, config.VisionPrompts{}, nil)
	p := NewPipeline(analyzer, st, config.IngestConfig{BatchSize: 2, BatchDelayMs: 1}, nil)

	sheet := []model.SheetImage{{ProjectID: "p1", SheetNumber: "C-1", MimeType: "image/png", Data: []byte{1}}}
	p.ProcessSheets(context.Background(), sheet, "valve")
	first := len(st.components)

	// Re-processing the same sheet must not add a second record for the
	// same identity key.
	p.ProcessSheets(context.Background(), sheet, "valve")

	keys := map[string]int{}
	for _, c := range st.components {
		keys[c.Name+"|"+c.Size+"|"+c.Station]++
	}
	assert.Equal(t, first, len(keys))
}

func TestProcessSheets_PersistsSheetImages(t *testing.T) {
	// Stored images are what on-demand visual analysis reads later; losing
	// them would make crossing queries unanswerable after ingestion.
	st := &fakeStore{}
	analyzer := vision.NewAnalyzer(&fakeVisionLLM{}, config.VisionPrompts{}, nil)
	p := NewPipeline(analyzer, st, config.IngestConfig{BatchSize: 2, BatchDelayMs: 1}, nil)

	p.ProcessSheets(context.Background(), []model.SheetImage{
		{ProjectID: "p1", SheetNumber: "C-1", MimeType: "image/png", Data: []byte{1}},
	}, "valve")

	assert.Len(t, st.sheets, 1)
	assert.Equal(t, "C-1", st.sheets[0].SheetNumber)
	assert.Equal(t, "image/png", st.sheets[0].MimeType)
}

func TestProcessSheets_Cancelled(t *testing.T) {
	st := &fakeStore{}
	analyzer := vision.NewAnalyzer(&fakeVisionLLM{}, config.VisionPrompts{}, nil)
	p := NewPipeline(analyzer, st, config.IngestConfig{BatchSize: 2, BatchDelayMs: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := p.ProcessSheets(ctx, []model.SheetImage{
		{ProjectID: "p1", SheetNumber: "C-1", MimeType: "image/png", Data: []byte{1}},
	}, "valve")
	assert.Equal(t, 0, result.Components)
}
