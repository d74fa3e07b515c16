package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plansmith/takeoff/internal/config"
	"github.com/plansmith/takeoff/internal/model"
)

type mockVisionLLM struct {
	response string
	err      error
	prompt   string
}

func (m *mockVisionLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func (m *mockVisionLLM) GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, model.UsageStats, error) {
	m.prompt = prompt
	return m.response, model.UsageStats{InputTokens: 100, OutputTokens: 50}, m.err
}

func sheet() model.SheetImage {
	return model.SheetImage{ProjectID: "p1", SheetNumber: "C-12", MimeType: "image/png", Data: []byte{1}}
}

func TestExtractComponents_ValidatesRecords(t *testing.T) {
	mock := &mockVisionLLM{response: `Here you go:
{"components": [
  {"name": "gate valve", "size": "12-IN", "quantity": 0, "station": "24+93.06", "confidence": 1.4},
  {"name": "", "quantity": 1, "confidence": 0.9},
  {"name": "fire hydrant", "quantity": 2, "confidence": 0.8, "source_context": "callout"}
]}`}
	a := NewAnalyzer(mock, config.VisionPrompts{}, nil)

	out, usage, err := a.ExtractComponents(context.Background(), sheet(), "valve")
	assert.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Quantity)
	assert.Equal(t, 1.0, out[0].Confidence)
	assert.Equal(t, "C-12", out[0].SheetNumber)
	assert.Equal(t, model.SourceUnknown, out[0].SourceContext)
	assert.Equal(t, 100, usage.InputTokens)
	assert.Contains(t, mock.prompt, "valve")
}

func TestDetectTerminations_DropsInvalidStations(t *testing.T) {
	mock := &mockVisionLLM{response: `{"termination_points": [
  {"utility_name": "Water Line A", "type": "BEGIN", "station": "0+00", "confidence": 0.9},
  {"utility_name": "Water Line A", "type": "END", "station": "MATCH LINE - STA 4+38.83", "confidence": 0.9}
]}`}
	a := NewAnalyzer(mock, config.VisionPrompts{}, nil)

	out, _, err := a.DetectTerminations(context.Background(), sheet())
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 0.0, out[0].StationNumeric)
	assert.Equal(t, model.TerminationBegin, out[0].Type)
}

func TestDetectCrossings(t *testing.T) {
	mock := &mockVisionLLM{response: `{"crossings": [
  {"crossing_utility_code": "GAS", "full_name": "gas line", "station": "12+00", "is_existing": true, "size": "8-IN", "confidence": 0.85},
  {"crossing_utility_code": "", "full_name": "", "confidence": 0.5}
]}`}
	a := NewAnalyzer(mock, config.VisionPrompts{}, nil)

	out, _, err := a.DetectCrossings(context.Background(), sheet(), "Water Line A")
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.True(t, out[0].IsExisting)
	assert.Contains(t, mock.prompt, "Water Line A")
}

func TestExtractComponents_ParseError(t *testing.T) {
	mock := &mockVisionLLM{response: "I could not read the sheet."}
	a := NewAnalyzer(mock, config.VisionPrompts{}, nil)

	_, _, err := a.ExtractComponents(context.Background(), sheet(), "valve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse failed")
}
