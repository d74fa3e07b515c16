package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plansmith/takeoff/internal/model"
)

func comp(name, size, sta string, qty int, conf float64) model.ExtractedComponent {
	return model.ExtractedComponent{
		Name: name, Size: size, Station: sta, Quantity: qty,
		SourceContext: model.SourceCallout, Confidence: conf,
	}
}

func TestReconcile_ExcludesInvalidStations(t *testing.T) {
	e := NewEngine(nil)
	records := []model.ExtractedComponent{
		comp("gate valve", "12-IN", "24+93.06", 1, 0.9),
		comp("gate valve", "12-IN", "2+16-27 RT", 1, 0.9),
		comp("gate valve", "12-IN", "MATCH LINE - STA 4+38.83", 1, 0.9),
	}
	r := e.Reconcile(records, Filters{ItemName: "gate valve"})
	assert.Equal(t, 1, r.TotalCount)
	assert.Equal(t, 2, r.Excluded)
}

func TestReconcile_SizeFilterExact(t *testing.T) {
	e := NewEngine(nil)
	records := []model.ExtractedComponent{
		comp("gate valve", "12-IN", "1+00", 2, 0.9),
		comp("gate valve", "8-IN", "2+00", 1, 0.9),
		comp("gate valve", "", "3+00", 1, 0.9),
	}
	r := e.Reconcile(records, Filters{ItemName: "gate valve", Size: "12-IN"})
	assert.Equal(t, 2, r.TotalCount)
	for _, item := range r.Items {
		assert.Equal(t, "12-IN", item.Size)
	}
}

func TestReconcile_CategoryFamilies(t *testing.T) {
	e := NewEngine(nil)
	records := []model.ExtractedComponent{
		comp("12-IN GATE VALVE", "12-IN", "1+00", 1, 0.9),
		comp("Butterfly Valve", "8-IN", "2+00", 1, 0.9),
		comp("fire hydrant", "", "3+00", 1, 0.9),
	}
	r := e.Reconcile(records, Filters{ItemName: "valve"})
	assert.Equal(t, 2, r.TotalCount)

	r = e.Reconcile(records, Filters{ItemName: "hydrant"})
	assert.Equal(t, 1, r.TotalCount)
}

func TestReconcile_GroupsBySize(t *testing.T) {
	e := NewEngine(nil)
	records := []model.ExtractedComponent{
		comp("gate valve", "12-IN", "1+00", 2, 0.8),
		comp("gate valve", `12"`, "2+00", 1, 0.6),
		comp("gate valve", "8-IN", "3+00", 1, 0.9),
	}
	r := e.Reconcile(records, Filters{ItemName: "gate valve"})
	assert.Equal(t, 4, r.TotalCount)
	assert.Len(t, r.BySize, 2)

	var twelve model.SizeGroup
	for _, g := range r.BySize {
		if g.Size == "12-IN" {
			twelve = g
		}
	}
	assert.Equal(t, 3, twelve.Count)
	// Confidence weighted by quantity: (0.8*2 + 0.6*1) / 3.
	assert.InDelta(t, 0.7333, twelve.AvgConfidence, 0.001)
}

func TestDeduplicate_KeepsHigherConfidence(t *testing.T) {
	records := []model.ExtractedComponent{
		comp("Gate Valve", "12-IN", "12+34.56", 1, 0.7),
		comp("gate valve", `12"`, "012+34.56", 1, 0.9),
		comp("gate valve", "12-IN", "20+00", 1, 0.8),
	}
	out := Deduplicate(records)
	assert.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].Confidence)
}

func TestMergeWithStored(t *testing.T) {
	stored := []model.ExtractedComponent{
		comp("gate valve", "12-IN", "12+34.00", 1, 0.9),
	}
	fresh := []model.ExtractedComponent{
		// Same item, half a foot of extraction drift.
		comp("gate valve", "12-IN", "12+34.50", 1, 0.7),
		comp("gate valve", "12-IN", "40+00", 1, 0.8),
	}
	merged := MergeWithStored(fresh, stored)
	assert.Len(t, merged, 2)
	assert.Equal(t, 0.9, merged[0].Confidence)
}

func TestSum_BreakdownBound(t *testing.T) {
	e := NewEngine(nil)
	var records []model.ExtractedComponent
	for i := 0; i < 12; i++ {
		records = append(records, comp("gate valve", "12-IN", "", 1, 0.9))
	}
	// Distinct names keep the records from collapsing.
	for i := range records {
		records[i].Name = records[i].Name + " " + string(rune('a'+i))
	}
	r := e.Sum(records, Filters{ItemName: "valve"})
	assert.Equal(t, 12, r.TotalCount)
	assert.Nil(t, r.BySize)
}
