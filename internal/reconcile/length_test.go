package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plansmith/takeoff/internal/model"
)

func term(utility string, typ model.TerminationType, sta string, numeric, conf float64) model.TerminationPoint {
	return model.TerminationPoint{
		UtilityName: utility, Type: typ, Station: sta,
		StationNumeric: numeric, Confidence: conf,
	}
}

func TestPairTerminations_LengthRoundTrip(t *testing.T) {
	e := NewEngine(nil)
	points := []model.TerminationPoint{
		term("Water Line A", model.TerminationBegin, "0+00", 0, 0.9),
		term("Water Line A", model.TerminationEnd, "32+62.01", 3262.01, 0.8),
	}
	results, warnings := e.PairTerminations(points)
	assert.Empty(t, warnings)
	assert.Len(t, results, 1)
	assert.Equal(t, 3262.01, results[0].LengthLF)
	assert.Equal(t, 0.8, results[0].Confidence)
	assert.Equal(t, model.LengthFromTerminations, results[0].Source)
}

func TestPairTerminations_PartialDataWarns(t *testing.T) {
	e := NewEngine(nil)
	points := []model.TerminationPoint{
		term("Force Main B", model.TerminationBegin, "5+00", 500, 0.9),
	}
	results, warnings := e.PairTerminations(points)
	assert.Empty(t, results)
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "no END")
}

func TestPairTerminations_CaseInsensitiveUtilityMatch(t *testing.T) {
	e := NewEngine(nil)
	points := []model.TerminationPoint{
		term("water line A", model.TerminationBegin, "0+00", 0, 0.9),
		term("WATER  LINE A", model.TerminationEnd, "10+00", 1000, 0.9),
	}
	results, _ := e.PairTerminations(points)
	assert.Len(t, results, 1)
	assert.Equal(t, 1000.0, results[0].LengthLF)
}

func TestResolveLength_Priority(t *testing.T) {
	fromTerm := &model.LengthResult{LengthLF: 3262.01, Confidence: 0.9}
	fromAgg := &model.LengthResult{LengthLF: 3200, Confidence: 0.8}
	fromIdx := &model.LengthResult{LengthLF: 3000, Confidence: 0.8}

	r := ResolveLength(fromTerm, fromAgg, fromIdx)
	assert.Equal(t, 3262.01, r.LengthLF)
	assert.Equal(t, model.LengthFromTerminations, r.Source)

	r = ResolveLength(nil, fromAgg, fromIdx)
	assert.Equal(t, 3200.0, r.LengthLF)
	assert.Equal(t, model.LengthFromAggregate, r.Source)
}

func TestResolveLength_IndexPenalty(t *testing.T) {
	fromIdx := &model.LengthResult{LengthLF: 3000, Confidence: 0.8}
	r := ResolveLength(nil, nil, fromIdx)
	assert.InDelta(t, 0.56, r.Confidence, 1e-9)
	assert.NotEmpty(t, r.Warning)
	// The caller's copy is untouched.
	assert.Equal(t, 0.8, fromIdx.Confidence)

	assert.Nil(t, ResolveLength(nil, nil, nil))
}
