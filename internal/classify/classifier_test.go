package classify

import (
	"testing"

	"github.com/plansmith/takeoff/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestClassify_Aggregation(t *testing.T) {
	c := Classify("what is the total length of water line A")
	assert.Equal(t, model.QueryAggregation, c.Type)
	assert.Equal(t, model.IntentQuantitative, c.Intent)
	assert.True(t, c.IsAggregation)
	assert.True(t, c.NeedsCompleteData)
	assert.Equal(t, "Water Line A", c.SystemName)
}

func TestClassify_Quantitative(t *testing.T) {
	c := Classify(`how many 12" gate valves are on the project`)
	assert.Equal(t, model.QueryQuantitative, c.Type)
	assert.Equal(t, model.IntentQuantitative, c.Intent)
	assert.True(t, c.NeedsDirectLookup)
	assert.True(t, c.NeedsCompleteData)
	assert.Equal(t, "gate valve", c.ItemName)
	assert.Equal(t, "12-IN", c.SizeFilter)
}

func TestClassify_QuantitativeCrossing(t *testing.T) {
	// Counting crossings still needs the vision path, not vector search.
	c := Classify("how many utility crossings are there")
	assert.Equal(t, model.QueryQuantitative, c.Type)
	assert.True(t, c.NeedsVisualAnalysis)
	assert.False(t, c.NeedsVectorSearch)
}

func TestClassify_Crossing(t *testing.T) {
	c := Classify("what utilities cross the water line")
	assert.Equal(t, model.QueryCrossing, c.Type)
	assert.Equal(t, model.IntentLocational, c.Intent)
	assert.True(t, c.NeedsVisualAnalysis)
	assert.False(t, c.NeedsVectorSearch)
}

func TestClassify_SpecificationNotQuantitative(t *testing.T) {
	c := Classify("tell me about the spec for pipe bedding")
	assert.Equal(t, model.QuerySpecification, c.Type)
	assert.Equal(t, model.IntentInformational, c.Intent)
	assert.False(t, c.NeedsCompleteData)
}

func TestClassify_Location(t *testing.T) {
	c := Classify("where does force main B terminate")
	assert.Equal(t, model.QueryLocation, c.Type)
	assert.Equal(t, model.IntentLocational, c.Intent)
	assert.Equal(t, "Force Main B", c.SystemName)
}

func TestClassify_GeneralFallback(t *testing.T) {
	c := Classify("who is the engineer of record")
	assert.Equal(t, model.QueryGeneral, c.Type)
	assert.Equal(t, model.IntentInformational, c.Intent)
	assert.Equal(t, 0.5, c.Confidence)
	assert.True(t, c.NeedsVectorSearch)
}

func TestClassify_Deterministic(t *testing.T) {
	q := "how many 8 inch gate valves are at station 24+93.06"
	assert.Equal(t, Classify(q), Classify(q))
}

func TestClassify_PriorityOrder(t *testing.T) {
	// "total" and "how many" both present: aggregation wins.
	c := Classify("how many valves total")
	assert.Equal(t, model.QueryAggregation, c.Type)
	assert.True(t, c.IsAggregation)
}
