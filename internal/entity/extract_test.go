package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemName(t *testing.T) {
	assert.Equal(t, "Water Line A", SystemName("what is the total length of water line A"))
	assert.Equal(t, "Force Main B", SystemName("where does force main b terminate"))
	assert.Equal(t, "Storm Drain", SystemName("show me the storm drain profile"))
	assert.Equal(t, "", SystemName("how many gate valves are there"))
}

func TestItemName(t *testing.T) {
	assert.Equal(t, "gate valve", ItemName("how many gate valves are on this project"))
	assert.Equal(t, "fire hydrant", ItemName("count the fire hydrants"))
	assert.Equal(t, "valve", ItemName("list all valves"))
	assert.Equal(t, "tee", ItemName("where are the tees"))
	assert.Equal(t, "", ItemName("what is the contract number"))
}

func TestSize(t *testing.T) {
	assert.Equal(t, "12-IN", Size("how many 12 inch gate valves"))
	assert.Equal(t, "12-IN", Size("how many 12-in valves"))
	assert.Equal(t, "12-IN", Size(`how many 12" valves`))
	assert.Equal(t, "8-IN", Size("8 in. pipe"))
	assert.Equal(t, "", Size("how many valves"))
}

func TestStation(t *testing.T) {
	assert.Equal(t, "24+93.06", Station("what is at station 24+93.06"))
	assert.Equal(t, "", Station("nothing here"))
}

func TestSheetNumber(t *testing.T) {
	assert.Equal(t, "C-12", SheetNumber("what does sheet C-12 show"))
	assert.Equal(t, "5", SheetNumber("on sheet 5"))
	assert.Equal(t, "M-101", SheetNumber("see detail on M-101"))
	assert.Equal(t, "", SheetNumber("no reference"))
}
