package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	v, err := Parse("24+93.06")
	assert.NoError(t, err)
	assert.Equal(t, 2493.06, v)

	v, err = Parse("0+00")
	assert.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = Parse(" 32+62.01 ")
	assert.NoError(t, err)
	assert.Equal(t, 3262.01, v)
}

func TestParse_RejectsAnnotations(t *testing.T) {
	// Common false positives from upstream text extraction.
	bad := []string{
		"2+16-27 RT",
		"15+00 LT",
		"10+50 25' O/S",
		"ROAD 'A' B STA 40+45.77",
		"MATCH LINE - STA 4+38.83",
		"",
		"1234+00",
		"12+345",
		"not a station",
	}
	for _, s := range bad {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalid, "expected rejection for %q", s)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "12+34.56", Normalize("12+34.56"))
	assert.Equal(t, "12+05.00", Normalize("012+05"))
	assert.Equal(t, "0+00.00", Normalize("0+00"))
	assert.Equal(t, "", Normalize("2+16-27 RT"))
}

func TestApproximatelyEqual(t *testing.T) {
	assert.True(t, ApproximatelyEqual("12+34.00", "12+34.50", 1.0))
	assert.True(t, ApproximatelyEqual("12+34", "12+35.00", 1.0))
	assert.False(t, ApproximatelyEqual("12+34", "12+36.50", 1.0))
	assert.False(t, ApproximatelyEqual("garbage", "12+34", 1.0))
}
