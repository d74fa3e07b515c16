// Package station parses and normalizes station strings ("12+34.56"), the
// linear-distance markers used along a utility alignment.
package station

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalid marks a string that is not a usable station value.
var ErrInvalid = errors.New("invalid station")

var stationRe = regexp.MustCompile(`^(\d{1,3})\+(\d{2}(?:\.\d{1,2})?)$`)

// Upstream text extraction produces station-shaped strings that are not
// stations: offsets, deflection callouts, road references, match lines.
// These must be rejected outright, not mis-parsed.
var rejectRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:RT|LT)\b`),
	regexp.MustCompile(`(?i)[QO]/S`),
	regexp.MustCompile(`(?i)\bDEFL`),
	regexp.MustCompile(`(?i)\bROAD\b`),
	regexp.MustCompile(`(?i)MATCH\s*LINE`),
	regexp.MustCompile(`\d\+\d+-\d`),
}

// Parse converts a station string to its numeric form in feet
// ("24+93.06" -> 2493.06). It returns ErrInvalid for malformed values and
// for strings carrying offset, road, or match-line annotations.
func Parse(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, ErrInvalid
	}
	for _, re := range rejectRes {
		if re.MatchString(trimmed) {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
	}
	m := stationRe.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	minor, err := strconv.ParseFloat(m[2], 64)
	if err != nil || minor >= 100 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return float64(major)*100 + minor, nil
}

// Valid reports whether s parses as a station.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Normalize returns the canonical form used in deduplication keys,
// tolerant of leading zeros and whitespace ("012+05" -> "12+05.00").
// Unparseable input normalizes to the empty string.
func Normalize(s string) string {
	v, err := Parse(s)
	if err != nil {
		return ""
	}
	major := int(v / 100)
	minor := math.Mod(v, 100)
	return fmt.Sprintf("%d+%05.2f", major, minor)
}

// ApproximatelyEqual reports whether two stations lie within toleranceFt of
// each other. Used to match freshly extracted quantities against stored ones
// so re-processing a sheet does not create duplicates. Either side failing to
// parse is never a match.
func ApproximatelyEqual(a, b string, toleranceFt float64) bool {
	av, err := Parse(a)
	if err != nil {
		return false
	}
	bv, err := Parse(b)
	if err != nil {
		return false
	}
	return math.Abs(av-bv) <= toleranceFt
}
