// Package reconcile merges structured component records extracted from
// drawings: it validates stations, filters by component category and size,
// deduplicates across sources, and aggregates quantities with an audit trail.
package reconcile

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/plansmith/takeoff/internal/model"
	"github.com/plansmith/takeoff/internal/station"
)

// breakdownLimit bounds the per-size breakdown emitted for aggregation
// queries; above it only a summary line is produced.
const breakdownLimit = 10

// Filters narrows a reconciliation run to one component category and,
// optionally, one exact size.
type Filters struct {
	ItemName string
	Size     string
}

// categoryRes maps a requested component category to the drawing-label
// variants that belong to it. Lookup is on the singular lowercase category.
var categoryRes = map[string]*regexp.Regexp{
	"valve":             regexp.MustCompile(`(?i)\b(gate|butterfly|check|plug|tapping|air release)?\s*valve`),
	"gate valve":        regexp.MustCompile(`(?i)\bgate\s+valve`),
	"butterfly valve":   regexp.MustCompile(`(?i)\bbutterfly\s+valve`),
	"check valve":       regexp.MustCompile(`(?i)\bcheck\s+valve`),
	"air release valve": regexp.MustCompile(`(?i)\bair\s+release\s+valve`),
	"hydrant":           regexp.MustCompile(`(?i)\b(fire\s+)?hydrant`),
	"fire hydrant":      regexp.MustCompile(`(?i)\bfire\s+hydrant`),
	"manhole":           regexp.MustCompile(`(?i)\bmanhole`),
	"fitting":           regexp.MustCompile(`(?i)\b(tee|bend|elbow|reducer|cap|plug|coupling|sleeve|cross|fitting)`),
	"tee":               regexp.MustCompile(`(?i)\btee`),
	"bend":              regexp.MustCompile(`(?i)\b(bend|elbow)`),
	"reducer":           regexp.MustCompile(`(?i)\breducer`),
	"blow-off":          regexp.MustCompile(`(?i)\bblow[- ]?off`),
	"thrust block":      regexp.MustCompile(`(?i)\bthrust\s+block`),
	"pipe":              regexp.MustCompile(`(?i)\b(pipe|main|line)`),
}

// Engine runs the reconciliation pipeline. It holds no state across calls.
type Engine struct {
	log *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Reconcile deduplicates, filters, and aggregates raw extracted records.
// Records with unparseable stations are excluded and logged, never counted.
// TotalCount is the sum of kept quantities.
func (e *Engine) Reconcile(records []model.ExtractedComponent, f Filters) model.ReconcileResult {
	var result model.ReconcileResult

	// Step 1: validity filter. A suspicious station disqualifies the record.
	valid := records[:0:0]
	for _, r := range records {
		if r.Station != "" && !station.Valid(r.Station) {
			e.log.Warn("excluding record with invalid station",
				zap.String("name", r.Name),
				zap.String("station", r.Station))
			result.Excluded++
			continue
		}
		if r.Quantity < 1 {
			e.log.Warn("excluding record with non-positive quantity",
				zap.String("name", r.Name),
				zap.Int("quantity", r.Quantity))
			result.Excluded++
			continue
		}
		valid = append(valid, r)
	}

	// Step 2: predicate filter on category, then exact size.
	kept := valid[:0:0]
	for _, r := range valid {
		if f.ItemName != "" && !MatchesCategory(r.Name, f.ItemName) {
			continue
		}
		if f.Size != "" && !sizeMatches(r.Size, f.Size) {
			continue
		}
		kept = append(kept, r)
	}

	// Dedup runs before aggregation so duplicates never inflate sums.
	kept = Deduplicate(kept)

	// Step 3: group by normalized size, sum quantities, weight confidence
	// by quantity within each group.
	type acc struct {
		count   int
		confSum float64
	}
	groups := map[string]*acc{}
	for _, r := range kept {
		key := NormalizeSize(r.Size)
		if key == "" {
			key = "unsized"
		}
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
		}
		g.count += r.Quantity
		g.confSum += r.Confidence * float64(r.Quantity)
		result.TotalCount += r.Quantity
	}

	for size, g := range groups {
		result.BySize = append(result.BySize, model.SizeGroup{
			Size:          size,
			Count:         g.count,
			AvgConfidence: g.confSum / float64(g.count),
		})
	}
	sort.Slice(result.BySize, func(i, j int) bool {
		return result.BySize[i].Size < result.BySize[j].Size
	})

	result.Items = kept
	return result
}

// Sum is the aggregation-query variant: identical pipeline, but the per-size
// breakdown is emitted only when the distinct item count stays within the
// response-size bound.
func (e *Engine) Sum(records []model.ExtractedComponent, f Filters) model.ReconcileResult {
	result := e.Reconcile(records, f)
	if len(result.Items) > breakdownLimit {
		result.BySize = nil
	}
	return result
}

// MatchesCategory reports whether a drawing label belongs to the requested
// component category. Unknown categories fall back to substring matching.
func MatchesCategory(name, category string) bool {
	cat := strings.ToLower(strings.TrimSpace(category))
	if re, ok := categoryRes[cat]; ok {
		return re.MatchString(name)
	}
	return strings.Contains(strings.ToLower(name), cat)
}

// NormalizeSize reduces a size label to its canonical "N-IN" form.
func NormalizeSize(size string) string {
	n, ok := leadingInt(size)
	if !ok {
		return ""
	}
	return strconv.Itoa(n) + "-IN"
}

// sizeMatches compares on the leading integer only; a record without a size
// never matches a size-filtered query.
func sizeMatches(recordSize, filterSize string) bool {
	rn, ok := leadingInt(recordSize)
	if !ok {
		return false
	}
	fn, ok := leadingInt(filterSize)
	if !ok {
		return false
	}
	return rn == fn
}

var leadingIntRe = regexp.MustCompile(`^\s*(\d{1,3})`)

func leadingInt(s string) (int, bool) {
	m := leadingIntRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
