package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/plansmith/takeoff/internal/model"
)

// indexPenalty discounts lengths that only exist on an index or
// table-of-contents sheet.
const indexPenalty = 0.7

// indexCaution is attached verbatim to index-sourced lengths.
const indexCaution = "length may come from an index sheet and could be incomplete"

// PairTerminations derives run lengths from BEGIN+END pairs sharing a
// utility name. A length is reported only when both endpoints exist; partial
// data is returned as warnings, never silently dropped.
func (e *Engine) PairTerminations(points []model.TerminationPoint) ([]model.LengthResult, []string) {
	type pair struct {
		begin *model.TerminationPoint
		end   *model.TerminationPoint
	}
	byUtility := map[string]*pair{}
	var order []string

	for i := range points {
		p := points[i]
		key := strings.Join(strings.Fields(strings.ToLower(p.UtilityName)), " ")
		pr, ok := byUtility[key]
		if !ok {
			pr = &pair{}
			byUtility[key] = pr
			order = append(order, key)
		}
		switch p.Type {
		case model.TerminationBegin:
			if pr.begin == nil || p.Confidence > pr.begin.Confidence {
				pr.begin = &points[i]
			}
		case model.TerminationEnd, model.TerminationTerminus:
			if pr.end == nil || p.Confidence > pr.end.Confidence {
				pr.end = &points[i]
			}
		case model.TerminationTieIn:
			// A tie-in stands in for whichever endpoint is missing.
			if pr.begin == nil {
				pr.begin = &points[i]
			} else if pr.end == nil {
				pr.end = &points[i]
			}
		}
	}
	sort.Strings(order)

	var results []model.LengthResult
	var warnings []string
	for _, key := range order {
		pr := byUtility[key]
		switch {
		case pr.begin != nil && pr.end != nil:
			conf := pr.begin.Confidence
			if pr.end.Confidence < conf {
				conf = pr.end.Confidence
			}
			results = append(results, model.LengthResult{
				UtilityName:  pr.begin.UtilityName,
				BeginStation: pr.begin.Station,
				EndStation:   pr.end.Station,
				LengthLF:     pr.end.StationNumeric - pr.begin.StationNumeric,
				Source:       model.LengthFromTerminations,
				Confidence:   conf,
			})
		case pr.begin != nil:
			w := fmt.Sprintf("found BEGIN at %s for %q but no END; length not computed", pr.begin.Station, pr.begin.UtilityName)
			warnings = append(warnings, w)
			e.log.Warn("unpaired termination point", zap.String("utility", pr.begin.UtilityName), zap.String("have", "BEGIN"))
		case pr.end != nil:
			w := fmt.Sprintf("found END at %s for %q but no BEGIN; length not computed", pr.end.Station, pr.end.UtilityName)
			warnings = append(warnings, w)
			e.log.Warn("unpaired termination point", zap.String("utility", pr.end.UtilityName), zap.String("have", "END"))
		}
	}
	return results, warnings
}

// ResolveLength picks the most trustworthy of up to three candidate lengths
// for the same run. Termination-derived lengths always win; a stored
// aggregate beats an index-derived value; an index-derived value is the last
// resort and is returned with a confidence penalty and an explicit caution.
func ResolveLength(fromTerminations, fromAggregate, fromIndex *model.LengthResult) *model.LengthResult {
	if fromTerminations != nil {
		r := *fromTerminations
		r.Source = model.LengthFromTerminations
		return &r
	}
	if fromAggregate != nil {
		r := *fromAggregate
		r.Source = model.LengthFromAggregate
		return &r
	}
	if fromIndex != nil {
		r := *fromIndex
		r.Source = model.LengthFromIndex
		r.Confidence *= indexPenalty
		r.Warning = indexCaution
		return &r
	}
	return nil
}
