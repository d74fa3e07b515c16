package reconcile

import (
	"strings"

	"github.com/plansmith/takeoff/internal/model"
	"github.com/plansmith/takeoff/internal/station"
)

// IdentityKey is the deduplication identity of a component:
// (normalizedName, normalizedSize, normalizedStation). Two records sharing a
// key describe the same physical item seen twice.
func IdentityKey(c model.ExtractedComponent) string {
	name := strings.Join(strings.Fields(strings.ToLower(c.Name)), " ")
	return name + "|" + NormalizeSize(c.Size) + "|" + station.Normalize(c.Station)
}

// Deduplicate collapses records sharing an identity key, keeping the
// higher-confidence record for each key. Input order is preserved for the
// survivors; inputs are never mutated.
func Deduplicate(records []model.ExtractedComponent) []model.ExtractedComponent {
	byKey := make(map[string]int, len(records))
	out := records[:0:0]
	for _, r := range records {
		key := IdentityKey(r)
		if i, seen := byKey[key]; seen {
			if r.Confidence > out[i].Confidence {
				out[i] = r
			}
			continue
		}
		byKey[key] = len(out)
		out = append(out, r)
	}
	return out
}

// MergeWithStored reconciles freshly extracted records against already-stored
// ones so re-processing a sheet does not create duplicates. A fresh record
// whose identity key collides with a stored record survives only if its
// confidence is higher; station comparison additionally tolerates small
// drift between extraction passes.
func MergeWithStored(fresh, stored []model.ExtractedComponent) []model.ExtractedComponent {
	merged := Deduplicate(stored)
	for _, f := range fresh {
		idx := -1
		key := IdentityKey(f)
		for i, s := range merged {
			if IdentityKey(s) == key {
				idx = i
				break
			}
			if sameItemNearby(f, s) {
				idx = i
				break
			}
		}
		if idx == -1 {
			merged = append(merged, f)
			continue
		}
		if f.Confidence > merged[idx].Confidence {
			merged[idx] = f
		}
	}
	return merged
}

func sameItemNearby(a, b model.ExtractedComponent) bool {
	if !strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(b.Name)) {
		return false
	}
	if NormalizeSize(a.Size) != NormalizeSize(b.Size) {
		return false
	}
	return station.ApproximatelyEqual(a.Station, b.Station, 1.0)
}
