package projectfin

import (
	"encoding/json"
	"strconv"
)

// SkipReason explains why a line contributed nothing to a dimension.
type SkipReason string

const (
	// SkipNone means the line is attributed with a positive fraction.
	SkipNone SkipReason = ""
	// SkipNoDistribution: the line carries no allocation map at all.
	SkipNoDistribution SkipReason = "no_distribution"
	// SkipMalformed: the map could not be decoded; the line is skipped
	// without failing the pass.
	SkipMalformed SkipReason = "malformed_distribution"
	// SkipNotAttributed: the map is valid but the dimension is not a key.
	SkipNotAttributed SkipReason = "not_attributed"
)

// Attribution is the typed outcome of resolving a line's allocation map
// against one dimension.
type Attribution struct {
	Fraction float64
	Skip     SkipReason
}

// Attributed reports whether the line contributes to the dimension.
func (a Attribution) Attributed() bool {
	return a.Skip == SkipNone
}

// ResolveAttribution decodes a percentage-keyed allocation map and looks
// up the share assigned to dimensionID. The map is keyed by the decimal
// string form of the dimension id with percentage values (0-100); the
// returned fraction is percentage/100. The raw payload may itself be a
// JSON-encoded string holding the map, which some upstream systems emit.
func ResolveAttribution(raw json.RawMessage, dimensionID int64) Attribution {
	dist, reason := decodeDistribution(raw)
	if reason != SkipNone {
		return Attribution{Skip: reason}
	}
	pct, ok := dist[strconv.FormatInt(dimensionID, 10)]
	if !ok || pct == 0 {
		return Attribution{Skip: SkipNotAttributed}
	}
	return Attribution{Fraction: pct / 100}
}

// DimensionIDs returns every numeric dimension key present in the map.
// Non-numeric keys are ignored; a malformed map yields nil.
func DimensionIDs(raw json.RawMessage) []int64 {
	dist, reason := decodeDistribution(raw)
	if reason != SkipNone {
		return nil
	}
	ids := make([]int64, 0, len(dist))
	for key := range dist {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func decodeDistribution(raw json.RawMessage) (map[string]float64, SkipReason) {
	if len(raw) == 0 {
		return nil, SkipNoDistribution
	}
	var dist map[string]float64
	if err := json.Unmarshal(raw, &dist); err != nil {
		// Tolerate the map being stored as serialized text.
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, SkipMalformed
		}
		if text == "" {
			return nil, SkipNoDistribution
		}
		if err := json.Unmarshal([]byte(text), &dist); err != nil {
			return nil, SkipMalformed
		}
	}
	if len(dist) == 0 {
		return nil, SkipNoDistribution
	}
	return dist, SkipNone
}
