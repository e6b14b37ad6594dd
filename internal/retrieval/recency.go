package retrieval

import (
	"sort"
	"time"
)

// maxRecencyDays is the horizon at which recency decays to zero: 5 years.
const maxRecencyDays = 365 * 5

// Dated is implemented by records that can report when they happened.
// The second return value is false when no timestamp is available.
type Dated interface {
	Timestamp() (time.Time, bool)
}

// RecencyScore returns a normalized time-decay signal in [0,1]: 1 for a
// record dated now, decaying linearly to 0 at the 5-year horizon, clamped
// at 0 for anything older.
func RecencyScore(itemDate, now time.Time) float64 {
	daysOld := now.Sub(itemDate).Hours() / 24
	score := 1 - daysOld/maxRecencyDays
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// BlendRecency re-scores a ranked list by combining each similarity score
// with a recency score. Weights are normalized to sum to 1 before use; if
// both are zero they are treated as equal. Records without a timestamp are
// treated as maximally recent rather than penalized. The result is re-sorted
// descending by combined score, stable on ties.
func BlendRecency[T Dated](results []Ranked[T], recencyWeight, relevanceWeight float64, now time.Time) []Ranked[T] {
	if len(results) == 0 {
		return results
	}
	total := recencyWeight + relevanceWeight
	if total == 0 {
		recencyWeight, relevanceWeight = 0.5, 0.5
	} else {
		recencyWeight /= total
		relevanceWeight /= total
	}

	blended := make([]Ranked[T], len(results))
	for i, r := range results {
		itemDate, ok := r.Record.Timestamp()
		if !ok {
			itemDate = now
		}
		blended[i] = Ranked[T]{
			Record: r.Record,
			Score:  relevanceWeight*r.Score + recencyWeight*RecencyScore(itemDate, now),
		}
	}
	sort.SliceStable(blended, func(i, j int) bool { return blended[i].Score > blended[j].Score })
	return blended
}
