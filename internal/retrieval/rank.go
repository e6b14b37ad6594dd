package retrieval

import (
	"math"
	"sort"
)

// Candidate pairs a record with its embedding vector.
type Candidate[T any] struct {
	Record T
	Vector []float32
}

// Ranked pairs a record with its similarity (or blended) score.
type Ranked[T any] struct {
	Record T       `json:"record"`
	Score  float64 `json:"score"`
}

// Cosine computes the cosine similarity between two vectors. It returns 0
// when either vector has zero norm; division by zero is never attempted.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores each candidate against the query vector by cosine similarity
// and returns the top k, sorted descending with ties preserving candidate
// input order. k larger than the candidate count returns all candidates;
// k <= 0 returns an empty slice. Candidates producing non-finite scores are
// excluded rather than surfaced as NaN.
func Rank[T any](query []float32, candidates []Candidate[T], k int) []Ranked[T] {
	if k <= 0 || len(candidates) == 0 {
		return []Ranked[T]{}
	}
	scored := make([]Ranked[T], 0, len(candidates))
	for _, c := range candidates {
		score := Cosine(query, c.Vector)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		scored = append(scored, Ranked[T]{Record: c.Record, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
