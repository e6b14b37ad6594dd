package retrieval

import (
	"math"
	"testing"
)

func TestCosineIdenticalVectors(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8}
	got := Cosine(v, v)
	if math.Abs(got-1.0) > 1e-6 {
		t.Fatalf("expected 1.0, got %v", got)
	}
}

func TestCosineOrthogonalVectors(t *testing.T) {
	got := Cosine([]float32{1, 0}, []float32{0, 1})
	if math.Abs(got) > 1e-9 {
		t.Fatalf("expected 0.0, got %v", got)
	}
}

func TestCosineOppositeVectors(t *testing.T) {
	got := Cosine([]float32{2, 1}, []float32{-2, -1})
	if math.Abs(got+1.0) > 1e-6 {
		t.Fatalf("expected -1.0, got %v", got)
	}
}

func TestCosineZeroNorm(t *testing.T) {
	if got := Cosine([]float32{0, 0}, []float32{1, 2}); got != 0 {
		t.Fatalf("zero-norm query: expected 0, got %v", got)
	}
	if got := Cosine([]float32{1, 2}, []float32{0, 0}); got != 0 {
		t.Fatalf("zero-norm candidate: expected 0, got %v", got)
	}
}

func TestRankSortedDescending(t *testing.T) {
	query := []float32{1, 0}
	cands := []Candidate[string]{
		{Record: "weak", Vector: []float32{0.1, 1}},
		{Record: "strong", Vector: []float32{1, 0.01}},
		{Record: "medium", Vector: []float32{1, 1}},
	}
	got := Rank(query, cands, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("scores not non-increasing: %v", got)
		}
	}
	if got[0].Record != "strong" {
		t.Fatalf("expected strongest candidate first, got %q", got[0].Record)
	}
}

func TestRankClampsK(t *testing.T) {
	query := []float32{1, 0}
	cands := []Candidate[int]{
		{Record: 1, Vector: []float32{1, 0}},
		{Record: 2, Vector: []float32{0, 1}},
	}
	got := Rank(query, cands, 10)
	if len(got) != 2 {
		t.Fatalf("k beyond candidate count: expected 2 results, got %d", len(got))
	}
	seen := map[int]bool{}
	for _, r := range got {
		if seen[r.Record] {
			t.Fatalf("duplicate record %d", r.Record)
		}
		seen[r.Record] = true
	}
}

func TestRankEmptyAndZeroK(t *testing.T) {
	if got := Rank[string]([]float32{1}, nil, 5); len(got) != 0 {
		t.Fatalf("empty candidates: expected empty result, got %v", got)
	}
	cands := []Candidate[string]{{Record: "a", Vector: []float32{1}}}
	if got := Rank([]float32{1}, cands, 0); len(got) != 0 {
		t.Fatalf("k=0: expected empty result, got %v", got)
	}
}

func TestRankStableOnTies(t *testing.T) {
	query := []float32{1, 0}
	same := []float32{1, 0}
	cands := []Candidate[string]{
		{Record: "first", Vector: same},
		{Record: "second", Vector: same},
		{Record: "third", Vector: same},
	}
	got := Rank(query, cands, 3)
	order := []string{"first", "second", "third"}
	for i, want := range order {
		if got[i].Record != want {
			t.Fatalf("tie order broken: expected %q at %d, got %q", want, i, got[i].Record)
		}
	}
}
