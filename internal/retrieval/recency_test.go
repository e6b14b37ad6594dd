package retrieval

import (
	"math"
	"testing"
	"time"
)

type datedItem struct {
	name string
	at   *time.Time
}

func (d datedItem) Timestamp() (time.Time, bool) {
	if d.at == nil {
		return time.Time{}, false
	}
	return *d.at, true
}

func ts(t time.Time) *time.Time { return &t }

func TestBlendRecencyZeroWeightPreservesOrder(t *testing.T) {
	now := time.Now()
	old := now.AddDate(-3, 0, 0)
	results := []Ranked[datedItem]{
		{Record: datedItem{"best", ts(old)}, Score: 0.9},
		{Record: datedItem{"mid", ts(now)}, Score: 0.5},
		{Record: datedItem{"worst", ts(now)}, Score: 0.1},
	}
	got := BlendRecency(results, 0, 1, now)
	for i, want := range []string{"best", "mid", "worst"} {
		if got[i].Record.name != want {
			t.Fatalf("order changed with zero recency weight: expected %q at %d, got %q", want, i, got[i].Record.name)
		}
	}
	for i := range got {
		if math.Abs(got[i].Score-results[i].Score) > 1e-9 {
			t.Fatalf("score changed with zero recency weight: %v vs %v", got[i].Score, results[i].Score)
		}
	}
}

func TestBlendRecencyEqualWeightsOrdersByRecency(t *testing.T) {
	now := time.Now()
	results := []Ranked[datedItem]{
		{Record: datedItem{"oldest", ts(now.AddDate(-4, 0, 0))}, Score: 0.6},
		{Record: datedItem{"newest", ts(now)}, Score: 0.6},
		{Record: datedItem{"middle", ts(now.AddDate(-2, 0, 0))}, Score: 0.6},
	}
	got := BlendRecency(results, 0.5, 0.5, now)
	for i, want := range []string{"newest", "middle", "oldest"} {
		if got[i].Record.name != want {
			t.Fatalf("expected %q at %d, got %q", want, i, got[i].Record.name)
		}
	}
}

func TestBlendRecencyMissingDateIsMaximallyRecent(t *testing.T) {
	now := time.Now()
	results := []Ranked[datedItem]{
		{Record: datedItem{"dated", ts(now.AddDate(-4, 0, 0))}, Score: 0.5},
		{Record: datedItem{"undated", nil}, Score: 0.5},
	}
	got := BlendRecency(results, 0.5, 0.5, now)
	if got[0].Record.name != "undated" {
		t.Fatalf("expected undated record first, got %q", got[0].Record.name)
	}
}

func TestBlendRecencyNormalizesWeights(t *testing.T) {
	now := time.Now()
	results := []Ranked[datedItem]{{Record: datedItem{"a", ts(now)}, Score: 0.8}}
	// 2:6 must behave exactly like 0.25:0.75.
	got := BlendRecency(results, 2, 6, now)
	want := 0.75*0.8 + 0.25*1.0
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Fatalf("expected normalized score %v, got %v", want, got[0].Score)
	}
}

func TestBlendRecencyBothWeightsZero(t *testing.T) {
	now := time.Now()
	results := []Ranked[datedItem]{{Record: datedItem{"a", ts(now)}, Score: 0.4}}
	got := BlendRecency(results, 0, 0, now)
	want := 0.5*0.4 + 0.5*1.0
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Fatalf("expected equal-weight score %v, got %v", want, got[0].Score)
	}
}

func TestRecencyScoreHorizon(t *testing.T) {
	now := time.Now()
	if got := RecencyScore(now, now); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected 1.0 for now, got %v", got)
	}
	if got := RecencyScore(now.AddDate(-10, 0, 0), now); got != 0 {
		t.Fatalf("expected 0 beyond horizon, got %v", got)
	}
	mid := RecencyScore(now.AddDate(0, 0, -912), now)
	if mid <= 0 || mid >= 1 {
		t.Fatalf("expected mid-horizon score in (0,1), got %v", mid)
	}
}
