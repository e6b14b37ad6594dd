package search

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

type vocabEncoder struct {
	vocab []string
	calls int
}

func (e *vocabEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(e.vocab)+1)
		lower := strings.ToLower(text)
		for j, word := range e.vocab {
			if strings.Contains(lower, word) {
				vec[j] = 1
			}
		}
		vec[len(e.vocab)] = 0.01
		out[i] = vec
	}
	return out, nil
}

func newTestDocs() []Document {
	now := time.Now()
	return []Document{
		{ConversationID: "conv-1", Transcript: "Patient reports chest pain radiating to the left arm", ChiefComplaint: "chest pain", Date: now.Add(-72 * time.Hour)},
		{ConversationID: "conv-2", Transcript: "Follow up for hypertension, blood pressure well controlled", ChiefComplaint: "hypertension follow up", Date: now.Add(-48 * time.Hour)},
		{ConversationID: "conv-3", Transcript: "Seasonal allergies, prescribed antihistamines", ChiefComplaint: "allergies", Date: now.Add(-24 * time.Hour)},
	}
}

func TestKeywordSearch(t *testing.T) {
	idx, err := NewPatientIndex()
	if err != nil {
		t.Fatalf("NewPatientIndex: %v", err)
	}
	for _, doc := range newTestDocs() {
		if err := idx.Add(doc, nil); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	hits, err := idx.KeywordSearch("chest pain", 5)
	if err != nil {
		t.Fatalf("KeywordSearch: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected hits for chest pain")
	}
	if hits[0].ConversationID != "conv-1" {
		t.Fatalf("expected conv-1 first, got %s", hits[0].ConversationID)
	}
	if hits[0].Rank != 1 {
		t.Fatalf("expected rank 1, got %d", hits[0].Rank)
	}
}

func TestVectorSearch(t *testing.T) {
	idx, err := NewPatientIndex()
	if err != nil {
		t.Fatalf("NewPatientIndex: %v", err)
	}
	docs := newTestDocs()
	vecs := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	for i, doc := range docs {
		if err := idx.Add(doc, vecs[i]); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	hits := idx.VectorSearch([]float32{0, 1, 0}, 2)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ConversationID != "conv-2" {
		t.Fatalf("expected conv-2 first, got %s", hits[0].ConversationID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("scores not descending: %v", hits)
	}
}

func TestFuseRRFPrefersAgreement(t *testing.T) {
	a := []Hit{
		{ConversationID: "conv-1", Rank: 1},
		{ConversationID: "conv-2", Rank: 2},
	}
	b := []Hit{
		{ConversationID: "conv-2", Rank: 1},
		{ConversationID: "conv-3", Rank: 2},
	}

	fused := FuseRRF(a, b, 3)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused hits, got %d", len(fused))
	}
	if fused[0].ConversationID != "conv-2" {
		t.Fatalf("document ranked by both lists should fuse first, got %s", fused[0].ConversationID)
	}
	for i, h := range fused {
		if h.Rank != i+1 {
			t.Fatalf("ranks not reassigned: %v", fused)
		}
	}
}

func TestFuseRRFTruncates(t *testing.T) {
	a := []Hit{{ConversationID: "conv-1", Rank: 1}, {ConversationID: "conv-2", Rank: 2}}
	fused := FuseRRF(a, nil, 1)
	if len(fused) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(fused))
	}
}

func TestServiceHybridSearch(t *testing.T) {
	enc := &vocabEncoder{vocab: []string{"chest", "pain", "hypertension", "allergies"}}
	svc := NewService(enc)

	if err := svc.Rebuild(context.Background(), "patient-1", newTestDocs()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	hits, ok, err := svc.Search(context.Background(), "patient-1", "chest pain", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !ok {
		t.Fatalf("expected index to exist")
	}
	if len(hits) == 0 || hits[0].ConversationID != "conv-1" {
		t.Fatalf("expected conv-1 first, got %v", hits)
	}
}

func TestServiceSearchUnknownPatient(t *testing.T) {
	svc := NewService(nil)
	_, ok, err := svc.Search(context.Background(), "patient-missing", "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if ok {
		t.Fatalf("expected no index for unknown patient")
	}
}

func TestSnippetTruncation(t *testing.T) {
	long := strings.Repeat("a", 400)
	if got := snippet(long); len([]rune(got)) != snippetLen+1 {
		t.Fatalf("unexpected snippet length %d", len([]rune(got)))
	}
	if got := snippet("short"); got != "short" {
		t.Fatalf("short text should be unchanged: %q", got)
	}
}

func TestSnippetMultibyteSafe(t *testing.T) {
	long := strings.Repeat("β", snippetLen+50)
	got := snippet(long)
	if !utf8.ValidString(got) {
		t.Fatalf("snippet split a rune: %q", got[:12])
	}
	if n := len([]rune(got)); n != snippetLen+1 {
		t.Fatalf("unexpected snippet rune length %d", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated snippet should end with ellipsis")
	}
}

func TestServiceInvalidate(t *testing.T) {
	svc := NewService(nil)
	docs := []Document{{ConversationID: "conv-1", Transcript: "persistent cough"}}
	if err := svc.Rebuild(context.Background(), "patient-1", docs); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if _, ok, err := svc.Search(context.Background(), "patient-1", "cough", 5); err != nil || !ok {
		t.Fatalf("expected index before invalidation, ok=%v err=%v", ok, err)
	}

	svc.Invalidate("patient-1")
	if _, ok, _ := svc.Search(context.Background(), "patient-1", "cough", 5); ok {
		t.Fatal("expected index dropped after invalidation")
	}

	var nilSvc *Service
	nilSvc.Invalidate("patient-1") // must not panic
}
