package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// bagEncoder embeds texts as bag-of-words vectors over a fixed vocabulary so
// cosine similarity tracks term overlap deterministically.
type bagEncoder struct {
	inputs [][]string
	fail   bool
}

var vocab = []string{"fever", "cough", "headache", "nausea", "aspirin", "ibuprofen", "asthma", "x-ray"}

func (e *bagEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	e.inputs = append(e.inputs, append([]string(nil), texts...))
	if e.fail {
		return nil, ErrModelUnavailable
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(vocab)+1)
		lower := strings.ToLower(text)
		for j, word := range vocab {
			vec[j] = float32(strings.Count(lower, word))
		}
		// keep every vector non-zero so cosine stays defined
		vec[len(vocab)] = 0.01
		out[i] = vec
	}
	return out, nil
}

func TestRetrieveExampleScenario(t *testing.T) {
	enc := &bagEncoder{}
	r := NewHistoryRetriever(enc, nil)
	now := time.Now()

	convs := []ConversationRecord{
		{ID: "c1", Summary: "Patient had fever for 3 days", Date: &now},
		{ID: "c2", Summary: "Routine knee checkup", Date: &now},
	}
	res, err := r.Retrieve(context.Background(), []string{"fever", "cough"}, convs, nil, Options{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(res.Conversations) != 2 {
		t.Fatalf("expected 2 ranked conversations, got %d", len(res.Conversations))
	}
	if res.Conversations[0].Record.ID != "c1" {
		t.Fatalf("expected fever conversation first, got %q", res.Conversations[0].Record.ID)
	}
	if res.Conversations[0].Score <= 0 {
		t.Fatalf("expected positive similarity for matching conversation, got %v", res.Conversations[0].Score)
	}
	if !strings.Contains(res.Digest, "Query symptoms: fever, cough") {
		t.Fatalf("digest missing symptom sentence: %q", res.Digest)
	}
	if !strings.Contains(res.Digest, "Found 2 relevant past visits") {
		t.Fatalf("digest missing visit count: %q", res.Digest)
	}
}

func TestRetrieveEmptyInputs(t *testing.T) {
	enc := &bagEncoder{}
	r := NewHistoryRetriever(enc, nil)

	res, err := r.Retrieve(context.Background(), []string{"fever", "cough"}, nil, nil, Options{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(res.Conversations) != 0 || len(res.Diagnoses) != 0 || len(res.Medications) != 0 || len(res.Procedures) != 0 {
		t.Fatalf("expected all lists empty: %+v", res)
	}
	if res.Digest != "Query symptoms: fever, cough." {
		t.Fatalf("unexpected digest: %q", res.Digest)
	}
	if len(enc.inputs) != 0 {
		t.Fatalf("encoder should not be called for empty candidates")
	}
}

func TestRetrieveCaseInsensitiveEntityTypes(t *testing.T) {
	enc := &bagEncoder{}
	r := NewHistoryRetriever(enc, nil)

	entities := []EntityRecord{
		{ID: "e1", Type: "Medication", Value: "aspirin"},
		{ID: "e2", Type: "DISEASE", Value: "asthma"},
		{ID: "e3", Type: "procedure", Value: "x-ray"},
	}
	res, err := r.Retrieve(context.Background(), []string{"cough"}, nil, entities, Options{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(res.Medications) != 1 || res.Medications[0].Record.ID != "e1" {
		t.Fatalf("mixed-case medication not categorized: %+v", res.Medications)
	}
	if len(res.Diagnoses) != 1 || res.Diagnoses[0].Record.ID != "e2" {
		t.Fatalf("upper-case disease not categorized: %+v", res.Diagnoses)
	}
	if len(res.Procedures) != 1 || res.Procedures[0].Record.ID != "e3" {
		t.Fatalf("procedure not categorized: %+v", res.Procedures)
	}
}

func TestRetrieveEntityTopKFixed(t *testing.T) {
	enc := &bagEncoder{}
	r := NewHistoryRetriever(enc, nil)

	var entities []EntityRecord
	for i := 0; i < 8; i++ {
		entities = append(entities, EntityRecord{ID: string(rune('a' + i)), Type: "drug", Value: "aspirin"})
	}
	res, err := r.Retrieve(context.Background(), []string{"fever"}, nil, entities, Options{TopKConversations: 50})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(res.Medications) != 5 {
		t.Fatalf("entity top-k is fixed at 5, got %d", len(res.Medications))
	}
}

func TestRetrieveEmptyConversationPlaceholder(t *testing.T) {
	enc := &bagEncoder{}
	r := NewHistoryRetriever(enc, nil)

	convs := []ConversationRecord{{ID: "c1"}}
	if _, err := r.Retrieve(context.Background(), []string{"fever"}, convs, nil, Options{}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(enc.inputs) != 1 {
		t.Fatalf("expected a single encoder batch, got %d", len(enc.inputs))
	}
	batch := enc.inputs[0]
	if batch[len(batch)-1] != "No content" {
		t.Fatalf("empty conversation must encode the placeholder, got %q", batch[len(batch)-1])
	}
}

func TestRetrieveEncoderFailureNoPartialResult(t *testing.T) {
	enc := &bagEncoder{fail: true}
	r := NewHistoryRetriever(enc, nil)

	convs := []ConversationRecord{{ID: "c1", Summary: "fever"}}
	res, err := r.Retrieve(context.Background(), []string{"fever"}, convs, nil, Options{})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if len(res.Conversations) != 0 || res.Digest != "" {
		t.Fatalf("expected zero result on encoder failure, got %+v", res)
	}
}

func TestRetrieveRecencyBlendChangesOrder(t *testing.T) {
	enc := &bagEncoder{}
	r := NewHistoryRetriever(enc, nil)
	now := time.Now()
	old := now.AddDate(-4, 0, 0)

	// identical content, different ages: blend must prefer the newer one
	convs := []ConversationRecord{
		{ID: "old", Summary: "fever and cough", Date: &old},
		{ID: "new", Summary: "fever and cough", Date: &now},
	}
	res, err := r.Retrieve(context.Background(), []string{"fever", "cough"}, convs, nil, Options{
		BlendRecency:    true,
		RecencyWeight:   0.5,
		RelevanceWeight: 0.5,
		Now:             now,
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if res.Conversations[0].Record.ID != "new" {
		t.Fatalf("expected newest conversation first under blend, got %q", res.Conversations[0].Record.ID)
	}
}

func TestRetrieveQueryFramings(t *testing.T) {
	enc := &bagEncoder{}
	r := NewHistoryRetriever(enc, nil)
	now := time.Now()

	convs := []ConversationRecord{{ID: "c1", Summary: "fever", Date: &now}}
	entities := []EntityRecord{{ID: "e1", Type: "drug", Value: "aspirin"}}
	if _, err := r.Retrieve(context.Background(), []string{"fever", "cough"}, convs, entities, Options{}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	batch := enc.inputs[0]
	if batch[0] != "Patient has: fever, cough" {
		t.Fatalf("conversation query framing wrong: %q", batch[0])
	}
	if batch[1] != "fever cough" {
		t.Fatalf("entity query framing wrong: %q", batch[1])
	}
}
