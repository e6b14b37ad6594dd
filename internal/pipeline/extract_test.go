package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/arman-radmanesh/clinicore/models"
)

func TestExtractPatternsOnly(t *testing.T) {
	ex := NewExtractor(nil, nil)
	text := "Patient reports fever and cough for 3 days. Currently taking amoxicillin. BP 120/80."

	entities, err := ex.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	labels := make(map[string]bool)
	for _, ent := range entities {
		labels[ent.Label+"/"+strings.ToLower(ent.Text)] = true
	}
	for _, want := range []string{
		"symptom/fever",
		"symptom/cough",
		"temporal/for 3 days",
		"medication/amoxicillin",
	} {
		if !labels[want] {
			t.Fatalf("missing expected entity %q in %v", want, entities)
		}
	}
}

func TestExtractEntityContextWindow(t *testing.T) {
	ex := NewExtractor(nil, nil)
	pad := strings.Repeat("x", 80)
	text := pad + " fever " + pad

	entities, err := ex.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	var fever *models.Entity
	for i := range entities {
		if strings.EqualFold(entities[i].Text, "fever") {
			fever = &entities[i]
			break
		}
	}
	if fever == nil {
		t.Fatalf("fever entity not found")
	}
	if len(fever.Context) != len("fever")+2*contextWindow {
		t.Fatalf("context window size unexpected: %d chars", len(fever.Context))
	}
	if !strings.Contains(fever.Context, "fever") {
		t.Fatalf("context should contain the entity: %q", fever.Context)
	}
}

func TestExtractMergesModelEntities(t *testing.T) {
	p := &stubProvider{completion: `[
{"text":"type 2 diabetes","label":"DISEASE","start":23,"end":38},
{"text":"metoprolol","label":"DRUG","start":-1,"end":-1}
]`}
	ex := NewExtractor(p, nil)
	text := "Patient has history of type 2 diabetes, takes metoprolol."

	entities, err := ex.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	var disease, med bool
	for _, ent := range entities {
		if ent.Label == EntityDisease && ent.Text == "type 2 diabetes" {
			disease = true
		}
		if ent.Label == EntityMedication && ent.Text == "metoprolol" {
			med = true
			if ent.Start == 0 && ent.End == 0 {
				t.Fatalf("invalid offsets should be re-located, got %+v", ent)
			}
		}
	}
	if !disease || !med {
		t.Fatalf("model entities missing: %v", entities)
	}
}

func TestExtractModelFailureDegradesToPatterns(t *testing.T) {
	p := &stubProvider{completionErr: errors.New("rate limited")}
	ex := NewExtractor(p, nil)

	entities, err := ex.Extract(context.Background(), "severe headache since yesterday")
	if err != nil {
		t.Fatalf("Extract should not fail on model errors: %v", err)
	}
	if len(entities) == 0 {
		t.Fatalf("expected pattern entities despite model failure")
	}
}

func TestExtractModelFencedJSON(t *testing.T) {
	p := &stubProvider{completion: "```json\n[{\"text\":\"appendectomy\",\"label\":\"PROCEDURE\",\"start\":10,\"end\":22}]\n```"}
	ex := NewExtractor(p, nil)

	entities, err := ex.Extract(context.Background(), "scheduled appendectomy next week")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	var found bool
	for _, ent := range entities {
		if ent.Label == EntityProcedure && ent.Text == "appendectomy" {
			found = true
		}
	}
	if !found {
		t.Fatalf("fenced JSON output should still parse: %v", entities)
	}
}

func TestDedupeEntities(t *testing.T) {
	entities := []models.Entity{
		{Text: "Fever", Start: 5, End: 10},
		{Text: "fever", Start: 5, End: 10},
		{Text: "fever", Start: 30, End: 35},
	}
	out := dedupeEntities(entities)
	if len(out) != 2 {
		t.Fatalf("expected 2 unique entities, got %d", len(out))
	}
}

func TestKeyTerms(t *testing.T) {
	entities := []models.Entity{
		{Text: "fever", Label: EntitySymptom},
		{Text: "Fever", Label: EntitySymptom},
		{Text: "paracetamol", Label: EntityMedication},
		{Text: "yesterday", Label: EntityTemporal},
		{Text: "pneumonia", Label: EntityDisease},
	}

	terms := KeyTerms(entities, 10)
	if len(terms) != 3 {
		t.Fatalf("expected 3 key terms, got %v", terms)
	}
	if terms[0] != "fever" || terms[1] != "paracetamol" || terms[2] != "pneumonia" {
		t.Fatalf("unexpected order: %v", terms)
	}

	if got := KeyTerms(entities, 2); len(got) != 2 {
		t.Fatalf("topN limit not applied: %v", got)
	}
	if got := KeyTerms(entities, 0); got != nil {
		t.Fatalf("topN 0 should return nil, got %v", got)
	}
}
