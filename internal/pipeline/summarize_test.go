package pipeline

import (
	"context"
	"strings"
	"testing"
)

func TestCleanSummaryText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Doctor: the patient has a fever", "The patient has a fever."},
		{"ipientPatient reports nausea.", "The patient reports nausea."},
		{"  multiple   spaces   here  ", "Multiple spaces here."},
		{"Speaker 2: follow up in one week.", "Follow up in one week."},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CleanSummaryText(tc.in); got != tc.want {
			t.Fatalf("CleanSummaryText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSummarizeShortTranscript(t *testing.T) {
	s := NewSummarizer(&stubProvider{}, nil, nil)

	sum, err := s.Summarize(context.Background(), "hi doc")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.FullSummary != insufficientDataSummary {
		t.Fatalf("expected placeholder summary, got %q", sum.FullSummary)
	}
}

func TestSummarizeSplitsSOAP(t *testing.T) {
	p := &stubProvider{completion: strings.Join([]string{
		"Subjective:",
		"Fever and dry cough for three days.",
		"Objective:",
		"Temperature 38.5, lungs clear.",
		"Assessment:",
		"Likely viral upper respiratory infection.",
		"Plan:",
		"Rest, fluids, paracetamol as needed.",
	}, "\n")}
	s := NewSummarizer(p, NewExtractor(nil, nil), nil)

	transcript := "Doctor: What brings you in? Patient: I have had fever and cough for 3 days."
	sum, err := s.Summarize(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(sum.SOAP.Subjective, "Fever and dry cough") {
		t.Fatalf("subjective not captured: %q", sum.SOAP.Subjective)
	}
	if !strings.Contains(sum.SOAP.Objective, "38.5") {
		t.Fatalf("objective not captured: %q", sum.SOAP.Objective)
	}
	if !strings.Contains(sum.SOAP.Assessment, "viral upper respiratory") {
		t.Fatalf("assessment not captured: %q", sum.SOAP.Assessment)
	}
	if !strings.Contains(sum.SOAP.Plan, "paracetamol") {
		t.Fatalf("plan not captured: %q", sum.SOAP.Plan)
	}
	if sum.FullSummary == "" || strings.Contains(sum.FullSummary, "Doctor:") {
		t.Fatalf("full summary should be scrubbed prose: %q", sum.FullSummary)
	}
	var hasFever bool
	for _, kw := range sum.Keywords {
		if strings.EqualFold(kw, "fever") {
			hasFever = true
		}
	}
	if !hasFever {
		t.Fatalf("expected fever keyword, got %v", sum.Keywords)
	}
}

func TestSummarizeInfersSOAPWithoutHeaders(t *testing.T) {
	p := &stubProvider{completion: "The visit went well overall without incident notes available here at all times"}
	s := NewSummarizer(p, NewExtractor(nil, nil), nil)

	transcript := "Patient reports fever and cough. Taking paracetamol. BP 120/80 recorded today."
	sum, err := s.Summarize(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(sum.SOAP.Subjective, "Patient reports:") {
		t.Fatalf("expected inferred subjective, got %q", sum.SOAP.Subjective)
	}
	if !strings.Contains(strings.ToLower(sum.SOAP.Plan), "paracetamol") {
		t.Fatalf("expected inferred plan with medication, got %q", sum.SOAP.Plan)
	}
}

func TestSplitSOAPInlineHeaders(t *testing.T) {
	soap := splitSOAP("Assessment: community acquired pneumonia\nPlan: start amoxicillin")
	if !strings.Contains(soap.Assessment, "community acquired pneumonia") {
		t.Fatalf("inline assessment lost: %q", soap.Assessment)
	}
	if !strings.Contains(soap.Plan, "amoxicillin") {
		t.Fatalf("inline plan lost: %q", soap.Plan)
	}
}
