package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/arman-radmanesh/clinicore/models"
	"github.com/arman-radmanesh/clinicore/provider"
)

const insufficientDataSummary = "Insufficient data for summary."

const minSummarizableChars = 30

const summaryKeywordLimit = 10

const soapSystemPrompt = `You are a clinical documentation assistant. Summarize the doctor-patient conversation
as a SOAP note. Use exactly these four section headers on their own lines:
Subjective:
Objective:
Assessment:
Plan:
Write concise clinical prose under each header. Do not include speaker labels.`

var (
	speakerLabelRe = regexp.MustCompile(`(?i)(Doctor|Patient|ipient|Recipient|Speaker \d+):`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// Summarizer turns a labeled transcript into a SOAP note and full summary.
type Summarizer struct {
	provider  provider.Provider
	extractor *Extractor
	logger    *log.Logger
}

func NewSummarizer(p provider.Provider, extractor *Extractor, logger *log.Logger) *Summarizer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Summarizer{provider: p, extractor: extractor, logger: logger}
}

// Summary is the structured output of summarization.
type Summary struct {
	SOAP        models.SOAP `json:"soap"`
	FullSummary string      `json:"full_summary"`
	Keywords    []string    `json:"keywords"`
}

// Summarize generates a SOAP note for the transcript. Transcripts shorter
// than the summarizable minimum get a placeholder summary.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (Summary, error) {
	if len(strings.TrimSpace(transcript)) < minSummarizableChars {
		return Summary{FullSummary: insufficientDataSummary}, nil
	}

	raw, err := s.provider.ChatCompletion(ctx, soapSystemPrompt, transcript)
	if err != nil {
		return Summary{}, fmt.Errorf("generate summary: %w", err)
	}

	soap := splitSOAP(raw)
	if soap == (models.SOAP{}) && s.extractor != nil {
		soap = s.inferSOAP(ctx, transcript)
	}

	summary := Summary{
		SOAP:        soap,
		FullSummary: CleanSummaryText(raw),
	}
	if s.extractor != nil {
		entities, err := s.extractor.Extract(ctx, transcript)
		if err == nil {
			summary.Keywords = KeyTerms(entities, summaryKeywordLimit)
		}
	}
	s.logger.Printf("generated summary: %d chars, %d keywords", len(summary.FullSummary), len(summary.Keywords))
	return summary, nil
}

// CleanSummaryText scrubs speaker labels and model artifacts from generated
// summaries, then normalizes whitespace and sentence punctuation.
func CleanSummaryText(text string) string {
	text = speakerLabelRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "ipientPatient", "The patient")
	text = strings.ReplaceAll(text, "ipient", "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	runes := []rune(text)
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	text = string(runes)
	if !strings.HasSuffix(text, ".") {
		text += "."
	}
	return text
}

func splitSOAP(text string) models.SOAP {
	var soap models.SOAP
	sections := map[string]*string{
		"subjective": &soap.Subjective,
		"objective":  &soap.Objective,
		"assessment": &soap.Assessment,
		"plan":       &soap.Plan,
	}

	var current *string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "subjective") || strings.Contains(lower, "chief complaint"):
			current = sections["subjective"]
			if rest := headerRemainder(line); rest != "" {
				*current += rest + "\n"
			}
			continue
		case strings.Contains(lower, "objective") || strings.Contains(lower, "examination"):
			current = sections["objective"]
			if rest := headerRemainder(line); rest != "" {
				*current += rest + "\n"
			}
			continue
		case strings.Contains(lower, "assessment") || strings.Contains(lower, "diagnosis"):
			current = sections["assessment"]
			if rest := headerRemainder(line); rest != "" {
				*current += rest + "\n"
			}
			continue
		case strings.Contains(lower, "plan") || strings.Contains(lower, "treatment"):
			current = sections["plan"]
			if rest := headerRemainder(line); rest != "" {
				*current += rest + "\n"
			}
			continue
		}
		if current != nil && strings.TrimSpace(line) != "" {
			*current += line + "\n"
		}
	}

	soap.Subjective = CleanSummaryText(soap.Subjective)
	soap.Objective = CleanSummaryText(soap.Objective)
	soap.Assessment = CleanSummaryText(soap.Assessment)
	soap.Plan = CleanSummaryText(soap.Plan)
	return soap
}

func headerRemainder(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return ""
}

// inferSOAP falls back to entity-driven SOAP components when the model output
// carries no recognizable section structure.
func (s *Summarizer) inferSOAP(ctx context.Context, transcript string) models.SOAP {
	entities, err := s.extractor.Extract(ctx, transcript)
	if err != nil || len(entities) == 0 {
		return models.SOAP{}
	}

	byLabel := make(map[string][]string)
	for _, ent := range entities {
		byLabel[ent.Label] = append(byLabel[ent.Label], ent.Text)
	}

	var soap models.SOAP
	if symptoms := byLabel[EntitySymptom]; len(symptoms) > 0 {
		soap.Subjective = "Patient reports: " + strings.Join(firstN(symptoms, 5), ", ")
	}
	if vitals := byLabel[EntityVitalSign]; len(vitals) > 0 {
		soap.Objective = "Vitals: " + strings.Join(vitals, ", ")
	}
	if diseases := byLabel[EntityDisease]; len(diseases) > 0 {
		soap.Assessment = "Diagnosis: " + strings.Join(firstN(diseases, 3), ", ")
	}
	plan := append(firstN(byLabel[EntityMedication], 3), firstN(byLabel[EntityProcedure], 3)...)
	if len(plan) > 0 {
		soap.Plan = "Treatment: " + strings.Join(plan, ", ")
	}
	return soap
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
