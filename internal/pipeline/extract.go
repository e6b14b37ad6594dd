package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/arman-radmanesh/clinicore/models"
	"github.com/arman-radmanesh/clinicore/provider"
)

// Entity categories persisted downstream.
const (
	EntityDisease    = "disease"
	EntitySymptom    = "symptom"
	EntityMedication = "medication"
	EntityProcedure  = "procedure"
	EntityAnatomy    = "anatomy"
	EntityVitalSign  = "vital_signs"
	EntityTemporal   = "temporal"
	EntityGeneral    = "general"
)

const contextWindow = 50

const (
	patternConfidence = 0.9
	modelConfidence   = 0.8
)

var entityPatterns = map[string][]*regexp.Regexp{
	EntityVitalSign: compilePatterns(
		`blood pressure.*?(\d+/\d+)`,
		`bp.*?(\d+/\d+)`,
		`heart rate.*?(\d+)`,
		`pulse.*?(\d+)`,
		`temperature.*?(\d+\.?\d*)`,
		`temp.*?(\d+\.?\d*)`,
		`respiratory rate.*?(\d+)`,
		`spo2.*?(\d+)`,
		`oxygen saturation.*?(\d+)`,
	),
	EntityMedication: compilePatterns(
		`(aspirin|ibuprofen|paracetamol|metformin|lisinopril|atorvastatin|amlodipine)`,
		`(\w+cillin)`,
		`(\w+pril)`,
		`(\w+statin)`,
	),
	EntitySymptom: compilePatterns(
		`(pain|ache|fever|cough|nausea|vomiting|dizziness|fatigue|weakness)`,
		`(headache|backache|stomachache)`,
		`(shortness of breath|difficulty breathing)`,
	),
	EntityTemporal: compilePatterns(
		`(\d+\s+(?:days?|weeks?|months?|years?)\s+ago)`,
		`(since\s+\d+)`,
		`(for\s+\d+\s+(?:days?|weeks?|months?|years?))`,
		`(yesterday|today|last\s+\w+)`,
	),
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// Extractor pulls clinical entities out of transcript text using regex
// patterns plus model-assisted NER.
type Extractor struct {
	provider provider.Provider
	logger   *log.Logger
}

func NewExtractor(p provider.Provider, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Extractor{provider: p, logger: logger}
}

const nerSystemPrompt = `You are a clinical NER system. Extract medical entities from the conversation text.
Respond with a JSON array only, no prose. Each element: {"text": string, "label": string, "start": int, "end": int}.
Labels: DISEASE, DISORDER, SYMPTOM, SIGN, MEDICATION, DRUG, CHEMICAL, PROCEDURE, TREATMENT, ANATOMY, BODY_PART.
Positions are byte offsets into the input text.`

// Extract returns all clinical entities found in text. Model failures degrade
// to pattern-only extraction.
func (e *Extractor) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	entities := extractWithPatterns(text)

	if e.provider != nil {
		modelEntities, err := e.extractWithModel(ctx, text)
		if err != nil {
			e.logger.Printf("model extraction failed, using patterns only: %v", err)
		} else {
			entities = append(entities, modelEntities...)
		}
	}

	entities = dedupeEntities(entities)
	sort.SliceStable(entities, func(i, j int) bool { return entities[i].Start < entities[j].Start })
	e.logger.Printf("extracted %d entities", len(entities))
	return entities, nil
}

func (e *Extractor) extractWithModel(ctx context.Context, text string) ([]models.Entity, error) {
	raw, err := e.provider.ChatCompletion(ctx, nerSystemPrompt, text)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
		Start int    `json:"start"`
		End   int    `json:"end"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return nil, err
	}

	out := make([]models.Entity, 0, len(parsed))
	for _, p := range parsed {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		start, end := p.Start, p.End
		if start < 0 || end > len(text) || start >= end {
			start, end = locateEntity(text, p.Text)
		}
		out = append(out, models.Entity{
			Text:       p.Text,
			Label:      categorize(p.Label),
			Start:      start,
			End:        end,
			Context:    surroundingContext(text, start, end),
			Confidence: modelConfidence,
		})
	}
	return out, nil
}

func categorize(label string) string {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "DISEASE", "DISORDER":
		return EntityDisease
	case "SYMPTOM", "SIGN":
		return EntitySymptom
	case "MEDICATION", "DRUG", "CHEMICAL":
		return EntityMedication
	case "PROCEDURE", "TREATMENT":
		return EntityProcedure
	case "ANATOMY", "BODY_PART":
		return EntityAnatomy
	default:
		return EntityGeneral
	}
}

func extractWithPatterns(text string) []models.Entity {
	var out []models.Entity
	for category, patterns := range entityPatterns {
		for _, re := range patterns {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				out = append(out, models.Entity{
					Text:       text[loc[0]:loc[1]],
					Label:      category,
					Start:      loc[0],
					End:        loc[1],
					Context:    surroundingContext(text, loc[0], loc[1]),
					Confidence: patternConfidence,
				})
			}
		}
	}
	return out
}

func surroundingContext(text string, start, end int) string {
	ctxStart := start - contextWindow
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + contextWindow
	if ctxEnd > len(text) {
		ctxEnd = len(text)
	}
	if ctxStart >= ctxEnd {
		return ""
	}
	return text[ctxStart:ctxEnd]
}

func locateEntity(text, needle string) (int, int) {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(needle))
	if idx < 0 {
		return 0, 0
	}
	return idx, idx + len(needle)
}

type entityKey struct {
	text  string
	start int
	end   int
}

func dedupeEntities(entities []models.Entity) []models.Entity {
	seen := make(map[entityKey]struct{}, len(entities))
	out := entities[:0]
	for _, ent := range entities {
		key := entityKey{text: strings.ToLower(ent.Text), start: ent.Start, end: ent.End}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ent)
	}
	return out
}

// KeyTerms returns up to topN unique disease, symptom, medication and
// procedure mentions, in order of first appearance. Used for summary keywords.
func KeyTerms(entities []models.Entity, topN int) []string {
	if topN <= 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var terms []string
	for _, ent := range entities {
		switch ent.Label {
		case EntityDisease, EntitySymptom, EntityMedication, EntityProcedure:
		default:
			continue
		}
		key := strings.ToLower(ent.Text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, ent.Text)
		if len(terms) == topN {
			break
		}
	}
	return terms
}
