package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Query framings. Conversations and entities are deliberately matched
// against differently shaped query strings; both forms are kept as explicit
// constants rather than unified.
const (
	conversationQueryPrefix = "Patient has: "
	transcriptSnippetLen    = 500
	emptyCandidateText      = "No content"

	// DefaultTopKConversations is used when the caller does not ask for a
	// specific number of conversations.
	DefaultTopKConversations = 5
	// entityTopK is fixed per entity category and not caller-configurable.
	entityTopK = 5

	digestListLimit = 3
)

// Entity categories and the entity types they match, case-insensitively.
var (
	diagnosisTypes  = []string{"disease", "diagnosis", "disorder"}
	medicationTypes = []string{"medication", "drug"}
	procedureTypes  = []string{"procedure", "treatment"}
)

// ConversationRecord is an immutable snapshot of a past consultation,
// supplied by the persistence layer. The engine never mutates it.
type ConversationRecord struct {
	ID             string     `json:"id"`
	Transcription  string     `json:"transcription,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	ChiefComplaint string     `json:"chief_complaint,omitempty"`
	Date           *time.Time `json:"conversation_date,omitempty"`
}

// Timestamp implements Dated.
func (c ConversationRecord) Timestamp() (time.Time, bool) {
	if c.Date == nil || c.Date.IsZero() {
		return time.Time{}, false
	}
	return *c.Date, true
}

// EntityRecord is a typed clinical entity extracted from a past conversation.
type EntityRecord struct {
	ID        string     `json:"id"`
	Type      string     `json:"entity_type"`
	Value     string     `json:"entity_value"`
	Context   string     `json:"context,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Timestamp implements Dated.
func (e EntityRecord) Timestamp() (time.Time, bool) {
	if e.CreatedAt == nil || e.CreatedAt.IsZero() {
		return time.Time{}, false
	}
	return *e.CreatedAt, true
}

// Options controls a single retrieval request.
type Options struct {
	// TopKConversations limits the conversation list; <= 0 selects
	// DefaultTopKConversations.
	TopKConversations int
	// BlendRecency re-ranks conversations by combining similarity with a
	// recency signal.
	BlendRecency    bool
	RecencyWeight   float64
	RelevanceWeight float64
	// Now anchors recency scoring; the zero value means time.Now().
	Now time.Time
}

// Result aggregates everything retrieved for a symptom query.
type Result struct {
	QuerySymptoms []string                     `json:"query_symptoms"`
	Conversations []Ranked[ConversationRecord] `json:"relevant_conversations"`
	Diagnoses     []Ranked[EntityRecord]       `json:"relevant_diagnoses"`
	Medications   []Ranked[EntityRecord]       `json:"relevant_medications"`
	Procedures    []Ranked[EntityRecord]       `json:"relevant_procedures"`
	Digest        string                       `json:"summary"`
}

// HistoryRetriever ranks a patient's past conversations and extracted
// entities against a symptom query. It holds no per-request state; one
// instance is shared by all requests.
type HistoryRetriever struct {
	enc    Encoder
	logger *log.Logger
}

func NewHistoryRetriever(enc Encoder, logger *log.Logger) *HistoryRetriever {
	if logger == nil {
		logger = log.New(log.Writer(), "[RETRIEVE] ", log.LstdFlags)
	}
	return &HistoryRetriever{enc: enc, logger: logger}
}

// Retrieve runs the full symptom-based history retrieval: query encoding,
// candidate encoding, similarity ranking per category, optional recency
// blending, and digest generation. All encodings share one model call; if it
// fails no partial result is returned.
func (r *HistoryRetriever) Retrieve(ctx context.Context, symptoms []string, conversations []ConversationRecord, entities []EntityRecord, opts Options) (Result, error) {
	start := time.Now()
	result := Result{
		QuerySymptoms: symptoms,
		Conversations: []Ranked[ConversationRecord]{},
		Diagnoses:     []Ranked[EntityRecord]{},
		Medications:   []Ranked[EntityRecord]{},
		Procedures:    []Ranked[EntityRecord]{},
	}

	topK := opts.TopKConversations
	if topK <= 0 {
		topK = DefaultTopKConversations
	}

	diagnoses := filterByTypes(entities, diagnosisTypes)
	medications := filterByTypes(entities, medicationTypes)
	procedures := filterByTypes(entities, procedureTypes)

	// Assemble one encoder batch covering both query framings and every
	// candidate, so a model failure aborts the whole call uniformly.
	var texts []string
	convQueryAt, entQueryAt := -1, -1
	if len(conversations) > 0 {
		convQueryAt = len(texts)
		texts = append(texts, conversationQueryPrefix+strings.Join(symptoms, ", "))
	}
	if len(diagnoses)+len(medications)+len(procedures) > 0 {
		entQueryAt = len(texts)
		texts = append(texts, strings.Join(symptoms, " "))
	}
	convAt := len(texts)
	for _, c := range conversations {
		texts = append(texts, conversationText(c))
	}
	diagAt := len(texts)
	for _, e := range diagnoses {
		texts = append(texts, entityText(e))
	}
	medAt := len(texts)
	for _, e := range medications {
		texts = append(texts, entityText(e))
	}
	procAt := len(texts)
	for _, e := range procedures {
		texts = append(texts, entityText(e))
	}

	if len(texts) > 0 {
		observeRetrieveCandidates(len(texts))
		vectors, err := r.enc.Encode(ctx, texts)
		if err != nil {
			observeRetrieve(time.Since(start), true)
			return Result{}, fmt.Errorf("retrieve history: %w", err)
		}

		if convQueryAt >= 0 {
			ranked := Rank(vectors[convQueryAt], candidates(conversations, vectors[convAt:convAt+len(conversations)]), topK)
			if opts.BlendRecency {
				now := opts.Now
				if now.IsZero() {
					now = time.Now()
				}
				ranked = BlendRecency(ranked, opts.RecencyWeight, opts.RelevanceWeight, now)
			}
			result.Conversations = ranked
		}
		if entQueryAt >= 0 {
			q := vectors[entQueryAt]
			result.Diagnoses = Rank(q, candidates(diagnoses, vectors[diagAt:diagAt+len(diagnoses)]), entityTopK)
			result.Medications = Rank(q, candidates(medications, vectors[medAt:medAt+len(medications)]), entityTopK)
			result.Procedures = Rank(q, candidates(procedures, vectors[procAt:procAt+len(procedures)]), entityTopK)
		}
	}

	result.Digest = buildDigest(result)
	observeRetrieve(time.Since(start), false)
	r.logger.Printf("retrieved %d conversations, %d diagnoses, %d medications, %d procedures for %d symptoms",
		len(result.Conversations), len(result.Diagnoses), len(result.Medications), len(result.Procedures), len(symptoms))
	return result, nil
}

func candidates[T any](records []T, vectors [][]float32) []Candidate[T] {
	out := make([]Candidate[T], len(records))
	for i, rec := range records {
		out[i] = Candidate[T]{Record: rec, Vector: vectors[i]}
	}
	return out
}

// conversationText builds the matching text for one conversation: summary,
// then the leading slice of the transcription, then the chief complaint.
// A record with none of the three degrades to a fixed placeholder so the
// encoder never sees an empty string.
func conversationText(c ConversationRecord) string {
	var b strings.Builder
	if c.Summary != "" {
		b.WriteString(c.Summary)
		b.WriteString(" ")
	}
	if c.Transcription != "" {
		runes := []rune(c.Transcription)
		if len(runes) > transcriptSnippetLen {
			runes = runes[:transcriptSnippetLen]
		}
		b.WriteString(string(runes))
	}
	if c.ChiefComplaint != "" {
		b.WriteString(" Chief complaint: ")
		b.WriteString(c.ChiefComplaint)
	}
	if b.Len() == 0 {
		return emptyCandidateText
	}
	return b.String()
}

// ConversationText exposes the candidate text built for a conversation, so
// cache warmers can prime the encoder with exactly the strings retrieval
// will ask for.
func ConversationText(c ConversationRecord) string {
	return conversationText(c)
}

func entityText(e EntityRecord) string {
	return fmt.Sprintf("%s: %s %s", e.Type, e.Value, e.Context)
}

func filterByTypes(entities []EntityRecord, types []string) []EntityRecord {
	var out []EntityRecord
	for _, e := range entities {
		et := strings.ToLower(e.Type)
		for _, t := range types {
			if et == t {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// buildDigest composes the natural-language digest: each sentence is
// included only when its backing list is non-empty.
func buildDigest(res Result) string {
	var parts []string
	if len(res.QuerySymptoms) > 0 {
		parts = append(parts, "Query symptoms: "+strings.Join(res.QuerySymptoms, ", "))
	}
	if len(res.Conversations) > 0 {
		parts = append(parts, fmt.Sprintf("Found %d relevant past visits", len(res.Conversations)))
	}
	if len(res.Diagnoses) > 0 {
		parts = append(parts, "Previous diagnoses: "+joinEntityValues(res.Diagnoses, digestListLimit))
	}
	if len(res.Medications) > 0 {
		parts = append(parts, "Previous medications: "+joinEntityValues(res.Medications, digestListLimit))
	}
	return strings.Join(parts, ". ") + "."
}

func joinEntityValues(ranked []Ranked[EntityRecord], limit int) string {
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	values := make([]string, len(ranked))
	for i, r := range ranked {
		values[i] = r.Record.Value
	}
	return strings.Join(values, ", ")
}
