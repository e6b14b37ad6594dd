package search

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/blevesearch/bleve"

	"github.com/arman-radmanesh/clinicore/internal/retrieval"
)

const rrfK = 60 // reciprocal-rank-fusion constant

const snippetLen = 300

// Document is one indexed consultation transcript.
type Document struct {
	ConversationID string    `json:"conversation_id"`
	Transcript     string    `json:"transcript"`
	Summary        string    `json:"summary"`
	ChiefComplaint string    `json:"chief_complaint"`
	Date           time.Time `json:"date"`
}

// Hit is a single search result.
type Hit struct {
	ConversationID string    `json:"conversation_id"`
	ChiefComplaint string    `json:"chief_complaint"`
	Snippet        string    `json:"snippet"`
	Date           time.Time `json:"date"`
	Score          float64   `json:"score"`
	Rank           int       `json:"rank"`
}

type docVector struct {
	id  string
	vec []float32
}

// PatientIndex holds one patient's consultations in a memory-only bleve
// index plus in-memory vectors for hybrid search.
type PatientIndex struct {
	mu      sync.RWMutex
	idx     bleve.Index
	docs    map[string]Document
	vectors []docVector
}

func NewPatientIndex() (*PatientIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &PatientIndex{idx: idx, docs: make(map[string]Document)}, nil
}

// Add indexes a consultation document with its embedding vector. The vector
// may be nil when only keyword search is needed.
func (p *PatientIndex) Add(doc Document, vec []float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[doc.ConversationID] = doc
	if vec != nil {
		p.vectors = append(p.vectors, docVector{id: doc.ConversationID, vec: vec})
	}
	return p.idx.Index(doc.ConversationID, doc)
}

func (p *PatientIndex) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.docs)
}

// KeywordSearch runs a BM25 query over indexed transcripts.
func (p *PatientIndex) KeywordSearch(q string, k int) ([]Hit, error) {
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, k*3, 0, false)
	res, err := p.idx.Search(req)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []Hit
	for i, hit := range res.Hits {
		doc := p.docs[hit.ID]
		out = append(out, Hit{
			ConversationID: hit.ID,
			ChiefComplaint: doc.ChiefComplaint,
			Snippet:        snippet(doc.Transcript),
			Date:           doc.Date,
			Score:          hit.Score,
			Rank:           i + 1,
		})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

// VectorSearch ranks indexed documents by cosine similarity to the query
// vector.
func (p *PatientIndex) VectorSearch(q []float32, k int) []Hit {
	p.mu.RLock()
	defer p.mu.RUnlock()
	type scored struct {
		id    string
		score float64
	}
	var scoreds []scored
	for _, v := range p.vectors {
		scoreds = append(scoreds, scored{id: v.id, score: cosine(q, v.vec)})
	}
	sort.SliceStable(scoreds, func(i, j int) bool { return scoreds[i].score > scoreds[j].score })

	var out []Hit
	for i, sc := range scoreds {
		doc := p.docs[sc.id]
		out = append(out, Hit{
			ConversationID: sc.id,
			ChiefComplaint: doc.ChiefComplaint,
			Snippet:        snippet(doc.Transcript),
			Date:           doc.Date,
			Score:          sc.score,
			Rank:           i + 1,
		})
		if len(out) >= k {
			break
		}
	}
	return out
}

// FuseRRF merges keyword and vector result lists with reciprocal-rank fusion.
func FuseRRF(a, b []Hit, k int) []Hit {
	type agg struct {
		item  Hit
		score float64
	}
	m := map[string]*agg{}
	add := func(list []Hit) {
		for _, h := range list {
			x, ok := m[h.ConversationID]
			if !ok {
				m[h.ConversationID] = &agg{item: h}
				x = m[h.ConversationID]
			}
			x.score += 1.0 / float64(rrfK+h.Rank)
		}
	}
	add(a)
	add(b)

	items := make([]agg, 0, len(m))
	for _, v := range m {
		items = append(items, *v)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

	if k > len(items) {
		k = len(items)
	}
	out := make([]Hit, 0, k)
	for i := 0; i < k; i++ {
		h := items[i].item
		h.Score = items[i].score
		h.Rank = i + 1
		out = append(out, h)
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func snippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetLen {
		return s
	}
	return string(runes[:snippetLen]) + "…"
}

// Service builds per-patient hybrid indexes on demand.
type Service struct {
	mu      sync.Mutex
	encoder retrieval.Encoder
	indexes map[string]*PatientIndex
}

func NewService(encoder retrieval.Encoder) *Service {
	return &Service{encoder: encoder, indexes: make(map[string]*PatientIndex)}
}

// Rebuild replaces a patient's index with the given documents, embedding
// each document's searchable text.
func (s *Service) Rebuild(ctx context.Context, patientID string, docs []Document) error {
	idx, err := NewPatientIndex()
	if err != nil {
		return err
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = searchableText(doc)
	}
	var vectors [][]float32
	if s.encoder != nil && len(texts) > 0 {
		vectors, err = s.encoder.Encode(ctx, texts)
		if err != nil {
			return err
		}
	}

	for i, doc := range docs {
		var vec []float32
		if vectors != nil {
			vec = vectors[i]
		}
		if err := idx.Add(doc, vec); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.indexes[patientID] = idx
	s.mu.Unlock()
	return nil
}

// Invalidate drops a patient's index so the next search rebuilds it from
// fresh store data. Called after transcription or summarization changes the
// searchable text. Safe on a nil service.
func (s *Service) Invalidate(patientID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.indexes, patientID)
	s.mu.Unlock()
}

// Search runs a hybrid keyword+vector query against a patient's index. The
// index must have been built with Rebuild first.
func (s *Service) Search(ctx context.Context, patientID, query string, k int) ([]Hit, bool, error) {
	s.mu.Lock()
	idx, ok := s.indexes[patientID]
	s.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	if k <= 0 {
		return []Hit{}, true, nil
	}

	keyword, err := idx.KeywordSearch(query, k)
	if err != nil {
		return nil, true, err
	}

	var vector []Hit
	if s.encoder != nil {
		vecs, err := s.encoder.Encode(ctx, []string{query})
		if err == nil && len(vecs) == 1 {
			vector = idx.VectorSearch(vecs[0], k)
		}
	}
	if vector == nil {
		return keyword, true, nil
	}
	return FuseRRF(keyword, vector, k), true, nil
}

func searchableText(doc Document) string {
	text := doc.Transcript
	if doc.Summary != "" {
		text = doc.Summary + " " + text
	}
	if doc.ChiefComplaint != "" {
		text = doc.ChiefComplaint + " " + text
	}
	return text
}
