package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arman-radmanesh/clinicore/provider"
)

// ErrModelUnavailable indicates the embedding model failed to load or run.
// Retrieval is aborted without partial results when this is returned.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Encoder maps a list of text snippets to fixed-size dense vectors, in input
// order. Empty input yields empty output. Implementations must be safe for
// concurrent use; the encoder is constructed once at startup and shared
// across requests.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// ProviderEncoder adapts a model provider to the Encoder interface.
type ProviderEncoder struct {
	Provider provider.Provider
}

func NewProviderEncoder(p provider.Provider) *ProviderEncoder {
	return &ProviderEncoder{Provider: p}
}

func (e *ProviderEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.Provider.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrModelUnavailable, len(vecs), len(texts))
	}
	return vecs, nil
}

const cacheKeyPrefix = "clinicore:emb:"

// CachingEncoder wraps an Encoder with a Redis read-through cache keyed by
// the SHA-256 of each text. Cache failures degrade to a direct encode; only
// encoder failures propagate.
type CachingEncoder struct {
	next   Encoder
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewCachingEncoder(next Encoder, rdb *redis.Client, ttl time.Duration, logger *log.Logger) *CachingEncoder {
	if logger == nil {
		logger = log.New(log.Writer(), "[ENCODE] ", log.LstdFlags)
	}
	return &CachingEncoder{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (e *CachingEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.rdb == nil {
		return e.next.Encode(ctx, texts)
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = cacheKey(t)
	}

	out := make([][]float32, len(texts))
	var missIdx []int
	cached, err := e.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		e.logger.Printf("cache read failed, encoding directly: %v", err)
		return e.next.Encode(ctx, texts)
	}
	for i, raw := range cached {
		s, ok := raw.(string)
		if !ok {
			missIdx = append(missIdx, i)
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(s), &vec); err != nil || len(vec) == 0 {
			missIdx = append(missIdx, i)
			continue
		}
		out[i] = vec
	}

	if len(missIdx) == 0 {
		return out, nil
	}

	missTexts := make([]string, len(missIdx))
	for j, i := range missIdx {
		missTexts[j] = texts[i]
	}
	fresh, err := e.next.Encode(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	pipe := e.rdb.Pipeline()
	for j, i := range missIdx {
		out[i] = fresh[j]
		if b, err := json.Marshal(fresh[j]); err == nil {
			pipe.Set(ctx, keys[i], b, e.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		e.logger.Printf("cache write failed: %v", err)
	}
	return out, nil
}
