package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/arman-radmanesh/clinicore/internal/retrieval"
	"github.com/arman-radmanesh/clinicore/internal/store"
)

const (
	warmLockKey    = "clinicore:warm:lock"
	warmLastRunKey = "clinicore:warm:last"
	warmBatchSize  = 200
)

// Warmer periodically primes the embedding cache with the candidate texts of
// recently updated conversations so retrieval requests hit warm entries.
type Warmer struct {
	Store   *store.Store
	Encoder retrieval.Encoder
	Rdb     *redis.Client
	Cron    string
	Logger  *log.Logger
	Stop    chan struct{}
}

func (w *Warmer) Start() {
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for {
			select {
			case <-w.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				w.tick()
			}
		}
	}()
}

func (w *Warmer) tick() {
	ctx := context.Background()

	last := w.lastRun(ctx)
	if !isDue(w.Cron, last) {
		return
	}

	// distributed lock to avoid duplicate warm runs
	if w.Rdb != nil {
		ok, _ := w.Rdb.SetNX(ctx, warmLockKey, "1", 2*time.Minute).Result()
		if !ok {
			return
		}
		defer w.Rdb.Del(ctx, warmLockKey)
	}

	if err := w.Warm(ctx); err != nil {
		w.Logger.Printf("warm run failed: %v", err)
		return
	}
	if w.Rdb != nil {
		_ = w.Rdb.Set(ctx, warmLastRunKey, time.Now().Format(time.RFC3339), 0).Err()
	}
}

// Warm encodes candidate texts for the most recently updated conversations.
// With a caching encoder in front, this fills the cache.
func (w *Warmer) Warm(ctx context.Context) error {
	snaps, err := w.Store.ListRecentSnapshots(ctx, warmBatchSize)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return nil
	}

	texts := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		date := snap.Date
		texts = append(texts, retrieval.ConversationText(retrieval.ConversationRecord{
			ID:             snap.ID,
			Transcription:  snap.Transcription,
			Summary:        snap.Summary,
			ChiefComplaint: snap.ChiefComplaint,
			Date:           &date,
		}))
	}
	if _, err := w.Encoder.Encode(ctx, texts); err != nil {
		return err
	}
	w.Logger.Printf("warmed embeddings for %d conversations", len(texts))
	return nil
}

func (w *Warmer) lastRun(ctx context.Context) *time.Time {
	if w.Rdb == nil {
		return nil
	}
	raw, err := w.Rdb.Get(ctx, warmLastRunKey).Result()
	if err != nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// isDue determines if a warm run with cronSpec should fire now given the last
// run time. Supports "@daily", "@hourly", and standard cron expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			// invalid spec degrades to @daily
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
