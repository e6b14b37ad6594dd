package retrieval

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/arman-radmanesh/clinicore/models"
)

type fakeProvider struct {
	vecs [][]float32
	err  error
}

func (f *fakeProvider) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vecs, nil
}

func (f *fakeProvider) ChatCompletion(ctx context.Context, system, user string) (string, error) {
	return "", nil
}

func (f *fakeProvider) Transcribe(ctx context.Context, filename string, audio io.Reader) (models.Transcription, error) {
	return models.Transcription{}, nil
}

func TestProviderEncoderEmptyInput(t *testing.T) {
	enc := NewProviderEncoder(&fakeProvider{})
	got, err := enc.Encode(context.Background(), nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
}

func TestProviderEncoderWrapsFailure(t *testing.T) {
	enc := NewProviderEncoder(&fakeProvider{err: errors.New("api down")})
	_, err := enc.Encode(context.Background(), []string{"text"})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestProviderEncoderCountMismatch(t *testing.T) {
	enc := NewProviderEncoder(&fakeProvider{vecs: [][]float32{{1}}})
	_, err := enc.Encode(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable on count mismatch, got %v", err)
	}
}

func TestCachingEncoderNilRedisPassesThrough(t *testing.T) {
	enc := NewCachingEncoder(NewProviderEncoder(&fakeProvider{vecs: [][]float32{{1, 2}}}), nil, 0, nil)
	got, err := enc.Encode(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(got) != 1 || got[0][0] != 1 {
		t.Fatalf("unexpected vectors: %v", got)
	}
}
