package provider

import (
	"context"
	"errors"
	"io"

	"github.com/arman-radmanesh/clinicore/config"
	"github.com/arman-radmanesh/clinicore/models"
	openai_provider "github.com/arman-radmanesh/clinicore/provider/openai"
)

// Client represents different model providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Provider is the interface that all model-provider implementations must satisfy.
// The backend treats every method as a call into an opaque pretrained model.
type Provider interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	ChatCompletion(ctx context.Context, system, user string) (string, error)
	Transcribe(ctx context.Context, filename string, audio io.Reader) (models.Transcription, error)
}

// NewProvider creates a model provider based on the provided configuration.
func NewProvider(client Client, cfg config.OpenAIConfig) (Provider, error) {
	switch client {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set (providers.openai.api_key)")
		}
		return openai_provider.NewOpenAIClient(cfg), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported model provider")
	}
}
