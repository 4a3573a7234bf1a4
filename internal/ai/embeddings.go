package ai

import (
	"context"
	"fmt"

	"multivector-rag/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbedder produces embedding vectors via Google Generative AI
// (text-embedding-004 by default).
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(ctx context.Context, cfg *config.Config) (*GeminiEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}
	return &GeminiEmbedder{
		client: client,
		model:  cfg.GoogleEmbeddingsModel,
	}, nil
}

// Embed returns the embedding vector for the given text.
func (ge *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := ge.client.EmbeddingModel(ge.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	// genai SDK returns []float32 for Embedding.Values
	return resp.Embedding.Values, nil
}

func (ge *GeminiEmbedder) Close() error {
	if ge.client != nil {
		return ge.client.Close()
	}
	return nil
}
