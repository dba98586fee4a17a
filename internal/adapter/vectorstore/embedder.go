package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"

	"github.com/xiaot623/docchat/internal/config"
)

// Embedder turns a query into the vector space of the indexed chunks.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

var (
	_ Embedder = (*GeminiEmbedder)(nil)
	_ Embedder = (*LangChainEmbedder)(nil)
	_ Embedder = (*HashEmbedder)(nil)
)

// NewEmbedder creates the Embedder selected by EMBED_PROVIDER.
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	switch cfg.EmbedProvider {
	case config.ProviderGemini:
		return NewGeminiEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbedModel, "")
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OpenAI API key required")
		}
		llm, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithEmbeddingModel(cfg.EmbedModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return NewLangChainEmbedder(llm, cfg.EmbedModel)
	case config.ProviderOllama:
		llm, err := ollama.New(
			ollama.WithModel(cfg.EmbedModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return NewLangChainEmbedder(llm, cfg.EmbedModel)
	case config.ProviderMock:
		return NewHashEmbedder(defaultHashDimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbedProvider)
	}
}

// GeminiEmbedder embeds with the genai Models API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates a genai-backed embedder. baseURL may be empty.
func NewGeminiEmbedder(ctx context.Context, apiKey, model, baseURL string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("Google API key is required for gemini embeddings")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

// EmbedQuery implements Embedder.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	result, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, errors.New("no embedding returned from API")
	}
	return result.Embeddings[0].Values, nil
}

// LangChainEmbedder wraps a langchaingo embeddings client.
type LangChainEmbedder struct {
	model     embeddings.Embedder
	modelName string
}

// NewLangChainEmbedder builds an embedder on top of any langchaingo embedding client.
func NewLangChainEmbedder(client embeddings.EmbedderClient, modelName string) (*LangChainEmbedder, error) {
	model, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &LangChainEmbedder{model: model, modelName: modelName}, nil
}

// EmbedQuery implements Embedder.
func (e *LangChainEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vector, err := e.model.EmbedQuery(ctx, text)
	if err != nil {
		slog.Warn("embedding failed", "model", e.modelName, "text_len", len(text),
			"duration_ms", time.Since(start).Milliseconds(), "error", err)
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vector) == 0 {
		return nil, errors.New("empty embedding")
	}
	slog.Debug("embedding complete", "model", e.modelName, "dims", len(vector),
		"duration_ms", time.Since(start).Milliseconds())
	return vector, nil
}

const defaultHashDimension = 64

// HashEmbedder is an offline embedder: each lowercased word is hashed into a
// bucket and the result is L2-normalized. Equal texts give equal vectors.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a HashEmbedder with dim buckets.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = defaultHashDimension
	}
	return &HashEmbedder{dim: dim}
}

// EmbedQuery implements Embedder.
func (e *HashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vector := make([]float32, e.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vector[h.Sum32()%uint32(e.dim)]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector, nil
	}
	norm = math.Sqrt(norm)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector, nil
}
