// Package vectorstore embeds questions and retrieves the nearest indexed
// passages of a document from Weaviate.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/xiaot623/docchat/internal/domain"
)

// Chunk properties written by the indexing job.
const (
	propText       = "text"
	propDocumentID = "documentId"
)

// WeaviateOptions configures NewWeaviateRetriever.
type WeaviateOptions struct {
	URL       string
	APIKey    string
	ClassName string
	TopK      int
}

// WeaviateRetriever finds the chunks of one document nearest to a query.
type WeaviateRetriever struct {
	client   *weaviate.Client
	class    string
	topK     int
	embedder Embedder
}

// NewWeaviateRetriever connects to Weaviate over REST.
func NewWeaviateRetriever(opts WeaviateOptions, embedder Embedder) (*WeaviateRetriever, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if opts.TopK <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d", opts.TopK)
	}

	cfg, err := clientConfig(opts.URL, opts.APIKey)
	if err != nil {
		return nil, err
	}
	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	return &WeaviateRetriever{
		client:   client,
		class:    opts.ClassName,
		topK:     opts.TopK,
		embedder: embedder,
	}, nil
}

func clientConfig(rawURL, apiKey string) (weaviate.Config, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return weaviate.Config{}, fmt.Errorf("invalid weaviate url %q", rawURL)
	}
	cfg := weaviate.Config{Host: u.Host, Scheme: u.Scheme}
	if apiKey != "" {
		cfg.Headers = map[string]string{"Authorization": "Bearer " + apiKey}
	}
	return cfg, nil
}

// Retrieve returns up to topK passages of docID ordered by similarity to query.
// A document with no stored chunks yields an empty slice.
func (r *WeaviateRetriever) Retrieve(ctx context.Context, docID, query string) ([]domain.Passage, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	where := filters.Where().
		WithPath([]string{propDocumentID}).
		WithOperator(filters.Equal).
		WithValueString(docID)

	nearVector := r.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	fields := []graphql.Field{
		{Name: propText},
		{Name: propDocumentID},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "distance"},
		}},
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(r.class).
		WithFields(fields...).
		WithWhere(where).
		WithNearVector(nearVector).
		WithLimit(r.topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search error: %s", result.Errors[0].Message)
	}

	passages := r.parsePassages(result)
	slog.Debug("retrieved passages", "document_id", docID, "count", len(passages))
	return passages, nil
}

func (r *WeaviateRetriever) parsePassages(result *models.GraphQLResponse) []domain.Passage {
	get, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return []domain.Passage{}
	}
	objects, ok := get[r.class].([]interface{})
	if !ok {
		return []domain.Passage{}
	}

	passages := make([]domain.Passage, 0, len(objects))
	for _, obj := range objects {
		props, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		text, _ := props[propText].(string)
		if text == "" {
			continue
		}
		p := domain.Passage{Text: text}
		p.DocumentID, _ = props[propDocumentID].(string)
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			p.Distance, _ = additional["distance"].(float64)
		}
		passages = append(passages, p)
	}
	if len(passages) > r.topK {
		passages = passages[:r.topK]
	}
	return passages
}
