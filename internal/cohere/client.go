package cohere

import (
	"context"
	"errors"
	"fmt"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

var ErrNoEmbeddings = errors.New("no embeddings returned")

// Client embeds notes and queries and reranks search candidates. It
// satisfies both search.Embedder/Reranker and indexer.Embedder.
type Client struct {
	client      *cohereclient.Client
	embedModel  string
	rerankModel string
	embedDim    int
}

// Ranked is a reranked document: its index in the input and its relevance.
type Ranked struct {
	Index int
	Score float64
}

func NewClient(apiKey, embedModel, rerankModel string, embedDim int) *Client {
	return &Client{
		client:      cohereclient.NewClient(cohereclient.WithToken(apiKey)),
		embedModel:  embedModel,
		rerankModel: rerankModel,
		embedDim:    embedDim,
	}
}

// Ping checks that the API key is accepted. olive -save calls it before
// writing a key to the config file.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx, &cohere.ModelsListRequest{}); err != nil {
		return fmt.Errorf("invalid API key: %w", err)
	}
	return nil
}

// EmbedDocuments embeds note chunks for storage. It returns exactly one
// vector per text or an error.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := c.embed(ctx, texts, cohere.EmbedInputTypeSearchDocument)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embed documents: got %d embeddings for %d texts", len(embeddings), len(texts))
	}
	return embeddings, nil
}

// EmbedQuery embeds the keyword of a live search. It is called once per
// dispatched fetch, so ctx is cancelled when a newer search supersedes it.
func (c *Client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := c.embed(ctx, []string{query}, cohere.EmbedInputTypeSearchQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embed query: %w", ErrNoEmbeddings)
	}
	return embeddings[0], nil
}

// Rerank orders documents by relevance to query and keeps the best topN.
// Ranked.Index points back into documents.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Ranked, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	resp, err := c.client.V2.Rerank(ctx, &cohere.V2RerankRequest{
		Model:     c.rerankModel,
		Query:     query,
		Documents: documents,
		TopN:      &topN,
	})
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}

	ranked := make([]Ranked, len(resp.Results))
	for i, r := range resp.Results {
		ranked[i] = Ranked{Index: r.Index, Score: r.RelevanceScore}
	}
	return ranked, nil
}

func (c *Client) embed(ctx context.Context, texts []string, inputType cohere.EmbedInputType) ([][]float32, error) {
	outputDim := c.embedDim
	resp, err := c.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:           texts,
		Model:           c.embedModel,
		InputType:       inputType,
		EmbeddingTypes:  []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
		OutputDimension: &outputDim,
	})
	if err != nil {
		return nil, err
	}
	if resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, ErrNoEmbeddings
	}

	out := make([][]float32, len(resp.Embeddings.Float))
	for i, emb := range resp.Embeddings.Float {
		out[i] = toFloat32(emb)
	}
	return out, nil
}

func toFloat32(f64s []float64) []float32 {
	f32s := make([]float32, len(f64s))
	for i, v := range f64s {
		f32s[i] = float32(v)
	}
	return f32s
}
