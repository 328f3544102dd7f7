package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgomes/obslive/internal/cohere"
	"github.com/mgomes/obslive/internal/live"
	"github.com/mgomes/obslive/internal/store"
)

const minCandidates = 20

type Embedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]cohere.Ranked, error)
}

type Index interface {
	Nearest(query []float32, k int) ([]store.Match, error)
}

type Result struct {
	Rank      int
	Score     float64
	Path      string
	Heading   string
	Content   string
	StartLine int
	EndLine   int
	DocID     int64
	ChunkID   int64
}

type Options struct {
	Rerank bool
}

type Searcher struct {
	index    Index
	embedder Embedder
	reranker Reranker
	limit    int
}

func New(index Index, embedder Embedder, reranker Reranker, limit int) *Searcher {
	return &Searcher{
		index:    index,
		embedder: embedder,
		reranker: reranker,
		limit:    limit,
	}
}

// Fetch adapts the searcher to live.Fetcher: the keyword is the query and the
// filter checkbox turns on reranking.
func (s *Searcher) Fetch(ctx context.Context, req live.Request) ([]Result, error) {
	query := strings.TrimSpace(req.Keyword)
	if query == "" {
		return nil, nil
	}
	return s.Search(ctx, query, Options{Rerank: req.Checked})
}

func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	queryEmb, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	k := s.limit
	if opts.Rerank {
		k = max(minCandidates, 2*s.limit)
	}

	candidates, err := s.index.Nearest(queryEmb, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if !opts.Rerank {
		results := make([]Result, len(candidates))
		for i, c := range candidates {
			results[i] = toResult(i+1, 1/(1+c.Distance), c)
		}
		return results, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Content
	}

	ranked, err := s.reranker.Rerank(ctx, query, docs, s.limit)
	if err != nil {
		return nil, fmt.Errorf("rerank failed: %w", err)
	}

	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(candidates) {
			continue
		}
		results = append(results, toResult(len(results)+1, r.Score, candidates[r.Index]))
	}
	return results, nil
}

func toResult(rank int, score float64, m store.Match) Result {
	return Result{
		Rank:      rank,
		Score:     score,
		Path:      m.Path,
		Heading:   m.Heading,
		Content:   m.Content,
		StartLine: m.StartLine,
		EndLine:   m.EndLine,
		DocID:     m.DocID,
		ChunkID:   m.ChunkID,
	}
}
