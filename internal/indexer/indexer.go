package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mgomes/obslive/internal/store"
)

const batchSize = 96

type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

type Store interface {
	Documents() (map[string]store.Document, error)
	ReplaceDocument(doc store.Document, sections []store.Section) error
	RemoveDocument(path string) error
}

type Indexer struct {
	store    Store
	embedder Embedder
	dir      string
	log      *slog.Logger
}

type Progress struct {
	Current int
	Total   int
	Message string
}

type ProgressFunc func(Progress)

type Summary struct {
	Indexed int
	Removed int
	Chunks  int
}

// note is a parsed markdown file waiting for its embeddings.
type note struct {
	doc    store.Document
	chunks []Chunk
}

func New(st Store, embedder Embedder, vaultDir string, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Indexer{
		store:    st,
		embedder: embedder,
		dir:      vaultDir,
		log:      logger,
	}
}

// Index brings the store in line with the vault. Unless full is set, only
// files modified since they were last indexed are parsed and embedded.
func (idx *Indexer) Index(ctx context.Context, full bool, progress ProgressFunc) (Summary, error) {
	report := func(p Progress) {
		if progress != nil {
			progress(p)
		}
	}

	var sum Summary

	files, err := idx.markdownFiles()
	if err != nil {
		return sum, fmt.Errorf("failed to find markdown files: %w", err)
	}
	existing, err := idx.store.Documents()
	if err != nil {
		return sum, fmt.Errorf("failed to load indexed documents: %w", err)
	}

	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = true
	}
	for path := range existing {
		if present[path] {
			continue
		}
		report(Progress{Message: "Removing deleted: " + filepath.Base(path)})
		if err := idx.store.RemoveDocument(path); err != nil {
			return sum, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		sum.Removed++
	}

	var stale []string
	for _, f := range files {
		doc, ok := existing[f]
		if full || !ok {
			stale = append(stale, f)
			continue
		}
		info, err := os.Stat(filepath.Join(idx.dir, f))
		if err != nil {
			return sum, err
		}
		if info.ModTime().Unix() > doc.ModifiedAt {
			stale = append(stale, f)
		}
	}
	if len(stale) == 0 {
		report(Progress{Message: "Index is up to date"})
		return sum, nil
	}

	notes, err := idx.parseAll(ctx, stale)
	if err != nil {
		return sum, err
	}

	err = idx.embed(ctx, notes, func(batch, total int) {
		report(Progress{Current: batch, Total: total, Message: fmt.Sprintf("Embedding batch %d/%d", batch, total)})
	})
	if err != nil {
		return sum, err
	}

	for _, n := range notes {
		sum.Chunks += len(n.chunks)
	}
	sum.Indexed = len(notes)
	return sum, nil
}

// IndexFile re-indexes a single vault-relative path.
func (idx *Indexer) IndexFile(ctx context.Context, relPath string) error {
	n, err := idx.parse(relPath)
	if err != nil {
		return err
	}
	return idx.embed(ctx, []note{n}, nil)
}

func (idx *Indexer) RemoveFile(relPath string) error {
	return idx.store.RemoveDocument(relPath)
}

func (idx *Indexer) parseAll(ctx context.Context, paths []string) ([]note, error) {
	notes := make([]note, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := idx.parse(path)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			notes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (idx *Indexer) parse(relPath string) (note, error) {
	absPath := filepath.Join(idx.dir, relPath)
	info, err := os.Stat(absPath)
	if err != nil {
		return note{}, err
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return note{}, err
	}

	text := string(content)
	return note{
		doc: store.Document{
			Path:       relPath,
			Title:      extractTitle(text, relPath),
			ModifiedAt: info.ModTime().Unix(),
		},
		chunks: chunkMarkdown(text),
	}, nil
}

// embed embeds the chunks of all notes in shared batches, then stores each
// note with its sections.
func (idx *Indexer) embed(ctx context.Context, notes []note, onBatch func(batch, total int)) error {
	var texts []string
	for _, n := range notes {
		for _, c := range n.chunks {
			texts = append(texts, c.Content)
		}
	}

	embeddings := make([][]float32, 0, len(texts))
	total := (len(texts) + batchSize - 1) / batchSize
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		batch := start/batchSize + 1
		if onBatch != nil {
			onBatch(batch, total)
		}

		embs, err := idx.embedder.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("failed to generate embeddings for batch %d: %w", batch, err)
		}
		embeddings = append(embeddings, embs...)
	}

	now := time.Now().Unix()
	next := 0
	for _, n := range notes {
		sections := make([]store.Section, len(n.chunks))
		for i, c := range n.chunks {
			sections[i] = store.Section{
				Content:   c.Content,
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
				Heading:   c.Heading,
				Embedding: embeddings[next],
			}
			next++
		}

		n.doc.IndexedAt = now
		if err := idx.store.ReplaceDocument(n.doc, sections); err != nil {
			return fmt.Errorf("failed to store %s: %w", n.doc.Path, err)
		}
		idx.log.Debug("indexed note", "path", n.doc.Path, "chunks", len(sections))
	}
	return nil
}

func (idx *Indexer) markdownFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(idx.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != idx.dir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(idx.dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isMarkdown(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".md")
}
