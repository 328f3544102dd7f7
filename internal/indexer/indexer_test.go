package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgomes/obslive/internal/store"
)

type memStore struct {
	mu       sync.Mutex
	docs     map[string]store.Document
	sections map[string][]store.Section
}

func newMemStore() *memStore {
	return &memStore{
		docs:     make(map[string]store.Document),
		sections: make(map[string][]store.Section),
	}
}

func (m *memStore) Documents() (map[string]store.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]store.Document, len(m.docs))
	for k, v := range m.docs {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) ReplaceDocument(doc store.Document, sections []store.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.Path] = doc
	m.sections[doc.Path] = sections
	return nil
}

func (m *memStore) RemoveDocument(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
	delete(m.sections, path)
	return nil
}

func (m *memStore) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for p := range m.docs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type countingEmbedder struct {
	err   error
	texts int
}

func (e *countingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.texts += len(texts)
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{float32(i), 0, 0, 0}
	}
	return out, nil
}

func writeNote(t *testing.T, dir, rel, title string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("# "+title+"\n\nThis note has enough text to become a chunk.\n"), 0644))
}

func newVault(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeNote(t, dir, "a.md", "Alpha")
	writeNote(t, dir, "sub/b.md", "Beta")
	writeNote(t, dir, ".obsidian/hidden.md", "Hidden")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("png"), 0644))
	return dir
}

func TestIndex_NewVault(t *testing.T) {
	dir := newVault(t)
	st := newMemStore()
	emb := &countingEmbedder{}
	idx := New(st, emb, dir, nil)

	var messages []string
	sum, err := idx.Index(context.Background(), false, func(p Progress) {
		messages = append(messages, p.Message)
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{Indexed: 2, Chunks: 2}, sum)
	assert.Equal(t, []string{"a.md", filepath.Join("sub", "b.md")}, st.paths())
	assert.Equal(t, 2, emb.texts)
	assert.Equal(t, "Beta", st.docs[filepath.Join("sub", "b.md")].Title)
	assert.NotZero(t, st.docs["a.md"].IndexedAt)
	assert.Contains(t, messages, "Embedding batch 1/1")
}

func TestIndex_Incremental(t *testing.T) {
	dir := newVault(t)
	st := newMemStore()
	emb := &countingEmbedder{}
	idx := New(st, emb, dir, nil)

	_, err := idx.Index(context.Background(), false, nil)
	require.NoError(t, err)

	sum, err := idx.Index(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.md")))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "sub", "b.md"), future, future))

	sum, err = idx.Index(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Indexed: 1, Removed: 1, Chunks: 1}, sum)
	assert.Equal(t, []string{filepath.Join("sub", "b.md")}, st.paths())

	sum, err = idx.Index(context.Background(), true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Indexed)
}

func TestIndex_EmbedError(t *testing.T) {
	cause := errors.New("rate limited")
	idx := New(newMemStore(), &countingEmbedder{err: cause}, newVault(t), nil)

	_, err := idx.Index(context.Background(), false, nil)
	assert.ErrorIs(t, err, cause)
}

func TestWatcher_FlushesSettledChanges(t *testing.T) {
	dir := newVault(t)
	st := newMemStore()
	idx := New(st, &countingEmbedder{}, dir, nil)

	now := time.Unix(1000, 0)
	var changed [][]string
	w := &Watcher{
		indexer:  idx,
		pending:  make(map[string]time.Time),
		onChange: func(paths []string) { changed = append(changed, paths) },
		now:      func() time.Time { return now },
	}

	w.handle(fsnotify.Event{Name: filepath.Join(dir, "a.md"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(dir, "image.png"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(dir, ".obsidian", "hidden.md"), Op: fsnotify.Write})

	now = now.Add(time.Second)
	w.flush(context.Background())
	assert.Empty(t, changed)
	assert.Empty(t, st.paths())

	now = now.Add(settleDelay)
	w.flush(context.Background())
	require.Len(t, changed, 1)
	assert.Equal(t, []string{"a.md"}, changed[0])
	assert.Equal(t, []string{"a.md"}, st.paths())

	w.handle(fsnotify.Event{Name: filepath.Join(dir, "a.md"), Op: fsnotify.Remove})
	w.flush(context.Background())
	require.Len(t, changed, 2)
	assert.Equal(t, []string{"a.md"}, changed[1])
	assert.Empty(t, st.paths())
}
