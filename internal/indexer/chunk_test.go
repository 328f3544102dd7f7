package indexer

import (
	"strings"
	"testing"
)

func TestChunkMarkdown_SimpleDocument(t *testing.T) {
	content := `# Title

This is the introduction paragraph with some text.

## Section One

Content for section one goes here.

## Section Two

Content for section two goes here.
`

	chunks := chunkMarkdown(content)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	want := []string{"Title", "Title > Section One", "Title > Section Two"}
	for i, heading := range want {
		if chunks[i].Heading != heading {
			t.Errorf("chunk %d: expected heading '%s', got '%s'", i, heading, chunks[i].Heading)
		}
	}

	if chunks[1].StartLine != 5 || chunks[1].EndLine != 8 {
		t.Errorf("expected section one on lines 5-8, got %d-%d", chunks[1].StartLine, chunks[1].EndLine)
	}
}

func TestChunkMarkdown_HeadingStackResets(t *testing.T) {
	content := `# Main

## Sub

### SubSub

Content here that is long enough.

## Another Sub

More content that is long enough.
`

	headings := make(map[string]bool)
	for _, c := range chunkMarkdown(content) {
		headings[c.Heading] = true
	}

	if !headings["Main > Sub > SubSub"] {
		t.Error("expected a chunk under 'Main > Sub > SubSub'")
	}
	if !headings["Main > Another Sub"] {
		t.Error("expected heading stack to reset to 'Main > Another Sub'")
	}
}

func TestChunkMarkdown_LongContent(t *testing.T) {
	line := "This is a line of text that adds up to create a long document."
	content := "# Title\n\n" + strings.Repeat(line+"\n", 100)

	chunks := chunkMarkdown(content)

	if len(chunks) < 2 {
		t.Fatalf("expected long content to be split, got %d chunks", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartLine != chunks[i-1].EndLine+1 {
			t.Errorf("chunk %d starts at %d, previous ended at %d", i, chunks[i].StartLine, chunks[i-1].EndLine)
		}
	}
}

func TestChunkMarkdown_EmptyDocument(t *testing.T) {
	if chunks := chunkMarkdown(""); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty document, got %d", len(chunks))
	}
}

func TestChunkMarkdown_NoHeadings(t *testing.T) {
	content := `Just some plain text without any headings.

Another paragraph here.
`

	chunks := chunkMarkdown(content)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Heading != "" {
		t.Errorf("expected empty heading, got '%s'", chunks[0].Heading)
	}
}

func TestChunkMarkdown_MinimumLength(t *testing.T) {
	// "# Title\n\nHi" is below the minimum and is dropped
	if chunks := chunkMarkdown("# Title\n\nHi\n"); len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		want    string
	}{
		{"h1", "# My Document Title\n\nSome content.", "fallback.md", "My Document Title"},
		{"no h1", "Some content.\n\n## Section\n", "notes/my-note.md", "my-note"},
		{"h1 not first", "Preamble.\n\n# Actual Title\n", "fallback.md", "Actual Title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTitle(tt.content, tt.path); got != tt.want {
				t.Errorf("expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}
