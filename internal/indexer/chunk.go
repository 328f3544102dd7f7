package indexer

import (
	"bufio"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	maxChunkTokens   = 500
	avgCharsPerToken = 4
	minChunkChars    = 20
)

type Chunk struct {
	Content   string
	StartLine int
	EndLine   int
	Heading   string
}

var headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

func extractTitle(content, relPath string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return title
		}
	}

	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// chunkMarkdown splits a note at headings and at roughly maxChunkTokens.
// Each chunk's heading is the path of enclosing headings joined by " > ".
func chunkMarkdown(content string) []Chunk {
	var (
		chunks  []Chunk
		buf     strings.Builder
		heading string
		stack   []string
		start   = 1
		line    = 1
	)

	flush := func() {
		text := strings.TrimSpace(buf.String())
		if len(text) > minChunkChars {
			chunks = append(chunks, Chunk{
				Content:   text,
				StartLine: start,
				EndLine:   line - 1,
				Heading:   heading,
			})
		}
		buf.Reset()
		start = line
	}

	for _, l := range strings.Split(content, "\n") {
		if m := headingRegex.FindStringSubmatch(l); m != nil {
			flush()

			level := len(m[1])
			if len(stack) >= level {
				stack = stack[:level-1]
			}
			stack = append(stack, m[2])
			heading = strings.Join(stack, " > ")
		}

		buf.WriteString(l)
		buf.WriteByte('\n')
		line++
		if buf.Len() > maxChunkTokens*avgCharsPerToken {
			flush()
		}
	}
	flush()

	return chunks
}
