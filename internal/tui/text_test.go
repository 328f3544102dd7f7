package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

func TestWrapText_ShortText(t *testing.T) {
	lines := wrapText("Hello world", 80, 3)

	if len(lines) != 1 || lines[0] != "Hello world" {
		t.Errorf("expected ['Hello world'], got %q", lines)
	}
}

func TestWrapText_LongText(t *testing.T) {
	text := "This is a longer piece of text that should wrap to multiple lines when displayed"
	lines := wrapText(text, 40, 3)

	if len(lines) < 2 {
		t.Errorf("expected multiple lines, got %d", len(lines))
	}
	for i, line := range lines {
		if len(line) > 40 {
			t.Errorf("line %d exceeds width: len=%d", i, len(line))
		}
	}
}

func TestWrapText_MaxLines(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 100), 40, 3)

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if last := lines[len(lines)-1]; !strings.HasSuffix(last, "...") {
		t.Errorf("expected last line to end with '...', got '%s'", last)
	}
}

func TestWrapText_WhitespaceCollapsed(t *testing.T) {
	lines := wrapText("Line one\nLine\ttwo   three", 80, 3)

	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0] != "Line one Line two three" {
		t.Errorf("expected collapsed whitespace, got '%s'", lines[0])
	}
}

func TestWrapText_EmptyString(t *testing.T) {
	if lines := wrapText("  \n ", 80, 3); lines != nil {
		t.Errorf("expected nil, got %v", lines)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Hello", 10); got != "Hello" {
		t.Errorf("expected 'Hello', got '%s'", got)
	}
	if got := truncate("Hello World", 8); got != "Hello..." {
		t.Errorf("expected 'Hello...', got '%s'", got)
	}
	if got := truncate("Hello\nWorld", 20); strings.Contains(got, "\n") {
		t.Error("expected newlines to be replaced")
	}
}

func TestTruncate_WideRunes(t *testing.T) {
	got := truncate(strings.Repeat("搜索结果", 10), 76)

	if !utf8.ValidString(got) {
		t.Fatalf("expected valid UTF-8, got %q", got)
	}
	if w := ansi.StringWidth(got); w > 76 {
		t.Errorf("expected at most 76 cells, got %d", w)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected '...' suffix, got '%s'", got)
	}

	if got := truncate("café crème", 20); got != "café crème" {
		t.Errorf("expected accented text untouched, got '%s'", got)
	}
}

func TestWrapText_WideRunesWithoutSpaces(t *testing.T) {
	lines := wrapText(strings.Repeat("中文内容没有空格", 20), 76, 2)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if !utf8.ValidString(line) {
			t.Errorf("line %d is not valid UTF-8: %q", i, line)
		}
		if w := ansi.StringWidth(line); w > 76 {
			t.Errorf("line %d exceeds width: %d cells", i, w)
		}
	}
	if !strings.HasSuffix(lines[1], "...") {
		t.Errorf("expected last line to end with '...', got '%s'", lines[1])
	}
}

func TestObsidianURL(t *testing.T) {
	got := obsidianURL("/home/me/My Vault", "projects/plan.md")
	want := "obsidian://open?vault=My+Vault&file=projects%2Fplan"

	if got != want {
		t.Errorf("expected '%s', got '%s'", want, got)
	}
}
