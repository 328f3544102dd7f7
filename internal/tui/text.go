package tui

import (
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// truncate flattens s to one line and cuts it to max terminal cells.
func truncate(s string, max int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	return ansi.Truncate(s, max, "...")
}

// wrapText flattens s to a single paragraph and wraps it at width cells,
// keeping at most maxLines lines. Truncated text ends in "...".
func wrapText(s string, width, maxLines int) []string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(ansi.Wrap(s, width, ""), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) <= maxLines {
		return lines
	}

	lines = lines[:maxLines]
	last := lines[maxLines-1]
	lines[maxLines-1] = ansi.Truncate(last, width-3, "") + "..."
	return lines
}

func obsidianURL(vaultDir, notePath string) string {
	return fmt.Sprintf("obsidian://open?vault=%s&file=%s",
		url.QueryEscape(filepath.Base(vaultDir)),
		url.QueryEscape(strings.TrimSuffix(filepath.ToSlash(notePath), ".md")),
	)
}

func openInObsidian(vaultDir, notePath string) {
	if vaultDir == "" {
		return
	}
	target := obsidianURL(vaultDir, notePath)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux":
		cmd = exec.Command("xdg-open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", target)
	}

	if cmd != nil {
		cmd.Start() //nolint:errcheck
	}
}
