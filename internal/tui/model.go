package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mgomes/obslive/internal/live"
	"github.com/mgomes/obslive/internal/search"
)

const filterLabel = "Rerank"

// Model is the live search screen. It forwards user actions to a
// live.Coordinator and renders the coordinator's state.
type Model struct {
	coord   *live.Coordinator[search.Result]
	changes chan struct{}

	input    textinput.Model
	spinner  spinner.Model
	selected int
	status   string
	vaultDir string
	width    int
	height   int
}

// NewModel builds the screen for a started coordinator. A non-empty query is
// typed into the keyword field and searched immediately.
func NewModel(coord *live.Coordinator[search.Result], vaultDir, query string) Model {
	input := textinput.New()
	input.Placeholder = "Search your vault..."
	input.Prompt = "> "
	input.Width = 60
	input.Focus()
	if query != "" {
		input.SetValue(query)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle

	// Coalesce notifications: one pending signal is enough to re-render.
	changes := make(chan struct{}, 1)
	coord.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	if query != "" {
		coord.Input().OnInput(query)
	}

	return Model{
		coord:    coord,
		changes:  changes,
		input:    input,
		spinner:  sp,
		vaultDir: vaultDir,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForChange())
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return StateChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StateChangedMsg:
		m.clampSelection()
		return m, m.waitForChange()

	case VaultChangedMsg:
		m.status = fmt.Sprintf("Re-indexed %d note(s)", len(msg.Paths))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.coord.Input().OnHide()
		return m, nil

	case "enter":
		m.coord.Input().OnSubmit()
		return m, nil

	case "ctrl+t":
		checked := m.coord.Filter().Value().Checked
		m.coord.Filter().SetField(live.FieldChecked, !checked)
		return m, nil

	case "ctrl+r":
		m.coord.Refresh()
		return m, nil

	case "up", "ctrl+p":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.selected < len(m.coord.Result().Results())-1 {
			m.selected++
		}
		return m, nil

	case "ctrl+o":
		results := m.coord.Result().Results()
		if m.selected < len(results) {
			openInObsidian(m.vaultDir, results[m.selected].Path)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.coord.Input().OnInput(m.input.Value())
	return m, cmd
}

func (m *Model) clampSelection() {
	n := len(m.coord.Result().Results())
	if m.selected >= n {
		m.selected = max(n-1, 0)
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("olive") + " ")
	b.WriteString(dimStyle.Render("live vault search") + "\n\n")
	b.WriteString(inputBoxStyle.Render(m.input.View()) + "\n")
	b.WriteString(m.checkbox() + "\n\n")

	if m.coord.Input().Visible() {
		b.WriteString(m.panel())
	}

	if m.status != "" {
		b.WriteString(dimStyle.Render(m.status) + "\n")
	}
	b.WriteString(helpStyle.Render("enter search  ctrl+t rerank  ctrl+r refresh  esc hide  ↑/↓ select  ctrl+o open  ctrl+c quit"))

	return b.String()
}

func (m Model) checkbox() string {
	box := "[ ]"
	if m.coord.Filter().Value().Checked {
		box = activeStyle.Render("[x]")
	}
	return box + " " + filterLabel
}

func (m Model) panel() string {
	snap := m.coord.Result().Snapshot()

	if snap.Err != nil {
		body := errorStyle.Render(snap.Err.Message) + "\n" + helpStyle.Render("ctrl+r to retry")
		return errorBoxStyle.Render(body) + "\n\n"
	}

	if snap.Loading {
		return m.spinner.View() + " " + dimStyle.Render("Searching...") + "\n\n"
	}

	if len(snap.Results) == 0 {
		return dimStyle.Render("No results found") + "\n\n"
	}

	var b strings.Builder
	for i, r := range snap.Results {
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> "))
		} else {
			b.WriteString("  ")
		}
		if r.Score != 0 {
			b.WriteString(scoreStyle.Render(fmt.Sprintf("[%.2f]", r.Score)) + " ")
		}
		b.WriteString(pathStyle.Render(r.Path) + "\n")

		indent := "    "
		if r.Heading != "" {
			b.WriteString(indent + headingStyle.Render(truncate(r.Heading, 76)) + "\n")
		}
		for _, line := range wrapText(r.Content, 76, 2) {
			b.WriteString(indent + snippetStyle.Render(line) + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}
