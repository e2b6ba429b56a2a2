package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowscope/pkg/coordinator"
	"github.com/matzehuels/flowscope/pkg/render"
	"github.com/matzehuels/flowscope/pkg/state"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listSearchStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	listFocusStyle    = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// ExplorerModel - Interactive graph exploration
// =============================================================================

// explorerMode distinguishes normal navigation from search entry.
type explorerMode int

const (
	modeNormal explorerMode = iota
	modeSearch
)

// frameMsg carries a fresh frame into the model after an operation settles.
type frameMsg struct {
	frame  *render.Frame
	status string
}

// opErrMsg carries an operation failure into the status line.
type opErrMsg struct{ err error }

// ExplorerModel is the bubbletea model for the explore command. Every
// mutating key dispatches a coordinator operation as a tea.Cmd; the model
// only redraws once the settled frame comes back.
type ExplorerModel struct {
	coord     *coordinator.Coordinator
	snapshots state.Store

	frame  *render.Frame
	cursor int
	offset int
	height int

	mode   explorerMode
	query  string
	status string
}

// NewExplorerModel creates an explorer over a coordinator. The snapshot
// store may be nil, which disables the save keybinding.
func NewExplorerModel(coord *coordinator.Coordinator, snapshots state.Store) ExplorerModel {
	return ExplorerModel{
		coord:     coord,
		snapshots: snapshots,
		frame:     coord.LastFrame(),
		height:    20,
	}
}

func (m ExplorerModel) Init() tea.Cmd {
	if m.frame != nil {
		return nil
	}
	return m.runPipeline()
}

func (m ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = msg.frame
		m.status = msg.status
		m.clampCursor()
		return m, nil

	case opErrMsg:
		m.status = msg.err.Error()
		return m, nil

	case tea.WindowSizeMsg:
		m.height = msg.Height - 7
		if m.height < 5 {
			m.height = 5
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeSearch {
			return m.updateSearch(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m ExplorerModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "j":
		if m.cursor < m.rowCount()-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "enter", " ":
		if node, ok := m.selected(); ok && node.Kind == "container" {
			return m, m.toggle(node.ID, node.Collapsed)
		}
	case "c":
		return m, m.collapseAll()
	case "e":
		return m, m.expandAll()
	case "f":
		if node, ok := m.selected(); ok {
			return m, m.focus(node.ID)
		}
	case "p":
		return m, m.cyclePalette()
	case "w":
		if m.snapshots != nil {
			return m, m.saveSnapshot()
		}
		m.status = "no snapshot store configured"
	case "/":
		m.mode = modeSearch
		m.query = ""
	}
	return m, nil
}

func (m ExplorerModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.query = ""
		return m, m.search("") // clear highlights
	case "enter":
		m.mode = modeNormal
		return m, m.search(m.query)
	case "backspace":
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.query += string(msg.Runes)
		}
	}
	return m, nil
}

// =============================================================================
// Operation Commands
// =============================================================================

func (m ExplorerModel) runPipeline() tea.Cmd {
	return func() tea.Msg {
		frame, err := m.coord.ExecuteLayoutAndRenderPipeline(context.Background(),
			coordinator.PipelineOptions{}, coordinator.Options{})
		if err != nil {
			return opErrMsg{err}
		}
		return frameMsg{frame: frame}
	}
}

func (m ExplorerModel) toggle(id string, collapsed bool) tea.Cmd {
	return func() tea.Msg {
		if collapsed {
			result, err := m.coord.ExpandContainer(context.Background(), id)
			if err != nil {
				return opErrMsg{err}
			}
			if !result.Check.CanExpand {
				return opErrMsg{fmt.Errorf("cannot expand %s: %s", id, strings.Join(result.Check.Issues, "; "))}
			}
			return frameMsg{frame: result.Frame, status: "expanded " + id}
		}
		frame, err := m.coord.CollapseContainer(context.Background(), id)
		if err != nil {
			return opErrMsg{err}
		}
		return frameMsg{frame: frame, status: "collapsed " + id}
	}
}

func (m ExplorerModel) collapseAll() tea.Cmd {
	return func() tea.Msg {
		frame, err := m.coord.CollapseAllContainers(context.Background())
		if err != nil {
			return opErrMsg{err}
		}
		return frameMsg{frame: frame, status: "collapsed all"}
	}
}

func (m ExplorerModel) expandAll() tea.Cmd {
	return func() tea.Msg {
		frame, err := m.coord.ExpandAllContainers(context.Background())
		if err != nil {
			return opErrMsg{err}
		}
		return frameMsg{frame: frame, status: "expanded all"}
	}
}

func (m ExplorerModel) search(query string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.coord.UpdateSearchResults(context.Background(), query)
		if err != nil {
			return opErrMsg{err}
		}
		status := ""
		if query != "" {
			status = fmt.Sprintf("%d matches for %q", len(result.Matches), query)
		}
		return frameMsg{frame: result.Frame, status: status}
	}
}

func (m ExplorerModel) focus(id string) tea.Cmd {
	return func() tea.Msg {
		frame, err := m.coord.FocusNode(context.Background(), id)
		if err != nil {
			return opErrMsg{err}
		}
		return frameMsg{frame: frame, status: "focused " + id}
	}
}

// cyclePalette switches to the next available palette.
func (m ExplorerModel) cyclePalette() tea.Cmd {
	return func() tea.Msg {
		names := render.Palettes()
		current := ""
		if m.frame != nil {
			current = m.frame.Palette
		}
		next := names[0]
		for i, name := range names {
			if name == current {
				next = names[(i+1)%len(names)]
				break
			}
		}
		frame, err := m.coord.UpdateColorPalette(context.Background(), next)
		if err != nil {
			return opErrMsg{err}
		}
		return frameMsg{frame: frame, status: "palette " + next}
	}
}

func (m ExplorerModel) saveSnapshot() tea.Cmd {
	return func() tea.Msg {
		name := "view-" + time.Now().Format("20060102-150405")
		snap := state.Capture(m.coord.Store(), m.query, "")
		if err := m.snapshots.Set(context.Background(), name, snap); err != nil {
			return opErrMsg{err}
		}
		return frameMsg{frame: m.frame, status: "saved snapshot " + name}
	}
}

// =============================================================================
// View
// =============================================================================

func (m ExplorerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Flowscope Explorer"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle  / search  f focus  c/e collapse/expand all  p palette  w snapshot  q quit"))
	b.WriteString("\n\n")

	if m.frame == nil {
		b.WriteString(listDimStyle.Render("  computing layout..."))
		return b.String()
	}

	end := m.offset + m.height
	if end > len(m.frame.Nodes) {
		end = len(m.frame.Nodes)
	}

	for i := m.offset; i < end; i++ {
		node := m.frame.Nodes[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		marker := "  "
		if node.Kind == "container" {
			if node.Collapsed {
				marker = "[+]"
			} else {
				marker = "[-]"
			}
		}

		line := fmt.Sprintf("%s%s%s %s", cursor, strings.Repeat("  ", node.Depth), marker, node.Label)

		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case node.Highlight == render.HighlightFocus:
			b.WriteString(listFocusStyle.Render(line))
		case node.Highlight == render.HighlightSearch:
			b.WriteString(listSearchStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.mode == modeSearch {
		b.WriteString(listSearchStyle.Render("/" + m.query + "▌"))
	} else if m.status != "" {
		b.WriteString(listDimStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %d edges",
		m.cursor+1, len(m.frame.Nodes), len(m.frame.Edges))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func (m ExplorerModel) rowCount() int {
	if m.frame == nil {
		return 0
	}
	return len(m.frame.Nodes)
}

func (m ExplorerModel) selected() (render.DisplayNode, bool) {
	if m.frame == nil || m.cursor >= len(m.frame.Nodes) {
		return render.DisplayNode{}, false
	}
	return m.frame.Nodes[m.cursor], true
}

func (m *ExplorerModel) clampCursor() {
	if n := m.rowCount(); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}
