package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/tagviewer/pkg/table"
)

// maxCellWidth bounds index cells in the picker.
const maxCellWidth = 40

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// TagListModel - Interactive tag selection
// =============================================================================

// TagListModel is the bubbletea model for picking tags from the index.
// Space marks tags for comparison; enter confirms.
type TagListModel struct {
	Index    *table.Table
	IDs      []string
	Rows     []map[string]string
	Cursor   int
	Offset   int
	Height   int
	Marked   []string
	Selected []string
	Notice   string
}

// NewTagListModel creates a picker over the index rows.
// Rows without an id are left out.
func NewTagListModel(index *table.Table) TagListModel {
	m := TagListModel{Index: index, Height: 15}
	if len(index.Columns) == 0 {
		return m
	}
	idField := index.Columns[0].Field
	for _, row := range index.Rows {
		if id := strings.TrimSpace(row[idField]); id != "" {
			m.IDs = append(m.IDs, id)
			m.Rows = append(m.Rows, row)
		}
	}
	return m
}

func (m TagListModel) Init() tea.Cmd {
	return nil
}

func (m TagListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.Notice = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.IDs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "space":
			m = m.toggle()
		case "enter":
			if len(m.IDs) == 0 {
				return m, nil
			}
			if len(m.Marked) > 0 {
				m.Selected = slices.Clone(m.Marked)
			} else {
				m.Selected = []string{m.IDs[m.Cursor]}
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m TagListModel) toggle() TagListModel {
	if len(m.IDs) == 0 {
		return m
	}
	id := m.IDs[m.Cursor]
	if i := slices.Index(m.Marked, id); i >= 0 {
		m.Marked = slices.Delete(slices.Clone(m.Marked), i, i+1)
		return m
	}
	if len(m.Marked) >= table.MaxCompare {
		m.Notice = fmt.Sprintf("at most %d tags can be compared", table.MaxCompare)
		return m
	}
	m.Marked = append(slices.Clone(m.Marked), id)
	return m
}

func (m TagListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Tags"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space mark  ⏎ show  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.IDs))
	fields := m.Index.Fields()

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := " "
		if slices.Contains(m.Marked, m.IDs[i]) {
			mark = "✓"
		}
		row := []string{cursor, mark}
		for _, f := range fields {
			row = append(row, truncate(m.Rows[i][f], maxCellWidth))
		}
		rows = append(rows, row)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(append([]string{"", ""}, columnTitles(m.Index)...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			base := lipgloss.NewStyle()
			if idx >= len(m.IDs) {
				return base
			}
			marked := slices.Contains(m.Marked, m.IDs[idx])
			switch {
			case idx == m.Cursor && marked:
				return base.Foreground(colorGreen).Bold(true)
			case idx == m.Cursor:
				return base.Foreground(colorCyan).Bold(true)
			case marked:
				return base.Foreground(colorGreen)
			default:
				return base
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	status := fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.IDs))
	if len(m.Marked) > 0 {
		status += fmt.Sprintf("  marked: %s", strings.Join(m.Marked, ", "))
	}
	b.WriteString(listDimStyle.Render(status))
	if m.Notice != "" {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render("  " + m.Notice))
	}

	return b.String()
}
