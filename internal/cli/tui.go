package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vizhost/vizhost/pkg/session"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SessionListModel - Interactive session selection
// =============================================================================

// SessionListModel is the bubbletea model for interactive session selection.
type SessionListModel struct {
	Sessions []session.Summary
	Cursor   int
	Selected *session.Summary
	Height   int
	Offset   int
}

// NewSessionListModel creates a new session list model.
func NewSessionListModel(sessions []session.Summary) SessionListModel {
	return SessionListModel{
		Sessions: sessions,
		Height:   15,
	}
}

func (m SessionListModel) Init() tea.Cmd {
	return nil
}

func (m SessionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
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
			if m.Cursor < len(m.Sessions)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			sel := m.Sessions[m.Cursor]
			m.Selected = &sel
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m SessionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Session"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Sessions) {
		end = len(m.Sessions)
	}

	for i := m.Offset; i < end; i++ {
		s := m.Sessions[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		name := s.Name
		if name == "" {
			name = s.ID
		}
		line := fmt.Sprintf("%s%-30s  %2d instance(s)  %s",
			cursor, name, s.Instances, formatRelativeTime(s.UpdatedAt))

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Sessions))))

	return b.String()
}

// pickSession runs the interactive list and returns the chosen summary, or
// nil when the user quit without selecting.
func pickSession(sessions []session.Summary) (*session.Summary, error) {
	p := tea.NewProgram(NewSessionListModel(sessions))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	fm, ok := finalModel.(SessionListModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", finalModel)
	}
	return fm.Selected, nil
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
