package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user leaves the menu without choosing.
var ErrCancelled = errors.New("selection cancelled")

// Choose maps a menu number to the selected entries. 0 selects all of them.
func Choose(items []string, n int) ([]string, error) {
	switch {
	case n == 0:
		return append([]string(nil), items...), nil
	case n >= 1 && n <= len(items):
		return []string{items[n-1]}, nil
	default:
		return nil, fmt.Errorf("choice %d out of range 0..%d", n, len(items))
	}
}

// WriteMenu prints the numbered list, with 0 standing for every entry.
func WriteMenu(w io.Writer, items []string) error {
	if _, err := fmt.Fprintln(w, "0: all"); err != nil {
		return err
	}
	for i, item := range items {
		if _, err := fmt.Fprintf(w, "%d: %s\n", i+1, item); err != nil {
			return err
		}
	}
	return nil
}

// Prompt is the line-based menu used when stdout is not a terminal.
func Prompt(r io.Reader, w io.Writer, items []string) ([]string, error) {
	if err := WriteMenu(w, items); err != nil {
		return nil, err
	}
	if _, err := fmt.Fprint(w, "Enter number: "); err != nil {
		return nil, err
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrCancelled
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return nil, fmt.Errorf("invalid choice %q", line)
	}
	return Choose(items, n)
}

type menuModel struct {
	title    string
	items    []string
	cursor   int // 0 is "all"
	chosen   bool
	quitting bool
}

// NewMenuModel returns a Bubble Tea model that picks one entry or all of them.
func NewMenuModel(title string, items []string) tea.Model {
	return &menuModel{title: title, items: items}
}

// Selection extracts the result from a finished menu model.
func Selection(m tea.Model) ([]string, error) {
	mm, ok := m.(*menuModel)
	if !ok || !mm.chosen {
		return nil, ErrCancelled
	}
	return Choose(mm.items, mm.cursor)
}

func (m *menuModel) Init() tea.Cmd { return nil }

func (m *menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items) {
			m.cursor++
		}
	case "enter":
		m.chosen = true
		return m, tea.Quit
	default:
		if n, err := strconv.Atoi(key.String()); err == nil && n <= len(m.items) {
			m.cursor = n
		}
	}
	return m, nil
}

func (m *menuModel) View() string {
	if m.chosen || m.quitting {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	selected := lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	for i := 0; i <= len(m.items); i++ {
		label := "all"
		if i > 0 {
			label = truncate(m.items[i-1], 72)
		}
		line := fmt.Sprintf("%3d: %s", i, label)
		if i == m.cursor {
			b.WriteString(selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nenter to compile, q to quit\n")
	return b.String()
}
