package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user quits a picker or form.
var ErrCancelled = errors.New("cancelled")

// PickerItem is one entry shown in the interactive picker.
type PickerItem struct {
	Label   string // primary text, e.g. wallet name
	Detail  string // dimmed text, e.g. address
	Value   string // returned on selection
	Current bool   // marked and preselected
}

type pickerModel struct {
	title    string
	items    []PickerItem
	cursor   int
	selected *PickerItem
	quitting bool
}

func newPicker(title string, items []PickerItem) pickerModel {
	m := pickerModel{title: title, items: items}
	for i, it := range items {
		if it.Current {
			m.cursor = i
			break
		}
	}
	return m
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		item := m.items[m.cursor]
		m.selected = &item
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting || m.selected != nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render(m.title) + "\n")

	for i, item := range m.items {
		line := StyleValue.Render(item.Label)
		if item.Detail != "" {
			line += "  " + StyleMeta.Render(item.Detail)
		}
		if item.Current {
			line += "  " + StyleSuccess.Render("(current)")
		}
		if i == m.cursor {
			sb.WriteString(StyleSelected.Render("▸ ") + line + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}

	sb.WriteString("\n" + StyleMeta.Render("↑↓ navigate · Enter select · q cancel") + "\n")
	return sb.String()
}

// PickItem runs the picker and returns the chosen item's Value, or
// ErrCancelled.
func PickItem(title string, items []PickerItem) (string, error) {
	if len(items) == 0 {
		return "", errors.New("no items to pick from")
	}

	final, err := tea.NewProgram(newPicker(title, items)).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}

	fm := final.(pickerModel)
	if fm.selected == nil {
		return "", ErrCancelled
	}
	return fm.selected.Value, nil
}
