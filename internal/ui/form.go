package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Field is one input of a Form.
type Field struct {
	Key         string
	Label       string
	Placeholder string
	Value       string // initial value
	Optional    bool
	Validate    func(string) error // nil accepts anything
}

// Form collects several validated text inputs.
type Form struct {
	Title  string
	Fields []Field
}

type formModel struct {
	title     string
	fields    []Field
	values    []string
	errs      []string
	focus     int
	submitted bool
	cancelled bool
}

func newForm(f Form) formModel {
	m := formModel{
		title:  f.Title,
		fields: f.Fields,
		values: make([]string, len(f.Fields)),
		errs:   make([]string, len(f.Fields)),
	}
	for i, fl := range f.Fields {
		m.values[i] = fl.Value
	}
	return m
}

// check validates field i and records its error.
func (m *formModel) check(i int) bool {
	v := strings.TrimSpace(m.values[i])
	f := m.fields[i]
	switch {
	case v == "" && !f.Optional:
		m.errs[i] = f.Label + " is required."
	case v != "" && f.Validate != nil:
		if err := f.Validate(v); err != nil {
			m.errs[i] = err.Error()
		} else {
			m.errs[i] = ""
		}
	default:
		m.errs[i] = ""
	}
	return m.errs[i] == ""
}

func (m formModel) Init() tea.Cmd { return nil }

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit

	case tea.KeyShiftTab, tea.KeyUp:
		if m.focus > 0 {
			m.focus--
		}

	case tea.KeyTab, tea.KeyDown:
		if m.check(m.focus) && m.focus < len(m.fields)-1 {
			m.focus++
		}

	case tea.KeyEnter:
		if !m.check(m.focus) {
			return m, nil
		}
		if m.focus < len(m.fields)-1 {
			m.focus++
			return m, nil
		}
		for i := range m.fields {
			if !m.check(i) {
				m.focus = i
				return m, nil
			}
		}
		m.submitted = true
		return m, tea.Quit

	case tea.KeyBackspace:
		if v := []rune(m.values[m.focus]); len(v) > 0 {
			m.values[m.focus] = string(v[:len(v)-1])
		}

	case tea.KeySpace:
		m.values[m.focus] += " "

	case tea.KeyRunes:
		in := string(key.Runes)
		if key.Paste {
			in = strings.TrimSpace(strings.Trim(in, "[]"))
		}
		m.values[m.focus] += in
	}
	return m, nil
}

func (m formModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render(m.title) + "\n")
	for i, f := range m.fields {
		label := f.Label
		if f.Optional {
			label += StyleMeta.Render(" (optional)")
		}
		value := m.values[i]
		if value == "" && i != m.focus {
			value = StyleMeta.Render(f.Placeholder)
		}

		if i == m.focus {
			sb.WriteString(StyleHeader.Render(label) + "\n")
			sb.WriteString("▸ " + StyleAddress.Render(m.values[i]) + "█")
			if m.values[i] == "" && f.Placeholder != "" {
				sb.WriteString(" " + StyleMeta.Render(f.Placeholder))
			}
			sb.WriteString("\n")
		} else {
			sb.WriteString(StyleValue.Render(label) + "\n  " + value + "\n")
		}
		if m.errs[i] != "" {
			sb.WriteString("  " + Err(m.errs[i]) + "\n")
		}
	}
	sb.WriteString("\n" + StyleMeta.Render("Enter next/submit · Tab/↑↓ move · Esc cancel"))
	return StyleBorder.Render(sb.String()) + "\n"
}

// result returns trimmed input keyed by field.
func (m formModel) result() map[string]string {
	out := make(map[string]string, len(m.fields))
	for i, f := range m.fields {
		out[f.Key] = strings.TrimSpace(m.values[i])
	}
	return out
}

// Run shows the form and returns the submitted values keyed by Field.Key,
// or ErrCancelled.
func (f Form) Run() (map[string]string, error) {
	if len(f.Fields) == 0 {
		return nil, errors.New("form has no fields")
	}
	final, err := tea.NewProgram(newForm(f)).Run()
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	fm := final.(formModel)
	if !fm.submitted {
		return nil, ErrCancelled
	}
	return fm.result(), nil
}
