package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. A zero Width is sized to fit its content.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // highlighted row, -1 for none
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// widths resolves zero column widths from the header and cells.
func (t *Table) widths() []int {
	w := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		if c.Width > 0 {
			w[i] = c.Width
			continue
		}
		w[i] = lipgloss.Width(c.Title)
		for _, r := range t.Rows {
			if i < len(r) && lipgloss.Width(r[i]) > w[i] {
				w[i] = lipgloss.Width(r[i])
			}
		}
	}
	return w
}

// pad left-aligns s in exactly width cells, cutting with "…" when too long.
func pad(s string, width int) string {
	n := lipgloss.Width(s)
	if n == width {
		return s
	}
	if n < width {
		return s + strings.Repeat(" ", width-n)
	}
	if width <= 1 {
		return string([]rune(s)[:width])
	}
	r := []rune(s)
	for lipgloss.Width(string(r)) > width-1 {
		r = r[:len(r)-1]
	}
	return pad(string(r)+"…", width)
}

// Render returns the full table as a string.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	widths := t.widths()

	headers := make([]string, len(t.Columns))
	divider := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = headerStyle.Render(pad(col.Title, widths[i]))
		divider[i] = StyleMeta.Render(strings.Repeat("-", widths[i]))
	}
	sb.WriteString(strings.Join(headers, " ") + "\n")
	sb.WriteString(strings.Join(divider, " ") + "\n")

	for i, row := range t.Rows {
		style := cellStyle
		if i == t.SelIdx {
			style = StyleSelected
		}
		cells := make([]string, len(t.Columns))
		for j := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			cells[j] = style.Render(pad(val, widths[j]))
		}
		sb.WriteString(strings.Join(cells, " ") + "\n")
	}

	return sb.String()
}

// KeyValueBlock renders labelled values in a bordered box, labels aligned.
func KeyValueBlock(title string, pairs [][2]string) string {
	labelWidth := 0
	for _, p := range pairs {
		if w := lipgloss.Width(p[0]) + 1; w > labelWidth {
			labelWidth = w
		}
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title) + "\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(pad(p[0]+":", labelWidth))
		sb.WriteString("  " + key + "  " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(strings.TrimSuffix(sb.String(), "\n"))
}
