package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// columnGap separates table columns.
const columnGap = "  "

// Table renders rows under styled headers with a rule beneath them. Cells
// may carry lipgloss styling; widths are measured on visible characters.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
	right   map[int]bool
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	t := &Table{headers: headers, widths: make([]int, len(headers)), right: map[int]bool{}}
	for i, h := range headers {
		t.widths[i] = visualLen(h)
	}
	return t
}

// AlignRight right-aligns the given columns, for numbers.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// AddRow adds a row. Missing trailing values render empty; extra values are
// ignored.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	for i, cell := range row {
		t.widths[i] = max(t.widths[i], visualLen(cell))
	}
	t.rows = append(t.rows, row)
}

// Render returns the formatted table.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}
	var sb strings.Builder

	header := make([]string, len(t.headers))
	rule := make([]string, len(t.headers))
	for i, h := range t.headers {
		header[i] = StyleHeader.Render(t.cell(i, h))
		rule[i] = StyleMuted.Render(strings.Repeat("─", t.widths[i]))
	}
	writeLine(&sb, header)
	writeLine(&sb, rule)

	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = t.cell(i, v)
		}
		writeLine(&sb, cells)
	}
	return sb.String()
}

func (t *Table) cell(col int, s string) string {
	if t.right[col] {
		return padLeft(s, t.widths[col])
	}
	return pad(s, t.widths[col])
}

func writeLine(sb *strings.Builder, cells []string) {
	sb.WriteString(strings.Join(cells, columnGap))
	sb.WriteByte('\n')
}

// String implements fmt.Stringer.
func (t *Table) String() string {
	return t.Render()
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Fprint writes the table to w.
func (t *Table) Fprint(w io.Writer) {
	fmt.Fprint(w, t.Render())
}

// visualLen is the printed width of s, ignoring ANSI escapes.
func visualLen(s string) int {
	return lipgloss.Width(s)
}

// pad right-pads s to a visible width. Longer strings are not truncated.
func pad(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-visualLen(s)))
}

// padLeft left-pads s to a visible width.
func padLeft(s string, width int) string {
	return strings.Repeat(" ", max(0, width-visualLen(s))) + s
}
