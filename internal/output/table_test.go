package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(t *testing.T) {
	t.Helper()
	SetNoColor(true)
	t.Cleanup(func() { SetNoColor(false) })
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestVisualLen(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"plain", "abc def", 7},
		{"bold", "\x1b[1mhello\x1b[0m", 5},
		{"stacked sequences", "\x1b[1m\x1b[34mblue bold\x1b[0m", 9},
		{"bar glyphs", "██░░", 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, visualLen(tc.input))
		})
	}
}

func TestPadding(t *testing.T) {
	assert.Equal(t, "hi   ", pad("hi", 5))
	assert.Equal(t, "   hi", padLeft("hi", 5))
	assert.Equal(t, "toolong", pad("toolong", 3))
	assert.Equal(t, "toolong", padLeft("toolong", 3))
}

func TestTable_Render(t *testing.T) {
	plain(t)

	tbl := NewTable("FAMILY", "METRIC", "VALUE").AlignRight(2)
	tbl.AddRow("traffic", "sessions", "1000")
	tbl.AddRow("engagement", "bounce_rate", "52.5")

	got := lines(tbl.Render())
	require.Len(t, got, 4)
	assert.Equal(t, "FAMILY      METRIC       VALUE", got[0])
	assert.Equal(t, "──────────  ───────────  ─────", got[1])
	assert.Equal(t, "traffic     sessions      1000", got[2])
	assert.Equal(t, "engagement  bounce_rate   52.5", got[3])
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, tbl.Render(), tbl.String())
}

func TestTable_ShortAndLongRows(t *testing.T) {
	plain(t)

	tbl := NewTable("A", "B")
	tbl.AddRow("only")
	tbl.AddRow("x", "y", "dropped")

	out := tbl.Render()
	assert.NotContains(t, out, "dropped")
	assert.Equal(t, "only  ", lines(out)[2][:6])
}

func TestTable_EmptyHeaders(t *testing.T) {
	assert.Equal(t, "", NewTable().Render())
}

func TestTable_StyledCellsAlign(t *testing.T) {
	SetNoColor(false)
	tbl := NewTable("Severity", "Title")
	tbl.AddRow(StyleError.Render("high"), "Low Traffic Volume")
	tbl.AddRow("medium", "Short Session Duration")

	got := lines(tbl.Render())
	assert.Equal(t, visualLen(got[2]), visualLen(got[3]))
}

func TestSetNoColor(t *testing.T) {
	SetNoColor(true)
	assert.True(t, IsNoColor())
	assert.NotContains(t, StyleHeader.Render("test"), "\x1b[")

	SetNoColor(false)
	assert.False(t, IsNoColor())
	assert.Equal(t, ColorPrimary, StyleHeader.GetForeground())
}
