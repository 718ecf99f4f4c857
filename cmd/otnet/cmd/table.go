package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/OpenTraceLab/netcore/pkg/diag"
)

// maxCell caps column width; longer cells are truncated with "..."
const maxCell = 48

var warnColor = color.New(color.FgYellow, color.Bold)

// table collects rows and prints them with columns padded to display width,
// so net names with wide runes still line up
type table struct {
	header []string
	rows   [][]string
}

func newTable(header ...string) *table {
	return &table{header: header}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer) {
	widths := make([]int, len(t.header))
	all := append([][]string{t.header}, t.rows...)
	for _, row := range all {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if n := runewidth.StringWidth(fitCell(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for _, row := range all {
		var b strings.Builder
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = fitCell(row[i])
			}
			if i == len(widths)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(padCell(cell, widths[i]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func fitCell(s string) string {
	return runewidth.Truncate(s, maxCell, "...")
}

func padCell(s string, width int) string {
	if n := runewidth.StringWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// printWarnings writes ws to w, highlighting the kind. It returns the number
// written.
func printWarnings(w io.Writer, l *diag.List) int {
	if l == nil {
		return 0
	}
	for _, item := range l.Items() {
		warnColor.Fprint(w, item.Kind.String())
		fmt.Fprintf(w, ": %s", item.Message)
		if item.HasWhere {
			fmt.Fprintf(w, " at %s", item.Where)
		}
		fmt.Fprintln(w)
	}
	if n := l.Dropped(); n > 0 {
		fmt.Fprintf(w, "... %d more warnings not shown\n", n)
	}
	return l.Len()
}
