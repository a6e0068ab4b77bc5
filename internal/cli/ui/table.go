package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under bold headers
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, headers []string, noColor bool) *Table {
	return &Table{
		writer:  w,
		headers: headers,
		rows:    make([][]string, 0),
		noColor: noColor,
	}
}

// AddRow adds a row; missing cells render empty
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}

	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if t.noColor {
		bold.DisableColor()
		gray.DisableColor()
	}

	last := len(t.headers) - 1
	for i, header := range t.headers {
		bold.Fprint(t.writer, cell(header, widths[i], i == last))
		if i < last {
			fmt.Fprint(t.writer, "  ")
		}
	}
	fmt.Fprintln(t.writer)

	for i, width := range widths {
		gray.Fprint(t.writer, strings.Repeat("─", width))
		if i < last {
			gray.Fprint(t.writer, "  ")
		}
	}
	fmt.Fprintln(t.writer)

	for _, row := range t.rows {
		for i := range t.headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			fmt.Fprint(t.writer, cell(value, widths[i], i == last))
			if i < last {
				fmt.Fprint(t.writer, "  ")
			}
		}
		fmt.Fprintln(t.writer)
	}
}

// cell pads s to width; the last column is not padded
func cell(s string, width int, last bool) string {
	n := utf8.RuneCountInString(s)
	if last || n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// KeyValueTable renders aligned "key: value" lines
type KeyValueTable struct {
	writer  io.Writer
	rows    [][2]string
	noColor bool
}

// NewKeyValueTable creates a new key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair to the table
func (t *KeyValueTable) AddRow(key, value string) {
	t.rows = append(t.rows, [2]string{key, value})
}

// Render renders the key-value table
func (t *KeyValueTable) Render() {
	maxKeyWidth := 0
	for _, row := range t.rows {
		if n := utf8.RuneCountInString(row[0]); n > maxKeyWidth {
			maxKeyWidth = n
		}
	}

	cyan := color.New(color.FgCyan)
	if t.noColor {
		cyan.DisableColor()
	}
	for _, row := range t.rows {
		cyan.Fprint(t.writer, cell(row[0]+":", maxKeyWidth+1, false))
		fmt.Fprintf(t.writer, " %s\n", row[1])
	}
}

// Header renders a styled title underlined to its width
func Header(w io.Writer, title string, noColor bool) {
	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if noColor {
		bold.DisableColor()
		gray.DisableColor()
	}
	bold.Fprintln(w, title)
	gray.Fprintln(w, strings.Repeat("─", utf8.RuneCountInString(title)))
}
