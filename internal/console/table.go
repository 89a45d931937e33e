package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

type boxChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical, cross                string
	tLeft, tRight, tTop, tBottom               string
}

var (
	lineBox = boxChars{
		topLeft: "┌", topRight: "┐", bottomLeft: "└", bottomRight: "┘",
		horizontal: "─", vertical: "│", cross: "┼",
		tLeft: "├", tRight: "┤", tTop: "┬", tBottom: "┴",
	}
	asciiBox = boxChars{
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|", cross: "+",
		tLeft: "|", tRight: "|", tTop: "-", tBottom: "-",
	}
)

// FprintTable writes a table with the given headers and data to w.
// data should be a flat list of strings, length must be a multiple of len(headers).
// useLineChars determines if Unicode box drawing characters are used.
// Cells may contain console tags; widths are measured on the visible text.
func FprintTable(w io.Writer, headers []string, data []string, useLineChars bool) {
	cols := len(headers)
	if cols == 0 {
		return
	}

	colWidths := make([]int, cols)
	for i, h := range headers {
		colWidths[i] = max(colWidths[i], visibleWidth(h))
	}
	for i, d := range data {
		col := i % cols
		colWidths[col] = max(colWidths[col], visibleWidth(d))
	}

	box := asciiBox
	if useLineChars {
		box = lineBox
	}

	var top, middle, bottom strings.Builder
	top.WriteString(box.topLeft)
	middle.WriteString(box.tLeft)
	bottom.WriteString(box.bottomLeft)
	for i, width := range colWidths {
		dashes := strings.Repeat(box.horizontal, width+2)
		top.WriteString(dashes)
		middle.WriteString(dashes)
		bottom.WriteString(dashes)
		if i < cols-1 {
			top.WriteString(box.tTop)
			middle.WriteString(box.cross)
			bottom.WriteString(box.tBottom)
		} else {
			top.WriteString(box.topRight)
			middle.WriteString(box.tRight)
			bottom.WriteString(box.bottomRight)
		}
	}

	printRow := func(items []string) {
		var row strings.Builder
		row.WriteString(box.vertical)
		for i, item := range items {
			row.WriteString(" ")
			row.WriteString(item)
			row.WriteString("{{|-|}}")
			row.WriteString(strings.Repeat(" ", colWidths[i]-visibleWidth(item)))
			row.WriteString(" ")
			row.WriteString(box.vertical)
		}
		fmt.Fprintln(w, ToANSI(row.String()))
	}

	fmt.Fprintln(w, top.String())
	printRow(headers)
	fmt.Fprintln(w, middle.String())
	for i := 0; i < len(data); i += cols {
		row := make([]string, cols)
		copy(row, data[i:min(i+cols, len(data))])
		printRow(row)
	}
	fmt.Fprintln(w, bottom.String())
}

func visibleWidth(s string) int {
	return runewidth.StringWidth(Strip(s))
}
