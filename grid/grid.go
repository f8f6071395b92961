// Package grid defines the uniform tabular shape every source document is
// normalized into: an ordered sequence of rows of trimmed text cells.
//
// A Cell with a span of 0 has been absorbed by a merged region; it must be
// skipped by consumers and never rendered.
package grid

import "strings"

// Cell is one trimmed text cell. RowSpan/ColSpan default to 1; a span of 0
// marks a cell absorbed by a merge.
type Cell struct {
	Text    string
	RowSpan int
	ColSpan int
}

// NewCell returns a Cell with the given text and unit spans.
func NewCell(text string) Cell {
	return Cell{Text: text, RowSpan: 1, ColSpan: 1}
}

// Absorbed reports whether the cell was swallowed by a merged region.
func (c Cell) Absorbed() bool {
	return c.RowSpan == 0 || c.ColSpan == 0
}

// Empty reports whether the cell carries no visible text.
func (c Cell) Empty() bool {
	return c.Absorbed() || strings.TrimSpace(c.Text) == ""
}

// Row is an ordered sequence of cells.
type Row []Cell

// TextRow builds a Row of unit-span cells from plain strings.
func TextRow(texts ...string) Row {
	r := make(Row, 0, len(texts))
	for _, t := range texts {
		r = append(r, NewCell(t))
	}
	return r
}

// NonEmpty returns the number of cells with visible text.
func (r Row) NonEmpty() int {
	n := 0
	for _, c := range r {
		if !c.Empty() {
			n++
		}
	}
	return n
}

// Empty reports whether every cell in the row is empty or absorbed.
func (r Row) Empty() bool {
	return r.NonEmpty() == 0
}

// Texts returns the cell texts in order, absorbed cells skipped.
func (r Row) Texts() []string {
	out := make([]string, 0, len(r))
	for _, c := range r {
		if c.Absorbed() {
			continue
		}
		out = append(out, c.Text)
	}
	return out
}

// NonEmptyTexts returns the trimmed texts of non-empty cells, in order.
func (r Row) NonEmptyTexts() []string {
	var out []string
	for _, c := range r {
		if c.Empty() {
			continue
		}
		out = append(out, strings.TrimSpace(c.Text))
	}
	return out
}

// Equal reports whether two rows carry identical cell texts position by
// position, ignoring spans. Used to detect header rows replayed as data.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i].Text != other[i].Text {
			return false
		}
	}
	return true
}

// Grid is an ordered sequence of rows produced from one source unit: a
// spreadsheet sheet, one HTML table, or the flow of non-table blocks
// between tables.
type Grid struct {
	// Origin names the source unit, e.g. a sheet name or "table"/"flow".
	Origin string
	Rows   []Row
}

// Empty reports whether the grid has no rows at all.
func (g *Grid) Empty() bool {
	return len(g.Rows) == 0
}

// Set is the ordered collection of grids one document normalizes into.
type Set []Grid

// Flatten concatenates all grids into one, preserving document order, so
// the classifier can run a single top-to-bottom scan.
func (s Set) Flatten() Grid {
	var out Grid
	for _, g := range s {
		out.Rows = append(out.Rows, g.Rows...)
	}
	return out
}

// Empty reports whether the set contains no rows in any grid.
func (s Set) Empty() bool {
	for _, g := range s {
		if !g.Empty() {
			return false
		}
	}
	return true
}
