package normalize

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/formgrid/formgrid/grid"
)

// readDocx walks word/document.xml and produces one grid per w:tbl plus
// interleaved flow grids of one-cell rows for the paragraphs between tables.
func (n *Normalizer) readDocx(buf []byte) (grid.Set, error) {
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	w := docxWalker{minBlockLen: n.cfg.MinBlockLen}
	if err := w.walk(xml.NewDecoder(rc)); err != nil {
		return nil, err
	}
	return w.finish(), nil
}

type docxCell struct {
	text    strings.Builder
	colSpan int
	vMerge  string // "", "restart", "continue"
}

type docxWalker struct {
	minBlockLen int

	set  grid.Set
	flow []grid.Row

	tableDepth int
	tableRows  [][]docxCell
	row        []docxCell
	cell       *docxCell

	inPara   bool
	paraText strings.Builder
}

func (w *docxWalker) walk(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			// io.EOF ends the walk; truncated XML is treated the same way
			// since word processors occasionally emit it.
			return nil
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				w.tableDepth++
				if w.tableDepth == 1 {
					w.flushFlow()
					w.tableRows = nil
				}
			case "tr":
				if w.tableDepth == 1 {
					w.row = nil
				}
			case "tc":
				if w.tableDepth == 1 {
					w.row = append(w.row, docxCell{colSpan: 1})
					w.cell = &w.row[len(w.row)-1]
				}
			case "gridSpan":
				if w.cell != nil && w.tableDepth == 1 {
					for _, a := range t.Attr {
						if a.Name.Local == "val" {
							n := 0
							for _, ch := range a.Value {
								if ch < '0' || ch > '9' {
									n = 0
									break
								}
								n = n*10 + int(ch-'0')
							}
							if n > 1 {
								w.cell.colSpan = n
							}
						}
					}
				}
			case "vMerge":
				if w.cell != nil && w.tableDepth == 1 {
					w.cell.vMerge = "continue"
					for _, a := range t.Attr {
						if a.Name.Local == "val" && a.Value == "restart" {
							w.cell.vMerge = "restart"
						}
					}
				}
			case "p":
				w.inPara = true
				w.paraText.Reset()
			case "br", "cr":
				if w.cell != nil {
					w.cell.text.WriteByte(' ')
				}
			}

		case xml.CharData:
			if w.inPara {
				w.paraText.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if !w.inPara {
					continue
				}
				w.inPara = false
				text := collapseSpace(w.paraText.String())
				if w.cell != nil {
					if text != "" {
						if w.cell.text.Len() > 0 {
							w.cell.text.WriteByte(' ')
						}
						w.cell.text.WriteString(text)
					}
				} else if w.tableDepth == 0 {
					// Flow block. Image-only and sub-threshold blocks drop.
					if utf8.RuneCountInString(text) >= w.minBlockLen {
						w.flow = append(w.flow, grid.TextRow(text))
					}
				}
			case "tc":
				if w.tableDepth == 1 {
					w.cell = nil
				}
			case "tr":
				if w.tableDepth == 1 && len(w.row) > 0 {
					w.tableRows = append(w.tableRows, w.row)
					w.row = nil
				}
			case "tbl":
				w.tableDepth--
				if w.tableDepth == 0 {
					w.flushTable()
				}
			}
		}
	}
}

// flushFlow closes the current run of non-table blocks into a flow grid.
func (w *docxWalker) flushFlow() {
	if len(w.flow) == 0 {
		return
	}
	w.set = append(w.set, grid.Grid{Origin: "flow", Rows: w.flow})
	w.flow = nil
}

// flushTable converts accumulated docx cells into a grid, resolving
// vertical merges: continuation cells become span-0 absorbed cells and the
// restart cell above them accumulates the row span.
func (w *docxWalker) flushTable() {
	if len(w.tableRows) == 0 {
		return
	}
	type cellPos struct {
		row, idx, col int
		merge         string
	}
	rows := make([]grid.Row, len(w.tableRows))
	var positions []cellPos

	for i, tr := range w.tableRows {
		row := make(grid.Row, 0, len(tr))
		col := 0
		for j := range tr {
			dc := &tr[j]
			c := grid.NewCell(strings.TrimSpace(dc.text.String()))
			c.ColSpan = dc.colSpan
			if dc.vMerge == "continue" {
				c.RowSpan, c.ColSpan = 0, 0
			}
			row = append(row, c)
			positions = append(positions, cellPos{i, len(row) - 1, col, dc.vMerge})
			col += dc.colSpan
		}
		rows[i] = row
	}

	// Second pass over the finished rows: grow the restart cell's row span
	// for every continuation below it in the same grid column.
	roots := map[int]*grid.Cell{}
	for _, p := range positions {
		switch p.merge {
		case "restart":
			roots[p.col] = &rows[p.row][p.idx]
		case "continue":
			if root := roots[p.col]; root != nil {
				root.RowSpan++
			}
		default:
			delete(roots, p.col)
		}
	}

	w.set = append(w.set, grid.Grid{Origin: "table", Rows: rows})
	w.tableRows = nil
}

// finish flushes any trailing flow rows and returns the accumulated set.
func (w *docxWalker) finish() grid.Set {
	w.flushFlow()
	return w.set
}

// collapseSpace trims and collapses internal whitespace runs to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
