package normalize

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/formgrid/formgrid/grid"
)

// XLSX is a ZIP of XML parts. Sheet order comes from xl/workbook.xml, sheet
// file paths from xl/_rels/workbook.xml.rels, string cells from the shared
// string table.

type xlsxWorkbook struct {
	XMLName xml.Name `xml:"workbook"`
	Sheets  struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

type xlsxRelationships struct {
	XMLName      xml.Name `xml:"Relationships"`
	Relationship []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xlsxSharedStrings struct {
	XMLName xml.Name `xml:"sst"`
	SI      []struct {
		T string `xml:"t"`
		R []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

type xlsxWorksheet struct {
	XMLName   xml.Name `xml:"worksheet"`
	SheetData struct {
		Rows []xlsxRow `xml:"row"`
	} `xml:"sheetData"`
	MergeCells *struct {
		MergeCell []struct {
			Ref string `xml:"ref,attr"`
		} `xml:"mergeCell"`
	} `xml:"mergeCells"`
}

type xlsxRow struct {
	R     int        `xml:"r,attr"` // 1-indexed row number
	Cells []xlsxCell `xml:"c"`
}

type xlsxCell struct {
	R  string `xml:"r,attr"` // cell reference, e.g. "B3"
	T  string `xml:"t,attr"` // s = shared string, inlineStr, b, n, str, e
	V  string `xml:"v"`
	Is *struct {
		T string `xml:"t"`
	} `xml:"is"`
}

// readXLSX produces one grid per worksheet, in workbook order.
func (n *Normalizer) readXLSX(buf []byte) (grid.Set, error) {
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	if files["xl/workbook.xml"] == nil {
		return nil, fmt.Errorf("xl/workbook.xml not found in archive")
	}

	var wb xlsxWorkbook
	if err := unmarshalZip(files, "xl/workbook.xml", &wb); err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}

	rels := make(map[string]string)
	if files["xl/_rels/workbook.xml.rels"] != nil {
		var r xlsxRelationships
		if err := unmarshalZip(files, "xl/_rels/workbook.xml.rels", &r); err != nil {
			return nil, fmt.Errorf("parse workbook rels: %w", err)
		}
		for _, rel := range r.Relationship {
			rels[rel.ID] = rel.Target
		}
	}

	var shared []string
	if files["xl/sharedStrings.xml"] != nil {
		var sst xlsxSharedStrings
		if err := unmarshalZip(files, "xl/sharedStrings.xml", &sst); err == nil {
			shared = make([]string, 0, len(sst.SI))
			for _, si := range sst.SI {
				if len(si.R) > 0 {
					var sb strings.Builder
					for _, run := range si.R {
						sb.WriteString(run.T)
					}
					shared = append(shared, sb.String())
				} else {
					shared = append(shared, si.T)
				}
			}
		}
	}

	var set grid.Set
	for i, ref := range wb.Sheets.Sheet {
		path := sheetPath(rels[ref.RID], i)
		f := files[path]
		if f == nil {
			continue
		}
		var ws xlsxWorksheet
		if err := unmarshalZip(files, path, &ws); err != nil {
			return nil, fmt.Errorf("parse worksheet %s: %w", path, err)
		}
		g := sheetToGrid(&ws, shared)
		g.Origin = ref.Name
		set = append(set, g)
	}
	return set, nil
}

func unmarshalZip(files map[string]*zip.File, name string, v any) error {
	rc, err := files[name].Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

// sheetPath resolves a relationship target to a ZIP path, falling back to
// the conventional sheetN.xml name when relationships are absent.
func sheetPath(target string, index int) string {
	if target == "" {
		return fmt.Sprintf("xl/worksheets/sheet%d.xml", index+1)
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return "xl/" + target
}

// sheetToGrid builds a dense grid from the sparse XML rows: gaps between
// referenced cells become empty cells and every row is padded to the sheet
// width so column alignment is stable across rows.
func sheetToGrid(ws *xlsxWorksheet, shared []string) grid.Grid {
	maxRow, maxCol := 0, 0
	for _, row := range ws.SheetData.Rows {
		r := row.R
		if r == 0 {
			r = maxRow + 1
		}
		if r > maxRow {
			maxRow = r
		}
		for _, c := range row.Cells {
			col, _, err := parseCellRef(c.R)
			if err != nil {
				continue
			}
			if col+1 > maxCol {
				maxCol = col + 1
			}
		}
	}
	if maxRow == 0 || maxCol == 0 {
		return grid.Grid{}
	}

	rows := make([]grid.Row, maxRow)
	for i := range rows {
		row := make(grid.Row, maxCol)
		for j := range row {
			row[j] = grid.NewCell("")
		}
		rows[i] = row
	}

	rowCursor := 0
	for _, xr := range ws.SheetData.Rows {
		r := xr.R
		if r == 0 {
			r = rowCursor + 1
		}
		rowCursor = r
		for colCursor, c := range xr.Cells {
			col, _, err := parseCellRef(c.R)
			if err != nil {
				col = colCursor
			}
			if col >= maxCol {
				continue
			}
			rows[r-1][col] = grid.NewCell(strings.TrimSpace(cellValue(c, shared)))
		}
	}

	applyMerges(ws, rows)
	return grid.Grid{Rows: rows}
}

func cellValue(c xlsxCell, shared []string) string {
	switch c.T {
	case "s":
		idx := 0
		for _, ch := range c.V {
			if ch < '0' || ch > '9' {
				return c.V
			}
			idx = idx*10 + int(ch-'0')
		}
		if idx < len(shared) {
			return shared[idx]
		}
		return ""
	case "inlineStr":
		if c.Is != nil {
			return c.Is.T
		}
		return ""
	case "b":
		if c.V == "1" {
			return "TRUE"
		}
		return "FALSE"
	default:
		return c.V
	}
}

// applyMerges marks merge roots with their spans and absorbed cells with
// span 0 so downstream stages skip them.
func applyMerges(ws *xlsxWorksheet, rows []grid.Row) {
	if ws.MergeCells == nil {
		return
	}
	for _, m := range ws.MergeCells.MergeCell {
		parts := strings.SplitN(m.Ref, ":", 2)
		if len(parts) != 2 {
			continue
		}
		c1, r1, err1 := parseCellRef(parts[0])
		c2, r2, err2 := parseCellRef(parts[1])
		if err1 != nil || err2 != nil {
			continue
		}
		for r := r1; r <= r2 && r < len(rows); r++ {
			for c := c1; c <= c2 && c < len(rows[r]); c++ {
				if r == r1 && c == c1 {
					rows[r][c].RowSpan = r2 - r1 + 1
					rows[r][c].ColSpan = c2 - c1 + 1
				} else {
					rows[r][c].RowSpan = 0
					rows[r][c].ColSpan = 0
				}
			}
		}
	}
}

// parseCellRef converts an A1-style reference into 0-indexed column and row.
func parseCellRef(ref string) (col, row int, err error) {
	if ref == "" {
		return 0, 0, fmt.Errorf("empty cell reference")
	}
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A') + 1
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("malformed cell reference %q", ref)
	}
	for ; i < len(ref); i++ {
		if ref[i] < '0' || ref[i] > '9' {
			return 0, 0, fmt.Errorf("malformed cell reference %q", ref)
		}
		row = row*10 + int(ref[i]-'0')
	}
	return col - 1, row - 1, nil
}
