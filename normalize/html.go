package normalize

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/formgrid/formgrid/grid"
)

// htmlPolicy keeps only the structural markup word-processor exporters
// emit. Scripts, styles, images and presentational soup are stripped before
// the tree is walked.
var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"html", "head", "body", "title",
		"p", "h1", "h2", "h3", "h4", "h5", "h6",
		"table", "thead", "tbody", "tfoot", "tr", "td", "th",
		"ul", "ol", "li",
		"br", "div", "span", "b", "i", "u", "strong", "em",
	)
	p.AllowAttrs("rowspan", "colspan").OnElements("td", "th")
	return p
}()

// readHTML converts word-processor HTML into a grid set: one grid per
// <table>, and synthetic one-cell rows for the blocks between tables.
// Sub-threshold blocks drop; images never survive sanitization.
func (n *Normalizer) readHTML(buf []byte) grid.Set {
	doc, err := html.Parse(bytes.NewReader(htmlPolicy.SanitizeBytes(buf)))
	if err != nil {
		n.logger.Debug("html not parseable, returning empty set", "error", err)
		return nil
	}

	w := &htmlWalker{minBlockLen: n.cfg.MinBlockLen}
	w.walk(doc)
	w.flushFlow()
	return w.set
}

type htmlWalker struct {
	minBlockLen int
	set         grid.Set
	flow        []grid.Row
}

func (w *htmlWalker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Table:
			w.flushFlow()
			if g := tableToGrid(n); !g.Empty() {
				w.set = append(w.set, g)
			}
			return

		case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Li:
			text := collectText(n)
			if utf8.RuneCountInString(text) >= w.minBlockLen {
				w.flow = append(w.flow, grid.TextRow(text))
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *htmlWalker) flushFlow() {
	if len(w.flow) == 0 {
		return
	}
	w.set = append(w.set, grid.Grid{Origin: "flow", Rows: w.flow})
	w.flow = nil
}

// tableToGrid reads a sanitized <table> element into a grid, carrying
// rowspan/colspan attributes onto the cells. HTML omits the cells swallowed
// by a span, so absorbed placeholders are inserted to keep every cell at
// its layout column.
func tableToGrid(table *html.Node) grid.Grid {
	var g grid.Grid
	carry := map[int]int{} // column -> rows still absorbed by an open rowspan
	var walkRows func(*html.Node)
	walkRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var row grid.Row
			col := 0
			place := func(c grid.Cell) {
				row = append(row, c)
				col++
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				if c.DataAtom != atom.Td && c.DataAtom != atom.Th {
					continue
				}
				for carry[col] > 0 {
					carry[col]--
					place(grid.Cell{})
				}
				cell := grid.NewCell(collectText(c))
				cell.RowSpan = spanAttr(c, "rowspan")
				cell.ColSpan = spanAttr(c, "colspan")
				width := cell.ColSpan
				if width < 1 {
					width = 1
				}
				if cell.RowSpan > 1 {
					for i := 0; i < width; i++ {
						carry[col+i] = cell.RowSpan - 1
					}
				}
				place(cell)
				for i := 1; i < width; i++ {
					place(grid.Cell{})
				}
			}
			for carry[col] > 0 {
				carry[col]--
				place(grid.Cell{})
			}
			if len(row) > 0 {
				g.Rows = append(g.Rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkRows(c)
		}
	}
	walkRows(table)
	g.Origin = "table"
	return g
}

// spanAttr parses a span attribute, treating absence and garbage as 1. A
// literal 0 is kept: exporters use it for cells absorbed by a merge.
func spanAttr(n *html.Node, name string) int {
	for _, a := range n.Attr {
		if a.Key != name {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(a.Val))
		if err != nil || v < 0 {
			return 1
		}
		return v
	}
	return 1
}

// collectText flattens all visible text in a subtree, separating text nodes
// with single spaces.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := collapseSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
