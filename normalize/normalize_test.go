package normalize

import (
	"strings"
	"testing"
)

func TestNormalizeHTMLTablesAndFlow(t *testing.T) {
	input := []byte(`<html><body>
<h1>Universidad Ejemplo</h1>
<p>SUBJECT: Algorithms 101</p>
<img src="logo.png">
<p>..</p>
<table>
  <tr><th>Unit</th><th>Hours</th></tr>
  <tr><td>Intro</td><td>4</td></tr>
  <tr><td colspan="2">Loops and iteration</td></tr>
</table>
<p>Evaluation is continuous.</p>
</body></html>`)

	set, err := New(Config{}).Normalize(input, KindWordProcessor)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("grids = %d, want 3 (flow, table, flow)", len(set))
	}

	flow := set[0]
	if len(flow.Rows) != 2 {
		t.Fatalf("flow rows = %d, want 2 (image and '..' dropped)", len(flow.Rows))
	}
	if flow.Rows[1][0].Text != "SUBJECT: Algorithms 101" {
		t.Errorf("flow row = %q", flow.Rows[1][0].Text)
	}

	table := set[1]
	if len(table.Rows) != 3 {
		t.Fatalf("table rows = %d, want 3", len(table.Rows))
	}
	if table.Rows[2][0].ColSpan != 2 {
		t.Errorf("colspan = %d, want 2", table.Rows[2][0].ColSpan)
	}

	if set[2].Rows[0][0].Text != "Evaluation is continuous." {
		t.Errorf("trailing flow = %q", set[2].Rows[0][0].Text)
	}
}

func TestNormalizeHTMLStripsScripts(t *testing.T) {
	input := []byte(`<html><body>
<script>alert("boom")</script>
<style>p { display: none }</style>
<p>Visible paragraph</p>
</body></html>`)

	set, err := New(Config{}).Normalize(input, KindWordProcessor)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	flat := set.Flatten()
	for _, row := range flat.Rows {
		for _, c := range row {
			if strings.Contains(c.Text, "alert") || strings.Contains(c.Text, "display") {
				t.Errorf("sanitizer leak: %q", c.Text)
			}
		}
	}
	if len(flat.Rows) != 1 || flat.Rows[0][0].Text != "Visible paragraph" {
		t.Errorf("rows = %v", flat.Rows)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	set, err := New(Config{}).Normalize(nil, KindWordProcessor)
	if err != nil {
		t.Fatalf("empty input should not error: %v", err)
	}
	if !set.Empty() {
		t.Error("expected empty set")
	}
}

func TestNormalizeUnknownKind(t *testing.T) {
	if _, err := New(Config{}).Normalize([]byte("x"), Kind("pdf")); err == nil {
		t.Error("unknown kind should be rejected")
	}
}

func TestNormalizeSizeCap(t *testing.T) {
	n := New(Config{MaxInputSize: 8})
	if _, err := n.Normalize([]byte("<p>too large for the cap</p>"), KindWordProcessor); err == nil {
		t.Error("oversized input should be rejected")
	}
}

func TestRawFallback(t *testing.T) {
	md := RawFallback([]byte("<h1>Syllabus</h1><p>Plain prose.</p>"), KindWordProcessor)
	if !strings.Contains(md, "Syllabus") || !strings.Contains(md, "Plain prose.") {
		t.Errorf("fallback markdown = %q", md)
	}
	if RawFallback([]byte{'P', 'K', 3, 4}, KindWordProcessor) != "" {
		t.Error("binary input should produce no fallback")
	}
	if RawFallback([]byte("<p>x</p>"), KindSpreadsheet) != "" {
		t.Error("spreadsheets have no raw fallback")
	}
}

// HTML omits the cells swallowed by a span, so the reader must reinsert
// absorbed placeholders to keep every cell at its layout column.
func TestNormalizeHTMLSpanPlaceholders(t *testing.T) {
	input := []byte(`<html><body>
<table>
  <tr><th colspan="2">Unit</th><th>Hours</th></tr>
  <tr><td rowspan="2">Intro</td><td>part a</td><td>4</td></tr>
  <tr><td>part b</td><td>6</td></tr>
</table>
</body></html>`)

	set, err := New(Config{}).Normalize(input, KindWordProcessor)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("grids = %d, want 1", len(set))
	}

	header := set[0].Rows[0]
	if len(header) != 3 {
		t.Fatalf("header cells = %d, want 3", len(header))
	}
	if !header[1].Absorbed() {
		t.Error("cell under the colspan should be absorbed")
	}
	if header[2].Text != "Hours" {
		t.Errorf("header[2] = %q, want Hours", header[2].Text)
	}

	last := set[0].Rows[2]
	if len(last) != 3 {
		t.Fatalf("last row cells = %d, want 3", len(last))
	}
	if !last[0].Absorbed() {
		t.Error("cell under the rowspan should be absorbed")
	}
	if last[1].Text != "part b" || last[2].Text != "6" {
		t.Errorf("last row = %v", last)
	}
}
