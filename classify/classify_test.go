package classify

import (
	"regexp"
	"testing"

	"github.com/formgrid/formgrid/grid"
)

func testRules(t *testing.T) []Rule {
	t.Helper()
	return []Rule{
		mustRule(`SUBJECT`, "SUBJECT", KindFreeText),
		mustRule(`COURSE CONTENT`, "COURSE CONTENT", KindTable),
	}
}

// The worked example: two sections, a free-text subject line and a table
// with a located header and two data rows.
func TestClassifyTwoSections(t *testing.T) {
	g := grid.Grid{Rows: []grid.Row{
		grid.TextRow("SUBJECT:", "Algorithms 101"),
		grid.TextRow("COURSE CONTENT"),
		grid.TextRow("Unit", "Hours"),
		grid.TextRow("Intro", "4"),
		grid.TextRow("Loops", "6"),
	}}

	sections := New(Config{Rules: testRules(t)}).Classify(g)
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}

	subject := sections[0]
	if subject.Title != "SUBJECT" || subject.Kind != KindFreeText {
		t.Errorf("section 0 = %s/%s", subject.Title, subject.Kind)
	}
	if len(subject.RawRows) != 1 || subject.RawRows[0][0].Text != "Algorithms 101" {
		t.Errorf("subject raw rows = %v", subject.RawRows)
	}

	content := sections[1]
	if content.Title != "COURSE CONTENT" || content.Kind != KindTable {
		t.Errorf("section 1 = %s/%s", content.Title, content.Kind)
	}
	if got := content.Headers(); len(got) != 2 || got[0] != "Unit" || got[1] != "Hours" {
		t.Errorf("headers = %v", got)
	}
	if len(content.RawRows) != 2 {
		t.Fatalf("data rows = %d, want 2 (header must not replay as data)", len(content.RawRows))
	}
	if content.RawRows[0][0].Text != "Intro" || content.RawRows[1][1].Text != "6" {
		t.Errorf("data rows = %v", content.RawRows)
	}
}

// A row matching both a specific and a later general rule must classify
// under the specific rule's canonical title.
func TestRulePrecedence(t *testing.T) {
	rules := []Rule{
		mustRule(`OBJECTIVES OF THE SUBJECT`, "OBJECTIVES OF THE SUBJECT", KindFreeText),
		mustRule(`SUBJECT`, "SUBJECT", KindFreeText),
	}
	g := grid.Grid{Rows: []grid.Row{
		grid.TextRow("Objectives of the Subject"),
		grid.TextRow("Understand loops."),
	}}
	sections := New(Config{Rules: rules}).Classify(g)
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	if sections[0].Title != "OBJECTIVES OF THE SUBJECT" {
		t.Errorf("title = %q: general rule captured a specific row", sections[0].Title)
	}

	// Reversed order flips the outcome: the documented design knob.
	reversed := []Rule{rules[1], rules[0]}
	sections = New(Config{Rules: reversed}).Classify(g)
	if sections[0].Title != "SUBJECT" {
		t.Errorf("title = %q, want SUBJECT under reversed order", sections[0].Title)
	}
}

func TestClassifyDropsPreSectionNoise(t *testing.T) {
	g := grid.Grid{Rows: []grid.Row{
		grid.TextRow("Some preamble nobody asked for"),
		grid.TextRow("SUBJECT:", "Compilers"),
	}}
	sections := New(Config{Rules: testRules(t)}).Classify(g)
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	if len(sections[0].RawRows) != 1 {
		t.Errorf("noise leaked into section: %v", sections[0].RawRows)
	}
}

func TestClassifyBoilerplateSuppression(t *testing.T) {
	cfg := Config{
		Rules:       testRules(t),
		Boilerplate: []*regexp.Regexp{regexp.MustCompile(`UNIVERSIDAD EJEMPLO|DESCRIPTIVE CHART`)},
	}
	g := grid.Grid{Rows: []grid.Row{
		grid.TextRow("SUBJECT:"),
		grid.TextRow("Universidad Ejemplo"),
		grid.TextRow("Descriptive Chart"),
		grid.TextRow("Databases II"),
	}}
	sections := New(cfg).Classify(g)
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	if len(sections[0].RawRows) != 1 || sections[0].RawRows[0][0].Text != "Databases II" {
		t.Errorf("boilerplate leaked: %v", sections[0].RawRows)
	}
}

func TestClassifyNormalization(t *testing.T) {
	rules := []Rule{mustRule(`COURSE CONTENT`, "COURSE CONTENT", KindFreeText)}
	g := grid.Grid{Rows: []grid.Row{
		grid.TextRow("“course   content”"),
		grid.TextRow("Body text here."),
	}}
	sections := New(Config{Rules: rules}).Classify(g)
	if len(sections) != 1 {
		t.Fatal("curly quotes and case should not defeat matching")
	}
}

func TestHeaderWindowExhausted(t *testing.T) {
	// Six single-cell rows follow the trigger: none qualifies within the
	// 5-row window, so the section proceeds with no header.
	g := grid.Grid{Rows: []grid.Row{
		grid.TextRow("COURSE CONTENT"),
		grid.TextRow("one"),
		grid.TextRow("two"),
		grid.TextRow("three"),
		grid.TextRow("four"),
		grid.TextRow("five"),
		grid.TextRow("six", "seven"),
	}}
	sections := New(Config{Rules: testRules(t)}).Classify(g)
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	if sections[0].HeaderRow != nil {
		t.Errorf("header = %v, want none within the window", sections[0].Headers())
	}
	if len(sections[0].RawRows) != 6 {
		t.Errorf("data rows = %d, want 6", len(sections[0].RawRows))
	}
}

func TestHeaderTrimsTrailingEmptyCells(t *testing.T) {
	g := grid.Grid{Rows: []grid.Row{
		grid.TextRow("COURSE CONTENT"),
		grid.TextRow("Unit", "Hours", "", ""),
		grid.TextRow("Intro", "4", "", ""),
	}}
	sections := New(Config{Rules: testRules(t)}).Classify(g)
	if got := sections[0].Headers(); len(got) != 2 {
		t.Errorf("headers = %v, trailing empties should be trimmed", got)
	}
	// The untrimmed source row must still be recognized as the header.
	if len(sections[0].RawRows) != 1 {
		t.Errorf("data rows = %d, want 1 (header replayed as data)", len(sections[0].RawRows))
	}
}

func TestHeaderScanStopsAtNextRule(t *testing.T) {
	// The only multi-cell row within the window belongs to the next
	// section; the scan must not steal it.
	g := grid.Grid{Rows: []grid.Row{
		grid.TextRow("COURSE CONTENT"),
		grid.TextRow("SUBJECT:", "Algorithms 101"),
	}}
	sections := New(Config{Rules: testRules(t)}).Classify(g)
	if len(sections) != 1 {
		// COURSE CONTENT accumulated nothing and is dropped.
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	if sections[0].Title != "SUBJECT" {
		t.Errorf("section = %q", sections[0].Title)
	}
}

func TestClassifyEmptyGrid(t *testing.T) {
	if got := New(Config{}).Classify(grid.Grid{}); len(got) != 0 {
		t.Errorf("empty grid classified into %d sections", len(got))
	}
}

func TestMatchAgainstWholeRowConcatenation(t *testing.T) {
	// The phrase spans two cells; only the joined row matches.
	rules := []Rule{mustRule(`COURSE CONTENT`, "COURSE CONTENT", KindTable)}
	g := grid.Grid{Rows: []grid.Row{
		{grid.NewCell("COURSE"), grid.NewCell("CONTENT")},
		grid.TextRow("Unit", "Hours"),
		grid.TextRow("Intro", "4"),
	}}
	sections := New(Config{Rules: rules}).Classify(g)
	if len(sections) != 1 || sections[0].Title != "COURSE CONTENT" {
		t.Fatalf("whole-row match failed: %+v", sections)
	}
}

// A merge-absorbed header cell must keep its column slot so the headers
// after it stay aligned with their data columns.
func TestHeadersKeepColumnPositions(t *testing.T) {
	s := Section{HeaderRow: grid.Row{
		{Text: "Unit", RowSpan: 1, ColSpan: 2},
		{},
		grid.NewCell("Hours"),
	}}
	got := s.Headers()
	if len(got) != 3 {
		t.Fatalf("headers = %v, want 3 entries", got)
	}
	if got[0] != "Unit" || got[1] != "" || got[2] != "Hours" {
		t.Errorf("headers = %v, want [Unit \"\" Hours]", got)
	}
}
