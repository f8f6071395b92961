package classify

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/formgrid/formgrid/grid"
)

// Section is a classified, titled block of rows from one document, before
// persistence. Title is the canonical title from the matched rule, never
// the raw row text.
type Section struct {
	Title     string
	Kind      SectionKind
	RawRows   []grid.Row
	HeaderRow grid.Row // tabular sections only; nil when no candidate qualified
}

// HasContent reports whether the section accumulated anything worth keeping.
func (s *Section) HasContent() bool {
	return len(s.RawRows) > 0 || s.HeaderRow != nil
}

// Headers returns the header cell texts by column position, or nil when no
// header row was located. Merge-absorbed cells yield an empty string so the
// columns after a merged header keep their original positions.
func (s *Section) Headers() []string {
	if s.HeaderRow == nil {
		return nil
	}
	out := make([]string, len(s.HeaderRow))
	for i, c := range s.HeaderRow {
		if c.Absorbed() {
			continue
		}
		out[i] = c.Text
	}
	return out
}

// Config configures the classifier.
type Config struct {
	// Rules is the ordered rule list; defaults to DefaultRules().
	Rules []Rule

	// HeaderWindow is how many rows past a table section's trigger row are
	// scanned for a header candidate (default: 5).
	HeaderWindow int

	// MinHeaderCells is the minimum count of non-empty cells for a row to
	// qualify as a header (default: 2).
	MinHeaderCells int

	// Boilerplate patterns suppress leading junk rows (institution names,
	// the document's own generic title) while the first section is open.
	Boilerplate []*regexp.Regexp

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if len(c.Rules) == 0 {
		c.Rules = DefaultRules()
	}
	if c.HeaderWindow <= 0 {
		c.HeaderWindow = 5
	}
	if c.MinHeaderCells <= 0 {
		c.MinHeaderCells = 2
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Classifier partitions grids into sections.
type Classifier struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Classifier.
func New(cfg Config) *Classifier {
	cfg.defaults()
	return &Classifier{cfg: cfg, logger: cfg.Logger}
}

// Rules returns the active ordered rule list.
func (c *Classifier) Rules() []Rule {
	return c.cfg.Rules
}

// accumulator is the classifier's explicit two-state machine: either no
// section is open, or one section is open and accumulating rows. The only
// transition trigger is a rule match.
type accumulator struct {
	current *Section
	out     []Section
}

// close appends the open section to the output if it accumulated content.
func (a *accumulator) close() {
	if a.current != nil && a.current.HasContent() {
		a.out = append(a.out, *a.current)
	}
	a.current = nil
}

// Classify scans the grid top to bottom and partitions it into an ordered
// list of typed sections.
func (c *Classifier) Classify(g grid.Grid) []Section {
	var acc accumulator

	for i, row := range g.Rows {
		norm := normalizeRow(row)

		rule, matchedCell := c.match(norm)
		if rule != nil {
			// A rule-matching row is never data for the previous section,
			// even when it also carries data-looking cells.
			acc.close()
			sec := &Section{Title: rule.Title, Kind: rule.Kind}
			if rule.Kind == KindTable {
				sec.HeaderRow = c.locateHeader(g.Rows[i+1:])
			} else if matchedCell >= 0 {
				// The trigger row's remaining cells are the section's first
				// data, e.g. ["SUBJECT:", "Algorithms 101"].
				if rest := cellsExcept(row, matchedCell); rest.NonEmpty() > 0 {
					sec.RawRows = append(sec.RawRows, rest)
				}
			}
			acc.current = sec
			c.logger.Debug("section opened", "title", rule.Title, "kind", rule.Kind, "row", i)
			continue
		}

		if acc.current == nil {
			// Pre-section noise.
			continue
		}
		if len(acc.out) == 0 && c.isBoilerplate(norm) {
			continue
		}
		if acc.current.HeaderRow != nil && trimTrailingEmpty(row).Equal(acc.current.HeaderRow) {
			// The chosen header row must not replay as data.
			continue
		}
		if acc.current.Kind == KindTable {
			// Keep the full row, empty or not, so column positions and row
			// counts survive into decomposition.
			acc.current.RawRows = append(acc.current.RawRows, row)
		} else if row.NonEmpty() > 0 {
			acc.current.RawRows = append(acc.current.RawRows, row)
		}
	}

	acc.close()
	return acc.out
}

// match evaluates the ordered rule list against a normalized row. The first
// matching rule wins. It returns the index of the first individual cell the
// pattern matched, or -1 when only the whole-row concatenation matched.
func (c *Classifier) match(norm normalizedRow) (*Rule, int) {
	for i := range c.cfg.Rules {
		r := &c.cfg.Rules[i]
		for j, cell := range norm.cells {
			if cell != "" && r.Pattern.MatchString(cell) {
				return r, j
			}
		}
		if norm.joined != "" && r.Pattern.MatchString(norm.joined) {
			return r, -1
		}
	}
	return nil, -1
}

func (c *Classifier) isBoilerplate(norm normalizedRow) bool {
	for _, p := range c.cfg.Boilerplate {
		if p.MatchString(norm.joined) {
			return true
		}
	}
	return false
}

// locateHeader scans up to HeaderWindow rows following a table section's
// trigger row and picks the first with at least MinHeaderCells non-empty
// cells, trailing fully-empty cells trimmed. The scan stops early at the
// next rule-matching row so a header is never stolen from the following
// section. Returns nil when no candidate qualifies; the section then falls
// back to positional column naming downstream.
func (c *Classifier) locateHeader(following []grid.Row) grid.Row {
	window := c.cfg.HeaderWindow
	if window > len(following) {
		window = len(following)
	}
	for _, row := range following[:window] {
		if r, _ := c.match(normalizeRow(row)); r != nil {
			return nil
		}
		if row.NonEmpty() >= c.cfg.MinHeaderCells {
			return trimTrailingEmpty(row)
		}
	}
	return nil
}

func trimTrailingEmpty(row grid.Row) grid.Row {
	end := len(row)
	for end > 0 && row[end-1].Empty() {
		end--
	}
	return row[:end]
}

// cellsExcept returns the row without the cell at index i.
func cellsExcept(row grid.Row, i int) grid.Row {
	out := make(grid.Row, 0, len(row)-1)
	out = append(out, row[:i]...)
	out = append(out, row[i+1:]...)
	return out
}

// normalizedRow is a row prepared for pattern matching: each cell
// upper-cased with collapsed whitespace and curly quotes stripped, plus the
// whole-row concatenation of the non-empty cells.
type normalizedRow struct {
	cells  []string
	joined string
}

var curlyQuotes = strings.NewReplacer("“", "", "”", "", "‘", "", "’", "")

// NormalizeText upper-cases, collapses whitespace runs and strips curly
// quotes. All pattern matching happens over this representation.
func NormalizeText(s string) string {
	s = curlyQuotes.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToUpper(s)
}

func normalizeRow(row grid.Row) normalizedRow {
	n := normalizedRow{cells: make([]string, 0, len(row))}
	var joined []string
	for _, c := range row {
		if c.Absorbed() {
			n.cells = append(n.cells, "")
			continue
		}
		t := NormalizeText(c.Text)
		n.cells = append(n.cells, t)
		if t != "" {
			joined = append(joined, t)
		}
	}
	n.joined = strings.Join(joined, " ")
	return n
}
