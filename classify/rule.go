// Package classify partitions a normalized grid into typed, titled sections
// and locates header rows for tabular sections.
//
// Classification is driven by an ordered rule list evaluated first-match-wins.
// The order is a deliberate precedence policy: some canonical titles are
// textual supersets of others ("OBJECTIVES OF THE SUBJECT" must be tried
// before "SUBJECT"), so reordering the list changes outcomes. The list is
// plain data and can be loaded from and saved to YAML.
package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// SectionKind is the type of a classified section.
type SectionKind string

const (
	// KindHeader is the document's identification block (institution,
	// subject metadata): rendered as a key-value field set, not a table.
	KindHeader SectionKind = "header"
	// KindFreeText is prose accumulated into a single text value.
	KindFreeText SectionKind = "freeText"
	// KindTable is a tabular section with an inferred column header row.
	KindTable SectionKind = "table"
)

func (k SectionKind) valid() bool {
	switch k {
	case KindHeader, KindFreeText, KindTable:
		return true
	}
	return false
}

// Rule maps a pattern over normalized row text to a canonical section title
// and kind. The pattern is matched against the whole-row concatenation and
// against each individual cell.
type Rule struct {
	Pattern *regexp.Regexp
	Title   string
	Kind    SectionKind
}

func mustRule(pattern, title string, kind SectionKind) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Title: title, Kind: kind}
}

// DefaultRules returns the built-in rule set for academic course documents
// (syllabi, descriptive charts). Order matters: specific titles come before
// the generic ones they contain.
func DefaultRules() []Rule {
	return []Rule{
		mustRule(`OBJECTIVES? OF THE (SUBJECT|COURSE)`, "OBJECTIVES OF THE SUBJECT", KindFreeText),
		mustRule(`GENERAL OBJECTIVES?`, "GENERAL OBJECTIVE", KindFreeText),
		mustRule(`SPECIFIC OBJECTIVES?`, "SPECIFIC OBJECTIVES", KindFreeText),
		mustRule(`(GENERAL (DATA|INFORMATION)|IDENTIFICATION DATA)`, "GENERAL DATA", KindHeader),
		mustRule(`(COURSE|THEMATIC) CONTENTS?`, "COURSE CONTENT", KindTable),
		mustRule(`LEARNING (UNITS?|ACTIVITIES)`, "LEARNING UNITS", KindTable),
		mustRule(`(EVALUATION|ASSESSMENT)( CRITERIA)?`, "EVALUATION CRITERIA", KindTable),
		mustRule(`(TEACHING )?METHODOLOG(Y|IES)`, "METHODOLOGY", KindFreeText),
		mustRule(`(SCHEDULE|TIMETABLE|CALENDAR)`, "SCHEDULE", KindTable),
		mustRule(`(BIBLIOGRAPHY|REFERENCES|RECOMMENDED READING)`, "BIBLIOGRAPHY", KindFreeText),
		mustRule(`(PREREQUISITES?|PRIOR KNOWLEDGE)`, "PREREQUISITES", KindFreeText),
		mustRule(`(SUBJECT|COURSE NAME)`, "SUBJECT", KindFreeText),
	}
}

// ruleYAML is the serialized form of a Rule.
type ruleYAML struct {
	Pattern string      `yaml:"pattern"`
	Title   string      `yaml:"title"`
	Kind    SectionKind `yaml:"kind"`
}

type ruleFileYAML struct {
	Rules []ruleYAML `yaml:"rules"`
}

// ParseRules decodes an ordered rule list from YAML.
func ParseRules(data []byte) ([]Rule, error) {
	var f ruleFileYAML
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("classify: parse rules: %w", err)
	}
	rules := make([]Rule, 0, len(f.Rules))
	for i, ry := range f.Rules {
		if ry.Title == "" {
			return nil, fmt.Errorf("classify: rule %d: empty title", i)
		}
		if !ry.Kind.valid() {
			return nil, fmt.Errorf("classify: rule %d (%s): unknown kind %q", i, ry.Title, ry.Kind)
		}
		re, err := regexp.Compile(ry.Pattern)
		if err != nil {
			return nil, fmt.Errorf("classify: rule %d (%s): %w", i, ry.Title, err)
		}
		rules = append(rules, Rule{Pattern: re, Title: ry.Title, Kind: ry.Kind})
	}
	return rules, nil
}

// LoadRules reads an ordered rule list from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classify: read rules: %w", err)
	}
	return ParseRules(data)
}

// MarshalRules encodes a rule list to YAML, preserving order.
func MarshalRules(rules []Rule) ([]byte, error) {
	f := ruleFileYAML{Rules: make([]ruleYAML, 0, len(rules))}
	for _, r := range rules {
		f.Rules = append(f.Rules, ruleYAML{Pattern: r.Pattern.String(), Title: r.Title, Kind: r.Kind})
	}
	return yaml.Marshal(&f)
}
