package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/formgrid/formgrid/classify"
	"github.com/formgrid/formgrid/dbopen"
)

// Synthesize persists the classified sections as a template under the given
// name, inside one transaction.
//
// Synthesis is idempotent per name, matched case-insensitively: when a
// template with this name already exists, all of its dependent content is
// cascade-deleted leaf to root
// (values → rows → records → fields → sections) and the section/field
// definitions are rebuilt in place. A mid-sequence failure rolls the whole
// attempt back, leaving the previous template state intact.
func (s *Store) Synthesize(ctx context.Context, sections []classify.Section, name string) (*Template, error) {
	var tpl *Template
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		tpl, err = s.synthesizeTx(ctx, tx, sections, name)
		return err
	})
	if err != nil {
		return nil, tagStorage("synthesize", err)
	}
	return tpl, nil
}

// tagStorage wraps err as a storage error unless it is already one of the
// package's tagged kinds.
func tagStorage(op string, err error) error {
	for _, tagged := range []error{ErrNoStructure, ErrValidation, ErrStorage, ErrCascadeOrdering} {
		if errors.Is(err, tagged) {
			return err
		}
	}
	return storageErr(op, err)
}

func (s *Store) synthesizeTx(ctx context.Context, tx *sql.Tx, sections []classify.Section, name string) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErr("empty template name")
	}
	if len(sections) == 0 {
		return nil, ErrNoStructure
	}

	now := time.Now().UnixMilli()
	tpl := &Template{Name: name, CreatedAt: now, UpdatedAt: now}

	var existingID string
	var createdAt int64
	err := tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM templates WHERE name = ?`, name).Scan(&existingID, &createdAt)
	switch {
	case err == sql.ErrNoRows:
		tpl.ID = s.id("tpl_")
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO templates (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			tpl.ID, tpl.Name, tpl.CreatedAt, tpl.UpdatedAt); err != nil {
			return nil, storageErr("insert template", err)
		}
	case err != nil:
		return nil, storageErr("lookup template", err)
	default:
		tpl.ID = existingID
		tpl.CreatedAt = createdAt
		if err := s.cascadeDeleteTx(ctx, tx, existingID); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE templates SET updated_at = ? WHERE id = ?`, now, existingID); err != nil {
			return nil, storageErr("touch template", err)
		}
	}

	for i := range sections {
		sec, err := s.insertSectionTx(ctx, tx, tpl.ID, &sections[i], i)
		if err != nil {
			return nil, err
		}
		tpl.Sections = append(tpl.Sections, *sec)
	}
	return tpl, nil
}

// cascadeDeleteTx removes every descendant of a template in strict
// leaf-to-root order. Foreign keys carry no database-level cascade, so a
// mis-ordered delete here fails as a constraint violation and aborts the
// transaction rather than orphaning children.
func (s *Store) cascadeDeleteTx(ctx context.Context, tx *sql.Tx, templateID string) error {
	steps := []struct {
		op    string
		query string
	}{
		{"delete content values", `DELETE FROM content_values WHERE field_id IN (
			SELECT f.id FROM template_fields f
			JOIN template_sections sec ON sec.id = f.section_id
			WHERE sec.template_id = ?)`},
		{"delete content rows", `DELETE FROM content_rows WHERE record_id IN (
			SELECT r.id FROM content_records r
			JOIN template_sections sec ON sec.id = r.section_id
			WHERE sec.template_id = ?)`},
		{"delete content records", `DELETE FROM content_records WHERE section_id IN (
			SELECT id FROM template_sections WHERE template_id = ?)`},
		{"delete template fields", `DELETE FROM template_fields WHERE section_id IN (
			SELECT id FROM template_sections WHERE template_id = ?)`},
		{"delete template sections", `DELETE FROM template_sections WHERE template_id = ?`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, templateID); err != nil {
			return storageErr(step.op, err)
		}
	}
	return nil
}

func (s *Store) insertSectionTx(ctx context.Context, tx *sql.Tx, templateID string, src *classify.Section, order int) (*TemplateSection, error) {
	sec := &TemplateSection{
		ID:         s.id("sec_"),
		TemplateID: templateID,
		Name:       src.Title,
		Kind:       string(src.Kind),
		Order:      order,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO template_sections (id, template_id, name, kind, position) VALUES (?, ?, ?, ?, ?)`,
		sec.ID, sec.TemplateID, sec.Name, sec.Kind, sec.Order); err != nil {
		return nil, storageErr("insert section", err)
	}

	if src.Kind != classify.KindTable {
		return sec, nil
	}

	for _, f := range deriveFields(src) {
		f.ID = s.id("fld_")
		f.SectionID = sec.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO template_fields (id, section_id, name, label, position, field_type, required)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.SectionID, f.Name, f.Label, f.Order, f.FieldType, f.Required); err != nil {
			return nil, storageErr("insert field", err)
		}
		sec.Fields = append(sec.Fields, f)
	}
	return sec, nil
}

// deriveFields builds the field list for a tabular section: one field per
// non-empty header cell, order = original column position (empty header
// cells are skipped but still advance the position). Sections with no
// located header fall back to positional names sized by the widest raw row.
func deriveFields(src *classify.Section) []TemplateField {
	headers := src.Headers()
	if len(headers) == 0 {
		width := 0
		for _, row := range src.RawRows {
			if len(row) > width {
				width = len(row)
			}
		}
		fields := make([]TemplateField, 0, width)
		for i := 0; i < width; i++ {
			fields = append(fields, TemplateField{
				Name:      positionalName(i),
				Label:     positionalName(i),
				Order:     i,
				FieldType: "text",
			})
		}
		return fields
	}

	var fields []TemplateField
	seen := map[string]int{}
	for i, h := range headers {
		label := strings.TrimSpace(h)
		if label == "" {
			continue
		}
		name := fieldSlug(label)
		seen[name]++
		if n := seen[name]; n > 1 {
			name = name + "_" + strconv.Itoa(n)
		}
		fields = append(fields, TemplateField{
			Name:      name,
			Label:     label,
			Order:     i,
			FieldType: "text",
		})
	}
	return fields
}

// fieldSlug lower-cases the header text and turns separator runs into
// underscores.
func fieldSlug(label string) string {
	return strings.ReplaceAll(slug.Make(label), "-", "_")
}

func positionalName(i int) string {
	return "column_" + strconv.Itoa(i+1)
}
