package store

import (
	"context"
	"database/sql"
)

// GetTemplate loads a template with its sections and fields, in order.
// Returns nil when no template has that id.
func (s *Store) GetTemplate(ctx context.Context, id string) (*Template, error) {
	return s.loadTemplate(ctx, `SELECT id, name, created_at, updated_at FROM templates WHERE id = ?`, id)
}

// GetTemplateByName loads a template by its unique name, matched
// case-insensitively. Returns nil when absent.
func (s *Store) GetTemplateByName(ctx context.Context, name string) (*Template, error) {
	return s.loadTemplate(ctx, `SELECT id, name, created_at, updated_at FROM templates WHERE name = ?`, name)
}

func (s *Store) loadTemplate(ctx context.Context, query, arg string) (*Template, error) {
	var tpl Template
	err := s.DB.QueryRowContext(ctx, query, arg).Scan(&tpl.ID, &tpl.Name, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("load template", err)
	}
	if err := s.loadSections(ctx, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *Store) loadSections(ctx context.Context, tpl *Template) error {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, template_id, name, kind, position FROM template_sections
		WHERE template_id = ? ORDER BY position`, tpl.ID)
	if err != nil {
		return storageErr("load sections", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sec TemplateSection
		if err := rows.Scan(&sec.ID, &sec.TemplateID, &sec.Name, &sec.Kind, &sec.Order); err != nil {
			return storageErr("scan section", err)
		}
		tpl.Sections = append(tpl.Sections, sec)
	}
	if err := rows.Err(); err != nil {
		return storageErr("load sections", err)
	}

	for i := range tpl.Sections {
		if err := s.loadFields(ctx, &tpl.Sections[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadFields(ctx context.Context, sec *TemplateSection) error {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, section_id, name, label, position, field_type, required FROM template_fields
		WHERE section_id = ? ORDER BY position`, sec.ID)
	if err != nil {
		return storageErr("load fields", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f TemplateField
		if err := rows.Scan(&f.ID, &f.SectionID, &f.Name, &f.Label, &f.Order, &f.FieldType, &f.Required); err != nil {
			return storageErr("scan field", err)
		}
		sec.Fields = append(sec.Fields, f)
	}
	return rows.Err()
}

// TemplateSummary is the list-view shape of a template.
type TemplateSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SectionCount int    `json:"section_count"`
	UpdatedAt    int64  `json:"updated_at"`
}

// ListTemplates returns all templates, most recently updated first.
func (s *Store) ListTemplates(ctx context.Context) ([]TemplateSummary, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT t.id, t.name, COUNT(sec.id), t.updated_at
		FROM templates t
		LEFT JOIN template_sections sec ON sec.template_id = t.id
		GROUP BY t.id ORDER BY t.updated_at DESC`)
	if err != nil {
		return nil, storageErr("list templates", err)
	}
	defer rows.Close()
	var out []TemplateSummary
	for rows.Next() {
		var ts TemplateSummary
		if err := rows.Scan(&ts.ID, &ts.Name, &ts.SectionCount, &ts.UpdatedAt); err != nil {
			return nil, storageErr("scan template", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// CountOrphanValues returns the number of content values whose field no
// longer exists. Always zero unless the cascade ordering is broken; exposed
// for tests and health diagnostics.
func (s *Store) CountOrphanValues(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_values v
		LEFT JOIN template_fields f ON f.id = v.field_id
		WHERE f.id IS NULL`).Scan(&n)
	if err != nil {
		return 0, storageErr("count orphans", err)
	}
	return n, nil
}
