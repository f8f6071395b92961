package store

import (
	"context"
	"database/sql"
)

// Reassemble reconstructs display-ready sections for one document from its
// relational records, in template section order: the inverse of Decompose.
//
// Free-text sections emit the stored string. Table sections emit the field
// labels as headers and, per content row, values aligned to field order
// with missing values rendered as empty strings. A field with zero values
// across all rows renders as an empty column, never an error.
func (s *Store) Reassemble(ctx context.Context, tpl *Template, documentID string) ([]DisplaySection, error) {
	if tpl == nil {
		return nil, validationErr("nil template")
	}
	if documentID == "" {
		return nil, validationErr("empty document id")
	}

	out := make([]DisplaySection, 0, len(tpl.Sections))
	for i := range tpl.Sections {
		sec := &tpl.Sections[i]
		ds := DisplaySection{Name: sec.Name, Kind: sec.Kind}

		var recordID, freeText string
		err := s.DB.QueryRowContext(ctx,
			`SELECT id, free_text FROM content_records WHERE document_id = ? AND section_id = ?`,
			documentID, sec.ID).Scan(&recordID, &freeText)
		if err != nil && err != sql.ErrNoRows {
			return nil, storageErr("load record", err)
		}

		if sec.Kind == "table" {
			ds.Headers = make([]string, len(sec.Fields))
			for j, f := range sec.Fields {
				ds.Headers[j] = f.Label
			}
			if recordID != "" {
				rows, err := s.loadDisplayRows(ctx, recordID, sec)
				if err != nil {
					return nil, err
				}
				ds.Rows = rows
			}
		} else {
			ds.FreeText = freeText
		}
		out = append(out, ds)
	}
	return out, nil
}

func (s *Store) loadDisplayRows(ctx context.Context, recordID string, sec *TemplateSection) ([][]string, error) {
	fieldIdx := make(map[string]int, len(sec.Fields))
	for i, f := range sec.Fields {
		fieldIdx[f.ID] = i
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id FROM content_rows WHERE record_id = ? ORDER BY position`, recordID)
	if err != nil {
		return nil, storageErr("load rows", err)
	}
	defer rows.Close()
	var rowIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan row", err)
		}
		rowIDs = append(rowIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("load rows", err)
	}

	out := make([][]string, len(rowIDs))
	for i, rowID := range rowIDs {
		line := make([]string, len(sec.Fields))
		vals, err := s.DB.QueryContext(ctx,
			`SELECT field_id, value FROM content_values WHERE row_id = ?`, rowID)
		if err != nil {
			return nil, storageErr("load values", err)
		}
		for vals.Next() {
			var fieldID, value string
			if err := vals.Scan(&fieldID, &value); err != nil {
				vals.Close()
				return nil, storageErr("scan value", err)
			}
			if idx, ok := fieldIdx[fieldID]; ok {
				line[idx] = value
			}
		}
		if err := vals.Err(); err != nil {
			vals.Close()
			return nil, storageErr("load values", err)
		}
		vals.Close()
		out[i] = line
	}
	return out, nil
}
