package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/formgrid/formgrid/classify"
	"github.com/formgrid/formgrid/dbopen"
)

// DecomposeConfig tunes decomposition behaviour.
type DecomposeConfig struct {
	// KeepEmptyRows preserves fully-empty table rows as empty ContentRows
	// instead of dropping them. Off by default.
	KeepEmptyRows bool
}

// Decompose maps the classified sections' cell values onto an already
// synthesized template, producing one ContentRecord per matched template
// section, inside one transaction.
//
// A section with no matching template section (template drift) is skipped
// with a warning; the rest of the document still decomposes.
func (s *Store) Decompose(ctx context.Context, documentID string, sections []classify.Section, tpl *Template, cfg DecomposeConfig) ([]ContentRecord, error) {
	var records []ContentRecord
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		records, err = s.decomposeTx(ctx, tx, documentID, sections, tpl, cfg)
		return err
	})
	if err != nil {
		return nil, tagStorage("decompose", err)
	}
	return records, nil
}

func (s *Store) decomposeTx(ctx context.Context, tx *sql.Tx, documentID string, sections []classify.Section, tpl *Template, cfg DecomposeConfig) ([]ContentRecord, error) {
	if documentID == "" {
		return nil, validationErr("empty document id")
	}
	if tpl == nil {
		return nil, validationErr("nil template")
	}

	var records []ContentRecord
	for i := range sections {
		src := &sections[i]
		sec := tpl.Section(src.Title)
		if sec == nil {
			s.logger.Warn("section drift: no template section for classified section, skipping",
				"section", src.Title, "template", tpl.Name)
			continue
		}

		rec := ContentRecord{
			ID:         s.id("rec_"),
			DocumentID: documentID,
			SectionID:  sec.ID,
		}
		if src.Kind == classify.KindTable {
			rec.Rows = s.buildTableRows(&rec, src, sec, cfg)
		} else {
			rec.FreeText = flattenFreeText(src)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO content_records (id, document_id, section_id, free_text) VALUES (?, ?, ?, ?)`,
			rec.ID, rec.DocumentID, rec.SectionID, rec.FreeText); err != nil {
			return nil, storageErr("insert content record", err)
		}
		for _, row := range rec.Rows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO content_rows (id, record_id, position) VALUES (?, ?, ?)`,
				row.ID, row.RecordID, row.Order); err != nil {
				return nil, storageErr("insert content row", err)
			}
			for _, v := range row.Values {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO content_values (id, row_id, field_id, value) VALUES (?, ?, ?, ?)`,
					v.ID, v.RowID, v.FieldID, v.Value); err != nil {
					return nil, storageErr("insert content value", err)
				}
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// buildTableRows builds the rows for one tabular section. Every raw data
// row becomes a ContentRow (even when it resolves to zero values); fully
// empty raw rows are dropped unless KeepEmptyRows is set. Values are read
// at each field's original column position.
func (s *Store) buildTableRows(rec *ContentRecord, src *classify.Section, sec *TemplateSection, cfg DecomposeConfig) []ContentRow {
	var rows []ContentRow
	for _, raw := range src.RawRows {
		if raw.Empty() && !cfg.KeepEmptyRows {
			continue
		}
		row := ContentRow{
			ID:       s.id("row_"),
			RecordID: rec.ID,
			Order:    len(rows),
		}
		for _, f := range sec.Fields {
			if f.Order >= len(raw) {
				continue
			}
			cell := raw[f.Order]
			if cell.Empty() {
				continue
			}
			row.Values = append(row.Values, ContentValue{
				ID:      s.id("val_"),
				RowID:   row.ID,
				FieldID: f.ID,
				Value:   strings.TrimSpace(cell.Text),
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// flattenFreeText joins each raw row's non-empty cells with a single space
// and rows with a newline, so no structural markers leak into prose fields.
func flattenFreeText(src *classify.Section) string {
	var lines []string
	for _, row := range src.RawRows {
		cells := row.NonEmptyTexts()
		if len(cells) == 0 {
			continue
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}
