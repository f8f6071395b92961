package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/formgrid/formgrid/classify"
	"github.com/formgrid/formgrid/dbopen"
)

// IngestDocument runs synthesis and decomposition for one uploaded document
// in a single transaction: the template and the document's first content
// records are created together or rolled back together. The document row is
// registered in the same transaction.
//
// Callers must hold the single-writer lock for the template name; two
// ingests targeting the same name must serialize, not interleave.
func (s *Store) IngestDocument(ctx context.Context, doc *Document, sections []classify.Section, templateName string, cfg DecomposeConfig) (*Template, []ContentRecord, error) {
	if doc == nil || strings.TrimSpace(doc.Name) == "" {
		return nil, nil, validationErr("document needs a name")
	}

	var (
		tpl     *Template
		records []ContentRecord
	)
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		tpl, err = s.synthesizeTx(ctx, tx, sections, templateName)
		if err != nil {
			return err
		}

		doc.ID = s.id("doc_")
		doc.TemplateID = tpl.ID
		doc.CreatedAt = time.Now().UnixMilli()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, name, kind, template_id, raw_fallback, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			doc.ID, doc.Name, doc.Kind, doc.TemplateID, doc.RawFallback, doc.CreatedAt); err != nil {
			return storageErr("insert document", err)
		}

		records, err = s.decomposeTx(ctx, tx, doc.ID, sections, tpl, cfg)
		return err
	})
	if err != nil {
		return nil, nil, tagStorage("ingest", err)
	}
	return tpl, records, nil
}

// RegisterDocument inserts a document row that carries no relational
// content, only the raw fallback capture. Used when classification found
// no structure but the upload should still be retrievable.
func (s *Store) RegisterDocument(ctx context.Context, doc *Document) error {
	if doc == nil || strings.TrimSpace(doc.Name) == "" {
		return validationErr("document needs a name")
	}
	doc.ID = s.id("doc_")
	doc.CreatedAt = time.Now().UnixMilli()
	var templateID any
	if doc.TemplateID != "" {
		templateID = doc.TemplateID
	}
	if _, err := s.DB.ExecContext(ctx,
		`INSERT INTO documents (id, name, kind, template_id, raw_fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.Kind, templateID, doc.RawFallback, doc.CreatedAt); err != nil {
		return storageErr("insert document", err)
	}
	return nil
}

// GetDocument loads a document row by id. Returns nil when absent.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	var d Document
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, kind, COALESCE(template_id, ''), raw_fallback, created_at
		FROM documents WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Kind, &d.TemplateID, &d.RawFallback, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("load document", err)
	}
	return &d, nil
}

// HasRelationalContent reports whether any content records exist for the
// document, as opposed to only the raw fallback capture.
func (s *Store) HasRelationalContent(ctx context.Context, documentID string) (bool, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_records WHERE document_id = ?`, documentID).Scan(&n)
	if err != nil {
		return false, storageErr("count records", err)
	}
	return n > 0, nil
}

// ListDocuments returns document rows, newest first.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, kind, COALESCE(template_id, ''), raw_fallback, created_at
		FROM documents ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("list documents", err)
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.Kind, &d.TemplateID, &d.RawFallback, &d.CreatedAt); err != nil {
			return nil, storageErr("scan document", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
