package store

import "database/sql"

// Schema is the relational shape of the template/content hierarchy.
//
// Foreign keys deliberately have no ON DELETE CASCADE: the synthesizer owns
// the cascade and must delete leaf to root (values → rows → records →
// fields → sections) in the application, where the ordering is observable
// and testable. With foreign_keys=ON a mis-ordered delete fails instead of
// silently orphaning children.
const Schema = `
CREATE TABLE IF NOT EXISTS templates (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL COLLATE NOCASE UNIQUE,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS template_sections (
    id          TEXT PRIMARY KEY,
    template_id TEXT NOT NULL REFERENCES templates(id),
    name        TEXT NOT NULL,
    kind        TEXT NOT NULL,
    position    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sections_template ON template_sections(template_id, position);

CREATE TABLE IF NOT EXISTS template_fields (
    id         TEXT PRIMARY KEY,
    section_id TEXT NOT NULL REFERENCES template_sections(id),
    name       TEXT NOT NULL,
    label      TEXT NOT NULL,
    position   INTEGER NOT NULL,
    field_type TEXT NOT NULL DEFAULT 'text',
    required   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_fields_section ON template_fields(section_id, position);

CREATE TABLE IF NOT EXISTS documents (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    kind         TEXT NOT NULL,
    template_id  TEXT REFERENCES templates(id),
    raw_fallback TEXT NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_template ON documents(template_id);

CREATE TABLE IF NOT EXISTS content_records (
    id          TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id),
    section_id  TEXT NOT NULL REFERENCES template_sections(id),
    free_text   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_records_document ON content_records(document_id);
CREATE INDEX IF NOT EXISTS idx_records_section ON content_records(section_id);

CREATE TABLE IF NOT EXISTS content_rows (
    id        TEXT PRIMARY KEY,
    record_id TEXT NOT NULL REFERENCES content_records(id),
    position  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rows_record ON content_rows(record_id, position);

CREATE TABLE IF NOT EXISTS content_values (
    id       TEXT PRIMARY KEY,
    row_id   TEXT NOT NULL REFERENCES content_rows(id),
    field_id TEXT NOT NULL REFERENCES template_fields(id),
    value    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_values_row ON content_values(row_id);
CREATE INDEX IF NOT EXISTS idx_values_field ON content_values(field_id);
`

// ApplySchema creates the tables and indexes if they do not exist.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
