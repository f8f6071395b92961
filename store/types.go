package store

// Template is the synthesized, reusable schema inferred from one document's
// structure. There is at most one live Template per logical name;
// re-synthesis under the same name mutates it in place.
type Template struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Sections  []TemplateSection `json:"sections"`
	CreatedAt int64             `json:"created_at"`
	UpdatedAt int64             `json:"updated_at"`
}

// Section returns the template section whose name matches case-insensitively,
// or nil.
func (t *Template) Section(name string) *TemplateSection {
	for i := range t.Sections {
		if equalFold(t.Sections[i].Name, name) {
			return &t.Sections[i]
		}
	}
	return nil
}

// TemplateSection is one ordered section of a template. Order is 0-based
// and defines rendering order. Fields is populated for table sections only.
type TemplateSection struct {
	ID         string          `json:"id"`
	TemplateID string          `json:"template_id"`
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Order      int             `json:"order"`
	Fields     []TemplateField `json:"fields,omitempty"`
}

// TemplateField is one column of a tabular template section. Name is the
// slug derived from the header text, Label the original header text, Order
// the original column position (sparse: empty header cells produce no field
// but still advance the position).
type TemplateField struct {
	ID        string `json:"id"`
	SectionID string `json:"section_id"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	Order     int    `json:"order"`
	FieldType string `json:"field_type"`
	Required  bool   `json:"required"`
}

// Document is one uploaded source document, registered so retrieval can
// report whether relational content exists or only the raw fallback.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	TemplateID  string `json:"template_id,omitempty"`
	RawFallback string `json:"raw_fallback,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// ContentRecord holds one document's content for one template section:
// free text for text-like sections, rows of values for tables.
type ContentRecord struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"document_id"`
	SectionID  string       `json:"section_id"`
	FreeText   string       `json:"free_text,omitempty"`
	Rows       []ContentRow `json:"rows,omitempty"`
}

// ContentRow is one ordered data row of a tabular content record.
type ContentRow struct {
	ID       string         `json:"id"`
	RecordID string         `json:"record_id"`
	Order    int            `json:"order"`
	Values   []ContentValue `json:"values,omitempty"`
}

// ContentValue is one cell value, keyed by the template field it fills.
// Its field must belong to the same template section as the owning row's
// record; the decomposer never produces a violation.
type ContentValue struct {
	ID      string `json:"id"`
	RowID   string `json:"row_id"`
	FieldID string `json:"field_id"`
	Value   string `json:"value"`
}

// DisplaySection is the read path's display-ready shape, the inverse of
// decomposition: free text, or headers plus rows aligned to field order.
type DisplaySection struct {
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	FreeText string     `json:"free_text,omitempty"`
	Headers  []string   `json:"headers,omitempty"`
	Rows     [][]string `json:"rows,omitempty"`
}
