package form

import "github.com/formgrid/formgrid/store"

// SectionSummary describes one detected section of an ingested document.
type SectionSummary struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	FieldCount int    `json:"field_count"`
}

// IngestResult is returned by Ingest: the registered document, the
// synthesized (or refreshed) template, and the sections detected.
// TemplateID is empty when only the raw fallback could be captured.
type IngestResult struct {
	DocumentID   string           `json:"document_id"`
	TemplateID   string           `json:"template_id,omitempty"`
	TemplateName string           `json:"template_name,omitempty"`
	Sections     []SectionSummary `json:"sections"`
	FallbackOnly bool             `json:"fallback_only,omitempty"`
}

// RetrieveResult is the display-ready view of one ingested document.
type RetrieveResult struct {
	DocumentID           string                 `json:"document_id"`
	Name                 string                 `json:"name"`
	Kind                 string                 `json:"kind"`
	TemplateName         string                 `json:"template_name,omitempty"`
	Sections             []store.DisplaySection `json:"sections,omitempty"`
	HasRelationalContent bool                   `json:"has_relational_content"`
	RawFallback          string                 `json:"raw_fallback,omitempty"`
}

// RuleView is the serializable form of one classification rule.
type RuleView struct {
	Pattern string `json:"pattern"`
	Title   string `json:"title"`
	Kind    string `json:"kind"`
}
