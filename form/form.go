// Package form is the orchestrating service: it owns the normalize
// pipeline, the section classifier and the store, and exposes the
// operations the HTTP API and the MCP tools are built on.
package form

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/formgrid/formgrid/classify"
	"github.com/formgrid/formgrid/normalize"
	"github.com/formgrid/formgrid/store"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("form: not found")

// ErrBadKind is returned for an unknown document kind string.
var ErrBadKind = errors.New("form: unknown document kind")

// Service is the main formgrid orchestrator.
type Service struct {
	store      *store.Store
	normalizer *normalize.Normalizer
	classifier *classify.Classifier
	logger     *slog.Logger
	config     *Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per template name, single writer
}

// New creates a form Service on top of an opened Store.
func New(st *store.Store, cfg *Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = defaultConfig()
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.RulesPath != "" {
		rules, err := classify.LoadRules(cfg.RulesPath)
		if err != nil {
			return nil, err
		}
		cfg.Classify.Rules = rules
		logger.Info("loaded classification rules", "path", cfg.RulesPath, "count", len(rules))
	}
	cfg.Normalize.Logger = logger
	cfg.Classify.Logger = logger

	return &Service{
		store:      st,
		normalizer: normalize.New(cfg.Normalize),
		classifier: classify.New(cfg.Classify),
		logger:     logger,
		config:     cfg,
		locks:      make(map[string]*sync.Mutex),
	}, nil
}

// ParseKind maps a user-supplied kind string to a normalize.Kind.
func ParseKind(s string) (normalize.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spreadsheet", "xlsx":
		return normalize.KindSpreadsheet, nil
	case "word-processor", "wordprocessor", "docx", "html":
		return normalize.KindWordProcessor, nil
	default:
		return "", ErrBadKind
	}
}

// nameLock returns the mutex serializing writers for one template name.
// Lock granularity is the lower-cased trimmed name, matching the store's
// case-insensitive template lookup.
func (svc *Service) nameLock(name string) *sync.Mutex {
	key := strings.ToLower(strings.TrimSpace(name))
	svc.mu.Lock()
	defer svc.mu.Unlock()
	l, ok := svc.locks[key]
	if !ok {
		l = &sync.Mutex{}
		svc.locks[key] = l
	}
	return l
}

// Ingest runs the full pipeline on one uploaded document: normalize to
// grids, classify into sections, synthesize the template under
// templateName and decompose the content, all persisted in one
// transaction. When classification finds no structure but a raw fallback
// could be captured, the document is registered fallback-only instead of
// failing.
func (svc *Service) Ingest(ctx context.Context, buf []byte, docName, kind, templateName string) (*IngestResult, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	set, err := svc.normalizer.Normalize(buf, k)
	if err != nil {
		return nil, err
	}
	fallback := normalize.RawFallback(buf, k)
	sections := svc.classifier.Classify(set.Flatten())

	doc := &store.Document{Name: docName, Kind: string(k), RawFallback: fallback}

	if len(sections) == 0 {
		if fallback == "" {
			return nil, store.ErrNoStructure
		}
		svc.logger.Info("no structure detected, capturing raw fallback only", "document", docName)
		if err := svc.store.RegisterDocument(ctx, doc); err != nil {
			return nil, err
		}
		return &IngestResult{DocumentID: doc.ID, FallbackOnly: true}, nil
	}

	lock := svc.nameLock(templateName)
	lock.Lock()
	defer lock.Unlock()

	tpl, _, err := svc.store.IngestDocument(ctx, doc, sections, templateName, svc.config.Decompose)
	if err != nil {
		return nil, err
	}

	res := &IngestResult{
		DocumentID:   doc.ID,
		TemplateID:   tpl.ID,
		TemplateName: tpl.Name,
	}
	for _, sec := range tpl.Sections {
		res.Sections = append(res.Sections, SectionSummary{
			Name:       sec.Name,
			Kind:       sec.Kind,
			FieldCount: len(sec.Fields),
		})
	}
	svc.logger.Info("document ingested",
		"document", doc.ID, "template", tpl.ID, "sections", len(tpl.Sections))
	return res, nil
}

// Retrieve reassembles one ingested document for display. Documents that
// carry no relational content return the raw fallback capture.
func (svc *Service) Retrieve(ctx context.Context, documentID string) (*RetrieveResult, error) {
	doc, err := svc.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	res := &RetrieveResult{
		DocumentID:  doc.ID,
		Name:        doc.Name,
		Kind:        doc.Kind,
		RawFallback: doc.RawFallback,
	}
	if doc.TemplateID == "" {
		return res, nil
	}

	tpl, err := svc.store.GetTemplate(ctx, doc.TemplateID)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		// Template was re-synthesized away from under the document; fall
		// back to the raw capture rather than failing retrieval.
		return res, nil
	}
	res.TemplateName = tpl.Name

	res.Sections, err = svc.store.Reassemble(ctx, tpl, doc.ID)
	if err != nil {
		return nil, err
	}
	res.HasRelationalContent, err = svc.store.HasRelationalContent(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Rules returns the active ordered classification rule set.
func (svc *Service) Rules() []RuleView {
	rules := svc.classifier.Rules()
	out := make([]RuleView, 0, len(rules))
	for _, r := range rules {
		out = append(out, RuleView{
			Pattern: r.Pattern.String(),
			Title:   r.Title,
			Kind:    string(r.Kind),
		})
	}
	return out
}

// Templates lists the synthesized templates.
func (svc *Service) Templates(ctx context.Context) ([]store.TemplateSummary, error) {
	return svc.store.ListTemplates(ctx)
}

// Template loads one template with its sections and fields.
func (svc *Service) Template(ctx context.Context, id string) (*store.Template, error) {
	tpl, err := svc.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrNotFound
	}
	return tpl, nil
}
