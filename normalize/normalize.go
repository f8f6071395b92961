// Package normalize converts source documents into the uniform grid shape.
//
// Supported inputs:
//   - spreadsheet      — .xlsx (archive/zip → xl/worksheets/*.xml)
//   - word-processor   — exporter HTML, or .docx (sniffed by ZIP magic)
//
// No section semantics are applied here; this stage only normalizes shape.
// Classification happens downstream on the flattened grid set.
package normalize

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/formgrid/formgrid/grid"
)

// Kind identifies the declared source document type.
type Kind string

const (
	KindSpreadsheet   Kind = "spreadsheet"
	KindWordProcessor Kind = "word-processor"
)

// Config configures the normalizer.
type Config struct {
	// MaxInputSize caps the accepted document buffer (default: 50 MB).
	MaxInputSize int

	// MinBlockLen drops word-processor flow blocks shorter than this many
	// runes after trimming (default: 3). Filters exporter artifacts like
	// stray punctuation paragraphs.
	MinBlockLen int

	// Logger for debug messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxInputSize <= 0 {
		c.MaxInputSize = 50 * 1024 * 1024
	}
	if c.MinBlockLen <= 0 {
		c.MinBlockLen = 3
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Normalizer turns document buffers into grid sets.
type Normalizer struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Normalizer with the given configuration.
func New(cfg Config) *Normalizer {
	cfg.defaults()
	return &Normalizer{cfg: cfg, logger: cfg.Logger}
}

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Normalize converts a document buffer of the declared kind into a grid set.
// Malformed or empty input yields an empty set, not an error; only inputs
// that exceed the size cap or declare an unknown kind are rejected.
func (n *Normalizer) Normalize(buf []byte, kind Kind) (grid.Set, error) {
	if len(buf) > n.cfg.MaxInputSize {
		return nil, fmt.Errorf("normalize: input too large: %d bytes (max %d)", len(buf), n.cfg.MaxInputSize)
	}
	if len(buf) == 0 {
		return nil, nil
	}

	switch kind {
	case KindSpreadsheet:
		set, err := n.readXLSX(buf)
		if err != nil {
			n.logger.Debug("spreadsheet not parseable, returning empty set", "error", err)
			return nil, nil
		}
		return set, nil
	case KindWordProcessor:
		if bytes.HasPrefix(buf, zipMagic) {
			set, err := n.readDocx(buf)
			if err != nil {
				n.logger.Debug("docx not parseable, returning empty set", "error", err)
				return nil, nil
			}
			return set, nil
		}
		return n.readHTML(buf), nil
	default:
		return nil, fmt.Errorf("normalize: unknown document kind %q", kind)
	}
}
