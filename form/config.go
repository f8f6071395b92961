package form

import (
	"github.com/formgrid/formgrid/classify"
	"github.com/formgrid/formgrid/normalize"
	"github.com/formgrid/formgrid/store"
)

// Config configures the form service.
type Config struct {
	// Normalize settings
	Normalize normalize.Config

	// Classify settings
	Classify classify.Config

	// Decompose settings
	Decompose store.DecomposeConfig

	// RulesPath optionally replaces the built-in classification rules with
	// a YAML rule file.
	RulesPath string
}

func (c *Config) defaults() {
	if c.Normalize.MaxInputSize <= 0 {
		c.Normalize.MaxInputSize = 50 * 1024 * 1024
	}
	if c.Normalize.MinBlockLen <= 0 {
		c.Normalize.MinBlockLen = 3
	}
	if c.Classify.HeaderWindow <= 0 {
		c.Classify.HeaderWindow = 5
	}
	if c.Classify.MinHeaderCells <= 0 {
		c.Classify.MinHeaderCells = 2
	}
}

func defaultConfig() *Config {
	return &Config{}
}
