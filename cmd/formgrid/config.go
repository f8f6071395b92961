package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// config is the service configuration: YAML file values first, environment
// variables override.
type config struct {
	Addr           string `yaml:"addr"`
	DBPath         string `yaml:"db_path"`
	RulesPath      string `yaml:"rules_path"`
	LogLevel       string `yaml:"log_level"`
	MCPTransport   string `yaml:"mcp_transport"`
	KeepEmptyRows  bool   `yaml:"keep_empty_rows"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

func loadConfig(path string) (*config, error) {
	cfg := &config{
		Addr:           ":8086",
		DBPath:         "db/formgrid.db",
		LogLevel:       "info",
		MaxUploadBytes: 50 * 1024 * 1024,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("RULES_PATH"); v != "" {
		cfg.RulesPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MCP_TRANSPORT"); v != "" {
		cfg.MCPTransport = v
	}
	if v := os.Getenv("KEEP_EMPTY_ROWS"); v != "" {
		cfg.KeepEmptyRows = v == "1" || v == "true"
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.MaxUploadBytes = n
	}
	return cfg, nil
}
