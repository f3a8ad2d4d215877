package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/arloliu/xmlres"
)

// fileConfig is the xmlresolve config.toml key mapping.
type fileConfig struct {
	NetworkAccess bool   `toml:"network_access"`
	LoadDTD       bool   `toml:"load_dtd"`
	Timeout       string `toml:"timeout"`
	MaxSize       int64  `toml:"max_size"`
	CatalogPath   string `toml:"catalog_path"`
	LogLevel      string `toml:"log_level"`
}

// appConfig is the effective runtime configuration.
type appConfig struct {
	Resolution  xmlres.Config
	CatalogPath string
	LogLevel    string
}

func defaultAppConfig() appConfig {
	return appConfig{
		LogLevel: "warn",
	}
}

// loadAppConfig overlays a TOML config file on the defaults. Only keys
// actually present in the file override; a relative catalog path is resolved
// against the config file's directory.
func loadAppConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("network_access") {
		cfg.Resolution.NetworkAccess = raw.NetworkAccess
	}
	if meta.IsDefined("load_dtd") {
		cfg.Resolution.LoadDTD = raw.LoadDTD
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return appConfig{}, fmt.Errorf("load config: invalid timeout %q: %w", raw.Timeout, err)
		}
		cfg.Resolution.Timeout = d
	}
	if meta.IsDefined("max_size") {
		cfg.Resolution.MaxSize = raw.MaxSize
	}
	if meta.IsDefined("catalog_path") {
		p := strings.TrimSpace(raw.CatalogPath)
		if p != "" && !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		cfg.CatalogPath = p
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	return cfg, nil
}
