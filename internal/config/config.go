// Package config loads application configuration from a JSON file with
// sensible defaults when the file is absent.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds application configuration.
type Config struct {
	// PromotionThreshold is the L2 population above which all L2 memory
	// entries promote to L3.
	PromotionThreshold int `json:"promotion_threshold"`

	// ContinueAfterFailure keeps running downstream stages after a stage
	// fails instead of stopping the run there.
	ContinueAfterFailure bool `json:"continue_after_failure"`

	// HTTPAddr is the listen address of the collaboration front end.
	HTTPAddr string `json:"http_addr"`

	// WorkspaceRoot is where workspaces live. Empty means
	// $LOOM_ROOT or ~/.loom.
	WorkspaceRoot string `json:"workspace_root,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		PromotionThreshold: 5,
		HTTPAddr:           ":8775",
	}
}

// Load loads configuration from baseDir/config.json. A missing file yields
// the defaults; a present but unreadable or malformed file is an error.
func Load(baseDir string) (*Config, error) {
	raw, err := os.ReadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	if cfg.PromotionThreshold <= 0 {
		cfg.PromotionThreshold = 5
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8775"
	}
	return cfg, nil
}
