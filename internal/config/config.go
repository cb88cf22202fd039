// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the binaries need. Values come from WAREHOUSE_*
// environment variables; the column defaults match the Spanish-locale
// exports the lab usually receives.
type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"16777216"`
	MaxStoredRuns  int    `envconfig:"MAX_STORED_RUNS" default:"50"`

	// Default source column names for the canonical mapping.
	DateColumn    string `envconfig:"DATE_COLUMN" default:"fecha"`
	PartnerColumn string `envconfig:"PARTNER_COLUMN" default:"cliente"`
	AmountColumn  string `envconfig:"AMOUNT_COLUMN" default:"importe"`

	// StrictDownloads withholds silver/gold downloads while a run has
	// validation findings. This mirrors the interactive caller's policy and
	// is deliberately not part of the pipeline contract.
	StrictDownloads bool `envconfig:"STRICT_DOWNLOADS" default:"true"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("warehouse", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.MaxStoredRuns < 1 {
		return nil, fmt.Errorf("load config: MAX_STORED_RUNS must be at least 1, got %d", cfg.MaxStoredRuns)
	}
	return &cfg, nil
}
