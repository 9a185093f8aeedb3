package config

import "fmt"

// JournalConfig controls the JSONL fleet journal.
type JournalConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	// MaxSizeMB switches the store to a rotating file once set: the
	// journal rotates when it exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *JournalConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "courier.journal"
	}
}

// Validate checks mandatory fields.
func (c JournalConfig) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("journal path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("journal rotation limits must not be negative")
	}
	return nil
}

// Rotating reports whether the rotating store should be used.
func (c JournalConfig) Rotating() bool {
	return c.MaxSizeMB > 0
}
