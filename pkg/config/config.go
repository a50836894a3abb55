// Package config loads docflow's TOML configuration with ${VAR}
// environment-variable expansion, following the shape (a loader plus
// validation) the teacher repo uses for its own configuration, scoped to
// this domain's actual knobs: storage paths, concurrency, and the
// quality-gate threshold.
package config

import "time"

// Config is the root configuration for a docflow server/CLI process.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Storage    StorageConfig    `toml:"storage"`
	Glossary   GlossaryConfig   `toml:"glossary"`
	PaperStore PaperStoreConfig `toml:"paper_store"`
	Translation TranslationConfig `toml:"translation"`
	Logging    LoggingConfig    `toml:"logging"`
}

// ServerConfig controls the SSE HTTP server (pkg/httpapi).
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	HeartbeatPeriod time.Duration `toml:"heartbeat_period"`
}

// StorageConfig controls where per-translation artifacts are written.
type StorageConfig struct {
	// Root is the "Translation/" directory described by the persisted
	// layout: index.json, <id>/translated.md, <id>/meta.json, etc.
	Root string `toml:"root"`
}

// GlossaryConfig controls glossary persistence under Storage.Root/glossaries.
type GlossaryConfig struct {
	// BackupRetention bounds how long timestamped .bak.json files are
	// kept before the retention sweep deletes them. Zero disables the
	// sweep (backups accumulate forever).
	BackupRetention time.Duration `toml:"backup_retention"`
}

// PaperStoreConfig controls the SQLite+FTS5 paper index.
type PaperStoreConfig struct {
	// Path is the papers.db file path, typically under Storage.Root.
	Path string `toml:"path"`
}

// TranslationConfig records TranslationAgent's retry/concurrency/quality
// knobs. Validate checks them, but no agent reads them: the agents use the
// constants in pkg/agent and pkg/orchestrator instead.
type TranslationConfig struct {
	Concurrency      int `toml:"concurrency"`
	MaxAttempts      int `toml:"max_attempts"`
	QualityThreshold int `toml:"quality_threshold"`
}

// LoggingConfig controls the process-wide slog handler.
type LoggingConfig struct {
	Level string `toml:"level"` // debug|info|warn|error
}

// Defaults returns a Config populated with the values the orchestrator and
// agents fall back to when a TOML file omits a section entirely.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			HeartbeatPeriod: 5 * time.Second,
		},
		Storage: StorageConfig{
			Root: "Translation",
		},
		Glossary: GlossaryConfig{
			BackupRetention: 30 * 24 * time.Hour,
		},
		PaperStore: PaperStoreConfig{
			Path: "Translation/papers.db",
		},
		Translation: TranslationConfig{
			Concurrency:      5,
			MaxAttempts:      3,
			QualityThreshold: 70,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
