package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads a TOML configuration file from path, expands ${VAR}/$VAR
// environment references in its raw bytes before parsing (so secrets like
// an LLM API key never need to live in the file itself), and layers it
// over Defaults(). Missing sections/fields keep their default values,
// since toml.Decode only overwrites fields actually present in the file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, NewLoadError(path, err)
	}

	expanded := ExpandEnv(raw)

	cfg := Defaults()
	if _, err := toml.Decode(string(expanded), &cfg); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidTOML, err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the subset of fields that must be non-empty/positive for
// the server and agents to run at all. Most knobs have safe defaults and
// are not required.
func (c *Config) Validate() error {
	if c.Storage.Root == "" {
		return NewValidationError("storage", "root", "root", ErrMissingRequiredField)
	}
	if c.Translation.Concurrency <= 0 {
		return NewValidationError("translation", "concurrency", "concurrency", ErrInvalidValue)
	}
	if c.Translation.MaxAttempts <= 0 {
		return NewValidationError("translation", "max_attempts", "max_attempts", ErrInvalidValue)
	}
	if c.Translation.QualityThreshold < 0 || c.Translation.QualityThreshold > 100 {
		return NewValidationError("translation", "quality_threshold", "quality_threshold", ErrInvalidValue)
	}
	return nil
}
