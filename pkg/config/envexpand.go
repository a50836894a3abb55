package config

import "os"

// ExpandEnv expands environment variables in TOML content using Go's standard library.
// Supports both ${VAR} and $VAR syntax (standard shell-style).
//
// Examples:
//   - ${DOCFLOW_STORAGE_ROOT} → value of DOCFLOW_STORAGE_ROOT environment variable
//   - $HOME → value of HOME environment variable
//   - "${DOCFLOW_STORAGE_ROOT}/papers.db" → path with the variable expanded
//
// Missing variables expand to empty string. Validation should catch required fields that are empty.
func ExpandEnv(data []byte) []byte {
	expanded := os.ExpandEnv(string(data))
	return []byte(expanded)
}
