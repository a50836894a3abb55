package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "docflow.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileReturnsErrConfigNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_AppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeTOML(t, `
[storage]
root = "custom-out"
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "custom-out", cfg.Storage.Root)
	assert.Equal(t, 5, cfg.Translation.Concurrency) // default preserved
	assert.Equal(t, 70, cfg.Translation.QualityThreshold)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("DOCFLOW_TEST_ADDR", "0.0.0.0:9999")
	path := writeTOML(t, `
[server]
addr = "${DOCFLOW_TEST_ADDR}"
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr)
}

func TestLoad_InvalidTOMLWrapsErrInvalidTOML(t *testing.T) {
	path := writeTOML(t, `not = [valid toml`)

	_, err := Load(path)

	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, ErrInvalidTOML)
}

func TestLoad_RejectsInvalidConcurrency(t *testing.T) {
	path := writeTOML(t, `
[translation]
concurrency = 0
`)

	_, err := Load(path)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
}

func TestLoad_RejectsOutOfRangeQualityThreshold(t *testing.T) {
	path := writeTOML(t, `
[translation]
quality_threshold = 150
`)

	_, err := Load(path)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
}
