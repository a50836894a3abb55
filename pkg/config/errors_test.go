package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorError(t *testing.T) {
	baseErr := errors.New("base error")
	
	tests := []struct {
		name      string
		err       *ValidationError
		contains  []string
	}{
		{
			name: "full error",
			err:  NewValidationError("translation", "translation", "quality_threshold", baseErr),
			contains: []string{
				"translation",
				"quality_threshold",
				"base error",
			},
		},
		{
			name: "glossary error",
			err:  NewValidationError("glossary", "glossary", "backup_retention", errors.New("invalid duration")),
			contains: []string{
				"glossary",
				"backup_retention",
				"invalid duration",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				assert.Contains(t, errStr, substr)
			}
		})
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	baseErr := errors.New("base error")
	validationErr := NewValidationError("test", "test-id", "field", baseErr)
	
	unwrapped := validationErr.Unwrap()
	assert.Equal(t, baseErr, unwrapped)
	assert.True(t, errors.Is(validationErr, baseErr))
}

func TestLoadErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *LoadError
		contains []string
	}{
		{
			name: "file load error",
			err: &LoadError{
				File: "docflow.toml",
				Err:  errors.New("file not found"),
			},
			contains: []string{
				"failed to load",
				"docflow.toml",
				"file not found",
			},
		},
		{
			name: "parse error",
			err: &LoadError{
				File: "docflow.toml",
				Err:  errors.New("toml: expected newline but got '='"),
			},
			contains: []string{
				"failed to load",
				"docflow.toml",
				"expected newline",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				assert.Contains(t, errStr, substr)
			}
		})
	}
}

func TestLoadErrorUnwrap(t *testing.T) {
	baseErr := errors.New("base error")
	loadErr := &LoadError{
		File: "test.toml",
		Err:  baseErr,
	}
	
	unwrapped := loadErr.Unwrap()
	assert.Equal(t, baseErr, unwrapped)
	assert.True(t, errors.Is(loadErr, baseErr))
}
