package main

import (
	"context"

	"github.com/codeready-toolchain/docflow/pkg/agent"
)

// The concrete PDF parser, OCR provider, and LLM client are out of scope
// for this runtime (spec.md §1 lists them as interfaces only). These
// stand-ins keep the server runnable with no external dependencies
// configured; every call either returns an empty/neutral result or a
// permanent *agent.ProviderError, so the orchestrator's existing
// fallback and fatal-phase handling takes over rather than the binary
// panicking or hanging on a misconfigured deployment.

type unconfiguredDocumentParser struct{}

func (unconfiguredDocumentParser) ExtractText(context.Context, []byte) (string, error) {
	return "", nil
}

func (unconfiguredDocumentParser) Parse(context.Context, []byte) (*agent.ParsedDocument, error) {
	return &agent.ParsedDocument{}, nil
}

type unconfiguredOCRService struct{}

func (unconfiguredOCRService) Available(context.Context) bool { return false }

func (unconfiguredOCRService) Recognize(context.Context, []byte, string) (string, map[string][]byte, error) {
	return "", nil, &agent.ProviderError{Message: "no OCR provider configured", IsRecoverable: false}
}

type unconfiguredTranslationService struct{}

func (unconfiguredTranslationService) AnalyzeForPromptProfile(context.Context, string) (string, error) {
	return "{}", nil
}

func (unconfiguredTranslationService) TranslateSegment(context.Context, string, string) (string, error) {
	return "", &agent.ProviderError{Message: "no translation provider configured", IsRecoverable: false}
}

func (unconfiguredTranslationService) ExtractTerms(context.Context, string, string) (string, error) {
	return "[]", nil
}

func (unconfiguredTranslationService) ExtractMetadata(context.Context, string) (string, error) {
	return "{}", nil
}
