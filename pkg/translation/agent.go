// Package translation implements TranslationAgent: prompt-profile
// assembly (delegated to pkg/promptprofile), dispatch to the LLM or OCR
// translation pipeline, and retry-with-backoff around the whole attempt.
// Grounded on original_source's agent/agents/translation_agent.py and the
// backend/app/services/pipelines/{llm,ocr}_pipeline.py pipelines.
package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/codeready-toolchain/docflow/pkg/promptprofile"
)

// maxAbstractChars bounds how much of the document is sampled for prompt
// analysis.
const maxAbstractChars = 3000

// Agent is TranslationAgent.
type Agent struct {
	llm agent.TranslationService
}

// New creates a TranslationAgent backed by llm for prompt analysis and
// segment translation.
func New(llm agent.TranslationService) *Agent {
	return &Agent{llm: llm}
}

func (a *Agent) Name() string        { return "translation" }
func (a *Agent) Description() string { return "assembles the translation prompt and translates the document" }

// Run implements agent.Agent.
func (a *Agent) Run(ctx context.Context, actx *agent.AgentContext) (*agent.AgentContext, error) {
	if err := actx.Cancellation.Check(); err != nil {
		return actx, err
	}

	isRerun := actx.PromptProfile != nil && actx.TranslatedMD != ""
	if isRerun {
		actx.Publish("translation", "analysis", 10, map[string]any{
			"message": "auto-fix rerun: reusing existing prompt profile",
		})
	} else {
		profile := promptprofile.Analyze(ctx, a.llm, abstractText(actx))
		promptprofile.MergeGlossary(profile, actx.GlossarySnapshot())
		actx.PromptProfile = profile

		actx.Publish("translation", "prompt_generation", 20, map[string]any{
			"domain":     profile.Domain,
			"term_count": profile.Terminology.Len(),
			"message":    fmt.Sprintf("prompt generated | domain: %s | terms: %d", profile.Domain, profile.Terminology.Len()),
		})
	}

	if err := actx.Cancellation.Check(); err != nil {
		return actx, err
	}

	pipelineLabel := "LLM"
	if actx.PipelineType == "ocr" {
		pipelineLabel = "OCR"
	}
	actx.Publish("translation", "translating", 30, map[string]any{
		"message": fmt.Sprintf("starting %s translation pipeline", pipelineLabel),
	})

	translated, err := a.executeWithRetry(ctx, actx)
	if err != nil {
		return actx, fmt.Errorf("translation: %w", err)
	}
	actx.TranslatedMD = translated

	actx.Publish("translation", "complete", 95, map[string]any{
		"output_tokens": countTokens(translated),
	})
	return actx, nil
}

// abstractText samples the first couple of pages (LLM pipeline) or the
// leading chars of OCR Markdown (OCR pipeline) for prompt-profile
// analysis.
func abstractText(actx *agent.AgentContext) string {
	if actx.ParsedPDF != nil {
		var b strings.Builder
		for i, page := range actx.ParsedPDF.Pages {
			if i >= 2 {
				break
			}
			for _, block := range page.Blocks {
				b.WriteString(block.Text)
				b.WriteString("\n")
			}
		}
		text := b.String()
		if len(text) > maxAbstractChars {
			return text[:maxAbstractChars]
		}
		return text
	}
	if len(actx.OCRMarkdown) > maxAbstractChars {
		return actx.OCRMarkdown[:maxAbstractChars]
	}
	return actx.OCRMarkdown
}

// linearBackOff reproduces the "0.5 * attempt seconds" linear backoff
// policy: attempt 1 waits 0.5s, attempt 2 waits 1s.
type linearBackOff struct {
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(500*b.attempt) * time.Millisecond
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// executeWithRetry runs the selected pipeline up to
// agent.TranslationMaxAttempts times with linear backoff between
// attempts. A cancellation or a ProviderError marked non-recoverable
// aborts immediately without retrying.
func (a *Agent) executeWithRetry(ctx context.Context, actx *agent.AgentContext) (string, error) {
	var translated string
	attempt := 0
	maxAttempts := agent.TranslationMaxAttempts

	operation := func() error {
		attempt++
		if err := actx.Cancellation.Check(); err != nil {
			return backoff.Permanent(err)
		}

		slog.Info("translation: attempt", "task_id", actx.TaskID, "attempt", attempt, "max_attempts", maxAttempts, "pipeline", actx.PipelineType)

		result, err := a.runPipeline(ctx, actx, attempt, maxAttempts)
		if err != nil {
			actx.Publish("translation", "translating", 30+int(50*float64(attempt)/float64(maxAttempts)), map[string]any{
				"attempt": attempt,
				"status":  "retry",
				"error":   err.Error(),
			})

			var provErr *agent.ProviderError
			if errors.As(err, &provErr) && !provErr.Recoverable() {
				return backoff.Permanent(err)
			}
			return err
		}

		translated = result
		actx.Publish("translation", "translating", min(30+int(60*float64(attempt)/float64(maxAttempts)), 90), map[string]any{
			"attempt": attempt,
			"status":  "success",
		})
		return nil
	}

	b := backoff.WithMaxRetries(&linearBackOff{}, uint64(maxAttempts-1))
	if err := backoff.Retry(operation, b); err != nil {
		return "", fmt.Errorf("failed after %d attempts: %w", attempt, err)
	}
	return translated, nil
}

func (a *Agent) runPipeline(ctx context.Context, actx *agent.AgentContext, attempt, maxAttempts int) (string, error) {
	prompt := actx.PromptProfile.RenderedPrompt

	if actx.PipelineType == "ocr" {
		return translateOCRMarkdown(ctx, actx, a.llm, prompt, func(done, total int) {
			actx.Publish("translation", "translating", progressWithinAttempt(attempt, maxAttempts, done, total), map[string]any{
				"message": fmt.Sprintf("translating segment %d/%d", done, total),
				"current": done,
				"total":   total,
			})
		})
	}

	if actx.ParsedPDF == nil {
		return "", fmt.Errorf("llm pipeline selected but no parsed document is available")
	}
	return translateParsedPDF(ctx, actx, a.llm, prompt, func(done, total int) {
		actx.Publish("translation", "translating", progressWithinAttempt(attempt, maxAttempts, done, total), map[string]any{
			"message": fmt.Sprintf("translating page %d/%d", done, total),
			"current": done,
			"total":   total,
		})
	})
}

// progressWithinAttempt maps one attempt's (done, total) unit progress
// into the translating phase's 30-90 progress band.
func progressWithinAttempt(attempt, maxAttempts, done, total int) int {
	if total == 0 {
		return 30
	}
	unitFrac := float64(done) / float64(total)
	attemptFloor := 30 + int(60*float64(attempt-1)/float64(maxAttempts))
	attemptCeil := 30 + int(60*float64(attempt)/float64(maxAttempts))
	return attemptFloor + int(float64(attemptCeil-attemptFloor)*unitFrac)
}
