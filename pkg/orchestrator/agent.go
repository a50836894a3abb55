// Package orchestrator implements OrchestratorAgent: the phased scheduler
// that coordinates TerminologyAgent, OCRAgent, TranslationAgent,
// ReviewAgent, and IndexAgent over one shared AgentContext, applies the
// quality-gated auto-fix retry, and persists the final result. Grounded
// on original_source's agent/agents/orchestrator_agent.py.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/codeready-toolchain/docflow/pkg/terminology"
)

// qualityThreshold is the minimum review score that skips the auto-fix
// gate. Below it, translation and review are re-run exactly once.
const qualityThreshold = 70

// terminologySampleChars bounds how much of the raw file content is
// extracted for the pre-OCR terminology preparation phase.
const terminologySampleChars = 3000

// Persister is the persistence port the saving phase writes through.
// Concrete implementations (the on-disk Translation/ layout) are out of
// scope here; failures are logged and never fail the task.
type Persister interface {
	Save(ctx context.Context, actx *agent.AgentContext) error
}

// Agent is OrchestratorAgent. Every collaborator is constructor-injected:
// production wiring passes one concrete instance per dependency, and only
// CLIs/tests reach for a dynamic registry to substitute doubles.
type Agent struct {
	parser      agent.DocumentParser
	terminology *terminology.Agent
	ocr         agent.Agent
	translation agent.Agent
	review      agent.Agent
	index       agent.Agent
	persister   Persister
}

// New creates an OrchestratorAgent. parser and persister may be nil: the
// terminology phase then extracts no sample text, and the saving phase is
// skipped, both non-fatally.
func New(
	parser agent.DocumentParser,
	terminologyAgent *terminology.Agent,
	ocrAgent, translationAgent, reviewAgent, indexAgent agent.Agent,
	persister Persister,
) *Agent {
	return &Agent{
		parser:      parser,
		terminology: terminologyAgent,
		ocr:         ocrAgent,
		translation: translationAgent,
		review:      reviewAgent,
		index:       indexAgent,
		persister:   persister,
	}
}

func (a *Agent) Name() string { return "orchestrator" }
func (a *Agent) Description() string {
	return "coordinates terminology, OCR, translation, review, auto-fix, indexing, and persistence"
}

// Run implements agent.Agent, executing the seven phases in strict order.
// OCR, translation, and review are fatal: their errors propagate after an
// orchestrator-tagged failure event. Terminology, indexing, and saving are
// non-fatal: their errors are logged and the workflow continues.
func (a *Agent) Run(ctx context.Context, actx *agent.AgentContext) (*agent.AgentContext, error) {
	a.runTerminologyPhase(ctx, actx)

	if err := a.runOCRPhase(ctx, actx); err != nil {
		return actx, err
	}

	if err := a.runTranslationPhase(ctx, actx); err != nil {
		return actx, err
	}

	if err := a.runReviewPhase(ctx, actx); err != nil {
		return actx, err
	}

	if actx.QualityReport != nil && actx.QualityReport.Score < qualityThreshold {
		a.autoFixAndReview(ctx, actx)
	}

	a.runIndexPhase(ctx, actx)
	a.saveResults(ctx, actx)

	actx.Publish("orchestrator", "complete", 100, nil)
	return actx, nil
}

func (a *Agent) runTerminologyPhase(ctx context.Context, actx *agent.AgentContext) {
	if err := actx.Cancellation.Check(); err != nil {
		return
	}

	actx.Publish("orchestrator", "terminology", 0, map[string]any{
		"message": "starting terminology preparation...",
	})

	text := a.extractSampleText(ctx, actx)
	if len(text) > terminologySampleChars {
		text = text[:terminologySampleChars]
	}

	actx.Publish("orchestrator", "terminology", 3, map[string]any{
		"message": fmt.Sprintf("extracted %d chars, calling LLM for term analysis...", len(text)),
	})

	if a.terminology != nil {
		result, err := a.terminology.Extract(ctx, terminology.ExtractRequest{Text: text, Domain: "general"})
		if err != nil {
			slog.Warn("orchestrator: terminology extraction failed, continuing with empty glossary", "task_id", actx.TaskID, "error", err)
		} else {
			actx.MergeGlossary(result.Glossary)
		}
	}

	termCount := len(actx.GlossarySnapshot())
	actx.Publish("orchestrator", "terminology", 15, map[string]any{
		"message":    fmt.Sprintf("terminology preparation complete: %d terms", termCount),
		"term_count": termCount,
	})
}

// extractSampleText best-effort extracts plain text from the raw file
// content for terminology preparation, ahead of OCR/parsing proper. A
// missing parser or an extraction error yields an empty string, never an
// error: this phase degrades to an empty glossary, not a failed task.
func (a *Agent) extractSampleText(ctx context.Context, actx *agent.AgentContext) string {
	if a.parser == nil {
		return ""
	}
	text, err := a.parser.ExtractText(ctx, actx.FileContent)
	if err != nil {
		slog.Debug("orchestrator: sample text extraction failed", "task_id", actx.TaskID, "error", err)
		return ""
	}
	return text
}

func (a *Agent) runOCRPhase(ctx context.Context, actx *agent.AgentContext) error {
	if err := actx.Cancellation.Check(); err != nil {
		return err
	}

	actx.Publish("orchestrator", "ocr", 16, map[string]any{
		"message": "parsing and preprocessing document...",
	})

	if _, err := a.ocr.Run(ctx, actx); err != nil {
		actx.Publish("orchestrator", "ocr", 16, map[string]any{"status": "failed", "error": err.Error()})
		return err
	}

	actx.Publish("orchestrator", "ocr", 25, map[string]any{
		"message": "document parsing and preprocessing complete",
	})
	return nil
}

func (a *Agent) runTranslationPhase(ctx context.Context, actx *agent.AgentContext) error {
	if err := actx.Cancellation.Check(); err != nil {
		return err
	}

	actx.Publish("orchestrator", "translation", 26, map[string]any{
		"message": "starting translation pipeline...",
	})

	if _, err := a.translation.Run(ctx, actx); err != nil {
		actx.Publish("orchestrator", "translation", 26, map[string]any{"status": "failed", "error": err.Error()})
		return err
	}

	actx.Publish("orchestrator", "translation", 70, map[string]any{
		"message": "translation complete, preparing review...",
	})
	return nil
}

func (a *Agent) runReviewPhase(ctx context.Context, actx *agent.AgentContext) error {
	if err := actx.Cancellation.Check(); err != nil {
		return err
	}

	actx.Publish("orchestrator", "review", 75, map[string]any{
		"message": "reviewing quality...",
	})

	if _, err := a.review.Run(ctx, actx); err != nil {
		actx.Publish("orchestrator", "review", 75, map[string]any{"status": "failed", "error": err.Error()})
		return err
	}

	var score any = "N/A"
	if actx.QualityReport != nil {
		score = actx.QualityReport.Score
	}
	actx.Publish("orchestrator", "review", 85, map[string]any{
		"message": fmt.Sprintf("review complete, quality score: %v", score),
		"score":   score,
	})
	return nil
}

// autoFixAndReview re-runs translation and then review exactly once. A
// failure in either step keeps the earlier result and returns immediately
// — the second review, once it does run, is accepted unconditionally
// whether or not the score improved.
func (a *Agent) autoFixAndReview(ctx context.Context, actx *agent.AgentContext) {
	if err := actx.Cancellation.Check(); err != nil {
		return
	}

	priorScore := 0
	if actx.QualityReport != nil {
		priorScore = actx.QualityReport.Score
	}

	actx.Publish("orchestrator", "auto_fix", 87, map[string]any{
		"message": fmt.Sprintf("quality score %d < %d, auto-fixing...", priorScore, qualityThreshold),
	})

	if _, err := a.translation.Run(ctx, actx); err != nil {
		slog.Warn("orchestrator: auto-fix translation failed, keeping original", "task_id", actx.TaskID, "error", err)
		return
	}

	actx.Publish("orchestrator", "auto_fix", 92, map[string]any{
		"message": "fixed translation complete, re-reviewing...",
	})

	if _, err := a.review.Run(ctx, actx); err != nil {
		slog.Warn("orchestrator: auto-fix review failed, keeping previous report", "task_id", actx.TaskID, "error", err)
		return
	}

	var newScore any = "N/A"
	if actx.QualityReport != nil {
		newScore = actx.QualityReport.Score
	}
	actx.Publish("orchestrator", "auto_fix", 95, map[string]any{
		"message":   fmt.Sprintf("auto-fix complete, new score: %v", newScore),
		"new_score": newScore,
	})
}

func (a *Agent) runIndexPhase(ctx context.Context, actx *agent.AgentContext) {
	if err := actx.Cancellation.Check(); err != nil {
		return
	}

	actx.Publish("orchestrator", "indexing", 91, map[string]any{
		"message": "indexing paper...",
	})

	if a.index == nil {
		actx.Publish("orchestrator", "indexing", 96, map[string]any{"message": "indexing complete"})
		return
	}

	if _, err := a.index.Run(ctx, actx); err != nil {
		slog.Warn("orchestrator: index phase failed, continuing without indexing", "task_id", actx.TaskID, "error", err)
		actx.Publish("orchestrator", "indexing", 96, map[string]any{
			"status":  "failed",
			"error":   err.Error(),
			"message": fmt.Sprintf("indexing failed: %v (translation result unaffected)", err),
		})
		return
	}

	actx.Publish("orchestrator", "indexing", 96, map[string]any{
		"message": "indexing complete",
	})
}

func (a *Agent) saveResults(ctx context.Context, actx *agent.AgentContext) {
	if err := actx.Cancellation.Check(); err != nil {
		return
	}

	actx.Publish("orchestrator", "saving", 97, map[string]any{
		"message": "saving translation result...",
	})

	if a.persister != nil {
		if err := a.persister.Save(ctx, actx); err != nil {
			slog.Warn("orchestrator: failed to save results", "task_id", actx.TaskID, "error", err)
		}
	}

	actx.Publish("orchestrator", "saving", 99, map[string]any{
		"message": "results saved",
	})
}
