// Package workflow exposes RunTranslationWorkflow, the single entry point
// that constructs an AgentContext for one uploaded document, invokes the
// orchestrator, and maps the resulting context into the external Result
// shape. Grounded on spec.md §6's run_translation_workflow contract.
package workflow

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/codeready-toolchain/docflow/pkg/eventbus"
)

// Request is the input to RunTranslationWorkflow.
type Request struct {
	FileContent []byte
	Filename    string

	// TaskID, when empty, is generated as 8 random hex characters.
	TaskID string

	EnableOCR bool

	// CancellationToken, when set, replaces the AgentContext's own token
	// so an external caller (the HTTP API's cancel endpoint, a CLI's
	// signal handler) can cancel an in-flight run.
	CancellationToken *agent.CancellationToken
}

// PromptProfileSummary is the prompt_profile field of Result: a read-only
// projection of agent.PromptProfile that reports the terminology map's
// size rather than the map itself.
type PromptProfileSummary struct {
	Domain           string   `json:"domain"`
	TerminologyCount int      `json:"terminology_count"`
	KeepEnglish      []string `json:"keep_english"`
	GeneratedPrompt  string   `json:"generated_prompt"`
}

// Result is the mapping run_translation_workflow returns per spec.md §6.
type Result struct {
	TaskID        string                `json:"task_id"`
	TranslationID string                `json:"translation_id"`
	Markdown      string                `json:"markdown"`
	TranslatedMD  string                `json:"translated_md"`
	OCRMarkdown   string                `json:"ocr_markdown,omitempty"`
	Images        map[string][]byte     `json:"images"`
	OCRImages     map[string][]byte     `json:"ocr_images"`
	QualityReport *agent.QualityReport  `json:"quality_report"`
	Glossary      map[string]string     `json:"glossary"`
	PromptProfile *PromptProfileSummary `json:"prompt_profile"`
}

// RunTranslationWorkflow builds an AgentContext for one translation task
// and runs orch.Run to completion, mapping the final context into a
// Result. bus may be nil for callers with no interest in progress events
// (e.g. a synchronous CLI run).
func RunTranslationWorkflow(ctx context.Context, req Request, orch agent.Agent, bus eventbus.Publisher) (*Result, error) {
	taskID := req.TaskID
	if taskID == "" {
		var err error
		taskID, err = generateTaskID()
		if err != nil {
			return nil, fmt.Errorf("workflow: generating task id: %w", err)
		}
	}

	actx := agent.NewAgentContext(taskID, req.Filename, req.FileContent, bus, req.EnableOCR)
	if req.CancellationToken != nil {
		actx.Cancellation = req.CancellationToken
	}

	out, err := orch.Run(ctx, actx)
	if err != nil {
		return nil, err
	}

	return toResult(out), nil
}

func toResult(actx *agent.AgentContext) *Result {
	result := &Result{
		TaskID:        actx.TaskID,
		TranslationID: actx.TaskID,
		Markdown:      actx.TranslatedMD,
		TranslatedMD:  actx.TranslatedMD,
		OCRMarkdown:   actx.OCRMarkdown,
		Images:        actx.Images,
		OCRImages:     actx.OCRImages,
		QualityReport: actx.QualityReport,
		Glossary:      actx.GlossarySnapshot(),
	}

	if actx.PromptProfile != nil {
		result.PromptProfile = &PromptProfileSummary{
			Domain:           actx.PromptProfile.Domain,
			TerminologyCount: actx.PromptProfile.Terminology.Len(),
			KeepEnglish:      actx.PromptProfile.KeepEnglish,
			GeneratedPrompt:  actx.PromptProfile.RenderedPrompt,
		}
	}

	return result
}

func generateTaskID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
