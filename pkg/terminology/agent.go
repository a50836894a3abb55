// Package terminology implements TerminologyAgent, dispatching on an
// action field to extract, query, update, or merge glossary entries
// against a glossary.Store. Grounded on spec.md §4.7 and on the teacher's
// base_agent pattern of a single Run entry point dispatching by request
// shape.
package terminology

import (
	"context"
	"fmt"
	"log/slog"

	agentpkg "github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/codeready-toolchain/docflow/pkg/glossary"
	"github.com/codeready-toolchain/docflow/pkg/llmjson"
)

// Action enumerates TerminologyAgent's dispatch modes. Unlike the other
// agents, TerminologyAgent is invoked standalone (outside the
// AgentContext pipeline) for query/update/merge; only Extract runs as
// part of the orchestrator's terminology-preparation phase.
type Action string

const (
	ActionExtract Action = "extract"
	ActionQuery   Action = "query"
	ActionUpdate  Action = "update"
	ActionMerge   Action = "merge"
)

// ExtractRequest is the input to Extract.
type ExtractRequest struct {
	Text   string
	Domain string
}

// ExtractResult is the output of Extract: the merged glossary for the
// domain plus any conflicts the merge produced.
type ExtractResult struct {
	Glossary  map[string]string
	Conflicts []glossary.Conflict
}

// Agent is TerminologyAgent.
type Agent struct {
	store *glossary.Store
	llm   agentpkg.TranslationService
}

// New creates a TerminologyAgent backed by store for persistence and llm
// for the extract action's term extraction.
func New(store *glossary.Store, llm agentpkg.TranslationService) *Agent {
	return &Agent{store: store, llm: llm}
}

func (a *Agent) Name() string        { return "terminology" }
func (a *Agent) Description() string { return "extracts and manages bilingual terminology glossaries" }

// Run implements agent.Agent for the orchestrator's terminology
// preparation phase: it always performs an Extract against the prompt
// profile's domain ("general" when no profile is set yet), folding the
// result into ctx.Glossary. Standalone
// query/update/merge calls bypass Run and call the corresponding method
// directly — only Extract participates in the AgentContext pipeline.
func (a *Agent) Run(ctx context.Context, actx *agentpkg.AgentContext) (*agentpkg.AgentContext, error) {
	if err := actx.Cancellation.Check(); err != nil {
		return actx, err
	}

	result, err := a.Extract(ctx, ExtractRequest{Text: sampleText(actx), Domain: domainFor(actx)})
	if err != nil {
		slog.Warn("terminology: extraction failed, proceeding with existing glossary", "task_id", actx.TaskID, "error", err)
		return actx, nil
	}

	actx.MergeGlossary(result.Glossary)
	return actx, nil
}

func sampleText(actx *agentpkg.AgentContext) string {
	if actx.ParsedPDF != nil {
		var text string
		for _, page := range actx.ParsedPDF.Pages {
			for _, block := range page.Blocks {
				text += block.Text + "\n"
				if len(text) >= 3000 {
					return text[:3000]
				}
			}
		}
		return text
	}
	if len(actx.OCRMarkdown) > 3000 {
		return actx.OCRMarkdown[:3000]
	}
	return actx.OCRMarkdown
}

func domainFor(actx *agentpkg.AgentContext) string {
	if actx.PromptProfile != nil && actx.PromptProfile.Domain != "" {
		return actx.PromptProfile.Domain
	}
	return "general"
}

// Extract prompts the LLM for a JSON array of {english, chinese,
// keep_english?} entries, tolerating fenced/prose-wrapped responses, then
// merges the result into the domain's glossary via the store.
func (a *Agent) Extract(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	if req.Text == "" {
		return ExtractResult{Glossary: map[string]string{}}, nil
	}

	raw, err := a.llm.ExtractTerms(ctx, req.Text, req.Domain)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("terminology: LLM extraction: %w", err)
	}

	parsed, err := llmjson.ExtractArray(raw)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("terminology: parsing LLM response: %w", err)
	}

	var candidates []glossary.Entry
	for _, item := range parsed.Array() {
		en := item.Get("english").String()
		if en == "" {
			continue
		}
		zh := item.Get("chinese").String()
		keepEnglish := item.Get("keep_english").Bool()
		if keepEnglish && zh == "" {
			zh = en
		}
		candidates = append(candidates, glossary.Entry{
			English:     en,
			Chinese:     zh,
			KeepEnglish: keepEnglish,
			Domain:      req.Domain,
			Source:      "llm_extract",
		})
	}

	merged, conflicts, err := a.store.Merge(req.Domain, candidates)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("terminology: merging extracted entries: %w", err)
	}

	return ExtractResult{Glossary: merged, Conflicts: conflicts}, nil
}

// Query substring-matches English or Chinese text within one domain (or
// every domain when domain == "").
func (a *Agent) Query(domain, substr string) []glossary.Entry {
	return a.store.Query(domain, substr)
}

// Update upserts a single entry.
func (a *Agent) Update(e glossary.Entry) error {
	return a.store.Update(e)
}

// Merge folds candidate entries into a domain's glossary.
func (a *Agent) Merge(domain string, candidates []glossary.Entry) (map[string]string, []glossary.Conflict, error) {
	return a.store.Merge(domain, candidates)
}
