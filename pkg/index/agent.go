// Package index implements IndexAgent: extracts structured paper
// metadata from the translated document (LLM-assisted, with a rule-based
// fallback) and persists it via the paper store for later retrieval.
// Grounded on original_source's agent/agents/index_agent.py.
package index

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/codeready-toolchain/docflow/pkg/llmjson"
	"github.com/codeready-toolchain/docflow/pkg/paperstore"
	"github.com/tidwall/gjson"
)

// maxExtractionChars bounds how much of the translated document is sent to
// the LLM for metadata extraction (abstract + introduction + methods).
const maxExtractionChars = 8000

const extractMetadataPrompt = `You are an expert academic paper analyst. Extract structured information from the translated paper content below.

Return strict JSON only (no Markdown code fences):
{
  "title": "English title",
  "title_zh": "Chinese title",
  "authors": ["author1", "author2"],
  "abstract": "Chinese abstract, under 200 characters",
  "domain": "domain (e.g. nlp, cv, rl, multimodal, systems, math, other)",
  "research_problem": "one-sentence research problem",
  "methodology": "one-sentence description of the core method",
  "contributions": ["contribution1", "contribution2", "contribution3"],
  "keywords": ["keyword1", "keyword2", "keyword3", "keyword4", "keyword5"],
  "base_models": ["models/datasets used or compared against"],
  "year": 2024,
  "venue": "venue or publication, empty string if unknown"
}

Rules:
1. domain uses a lowercase English tag
2. keywords mix Chinese and English terms, 5-10 total
3. use an empty string or array for fields you cannot determine
4. use null for year if unknown
5. return JSON only, no explanation

Paper content:
---
%s
---
`

// Repository is the persistence port IndexAgent writes through; satisfied
// by *paperstore.Store.
type Repository interface {
	Upsert(id string, metadata paperstore.Metadata, embedding []float32, qualityScore *int, filename string) error
}

// Agent is IndexAgent.
type Agent struct {
	repo     Repository
	llm      agent.TranslationService
	embedder agent.EmbeddingService
}

// New creates an IndexAgent. embedder may be nil: no embedding is computed.
func New(repo Repository, llm agent.TranslationService, embedder agent.EmbeddingService) *Agent {
	return &Agent{repo: repo, llm: llm, embedder: embedder}
}

func (a *Agent) Name() string        { return "index" }
func (a *Agent) Description() string { return "extracts paper metadata and persists it to the paper store" }

// Run implements agent.Agent. Persistence and extraction failures here are
// best-effort, never fatal to the task: a failed extraction falls back to
// rule-based metadata, and a failed persist is reported as a published
// warning event.
func (a *Agent) Run(ctx context.Context, actx *agent.AgentContext) (*agent.AgentContext, error) {
	if actx.TranslatedMD == "" {
		actx.Publish("index", "skip", 91, map[string]any{
			"message": "no translated content, skipping indexing",
		})
		return actx, nil
	}

	actx.Publish("index", "extracting", 91, map[string]any{
		"message": "extracting paper metadata...",
	})

	metadata := a.extractMetadata(ctx, actx)
	metadata = enrichMetadata(metadata, actx)

	actx.Publish("index", "extracting", 93, map[string]any{
		"message":  fmt.Sprintf("metadata extracted: %s | domain: %s", firstNonEmpty(metadata.TitleZH, metadata.Title), metadata.Domain),
		"domain":   metadata.Domain,
		"keywords": metadata.Keywords,
	})

	if err := actx.Cancellation.Check(); err != nil {
		return actx, err
	}

	embedding := a.generateEmbedding(ctx, metadata)

	actx.Publish("index", "saving_db", 95, map[string]any{
		"message": "writing to paper database...",
	})

	var qualityScore *int
	if actx.QualityReport != nil {
		score := actx.QualityReport.Score
		qualityScore = &score
	}

	if a.repo != nil {
		if err := a.repo.Upsert(actx.TaskID, metadata, embedding, qualityScore, actx.Filename); err != nil {
			actx.Publish("index", "warning", 95, map[string]any{
				"message": fmt.Sprintf("failed to persist paper metadata: %v", err),
			})
		}
	}

	actx.PaperMetadata = metadata.ToMap()

	actx.Publish("index", "complete", 96, map[string]any{
		"message":  fmt.Sprintf("indexing complete: %s | %d keywords", metadata.Domain, len(metadata.Keywords)),
		"paper_id": actx.TaskID,
	})

	return actx, nil
}

// extractMetadata prompts the LLM with a leading slice of the translated
// document; on any failure (call error, empty/unparseable JSON) it falls
// back to rule-based extraction.
func (a *Agent) extractMetadata(ctx context.Context, actx *agent.AgentContext) paperstore.Metadata {
	if a.llm == nil {
		return extractMetadataFallback(actx)
	}

	text := actx.TranslatedMD
	if len(text) > maxExtractionChars {
		text = text[:maxExtractionChars]
	}
	prompt := fmt.Sprintf(extractMetadataPrompt, text)

	response, err := a.llm.ExtractMetadata(ctx, prompt)
	if err != nil {
		return extractMetadataFallback(actx)
	}

	obj, err := llmjson.ExtractObject(response)
	if err != nil || !obj.Exists() {
		return extractMetadataFallback(actx)
	}

	return metadataFromJSON(obj)
}

func metadataFromJSON(obj gjson.Result) paperstore.Metadata {
	var m paperstore.Metadata
	m.Title = obj.Get("title").String()
	m.TitleZH = obj.Get("title_zh").String()
	m.Authors = stringArrayField(obj, "authors")
	m.Abstract = obj.Get("abstract").String()
	m.Domain = obj.Get("domain").String()
	m.ResearchProblem = obj.Get("research_problem").String()
	m.Methodology = obj.Get("methodology").String()
	m.Contributions = stringArrayField(obj, "contributions")
	m.Keywords = stringArrayField(obj, "keywords")
	m.BaseModels = stringArrayField(obj, "base_models")
	m.Venue = obj.Get("venue").String()
	if yearField := obj.Get("year"); yearField.Exists() && yearField.Type != gjson.Null {
		year := int(yearField.Int())
		m.Year = &year
	}
	return m
}

func stringArrayField(obj gjson.Result, key string) []string {
	field := obj.Get(key)
	if !field.IsArray() {
		return nil
	}
	var out []string
	for _, item := range field.Array() {
		out = append(out, item.String())
	}
	return out
}

var (
	titleHeadingRe  = regexp.MustCompile(`(?m)^#\s+(.+)`)
	mdPunctuationRe = regexp.MustCompile("[#|*`\\[\\]()]")
)

// extractMetadataFallback derives a minimal metadata record from document
// structure alone, for use when no LLM is available or extraction fails.
func extractMetadataFallback(actx *agent.AgentContext) paperstore.Metadata {
	var m paperstore.Metadata

	if match := titleHeadingRe.FindStringSubmatch(actx.TranslatedMD); match != nil {
		m.TitleZH = strings.TrimSpace(match[1])
	}

	if actx.PromptProfile != nil && actx.PromptProfile.Domain != "" {
		m.Domain = actx.PromptProfile.Domain
	}

	glossary := actx.GlossarySnapshot()
	if len(glossary) > 0 {
		terms := make([]string, 0, len(glossary))
		for term := range glossary {
			terms = append(terms, term)
			if len(terms) >= 10 {
				break
			}
		}
		m.Keywords = terms
	}

	clean := mdPunctuationRe.ReplaceAllString(actx.TranslatedMD, "")
	clean = strings.TrimSpace(clean)
	if len(clean) > 500 {
		clean = clean[:500]
	}
	m.Abstract = clean

	return m
}

// enrichMetadata fills in gaps left by extraction using information
// already present on the context: domain from the prompt profile, and up
// to 10 glossary keys as additional keywords once the LLM returned fewer
// than 5.
func enrichMetadata(m paperstore.Metadata, actx *agent.AgentContext) paperstore.Metadata {
	if m.Domain == "" && actx.PromptProfile != nil && actx.PromptProfile.Domain != "" {
		m.Domain = actx.PromptProfile.Domain
	}

	glossary := actx.GlossarySnapshot()
	if len(glossary) > 0 && len(m.Keywords) < 5 {
		candidates := lo.Without(lo.Keys(glossary), m.Keywords...)
		room := 10 - len(m.Keywords)
		if room > len(candidates) {
			room = len(candidates)
		}
		m.Keywords = append(m.Keywords, candidates[:room]...)
		m.Keywords = lo.Uniq(m.Keywords)
	}

	return m
}

// generateEmbedding computes an embedding for the paper's abstract when an
// embedding service is configured. Failures are swallowed: embedding is
// optional enrichment, never required for indexing to succeed.
func (a *Agent) generateEmbedding(ctx context.Context, metadata paperstore.Metadata) []float32 {
	if a.embedder == nil {
		return nil
	}
	text := strings.TrimSpace(metadata.Title + " " + metadata.Abstract + " " + metadata.ResearchProblem)
	if text == "" {
		return nil
	}
	embedding, err := a.embedder.Embed(ctx, text)
	if err != nil {
		return nil
	}
	return embedding
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
