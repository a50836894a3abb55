// Package promptprofile builds the translation prompt TranslationAgent
// uses for every segment of one paper. Grounded on original_source's
// backend/app/services/prompt_generator.py: an LLM analyzes the paper's
// abstract once, producing a domain label, a terminology mapping, and a
// keep-in-English list; a pure function then renders those into a
// complete system prompt.
package promptprofile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/codeready-toolchain/docflow/pkg/llmjson"
	"github.com/tidwall/gjson"
)

// minAbstractLength below which analysis is skipped and a generic prompt
// is rendered instead, matching the original's "摘要文本过短" fallback.
const minAbstractLength = 50

// maxExcerptLength bounds how much of the abstract is sent to the LLM for
// analysis.
const maxExcerptLength = 3000

const analysisMetaPrompt = `You are an expert academic translation consultant. Analyze a paper's abstract and opening paragraphs, then produce a specialized translation configuration.

Output a JSON object with these fields:

1. "domain": The paper's research domain in Chinese (e.g. "自然语言处理 / 大语言模型推理优化")
2. "terminology": A dict of key technical terms. Key=English term, Value=Chinese translation or the English term itself if it should stay in English. Include 15-40 terms.
3. "keep_english": A list of terms that MUST stay in English (subset of terminology keys).

RULES:
- Output ONLY valid JSON, no markdown fences, no explanation.
- Include multi-word terms (e.g. "key-value cache", "attention state").

Paper excerpt:
---
%s
---
`

// Analyze calls svc to analyze abstractText and produce a rendered
// PromptProfile. A too-short abstract (original's "摘要文本过短" guard)
// skips the LLM call entirely and renders a generic prompt. Any LLM or
// parse failure also falls back to a generic prompt without being
// reported — Analyze itself never returns an error.
func Analyze(ctx context.Context, svc agent.TranslationService, abstractText string) *agent.PromptProfile {
	profile := &agent.PromptProfile{Terminology: orderedmap.New[string, string]()}

	if len(strings.TrimSpace(abstractText)) < minAbstractLength {
		profile.RenderedPrompt = Render(profile)
		return profile
	}

	excerpt := abstractText
	if len(excerpt) > maxExcerptLength {
		excerpt = excerpt[:maxExcerptLength]
	}

	raw, err := svc.AnalyzeForPromptProfile(ctx, fmt.Sprintf(analysisMetaPrompt, excerpt))
	if err == nil {
		if parsed, parseErr := llmjson.ExtractObject(raw); parseErr == nil {
			profile.Domain = parsed.Get("domain").String()
			parsed.Get("terminology").ForEach(func(k, v gjson.Result) bool {
				profile.Terminology.Set(k.String(), v.String())
				return true
			})
			for _, term := range parsed.Get("keep_english").Array() {
				profile.KeepEnglish = append(profile.KeepEnglish, term.String())
			}
		}
	}

	profile.RenderedPrompt = Render(profile)
	return profile
}

// MergeGlossary folds an AgentContext glossary into profile's terminology,
// with existing profile entries winning on conflict, then re-renders the
// prompt. Mirrors spec.md §4.5 step 2.
func MergeGlossary(profile *agent.PromptProfile, glossary map[string]string) {
	if profile.Terminology == nil {
		profile.Terminology = orderedmap.New[string, string]()
	}
	keys := make([]string, 0, len(glossary))
	for en := range glossary {
		keys = append(keys, en)
	}
	sort.Strings(keys)
	for _, en := range keys {
		if _, exists := profile.Terminology.Get(en); !exists {
			profile.Terminology.Set(en, glossary[en])
		}
	}
	profile.RenderedPrompt = Render(profile)
}

// Render assembles the final translation system prompt from a
// PromptProfile. Pure and deterministic: same profile in, same prompt out.
func Render(profile *agent.PromptProfile) string {
	keepEnglish := make(map[string]bool, len(profile.KeepEnglish))
	for _, term := range profile.KeepEnglish {
		keepEnglish[term] = true
	}

	var termLines []string
	if profile.Terminology != nil {
		for pair := profile.Terminology.Oldest(); pair != nil; pair = pair.Next() {
			en, zh := pair.Key, pair.Value
			if keepEnglish[en] || en == zh {
				termLines = append(termLines, fmt.Sprintf(`  - %s -> keep English "%s"`, en, en))
			} else {
				termLines = append(termLines, fmt.Sprintf("  - %s -> %s", en, zh))
			}
		}
	}
	termBlock := "  (no special terms)"
	if len(termLines) > 0 {
		termBlock = strings.Join(termLines, "\n")
	}

	keepEnList := "none"
	if len(profile.KeepEnglish) > 0 {
		keepEnList = strings.Join(profile.KeepEnglish, ", ")
	}

	domainPart := ""
	if profile.Domain != "" {
		domainPart = fmt.Sprintf(" specializing in %s", profile.Domain)
	}

	parts := []string{
		fmt.Sprintf("You are a professional English-to-Chinese translator%s.", domainPart),
		"",
		"TRANSLATION RULES:",
		"1. Translate the given English text into Chinese. Do NOT explain, summarize, or expand.",
		"2. Output format: original English paragraph first, then Chinese translation below. Separate with a blank line.",
		"3. Preserve ALL Markdown formatting: headings, bold, italic, lists, tables, math formulas, inline code.",
		"4. Do NOT add any content not in the original text.",
		"5. Do NOT wrap output in code fences.",
		"6. For short fragments (author names, affiliations, figure labels, references), translate directly.",
		"",
		"TERMINOLOGY GUIDE (follow strictly):",
		termBlock,
		"",
		fmt.Sprintf("MUST KEEP IN ENGLISH: %s", keepEnList),
	}

	if profile.Domain != "" {
		parts = append(parts, "",
			fmt.Sprintf("DOMAIN CONTEXT: This paper is in %s. Use standard technical Chinese. Prefer concise, precise translations.", profile.Domain))
	}

	return strings.Join(parts, "\n")
}
