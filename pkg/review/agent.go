// Package review implements ReviewAgent: a pure, deterministic quality
// assessment of translated Markdown against the terminology glossary. It
// performs no external I/O and is referentially transparent given its
// inputs. Grounded on original_source's agent/agents/review_agent.py.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/docflow/pkg/agent"
)

const (
	termIssuePenalty    = 5
	formatIssuePenalty  = 3
	untranslatedPenalty = 2
)

// Agent is ReviewAgent.
type Agent struct{}

// New creates a ReviewAgent.
func New() *Agent { return &Agent{} }

func (a *Agent) Name() string        { return "review" }
func (a *Agent) Description() string { return "checks terminology consistency, format integrity, and untranslated content" }

// Run implements agent.Agent.
func (a *Agent) Run(ctx context.Context, actx *agent.AgentContext) (*agent.AgentContext, error) {
	if err := actx.Cancellation.Check(); err != nil {
		return actx, err
	}

	actx.Publish("review", "analyzing", 70, nil)

	termIssues := checkTerminologyConsistency(actx.TranslatedMD, actx.GlossarySnapshot())
	formatIssues := checkFormatIntegrity(actx.TranslatedMD)
	untranslated := detectUntranslated(actx.TranslatedMD)

	report := buildQualityReport(termIssues, formatIssues, untranslated)
	actx.QualityReport = report

	actx.Publish("review", "complete", 90, map[string]any{
		"score":              report.Score,
		"terminology_issues": len(report.TermIssues),
		"format_issues":      len(report.FormatIssues),
		"untranslated":       len(report.Untranslated),
	})

	return actx, nil
}

func buildQualityReport(termIssues []agent.TermIssue, formatIssues []agent.FormatIssue, untranslated []string) *agent.QualityReport {
	score := 100
	score -= termIssuePenalty * len(termIssues)
	score -= formatIssuePenalty * len(formatIssues)
	score -= untranslatedPenalty * len(untranslated)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var suggestions []string
	if len(termIssues) > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Found %d terminology inconsistencies; unify the translation of each term.", len(termIssues)))
		for _, issue := range termIssues {
			suggestions = append(suggestions, fmt.Sprintf(
				"Term %q should be translated consistently as %q.", issue.EnglishTerm, issue.Suggested))
		}
	}
	if len(formatIssues) > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Found %d formatting issues; check tables, formulas, and headings.", len(formatIssues)))
	}
	if len(untranslated) > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Found %d untranslated passages; complete their translation.", len(untranslated)))
	}

	return &agent.QualityReport{
		Score:          score,
		TermIssues:     termIssues,
		FormatIssues:   formatIssues,
		Untranslated:   untranslated,
		Suggestions:    suggestions,
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
	}
}
