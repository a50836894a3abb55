// Package ocr implements OCRAgent: document analysis, pipeline selection
// between the native-text (LLM) and scanned (OCR) paths, cross-page
// stitching, and Markdown/table repair. Grounded on
// original_source/agent/agents/ocr_agent.py.
package ocr

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/codeready-toolchain/docflow/pkg/agent"
)

// DocumentAnalysis summarizes a document's native-extracted text, used to
// pick between the LLM and OCR pipelines.
type DocumentAnalysis struct {
	DocType              string // "native" or "scanned"
	LanguageDistribution map[string]float64
	FormulaDensity       float64
	TableCount           int
}

var (
	displayMathRe = regexp.MustCompile(`(?s)\$\$.*?\$\$`)
	inlineMathRe  = regexp.MustCompile(`\$[^$\n]+\$`)
	tableSepRe    = regexp.MustCompile(`^\|[\s\-:|]+\|`)
)

// AnalyzeDocument classifies extractedText as native or scanned against
// agent.NativeTextThreshold and computes formula density, table count, and
// language distribution. An empty extractedText (extraction unavailable or
// failed) defaults to "scanned" with a zeroed language distribution.
func AnalyzeDocument(extractedText string) DocumentAnalysis {
	analysis := DocumentAnalysis{DocType: "scanned"}

	if len(strings.TrimSpace(extractedText)) >= agent.NativeTextThreshold {
		analysis.DocType = "native"
	}

	if extractedText == "" {
		analysis.LanguageDistribution = map[string]float64{"en": 0, "zh": 0, "other": 0}
		return analysis
	}

	// Formula density, table count, and language distribution each scan
	// the full text independently with no shared state, so they run as
	// concurrent, error-free scans rather than three sequential passes.
	var g errgroup.Group
	g.Go(func() error {
		formulaCount, totalChars := countFormulas(extractedText)
		analysis.FormulaDensity = round(float64(formulaCount)/float64(totalChars), 6)
		return nil
	})
	g.Go(func() error {
		analysis.TableCount = countTables(extractedText)
		return nil
	})
	g.Go(func() error {
		analysis.LanguageDistribution = detectLanguageDistribution(extractedText)
		return nil
	})
	_ = g.Wait()

	return analysis
}

// countFormulas counts $$...$$ display-math blocks plus $...$ inline-math
// spans (excluding spans that are part of a $$ delimiter), returning the
// count and the text length used as the density denominator.
func countFormulas(text string) (count int, totalChars int) {
	displayMatches := displayMathRe.FindAllString(text, -1)

	inlineCount := 0
	for _, line := range strings.Split(text, "\n") {
		for _, idx := range inlineMathRe.FindAllStringIndex(line, -1) {
			start, end := idx[0], idx[1]
			precededByDollar := start > 0 && line[start-1] == '$'
			followedByDollar := end < len(line) && line[end] == '$'
			if !precededByDollar && !followedByDollar {
				inlineCount++
			}
		}
	}

	totalChars = len(text)
	if totalChars == 0 {
		totalChars = 1
	}
	return len(displayMatches) + inlineCount, totalChars
}

// countTables counts Markdown tables: a line starting with "|" immediately
// followed by a "|---|"-style separator row.
func countTables(text string) int {
	lines := strings.Split(text, "\n")
	count := 0
	i := 0
	for i < len(lines)-1 {
		line := strings.TrimSpace(lines[i])
		nextLine := strings.TrimSpace(lines[i+1])
		if strings.HasPrefix(line, "|") && strings.Contains(line[1:], "|") && tableSepRe.MatchString(nextLine) {
			count++
			i += 2
			for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
				i++
			}
			continue
		}
		i++
	}
	return count
}

// detectLanguageDistribution buckets characters into Chinese (CJK
// unified ideographs), English (ASCII letters), and other, each rounded
// to 3 decimals.
func detectLanguageDistribution(text string) map[string]float64 {
	if text == "" {
		return map[string]float64{"en": 0, "zh": 0, "other": 0}
	}
	total := 0
	var zhChars, enChars int
	for _, r := range text {
		total++
		switch {
		case r >= 0x4e00 && r <= 0x9fff:
			zhChars++
		case unicode.IsLetter(r) && r < 0x80:
			enChars++
		}
	}
	other := total - zhChars - enChars
	if other < 0 {
		other = 0
	}
	denom := total
	if denom == 0 {
		denom = 1
	}
	return map[string]float64{
		"en":    round(float64(enChars)/float64(denom), 3),
		"zh":    round(float64(zhChars)/float64(denom), 3),
		"other": round(float64(other)/float64(denom), 3),
	}
}

func round(v float64, places int) float64 {
	mult := 1.0
	for range places {
		mult *= 10
	}
	if v >= 0 {
		return float64(int(v*mult+0.5)) / mult
	}
	return float64(int(v*mult-0.5)) / mult
}
