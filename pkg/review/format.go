package review

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/codeready-toolchain/docflow/pkg/agent"
)

var (
	displayMathAllRe = regexp.MustCompile(`(?s)\$\$.*?\$\$`)
	codeBlockAllRe   = regexp.MustCompile("(?s)```.*?```")
	inlineCodeAllRe  = regexp.MustCompile("`[^`]+`")
	headingRe        = regexp.MustCompile(`^(#{1,6})\s+\S`)
	imageRe          = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)
)

// checkFormatIntegrity runs the four structural checks from
// original_source's review_agent.py _check_format_integrity.
func checkFormatIntegrity(translatedMD string) []agent.FormatIssue {
	if translatedMD == "" {
		return nil
	}
	lines := strings.Split(translatedMD, "\n")

	var issues []agent.FormatIssue
	issues = append(issues, checkBrokenTables(lines)...)
	issues = append(issues, checkUnclosedMath(translatedMD, lines)...)
	issues = append(issues, checkBrokenHeadings(lines)...)
	issues = append(issues, checkMissingImages(lines)...)
	return issues
}

func checkBrokenTables(lines []string) []agent.FormatIssue {
	var issues []agent.FormatIssue
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !(strings.HasPrefix(line, "|") && strings.Count(line, "|") >= 2) {
			i++
			continue
		}

		tableStart := i + 1
		var colCounts []int
		for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
			tline := strings.TrimSpace(lines[i])
			cols := nonEmptyCells(tline)
			colCounts = append(colCounts, len(cols))
			i++
		}

		distinct := distinctInts(colCounts)
		if len(distinct) > 1 {
			issues = append(issues, agent.FormatIssue{
				Kind:        agent.FormatIssueBrokenTable,
				Location:    fmt.Sprintf("Line %d", tableStart),
				Description: fmt.Sprintf("Table has inconsistent column counts: %v", distinct),
			})
		}
	}
	return issues
}

func nonEmptyCells(tline string) []string {
	var cells []string
	for _, c := range strings.Split(tline, "|") {
		if strings.TrimSpace(c) != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

func distinctInts(values []int) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

func checkUnclosedMath(text string, lines []string) []agent.FormatIssue {
	var issues []agent.FormatIssue

	displayDelimiters := strings.Count(text, "$$")
	if displayDelimiters%2 != 0 {
		for i, line := range lines {
			if strings.Contains(line, "$$") {
				issues = append(issues, agent.FormatIssue{
					Kind:        agent.FormatIssueMissingFormula,
					Location:    fmt.Sprintf("Line %d", i+1),
					Description: "Unmatched display math delimiter ($$)",
				})
				break
			}
		}
	}

	textNoDisplay := displayMathAllRe.ReplaceAllString(text, "")
	textNoCode := codeBlockAllRe.ReplaceAllString(textNoDisplay, "")
	textNoInlineCode := inlineCodeAllRe.ReplaceAllString(textNoCode, "")

	if strings.Count(textNoInlineCode, "$")%2 != 0 {
		for i, line := range lines {
			lineNoDisplay := strings.ReplaceAll(line, "$$", "")
			lineNoCode := inlineCodeAllRe.ReplaceAllString(lineNoDisplay, "")
			if strings.Count(lineNoCode, "$")%2 != 0 {
				issues = append(issues, agent.FormatIssue{
					Kind:        agent.FormatIssueMissingFormula,
					Location:    fmt.Sprintf("Line %d", i+1),
					Description: "Unmatched inline math delimiter ($)",
				})
				break
			}
		}
	}

	return issues
}

func checkBrokenHeadings(lines []string) []agent.FormatIssue {
	var issues []agent.FormatIssue
	lastLevel := 0

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		m := headingRe.FindStringSubmatch(stripped)
		if m == nil {
			continue
		}
		level := len(m[1])
		if lastLevel > 0 && level > lastLevel+1 {
			issues = append(issues, agent.FormatIssue{
				Kind:     agent.FormatIssueBrokenHeading,
				Location: fmt.Sprintf("Line %d", i+1),
				Description: fmt.Sprintf("Heading level jumps from %d to %d (skipped level %d)",
					lastLevel, level, lastLevel+1),
			})
		}
		lastLevel = level
	}

	return issues
}

func checkMissingImages(lines []string) []agent.FormatIssue {
	var issues []agent.FormatIssue
	for i, line := range lines {
		for _, m := range imageRe.FindAllStringSubmatch(line, -1) {
			alt, path := m[1], strings.TrimSpace(m[2])
			if path == "" {
				issues = append(issues, agent.FormatIssue{
					Kind:        agent.FormatIssueMissingImage,
					Location:    fmt.Sprintf("Line %d", i+1),
					Description: fmt.Sprintf("Image reference has empty path: ![%s]()", alt),
				})
			}
		}
	}
	return issues
}
