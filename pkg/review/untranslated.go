package review

import (
	"regexp"
	"strings"
)

var (
	hasChineseRe    = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
	asciiAlphaRunRe = regexp.MustCompile(`[a-zA-Z]{2,}`)
)

// detectUntranslated finds runs of 3+ consecutive non-empty, non-heading,
// non-short-token lines with no CJK ideograph and at least one ASCII
// alphabetic run, outside code fences and display-math blocks. Grounded on
// original_source's review_agent.py _detect_untranslated.
func detectUntranslated(translatedMD string) []string {
	if translatedMD == "" {
		return nil
	}
	lines := strings.Split(translatedMD, "\n")

	excluded := make([]bool, len(lines))
	inCodeBlock := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			excluded[i] = true
		} else if inCodeBlock {
			excluded[i] = true
		}
	}

	inLatexBlock := false
	for i, line := range lines {
		if strings.TrimSpace(line) == "$$" {
			inLatexBlock = !inLatexBlock
			excluded[i] = true
		} else if inLatexBlock {
			excluded[i] = true
		}
	}

	var untranslated []string
	var block []string

	flush := func() {
		if len(block) >= 3 {
			untranslated = append(untranslated, strings.Join(block, "\n"))
		}
		block = nil
	}

	for i, line := range lines {
		if excluded[i] {
			flush()
			continue
		}

		stripped := strings.TrimSpace(line)

		if stripped == "" {
			flush()
			continue
		}
		if strings.HasPrefix(stripped, "#") {
			flush()
			continue
		}
		if len(stripped) <= 30 && !strings.Contains(stripped, " ") {
			flush()
			continue
		}

		if hasChineseRe.MatchString(stripped) {
			flush()
			continue
		}

		if asciiAlphaRunRe.MatchString(stripped) {
			block = append(block, stripped)
		} else {
			flush()
		}
	}
	flush()

	return untranslated
}
