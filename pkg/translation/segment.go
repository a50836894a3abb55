package translation

import (
	"fmt"
	"regexp"
	"strings"
)

// segment is one ordered unit of a split Markdown document: translatable
// text, or a non-text span (table, image, code/math block, HTML comment)
// carried through verbatim.
type segment struct {
	Kind    string // "text" or "non_text"
	Content string
}

const (
	segmentText    = "text"
	segmentNonText = "non_text"
)

const defaultMergeThreshold = 1500

var (
	htmlBlockOpenRe  = regexp.MustCompile(`(?i)^\s*<(?:table|div|figure|figcaption)\b`)
	htmlBlockCloseRe = regexp.MustCompile(`(?i)</(?:table|div|figure|figcaption)>\s*$`)
	imageLineRe      = regexp.MustCompile(`^\s*!\[`)
	imgTagRe         = regexp.MustCompile(`(?i)^\s*<img\b`)
	figcaptionLineRe = regexp.MustCompile(`(?i)^\s*>\s*(?:Figure|Table|图|表)\s*\d`)
)

// splitMDSegments splits Markdown into an ordered list of text/non-text
// segments, merging adjacent short text segments (< mergeThreshold chars)
// so the translator gets more context per call. Grounded on
// original_source's text_processing.split_md_segments.
func splitMDSegments(mdText string, mergeThreshold int) []segment {
	lines := strings.Split(mdText, "\n")
	var segments []segment
	var buf []string
	bufType := segmentText

	flush := func() {
		if len(buf) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		if content != "" {
			segments = append(segments, segment{Kind: bufType, Content: content})
		}
		buf = nil
		bufType = segmentText
	}

	inTable := false
	inMathBlock := false
	inCodeBlock := false
	inHTMLBlock := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, "```") {
			if !inCodeBlock {
				flush()
				bufType = segmentNonText
				buf = append(buf, line)
				inCodeBlock = true
			} else {
				buf = append(buf, line)
				inCodeBlock = false
				flush()
			}
			continue
		}
		if inCodeBlock {
			buf = append(buf, line)
			continue
		}

		if strings.HasPrefix(stripped, "$$") && !inMathBlock {
			flush()
			bufType = segmentNonText
			buf = append(buf, line)
			if strings.HasSuffix(stripped, "$$") && len(stripped) > 2 {
				flush()
			} else {
				inMathBlock = true
			}
			continue
		}
		if inMathBlock {
			buf = append(buf, line)
			if strings.HasSuffix(stripped, "$$") {
				inMathBlock = false
				flush()
			}
			continue
		}

		if strings.HasPrefix(stripped, "$") && strings.HasSuffix(stripped, "$") && !inMathBlock && len(stripped) > 1 {
			flush()
			segments = append(segments, segment{Kind: segmentNonText, Content: line})
			continue
		}

		if htmlBlockOpenRe.MatchString(stripped) {
			flush()
			bufType = segmentNonText
			buf = append(buf, line)
			if htmlBlockCloseRe.MatchString(stripped) {
				flush()
			} else {
				inHTMLBlock = true
			}
			continue
		}
		if inHTMLBlock {
			buf = append(buf, line)
			if htmlBlockCloseRe.MatchString(stripped) {
				inHTMLBlock = false
				flush()
			}
			continue
		}

		if imageLineRe.MatchString(stripped) {
			flush()
			segments = append(segments, segment{Kind: segmentNonText, Content: line})
			continue
		}

		if imgTagRe.MatchString(stripped) {
			flush()
			segments = append(segments, segment{Kind: segmentNonText, Content: line})
			continue
		}

		if strings.HasPrefix(stripped, "<!--") && strings.HasSuffix(stripped, "-->") {
			flush()
			segments = append(segments, segment{Kind: segmentNonText, Content: line})
			continue
		}

		if strings.HasPrefix(stripped, "|") && strings.HasSuffix(stripped, "|") {
			if !inTable {
				flush()
				bufType = segmentNonText
				inTable = true
			}
			buf = append(buf, line)
			continue
		} else if inTable {
			inTable = false
			flush()
		}

		if figcaptionLineRe.MatchString(stripped) {
			flush()
			segments = append(segments, segment{Kind: segmentText, Content: strings.TrimSpace(strings.TrimPrefix(stripped, ">"))})
			continue
		}

		if stripped == "" {
			flush()
			continue
		}

		if bufType == segmentNonText {
			flush()
		}
		bufType = segmentText
		buf = append(buf, line)
	}
	flush()

	merged := make([]segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Kind == segmentText && len(merged) > 0 && merged[len(merged)-1].Kind == segmentText &&
			len(merged[len(merged)-1].Content)+len(seg.Content) < mergeThreshold {
			merged[len(merged)-1].Content += "\n\n" + seg.Content
		} else {
			merged = append(merged, seg)
		}
	}
	return merged
}

const (
	latexPlaceholderPrefix = "⟦LATEX_"
	latexPlaceholderSuffix = "⟧"
)

var inlineLatexRe = regexp.MustCompile(`\$[^$\n]+\$`)

// protectInlineLatex replaces inline $...$ formulas with placeholders so a
// translation call can't mangle them, returning the placeholder map needed
// to restore them afterward.
func protectInlineLatex(text string) (string, map[string]string) {
	placeholders := make(map[string]string)
	counter := 0

	protected := inlineLatexRe.ReplaceAllStringFunc(text, func(formula string) string {
		key := fmt.Sprintf("%s%d%s", latexPlaceholderPrefix, counter, latexPlaceholderSuffix)
		placeholders[key] = formula
		counter++
		return key
	})
	return protected, placeholders
}

// restoreInlineLatex substitutes placeholders back to their original
// LaTeX formulas.
func restoreInlineLatex(text string, placeholders map[string]string) string {
	for key, formula := range placeholders {
		text = strings.ReplaceAll(text, key, formula)
	}
	return text
}

var (
	citationRe      = regexp.MustCompile(`(\[\d+(?:\s*,\s*\d+)*\])`)
	figcaptionFmtRe = regexp.MustCompile(`(?i)^\s*>\s*((?:Figure|Table|Fig\.|Tab\.|图|表)\s*\d+[.:：]?\s*.*)$`)
	figcaptionBoldRe = regexp.MustCompile(`(?i)^((?:Figure|Table|Fig\.|Tab\.|图|表)\s*\d+[.:：]?)`)
)

// superscriptCitations wraps bare numeric citation markers like "[1]" or
// "[1, 2]" in <sup>, skipping markdown links "[text](url)" and image alt
// text "![alt](url)" where the bracket is followed by "(" or preceded by
// "!".
func superscriptCitations(line string) string {
	matches := citationRe.FindAllStringIndex(line, -1)
	if matches == nil {
		return line
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		precededByBang := start > 0 && line[start-1] == '!'
		followedByParen := end < len(line) && line[end] == '('
		if precededByBang || followedByParen {
			continue
		}
		b.WriteString(line[last:start])
		b.WriteString("<sup>")
		b.WriteString(line[start:end])
		b.WriteString("</sup>")
		last = end
	}
	b.WriteString(line[last:])
	return b.String()
}

// postprocessTranslatedMarkdown polishes translated Markdown for reading:
// bare citation markers become <sup> superscripts and centered figure/table
// captions become a figcaption div. Grounded on original_source's
// text_processing.postprocess_translated_markdown (citation superscripting
// and figcaption formatting only; the "broken table" warning placeholder
// is ReviewAgent's concern, not this function's).
func postprocessTranslatedMarkdown(mdText string) string {
	lines := strings.Split(mdText, "\n")
	result := make([]string, len(lines))

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") && !strings.HasPrefix(trimmed, "```") {
			line = superscriptCitations(line)
		}

		if m := figcaptionFmtRe.FindStringSubmatch(line); m != nil {
			caption := strings.TrimSpace(m[1])
			caption = figcaptionBoldRe.ReplaceAllString(caption, "**$1**")
			line = fmt.Sprintf(`<div class="figcaption">%s</div>`, caption)
		}

		result[i] = line
	}
	return strings.Join(result, "\n")
}
