package ocr

import (
	"regexp"
	"strings"
)

var (
	htmlTableBlockRe = regexp.MustCompile(`(?is)<table[^>]*>.*?</table>`)
	htmlRowRe        = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	htmlCellRe       = regexp.MustCompile(`(?is)<t[dh][^>]*>(.*?)</t[dh]>`)
	htmlTagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRunRe  = regexp.MustCompile(`\s+`)

	divImgRe      = regexp.MustCompile(`(?is)<div[^>]*>\s*<img\s+[^>]*/?\s*>\s*</div>`)
	imgSrcRe      = regexp.MustCompile(`(?is)<img\s+[^>]*src=["']([^"']+)["'][^>]*/?\s*>`)
	imgAltRe      = regexp.MustCompile(`(?i)alt=["']([^"']*)["']`)
	figcaptionRe  = regexp.MustCompile(`(?is)<div[^>]*style=["'][^"']*text-align:\s*center[^"']*["'][^>]*>(.*?)</div>`)
	emptyDivRe    = regexp.MustCompile(`(?i)<div[^>]*>\s*</div>`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	pageCommentRe = regexp.MustCompile(`^\s*<!--\s*Page\s+\d+\s*-->`)
)

// htmlTableToMarkdown converts an HTML <table> fragment into a Markdown
// table, escaping pipe characters and collapsing inner whitespace in each
// cell. Returns html unchanged if no rows/cells are found.
func htmlTableToMarkdown(html string) string {
	rows := htmlRowRe.FindAllStringSubmatch(html, -1)
	if len(rows) == 0 {
		return html
	}

	var mdRows [][]string
	for _, row := range rows {
		cells := htmlCellRe.FindAllStringSubmatch(row[1], -1)
		var cleaned []string
		for _, cell := range cells {
			text := htmlTagRe.ReplaceAllString(cell[1], "")
			text = strings.TrimSpace(text)
			text = strings.ReplaceAll(text, "|", "\\|")
			text = whitespaceRunRe.ReplaceAllString(text, " ")
			cleaned = append(cleaned, text)
		}
		if len(cleaned) > 0 {
			mdRows = append(mdRows, cleaned)
		}
	}
	if len(mdRows) == 0 {
		return html
	}

	maxCols := 0
	for _, row := range mdRows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	for i := range mdRows {
		for len(mdRows[i]) < maxCols {
			mdRows[i] = append(mdRows[i], "")
		}
	}

	lines := make([]string, 0, len(mdRows)+1)
	lines = append(lines, "| "+strings.Join(mdRows[0], " | ")+" |")
	sep := make([]string, maxCols)
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
	for _, row := range mdRows[1:] {
		lines = append(lines, "| "+strings.Join(row, " | ")+" |")
	}
	return strings.Join(lines, "\n")
}

// PreprocessOCRMarkdown normalizes raw OCR Markdown before segmentation:
// HTML tables become Markdown tables, <div>-wrapped <img> tags become
// standard Markdown image syntax, centered caption <div>s become
// blockquotes, leftover empty <div>s are dropped, and runs of blank lines
// collapse to one.
func PreprocessOCRMarkdown(mdText string) string {
	mdText = htmlTableBlockRe.ReplaceAllStringFunc(mdText, func(m string) string {
		return "\n\n" + htmlTableToMarkdown(m) + "\n\n"
	})

	mdText = divImgRe.ReplaceAllStringFunc(mdText, func(m string) string {
		srcMatch := imgSrcRe.FindStringSubmatch(m)
		if srcMatch == nil {
			return m
		}
		src := srcMatch[1]
		alt := "figure"
		if altMatch := imgAltRe.FindStringSubmatch(m); altMatch != nil {
			alt = altMatch[1]
		}
		return "\n\n![" + alt + "](" + src + ")\n\n"
	})

	mdText = figcaptionRe.ReplaceAllStringFunc(mdText, func(m string) string {
		sub := figcaptionRe.FindStringSubmatch(m)
		text := htmlTagRe.ReplaceAllString(sub[1], "")
		text = strings.TrimSpace(text)
		if text == "" {
			return ""
		}
		return "\n\n> " + text + "\n\n"
	})

	mdText = emptyDivRe.ReplaceAllString(mdText, "")
	mdText = blankRunRe.ReplaceAllString(mdText, "\n\n")

	return mdText
}

// StitchOCRParagraphs merges paragraphs split across a "<!-- Page N -->"
// marker when the text before the marker doesn't end in terminal
// punctuation and the text after it doesn't look like a heading.
func StitchOCRParagraphs(ocrMD string) string {
	lines := strings.Split(ocrMD, "\n")
	result := make([]string, 0, len(lines))

	i := 0
	for i < len(lines) {
		line := lines[i]

		if pageCommentRe.MatchString(strings.TrimSpace(line)) {
			if merged, next, ok := tryStitchAcrossPageBreak(result, lines, i); ok {
				result = merged
				i = next
				continue
			}
		}

		result = append(result, line)
		i++
	}

	return strings.Join(result, "\n")
}

func tryStitchAcrossPageBreak(result, lines []string, pageCommentIdx int) ([]string, int, bool) {
	if len(result) == 0 {
		return nil, 0, false
	}

	prevIdx := len(result) - 1
	for prevIdx >= 0 && strings.TrimSpace(result[prevIdx]) == "" {
		prevIdx--
	}
	if prevIdx < 0 {
		return nil, 0, false
	}

	prevLine := strings.TrimRight(result[prevIdx], " \t")
	if prevLine == "" || sentenceEndings.MatchString(prevLine) {
		return nil, 0, false
	}

	j := pageCommentIdx + 1
	for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
		j++
	}
	if j >= len(lines) {
		return nil, 0, false
	}

	nextLine := strings.TrimLeft(lines[j], " \t")
	if headingPattern.MatchString(nextLine) {
		return nil, 0, false
	}

	merged := append([]string{}, result[:prevIdx]...)
	merged = append(merged, prevLine+" "+nextLine)
	return merged, j + 1, true
}

// FixOCRTables repairs ragged Markdown tables in OCR output: a missing
// separator row is inserted after the header, and rows with too few or too
// many cells are padded or truncated to the header's column count.
func FixOCRTables(ocrMD string) string {
	lines := strings.Split(ocrMD, "\n")
	result := make([]string, 0, len(lines))

	i := 0
	for i < len(lines) {
		line := lines[i]
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, "|") && strings.HasSuffix(stripped, "|") && strings.Count(stripped, "|") >= 3 {
			tableLines := []string{line}
			colCount := countNonEmptyCells(stripped)
			i++

			hasSeparator := false
			for i < len(lines) {
				nextStripped := strings.TrimSpace(lines[i])
				if strings.HasPrefix(nextStripped, "|") && strings.HasSuffix(nextStripped, "|") {
					if separatorRowRe.MatchString(nextStripped) {
						hasSeparator = true
					}
					tableLines = append(tableLines, lines[i])
					i++
				} else {
					break
				}
			}

			if !hasSeparator && len(tableLines) >= 2 {
				sepCells := make([]string, colCount)
				for k := range sepCells {
					sepCells[k] = "---"
				}
				separator := "| " + strings.Join(sepCells, " | ") + " |"
				withSep := make([]string, 0, len(tableLines)+1)
				withSep = append(withSep, tableLines[0], separator)
				withSep = append(withSep, tableLines[1:]...)
				tableLines = withSep
			}

			for idx, tline := range tableLines {
				tstripped := strings.TrimSpace(tline)
				if !strings.HasPrefix(tstripped, "|") {
					continue
				}
				cells := strings.Split(tstripped, "|")
				if len(cells) > 0 && strings.TrimSpace(cells[0]) == "" {
					cells = cells[1:]
				}
				if len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
					cells = cells[:len(cells)-1]
				}

				switch {
				case len(cells) < colCount:
					for len(cells) < colCount {
						cells = append(cells, "")
					}
					tableLines[idx] = "| " + joinTrimmedCells(cells) + " |"
				case len(cells) > colCount:
					cells = cells[:colCount]
					tableLines[idx] = "| " + joinTrimmedCells(cells) + " |"
				}
			}

			result = append(result, tableLines...)
			continue
		}

		result = append(result, line)
		i++
	}

	return strings.Join(result, "\n")
}

func joinTrimmedCells(cells []string) string {
	trimmed := make([]string, len(cells))
	for i, c := range cells {
		trimmed[i] = strings.TrimSpace(c)
	}
	return strings.Join(trimmed, " | ")
}
