package ocr

import (
	"regexp"
	"strings"

	"github.com/codeready-toolchain/docflow/pkg/agent"
)

// sentenceEndings matches terminal punctuation (English + Chinese) at the
// end of a line; its absence is the trigger for cross-page stitching.
var sentenceEndings = regexp.MustCompile(`[.!?;:。！？；：\]\)）」』】]$`)

// headingPattern matches lines that look like a heading rather than a
// continuation of a truncated paragraph.
var headingPattern = regexp.MustCompile(`^(?:#{1,6}\s|[A-Z][A-Z\s]{5,}$|\d+[.)]\s)`)

// separatorRowRe matches a full Markdown table separator row, e.g. "|---|---|".
var separatorRowRe = regexp.MustCompile(`^\|[\s\-:|]+\|$`)

// StitchCrossPageBlocks merges a page's trailing text block into the next
// page's leading text block when the heuristics indicate the paragraph was
// truncated by a page break: the tail doesn't end in terminal punctuation,
// the head doesn't look like a heading, and the two blocks' font sizes are
// close enough (ratio <= 1.15) to plausibly be the same paragraph.
func StitchCrossPageBlocks(pages []agent.Page) []agent.Page {
	for i := 0; i < len(pages)-1; i++ {
		tailIdx := lastNonEmptyBlock(pages[i].Blocks)
		headIdx := firstNonEmptyBlock(pages[i+1].Blocks)
		if tailIdx == -1 || headIdx == -1 {
			continue
		}

		tailText := strings.TrimRight(pages[i].Blocks[tailIdx].Text, " \t\n")
		headText := strings.TrimLeft(pages[i+1].Blocks[headIdx].Text, " \t\n")

		if sentenceEndings.MatchString(tailText) {
			continue
		}
		if headingPattern.MatchString(headText) {
			continue
		}

		tailFont := pages[i].Blocks[tailIdx].FontSize
		headFont := pages[i+1].Blocks[headIdx].FontSize
		if tailFont > 0 && headFont > 0 {
			ratio := max(tailFont, headFont) / min(tailFont, headFont)
			if ratio > 1.15 {
				continue
			}
		}

		pages[i].Blocks[tailIdx].Text = tailText + " " + headText
		pages[i+1].Blocks = append(pages[i+1].Blocks[:headIdx], pages[i+1].Blocks[headIdx+1:]...)
	}
	return pages
}

func lastNonEmptyBlock(blocks []agent.TextBlock) int {
	for i := len(blocks) - 1; i >= 0; i-- {
		if strings.TrimSpace(blocks[i].Text) != "" {
			return i
		}
	}
	return -1
}

func firstNonEmptyBlock(blocks []agent.TextBlock) int {
	for i, b := range blocks {
		if strings.TrimSpace(b.Text) != "" {
			return i
		}
	}
	return -1
}

// MergeCrossPageTables joins a page's trailing table with the next page's
// leading table when they share a column count and the next table has no
// separator row of its own (i.e. it isn't an independent table with its
// own header).
func MergeCrossPageTables(pages []agent.Page) []agent.Page {
	for i := 0; i < len(pages)-1; i++ {
		currTables := pages[i].Tables
		nextTables := pages[i+1].Tables
		if len(currTables) == 0 || len(nextTables) == 0 {
			continue
		}

		tailTable := currTables[len(currTables)-1]
		headTable := nextTables[0]

		tailCols := countColumns(tailTable)
		headCols := countColumns(headTable)
		if tailCols == 0 || tailCols != headCols {
			continue
		}

		headLines := strings.Split(strings.TrimSpace(headTable), "\n")
		if len(headLines) >= 2 && separatorRowRe.MatchString(strings.TrimSpace(headLines[1])) {
			continue
		}

		merged := strings.TrimRight(tailTable, " \t\n") + "\n" + strings.TrimSpace(headTable)
		pages[i].Tables[len(currTables)-1] = merged
		pages[i+1].Tables = nextTables[1:]
	}
	return pages
}

// countColumns counts the non-empty pipe-delimited cells of a Markdown
// table's first line.
func countColumns(tableMD string) int {
	trimmed := strings.TrimSpace(tableMD)
	if trimmed == "" {
		return 0
	}
	firstLine := strings.Split(trimmed, "\n")[0]
	if !strings.HasPrefix(firstLine, "|") {
		return 0
	}
	return countNonEmptyCells(firstLine)
}

func countNonEmptyCells(line string) int {
	count := 0
	for _, cell := range strings.Split(line, "|") {
		if strings.TrimSpace(cell) != "" {
			count++
		}
	}
	return count
}
