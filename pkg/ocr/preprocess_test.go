package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLTableToMarkdown_ConvertsRowsAndEscapesPipes(t *testing.T) {
	html := `<table><tr><th>Name</th><th>Value</th></tr><tr><td>a|b</td><td>2</td></tr></table>`

	md := htmlTableToMarkdown(html)

	assert.Contains(t, md, "| Name | Value |")
	assert.Contains(t, md, "| --- | --- |")
	assert.Contains(t, md, `a\|b`)
}

func TestHTMLTableToMarkdown_ReturnsInputWhenNoRows(t *testing.T) {
	html := "<table></table>"

	assert.Equal(t, html, htmlTableToMarkdown(html))
}

func TestPreprocessOCRMarkdown_ConvertsHTMLTable(t *testing.T) {
	md := `before <table><tr><td>x</td></tr></table> after`

	out := PreprocessOCRMarkdown(md)

	assert.Contains(t, out, "| x |")
	assert.NotContains(t, out, "<table>")
}

func TestPreprocessOCRMarkdown_ConvertsDivImgToMarkdownImage(t *testing.T) {
	md := `<div><img src="fig1.png" alt="Figure 1" /></div>`

	out := PreprocessOCRMarkdown(md)

	assert.Contains(t, out, "![Figure 1](fig1.png)")
}

func TestPreprocessOCRMarkdown_ConvertsCenteredCaptionToBlockquote(t *testing.T) {
	md := `<div style="text-align: center;">Figure 1. A caption.</div>`

	out := PreprocessOCRMarkdown(md)

	assert.Contains(t, out, "> Figure 1. A caption.")
}

func TestPreprocessOCRMarkdown_DropsEmptyDivsAndCollapsesBlankLines(t *testing.T) {
	md := "para one\n\n\n\n<div></div>\n\npara two"

	out := PreprocessOCRMarkdown(md)

	assert.NotContains(t, out, "<div>")
	assert.NotContains(t, out, "\n\n\n")
}

func TestStitchOCRParagraphs_MergesAcrossPageBreak(t *testing.T) {
	md := "This sentence continues\n<!-- Page 2 -->\non the next page."

	out := StitchOCRParagraphs(md)

	assert.Contains(t, out, "This sentence continues on the next page.")
	assert.NotContains(t, out, "<!-- Page 2 -->")
}

func TestStitchOCRParagraphs_KeepsMarkerWhenPreviousLineEndsSentence(t *testing.T) {
	md := "This sentence is done.\n<!-- Page 2 -->\nNew paragraph starts here."

	out := StitchOCRParagraphs(md)

	assert.Contains(t, out, "<!-- Page 2 -->")
}

func TestStitchOCRParagraphs_KeepsMarkerWhenNextLineIsHeading(t *testing.T) {
	md := "Unfinished line\n<!-- Page 2 -->\n## Section Two"

	out := StitchOCRParagraphs(md)

	assert.Contains(t, out, "<!-- Page 2 -->")
}

func TestFixOCRTables_InsertsMissingSeparatorRow(t *testing.T) {
	md := "| a | b |\n| 1 | 2 |"

	out := FixOCRTables(md)

	assert.Contains(t, out, "| --- | --- |")
}

func TestFixOCRTables_PadsShortRows(t *testing.T) {
	md := "| a | b | c |\n| --- | --- | --- |\n| 1 | 2 |"

	out := FixOCRTables(md)

	assert.Contains(t, out, "| 1 | 2 |  |")
}

func TestFixOCRTables_TruncatesLongRows(t *testing.T) {
	md := "| a | b |\n| --- | --- |\n| 1 | 2 | 3 |"

	out := FixOCRTables(md)

	assert.Contains(t, out, "| 1 | 2 |")
	assert.NotContains(t, out, "| 1 | 2 | 3 |")
}
