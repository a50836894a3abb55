package translation

import (
	"context"
	"strings"
	"testing"

	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperTranslator struct{}

func (upperTranslator) AnalyzeForPromptProfile(context.Context, string) (string, error) { return "{}", nil }
func (upperTranslator) TranslateSegment(_ context.Context, _, segment string) (string, error) {
	return strings.ToUpper(segment), nil
}
func (upperTranslator) ExtractTerms(context.Context, string, string) (string, error) { return "[]", nil }
func (upperTranslator) ExtractMetadata(context.Context, string) (string, error)      { return "{}", nil }

func TestTranslateParsedPDF_TranslatesBlocksAndAppendsTables(t *testing.T) {
	actx := agent.NewAgentContext("t1", "paper.pdf", nil, nil, false)
	actx.ParsedPDF = &agent.ParsedDocument{
		Pages: []agent.Page{
			{
				Number: 1,
				Blocks: []agent.TextBlock{{Text: "hello world", Y: 1}},
				Tables: []string{"| a | b |\n| --- | --- |\n| 1 | 2 |"},
			},
		},
	}

	md, err := translateParsedPDF(context.Background(), actx, upperTranslator{}, "prompt", nil)

	require.NoError(t, err)
	assert.Contains(t, md, "HELLO WORLD")
	assert.Contains(t, md, "| a | b |")
}

func TestTranslateOCRMarkdown_TranslatesTextSegmentsOnly(t *testing.T) {
	actx := agent.NewAgentContext("t1", "paper.pdf", nil, nil, false)
	actx.OCRMarkdown = "a paragraph of text\n\n| a | b |\n| --- | --- |\n| 1 | 2 |"

	md, err := translateOCRMarkdown(context.Background(), actx, upperTranslator{}, "prompt", nil)

	require.NoError(t, err)
	assert.Contains(t, md, "A PARAGRAPH OF TEXT")
	assert.Contains(t, md, "| a | b |")
}

func TestTranslateOCRMarkdown_ProtectsLatexAcrossTranslation(t *testing.T) {
	actx := agent.NewAgentContext("t1", "paper.pdf", nil, nil, false)
	actx.OCRMarkdown = "the formula $x^2$ holds for all x in this long enough paragraph of prose"

	md, err := translateOCRMarkdown(context.Background(), actx, upperTranslator{}, "prompt", nil)

	require.NoError(t, err)
	assert.Contains(t, md, "$x^2$")
}

func TestMergeTextBlocks_KeepsFirstBlockPosition(t *testing.T) {
	blocks := []agent.TextBlock{{Text: "a", Y: 5}, {Text: "b", Y: 9}}

	merged := mergeTextBlocks(blocks, 1000)

	assert.Equal(t, 5.0, merged[0].Y)
}
