package ocr

import (
	"context"
	"errors"
	"testing"

	agentpkg "github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	text       string
	textErr    error
	parsed     *agentpkg.ParsedDocument
	parseErr   error
}

func (s *stubParser) ExtractText(_ context.Context, _ []byte) (string, error) {
	return s.text, s.textErr
}

func (s *stubParser) Parse(_ context.Context, _ []byte) (*agentpkg.ParsedDocument, error) {
	return s.parsed, s.parseErr
}

type stubOCRService struct {
	available bool
	md        string
	images    map[string][]byte
	err       error
}

func (s *stubOCRService) Available(_ context.Context) bool { return s.available }

func (s *stubOCRService) Recognize(_ context.Context, _ []byte, _ string) (string, map[string][]byte, error) {
	return s.md, s.images, s.err
}

func newTestContext() *agentpkg.AgentContext {
	return agentpkg.NewAgentContext("t1", "paper.pdf", []byte("dummy"), nil, false)
}

func TestRun_NativeTextDocumentUsesLLMPipeline(t *testing.T) {
	longText := make([]byte, 0, 300)
	for range 300 {
		longText = append(longText, 'a')
	}
	parser := &stubParser{
		text:   string(longText),
		parsed: &agentpkg.ParsedDocument{Pages: []agentpkg.Page{{Number: 1, Blocks: []agentpkg.TextBlock{{Text: "hello"}}}}},
	}
	a := New(parser, &stubOCRService{available: true})
	actx := newTestContext()

	out, err := a.Run(context.Background(), actx)

	require.NoError(t, err)
	assert.Equal(t, "llm", out.PipelineType)
	assert.NotNil(t, out.ParsedPDF)
}

func TestRun_ScannedDocumentWithOCRAvailableUsesOCRPipeline(t *testing.T) {
	parser := &stubParser{text: "short"}
	ocrSvc := &stubOCRService{available: true, md: "recognized text", images: map[string][]byte{"p1.png": {1, 2}}}
	a := New(parser, ocrSvc)
	actx := newTestContext()

	out, err := a.Run(context.Background(), actx)

	require.NoError(t, err)
	assert.Equal(t, "ocr", out.PipelineType)
	assert.Equal(t, "recognized text", out.OCRMarkdown)
	assert.Equal(t, map[string][]byte{"p1.png": {1, 2}}, out.OCRImages)
}

func TestRun_ScannedDocumentWithoutOCRFallsBackToLLM(t *testing.T) {
	parser := &stubParser{text: "short", parsed: &agentpkg.ParsedDocument{}}
	a := New(parser, &stubOCRService{available: false})
	actx := newTestContext()

	out, err := a.Run(context.Background(), actx)

	require.NoError(t, err)
	assert.Equal(t, "llm", out.PipelineType)
}

func TestRun_ExplicitOCRRequestWinsWhenAvailable(t *testing.T) {
	longText := ""
	for range 300 {
		longText += "a"
	}
	parser := &stubParser{text: longText}
	ocrSvc := &stubOCRService{available: true, md: "ocr text"}
	a := New(parser, ocrSvc)
	actx := newTestContext()
	actx.EnableOCR = true

	out, err := a.Run(context.Background(), actx)

	require.NoError(t, err)
	assert.Equal(t, "ocr", out.PipelineType)
}

func TestRun_ExplicitOCRRequestFallsBackWhenUnavailable(t *testing.T) {
	parser := &stubParser{text: "short", parsed: &agentpkg.ParsedDocument{}}
	a := New(parser, &stubOCRService{available: false})
	actx := newTestContext()
	actx.EnableOCR = true

	out, err := a.Run(context.Background(), actx)

	require.NoError(t, err)
	assert.Equal(t, "llm", out.PipelineType)
}

func TestRun_AutoFixRerunSkipsReparsing(t *testing.T) {
	parser := &stubParser{textErr: errors.New("should not be called")}
	a := New(parser, &stubOCRService{})
	actx := newTestContext()
	actx.PipelineType = "ocr"
	actx.OCRMarkdown = "already parsed"

	out, err := a.Run(context.Background(), actx)

	require.NoError(t, err)
	assert.Equal(t, "already parsed", out.OCRMarkdown)
}

func TestRun_OCRRecognitionFailureIsFatal(t *testing.T) {
	parser := &stubParser{text: "short"}
	a := New(parser, &stubOCRService{available: true, err: errors.New("ocr provider down")})
	actx := newTestContext()

	_, err := a.Run(context.Background(), actx)

	assert.Error(t, err)
}

func TestRun_LLMParseFailureIsFatal(t *testing.T) {
	longText := ""
	for range 300 {
		longText += "a"
	}
	parser := &stubParser{text: longText, parseErr: errors.New("corrupt pdf")}
	a := New(parser, &stubOCRService{})
	actx := newTestContext()

	_, err := a.Run(context.Background(), actx)

	assert.Error(t, err)
}

func TestRun_RespectsCancellationBeforeStarting(t *testing.T) {
	a := New(&stubParser{}, &stubOCRService{})
	actx := newTestContext()
	actx.Cancellation.Cancel()

	_, err := a.Run(context.Background(), actx)

	assert.ErrorIs(t, err, agentpkg.ErrCancelled)
}
