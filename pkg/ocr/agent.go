package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/docflow/pkg/agent"
)

// Agent is OCRAgent: it analyzes the uploaded document, picks the LLM
// (native-text) or OCR (scanned) pipeline, runs it, and leaves
// AgentContext holding either ParsedPDF or OCRMarkdown/OCRImages plus
// PipelineType for downstream agents to branch on.
type Agent struct {
	parser agent.DocumentParser
	ocrSvc agent.OCRService
}

// New creates an OCRAgent. Either collaborator may be nil; the
// corresponding pipeline then fails fast with a descriptive error if
// selected.
func New(parser agent.DocumentParser, ocrSvc agent.OCRService) *Agent {
	return &Agent{parser: parser, ocrSvc: ocrSvc}
}

func (a *Agent) Name() string { return "ocr" }
func (a *Agent) Description() string {
	return "parses or OCRs the source document, stitches cross-page content, and repairs tables"
}

// Run implements agent.Agent. An auto-fix rerun that already carries
// parsed/OCR output from a prior attempt skips straight through, since
// PipelineType and its associated data are reused verbatim.
func (a *Agent) Run(ctx context.Context, actx *agent.AgentContext) (*agent.AgentContext, error) {
	if actx.PipelineType != "" && (actx.ParsedPDF != nil || actx.OCRMarkdown != "") {
		actx.Publish("ocr", "skip", 10, map[string]any{
			"message": "auto-fix rerun: reusing existing parsed document",
		})
		return actx, nil
	}

	if err := actx.Cancellation.Check(); err != nil {
		return actx, err
	}

	start := time.Now()
	actx.Publish("ocr", "analysis", 5, map[string]any{"message": "analyzing document characteristics"})
	analysis := a.analyzeDocument(ctx, actx)
	actx.Publish("ocr", "analysis", 8, map[string]any{
		"doc_type":              analysis.DocType,
		"language_distribution": analysis.LanguageDistribution,
		"formula_density":       analysis.FormulaDensity,
		"table_count":           analysis.TableCount,
		"message": fmt.Sprintf("document analysis: %s, formula density %.4f, %d tables",
			analysis.DocType, analysis.FormulaDensity, analysis.TableCount),
	})

	if err := actx.Cancellation.Check(); err != nil {
		return actx, err
	}

	pipelineType := a.selectPipeline(ctx, actx, analysis)
	actx.PipelineType = pipelineType
	actx.Publish("ocr", "pipeline_selection", 10, map[string]any{
		"pipeline": pipelineType,
		"message":  fmt.Sprintf("selected pipeline: %s", pipelineType),
	})

	if err := actx.Cancellation.Check(); err != nil {
		return actx, err
	}

	var err error
	if pipelineType == "ocr" {
		err = a.runOCRPipeline(ctx, actx)
	} else {
		err = a.runLLMParse(ctx, actx)
	}
	if err != nil {
		return actx, fmt.Errorf("ocr: %w", err)
	}

	actx.Publish("ocr", "complete", 25, map[string]any{
		"message": fmt.Sprintf("document parsing and preprocessing complete (%.1fs)", time.Since(start).Seconds()),
	})
	return actx, nil
}

func (a *Agent) analyzeDocument(ctx context.Context, actx *agent.AgentContext) DocumentAnalysis {
	var extractedText string
	if a.parser != nil {
		text, err := a.parser.ExtractText(ctx, actx.FileContent)
		if err != nil {
			slog.Warn("ocr: document text extraction failed, defaulting to scanned", "task_id", actx.TaskID, "error", err)
		} else {
			extractedText = text
		}
	}
	return AnalyzeDocument(extractedText)
}

// selectPipeline implements the four-branch policy: an explicit OCR
// request wins when OCR is available (and falls back to the LLM path with
// a warning otherwise); absent that, a native-text document always uses
// the LLM path, and a scanned document uses OCR when available, otherwise
// falls back to the LLM path.
func (a *Agent) selectPipeline(ctx context.Context, actx *agent.AgentContext, analysis DocumentAnalysis) string {
	ocrAvailable := a.ocrSvc != nil && a.ocrSvc.Available(ctx)

	if actx.EnableOCR {
		if ocrAvailable {
			return "ocr"
		}
		slog.Warn("ocr: OCR requested but unavailable, falling back to llm", "task_id", actx.TaskID)
		return "llm"
	}

	if analysis.DocType == "native" {
		return "llm"
	}
	if ocrAvailable {
		return "ocr"
	}
	return "llm"
}

func (a *Agent) runLLMParse(ctx context.Context, actx *agent.AgentContext) error {
	if a.parser == nil {
		return fmt.Errorf("llm pipeline selected but no document parser is configured")
	}

	actx.Publish("ocr", "parsing", 12, map[string]any{"message": "parsing document"})
	parsed, err := a.parser.Parse(ctx, actx.FileContent)
	if err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	parsed.Pages = StitchCrossPageBlocks(parsed.Pages)
	parsed.Pages = MergeCrossPageTables(parsed.Pages)
	actx.ParsedPDF = parsed

	actx.Publish("ocr", "parsing", 22, map[string]any{
		"message": fmt.Sprintf("document parsed: %d pages, cross-page content stitched", len(parsed.Pages)),
	})
	return nil
}

func (a *Agent) runOCRPipeline(ctx context.Context, actx *agent.AgentContext) error {
	if a.ocrSvc == nil {
		return fmt.Errorf("ocr pipeline selected but no OCR service is configured")
	}

	actx.Publish("ocr", "ocr_recognizing", 12, map[string]any{"message": "running OCR recognition"})
	md, images, err := a.ocrSvc.Recognize(ctx, actx.FileContent, actx.Filename)
	if err != nil {
		return fmt.Errorf("OCR recognition: %w", err)
	}

	actx.Publish("ocr", "preprocessing", 18, map[string]any{
		"message": fmt.Sprintf("OCR complete: %d chars, preprocessing", len(md)),
	})

	if err := actx.Cancellation.Check(); err != nil {
		return err
	}

	processed := PreprocessOCRMarkdown(md)
	processed = StitchOCRParagraphs(processed)
	processed = FixOCRTables(processed)

	actx.OCRMarkdown = processed
	if images == nil {
		images = map[string][]byte{}
	}
	actx.OCRImages = images

	actx.Publish("ocr", "preprocessing", 22, map[string]any{
		"message": fmt.Sprintf("preprocessing complete: %d chars (stitched, tables repaired)", len(processed)),
	})
	return nil
}
