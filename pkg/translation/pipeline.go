package translation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/codeready-toolchain/docflow/pkg/agent"
)

// translateParsedPDF translates a native (text) document page-by-page: on
// each page, adjacent short text blocks are merged for better translation
// context, blocks are translated concurrently, and the page's table
// Markdown is appended after its text. Grounded on original_source's
// llm_pipeline.py.
func translateParsedPDF(ctx context.Context, actx *agent.AgentContext, llm agent.TranslationService, prompt string, onProgress func(done, total int)) (string, error) {
	pages := actx.ParsedPDF.Pages
	totalPages := len(pages)

	for pageIdx := range pages {
		if err := actx.Cancellation.Check(); err != nil {
			return "", err
		}

		merged := mergeTextBlocks(pages[pageIdx].Blocks, defaultMergeThreshold)

		tasks := make([]func() error, len(merged))
		for i := range merged {
			i := i
			tasks[i] = func() error {
				if err := actx.Cancellation.Check(); err != nil {
					return err
				}
				translated, err := llm.TranslateSegment(ctx, prompt, merged[i].Text)
				if err != nil {
					return err
				}
				merged[i].Text = translated
				return nil
			}
		}
		if err := runConcurrent(agent.PageTranslationConcurrency, tasks); err != nil {
			return "", fmt.Errorf("translating page %d: %w", pageIdx+1, err)
		}

		pages[pageIdx].Blocks = merged
		if onProgress != nil {
			onProgress(pageIdx+1, totalPages)
		}
	}

	md := buildMarkdownFromPages(pages)
	return postprocessTranslatedMarkdown(md), nil
}

// mergeTextBlocks combines adjacent text blocks under maxChars characters
// into one, keeping the first block's position and the larger font size.
// Grounded on original_source's text_processing.merge_text_blocks.
func mergeTextBlocks(blocks []agent.TextBlock, maxChars int) []agent.TextBlock {
	if len(blocks) == 0 {
		return nil
	}
	merged := make([]agent.TextBlock, 0, len(blocks))
	current := blocks[0]
	for _, b := range blocks[1:] {
		if len(current.Text)+len(b.Text) < maxChars {
			current.Text += "\n\n" + b.Text
			if b.FontSize > current.FontSize {
				current.FontSize = b.FontSize
			}
		} else {
			merged = append(merged, current)
			current = b
		}
	}
	merged = append(merged, current)
	return merged
}

// buildMarkdownFromPages renders parsed pages (blocks ordered by vertical
// position, tables appended after text) into one Markdown document.
func buildMarkdownFromPages(pages []agent.Page) string {
	var parts []string
	for _, page := range pages {
		blocks := append([]agent.TextBlock(nil), page.Blocks...)
		sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Y < blocks[j].Y })

		var pageParts []string
		for _, b := range blocks {
			if strings.TrimSpace(b.Text) != "" {
				pageParts = append(pageParts, b.Text)
			}
		}
		pageParts = append(pageParts, page.Tables...)
		if len(pageParts) > 0 {
			parts = append(parts, strings.Join(pageParts, "\n\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}

// translateOCRMarkdown splits OCR Markdown into text/non-text segments and
// translates only the text segments concurrently, protecting inline LaTeX
// formulas across the translation call. Grounded on original_source's
// ocr_pipeline.py.
func translateOCRMarkdown(ctx context.Context, actx *agent.AgentContext, llm agent.TranslationService, prompt string, onProgress func(done, total int)) (string, error) {
	segments := splitMDSegments(actx.OCRMarkdown, defaultMergeThreshold)

	var textIdx []int
	for i, seg := range segments {
		if seg.Kind == segmentText {
			textIdx = append(textIdx, i)
		}
	}

	var progressMu sync.Mutex
	done := 0
	tasks := make([]func() error, len(textIdx))
	for k, idx := range textIdx {
		idx := idx
		tasks[k] = func() error {
			if err := actx.Cancellation.Check(); err != nil {
				return err
			}
			protected, placeholders := protectInlineLatex(segments[idx].Content)
			translated, err := llm.TranslateSegment(ctx, prompt, protected)
			if err != nil {
				return err
			}
			if len(placeholders) > 0 {
				translated = restoreInlineLatex(translated, placeholders)
			}
			segments[idx].Content = translated
			if onProgress != nil {
				progressMu.Lock()
				done++
				onProgress(done, len(textIdx))
				progressMu.Unlock()
			}
			return nil
		}
	}

	if err := runConcurrent(agent.PageTranslationConcurrency, tasks); err != nil {
		return "", fmt.Errorf("translating OCR segments: %w", err)
	}

	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.Content
	}
	return postprocessTranslatedMarkdown(strings.Join(parts, "\n\n")), nil
}
