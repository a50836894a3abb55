package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/codeready-toolchain/docflow/pkg/eventbus"
)

// AgentContext is the sole mutable object shared across agents for one
// translation task. Fields are populated in strict phase order by the
// agent that owns them (see SPEC_FULL.md §5); readers never mutate a
// field they don't own. Concurrent readers/writers (per-page translation
// goroutines) are protected by mu.
type AgentContext struct {
	TaskID      string
	Filename    string
	FileContent []byte

	EventBus eventbus.Publisher

	EnableOCR bool

	// Set by OCRAgent.
	PipelineType string // "", "llm", "ocr"
	ParsedPDF    *ParsedDocument
	OCRMarkdown  string
	OCRImages    map[string][]byte

	// Written by TerminologyAgent; read by TranslationAgent and ReviewAgent.
	Glossary map[string]string

	// Set by TranslationAgent; reused verbatim on auto-fix reruns.
	PromptProfile *PromptProfile

	// Produced by TranslationAgent; consumed by ReviewAgent and IndexAgent.
	TranslatedMD string
	Images       map[string][]byte

	QualityReport *QualityReport

	PaperMetadata map[string]any

	TranslationID string

	Cancellation *CancellationToken

	// Trace holds {agent, stage, startedAt, endedAt, err} entries appended
	// via RecordTrace. Additive audit telemetry, not part of the external
	// contract; no phase in this module appends to it, and meta.json does
	// not persist it.
	Trace []TraceEntry

	mu sync.RWMutex
}

// TraceEntry is one phase's start/end/outcome record.
type TraceEntry struct {
	Agent     string
	Stage     string
	StartedAt time.Time
	EndedAt   time.Time
	Err       error
}

// NewAgentContext builds the initial context for one translation task.
// taskID must already be assigned by the caller (workflow entry generates
// an 8-hex-char id when the caller doesn't supply one).
func NewAgentContext(taskID, filename string, fileContent []byte, bus eventbus.Publisher, enableOCR bool) *AgentContext {
	return &AgentContext{
		TaskID:       taskID,
		Filename:     filename,
		FileContent:  fileContent,
		EventBus:     bus,
		EnableOCR:    enableOCR,
		Glossary:     make(map[string]string),
		Images:       make(map[string][]byte),
		OCRImages:    make(map[string][]byte),
		Cancellation: NewCancellationToken(),
	}
}

// Publish emits a progress event for this task on the shared EventBus.
// A nil EventBus (unit tests) makes Publish a no-op.
func (c *AgentContext) Publish(agentName, stage string, progress int, detail map[string]any) {
	if c.EventBus == nil {
		return
	}
	c.EventBus.Publish(c.TaskID, eventbus.Event{
		Agent:    agentName,
		Stage:    stage,
		Progress: progress,
		Detail:   detail,
	})
}

// RecordTrace appends a phase trace entry. Safe for concurrent use.
func (c *AgentContext) RecordTrace(entry TraceEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Trace = append(c.Trace, entry)
}

// MergeGlossary folds newEntries into ctx.Glossary. Existing translations
// win on conflict — the glossary is monotonic within one run: entries may
// be added, but an existing entry is never silently retranslated.
func (c *AgentContext) MergeGlossary(newEntries map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for en, zh := range newEntries {
		if _, exists := c.Glossary[en]; !exists {
			c.Glossary[en] = zh
		}
	}
}

// GlossarySnapshot returns a shallow copy of the current glossary, safe to
// read without holding the context's lock afterward.
func (c *AgentContext) GlossarySnapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.Glossary))
	for k, v := range c.Glossary {
		out[k] = v
	}
	return out
}

// PutImage stores a page/figure image under the given name. Safe for
// concurrent use by parallel page-translation goroutines.
func (c *AgentContext) PutImage(name string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Images[name] = data
}

// CancellationToken is a lightweight, scoped cancellation signal for one
// AgentContext. check() is surfaced as Check() returning ErrCancelled;
// agents call it on entry and between meaningful sub-steps (between
// pages, between retries, around each LLM call).
type CancellationToken struct {
	flag   atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCancellationToken creates a token backed by its own context.Context,
// so callers can pass token.Context() straight into context-aware clients.
func NewCancellationToken() *CancellationToken {
	ctx, cancel := context.WithCancel(context.Background())
	return &CancellationToken{ctx: ctx, cancel: cancel}
}

// Cancel sets the cancellation flag and cancels the underlying context.
func (t *CancellationToken) Cancel() {
	t.flag.Store(true)
	t.cancel()
}

// IsCancelled reports whether Cancel has been called.
func (t *CancellationToken) IsCancelled() bool {
	return t.flag.Load()
}

// Check returns ErrCancelled if the token has been cancelled, nil
// otherwise. Every agent must call this on entry and between sub-steps.
func (t *CancellationToken) Check() error {
	if t.flag.Load() {
		return ErrCancelled
	}
	return nil
}

// Context returns a context.Context that is cancelled when the token is,
// suitable for passing to context-aware LLM/OCR/embedding clients.
func (t *CancellationToken) Context() context.Context {
	return t.ctx
}

// --- Shared data types (spec.md §3) ---

// ParsedDocument is the structured output of a DocumentParser on the LLM
// (text-native) pipeline: an ordered list of pages, each with ordered text
// blocks and any tables extracted as Markdown.
type ParsedDocument struct {
	Pages []Page
}

// Page is one page of a ParsedDocument.
type Page struct {
	Number int
	Blocks []TextBlock
	Tables []string // each entry already rendered as a Markdown table
}

// TextBlock is one ordered text fragment on a page, carrying enough layout
// metadata for cross-page stitching heuristics.
type TextBlock struct {
	Text     string
	Y        float64
	FontSize float64
	Bold     bool
}

// PromptProfile is the rendered translation prompt plus its inputs. Set by
// TranslationAgent on the first attempt and reused verbatim on auto-fix
// reruns. Terminology is insertion-ordered (the order the LLM or glossary
// merge produced the terms in) so the rendered prompt's term list is
// deterministic across runs instead of depending on Go's randomized map
// iteration order.
type PromptProfile struct {
	Domain string `json:"domain"`
	// Terminology maps English -> Chinese, or English -> English when
	// KeepEnglish, preserving insertion order.
	Terminology    *orderedmap.OrderedMap[string, string] `json:"terminology"`
	KeepEnglish    []string                               `json:"keep_english"`
	RenderedPrompt string                                 `json:"generated_prompt"`
}

// QualityReport is ReviewAgent's deterministic assessment of translated_md.
type QualityReport struct {
	Score          int           `json:"score"`
	TermIssues     []TermIssue   `json:"term_issues,omitempty"`
	FormatIssues   []FormatIssue `json:"format_issues,omitempty"`
	Untranslated   []string      `json:"untranslated,omitempty"`
	Suggestions    []string      `json:"suggestions,omitempty"`
	GeneratedAtUTC string        `json:"generated_at_utc"` // ISO-8601 UTC timestamp
}

// TermIssue flags inconsistent terminology usage.
type TermIssue struct {
	EnglishTerm string   `json:"english_term"`
	Observed    []string `json:"observed"`
	Locations   []string `json:"locations"`
	Suggested   string   `json:"suggested"`
}

// FormatIssueKind enumerates the closed set of structural defects
// ReviewAgent detects.
type FormatIssueKind string

const (
	FormatIssueBrokenTable     FormatIssueKind = "broken_table"
	FormatIssueMissingFormula  FormatIssueKind = "missing_formula"
	FormatIssueBrokenHeading   FormatIssueKind = "broken_heading"
	FormatIssueMissingImage    FormatIssueKind = "missing_image"
)

// FormatIssue is one structural defect found by ReviewAgent.
type FormatIssue struct {
	Kind        FormatIssueKind `json:"kind"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
}

// --- External collaborator ports (concrete implementations out of scope) ---

// DocumentParser extracts structured text/tables from a native (text)
// PDF. Concrete implementations (pdf parsing libraries) are out of scope.
type DocumentParser interface {
	// ExtractText returns a best-effort plain-text rendering, used for
	// the 200-character threshold check and terminology preparation.
	ExtractText(ctx context.Context, fileContent []byte) (string, error)
	// Parse returns the full structured document for the LLM pipeline.
	Parse(ctx context.Context, fileContent []byte) (*ParsedDocument, error)
}

// OCRService produces Markdown + extracted images from scanned PDFs.
// Concrete implementations (OCR providers) are out of scope.
type OCRService interface {
	Available(ctx context.Context) bool
	Recognize(ctx context.Context, fileContent []byte, filename string) (markdown string, images map[string][]byte, err error)
}

// TranslationService is the abstracted LLM used for prompt generation and
// page/segment translation. Concrete provider implementations are out of
// scope; TranslationAgent depends only on this interface.
type TranslationService interface {
	// AnalyzeForPromptProfile inspects the document abstract/sample text
	// and returns the raw LLM response for pkg/promptprofile to parse
	// leniently (code fences, surrounding prose tolerated).
	AnalyzeForPromptProfile(ctx context.Context, metaPrompt string) (string, error)
	// TranslateSegment translates one page/segment of text to Chinese
	// under the given rendered prompt.
	TranslateSegment(ctx context.Context, prompt, segment string) (string, error)
	// ExtractTerms returns a raw JSON array response for TerminologyAgent's
	// extract action; parsing/tolerance lives in pkg/llmjson.
	ExtractTerms(ctx context.Context, text, domain string) (string, error)
	// ExtractMetadata returns a raw JSON object response for IndexAgent.
	ExtractMetadata(ctx context.Context, sample string) (string, error)
}

// EmbeddingService computes a vector embedding for indexed paper text.
// Concrete implementations are out of scope; IndexAgent treats a nil
// service (or any error) as "no embedding available".
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProviderError is returned by TranslationService/OCRService/EmbeddingService
// implementations to distinguish transient (retryable) from permanent
// failures, per SPEC_FULL.md §8.
type ProviderError struct {
	Message     string
	IsRecoverable bool
	Cause       error
}

func (e *ProviderError) Error() string { return e.Message }
func (e *ProviderError) Unwrap() error { return e.Cause }

// Recoverable reports whether the caller should retry.
func (e *ProviderError) Recoverable() bool { return e.IsRecoverable }
