// Package translationstore persists one translation task's artifacts to
// the on-disk Translation/ tree: translated Markdown, the optional raw
// OCR Markdown, extracted images, quality report, and an append-only
// index of every translation performed. Grounded on spec.md §6's layout
// and on the teacher's file-per-entity persistence convention already
// used by pkg/glossary.
package translationstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/codeready-toolchain/docflow/pkg/agent"
)

// IndexEntry is one row of Translation/index.json, newest first.
type IndexEntry struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
	HasOCR      bool   `json:"has_ocr"`
}

type indexFile struct {
	Entries []IndexEntry `json:"entries"`
}

// Meta is one translation's Translation/<id>/meta.json.
type Meta struct {
	ID            string               `json:"id"`
	Filename      string               `json:"filename"`
	DisplayName   string               `json:"display_name"`
	CreatedAt     string               `json:"created_at"`
	HasOCR        bool                 `json:"has_ocr"`
	PromptProfile *agent.PromptProfile `json:"prompt_profile,omitempty"`
}

// Store implements orchestrator.Persister against a Translation/ root
// directory. A single mutex serializes index.json read-modify-write
// cycles across concurrent tasks, matching pkg/glossary.Store's coarse
// locking rationale: translations complete on the order of one per
// several seconds, never thousands per second.
type Store struct {
	root string
	mu   sync.Mutex
}

// New creates a Store rooted at root (typically "Translation"). The
// directory tree is created lazily on first Save.
func New(root string) *Store {
	return &Store{root: root}
}

// Save implements orchestrator.Persister: it writes translated.md,
// ocr_raw.md (if the OCR pipeline ran), meta.json, quality_report.json
// (if present), every extracted image, and appends an index.json entry.
func (s *Store) Save(ctx context.Context, actx *agent.AgentContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, actx.TaskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("translationstore: create %s: %w", dir, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "translated.md"), []byte(actx.TranslatedMD), 0o644); err != nil {
		return fmt.Errorf("translationstore: write translated.md: %w", err)
	}

	hasOCR := actx.PipelineType == "ocr"
	if hasOCR && actx.OCRMarkdown != "" {
		if err := os.WriteFile(filepath.Join(dir, "ocr_raw.md"), []byte(actx.OCRMarkdown), 0o644); err != nil {
			return fmt.Errorf("translationstore: write ocr_raw.md: %w", err)
		}
	}

	if err := s.saveImages(dir, actx); err != nil {
		return err
	}

	if actx.QualityReport != nil {
		data, err := json.MarshalIndent(actx.QualityReport, "", "  ")
		if err != nil {
			return fmt.Errorf("translationstore: marshal quality report: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "quality_report.json"), data, 0o644); err != nil {
			return fmt.Errorf("translationstore: write quality_report.json: %w", err)
		}
	}

	displayName, err := s.uniqueDisplayName(actx.Filename)
	if err != nil {
		return err
	}
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	meta := Meta{
		ID:            actx.TaskID,
		Filename:      actx.Filename,
		DisplayName:   displayName,
		CreatedAt:     createdAt,
		HasOCR:        hasOCR,
		PromptProfile: actx.PromptProfile,
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("translationstore: marshal meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), metaData, 0o644); err != nil {
		return fmt.Errorf("translationstore: write meta.json: %w", err)
	}

	return s.appendIndexEntry(IndexEntry{
		ID:          actx.TaskID,
		Filename:    actx.Filename,
		DisplayName: displayName,
		CreatedAt:   createdAt,
		HasOCR:      hasOCR,
	})
}

func (s *Store) saveImages(dir string, actx *agent.AgentContext) error {
	images := actx.Images
	if len(actx.OCRImages) > 0 {
		images = actx.OCRImages
	}
	if len(images) == 0 {
		return nil
	}

	imagesDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return fmt.Errorf("translationstore: create images dir: %w", err)
	}
	for name, data := range images {
		name = normalizeImageName(name)
		if err := os.WriteFile(filepath.Join(imagesDir, name), data, 0o644); err != nil {
			return fmt.Errorf("translationstore: write image %s: %w", name, err)
		}
	}
	return nil
}

// normalizeImageName rewrites a ".jpeg" extension to ".jpg", matching
// spec.md §6's "jpeg normalized to jpg" layout rule.
func normalizeImageName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".jpeg") {
		return name[:len(name)-5] + ".jpg"
	}
	return name
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, "index.json")
}

// uniqueDisplayName derives a display name from filename's stem, reading
// the current index to append "-2", "-3", … on collision.
func (s *Store) uniqueDisplayName(filename string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	entries, err := s.readIndex()
	if err != nil {
		return "", err
	}

	existing := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		existing[e.DisplayName] = struct{}{}
	}

	if _, taken := existing[stem]; !taken {
		return stem, nil
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", stem, n)
		if _, taken := existing[candidate]; !taken {
			return candidate, nil
		}
	}
}

func (s *Store) readIndex() ([]IndexEntry, error) {
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("translationstore: read index: %w", err)
	}
	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("translationstore: parse index: %w", err)
	}
	return idx.Entries, nil
}

// appendIndexEntry prepends entry to index.json (newest first).
func (s *Store) appendIndexEntry(entry IndexEntry) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("translationstore: create root: %w", err)
	}

	entries, err := s.readIndex()
	if err != nil {
		return err
	}
	entries = append([]IndexEntry{entry}, entries...)

	data, err := json.MarshalIndent(indexFile{Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("translationstore: marshal index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0o644); err != nil {
		return fmt.Errorf("translationstore: write index: %w", err)
	}
	return nil
}
