// Package glossary implements GlossaryStore, a file-per-domain JSON
// persistence layer for bilingual terminology entries, grounded on the
// teacher's cleanup/retention pattern for its backup-sweep service
// (pkg/cleanup) and its config-driven file layout conventions.
package glossary

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Entry is one bilingual term, stamped with its domain, where it came
// from, and when it was last written.
type Entry struct {
	English     string `json:"english"`
	Chinese     string `json:"chinese"`
	KeepEnglish bool   `json:"keep_english,omitempty"`
	Domain      string `json:"domain"`
	Source      string `json:"source"` // "llm_extract" | "manual"
	UpdatedAt   string `json:"updated_at"`
}

// Conflict records an incoming entry that would have changed an existing
// translation; the existing translation wins and the conflict is reported
// to the caller instead.
type Conflict struct {
	English  string `json:"english"`
	Existing string `json:"existing"`
	Incoming string `json:"incoming"`
}

type domainFile struct {
	Domain    string    `json:"domain"`
	Entries   []Entry   `json:"entries"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a file-per-domain JSON glossary store. Every mutation writes a
// timestamped backup copy of the file before overwriting it. A single
// mutex serializes all writes (and backups) across domains, matching the
// teacher's preference for one coarse lock over a retention/cleanup
// resource rather than per-file locking.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store rooted at dir (typically Translation/glossaries).
// The directory is created on first write, not at construction.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(domain string) string {
	return filepath.Join(s.dir, domain+".json")
}

// load reads one domain's file. A missing file yields an empty glossary;
// a corrupted file logs a warning and also yields an empty glossary —
// GlossaryStore never fails a caller because of on-disk corruption.
func (s *Store) load(domain string) domainFile {
	data, err := os.ReadFile(s.path(domain))
	if err != nil {
		return domainFile{Domain: domain}
	}
	var df domainFile
	if err := json.Unmarshal(data, &df); err != nil {
		slog.Warn("glossary: corrupted domain file, treating as empty", "domain", domain, "error", err)
		return domainFile{Domain: domain}
	}
	return df
}

// save backs up the current file (if any) and writes df. Must be called
// with s.mu held.
func (s *Store) save(df domainFile) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("glossary: create store dir: %w", err)
	}

	target := s.path(df.Domain)
	if _, err := os.Stat(target); err == nil {
		backup := filepath.Join(s.dir, fmt.Sprintf("%s.%s.bak.json", df.Domain, time.Now().UTC().Format("20060102T150405.000000000")))
		existing, readErr := os.ReadFile(target)
		if readErr == nil {
			if err := os.WriteFile(backup, existing, 0o644); err != nil {
				slog.Warn("glossary: failed to write backup before save", "domain", df.Domain, "error", err)
			}
		}
	}

	df.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(df, "", "  ")
	if err != nil {
		return fmt.Errorf("glossary: marshal domain file: %w", err)
	}
	return os.WriteFile(target, data, 0o644)
}

// Query substring-matches English or Chinese text within one domain
// (domain == "" searches every domain), case-insensitively.
func (s *Store) Query(domain, substr string) []Entry {
	needle := strings.ToLower(substr)
	var domains []string
	if domain != "" {
		domains = []string{domain}
	} else {
		domains = s.Domains()
	}

	var out []Entry
	for _, d := range domains {
		df := s.load(d)
		for _, e := range df.Entries {
			if strings.Contains(strings.ToLower(e.English), needle) || strings.Contains(strings.ToLower(e.Chinese), needle) {
				out = append(out, e)
			}
		}
	}
	return out
}

// Update upserts a single entry into its domain, preserving the original
// English casing already on file when the English text matches
// case-insensitively. Creates a backup before writing.
func (s *Store) Update(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	df := s.load(e.Domain)
	found := false
	for i, existing := range df.Entries {
		if strings.EqualFold(existing.English, e.English) {
			e.English = existing.English
			df.Entries[i] = e
			found = true
			break
		}
	}
	if !found {
		df.Entries = append(df.Entries, e)
	}
	return s.save(df)
}

// Merge folds candidates into a domain's glossary: existing translations
// are kept verbatim, brand-new English terms are added, and any candidate
// that would have changed an existing translation is reported as a
// conflict instead of applied. Returns the resulting glossary (English ->
// Chinese) and the conflicts observed.
func (s *Store) Merge(domain string, candidates []Entry) (map[string]string, []Conflict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	df := s.load(domain)
	byEnglish := make(map[string]int, len(df.Entries))
	for i, e := range df.Entries {
		byEnglish[strings.ToLower(e.English)] = i
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var conflicts []Conflict
	for _, cand := range candidates {
		key := strings.ToLower(cand.English)
		if idx, exists := byEnglish[key]; exists {
			existing := df.Entries[idx]
			if existing.Chinese != cand.Chinese {
				conflicts = append(conflicts, Conflict{
					English:  existing.English,
					Existing: existing.Chinese,
					Incoming: cand.Chinese,
				})
			}
			continue
		}
		cand.Domain = domain
		cand.UpdatedAt = now
		byEnglish[key] = len(df.Entries)
		df.Entries = append(df.Entries, cand)
	}

	if err := s.save(df); err != nil {
		return nil, nil, err
	}

	result := lo.SliceToMap(df.Entries, func(e Entry) (string, string) {
		return e.English, e.Chinese
	})
	return result, conflicts, nil
}

// Domains lists every domain with a persisted glossary file, excluding any
// file whose stem contains ".bak".
func (s *Store) Domains() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var domains []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.Contains(name, ".bak") {
			continue
		}
		domains = append(domains, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(domains)
	return domains
}
