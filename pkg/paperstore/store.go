// Package paperstore persists extracted paper metadata to SQLite with an
// FTS5 full-text index, for later retrieval-augmented lookup. Grounded on
// original_source's agent/tools/paper_repository.py and on the teacher
// pack's SQLite usage in ODSapper-CLIAIRMONITOR/internal/memory.
package paperstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one row read back from the papers table, with JSON columns
// already decoded.
type Record struct {
	ID           string
	Metadata     Metadata
	Embedding    []float32
	QualityScore *int
	Filename     string
	CreatedAt    string
}

// Store is PaperRepository: a SQLite-backed store of paper metadata.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// idempotently creates its schema, FTS index, sync triggers, and any
// missing migration columns.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("paperstore: open %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("paperstore: pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("paperstore: create schema: %w", err)
	}
	if _, err := db.Exec(ftsSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("paperstore: create fts schema: %w", err)
	}
	if _, err := db.Exec(ftsTriggersSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("paperstore: create fts triggers: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureColumns(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// ensureColumns ALTERs in any column from migrationColumns that isn't
// already present, so databases created by an earlier schema version pick
// up later additions.
func (s *Store) ensureColumns() error {
	rows, err := s.db.Query("PRAGMA table_info(papers)")
	if err != nil {
		return fmt.Errorf("paperstore: table_info: %w", err)
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("paperstore: scan table_info: %w", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for column, ddl := range migrationColumns {
		if _, ok := existing[column]; ok {
			continue
		}
		if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE papers ADD COLUMN %s %s", column, ddl)); err != nil {
			return fmt.Errorf("paperstore: add column %s: %w", column, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Upsert inserts or updates one paper's metadata, keyed by id.
func (s *Store) Upsert(id string, metadata Metadata, embedding []float32, qualityScore *int, filename string) error {
	var embBlob []byte
	if len(embedding) > 0 {
		embBlob = packEmbedding(embedding)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	authorsJSON, _ := json.Marshal(metadata.Authors)
	contributionsJSON, _ := json.Marshal(metadata.Contributions)
	keywordsJSON, _ := json.Marshal(metadata.Keywords)
	tagsJSON, _ := json.Marshal(metadata.Tags)
	baseModelsJSON, _ := json.Marshal(metadata.BaseModels)

	_, err := s.db.Exec(`
		INSERT INTO papers (
			id, title, title_zh, authors, abstract, domain,
			research_problem, methodology, contributions, keywords, tags,
			base_models, year, venue, embedding, quality_score,
			filename, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			title_zh=excluded.title_zh,
			authors=excluded.authors,
			abstract=excluded.abstract,
			domain=excluded.domain,
			research_problem=excluded.research_problem,
			methodology=excluded.methodology,
			contributions=excluded.contributions,
			keywords=excluded.keywords,
			tags=excluded.tags,
			base_models=excluded.base_models,
			year=excluded.year,
			venue=excluded.venue,
			embedding=excluded.embedding,
			quality_score=excluded.quality_score,
			filename=excluded.filename,
			created_at=excluded.created_at
	`,
		id, metadata.Title, metadata.TitleZH, string(authorsJSON), metadata.Abstract, metadata.Domain,
		metadata.ResearchProblem, metadata.Methodology, string(contributionsJSON), string(keywordsJSON), string(tagsJSON),
		string(baseModelsJSON), metadata.Year, metadata.Venue, embBlob, qualityScore,
		filename, now,
	)
	if err != nil {
		return fmt.Errorf("paperstore: upsert %s: %w", id, err)
	}
	return nil
}

// GetByID fetches one paper by id, or (nil, nil) if it doesn't exist.
func (s *Store) GetByID(id string) (*Record, error) {
	row := s.db.QueryRow("SELECT * FROM papers WHERE id = ?", id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// SearchText runs an FTS5 MATCH query across title/abstract/methodology/
// keywords, ranked by FTS rank.
func (s *Store) SearchText(query string, limit int) ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT p.* FROM papers p
		JOIN papers_fts f ON p.rowid = f.rowid
		WHERE papers_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("paperstore: search_text: %w", err)
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

// SearchByDomain finds papers whose domain LIKE %domain%, newest first.
func (s *Store) SearchByDomain(domain string, limit int) ([]Record, error) {
	rows, err := s.db.Query(
		"SELECT * FROM papers WHERE domain LIKE ? ORDER BY created_at DESC LIMIT ?",
		"%"+domain+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("paperstore: search_by_domain: %w", err)
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

// SearchByKeywords finds papers whose keywords JSON column contains any of
// the given keywords as a substring.
func (s *Store) SearchByKeywords(keywords []string, limit int) ([]Record, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	conditions := ""
	args := make([]any, 0, len(keywords)+1)
	for i, kw := range keywords {
		if i > 0 {
			conditions += " OR "
		}
		conditions += "keywords LIKE ?"
		args = append(args, "%"+kw+"%")
	}
	args = append(args, limit)

	rows, err := s.db.Query(
		fmt.Sprintf("SELECT * FROM papers WHERE (%s) ORDER BY created_at DESC LIMIT ?", conditions),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("paperstore: search_by_keywords: %w", err)
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

// Count returns the total number of stored papers.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&n)
	return n, err
}
