package paperstore

// schemaSQL creates the papers table and its supporting indexes. Creation
// is idempotent: re-running it against an existing database is a no-op.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS papers (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    title_zh TEXT NOT NULL DEFAULT '',
    authors TEXT NOT NULL DEFAULT '[]',
    abstract TEXT NOT NULL DEFAULT '',
    domain TEXT NOT NULL DEFAULT '',
    research_problem TEXT NOT NULL DEFAULT '',
    methodology TEXT NOT NULL DEFAULT '',
    contributions TEXT NOT NULL DEFAULT '[]',
    keywords TEXT NOT NULL DEFAULT '[]',
    tags TEXT NOT NULL DEFAULT '[]',
    base_models TEXT NOT NULL DEFAULT '[]',
    year INTEGER,
    venue TEXT NOT NULL DEFAULT '',
    embedding BLOB,
    quality_score INTEGER,
    filename TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_papers_domain ON papers(domain);
CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(year);
CREATE INDEX IF NOT EXISTS idx_papers_filename ON papers(filename);
`

// ftsSchemaSQL creates the FTS5 shadow table used for full-text search.
const ftsSchemaSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
    title, title_zh, abstract, research_problem, methodology, keywords,
    content='papers', content_rowid='rowid'
);
`

// ftsTriggersSQL keeps papers_fts in sync with papers on every mutation.
const ftsTriggersSQL = `
CREATE TRIGGER IF NOT EXISTS papers_ai AFTER INSERT ON papers BEGIN
    INSERT INTO papers_fts(rowid, title, title_zh, abstract, research_problem, methodology, keywords)
    VALUES (new.rowid, new.title, new.title_zh, new.abstract, new.research_problem, new.methodology, new.keywords);
END;

CREATE TRIGGER IF NOT EXISTS papers_ad AFTER DELETE ON papers BEGIN
    INSERT INTO papers_fts(papers_fts, rowid, title, title_zh, abstract, research_problem, methodology, keywords)
    VALUES ('delete', old.rowid, old.title, old.title_zh, old.abstract, old.research_problem, old.methodology, old.keywords);
END;

CREATE TRIGGER IF NOT EXISTS papers_au AFTER UPDATE ON papers BEGIN
    INSERT INTO papers_fts(papers_fts, rowid, title, title_zh, abstract, research_problem, methodology, keywords)
    VALUES ('delete', old.rowid, old.title, old.title_zh, old.abstract, old.research_problem, old.methodology, old.keywords);
    INSERT INTO papers_fts(rowid, title, title_zh, abstract, research_problem, methodology, keywords)
    VALUES (new.rowid, new.title, new.title_zh, new.abstract, new.research_problem, new.methodology, new.keywords);
END;
`

// migrationColumns lists columns introduced after the initial schema,
// keyed by name, with the DDL fragment to add them. Open (via
// ensureColumns) checks
// PRAGMA table_info(papers) and ALTERs in any that are missing, so
// databases created by older builds pick up new columns in place.
var migrationColumns = map[string]string{
	"tags": "TEXT NOT NULL DEFAULT '[]'",
}
