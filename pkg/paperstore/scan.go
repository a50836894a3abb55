package paperstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows, letting
// scanRecord share logic between GetByID's single-row path and the
// multi-row search paths.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner rowScanner) (*Record, error) {
	var rec Record
	var authorsJSON, contributionsJSON, keywordsJSON, tagsJSON, baseModelsJSON string
	var year sql.NullInt64
	var embBlob []byte
	var qualityScore sql.NullInt64

	err := scanner.Scan(
		&rec.ID, &rec.Metadata.Title, &rec.Metadata.TitleZH, &authorsJSON, &rec.Metadata.Abstract, &rec.Metadata.Domain,
		&rec.Metadata.ResearchProblem, &rec.Metadata.Methodology, &contributionsJSON, &keywordsJSON, &tagsJSON,
		&baseModelsJSON, &year, &rec.Metadata.Venue, &embBlob, &qualityScore,
		&rec.Filename, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(authorsJSON), &rec.Metadata.Authors)
	json.Unmarshal([]byte(contributionsJSON), &rec.Metadata.Contributions)
	json.Unmarshal([]byte(keywordsJSON), &rec.Metadata.Keywords)
	json.Unmarshal([]byte(tagsJSON), &rec.Metadata.Tags)
	json.Unmarshal([]byte(baseModelsJSON), &rec.Metadata.BaseModels)

	if year.Valid {
		y := int(year.Int64)
		rec.Metadata.Year = &y
	}
	if qualityScore.Valid {
		q := int(qualityScore.Int64)
		rec.QualityScore = &q
	}
	if len(embBlob) > 0 {
		rec.Embedding = unpackEmbedding(embBlob)
	}

	return &rec, nil
}

func scanRecordRows(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("paperstore: scan row: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
