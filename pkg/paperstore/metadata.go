package paperstore

import (
	"encoding/binary"
	"math"
)

// Metadata is a paper's structured bibliographic record, extracted by
// IndexAgent from translated Markdown. Grounded on original_source's
// agent/tools/paper_repository.py PaperMetadata dataclass.
type Metadata struct {
	Title           string   `json:"title"`
	TitleZH         string   `json:"title_zh"`
	Authors         []string `json:"authors"`
	Abstract        string   `json:"abstract"`
	Domain          string   `json:"domain"`
	ResearchProblem string   `json:"research_problem"`
	Methodology     string   `json:"methodology"`
	Contributions   []string `json:"contributions"`
	Keywords        []string `json:"keywords"`
	Tags            []string `json:"tags"`
	BaseModels      []string `json:"base_models"`
	Year            *int     `json:"year"`
	Venue           string   `json:"venue"`
}

// ToMap renders metadata into the plain map[string]any shape stored on
// AgentContext.PaperMetadata.
func (m Metadata) ToMap() map[string]any {
	return map[string]any{
		"title":            m.Title,
		"title_zh":         m.TitleZH,
		"authors":          m.Authors,
		"abstract":         m.Abstract,
		"domain":           m.Domain,
		"research_problem": m.ResearchProblem,
		"methodology":      m.Methodology,
		"contributions":    m.Contributions,
		"keywords":         m.Keywords,
		"tags":             m.Tags,
		"base_models":      m.BaseModels,
		"year":             m.Year,
		"venue":            m.Venue,
	}
}

// packEmbedding encodes a float32 vector as a little-endian byte blob for
// storage in the embedding BLOB column.
func packEmbedding(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// unpackEmbedding decodes a stored embedding blob back into a float32
// vector.
func unpackEmbedding(blob []byte) []float32 {
	n := len(blob) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out
}
