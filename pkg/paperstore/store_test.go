package paperstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesSchemaIdempotently(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.ensureColumns())
}

func TestUpsert_InsertsThenUpdatesById(t *testing.T) {
	s := newTestStore(t)

	meta := Metadata{Title: "Attention Is All You Need", Domain: "nlp", Keywords: []string{"transformer"}}
	require.NoError(t, s.Upsert("p1", meta, nil, nil, "paper.pdf"))

	rec, err := s.GetByID("p1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Attention Is All You Need", rec.Metadata.Title)
	assert.Equal(t, []string{"transformer"}, rec.Metadata.Keywords)

	updated := Metadata{Title: "Attention Is All You Need (v2)", Domain: "nlp"}
	require.NoError(t, s.Upsert("p1", updated, nil, nil, "paper.pdf"))

	rec, err = s.GetByID("p1")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need (v2)", rec.Metadata.Title)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "upsert on an existing id must not create a second row")
}

func TestUpsert_StoresEmbeddingRoundTrip(t *testing.T) {
	s := newTestStore(t)

	embedding := []float32{0.1, 0.2, 0.3}
	require.NoError(t, s.Upsert("p1", Metadata{Title: "x"}, embedding, nil, "x.pdf"))

	rec, err := s.GetByID("p1")
	require.NoError(t, err)
	require.Len(t, rec.Embedding, 3)
	assert.InDelta(t, 0.2, rec.Embedding[1], 0.0001)
}

func TestGetByID_ReturnsNilForMissingPaper(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.GetByID("does-not-exist")

	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSearchText_FindsByFTSMatch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Upsert("p1", Metadata{Title: "Deep Residual Learning", Abstract: "image recognition"}, nil, nil, "a.pdf"))
	require.NoError(t, s.Upsert("p2", Metadata{Title: "Attention Mechanisms", Abstract: "sequence modeling"}, nil, nil, "b.pdf"))

	results, err := s.SearchText("Residual", 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID)
}

func TestSearchByDomain_MatchesSubstring(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Upsert("p1", Metadata{Domain: "computer-vision"}, nil, nil, "a.pdf"))
	require.NoError(t, s.Upsert("p2", Metadata{Domain: "nlp"}, nil, nil, "b.pdf"))

	results, err := s.SearchByDomain("vision", 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID)
}

func TestSearchByKeywords_MatchesAnyKeyword(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Upsert("p1", Metadata{Keywords: []string{"transformer", "attention"}}, nil, nil, "a.pdf"))
	require.NoError(t, s.Upsert("p2", Metadata{Keywords: []string{"cnn"}}, nil, nil, "b.pdf"))

	results, err := s.SearchByKeywords([]string{"attention"}, 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID)
}
