package glossary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UpdateCreatesNewEntry(t *testing.T) {
	s := NewStore(t.TempDir())

	err := s.Update(Entry{English: "gradient", Chinese: "梯度", Domain: "ml", Source: "manual"})

	require.NoError(t, err)
	results := s.Query("ml", "gradient")
	require.Len(t, results, 1)
	assert.Equal(t, "梯度", results[0].Chinese)
}

func TestStore_UpdatePreservesOriginalEnglishCasing(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Update(Entry{English: "Tensor", Chinese: "张量", Domain: "ml"}))

	require.NoError(t, s.Update(Entry{English: "tensor", Chinese: "张量（更新）", Domain: "ml"}))

	results := s.Query("ml", "tensor")
	require.Len(t, results, 1)
	assert.Equal(t, "Tensor", results[0].English)
	assert.Equal(t, "张量（更新）", results[0].Chinese)
}

func TestStore_UpdateWritesBackupBeforeOverwrite(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.Update(Entry{English: "loss", Chinese: "损失", Domain: "ml"}))

	require.NoError(t, s.Update(Entry{English: "accuracy", Chinese: "准确率", Domain: "ml"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" && e.Name() != "ml.json" {
			backups++
		}
	}
	assert.GreaterOrEqual(t, backups, 1, "expected at least one .bak.json backup before the second write")
}

func TestStore_QueryMatchesCaseInsensitiveAcrossLanguages(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Update(Entry{English: "Neural Network", Chinese: "神经网络", Domain: "ml"}))

	assert.Len(t, s.Query("ml", "NEURAL"), 1)
	assert.Len(t, s.Query("ml", "神经"), 1)
	assert.Len(t, s.Query("", "neural"), 1, "empty domain should search across all domains")
}

func TestStore_MergeKeepsExistingAndReportsConflict(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Update(Entry{English: "epoch", Chinese: "轮次", Domain: "ml"}))

	merged, conflicts, err := s.Merge("ml", []Entry{
		{English: "epoch", Chinese: "纪元"},   // conflicts with existing
		{English: "batch size", Chinese: "批大小"}, // new
	})

	require.NoError(t, err)
	assert.Equal(t, "轮次", merged["epoch"], "existing translation must win")
	assert.Equal(t, "批大小", merged["batch size"])
	require.Len(t, conflicts, 1)
	assert.Equal(t, Conflict{English: "epoch", Existing: "轮次", Incoming: "纪元"}, conflicts[0])
}

func TestStore_MergeIsNoConflictWhenIncomingMatchesExisting(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Update(Entry{English: "epoch", Chinese: "轮次", Domain: "ml"}))

	_, conflicts, err := s.Merge("ml", []Entry{{English: "epoch", Chinese: "轮次"}})

	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestStore_DomainsExcludesBackupFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.Update(Entry{English: "a", Chinese: "a", Domain: "cs"}))
	require.NoError(t, s.Update(Entry{English: "b", Chinese: "b", Domain: "cs"})) // forces a backup

	domains := s.Domains()

	assert.Equal(t, []string{"cs"}, domains)
}

func TestStore_LoadToleratesCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bio.json"), []byte("{not json"), 0o644))
	s := NewStore(dir)

	results := s.Query("bio", "anything")

	assert.Empty(t, results)
}

func TestStore_LoadToleratesMissingFile(t *testing.T) {
	s := NewStore(t.TempDir())

	results := s.Query("physics", "anything")

	assert.Empty(t, results)
}
