package translationstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(taskID, filename string) *agent.AgentContext {
	return agent.NewAgentContext(taskID, filename, nil, nil, false)
}

func TestSave_WritesTranslatedMarkdownAndMeta(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	actx := newContext("task1", "paper.pdf")
	actx.TranslatedMD = "# 标题\n\n内容"

	require.NoError(t, s.Save(context.Background(), actx))

	got, err := os.ReadFile(filepath.Join(root, "task1", "translated.md"))
	require.NoError(t, err)
	assert.Equal(t, "# 标题\n\n内容", string(got))

	metaData, err := os.ReadFile(filepath.Join(root, "task1", "meta.json"))
	require.NoError(t, err)
	var meta Meta
	require.NoError(t, json.Unmarshal(metaData, &meta))
	assert.Equal(t, "task1", meta.ID)
	assert.Equal(t, "paper", meta.DisplayName)
	assert.False(t, meta.HasOCR)
}

func TestSave_WritesOCRMarkdownWhenOCRPipelineRan(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	actx := newContext("task1", "scan.pdf")
	actx.PipelineType = "ocr"
	actx.OCRMarkdown = "raw ocr text"
	actx.TranslatedMD = "translated"

	require.NoError(t, s.Save(context.Background(), actx))

	got, err := os.ReadFile(filepath.Join(root, "task1", "ocr_raw.md"))
	require.NoError(t, err)
	assert.Equal(t, "raw ocr text", string(got))
}

func TestSave_WritesQualityReportWhenPresent(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	actx := newContext("task1", "paper.pdf")
	actx.TranslatedMD = "content"
	actx.QualityReport = &agent.QualityReport{Score: 88}

	require.NoError(t, s.Save(context.Background(), actx))

	data, err := os.ReadFile(filepath.Join(root, "task1", "quality_report.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"score": 88`)
}

func TestSave_NormalizesJpegExtensionAndWritesImages(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	actx := newContext("task1", "paper.pdf")
	actx.TranslatedMD = "content"
	actx.Images["fig_1.jpeg"] = []byte("fake-bytes")

	require.NoError(t, s.Save(context.Background(), actx))

	_, err := os.Stat(filepath.Join(root, "task1", "images", "fig_1.jpg"))
	require.NoError(t, err)
}

func TestSave_AppendsIndexEntryNewestFirst(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	actx1 := newContext("task1", "a.pdf")
	actx1.TranslatedMD = "x"
	require.NoError(t, s.Save(context.Background(), actx1))

	actx2 := newContext("task2", "b.pdf")
	actx2.TranslatedMD = "y"
	require.NoError(t, s.Save(context.Background(), actx2))

	data, err := os.ReadFile(filepath.Join(root, "index.json"))
	require.NoError(t, err)
	var idx indexFile
	require.NoError(t, json.Unmarshal(data, &idx))
	require.Len(t, idx.Entries, 2)
	assert.Equal(t, "task2", idx.Entries[0].ID, "newest entry must be first")
	assert.Equal(t, "task1", idx.Entries[1].ID)
}

func TestSave_DeduplicatesDisplayNameOnCollision(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	actx1 := newContext("task1", "paper.pdf")
	actx1.TranslatedMD = "x"
	require.NoError(t, s.Save(context.Background(), actx1))

	actx2 := newContext("task2", "paper.pdf")
	actx2.TranslatedMD = "y"
	require.NoError(t, s.Save(context.Background(), actx2))

	data, err := os.ReadFile(filepath.Join(root, "task2", "meta.json"))
	require.NoError(t, err)
	var meta Meta
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, "paper-2", meta.DisplayName)
}
