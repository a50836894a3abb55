package tasktracker

import (
	"testing"

	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_RegistersPendingTask(t *testing.T) {
	m := NewManager()

	task := m.Create("abc123", "paper.pdf")

	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, "paper.pdf", task.Filename)

	got, err := m.Get("abc123")
	require.NoError(t, err)
	assert.Same(t, task, got)
}

func TestGet_ReturnsErrorForUnknownTask(t *testing.T) {
	m := NewManager()

	_, err := m.Get("missing")

	assert.Error(t, err)
}

func TestList_ReturnsSnapshotOfAllTasks(t *testing.T) {
	m := NewManager()
	m.Create("t1", "a.pdf")
	m.Create("t2", "b.pdf")

	tasks := m.List()

	assert.Len(t, tasks, 2)
}

func TestDelete_RemovesTask(t *testing.T) {
	m := NewManager()
	m.Create("t1", "a.pdf")

	require.NoError(t, m.Delete("t1"))
	_, err := m.Get("t1")
	assert.Error(t, err)
}

func TestCancel_RequiresAttachedToken(t *testing.T) {
	m := NewManager()
	task := m.Create("t1", "a.pdf")

	assert.False(t, task.Cancel(), "cancelling before a token is attached must fail gracefully")

	token := agent.NewCancellationToken()
	task.SetCancellationToken(token)

	assert.True(t, task.Cancel())
	assert.True(t, token.IsCancelled())
	assert.Equal(t, StatusCancelled, task.Status)
}

func TestSetError_TransitionsToFailed(t *testing.T) {
	m := NewManager()
	task := m.Create("t1", "a.pdf")

	task.SetError("provider down")

	assert.Equal(t, StatusFailed, task.Status)
	assert.Equal(t, "provider down", task.Error)
}
