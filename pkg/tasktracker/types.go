package tasktracker

import (
	"sync"
	"time"

	"github.com/codeready-toolchain/docflow/pkg/agent"
)

// Status is the lifecycle state of one translation task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusTimedOut   Status = "timed_out"
)

// Task is one in-flight or completed translation task, tracked in memory
// for the lifetime of the server process so the SSE endpoint and the CLI
// can query liveness and final status without re-reading persisted state.
type Task struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`

	mu         sync.RWMutex
	token      *agent.CancellationToken
}

// SetStatus updates the task's status (thread-safe).
func (t *Task) SetStatus(status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = status
	t.UpdatedAt = time.Now()
}

// SetError records a failure, transitioning the task to failed (thread-safe).
func (t *Task) SetError(err string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Error = err
	t.Status = StatusFailed
	t.UpdatedAt = time.Now()
}

// SetTimedOut marks the task as timed out — the heartbeat loop's verdict
// when the underlying AgentContext stops publishing before completion.
func (t *Task) SetTimedOut(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Error = message
	t.Status = StatusTimedOut
	t.UpdatedAt = time.Now()
}

// SetCancellationToken attaches the AgentContext's token so Cancel can
// reach the running orchestrator.
func (t *Task) SetCancellationToken(token *agent.CancellationToken) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

// Cancel requests cancellation of the task's in-flight run. Returns false
// if no token has been attached yet (the task hasn't started running).
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.token == nil {
		return false
	}
	t.token.Cancel()
	t.Status = StatusCancelled
	t.UpdatedAt = time.Now()
	return true
}

// IsRunning reports whether the task is still pending or actively
// processing (not yet completed, failed, cancelled, or timed out).
func (t *Task) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status == StatusPending || t.Status == StatusProcessing
}

// Clone returns a thread-safe snapshot suitable for JSON serialization.
func (t *Task) Clone() Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Task{
		ID:        t.ID,
		Filename:  t.Filename,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Error:     t.Error,
	}
}
