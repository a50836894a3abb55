// Package agent provides the core agent framework for docflow. Agents
// collaborate through a shared AgentContext to translate academic PDFs
// from English to Chinese. Each agent is created per-task (not shared
// between runs) and exposes a stable name, description, and Run operation.
package agent

import (
	"context"
	"errors"
)

// ErrCancelled is returned (optionally wrapped) by any agent or pipeline
// step that observes a cancelled CancellationToken. Callers should check
// with errors.Is(err, ErrCancelled), never by comparing strings.
var ErrCancelled = errors.New("agent: cancelled")

// Agent is the contract every participant in the translation workflow
// implements.
type Agent interface {
	// Name is a stable identifier used in registry lookups and in the
	// "agent" field of emitted events.
	Name() string

	// Description is a short human-readable summary.
	Description() string

	// Run executes one phase of the workflow, mutating and returning the
	// shared AgentContext. Implementations must check actx.Cancellation
	// on entry and between meaningful sub-steps.
	Run(ctx context.Context, actx *AgentContext) (*AgentContext, error)
}

// Lifecycle is implemented by agents that need setup/teardown around Run.
type Lifecycle interface {
	Agent
	Setup(ctx context.Context, actx *AgentContext) error
	Teardown(ctx context.Context, actx *AgentContext) error
}

// Invoke runs setup → Run → teardown for any Agent. Teardown always runs,
// even when Run fails. Agents that don't implement Lifecycle skip
// setup/teardown.
func Invoke(ctx context.Context, a Agent, actx *AgentContext) (*AgentContext, error) {
	lc, hasLifecycle := a.(Lifecycle)
	if hasLifecycle {
		if err := lc.Setup(ctx, actx); err != nil {
			return actx, err
		}
	}

	result, runErr := a.Run(ctx, actx)

	if hasLifecycle {
		if tErr := lc.Teardown(ctx, actx); tErr != nil && runErr == nil {
			return result, tErr
		}
	}

	return result, runErr
}
