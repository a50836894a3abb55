package agent

import "fmt"

// Registry looks up agents by their stable Name() for the orchestrator and
// for ad-hoc invocation (e.g. a CLI subcommand that runs only TerminologyAgent).
// Not safe for concurrent registration after construction is complete, but
// safe for concurrent Get calls once populated.
type Registry struct {
	agents map[string]Agent
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds an agent under its own Name(). Registering a second agent
// under a name already in use is a programmer error and panics, mirroring
// how the teacher's controller registration treats duplicate agent types.
func (r *Registry) Register(a Agent) {
	name := a.Name()
	if _, exists := r.agents[name]; exists {
		panic(fmt.Sprintf("agent: duplicate registration for %q", name))
	}
	r.agents[name] = a
}

// Get looks up an agent by name.
func (r *Registry) Get(name string) (Agent, error) {
	a, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("agent: no agent registered as %q", name)
	}
	return a, nil
}

// Names returns every registered agent name, useful for diagnostics and
// tests that assert a full orchestrator wiring.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.agents))
	for name := range r.agents {
		out = append(out, name)
	}
	return out
}
