package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nameOnlyAgent struct{ name string }

func (a *nameOnlyAgent) Name() string        { return a.name }
func (a *nameOnlyAgent) Description() string { return "" }
func (a *nameOnlyAgent) Run(_ context.Context, actx *AgentContext) (*AgentContext, error) {
	return actx, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&nameOnlyAgent{name: "ocr"})

	got, err := r.Get("ocr")

	require.NoError(t, err)
	assert.Equal(t, "ocr", got.Name())
}

func TestRegistry_GetUnknownNameErrors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("missing")

	assert.Error(t, err)
}

func TestRegistry_DuplicateRegistrationPanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&nameOnlyAgent{name: "ocr"})

	assert.Panics(t, func() {
		r.Register(&nameOnlyAgent{name: "ocr"})
	})
}

func TestRegistry_NamesListsAllRegistered(t *testing.T) {
	r := NewRegistry()
	r.Register(&nameOnlyAgent{name: "ocr"})
	r.Register(&nameOnlyAgent{name: "translation"})

	assert.ElementsMatch(t, []string{"ocr", "translation"}, r.Names())
}
