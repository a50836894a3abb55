package translation

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTranslator struct {
	profileJSON   string
	failuresLeft  int
	nonRecoverErr *agent.ProviderError
	calls         int
}

func (s *scriptedTranslator) AnalyzeForPromptProfile(context.Context, string) (string, error) {
	if s.profileJSON != "" {
		return s.profileJSON, nil
	}
	return `{"domain":"physics","terminology":{},"keep_english":[]}`, nil
}

func (s *scriptedTranslator) TranslateSegment(_ context.Context, _, segment string) (string, error) {
	s.calls++
	if s.nonRecoverErr != nil {
		return "", s.nonRecoverErr
	}
	if s.failuresLeft > 0 {
		s.failuresLeft--
		return "", &agent.ProviderError{Message: "rate limited", IsRecoverable: true}
	}
	return "translated: " + segment, nil
}

func (s *scriptedTranslator) ExtractTerms(context.Context, string, string) (string, error) {
	return "[]", nil
}

func (s *scriptedTranslator) ExtractMetadata(context.Context, string) (string, error) {
	return "{}", nil
}

func nativeContext(taskID string) *agent.AgentContext {
	actx := agent.NewAgentContext(taskID, "paper.pdf", nil, nil, false)
	actx.PipelineType = "llm"
	actx.ParsedPDF = &agent.ParsedDocument{
		Pages: []agent.Page{
			{Number: 1, Blocks: []agent.TextBlock{{Text: "hello", Y: 1}}},
		},
	}
	return actx
}

func TestAgentRun_GeneratesPromptProfileOnFirstRun(t *testing.T) {
	llm := &scriptedTranslator{}
	a := New(llm)
	actx := nativeContext("t1")

	out, err := a.Run(context.Background(), actx)

	require.NoError(t, err)
	assert.Equal(t, "physics", out.PromptProfile.Domain)
	assert.Contains(t, out.TranslatedMD, "translated: hello")
}

func TestAgentRun_SkipsPromptRegenerationOnAutoFixRerun(t *testing.T) {
	llm := &scriptedTranslator{}
	a := New(llm)
	actx := nativeContext("t1")
	actx.PromptProfile = &agent.PromptProfile{Domain: "existing-domain", RenderedPrompt: "prompt"}
	actx.TranslatedMD = "previous result"

	_, err := a.Run(context.Background(), actx)

	require.NoError(t, err)
	assert.Equal(t, "existing-domain", actx.PromptProfile.Domain)
}

func TestAgentRun_RetriesRecoverableErrorsAndSucceeds(t *testing.T) {
	llm := &scriptedTranslator{failuresLeft: 1}
	a := New(llm)
	actx := nativeContext("t1")

	out, err := a.Run(context.Background(), actx)

	require.NoError(t, err)
	assert.Contains(t, out.TranslatedMD, "translated: hello")
}

func TestAgentRun_ExhaustsRetriesAndFails(t *testing.T) {
	llm := &scriptedTranslator{failuresLeft: agent.TranslationMaxAttempts + 5}
	a := New(llm)
	actx := nativeContext("t1")

	_, err := a.Run(context.Background(), actx)

	require.Error(t, err)
}

func TestAgentRun_AbortsImmediatelyOnNonRecoverableProviderError(t *testing.T) {
	llm := &scriptedTranslator{nonRecoverErr: &agent.ProviderError{Message: "bad request", IsRecoverable: false}}
	a := New(llm)
	actx := nativeContext("t1")

	_, err := a.Run(context.Background(), actx)

	require.Error(t, err)
	assert.Equal(t, 1, llm.calls, "should not retry a non-recoverable error")
}

func TestAgentRun_AbortsOnCancellation(t *testing.T) {
	llm := &scriptedTranslator{}
	a := New(llm)
	actx := nativeContext("t1")
	actx.Cancellation.Cancel()

	_, err := a.Run(context.Background(), actx)

	require.Error(t, err)
}
