package promptprofile

import (
	"context"
	"errors"
	"strings"
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terminologyOf(pairs ...string) *orderedmap.OrderedMap[string, string] {
	om := orderedmap.New[string, string]()
	for i := 0; i+1 < len(pairs); i += 2 {
		om.Set(pairs[i], pairs[i+1])
	}
	return om
}

type stubTranslationService struct {
	agent.TranslationService
	raw string
	err error
}

func (s *stubTranslationService) AnalyzeForPromptProfile(_ context.Context, _ string) (string, error) {
	return s.raw, s.err
}

func TestAnalyze_ShortAbstractSkipsLLMAndRendersGeneric(t *testing.T) {
	svc := &stubTranslationService{raw: `{"domain":"should not be used"}`}

	profile := Analyze(context.Background(), svc, "too short")

	assert.Empty(t, profile.Domain)
	assert.Contains(t, profile.RenderedPrompt, "professional English-to-Chinese translator")
	assert.NotContains(t, profile.RenderedPrompt, "should not be used")
}

func TestAnalyze_ParsesFencedJSONResponse(t *testing.T) {
	svc := &stubTranslationService{raw: "```json\n{\"domain\": \"机器学习\", \"terminology\": {\"tensor\": \"张量\"}, \"keep_english\": [\"GPU\"]}\n```"}
	abstract := strings.Repeat("This is a long enough abstract about tensors and GPUs. ", 3)

	profile := Analyze(context.Background(), svc, abstract)

	assert.Equal(t, "机器学习", profile.Domain)
	zh, ok := profile.Terminology.Get("tensor")
	require.True(t, ok)
	assert.Equal(t, "张量", zh)
	assert.Contains(t, profile.RenderedPrompt, "specializing in 机器学习")
}

func TestAnalyze_LLMErrorFallsBackToGenericPrompt(t *testing.T) {
	svc := &stubTranslationService{err: errors.New("provider down")}
	abstract := strings.Repeat("Long enough abstract text here. ", 3)

	profile := Analyze(context.Background(), svc, abstract)

	require.NotEmpty(t, profile.RenderedPrompt)
	assert.Empty(t, profile.Domain)
}

func TestAnalyze_MalformedJSONFallsBackToGenericPrompt(t *testing.T) {
	svc := &stubTranslationService{raw: "not json at all, sorry"}
	abstract := strings.Repeat("Long enough abstract text here. ", 3)

	profile := Analyze(context.Background(), svc, abstract)

	assert.Empty(t, profile.Domain)
	assert.Contains(t, profile.RenderedPrompt, "TERMINOLOGY GUIDE")
}

func TestMergeGlossary_ExistingProfileEntryWinsOnConflict(t *testing.T) {
	profile := &agent.PromptProfile{Terminology: terminologyOf("loss", "损失")}

	MergeGlossary(profile, map[string]string{"loss": "丢失", "epoch": "轮次"})

	loss, _ := profile.Terminology.Get("loss")
	epoch, _ := profile.Terminology.Get("epoch")
	assert.Equal(t, "损失", loss)
	assert.Equal(t, "轮次", epoch)
}

func TestRender_KeepEnglishTermsRenderedAsKeepEnglish(t *testing.T) {
	profile := &agent.PromptProfile{
		Domain:      "NLP",
		Terminology: terminologyOf("GPU", "GPU"),
		KeepEnglish: []string{"GPU"},
	}

	out := Render(profile)

	assert.Contains(t, out, `GPU -> keep English "GPU"`)
	assert.Contains(t, out, "MUST KEEP IN ENGLISH: GPU")
}

func TestRender_NoTerminologyUsesPlaceholder(t *testing.T) {
	out := Render(&agent.PromptProfile{})
	assert.Contains(t, out, "(no special terms)")
	assert.Contains(t, out, "MUST KEEP IN ENGLISH: none")
}
