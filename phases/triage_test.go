package phases

import (
	"context"
	"errors"
	"testing"

	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/llm"
	"github.com/stretchr/testify/assert"
)

type stubCompleter struct {
	resp *llm.Response
	err  error
}

func (s stubCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return s.resp, s.err
}

func TestRunTriage_Success(t *testing.T) {
	c := stubCompleter{resp: &llm.Response{Content: `{"is_relevant": true, "decision": "PROCESS", "justification": "newsworthy", "category": "politics", "score": 0.9, "cleaned_text_for_next_phase": "cleaned"}`, Model: "claude-3-opus"}}
	fragment := domain.Fragment{FragmentID: "f1", OriginalText: "raw text"}

	result := RunTriage(context.Background(), c, fragment)

	assert.False(t, result.FallbackUsed)
	assert.Equal(t, domain.DecisionProcess, result.Decision)
	assert.Equal(t, "cleaned", result.CleanedTextForNextPhase)
	assert.Equal(t, "claude-3-opus", result.Model.Model)
}

func TestRunTriage_FallsBackOnLLMUnavailable(t *testing.T) {
	c := stubCompleter{err: errors.New("connection refused")}
	fragment := domain.Fragment{FragmentID: "f1", OriginalText: "raw text"}

	result := RunTriage(context.Background(), c, fragment)

	assert.True(t, result.FallbackUsed)
	assert.True(t, result.IsRelevant)
	assert.Equal(t, "raw text", result.CleanedTextForNextPhase)
	assert.NotEmpty(t, result.Warning)
}

func TestRunTriage_FallsBackOnUnparseableResponse(t *testing.T) {
	c := stubCompleter{resp: &llm.Response{Content: "not json at all"}}
	fragment := domain.Fragment{FragmentID: "f1", OriginalText: "raw text"}

	result := RunTriage(context.Background(), c, fragment)

	assert.True(t, result.FallbackUsed)
	assert.Equal(t, domain.DecisionFallbackAcceptedPreprocessing, result.Decision)
}

func TestRunTriage_DefaultsCleanedTextWhenEmpty(t *testing.T) {
	c := stubCompleter{resp: &llm.Response{Content: `{"is_relevant": true, "decision": "PROCESS"}`}}
	fragment := domain.Fragment{FragmentID: "f1", OriginalText: "original"}

	result := RunTriage(context.Background(), c, fragment)

	assert.Equal(t, "original", result.CleanedTextForNextPhase)
}

func TestRunTriage_TranslatesNonSpanishInputBeforeClassification(t *testing.T) {
	calls := 0
	c := completerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		calls++
		if calls == 1 {
			return &llm.Response{Content: `{"translated_text": "texto traducido"}`}, nil
		}
		return &llm.Response{Content: `{"is_relevant": true, "decision": "PROCESS", "cleaned_text_for_next_phase": "texto traducido"}`}, nil
	})
	fragment := domain.Fragment{FragmentID: "f1", OriginalText: "translated text", Metadata: map[string]string{domain.MetaLanguage: "en"}}

	result := RunTriage(context.Background(), c, fragment)

	assert.True(t, result.TranslationAttempted)
	assert.Equal(t, "texto traducido", result.CleanedTextForNextPhase)
	assert.Equal(t, 2, calls)
}

func TestRunTriage_TranslationFailureContinuesWithOriginalText(t *testing.T) {
	calls := 0
	c := completerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("translation service down")
		}
		return &llm.Response{Content: `{"is_relevant": true, "decision": "PROCESS"}`}, nil
	})
	fragment := domain.Fragment{FragmentID: "f1", OriginalText: "original text", Metadata: map[string]string{domain.MetaLanguage: "en"}}

	result := RunTriage(context.Background(), c, fragment)

	assert.False(t, result.TranslationAttempted)
	assert.Equal(t, "original text", result.CleanedTextForNextPhase)
	assert.False(t, result.FallbackUsed)
}

func TestRunTriage_SkipsTranslationForSpanishInput(t *testing.T) {
	calls := 0
	c := completerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		calls++
		return &llm.Response{Content: `{"is_relevant": true, "decision": "PROCESS"}`}, nil
	})
	fragment := domain.Fragment{FragmentID: "f1", OriginalText: "texto original", Metadata: map[string]string{domain.MetaLanguage: "es"}}

	result := RunTriage(context.Background(), c, fragment)

	assert.False(t, result.TranslationAttempted)
	assert.Equal(t, 1, calls)
}
