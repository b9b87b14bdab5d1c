package phases

import (
	"context"
	"errors"
	"testing"

	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunElements_Success(t *testing.T) {
	c := stubCompleter{resp: &llm.Response{Content: `{"facts": [{"id": 1, "text": "fact one"}], "entities": [{"id": 1, "text": "Jane Doe", "type": "PERSON"}]}`}}
	fragment := domain.Fragment{FragmentID: "f1"}

	result := RunElements(context.Background(), c, fragment, domain.TriagePhaseResult{CleanedTextForNextPhase: "cleaned"})

	require.Len(t, result.Facts, 1)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "f1", result.Facts[0].SourceFragmentID)
	assert.Equal(t, "f1", result.Entities[0].SourceFragmentID)
	assert.False(t, result.FallbackUsed)
}

func TestRunElements_FallsBackOnError(t *testing.T) {
	c := stubCompleter{err: errors.New("boom")}
	fragment := domain.Fragment{
		FragmentID: "f1",
		Metadata:   map[string]string{domain.MetaHeadline: "Ministro anuncia reducción del IVA", domain.MetaMedium: "El Diario"},
	}
	result := RunElements(context.Background(), c, fragment, domain.TriagePhaseResult{})

	assert.True(t, result.FallbackUsed)
	require.Len(t, result.Facts, 1)
	assert.Equal(t, "Ministro anuncia reducción del IVA", result.Facts[0].Text)
	assert.Equal(t, 0.3, result.Facts[0].Confidence)
	assert.Equal(t, "f1", result.Facts[0].SourceFragmentID)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "El Diario", result.Entities[0].Text)
	assert.Equal(t, 0.3, result.Entities[0].Relevance)
	assert.Equal(t, true, result.Metadata["is_fallback"])
}
