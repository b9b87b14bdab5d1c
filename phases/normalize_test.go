package phases

import (
	"context"
	"errors"
	"testing"

	"github.com/andinanews/pipeline/datastore"
	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFinder struct {
	resp map[string]*datastore.FindSimilarEntityResponse
	err  error
}

func (s stubFinder) FindSimilarEntity(ctx context.Context, req datastore.FindSimilarEntityRequest) (*datastore.FindSimilarEntityResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.resp[req.Name]; ok {
		return r, nil
	}
	return &datastore.FindSimilarEntityResponse{Found: false}, nil
}

func TestRunNormalization_AttachesMatches(t *testing.T) {
	finder := stubFinder{resp: map[string]*datastore.FindSimilarEntityResponse{
		"Jane Doe": {Found: true, EntityID: "ent-1", MatchedName: "Jane A. Doe", Similarity: 0.9},
	}}
	c := stubCompleter{resp: &llm.Response{Content: `{"fact_fact": [], "entity_entity": [], "contradictions": []}`}}
	elements := domain.ElementsPhaseResult{Entities: []domain.Entity{{ID: 1, Text: "Jane Doe", Type: domain.EntityPerson}}}

	result := RunNormalization(context.Background(), finder, c, elements, domain.QuotesDataPhaseResult{})

	require.Len(t, result.EntitiesWithNormalizedRefs, 1)
	assert.Equal(t, "ent-1", result.EntitiesWithNormalizedRefs[0].NormalizedID)
	assert.Equal(t, domain.NormalizationCompleted, result.Status)
	assert.False(t, result.FallbackUsed)
}

func TestRunNormalization_FallsBackOnDatastoreFailure(t *testing.T) {
	finder := stubFinder{err: errors.New("datastore down")}
	c := stubCompleter{resp: &llm.Response{Content: `{"fact_fact": [], "entity_entity": [], "contradictions": []}`}}
	elements := domain.ElementsPhaseResult{Entities: []domain.Entity{{ID: 1, Text: "Jane Doe"}}}

	result := RunNormalization(context.Background(), finder, c, elements, domain.QuotesDataPhaseResult{})

	assert.True(t, result.FallbackUsed)
	assert.Equal(t, domain.NormalizationCompletedWithoutEntities, result.Status)
	assert.Empty(t, result.EntitiesWithNormalizedRefs[0].NormalizedID)
}

func TestRunNormalization_DerivesRelationsFromLLM(t *testing.T) {
	finder := stubFinder{resp: map[string]*datastore.FindSimilarEntityResponse{}}
	c := stubCompleter{resp: &llm.Response{Content: `{"fact_fact": [{"fact_a_id": 1, "fact_b_id": 2, "type": "elaborates", "strength": 0.8}], "entity_entity": [], "contradictions": []}`}}
	elements := domain.ElementsPhaseResult{
		Facts: []domain.Fact{
			{ID: 1, Text: "Jane Doe announced the plan"},
			{ID: 2, Text: "Jane Doe later clarified the plan"},
		},
		Entities: []domain.Entity{{ID: 1, Text: "Jane Doe"}},
	}

	result := RunNormalization(context.Background(), finder, c, elements, domain.QuotesDataPhaseResult{})

	require.Len(t, result.Relations.FactFact, 1)
	assert.Equal(t, 1, result.Relations.FactFact[0].FactAID)
	assert.Equal(t, 2, result.Relations.FactFact[0].FactBID)
	assert.False(t, result.FallbackUsed)
}

func TestRunNormalization_RelationsLLMFailureYieldsEmptyRelationsWithWarning(t *testing.T) {
	finder := stubFinder{resp: map[string]*datastore.FindSimilarEntityResponse{}}
	c := stubCompleter{err: errors.New("boom")}
	elements := domain.ElementsPhaseResult{
		Facts:    []domain.Fact{{ID: 1, Text: "Jane Doe announced the plan"}},
		Entities: []domain.Entity{{ID: 1, Text: "Jane Doe"}},
	}

	result := RunNormalization(context.Background(), finder, c, elements, domain.QuotesDataPhaseResult{})

	assert.True(t, result.FallbackUsed)
	assert.Empty(t, result.Relations.FactFact)
	assert.Empty(t, result.Relations.EntityEntity)
	assert.Empty(t, result.Relations.Contradictions)
	assert.NotEmpty(t, result.Warning)
}

func TestRunNormalization_RunsRelationsCallEvenWithNoElements(t *testing.T) {
	finder := stubFinder{resp: map[string]*datastore.FindSimilarEntityResponse{}}
	called := false
	c := completerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		called = true
		return &llm.Response{Content: `{"fact_fact": [], "entity_entity": [], "contradictions": []}`}, nil
	})

	RunNormalization(context.Background(), finder, c, domain.ElementsPhaseResult{}, domain.QuotesDataPhaseResult{})

	assert.True(t, called, "relations LLM call must run unconditionally, even with empty phase 2/3 output")
}

type completerFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)

func (f completerFunc) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}
