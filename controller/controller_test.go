package controller

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

type stubCompleter struct {
	responses map[string]*llm.Response
	err       error
}

func (s stubCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.responses[req.Phase]; ok {
		return r, nil
	}
	return &llm.Response{Content: "{}"}, nil
}

type stubFinder struct{}

func (stubFinder) FindSimilarEntity(ctx context.Context, req datastore.FindSimilarEntityRequest) (*datastore.FindSimilarEntityResponse, error) {
	return &datastore.FindSimilarEntityResponse{Found: false}, nil
}

type stubStore struct {
	insertCalls int
	err         error
}

func (s *stubStore) InsertWholeFragment(ctx context.Context, req datastore.InsertWholeFragmentRequest) (*datastore.InsertWholeFragmentResponse, error) {
	s.insertCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &datastore.InsertWholeFragmentResponse{OK: true, InsertedCounts: map[string]int{"facts": 1}}, nil
}

func happyPathCompleter() stubCompleter {
	return stubCompleter{responses: map[string]*llm.Response{
		"triage":      {Content: `{"is_relevant": true, "decision": "PROCESS", "cleaned_text_for_next_phase": "cleaned"}`},
		"elements":    {Content: `{"facts": [{"id": 1, "text": "fact"}], "entities": [{"id": 1, "text": "Jane"}]}`},
		"quotes_data": {Content: `{"quotes": [{"id": 1, "text": "hi"}], "quantitative_data": []}`},
	}}
}

func TestProcessFragment_HappyPath(t *testing.T) {
	store := &stubStore{}
	c := New(happyPathCompleter(), stubFinder{}, store)

	result := c.ProcessFragment(context.Background(), "req-1", domain.Fragment{FragmentID: "f1", OriginalText: "raw"})

	assert.False(t, result.PartialProcessing)
	assert.True(t, result.Persistence.OK)
	assert.Equal(t, 1, store.insertCalls)
	assert.Equal(t, 1, result.Metrics.ElementCounts.Facts)
	assert.Equal(t, 1.0, result.Metrics.OverallSuccessRate)
}

func TestProcessFragment_DiscardSkipsRemainingPhasesAndPersistence(t *testing.T) {
	c := stubCompleter{responses: map[string]*llm.Response{
		"triage": {Content: `{"is_relevant": false, "decision": "DISCARD"}`},
	}}
	store := &stubStore{}
	ctrl := New(c, stubFinder{}, store)

	result := ctrl.ProcessFragment(context.Background(), "req-1", domain.Fragment{FragmentID: "f1", OriginalText: "raw"})

	assert.True(t, result.Persistence.Skipped)
	assert.Equal(t, 0, store.insertCalls)
	_, ran := result.Metrics.PerPhaseSuccess[string("elements")]
	assert.False(t, ran)
}

func TestProcessFragment_LLMUnavailableCascadesFallbacksAndSkipsPersistence(t *testing.T) {
	c := stubCompleter{err: errors.New("llm down")}
	store := &stubStore{}
	ctrl := New(c, stubFinder{}, store)

	result := ctrl.ProcessFragment(context.Background(), "req-1", domain.Fragment{FragmentID: "f1", OriginalText: "raw"})

	assert.True(t, result.PartialProcessing)
	require.NotEmpty(t, result.Warnings)
	assert.True(t, result.Persistence.Skipped) // no facts/entities extracted without the LLM
}

func TestProcessFragment_PersistenceFailureIsolated(t *testing.T) {
	store := &stubStore{err: errors.New("datastore down")}
	c := New(happyPathCompleter(), stubFinder{}, store)

	result := c.ProcessFragment(context.Background(), "req-1", domain.Fragment{FragmentID: "f1", OriginalText: "raw"})

	assert.False(t, result.Persistence.OK)
	assert.NotEmpty(t, result.Persistence.Error)
	// Extraction itself still succeeded even though persistence failed.
	assert.False(t, result.PartialProcessing)
}

func TestProcessArticle_ProducesOneResultPerFragment(t *testing.T) {
	store := &stubStore{}
	c := New(happyPathCompleter(), stubFinder{}, store)

	article := domain.Article{Headline: "Test", ContentText: "body text"}
	results := c.ProcessArticle(context.Background(), "req-1", article)

	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].FragmentUUID)
}
