package phases

import (
	"context"
	"testing"

	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunQuotesData_Success(t *testing.T) {
	c := stubCompleter{resp: &llm.Response{Content: `{"quotes": [{"id": 1, "text": "we did it", "speaker_text": "the mayor", "cited_entity_id": 1}], "quantitative_data": [{"id": 1, "description": "turnout", "value": 52.3, "unit": "percent"}]}`}}
	fragment := domain.Fragment{FragmentID: "f1"}
	elements := domain.ElementsPhaseResult{Entities: []domain.Entity{{ID: 1, Text: "the mayor"}}}

	result := RunQuotesData(context.Background(), c, fragment, elements)

	require.Len(t, result.Quotes, 1)
	require.Len(t, result.QuantitativeData, 1)
	assert.Equal(t, 1, result.Quotes[0].CitedEntityID)
	assert.Equal(t, "f1", result.Quotes[0].SourceFragmentID)
}

func TestRunQuotesData_DropsDanglingEntityCitation(t *testing.T) {
	c := stubCompleter{resp: &llm.Response{Content: `{"quotes": [{"id": 1, "text": "we did it", "cited_entity_id": 99}]}`}}
	fragment := domain.Fragment{FragmentID: "f1"}
	elements := domain.ElementsPhaseResult{}

	result := RunQuotesData(context.Background(), c, fragment, elements)

	require.Len(t, result.Quotes, 1)
	assert.Equal(t, 0, result.Quotes[0].CitedEntityID)
}
