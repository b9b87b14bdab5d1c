package validation

import (
	"testing"
	"time"

	"github.com/andinanews/pipeline/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validArticle() domain.Article {
	return domain.Article{
		Medium:      "El Diario",
		Country:     "AR",
		MediumType:  "digital",
		Headline:    "Headline",
		PublishedAt: time.Now(),
		ContentText: "This article has more than fifty characters of body text in it.",
	}
}

func TestArticle_ValidPasses(t *testing.T) {
	assert.Nil(t, Article(validArticle()))
}

func TestArticle_MissingRequiredField(t *testing.T) {
	a := validArticle()
	a.Medium = ""

	result := Article(a)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Fields)
}

func TestArticle_ContentTooShort(t *testing.T) {
	a := validArticle()
	a.ContentText = "too short"

	result := Article(a)
	require.NotNil(t, result)
	found := false
	for _, f := range result.Fields {
		if f.Field == "Article.ContentText" {
			found = true
		}
	}
	assert.True(t, found)
}
