package controller

import (
	"context"

	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/internal/idgen"
)

// ProcessArticle fragmentizes an article and processes each fragment in
// sequence, returning one Result per fragment. The base case produces
// exactly one fragment per article; multi-fragment splitting is left to
// domain.Fragmentize.
func (c *Controller) ProcessArticle(ctx context.Context, requestID string, article domain.Article) []domain.Result {
	articleID := idgen.WithPrefix("art")
	fragments := domain.Fragmentize(articleID, article)

	results := make([]domain.Result, 0, len(fragments))
	for _, fragment := range fragments {
		result := c.ProcessFragment(ctx, requestID, fragment)
		result.FragmentUUID = idgen.New()
		results = append(results, result)

		if ctx.Err() != nil {
			break
		}
	}
	return results
}
