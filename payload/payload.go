// Package payload shapes a fragment's phase outputs into the document
// the datastore's insert_whole_fragment RPC expects.
package payload

import "github.com/andinanews/pipeline/domain"

// Build converts phase outputs into the map the datastore RPC
// requires, omitting empty slices so skip-if-empty persistence logic
// upstream has a clean signal.
func Build(fragment domain.Fragment, outputs domain.PhaseOutputs) map[string]any {
	doc := map[string]any{
		"fragment_id":        fragment.FragmentID,
		"source_article_id":  fragment.SourceArticleID,
		"order_index":        fragment.OrderIndex,
		"triage":             outputs.Phase1,
	}

	if len(outputs.Phase2.Facts) > 0 {
		doc["facts"] = outputs.Phase2.Facts
	}
	if len(outputs.Phase4.EntitiesWithNormalizedRefs) > 0 {
		doc["entities"] = outputs.Phase4.EntitiesWithNormalizedRefs
	} else if len(outputs.Phase2.Entities) > 0 {
		doc["entities"] = outputs.Phase2.Entities
	}
	if len(outputs.Phase3.Quotes) > 0 {
		doc["quotes"] = outputs.Phase3.Quotes
	}
	if len(outputs.Phase3.QuantitativeData) > 0 {
		doc["quantitative_data"] = outputs.Phase3.QuantitativeData
	}
	if len(outputs.Phase4.Relations.FactFact) > 0 || len(outputs.Phase4.Relations.EntityEntity) > 0 || len(outputs.Phase4.Relations.Contradictions) > 0 {
		doc["relations"] = outputs.Phase4.Relations
	}

	return doc
}

// IsEmpty reports whether a built payload has neither facts nor
// entities, signaling that persistence should be skipped.
func IsEmpty(doc map[string]any) bool {
	for _, key := range []string{"facts", "entities"} {
		if _, ok := doc[key]; ok {
			return false
		}
	}
	return true
}
