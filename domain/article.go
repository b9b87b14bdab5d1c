// Package domain defines the core entities that flow through the
// processing pipeline: articles, fragments, and the per-phase extraction
// results (facts, entities, quotes, quantitative data, and relations).
package domain

import "time"

// Article is the raw input handed to the pipeline by the ingress. It is
// immutable once constructed and is discarded after fragmentation.
type Article struct {
	Medium       string            `json:"medium" validate:"required"`
	Country      string            `json:"country" validate:"required"`
	MediumType   string            `json:"medium_type" validate:"required"`
	Headline     string            `json:"headline" validate:"required"`
	PublishedAt  time.Time         `json:"publication_date" validate:"required"`
	ContentText  string            `json:"content_text" validate:"required"`
	Language     string            `json:"language,omitempty"`
	Author       string            `json:"author,omitempty"`
	URL          string            `json:"url,omitempty"`
	Section      string            `json:"section,omitempty"`
	IsOpinion    bool              `json:"is_opinion,omitempty"`
	IsOfficial   bool              `json:"is_official,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Fragment is a unit of work handed to the controller. Fragments are
// created either by fragmenting an Article (one per article in the base
// case) or supplied directly by the Connector.
type Fragment struct {
	FragmentID     string            `json:"fragment_id" validate:"required"`
	OriginalText   string            `json:"original_text" validate:"required"`
	SourceArticleID string           `json:"source_article_id" validate:"required"`
	OrderIndex     int               `json:"order_index"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Metadata keys Fragmentize stamps from the source Article so phases that
// need them (notably phase 2's headline/medium fallback) don't need the
// Article itself.
const (
	MetaHeadline = "headline"
	MetaMedium   = "medium"
	MetaLanguage = "language"
)

// Headline returns the originating article's headline, if carried in the
// fragment's metadata.
func (f Fragment) Headline() string {
	return f.Metadata[MetaHeadline]
}

// Medium returns the originating article's medium name, if carried in the
// fragment's metadata.
func (f Fragment) Medium() string {
	return f.Metadata[MetaMedium]
}

// Language returns the originating article's declared language, if
// carried in the fragment's metadata. Empty means undeclared.
func (f Fragment) Language() string {
	return f.Metadata[MetaLanguage]
}

// Fragmentize splits an Article into one or more Fragments. The base-case
// behavior produces exactly one fragment per article; larger articles may
// be split in future revisions without changing this contract. The
// article's headline and medium are carried into fragment metadata so a
// later phase can synthesize a fallback from them without needing the
// Article itself.
func Fragmentize(articleID string, a Article) []Fragment {
	metadata := make(map[string]string, len(a.Metadata)+2)
	for k, v := range a.Metadata {
		metadata[k] = v
	}
	metadata[MetaHeadline] = a.Headline
	metadata[MetaMedium] = a.Medium
	metadata[MetaLanguage] = a.Language

	return []Fragment{
		{
			FragmentID:      articleID,
			OriginalText:    a.ContentText,
			SourceArticleID: articleID,
			OrderIndex:      0,
			Metadata:        metadata,
		},
	}
}
