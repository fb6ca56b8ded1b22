package search

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Document is the searchable projection of a published article.
type Document struct {
	ID       string
	Slug     string
	Title    string
	Subtitle string
	Excerpt  string
	Body     string
	Author   string
	Tags     []string
}

// Hit is a single search match with highlighted fragments keyed by field.
type Hit struct {
	ID        string
	Slug      string
	Title     string
	Author    string
	Score     float64
	Fragments map[string][]string
}

// Index wraps a Bleve full-text index over published articles.
type Index struct {
	index bleve.Index
}

// Open opens the index at path, creating it with the article mapping when it
// does not exist yet.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create search index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &Index{index: idx}, nil
}

// buildIndexMapping gives titles an English analyzer so stemmed queries still
// match headline words.
func buildIndexMapping() mapping.IndexMapping {
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = "en"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("ID", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Slug", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Title", titleFieldMapping)
	docMapping.AddFieldMappingsAt("Subtitle", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Excerpt", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Body", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Author", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Close releases the underlying index.
func (i *Index) Close() error {
	return i.index.Close()
}

// IndexDocument adds or replaces one article in the index.
func (i *Index) IndexDocument(doc Document) error {
	return i.index.Index(doc.ID, doc)
}

// Remove drops an article from the index, typically after an unpublish.
func (i *Index) Remove(id string) error {
	return i.index.Delete(id)
}

// Search runs a query-string search (quotes, boolean operators, fuzzy ~) and
// returns scored hits with HTML-highlighted fragments.
func (i *Index) Search(queryString string, limit int) ([]Hit, error) {
	query := bleve.NewQueryStringQuery(queryString)
	request := bleve.NewSearchRequestOptions(query, limit, 0, false)
	request.Highlight = bleve.NewHighlightWithStyle("html")
	request.Fields = []string{"Slug", "Title", "Author"}

	results, err := i.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, match := range results.Hits {
		hit := Hit{
			ID:        match.ID,
			Score:     match.Score,
			Fragments: match.Fragments,
		}
		if slug, ok := match.Fields["Slug"].(string); ok {
			hit.Slug = slug
		}
		if title, ok := match.Fields["Title"].(string); ok {
			hit.Title = title
		}
		if author, ok := match.Fields["Author"].(string); ok {
			hit.Author = author
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Rebuild replaces the index contents with the supplied documents in one
// batch, used at startup to catch writes the process missed.
func (i *Index) Rebuild(docs []Document) error {
	batch := i.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Count returns the number of indexed articles.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// BodyText strips markup from rendered article HTML so the index stores prose
// rather than tags.
func BodyText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	var parts []string
	doc.Find("body").Children().Each(func(_ int, selection *goquery.Selection) {
		text := strings.TrimSpace(selection.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.Join(parts, "\n")
}
