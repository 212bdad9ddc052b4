package search

import (
	"pagebuilder/internal/document"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Kind    document.Kind `json:"kind"`
	ID      string        `json:"id"`
	Slug    string        `json:"slug"`
	Status  string        `json:"status"`
	Title   string        `json:"title"`
	Snippet string        `json:"snippet"`
}

// Query describes a search request.
type Query struct {
	Text   string
	Kind   document.Kind // empty = all kinds
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a search over page records.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Record is the data we index for one page. Key is unique across kinds.
type Record struct {
	Key     string        `json:"key"`
	ID      string        `json:"id"`
	Kind    document.Kind `json:"kind"`
	Slug    string        `json:"slug"`
	Status  string        `json:"status"`
	TitleEn string        `json:"titleEn"`
	TitleAr string        `json:"titleAr"`
}

// RecordKey joins kind and id into an index primary key.
func RecordKey(kind document.Kind, id string) string {
	return string(kind) + "_" + id
}

// NewRecord builds the index record for a page from its stored fields.
// Either document may be nil.
func NewRecord(kind document.Kind, id, slug, status string, en, ar document.Document) Record {
	r := Record{
		Key:    RecordKey(kind, id),
		ID:     id,
		Kind:   kind,
		Slug:   slug,
		Status: status,
	}
	if en != nil {
		r.TitleEn = document.Title(en)
	}
	if ar != nil {
		r.TitleAr = document.Title(ar)
	}
	return r
}

func (r Record) result() Result {
	return Result{
		Kind:    r.Kind,
		ID:      r.ID,
		Slug:    r.Slug,
		Status:  r.Status,
		Title:   firstNonBlank(r.TitleEn, r.TitleAr, r.Slug),
		Snippet: firstNonBlank(r.TitleAr, r.TitleEn),
	}
}

const defaultLimit = 20
