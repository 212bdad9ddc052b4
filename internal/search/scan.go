package search

import (
	"context"
	"strings"
)

// RecordSource loads every searchable record.
type RecordSource func(ctx context.Context) ([]Record, error)

// Scan implements Searcher by filtering records loaded from the store. It is
// the fallback when Meilisearch is absent or unhealthy.
type Scan struct {
	load RecordSource
}

func NewScan(load RecordSource) *Scan {
	return &Scan{load: load}
}

// Healthy always returns true: if the store is down, the whole app is down.
func (s *Scan) Healthy() bool {
	return true
}

// Search matches the query case-insensitively against slug and both titles.
// Records keep the order the source returned them in.
func (s *Scan) Search(q Query) ([]Result, int, error) {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" || s.load == nil {
		return nil, 0, nil
	}
	records, err := s.load(context.Background())
	if err != nil {
		return nil, 0, err
	}

	var matched []Result
	for _, r := range records {
		if q.Kind != "" && r.Kind != q.Kind {
			continue
		}
		if !strings.Contains(strings.ToLower(r.Slug), text) &&
			!strings.Contains(strings.ToLower(r.TitleEn), text) &&
			!strings.Contains(strings.ToLower(r.TitleAr), text) {
			continue
		}
		matched = append(matched, r.result())
	}

	total := len(matched)
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}
