package search

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Service is the facade that tries Meilisearch first and falls back to a
// store scan.
type Service struct {
	meili  *Meili
	scan   *Scan
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, scan *Scan, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{meili: meili, scan: scan, logger: logger.Named("search")}
}

func (s *Service) meiliReady() bool {
	return s.meili != nil && s.meili.Healthy()
}

// Search tries Meilisearch if healthy, otherwise falls back to the scan.
func (s *Service) Search(q Query) Response {
	if s.meiliReady() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.logger.Warn("meilisearch error, falling back to scan", zap.Error(err))
	}

	if s.scan == nil {
		return Response{Results: []Result{}, Query: q.Text}
	}
	results, total, err := s.scan.Search(q)
	if err != nil {
		s.logger.Warn("scan search failed", zap.Error(err))
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// Index pushes a record to Meilisearch without waiting for the result.
func (s *Service) Index(r Record) {
	if !s.meiliReady() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.meili.IndexRecords([]Record{r}); err != nil {
			s.logger.Warn("index record", zap.String("key", r.Key), zap.Error(err))
		}
	}()
}

// Delete removes a record from Meilisearch without waiting for the result.
func (s *Service) Delete(key string) {
	if !s.meiliReady() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.meili.DeleteRecord(key); err != nil {
			s.logger.Warn("delete record", zap.String("key", key), zap.Error(err))
		}
	}()
}

// ReindexAll loads every record from the scan source and pushes it to
// Meilisearch. Called at startup.
func (s *Service) ReindexAll(ctx context.Context) {
	if !s.meiliReady() || s.scan == nil || s.scan.load == nil {
		return
	}
	records, err := s.scan.load(ctx)
	if err != nil {
		s.logger.Warn("reindex load failed", zap.Error(err))
		return
	}
	if err := s.meili.IndexRecords(records); err != nil {
		s.logger.Warn("reindex records", zap.Error(err))
		return
	}
	s.logger.Info("reindexed pages", zap.Int("count", len(records)))
}

// Close waits for in-flight index calls and stops the health monitor.
func (s *Service) Close() {
	s.wg.Wait()
	if s.meili != nil {
		s.meili.Close()
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
