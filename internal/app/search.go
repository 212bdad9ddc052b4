package app

import (
	"context"

	"pagebuilder/internal/document"
	"pagebuilder/internal/publish"
	"pagebuilder/internal/search"
)

// SearchRecords lists every stored page as a search record. It backs both
// the fallback scan and the startup reindex.
func (s *Service) SearchRecords(ctx context.Context) ([]search.Record, error) {
	proposals, err := s.store.ListProposals(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := s.store.ListProgressPages(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := s.store.ListMetaPages(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	records := make([]search.Record, 0, len(proposals)+len(progress)+len(meta))
	for _, p := range proposals {
		records = append(records, search.NewRecord(document.KindProposal, p.ID, p.Slug,
			publish.EffectiveStatus(p.Status, p.ExpiresAt, now),
			document.NormalizeProposal(p.DataEn), document.NormalizeProposal(p.DataAr)))
	}
	for _, p := range progress {
		records = append(records, search.NewRecord(document.KindProgress, p.ID, p.Slug, p.Status,
			document.NormalizeProgress(p.DataEn), document.NormalizeProgress(p.DataAr)))
	}
	for _, p := range meta {
		records = append(records, search.NewRecord(document.KindMeta, p.ID, p.Slug, p.Status,
			document.NormalizeMeta(p.DataEn), document.NormalizeMeta(p.DataAr)))
	}
	return records, nil
}

// Search runs a dashboard search.
func (s *Service) Search(q search.Query) search.Response {
	return s.search.Search(q)
}

func (s *Service) index(kind document.Kind, id, slug, status string, en, ar document.Document) {
	if s.search == nil {
		return
	}
	s.search.Index(search.NewRecord(kind, id, slug, status, en, ar))
}

func (s *Service) unindex(kind document.Kind, id string) {
	if s.search == nil {
		return
	}
	s.search.Delete(search.RecordKey(kind, id))
}
