package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"pagebuilder/internal/document"
	"pagebuilder/internal/publish"
	"pagebuilder/internal/store"
	"pagebuilder/internal/util"
)

// ListProposals flips expired published proposals back to draft and lists
// the rest, newest first.
func (s *Service) ListProposals(ctx context.Context) ([]ListItem, error) {
	now := s.now().UTC()
	if n, err := s.store.RevertExpiredProposals(ctx, now); err != nil {
		s.warn("revert expired proposals", err)
	} else if n > 0 {
		s.logger.Info("reverted expired proposals", zap.Int64("count", n))
	}
	items, err := s.store.ListProposals(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ListItem, 0, len(items))
	for _, p := range items {
		item := listItem(document.KindProposal, p.ID, p.Slug,
			publish.EffectiveStatus(p.Status, p.ExpiresAt, now),
			document.NormalizeProposal(p.DataEn), document.NormalizeProposal(p.DataAr), p.UpdatedAt)
		item.ExpiresAt = p.ExpiresAt
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) GetProposal(ctx context.Context, id string) (ProposalView, error) {
	now := s.now().UTC()
	if _, err := s.store.RevertExpiredProposal(ctx, id, now); err != nil {
		s.warn("revert expired proposal", err, zap.String("id", id))
	}
	p, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return ProposalView{}, err
	}
	p.Status = publish.EffectiveStatus(p.Status, p.ExpiresAt, now)
	return proposalView(p), nil
}

// PublicProposal resolves the page shown at /p/{slug}. Drafts, expired
// proposals and proposals with no available language are not found.
func (s *Service) PublicProposal(ctx context.Context, slug string) (PublicProposalView, error) {
	now := s.now().UTC()
	p, err := s.store.GetProposalBySlug(ctx, publish.NormalizeSlug(slug))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return PublicProposalView{}, notFound()
		}
		return PublicProposalView{}, err
	}
	if publish.Expired(p.Status, p.ExpiresAt, now) {
		if _, err := s.store.RevertExpiredProposal(ctx, p.ID, now); err != nil {
			s.warn("revert expired proposal", err, zap.String("id", p.ID))
		}
		return PublicProposalView{}, notFound()
	}
	if p.Status != publish.StatusPublished {
		return PublicProposalView{}, notFound()
	}

	en := document.NormalizeProposal(p.DataEn)
	ar := document.NormalizeProposal(p.DataAr)
	view := PublicProposalView{
		Slug:  p.Slug,
		Flags: proposalFlags(p),
		HasEn: en.Available(),
		HasAr: ar.Available(),
	}
	if !view.HasEn && !view.HasAr {
		return PublicProposalView{}, notFound()
	}
	if view.HasEn {
		doc := redactProposal(en, view.Flags)
		view.DataEn = &doc
	}
	if view.HasAr {
		doc := redactProposal(ar, view.Flags)
		view.DataAr = &doc
	}
	return view, nil
}

func (s *Service) CreateProposal(ctx context.Context, in ProposalInput) (ProposalView, error) {
	p, err := s.buildProposal(ctx, "", in)
	if err != nil {
		return ProposalView{}, err
	}
	p.ID = util.NewID("")
	p.CreatedAt = s.now().UTC()
	p.UpdatedAt = p.CreatedAt
	created, err := s.store.CreateProposal(ctx, p)
	if err != nil {
		return ProposalView{}, slugErr(err)
	}
	s.indexProposal(created)
	return proposalView(created), nil
}

func (s *Service) UpdateProposal(ctx context.Context, id string, in ProposalInput) (ProposalView, error) {
	existing, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return ProposalView{}, err
	}
	p, err := s.buildProposal(ctx, id, in)
	if err != nil {
		return ProposalView{}, err
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()
	updated, err := s.store.UpdateProposal(ctx, p)
	if err != nil {
		return ProposalView{}, slugErr(err)
	}
	s.indexProposal(updated)
	return proposalView(updated), nil
}

func (s *Service) buildProposal(ctx context.Context, id string, in ProposalInput) (store.Proposal, error) {
	slug, status, err := parseHeader(in.Slug, in.Status)
	if err != nil {
		return store.Proposal{}, err
	}
	en, ar, err := parsePayloads(document.KindProposal, in.DataEn, in.DataAr)
	if err != nil {
		return store.Proposal{}, err
	}
	expiresAt, err := publish.ParseExpiry(in.ExpiresAt, s.loc)
	if err != nil {
		return store.Proposal{}, asValidation(err)
	}
	err = publish.Check(ctx, publish.Request{
		Kind:      document.KindProposal,
		ID:        id,
		Slug:      slug,
		Status:    status,
		DataEn:    en,
		DataAr:    ar,
		ExpiresAt: expiresAt,
	}, s.store.ProposalSlugOwner, s.now().UTC())
	if err != nil {
		return store.Proposal{}, asValidation(err)
	}
	return store.Proposal{
		Slug:         slug,
		Status:       status,
		ShowVision:   in.Flags.ShowVision,
		ShowGoals:    in.Flags.ShowGoals,
		ShowWorkPlan: in.Flags.ShowWorkPlan,
		ShowPricing:  in.Flags.ShowPricing,
		ShowNotes:    in.Flags.ShowNotes,
		ShowNoticed:  in.Flags.ShowNoticed,
		ExpiresAt:    expiresAt,
		DataEn:       marshalPtr(en),
		DataAr:       marshalPtr(ar),
	}, nil
}

// DuplicateProposal copies a proposal under the first free "-copy" slug.
// The copy is always a draft and keeps the source's expiry.
func (s *Service) DuplicateProposal(ctx context.Context, id string) (ProposalView, error) {
	src, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return ProposalView{}, err
	}
	slug, err := publish.CopySlug(ctx, src.Slug, func(ctx context.Context, candidate string) (bool, error) {
		owner, err := s.store.ProposalSlugOwner(ctx, candidate)
		return owner != "", err
	})
	if err != nil {
		return ProposalView{}, err
	}
	dup := src
	dup.ID = util.NewID("")
	dup.Slug = slug
	dup.Status = publish.StatusDraft
	dup.CreatedAt = s.now().UTC()
	dup.UpdatedAt = dup.CreatedAt
	created, err := s.store.CreateProposal(ctx, dup)
	if err != nil {
		return ProposalView{}, slugErr(err)
	}
	s.indexProposal(created)
	return proposalView(created), nil
}

func (s *Service) DeleteProposal(ctx context.Context, id string) error {
	if err := s.store.DeleteProposal(ctx, id); err != nil {
		return err
	}
	s.unindex(document.KindProposal, id)
	return nil
}

func (s *Service) indexProposal(p store.Proposal) {
	s.index(document.KindProposal, p.ID, p.Slug, p.Status,
		document.NormalizeProposal(p.DataEn), document.NormalizeProposal(p.DataAr))
}

// slugErr reports a unique index violation the way the gate reports a
// taken slug. It only happens when two saves race for one slug.
func slugErr(err error) error {
	if errors.Is(err, store.ErrSlugTaken) {
		return asValidation(publish.ErrSlugInUse)
	}
	return err
}
