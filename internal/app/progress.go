package app

import (
	"context"
	"errors"
	"strings"

	"pagebuilder/internal/auth"
	"pagebuilder/internal/document"
	"pagebuilder/internal/publish"
	"pagebuilder/internal/store"
	"pagebuilder/internal/util"
)

// Access reports whether the visitor may read the gated page with the
// given canonical slug.
type Access func(slug string) bool

func (a Access) allows(slug string) bool {
	return a != nil && a(slug)
}

func (s *Service) ListProgress(ctx context.Context) ([]ListItem, error) {
	items, err := s.store.ListProgressPages(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ListItem, 0, len(items))
	for _, p := range items {
		item := listItem(document.KindProgress, p.ID, p.Slug, p.Status,
			document.NormalizeProgress(p.DataEn), document.NormalizeProgress(p.DataAr), p.UpdatedAt)
		item.HasPassword = hasHash(p.AccessPasswordHash)
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) GetProgress(ctx context.Context, id string) (ProgressView, error) {
	p, err := s.store.GetProgressPage(ctx, id)
	if err != nil {
		return ProgressView{}, err
	}
	return progressView(p), nil
}

func (s *Service) CreateProgress(ctx context.Context, in ProgressInput) (ProgressView, error) {
	p, err := s.buildProgress(ctx, "", nil, in)
	if err != nil {
		return ProgressView{}, err
	}
	p.ID = util.NewID("")
	p.CreatedAt = s.now().UTC()
	p.UpdatedAt = p.CreatedAt
	created, err := s.store.CreateProgressPage(ctx, p)
	if err != nil {
		return ProgressView{}, slugErr(err)
	}
	s.indexProgress(created)
	return progressView(created), nil
}

func (s *Service) UpdateProgress(ctx context.Context, id string, in ProgressInput) (ProgressView, error) {
	existing, err := s.store.GetProgressPage(ctx, id)
	if err != nil {
		return ProgressView{}, err
	}
	p, err := s.buildProgress(ctx, id, existing.AccessPasswordHash, in)
	if err != nil {
		return ProgressView{}, err
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()
	updated, err := s.store.UpdateProgressPage(ctx, p)
	if err != nil {
		return ProgressView{}, slugErr(err)
	}
	s.indexProgress(updated)
	return progressView(updated), nil
}

func (s *Service) buildProgress(ctx context.Context, id string, storedHash *string, in ProgressInput) (store.ProgressPage, error) {
	slug, status, err := parseHeader(in.Slug, in.Status)
	if err != nil {
		return store.ProgressPage{}, err
	}
	en, ar, err := parsePayloads(document.KindProgress, in.DataEn, in.DataAr)
	if err != nil {
		return store.ProgressPage{}, err
	}
	hash := s.passwordHash(in.Password, storedHash)
	err = publish.Check(ctx, publish.Request{
		Kind:         document.KindProgress,
		ID:           id,
		Slug:         slug,
		Status:       status,
		DataEn:       en,
		DataAr:       ar,
		PasswordHash: derefString(hash),
	}, s.store.ProgressSlugOwner, s.now().UTC())
	if err != nil {
		return store.ProgressPage{}, asValidation(err)
	}
	return store.ProgressPage{
		Slug:               slug,
		Status:             status,
		ShowClient:         in.Flags.ShowClient,
		ShowPlan:           in.Flags.ShowPlan,
		ShowCalendar:       in.Flags.ShowCalendar,
		ShowAssets:         in.Flags.ShowAssets,
		ShowPayments:       in.Flags.ShowPayments,
		ShowMetaAds:        in.Flags.ShowMetaAds,
		AccessPasswordHash: hash,
		DataEn:             marshalPtr(en),
		DataAr:             marshalPtr(ar),
	}, nil
}

func (s *Service) DeleteProgress(ctx context.Context, id string) error {
	if err := s.store.DeleteProgressPage(ctx, id); err != nil {
		return err
	}
	s.unindex(document.KindProgress, id)
	return nil
}

// PublicProgress resolves /progress/{slug}. A visitor without access gets a
// LOCKED error.
func (s *Service) PublicProgress(ctx context.Context, slug string, access Access) (PublicProgressView, error) {
	p, err := s.store.GetProgressPageBySlug(ctx, publish.NormalizeSlug(slug))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return PublicProgressView{}, notFound()
		}
		return PublicProgressView{}, err
	}
	if p.Status != publish.StatusPublished {
		return PublicProgressView{}, notFound()
	}
	en := document.NormalizeProgress(p.DataEn)
	ar := document.NormalizeProgress(p.DataAr)
	view := PublicProgressView{
		Slug:  p.Slug,
		Flags: progressFlags(p),
		HasEn: en.Available(),
		HasAr: ar.Available(),
	}
	if !view.HasEn && !view.HasAr {
		return PublicProgressView{}, notFound()
	}
	if !access.allows(p.Slug) {
		return PublicProgressView{}, locked(p.Slug)
	}
	if view.HasEn {
		view.En = publicProgressLanguage(en, view.Flags)
	}
	if view.HasAr {
		view.Ar = publicProgressLanguage(ar, view.Flags)
	}
	return view, nil
}

// UnlockProgress checks a visitor's page password and returns the canonical
// slug to grant access to.
func (s *Service) UnlockProgress(ctx context.Context, slug, password string) (string, error) {
	if password == "" {
		return "", validationFailed("password", "Password is required.")
	}
	p, err := s.store.GetProgressPageBySlug(ctx, publish.NormalizeSlug(slug))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", incorrectPassword()
		}
		return "", err
	}
	if p.Status != publish.StatusPublished ||
		(!document.NormalizeProgress(p.DataEn).Available() && !document.NormalizeProgress(p.DataAr).Available()) {
		return "", incorrectPassword()
	}
	if err := s.checkPagePassword(password, p.AccessPasswordHash); err != nil {
		return "", err
	}
	return p.Slug, nil
}

func (s *Service) indexProgress(p store.ProgressPage) {
	s.index(document.KindProgress, p.ID, p.Slug, p.Status,
		document.NormalizeProgress(p.DataEn), document.NormalizeProgress(p.DataAr))
}

// passwordHash returns the hash a gated page holds after a save: a fresh one
// when a password was supplied, the stored one otherwise.
func (s *Service) passwordHash(password string, stored *string) *string {
	password = strings.TrimSpace(password)
	if password == "" {
		if !hasHash(stored) {
			return nil
		}
		return stored
	}
	hash := auth.HashPagePassword(s.secret, password)
	return &hash
}

func (s *Service) checkPagePassword(password string, stored *string) error {
	if !hasHash(stored) || !auth.PagePasswordMatches(s.secret, password, *stored) {
		return incorrectPassword()
	}
	return nil
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
