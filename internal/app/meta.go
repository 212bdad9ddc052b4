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

func (s *Service) ListMeta(ctx context.Context) ([]ListItem, error) {
	items, err := s.store.ListMetaPages(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ListItem, 0, len(items))
	for _, p := range items {
		item := listItem(document.KindMeta, p.ID, p.Slug, p.Status,
			document.NormalizeMeta(p.DataEn), document.NormalizeMeta(p.DataAr), p.UpdatedAt)
		item.HasPassword = hasHash(p.AccessPasswordHash)
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) GetMeta(ctx context.Context, id string) (MetaView, error) {
	p, err := s.store.GetMetaPage(ctx, id)
	if err != nil {
		return MetaView{}, err
	}
	return metaView(p), nil
}

func (s *Service) CreateMeta(ctx context.Context, in MetaInput) (MetaView, error) {
	p, en, ar, err := s.buildMeta(ctx, "", nil, in)
	if err != nil {
		return MetaView{}, err
	}
	now := s.now()
	en = document.StampMetaChanges(document.EmptyMeta(), en, now)
	ar = document.StampMetaChanges(document.EmptyMeta(), ar, now)
	p.ID = util.NewID("")
	p.CreatedAt = s.now().UTC()
	p.UpdatedAt = p.CreatedAt
	p.DataEn = marshalPtr(en)
	p.DataAr = marshalPtr(ar)
	created, err := s.store.CreateMetaPage(ctx, p)
	if err != nil {
		return MetaView{}, slugErr(err)
	}
	s.indexMeta(created)
	return metaView(created), nil
}

// UpdateMeta saves a meta page, stamping changed wallet and spend figures
// and removing uploaded media the new version no longer references.
func (s *Service) UpdateMeta(ctx context.Context, id string, in MetaInput) (MetaView, error) {
	existing, err := s.store.GetMetaPage(ctx, id)
	if err != nil {
		return MetaView{}, err
	}
	p, en, ar, err := s.buildMeta(ctx, id, existing.AccessPasswordHash, in)
	if err != nil {
		return MetaView{}, err
	}
	prevEn := document.NormalizeMeta(existing.DataEn)
	prevAr := document.NormalizeMeta(existing.DataAr)
	now := s.now()
	en = document.StampMetaChanges(prevEn, en, now)
	ar = document.StampMetaChanges(prevAr, ar, now)

	p.ID = id
	p.DataEn = marshalPtr(en)
	p.DataAr = marshalPtr(ar)
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = now.UTC()
	updated, err := s.store.UpdateMetaPage(ctx, p)
	if err != nil {
		return MetaView{}, slugErr(err)
	}
	s.indexMeta(updated)
	s.dropReplacedMedia(ctx, id, []document.Meta{prevEn, prevAr}, []document.Meta{en, ar})
	return metaView(updated), nil
}

func (s *Service) buildMeta(ctx context.Context, id string, storedHash *string, in MetaInput) (store.MetaPage, document.Meta, document.Meta, error) {
	var zero document.Meta
	slug, status, err := parseHeader(in.Slug, in.Status)
	if err != nil {
		return store.MetaPage{}, zero, zero, err
	}
	enDoc, arDoc, err := parsePayloads(document.KindMeta, in.DataEn, in.DataAr)
	if err != nil {
		return store.MetaPage{}, zero, zero, err
	}
	hash := s.passwordHash(in.Password, storedHash)
	err = publish.Check(ctx, publish.Request{
		Kind:         document.KindMeta,
		ID:           id,
		Slug:         slug,
		Status:       status,
		DataEn:       enDoc,
		DataAr:       arDoc,
		PasswordHash: derefString(hash),
	}, s.store.MetaSlugOwner, s.now().UTC())
	if err != nil {
		return store.MetaPage{}, zero, zero, asValidation(err)
	}
	return store.MetaPage{
		Slug:               slug,
		Status:             status,
		ShowClient:         in.Flags.ShowClient,
		ShowWallet:         in.Flags.ShowWallet,
		ShowResults:        in.Flags.ShowResults,
		ShowPlan:           in.Flags.ShowPlan,
		AccessPasswordHash: hash,
	}, enDoc.(document.Meta), arDoc.(document.Meta), nil
}

// dropReplacedMedia deletes blobs referenced by prev but by none of next.
// Failures are logged only.
func (s *Service) dropReplacedMedia(ctx context.Context, id string, prev, next []document.Meta) {
	if s.blobs == nil {
		return
	}
	keep := map[string]bool{}
	for _, doc := range next {
		for _, url := range document.MediaURLs(doc) {
			keep[url] = true
		}
	}
	for _, doc := range prev {
		for _, url := range document.MediaURLs(doc) {
			if keep[url] {
				continue
			}
			keep[url] = true
			if err := s.blobs.Delete(ctx, url); err != nil {
				s.warn("delete replaced media", err, zap.String("id", id), zap.String("url", url))
			}
		}
	}
}

func (s *Service) DeleteMeta(ctx context.Context, id string) error {
	if err := s.store.DeleteMetaPage(ctx, id); err != nil {
		return err
	}
	s.unindex(document.KindMeta, id)
	return nil
}

// PublicMeta resolves /meta/{slug}. A visitor without access gets a LOCKED
// error.
func (s *Service) PublicMeta(ctx context.Context, slug string, access Access) (PublicMetaView, error) {
	p, err := s.store.GetMetaPageBySlug(ctx, publish.NormalizeSlug(slug))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return PublicMetaView{}, notFound()
		}
		return PublicMetaView{}, err
	}
	if p.Status != publish.StatusPublished {
		return PublicMetaView{}, notFound()
	}
	en := document.NormalizeMeta(p.DataEn)
	ar := document.NormalizeMeta(p.DataAr)
	view := PublicMetaView{
		Slug:  p.Slug,
		Flags: metaFlags(p),
		HasEn: en.Available(),
		HasAr: ar.Available(),
	}
	if !view.HasEn && !view.HasAr {
		return PublicMetaView{}, notFound()
	}
	if !access.allows(p.Slug) {
		return PublicMetaView{}, locked(p.Slug)
	}
	if view.HasEn {
		view.En = publicMetaLanguage(en, view.Flags)
	}
	if view.HasAr {
		view.Ar = publicMetaLanguage(ar, view.Flags)
	}
	return view, nil
}

func (s *Service) UnlockMeta(ctx context.Context, slug, password string) (string, error) {
	if password == "" {
		return "", validationFailed("password", "Password is required.")
	}
	p, err := s.store.GetMetaPageBySlug(ctx, publish.NormalizeSlug(slug))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", incorrectPassword()
		}
		return "", err
	}
	if p.Status != publish.StatusPublished ||
		(!document.NormalizeMeta(p.DataEn).Available() && !document.NormalizeMeta(p.DataAr).Available()) {
		return "", incorrectPassword()
	}
	if err := s.checkPagePassword(password, p.AccessPasswordHash); err != nil {
		return "", err
	}
	return p.Slug, nil
}

func (s *Service) indexMeta(p store.MetaPage) {
	s.index(document.KindMeta, p.ID, p.Slug, p.Status,
		document.NormalizeMeta(p.DataEn), document.NormalizeMeta(p.DataAr))
}
