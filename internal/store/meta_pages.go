package store

import (
	"context"
	"fmt"
)

const metaColumns = `id, slug, status, show_client, show_wallet, show_results, show_plan,
	access_password_hash, data_en, data_ar, created_at, updated_at`

func scanMetaPage(row rowScanner) (MetaPage, error) {
	var (
		p                MetaPage
		created, updated nullTime
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Status,
		&p.ShowClient, &p.ShowWallet, &p.ShowResults, &p.ShowPlan,
		&p.AccessPasswordHash, &p.DataEn, &p.DataAr, &created, &updated,
	)
	if err != nil {
		return MetaPage{}, err
	}
	p.CreatedAt = created.Time
	p.UpdatedAt = updated.Time
	return p, nil
}

func (s *SQLStore) ListMetaPages(ctx context.Context) ([]MetaPage, error) {
	rows, err := s.query(ctx, `SELECT `+metaColumns+` FROM meta_pages ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list meta pages: %w", err)
	}
	defer rows.Close()

	items := make([]MetaPage, 0)
	for rows.Next() {
		p, err := scanMetaPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meta page: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list meta pages: %w", err)
	}
	return items, nil
}

func (s *SQLStore) GetMetaPage(ctx context.Context, id string) (MetaPage, error) {
	p, err := scanMetaPage(s.queryRow(ctx, `SELECT `+metaColumns+` FROM meta_pages WHERE id = ?`, id))
	if err != nil {
		return MetaPage{}, readErr("get meta page", err)
	}
	return p, nil
}

func (s *SQLStore) GetMetaPageBySlug(ctx context.Context, slug string) (MetaPage, error) {
	p, err := scanMetaPage(s.queryRow(ctx, `SELECT `+metaColumns+` FROM meta_pages WHERE slug = ?`, slug))
	if err != nil {
		return MetaPage{}, readErr("get meta page by slug", err)
	}
	return p, nil
}

func (s *SQLStore) CreateMetaPage(ctx context.Context, p MetaPage) (MetaPage, error) {
	p.CreatedAt, p.UpdatedAt = s.stamps(p.CreatedAt, p.UpdatedAt)
	_, err := s.exec(ctx, `
		INSERT INTO meta_pages (`+metaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.Slug, p.Status,
		p.ShowClient, p.ShowWallet, p.ShowResults, p.ShowPlan,
		p.AccessPasswordHash, p.DataEn, p.DataAr,
		s.dialect.timeArg(p.CreatedAt), s.dialect.timeArg(p.UpdatedAt),
	)
	if err != nil {
		return MetaPage{}, writeErr("insert meta page", err)
	}
	return p, nil
}

func (s *SQLStore) UpdateMetaPage(ctx context.Context, p MetaPage) (MetaPage, error) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now().UTC()
	}
	res, err := s.exec(ctx, `
		UPDATE meta_pages SET
			slug = ?, status = ?,
			show_client = ?, show_wallet = ?, show_results = ?, show_plan = ?,
			access_password_hash = ?, data_en = ?, data_ar = ?, updated_at = ?
		WHERE id = ?
	`,
		p.Slug, p.Status,
		p.ShowClient, p.ShowWallet, p.ShowResults, p.ShowPlan,
		p.AccessPasswordHash, p.DataEn, p.DataAr, s.dialect.timeArg(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return MetaPage{}, writeErr("update meta page", err)
	}
	if err := expectRow(res, "meta_pages"); err != nil {
		return MetaPage{}, err
	}
	return p, nil
}

func (s *SQLStore) DeleteMetaPage(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "meta_pages", id)
}

func (s *SQLStore) MetaSlugOwner(ctx context.Context, slug string) (string, error) {
	return s.slugOwner(ctx, "meta_pages", slug)
}
