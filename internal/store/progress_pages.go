package store

import (
	"context"
	"fmt"
)

const progressColumns = `id, slug, status, show_client, show_plan, show_calendar, show_assets,
	show_payments, show_meta_ads, access_password_hash, data_en, data_ar, created_at, updated_at`

func scanProgressPage(row rowScanner) (ProgressPage, error) {
	var (
		p                ProgressPage
		created, updated nullTime
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Status,
		&p.ShowClient, &p.ShowPlan, &p.ShowCalendar, &p.ShowAssets, &p.ShowPayments, &p.ShowMetaAds,
		&p.AccessPasswordHash, &p.DataEn, &p.DataAr, &created, &updated,
	)
	if err != nil {
		return ProgressPage{}, err
	}
	p.CreatedAt = created.Time
	p.UpdatedAt = updated.Time
	return p, nil
}

func (s *SQLStore) ListProgressPages(ctx context.Context) ([]ProgressPage, error) {
	rows, err := s.query(ctx, `SELECT `+progressColumns+` FROM progress_pages ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list progress pages: %w", err)
	}
	defer rows.Close()

	items := make([]ProgressPage, 0)
	for rows.Next() {
		p, err := scanProgressPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress page: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list progress pages: %w", err)
	}
	return items, nil
}

func (s *SQLStore) GetProgressPage(ctx context.Context, id string) (ProgressPage, error) {
	p, err := scanProgressPage(s.queryRow(ctx, `SELECT `+progressColumns+` FROM progress_pages WHERE id = ?`, id))
	if err != nil {
		return ProgressPage{}, readErr("get progress page", err)
	}
	return p, nil
}

func (s *SQLStore) GetProgressPageBySlug(ctx context.Context, slug string) (ProgressPage, error) {
	p, err := scanProgressPage(s.queryRow(ctx, `SELECT `+progressColumns+` FROM progress_pages WHERE slug = ?`, slug))
	if err != nil {
		return ProgressPage{}, readErr("get progress page by slug", err)
	}
	return p, nil
}

func (s *SQLStore) CreateProgressPage(ctx context.Context, p ProgressPage) (ProgressPage, error) {
	p.CreatedAt, p.UpdatedAt = s.stamps(p.CreatedAt, p.UpdatedAt)
	_, err := s.exec(ctx, `
		INSERT INTO progress_pages (`+progressColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.Slug, p.Status,
		p.ShowClient, p.ShowPlan, p.ShowCalendar, p.ShowAssets, p.ShowPayments, p.ShowMetaAds,
		p.AccessPasswordHash, p.DataEn, p.DataAr,
		s.dialect.timeArg(p.CreatedAt), s.dialect.timeArg(p.UpdatedAt),
	)
	if err != nil {
		return ProgressPage{}, writeErr("insert progress page", err)
	}
	return p, nil
}

func (s *SQLStore) UpdateProgressPage(ctx context.Context, p ProgressPage) (ProgressPage, error) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now().UTC()
	}
	res, err := s.exec(ctx, `
		UPDATE progress_pages SET
			slug = ?, status = ?,
			show_client = ?, show_plan = ?, show_calendar = ?, show_assets = ?, show_payments = ?, show_meta_ads = ?,
			access_password_hash = ?, data_en = ?, data_ar = ?, updated_at = ?
		WHERE id = ?
	`,
		p.Slug, p.Status,
		p.ShowClient, p.ShowPlan, p.ShowCalendar, p.ShowAssets, p.ShowPayments, p.ShowMetaAds,
		p.AccessPasswordHash, p.DataEn, p.DataAr, s.dialect.timeArg(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return ProgressPage{}, writeErr("update progress page", err)
	}
	if err := expectRow(res, "progress_pages"); err != nil {
		return ProgressPage{}, err
	}
	return p, nil
}

func (s *SQLStore) DeleteProgressPage(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "progress_pages", id)
}

func (s *SQLStore) ProgressSlugOwner(ctx context.Context, slug string) (string, error) {
	return s.slugOwner(ctx, "progress_pages", slug)
}
