package store

import (
	"context"
	"fmt"
	"time"
)

const proposalColumns = `id, slug, status, show_vision, show_goals, show_work_plan, show_pricing,
	show_notes, show_noticed, expires_at, data_en, data_ar, created_at, updated_at`

func scanProposal(row rowScanner) (Proposal, error) {
	var (
		p                Proposal
		expires          nullTime
		created, updated nullTime
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Status,
		&p.ShowVision, &p.ShowGoals, &p.ShowWorkPlan, &p.ShowPricing, &p.ShowNotes, &p.ShowNoticed,
		&expires, &p.DataEn, &p.DataAr, &created, &updated,
	)
	if err != nil {
		return Proposal{}, err
	}
	p.ExpiresAt = expires.ptr()
	p.CreatedAt = created.Time
	p.UpdatedAt = updated.Time
	return p, nil
}

func (s *SQLStore) ListProposals(ctx context.Context) ([]Proposal, error) {
	rows, err := s.query(ctx, `SELECT `+proposalColumns+` FROM proposals ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	items := make([]Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return items, nil
}

func (s *SQLStore) GetProposal(ctx context.Context, id string) (Proposal, error) {
	p, err := scanProposal(s.queryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = ?`, id))
	if err != nil {
		return Proposal{}, readErr("get proposal", err)
	}
	return p, nil
}

func (s *SQLStore) GetProposalBySlug(ctx context.Context, slug string) (Proposal, error) {
	p, err := scanProposal(s.queryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE slug = ?`, slug))
	if err != nil {
		return Proposal{}, readErr("get proposal by slug", err)
	}
	return p, nil
}

// CreateProposal inserts p. Zero timestamps are filled with the current time.
func (s *SQLStore) CreateProposal(ctx context.Context, p Proposal) (Proposal, error) {
	p.CreatedAt, p.UpdatedAt = s.stamps(p.CreatedAt, p.UpdatedAt)
	_, err := s.exec(ctx, `
		INSERT INTO proposals (`+proposalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.Slug, p.Status,
		p.ShowVision, p.ShowGoals, p.ShowWorkPlan, p.ShowPricing, p.ShowNotes, p.ShowNoticed,
		s.dialect.nullTimeArg(p.ExpiresAt), p.DataEn, p.DataAr,
		s.dialect.timeArg(p.CreatedAt), s.dialect.timeArg(p.UpdatedAt),
	)
	if err != nil {
		return Proposal{}, writeErr("insert proposal", err)
	}
	return p, nil
}

// UpdateProposal overwrites every mutable column of the proposal with p.ID.
func (s *SQLStore) UpdateProposal(ctx context.Context, p Proposal) (Proposal, error) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now().UTC()
	}
	res, err := s.exec(ctx, `
		UPDATE proposals SET
			slug = ?, status = ?,
			show_vision = ?, show_goals = ?, show_work_plan = ?, show_pricing = ?, show_notes = ?, show_noticed = ?,
			expires_at = ?, data_en = ?, data_ar = ?, updated_at = ?
		WHERE id = ?
	`,
		p.Slug, p.Status,
		p.ShowVision, p.ShowGoals, p.ShowWorkPlan, p.ShowPricing, p.ShowNotes, p.ShowNoticed,
		s.dialect.nullTimeArg(p.ExpiresAt), p.DataEn, p.DataAr, s.dialect.timeArg(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return Proposal{}, writeErr("update proposal", err)
	}
	if err := expectRow(res, "proposals"); err != nil {
		return Proposal{}, err
	}
	return p, nil
}

func (s *SQLStore) DeleteProposal(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "proposals", id)
}

func (s *SQLStore) ProposalSlugOwner(ctx context.Context, slug string) (string, error) {
	return s.slugOwner(ctx, "proposals", slug)
}

// RevertExpiredProposals sets every published proposal whose expiry is at
// or before now back to draft and returns how many changed.
func (s *SQLStore) RevertExpiredProposals(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.exec(ctx, `
		UPDATE proposals SET status = 'DRAFT', updated_at = ?
		WHERE status = 'PUBLISHED' AND expires_at IS NOT NULL AND expires_at <= ?
	`, s.dialect.timeArg(now), s.dialect.timeArg(now))
	if err != nil {
		return 0, fmt.Errorf("revert expired proposals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revert expired proposals: %w", err)
	}
	return n, nil
}

// RevertExpiredProposal is RevertExpiredProposals limited to one id.
func (s *SQLStore) RevertExpiredProposal(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := s.exec(ctx, `
		UPDATE proposals SET status = 'DRAFT', updated_at = ?
		WHERE id = ? AND status = 'PUBLISHED' AND expires_at IS NOT NULL AND expires_at <= ?
	`, s.dialect.timeArg(now), id, s.dialect.timeArg(now))
	if err != nil {
		return false, fmt.Errorf("revert expired proposal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revert expired proposal: %w", err)
	}
	return n > 0, nil
}

// ReplaceProposals deletes every proposal and inserts items in one
// transaction.
func (s *SQLStore) ReplaceProposals(ctx context.Context, items []Proposal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace proposals: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM proposals`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear proposals: %w", err)
	}
	insert := s.dialect.rebind(`INSERT INTO proposals (` + proposalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, p := range items {
		p.CreatedAt, p.UpdatedAt = s.stamps(p.CreatedAt, p.UpdatedAt)
		if _, err := tx.ExecContext(ctx, insert,
			p.ID, p.Slug, p.Status,
			p.ShowVision, p.ShowGoals, p.ShowWorkPlan, p.ShowPricing, p.ShowNotes, p.ShowNoticed,
			s.dialect.nullTimeArg(p.ExpiresAt), p.DataEn, p.DataAr,
			s.dialect.timeArg(p.CreatedAt), s.dialect.timeArg(p.UpdatedAt),
		); err != nil {
			_ = tx.Rollback()
			return writeErr("insert proposal", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace proposals: %w", err)
	}
	return nil
}
