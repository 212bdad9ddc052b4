// Package seed loads the demo proposals used for local development.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"pagebuilder/internal/document"
	"pagebuilder/internal/publish"
	"pagebuilder/internal/store"
	"pagebuilder/internal/util"
)

var (
	//go:embed data/proposal_en.json
	proposalEn []byte
	//go:embed data/proposal_ar.json
	proposalAr []byte
)

const (
	SlugEnglish = "ozmo-growth-en"
	SlugArabic  = "ozmo-growth-ar"
)

// ProposalReplacer swaps the full proposal set.
type ProposalReplacer interface {
	ReplaceProposals(ctx context.Context, items []store.Proposal) error
}

// Proposals returns the demo records: one published English-only proposal
// and one published Arabic-only proposal.
func Proposals() []store.Proposal {
	en := document.Marshal(document.NormalizeProposal(proposalEn))
	ar := document.Marshal(document.NormalizeProposal(proposalAr))
	return []store.Proposal{
		demoProposal(SlugEnglish, &en, nil),
		demoProposal(SlugArabic, nil, &ar),
	}
}

func demoProposal(slug string, dataEn, dataAr *string) store.Proposal {
	return store.Proposal{
		ID:           util.NewID(""),
		Slug:         slug,
		Status:       publish.StatusPublished,
		ShowVision:   true,
		ShowGoals:    true,
		ShowWorkPlan: true,
		ShowPricing:  true,
		ShowNotes:    true,
		ShowNoticed:  true,
		DataEn:       dataEn,
		DataAr:       dataAr,
	}
}

// Run deletes every proposal and inserts the demo set.
func Run(ctx context.Context, target ProposalReplacer) error {
	if err := target.ReplaceProposals(ctx, Proposals()); err != nil {
		return fmt.Errorf("seed proposals: %w", err)
	}
	return nil
}
