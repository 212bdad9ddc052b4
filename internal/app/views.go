package app

import (
	"strings"
	"time"

	"pagebuilder/internal/document"
	"pagebuilder/internal/store"
)

// ListItem is one row of a dashboard listing.
type ListItem struct {
	ID          string        `json:"id"`
	Kind        document.Kind `json:"kind"`
	Slug        string        `json:"slug"`
	Status      string        `json:"status"`
	TitleEn     string        `json:"titleEn"`
	TitleAr     string        `json:"titleAr"`
	HasEn       bool          `json:"hasEn"`
	HasAr       bool          `json:"hasAr"`
	HasPassword bool          `json:"hasPassword,omitempty"`
	ExpiresAt   *time.Time    `json:"expiresAt,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func listItem(kind document.Kind, id, slug, status string, en, ar document.Document, updated time.Time) ListItem {
	return ListItem{
		ID:        id,
		Kind:      kind,
		Slug:      slug,
		Status:    status,
		TitleEn:   document.Title(en),
		TitleAr:   document.Title(ar),
		HasEn:     en.Available(),
		HasAr:     ar.Available(),
		UpdatedAt: updated,
	}
}

type ProposalFlags struct {
	ShowVision   bool `json:"showVision"`
	ShowGoals    bool `json:"showGoals"`
	ShowWorkPlan bool `json:"showWorkPlan"`
	ShowPricing  bool `json:"showPricing"`
	ShowNotes    bool `json:"showNotes"`
	ShowNoticed  bool `json:"showNoticed"`
}

type ProgressFlags struct {
	ShowClient   bool `json:"showClient"`
	ShowPlan     bool `json:"showPlan"`
	ShowCalendar bool `json:"showCalendar"`
	ShowAssets   bool `json:"showAssets"`
	ShowPayments bool `json:"showPayments"`
	ShowMetaAds  bool `json:"showMetaAds"`
}

type MetaFlags struct {
	ShowClient  bool `json:"showClient"`
	ShowWallet  bool `json:"showWallet"`
	ShowResults bool `json:"showResults"`
	ShowPlan    bool `json:"showPlan"`
}

// ProposalView is a proposal as the editor sees it.
type ProposalView struct {
	ID        string            `json:"id"`
	Slug      string            `json:"slug"`
	Status    string            `json:"status"`
	Flags     ProposalFlags     `json:"flags"`
	ExpiresAt *time.Time        `json:"expiresAt"`
	DataEn    document.Proposal `json:"dataEn"`
	DataAr    document.Proposal `json:"dataAr"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func proposalFlags(p store.Proposal) ProposalFlags {
	return ProposalFlags{
		ShowVision:   p.ShowVision,
		ShowGoals:    p.ShowGoals,
		ShowWorkPlan: p.ShowWorkPlan,
		ShowPricing:  p.ShowPricing,
		ShowNotes:    p.ShowNotes,
		ShowNoticed:  p.ShowNoticed,
	}
}

func proposalView(p store.Proposal) ProposalView {
	return ProposalView{
		ID:        p.ID,
		Slug:      p.Slug,
		Status:    p.Status,
		Flags:     proposalFlags(p),
		ExpiresAt: p.ExpiresAt,
		DataEn:    document.NormalizeProposal(p.DataEn),
		DataAr:    document.NormalizeProposal(p.DataAr),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ProgressView never carries the password hash, only whether one is set.
type ProgressView struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Status      string            `json:"status"`
	Flags       ProgressFlags     `json:"flags"`
	HasPassword bool              `json:"hasPassword"`
	DataEn      document.Progress `json:"dataEn"`
	DataAr      document.Progress `json:"dataAr"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func progressFlags(p store.ProgressPage) ProgressFlags {
	return ProgressFlags{
		ShowClient:   p.ShowClient,
		ShowPlan:     p.ShowPlan,
		ShowCalendar: p.ShowCalendar,
		ShowAssets:   p.ShowAssets,
		ShowPayments: p.ShowPayments,
		ShowMetaAds:  p.ShowMetaAds,
	}
}

func progressView(p store.ProgressPage) ProgressView {
	return ProgressView{
		ID:          p.ID,
		Slug:        p.Slug,
		Status:      p.Status,
		Flags:       progressFlags(p),
		HasPassword: hasHash(p.AccessPasswordHash),
		DataEn:      document.NormalizeProgress(p.DataEn),
		DataAr:      document.NormalizeProgress(p.DataAr),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type MetaView struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Status      string        `json:"status"`
	Flags       MetaFlags     `json:"flags"`
	HasPassword bool          `json:"hasPassword"`
	DataEn      document.Meta `json:"dataEn"`
	DataAr      document.Meta `json:"dataAr"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func metaFlags(p store.MetaPage) MetaFlags {
	return MetaFlags{
		ShowClient:  p.ShowClient,
		ShowWallet:  p.ShowWallet,
		ShowResults: p.ShowResults,
		ShowPlan:    p.ShowPlan,
	}
}

// metaView opens a meta page for editing, so legacy flat metrics are
// wrapped into a campaign.
func metaView(p store.MetaPage) MetaView {
	return MetaView{
		ID:          p.ID,
		Slug:        p.Slug,
		Status:      p.Status,
		Flags:       metaFlags(p),
		HasPassword: hasHash(p.AccessPasswordHash),
		DataEn:      document.SeedCampaignsFromLegacy(document.NormalizeMeta(p.DataEn)),
		DataAr:      document.SeedCampaignsFromLegacy(document.NormalizeMeta(p.DataAr)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// PublicProposalView is what /p/{slug} renders. Hidden sections are
// emptied and unavailable languages are omitted.
type PublicProposalView struct {
	Slug   string             `json:"slug"`
	Flags  ProposalFlags      `json:"flags"`
	HasEn  bool               `json:"hasEn"`
	HasAr  bool               `json:"hasAr"`
	DataEn *document.Proposal `json:"dataEn,omitempty"`
	DataAr *document.Proposal `json:"dataAr,omitempty"`
}

func redactProposal(doc document.Proposal, flags ProposalFlags) document.Proposal {
	if !flags.ShowVision {
		doc.VisionHTML = ""
	}
	if !flags.ShowGoals {
		doc.Goals = []string{}
	}
	if !flags.ShowNoticed {
		doc.Noticed = []string{}
	}
	if !flags.ShowWorkPlan {
		doc.WorkPlan = []document.WorkPlanBlock{}
	}
	if !flags.ShowPricing {
		doc.Pricing = []document.PricingPackage{}
	}
	if !flags.ShowNotes {
		doc.NotesHTML = ""
	}
	return doc
}

// PublicProgressLanguage is one language of a public progress page with
// its derived figures.
type PublicProgressLanguage struct {
	Data     document.Progress        `json:"data"`
	Calendar []document.CalendarItem  `json:"calendar"`
	Summary  document.ProgressSummary `json:"summary"`
}

type PublicProgressView struct {
	Slug  string                  `json:"slug"`
	Flags ProgressFlags           `json:"flags"`
	HasEn bool                    `json:"hasEn"`
	HasAr bool                    `json:"hasAr"`
	En    *PublicProgressLanguage `json:"en,omitempty"`
	Ar    *PublicProgressLanguage `json:"ar,omitempty"`
}

func publicProgressLanguage(doc document.Progress, flags ProgressFlags) *PublicProgressLanguage {
	summary := doc.Summary()
	if !flags.ShowClient {
		doc.Client = document.Client{}
	}
	if !flags.ShowPlan {
		doc.WorkPlan = document.ProgressWorkPlan{Points: []document.ProgressPoint{}}
	}
	if !flags.ShowCalendar {
		doc.Calendar = []document.CalendarItem{}
	}
	if !flags.ShowAssets {
		doc.AssetsURL = ""
	}
	if !flags.ShowPayments {
		doc.Payments.AgreedPrice = ""
		doc.Payments.Entries = []document.PaymentEntry{}
	}
	if !flags.ShowMetaAds {
		doc.Payments.MetaAdsBalance = ""
	}
	// Blank rows are editor placeholders.
	points := make([]document.ProgressPoint, 0, len(doc.WorkPlan.Points))
	for _, point := range doc.WorkPlan.Points {
		if strings.TrimSpace(point.Text) != "" {
			points = append(points, point)
		}
	}
	doc.WorkPlan.Points = points
	entries := make([]document.PaymentEntry, 0, len(doc.Payments.Entries))
	for _, entry := range doc.Payments.Entries {
		if strings.TrimSpace(entry.Amount) != "" || strings.TrimSpace(entry.Description) != "" {
			entries = append(entries, entry)
		}
	}
	doc.Payments.Entries = entries

	lang := &PublicProgressLanguage{
		Data:     doc,
		Calendar: document.DisplayCalendar(doc.Calendar),
	}
	if flags.ShowPlan {
		lang.Summary.PointsDone = summary.PointsDone
		lang.Summary.PointsTotal = summary.PointsTotal
		lang.Summary.PlanPercent = summary.PlanPercent
	}
	if flags.ShowPayments {
		lang.Summary.TotalPaid = summary.TotalPaid
		lang.Summary.AgreedPrice = summary.AgreedPrice
		lang.Summary.PaidFraction = summary.PaidFraction
	}
	return lang
}

type PublicMetaLanguage struct {
	Data   document.Meta          `json:"data"`
	Rollup document.ResultsRollup `json:"rollup"`
}

type PublicMetaView struct {
	Slug  string              `json:"slug"`
	Flags MetaFlags           `json:"flags"`
	HasEn bool                `json:"hasEn"`
	HasAr bool                `json:"hasAr"`
	En    *PublicMetaLanguage `json:"en,omitempty"`
	Ar    *PublicMetaLanguage `json:"ar,omitempty"`
}

func publicMetaLanguage(doc document.Meta, flags MetaFlags) *PublicMetaLanguage {
	doc = document.SeedCampaignsFromLegacy(doc)
	lang := &PublicMetaLanguage{Rollup: document.Rollup(doc)}
	if !flags.ShowClient {
		doc.Client = document.Client{}
	}
	if !flags.ShowWallet {
		doc.WalletBalance = ""
		doc.WalletUpdatedAt = ""
	}
	if !flags.ShowResults {
		doc.Results = document.EmptyMeta().Results
		lang.Rollup = document.Rollup(doc)
	}
	if !flags.ShowPlan {
		doc.Plan = document.Plan{Points: []string{}}
	}
	lang.Data = doc
	return lang
}

func hasHash(hash *string) bool {
	return hash != nil && *hash != ""
}
