package document

import (
	"time"
)

// TimestampLayout is the format used for auto-stamped update times.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type AdMetrics struct {
	Reach       string `json:"reach"`
	Messages    string `json:"messages"`
	Followers   string `json:"followers"`
	AmountSpent string `json:"amountSpent"`
	TimeDays    string `json:"timeDays"`
}

type Ad struct {
	Name    string    `json:"name"`
	Metrics AdMetrics `json:"metrics"`
}

type AdSet struct {
	Name string `json:"name"`
	Ads  []Ad   `json:"ads"`
}

type Campaign struct {
	Name   string  `json:"name"`
	AdSets []AdSet `json:"adSets"`
}

// Results holds both the legacy flat metrics and the nested campaign tree
// that replaced them.
type Results struct {
	Reach                string     `json:"reach"`
	Messages             string     `json:"messages"`
	Campaigns            string     `json:"campaigns"`
	Followers            string     `json:"followers"`
	AmountSpent          string     `json:"amountSpent"`
	TimeDays             string     `json:"timeDays"`
	AmountSpentUpdatedAt string     `json:"amountSpentUpdatedAt"`
	MediaURL             string     `json:"mediaUrl"`
	MediaLabel           string     `json:"mediaLabel"`
	LinkURL              string     `json:"linkUrl"`
	LinkLabel            string     `json:"linkLabel"`
	CampaignItems        []Campaign `json:"campaignItems"`
}

type Plan struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

type Meta struct {
	Client          Client  `json:"client"`
	WalletBalance   string  `json:"walletBalance"`
	WalletUpdatedAt string  `json:"walletUpdatedAt"`
	Results         Results `json:"results"`
	Plan            Plan    `json:"plan"`
}

func (Meta) Kind() Kind { return KindMeta }

// Available reports whether the client name is filled in.
func (m Meta) Available() bool {
	return !blank(m.Client.Name)
}

func EmptyMeta() Meta {
	return Meta{
		Results: Results{
			CampaignItems: []Campaign{},
		},
		Plan: Plan{
			Points: []string{""},
		},
	}
}

// NormalizeMeta builds a Meta document from untrusted input.
func NormalizeMeta(input any) Meta {
	base := EmptyMeta()
	data, ok := decodeObject(input)
	if !ok {
		return base
	}

	client := data.child("client")
	results := data.child("results")
	plan := data.child("plan")

	out := Meta{
		Client: Client{
			Name:        client.str("name"),
			Description: client.str("description"),
		},
		WalletBalance:   data.str("walletBalance"),
		WalletUpdatedAt: data.str("walletUpdatedAt"),
		Results: Results{
			Reach:                results.str("reach"),
			Messages:             results.str("messages"),
			Campaigns:            results.str("campaigns"),
			Followers:            results.str("followers"),
			AmountSpent:          results.str("amountSpent"),
			TimeDays:             results.str("timeDays"),
			AmountSpentUpdatedAt: results.str("amountSpentUpdatedAt"),
			MediaURL:             results.str("mediaUrl"),
			MediaLabel:           results.str("mediaLabel"),
			LinkURL:              results.str("linkUrl"),
			LinkLabel:            results.str("linkLabel"),
			CampaignItems:        base.Results.CampaignItems,
		},
		Plan: Plan{
			Title:  plan.str("title"),
			Points: base.Plan.Points,
		},
	}
	if items, ok := asArray(results.get("campaignItems")); ok {
		out.Results.CampaignItems = normalizeCampaigns(items)
	}
	if plan.has("points") {
		out.Plan.Points = stringArray(plan.get("points"))
	}
	return out
}

func normalizeCampaigns(items []any) []Campaign {
	campaigns := make([]Campaign, 0, len(items))
	for _, item := range items {
		campaign := asObject(item)
		adSetItems, _ := asArray(campaign.get("adSets"))
		adSets := make([]AdSet, 0, len(adSetItems))
		for _, adSetItem := range adSetItems {
			adSets = append(adSets, normalizeAdSet(asObject(adSetItem)))
		}
		campaigns = append(campaigns, Campaign{
			Name:   campaign.str("name"),
			AdSets: adSets,
		})
	}
	return campaigns
}

func normalizeAdSet(adSet object) AdSet {
	adItems, _ := asArray(adSet.get("ads"))
	ads := make([]Ad, 0, len(adItems))
	for _, adItem := range adItems {
		ads = append(ads, normalizeAd(asObject(adItem)))
	}
	return AdSet{
		Name: adSet.str("name"),
		Ads:  ads,
	}
}

// normalizeAd accepts both the nested form and older ads that carried their
// metrics inline.
func normalizeAd(ad object) Ad {
	source := ad
	if metrics := ad.get("metrics"); metrics != nil {
		source = asObject(metrics)
	}
	return Ad{
		Name:    ad.str("name"),
		Metrics: normalizeAdMetrics(source),
	}
}

func normalizeAdMetrics(metrics object) AdMetrics {
	return AdMetrics{
		Reach:       metrics.str("reach"),
		Messages:    metrics.str("messages"),
		Followers:   metrics.str("followers"),
		AmountSpent: metrics.str("amountSpent"),
		TimeDays:    metrics.str("timeDays"),
	}
}

func (r Results) legacyMetrics() AdMetrics {
	return AdMetrics{
		Reach:       r.Reach,
		Messages:    r.Messages,
		Followers:   r.Followers,
		AmountSpent: r.AmountSpent,
		TimeDays:    r.TimeDays,
	}
}

func (m AdMetrics) blank() bool {
	return blank(m.Reach) && blank(m.Messages) && blank(m.Followers) && blank(m.AmountSpent) && blank(m.TimeDays)
}

// SeedCampaignsFromLegacy wraps legacy flat result metrics into a single
// campaign, ad set and ad. Documents that already have campaigns, or whose
// legacy metrics are all blank, are returned unchanged.
func SeedCampaignsFromLegacy(m Meta) Meta {
	if len(m.Results.CampaignItems) > 0 {
		return m
	}
	legacy := m.Results.legacyMetrics()
	if legacy.blank() {
		return m
	}
	m.Results.CampaignItems = []Campaign{{
		AdSets: []AdSet{{
			Ads: []Ad{{Metrics: legacy}},
		}},
	}}
	return m
}

// StampMetaChanges returns next with walletUpdatedAt and
// results.amountSpentUpdatedAt set to now when the wallet balance or the
// amount spent differ from prev. Amount spent counts as changed when either
// the flat field or the campaign total moved.
func StampMetaChanges(prev, next Meta, now time.Time) Meta {
	stamp := now.UTC().Format(TimestampLayout)
	if next.WalletBalance != prev.WalletBalance {
		next.WalletUpdatedAt = stamp
	}
	spentChanged := next.Results.AmountSpent != prev.Results.AmountSpent ||
		Rollup(next).Totals.AmountSpent != Rollup(prev).Totals.AmountSpent
	if spentChanged {
		next.Results.AmountSpentUpdatedAt = stamp
	}
	return next
}

// MediaURLs lists the uploaded media referenced by the document.
func MediaURLs(m Meta) []string {
	if blank(m.Results.MediaURL) {
		return []string{}
	}
	return []string{m.Results.MediaURL}
}
