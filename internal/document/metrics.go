package document

import (
	"math"
	"strconv"
	"strings"
)

// Totals is the numeric sum of a group of ad metrics.
type Totals struct {
	Reach       float64 `json:"reach"`
	Messages    float64 `json:"messages"`
	Followers   float64 `json:"followers"`
	AmountSpent float64 `json:"amountSpent"`
	TimeDays    float64 `json:"timeDays"`
}

func (t Totals) add(m AdMetrics) Totals {
	t.Reach += ParseMetric(m.Reach)
	t.Messages += ParseMetric(m.Messages)
	t.Followers += ParseMetric(m.Followers)
	t.AmountSpent += ParseMetric(m.AmountSpent)
	t.TimeDays += ParseMetric(m.TimeDays)
	return t
}

var metricCleaner = strings.NewReplacer(",", "", " ", "")

// ParseMetric reads a metric string as a number after stripping thousands
// separators and spaces. Empty, non-numeric and non-finite values are 0.
func ParseMetric(value string) float64 {
	cleaned := strings.TrimSpace(metricCleaner.Replace(value))
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0
	}
	return parsed
}

// SumMetrics adds up a flat list of ad metrics.
func SumMetrics(metrics []AdMetrics) Totals {
	var totals Totals
	for _, m := range metrics {
		totals = totals.add(m)
	}
	return totals
}

func AdSetTotals(adSet AdSet) Totals {
	var totals Totals
	for _, ad := range adSet.Ads {
		totals = totals.add(ad.Metrics)
	}
	return totals
}

func CampaignTotals(campaign Campaign) Totals {
	var totals Totals
	for _, adSet := range campaign.AdSets {
		for _, ad := range adSet.Ads {
			totals = totals.add(ad.Metrics)
		}
	}
	return totals
}

type AdSetRollup struct {
	Name   string `json:"name"`
	Ads    int    `json:"ads"`
	Totals Totals `json:"totals"`
}

type CampaignRollup struct {
	Name   string        `json:"name"`
	AdSets []AdSetRollup `json:"adSets"`
	Totals Totals        `json:"totals"`
}

// ResultsRollup summarizes the whole campaign tree of a document.
type ResultsRollup struct {
	Campaigns     int              `json:"campaigns"`
	AdSets        int              `json:"adSets"`
	Ads           int              `json:"ads"`
	Totals        Totals           `json:"totals"`
	CampaignItems []CampaignRollup `json:"campaignItems"`
}

// Rollup computes per ad set, per campaign and grand totals for m.
func Rollup(m Meta) ResultsRollup {
	rollup := ResultsRollup{
		Campaigns:     len(m.Results.CampaignItems),
		CampaignItems: make([]CampaignRollup, 0, len(m.Results.CampaignItems)),
	}
	for _, campaign := range m.Results.CampaignItems {
		cr := CampaignRollup{
			Name:   campaign.Name,
			AdSets: make([]AdSetRollup, 0, len(campaign.AdSets)),
			Totals: CampaignTotals(campaign),
		}
		for _, adSet := range campaign.AdSets {
			cr.AdSets = append(cr.AdSets, AdSetRollup{
				Name:   adSet.Name,
				Ads:    len(adSet.Ads),
				Totals: AdSetTotals(adSet),
			})
			rollup.AdSets++
			rollup.Ads += len(adSet.Ads)
			for _, ad := range adSet.Ads {
				rollup.Totals = rollup.Totals.add(ad.Metrics)
			}
		}
		rollup.CampaignItems = append(rollup.CampaignItems, cr)
	}
	return rollup
}
