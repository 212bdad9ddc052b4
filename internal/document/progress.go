package document

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ProgressPoint struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type ProgressWorkPlan struct {
	Brief  string          `json:"brief"`
	Points []ProgressPoint `json:"points"`
}

type CalendarItem struct {
	Date   string   `json:"date"`
	Time   string   `json:"time,omitempty"`
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

type PaymentEntry struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
}

type Payments struct {
	AgreedPrice    string         `json:"agreedPrice"`
	Entries        []PaymentEntry `json:"entries"`
	MetaAdsBalance string         `json:"metaAdsBalance"`
}

type Progress struct {
	Client    Client           `json:"client"`
	WorkPlan  ProgressWorkPlan `json:"workPlan"`
	Calendar  []CalendarItem   `json:"calendar"`
	AssetsURL string           `json:"assetsUrl"`
	Payments  Payments         `json:"payments"`
}

func (Progress) Kind() Kind { return KindProgress }

// Available reports whether the client name is filled in.
func (p Progress) Available() bool {
	return !blank(p.Client.Name)
}

func EmptyProgress() Progress {
	return Progress{
		WorkPlan: ProgressWorkPlan{
			Points: []ProgressPoint{{}},
		},
		Calendar: []CalendarItem{},
		Payments: Payments{
			Entries: []PaymentEntry{{}},
		},
	}
}

// NormalizeProgress builds a Progress document from untrusted input.
func NormalizeProgress(input any) Progress {
	base := EmptyProgress()
	data, ok := decodeObject(input)
	if !ok {
		return base
	}

	client := data.child("client")
	workPlan := data.child("workPlan")
	payments := data.child("payments")

	out := Progress{
		Client: Client{
			Name:        client.str("name"),
			Description: client.str("description"),
		},
		WorkPlan: ProgressWorkPlan{
			Brief:  workPlan.str("brief"),
			Points: base.WorkPlan.Points,
		},
		Calendar:  base.Calendar,
		AssetsURL: data.str("assetsUrl"),
		Payments: Payments{
			AgreedPrice:    payments.str("agreedPrice"),
			Entries:        base.Payments.Entries,
			MetaAdsBalance: payments.str("metaAdsBalance"),
		},
	}
	if workPlan.has("points") {
		out.WorkPlan.Points = normalizeProgressPoints(workPlan.get("points"))
	}
	if data.has("calendar") {
		out.Calendar = normalizeCalendar(data.get("calendar"))
	}
	if payments.has("entries") {
		out.Payments.Entries = normalizePaymentEntries(payments.get("entries"))
	}
	return out
}

func normalizeProgressPoints(value any) []ProgressPoint {
	items, _ := asArray(value)
	points := make([]ProgressPoint, 0, len(items))
	for _, item := range items {
		point := asObject(item)
		points = append(points, ProgressPoint{
			Text: point.str("text"),
			Done: truthy(point.get("done")),
		})
	}
	return points
}

func normalizeCalendar(value any) []CalendarItem {
	items, _ := asArray(value)
	calendar := make([]CalendarItem, 0, len(items))
	for _, item := range items {
		entry := asObject(item)
		calendar = append(calendar, CalendarItem{
			Date:   entry.str("date"),
			Time:   entry.str("time"),
			Title:  entry.str("title"),
			Points: stringArray(entry.get("points")),
		})
	}
	return calendar
}

func normalizePaymentEntries(value any) []PaymentEntry {
	items, _ := asArray(value)
	entries := make([]PaymentEntry, 0, len(items))
	for _, item := range items {
		entry := asObject(item)
		entries = append(entries, PaymentEntry{
			Amount:      entry.str("amount"),
			Description: entry.str("description"),
			Date:        entry.str("date"),
		})
	}
	return entries
}

// At resolves the calendar item's date and optional time. Items without a
// time are placed at midnight.
func (c CalendarItem) At() (time.Time, bool) {
	if blank(c.Date) {
		return time.Time{}, false
	}
	clock := strings.TrimSpace(c.Time)
	if clock == "" {
		clock = "00:00"
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, strings.TrimSpace(c.Date)+"T"+clock); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DisplayCalendar drops items without a date and orders the rest by date and
// time. Items whose date cannot be parsed keep their relative position.
func DisplayCalendar(items []CalendarItem) []CalendarItem {
	out := make([]CalendarItem, 0, len(items))
	for _, item := range items {
		if blank(item.Date) {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, okA := out[i].At()
		b, okB := out[j].At()
		if !okA || !okB {
			return false
		}
		return a.Before(b)
	})
	return out
}

// ProgressSummary is the derived view shown on the public progress page.
type ProgressSummary struct {
	PointsDone   int     `json:"pointsDone"`
	PointsTotal  int     `json:"pointsTotal"`
	PlanPercent  int     `json:"planPercent"`
	TotalPaid    float64 `json:"totalPaid"`
	AgreedPrice  float64 `json:"agreedPrice"`
	PaidFraction float64 `json:"paidFraction"`
}

var nonAmount = regexp.MustCompile(`[^0-9.]+`)

// ParseAmount reads a currency-ish string such as "$1,200.50", keeping only
// digits and dots. Unreadable amounts are 0.
func ParseAmount(value string) float64 {
	cleaned := nonAmount.ReplaceAllString(value, "")
	return finiteOrZero(cleaned)
}

// Summary counts filled-in work plan points and sums recorded payments.
// Blank points and payment rows with neither amount nor description are
// ignored.
func (p Progress) Summary() ProgressSummary {
	var summary ProgressSummary
	for _, point := range p.WorkPlan.Points {
		if blank(point.Text) {
			continue
		}
		summary.PointsTotal++
		if point.Done {
			summary.PointsDone++
		}
	}
	if summary.PointsTotal > 0 {
		summary.PlanPercent = int(float64(summary.PointsDone)/float64(summary.PointsTotal)*100 + 0.5)
	}
	for _, entry := range p.Payments.Entries {
		if blank(entry.Amount) && blank(entry.Description) {
			continue
		}
		summary.TotalPaid += ParseAmount(entry.Amount)
	}
	summary.AgreedPrice = ParseAmount(p.Payments.AgreedPrice)
	if summary.AgreedPrice > 0 {
		summary.PaidFraction = summary.TotalPaid / summary.AgreedPrice
		if summary.PaidFraction > 1 {
			summary.PaidFraction = 1
		}
	}
	return summary
}

// finiteOrZero parses the longest leading float, mirroring lenient number
// parsing of form input.
func finiteOrZero(s string) float64 {
	for end := len(s); end > 0; end-- {
		if parsed, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return parsed
		}
	}
	return 0
}
