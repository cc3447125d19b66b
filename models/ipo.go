package models

import "time"

// DateLayout is the calendar-date format used for listing window dates
const DateLayout = "2006-01-02"

// Tab selects which side of the listing window a record falls on
type Tab string

const (
	TabLive    Tab = "live"
	TabHistory Tab = "history"
)

// ParseTab returns the tab for a query value; an empty value means live
func ParseTab(value string) (Tab, bool) {
	switch Tab(value) {
	case "", TabLive:
		return TabLive, true
	case TabHistory:
		return TabHistory, true
	}
	return "", false
}

// ClassifyTab derives the tab of a record from its end date and today's date.
// Both dates are YYYY-MM-DD strings so lexical order is calendar order.
func ClassifyTab(endDate, today string) Tab {
	if endDate >= today {
		return TabLive
	}
	return TabHistory
}

// Today returns the current UTC date in DateLayout
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

type Recommendation string

const (
	RecommendationUnset   Recommendation = ""
	RecommendationApply   Recommendation = "Apply"
	RecommendationReview  Recommendation = "Review"
	RecommendationAvoid   Recommendation = "Avoid"
	RecommendationApplied Recommendation = "Applied"
)

// Recommendations lists the selectable values in display order
var Recommendations = []Recommendation{
	RecommendationApply,
	RecommendationReview,
	RecommendationAvoid,
	RecommendationApplied,
}

// Valid reports whether r is one of the known recommendation values (including unset)
func (r Recommendation) Valid() bool {
	if r == RecommendationUnset {
		return true
	}
	for _, known := range Recommendations {
		if r == known {
			return true
		}
	}
	return false
}

type ListingWindow struct {
	EndDate string `json:"end_date"`
}

// SubscriptionDetails holds display-only subscription multipliers and the grey market premium
type SubscriptionDetails struct {
	Total string `json:"Total"`
	QIB   string `json:"QIB"`
	NII   string `json:"NII"`
	RII   string `json:"RII"`
	GMP   string `json:"GMP"`
}

// IPO is one offering as stored in the ipo_status table. Only Recommendation and
// ApplyForListingGain are ever written by this service.
type IPO struct {
	ID                  string              `json:"_id"`
	AnalysisTitle       string              `json:"IPOAnalysisTitle"`
	Name                string              `json:"LiveIPOName"`
	Summary             string              `json:"SummarySnippet"`
	ListingWindow       ListingWindow       `json:"LiveIPODetails"`
	SubscriptionDetails SubscriptionDetails `json:"LiveIPOSubscriptionDetails"`
	Recommendation      Recommendation      `json:"Recommendation"`
	ApplyForListingGain bool                `json:"apply_for_listing_gain"`
}

// Tab classifies the record against today's date
func (i *IPO) Tab(today string) Tab {
	return ClassifyTab(i.ListingWindow.EndDate, today)
}
