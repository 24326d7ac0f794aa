package scoring

import "sort"

// Weighted feature names. They match the user-features column names so
// contributions can be joined back against the feature table.
const (
	FeatSignups           = "signups"
	FeatCalendarBookings  = "calendar_bookings"
	FeatDemoRequestClicks = "demo_request_clicks"
	FeatPricingPageViews  = "pricing_page_views"
	FeatPageViews         = "page_views"
	FeatRepeatSessionRate = "repeat_session_rate"
	FeatAccountBalanceUSD = "account_balance_usd"
	FeatRecentPagesViewed = "recent_pages_viewed"
)

// defaultOrder fixes the tie-break order for explanations: conversion actions
// first, then funnel and engagement signals.
var defaultOrder = []string{
	FeatSignups,
	FeatCalendarBookings,
	FeatDemoRequestClicks,
	FeatPricingPageViews,
	FeatPageViews,
	FeatRepeatSessionRate,
	FeatAccountBalanceUSD,
	FeatRecentPagesViewed,
}

type Weights map[string]float64

// DefaultWeights sums to 1.0 by convention (not enforced at runtime).
func DefaultWeights() Weights {
	return Weights{
		FeatSignups:           0.30,
		FeatCalendarBookings:  0.30,
		FeatDemoRequestClicks: 0.15,
		FeatPricingPageViews:  0.08,
		FeatPageViews:         0.05,
		FeatRepeatSessionRate: 0.05,
		FeatAccountBalanceUSD: 0.05,
		FeatRecentPagesViewed: 0.02,
	}
}

type Thresholds struct {
	High   float64
	Medium float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{High: 70, Medium: 40}
}

const (
	LabelHigh   = "high"
	LabelMedium = "medium"
	LabelLow    = "low"
)

// orderedFeatures returns the weight table's keys in deterministic order:
// the default order first, then any extra keys sorted by name.
func orderedFeatures(weights Weights) []string {
	seen := make(map[string]bool, len(weights))
	ordered := make([]string, 0, len(weights))

	for _, f := range defaultOrder {
		if _, ok := weights[f]; ok {
			ordered = append(ordered, f)
			seen[f] = true
		}
	}

	var extra []string
	for f := range weights {
		if !seen[f] {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)

	return append(ordered, extra...)
}
