package feature

import "time"

// SessionSummary is one row per (user_id, session_id). Flags are aggregated
// with max over the session's events so a bounce or spam session counts once
// no matter how many events it contains.
type SessionSummary struct {
	UserID             string
	SessionID          string
	Username           string
	LocationCity       string
	Gender             string
	AccountBalanceUSD  float64
	RecentPagesViewed  int
	RecentPricingViews int
	IsRepeatSession    bool
	SessionNumber      int
	BounceFlag         bool
	SpamFlag           bool
	PrimaryDevice      string
	EventCount         int
	LastEventTS        *time.Time
}

// UserFeatures is one row per user, built from that user's session summaries
// plus raw per-event-type counts. DaysSinceLastEvent is NaN when no event in
// the group carried a parseable timestamp.
type UserFeatures struct {
	UserID             string
	Username           string
	LocationCity       string
	Gender             string
	PrimaryDevice      string
	AccountBalanceUSD  float64
	RecentPagesViewed  int
	RecentPricingViews int

	TotalEvents       int
	TotalSessions     int
	RepeatSessions    int
	RepeatSessionRate float64
	Bounces           int
	BounceRate        float64
	SpamSessions      int
	SpamRate          float64

	PageViews         int
	PricingPageViews  int
	SearchEvents      int
	ChatMessages      int
	DocDownloads      int
	DemoRequestClicks int
	Signups           int
	CalendarBookings  int

	LastEventTS        *time.Time
	DaysSinceLastEvent float64
	Converted          int
}

// Columns is the deterministic user-features CSV column order.
var Columns = []string{
	"user_id",
	"username",
	"location_city",
	"gender",
	"primary_device",
	"account_balance_usd",
	"recent_pages_viewed",
	"recent_pricing_views",
	"total_events",
	"total_sessions",
	"repeat_sessions",
	"repeat_session_rate",
	"bounces",
	"bounce_rate",
	"spam_sessions",
	"spam_rate",
	"page_views",
	"pricing_page_views",
	"search_events",
	"chat_messages",
	"doc_downloads",
	"demo_request_clicks",
	"signups",
	"calendar_bookings",
	"last_event_ts",
	"days_since_last_event",
	"converted",
}
