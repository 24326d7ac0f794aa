package event

import "time"

const (
	EventTypePageView         = "page_view"
	EventTypePricingPageView  = "pricing_page_view"
	EventTypeSearch           = "search"
	EventTypeChatMessage      = "chat_message"
	EventTypeDocDownload      = "doc_download"
	EventTypeDemoRequestClick = "demo_request_click"
	EventTypeSignup           = "signup"
	EventTypeCalendarBooking  = "calendar_booking"
)

// EventTypes lists the recognized event types in canonical order.
var EventTypes = []string{
	EventTypePageView,
	EventTypePricingPageView,
	EventTypeSearch,
	EventTypeChatMessage,
	EventTypeDocDownload,
	EventTypeDemoRequestClick,
	EventTypeSignup,
	EventTypeCalendarBooking,
}

// RawEvent is one user interaction as delivered by the event source.
// Timestamp is nil when the source value could not be parsed; ScrollDepthPct
// is nil for event types where it is not meaningful.
type RawEvent struct {
	EventID            string
	UserID             string
	Username           string
	SessionID          string
	Timestamp          *time.Time
	EventType          string
	LocationCity       string
	Device             string
	IsRepeatSession    bool
	SessionNumber      int
	AccountBalanceUSD  float64
	RecentPagesViewed  int
	RecentPricingViews int
	Gender             string
	TimeOnPageSec      float64
	ScrollDepthPct     *float64
	BounceFlag         bool
	SpamFlag           bool
}

// Columns is the required raw-event CSV schema, in wire order.
var Columns = []string{
	"event_id",
	"user_id",
	"username",
	"session_id",
	"timestamp",
	"event_type",
	"location_city",
	"device",
	"is_repeat_session",
	"session_number",
	"account_balance_usd",
	"recent_pages_viewed",
	"recent_pricing_views",
	"gender",
	"time_on_page_sec",
	"scroll_depth_pct",
	"bounce_flag",
	"spam_flag",
}
