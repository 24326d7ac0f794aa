package feature

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// WriteFile emits user features with the deterministic column order.
func WriteFile(path string, users []UserFeatures, logger *zap.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create user features file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, u := range users {
		if err := cw.Write(Record(u)); err != nil {
			return fmt.Errorf("failed to write user row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush user features: %w", err)
	}

	logger.Info("User features written",
		zap.String("path", path),
		zap.Int("users", len(users)),
	)

	return nil
}

// Record serializes one user in the Columns order.
func Record(u UserFeatures) []string {
	return []string{
		u.UserID,
		u.Username,
		u.LocationCity,
		u.Gender,
		u.PrimaryDevice,
		FormatFloat(u.AccountBalanceUSD),
		strconv.Itoa(u.RecentPagesViewed),
		strconv.Itoa(u.RecentPricingViews),
		strconv.Itoa(u.TotalEvents),
		strconv.Itoa(u.TotalSessions),
		strconv.Itoa(u.RepeatSessions),
		FormatFloat(u.RepeatSessionRate),
		strconv.Itoa(u.Bounces),
		FormatFloat(u.BounceRate),
		strconv.Itoa(u.SpamSessions),
		FormatFloat(u.SpamRate),
		strconv.Itoa(u.PageViews),
		strconv.Itoa(u.PricingPageViews),
		strconv.Itoa(u.SearchEvents),
		strconv.Itoa(u.ChatMessages),
		strconv.Itoa(u.DocDownloads),
		strconv.Itoa(u.DemoRequestClicks),
		strconv.Itoa(u.Signups),
		strconv.Itoa(u.CalendarBookings),
		formatTimestamp(u.LastEventTS),
		FormatFloat(u.DaysSinceLastEvent),
		strconv.Itoa(u.Converted),
	}
}

// ReadFile loads a user-features table. Missing columns default to zero
// values so the scorer stays total over any well-formed table; only user_id
// is required.
func ReadFile(path string, logger *zap.Logger) ([]UserFeatures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open user features: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read user features csv: %w", err)
	}

	if len(records) < 2 {
		return nil, ErrNoEvents
	}

	colIndex := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		colIndex[strings.TrimSpace(name)] = i
	}
	if _, ok := colIndex["user_id"]; !ok {
		return nil, fmt.Errorf("user features table has no user_id column")
	}

	users := make([]UserFeatures, 0, len(records)-1)
	for _, row := range records[1:] {
		users = append(users, ParseRecord(row, colIndex))
	}

	logger.Info("User features loaded",
		zap.String("path", path),
		zap.Int("users", len(users)),
	)

	return users, nil
}

// ParseRecord reads one user row given a header index; absent cells fall
// back to zero values.
func ParseRecord(row []string, colIndex map[string]int) UserFeatures {
	cell := func(col string) string {
		idx, ok := colIndex[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	u := UserFeatures{
		UserID:        cell("user_id"),
		Username:      cell("username"),
		LocationCity:  cell("location_city"),
		Gender:        cell("gender"),
		PrimaryDevice: cell("primary_device"),

		AccountBalanceUSD:  parseFloat(cell("account_balance_usd")),
		RecentPagesViewed:  parseInt(cell("recent_pages_viewed")),
		RecentPricingViews: parseInt(cell("recent_pricing_views")),
		TotalEvents:        parseInt(cell("total_events")),
		TotalSessions:      parseInt(cell("total_sessions")),
		RepeatSessions:     parseInt(cell("repeat_sessions")),
		RepeatSessionRate:  parseFloat(cell("repeat_session_rate")),
		Bounces:            parseInt(cell("bounces")),
		BounceRate:         parseFloat(cell("bounce_rate")),
		SpamSessions:       parseInt(cell("spam_sessions")),
		SpamRate:           parseFloat(cell("spam_rate")),
		PageViews:          parseInt(cell("page_views")),
		PricingPageViews:   parseInt(cell("pricing_page_views")),
		SearchEvents:       parseInt(cell("search_events")),
		ChatMessages:       parseInt(cell("chat_messages")),
		DocDownloads:       parseInt(cell("doc_downloads")),
		DemoRequestClicks:  parseInt(cell("demo_request_clicks")),
		Signups:            parseInt(cell("signups")),
		CalendarBookings:   parseInt(cell("calendar_bookings")),
		Converted:          parseInt(cell("converted")),
	}

	if ts, err := time.Parse(time.RFC3339, cell("last_event_ts")); err == nil {
		ts = ts.UTC()
		u.LastEventTS = &ts
	}

	if raw := cell("days_since_last_event"); raw != "" {
		u.DaysSinceLastEvent = parseFloat(raw)
	} else {
		u.DaysSinceLastEvent = math.NaN()
	}

	return u
}

// FormatFloat renders a float for CSV output; NaN becomes an empty cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func parseInt(raw string) int {
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(v)
	}
	return 0
}

func parseFloat(raw string) float64 {
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return 0
}
