package event

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// timestampLayouts covers the ISO-8601 variants the event source emits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

type Reader struct {
	logger *zap.Logger
}

func NewReader(logger *zap.Logger) *Reader {
	return &Reader{logger: logger}
}

// ReadFile loads raw events from a CSV file. A missing required column is
// fatal; a cell that fails to parse is coerced to missing/zero and the row
// is kept.
func (r *Reader) ReadFile(path string) ([]RawEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw events: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read raw events csv: %w", err)
	}

	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	colIndex, err := validateHeader(records[0])
	if err != nil {
		return nil, err
	}

	rows := records[1:]
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	events := make([]RawEvent, 0, len(rows))
	for i, row := range rows {
		events = append(events, r.parseRow(row, colIndex, i+2))
	}

	r.logger.Info("Raw events loaded",
		zap.String("path", path),
		zap.Int("events", len(events)),
	)

	return events, nil
}

func validateHeader(header []string) (map[string]int, error) {
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range Columns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	return colIndex, nil
}

func (r *Reader) parseRow(row []string, colIndex map[string]int, line int) RawEvent {
	cell := func(col string) string {
		idx := colIndex[col]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	ev := RawEvent{
		EventID:      cell("event_id"),
		UserID:       cell("user_id"),
		Username:     cell("username"),
		SessionID:    cell("session_id"),
		EventType:    cell("event_type"),
		LocationCity: cell("location_city"),
		Device:       cell("device"),
		Gender:       cell("gender"),
	}

	if ts, ok := parseTimestamp(cell("timestamp")); ok {
		ev.Timestamp = &ts
	} else if cell("timestamp") != "" {
		r.logger.Debug("Unparseable timestamp coerced to missing",
			zap.Int("line", line),
			zap.String("value", cell("timestamp")),
		)
	}

	ev.IsRepeatSession = coerceBool(cell("is_repeat_session"))
	ev.SessionNumber = coerceInt(cell("session_number"))
	ev.AccountBalanceUSD = coerceFloat(cell("account_balance_usd"))
	ev.RecentPagesViewed = coerceInt(cell("recent_pages_viewed"))
	ev.RecentPricingViews = coerceInt(cell("recent_pricing_views"))
	ev.TimeOnPageSec = coerceFloat(cell("time_on_page_sec"))
	ev.BounceFlag = coerceBool(cell("bounce_flag"))
	ev.SpamFlag = coerceBool(cell("spam_flag"))

	if raw := cell("scroll_depth_pct"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			ev.ScrollDepthPct = &v
		}
	}

	return ev
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func coerceInt(raw string) int {
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(v)
	}
	return 0
}

func coerceFloat(raw string) float64 {
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return 0
}

func coerceBool(raw string) bool {
	if v, err := strconv.Atoi(raw); err == nil {
		return v != 0
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return v
	}
	return false
}
