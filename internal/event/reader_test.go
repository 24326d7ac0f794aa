package event

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeCSV(t *testing.T, header []string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "raw_events.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(header))
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())

	return path
}

func sampleRow(overrides map[string]string) []string {
	values := map[string]string{
		"event_id":             "e000001",
		"user_id":              "u0001",
		"username":             "alex_chen_01",
		"session_id":           "s1001",
		"timestamp":            "2026-08-01T10:00:00Z",
		"event_type":           "page_view",
		"location_city":        "Toronto",
		"device":               "desktop",
		"is_repeat_session":    "0",
		"session_number":       "1",
		"account_balance_usd":  "150.25",
		"recent_pages_viewed":  "4",
		"recent_pricing_views": "1",
		"gender":               "female",
		"time_on_page_sec":     "42",
		"scroll_depth_pct":     "80",
		"bounce_flag":          "0",
		"spam_flag":            "0",
	}
	for k, v := range overrides {
		values[k] = v
	}

	row := make([]string, len(Columns))
	for i, col := range Columns {
		row[i] = values[col]
	}
	return row
}

func TestReadFileParsesRow(t *testing.T) {
	path := writeCSV(t, Columns, [][]string{sampleRow(nil)})

	events, err := NewReader(zap.NewNop()).ReadFile(path)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "e000001", ev.EventID)
	assert.Equal(t, "u0001", ev.UserID)
	assert.Equal(t, "page_view", ev.EventType)
	assert.Equal(t, 150.25, ev.AccountBalanceUSD)
	assert.Equal(t, 4, ev.RecentPagesViewed)
	assert.False(t, ev.BounceFlag)

	require.NotNil(t, ev.Timestamp)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), *ev.Timestamp)

	require.NotNil(t, ev.ScrollDepthPct)
	assert.Equal(t, 80.0, *ev.ScrollDepthPct)
}

func TestReadFileMissingColumnIsFatal(t *testing.T) {
	header := make([]string, 0, len(Columns)-1)
	for _, col := range Columns {
		if col != "timestamp" {
			header = append(header, col)
		}
	}

	path := writeCSV(t, header, nil)

	_, err := NewReader(zap.NewNop()).ReadFile(path)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"timestamp"}, schemaErr.Missing)
}

func TestReadFileEmptyInputIsFatal(t *testing.T) {
	path := writeCSV(t, Columns, nil)

	_, err := NewReader(zap.NewNop()).ReadFile(path)
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestReadFileCoercesBadCells(t *testing.T) {
	rows := [][]string{
		sampleRow(map[string]string{
			"timestamp":           "not-a-timestamp",
			"account_balance_usd": "oops",
			"session_number":      "",
			"scroll_depth_pct":    "",
			"bounce_flag":         "yes??",
		}),
	}
	path := writeCSV(t, Columns, rows)

	events, err := NewReader(zap.NewNop()).ReadFile(path)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Nil(t, ev.Timestamp)
	assert.Zero(t, ev.AccountBalanceUSD)
	assert.Zero(t, ev.SessionNumber)
	assert.Nil(t, ev.ScrollDepthPct)
	assert.False(t, ev.BounceFlag)
}

func TestWriteFileRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC)
	scroll := 55.0

	in := []RawEvent{
		{
			EventID:            "e1",
			UserID:             "u1",
			Username:           "maya_g_00",
			SessionID:          "s1",
			Timestamp:          &ts,
			EventType:          EventTypeSignup,
			LocationCity:       "London",
			Device:             "mobile",
			IsRepeatSession:    true,
			SessionNumber:      2,
			AccountBalanceUSD:  20.5,
			RecentPagesViewed:  3,
			RecentPricingViews: 2,
			Gender:             "undisclosed",
			TimeOnPageSec:      0,
			ScrollDepthPct:     &scroll,
			BounceFlag:         true,
			SpamFlag:           false,
		},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, NewWriter(zap.NewNop()).WriteFile(path, in))

	out, err := NewReader(zap.NewNop()).ReadFile(path)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, in[0].EventID, out[0].EventID)
	assert.Equal(t, in[0].EventType, out[0].EventType)
	assert.True(t, out[0].IsRepeatSession)
	assert.True(t, out[0].BounceFlag)
	require.NotNil(t, out[0].Timestamp)
	assert.True(t, ts.Equal(*out[0].Timestamp))
	require.NotNil(t, out[0].ScrollDepthPct)
	assert.Equal(t, scroll, *out[0].ScrollDepthPct)
}
