package feature

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteReadRoundTrip(t *testing.T) {
	last := time.Date(2026, 8, 5, 14, 30, 0, 0, time.UTC)

	in := []UserFeatures{
		{
			UserID:             "u0001",
			Username:           "alex_chen_01",
			LocationCity:       "Toronto",
			Gender:             "female",
			PrimaryDevice:      "desktop",
			AccountBalanceUSD:  320.5,
			RecentPagesViewed:  6,
			RecentPricingViews: 2,
			TotalEvents:        12,
			TotalSessions:      3,
			RepeatSessions:     2,
			RepeatSessionRate:  2.0 / 3.0,
			Bounces:            1,
			BounceRate:         1.0 / 3.0,
			PageViews:          5,
			PricingPageViews:   2,
			Signups:            1,
			CalendarBookings:   1,
			LastEventTS:        &last,
			DaysSinceLastEvent: 2.5,
			Converted:          1,
		},
		{
			UserID:             "u0002",
			Username:           "sam_r_07",
			PrimaryDevice:      "mobile",
			TotalEvents:        1,
			TotalSessions:      1,
			Bounces:            1,
			BounceRate:         1,
			PageViews:          1,
			DaysSinceLastEvent: math.NaN(),
		},
	}

	path := filepath.Join(t.TempDir(), "user_features.csv")
	require.NoError(t, WriteFile(path, in, zap.NewNop()))

	out, err := ReadFile(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, in[0].UserID, out[0].UserID)
	assert.Equal(t, in[0].AccountBalanceUSD, out[0].AccountBalanceUSD)
	assert.InDelta(t, in[0].RepeatSessionRate, out[0].RepeatSessionRate, 1e-12)
	assert.Equal(t, in[0].Converted, out[0].Converted)
	require.NotNil(t, out[0].LastEventTS)
	assert.True(t, last.Equal(*out[0].LastEventTS))

	// A missing timestamp survives the round trip as NaN recency.
	assert.Nil(t, out[1].LastEventTS)
	assert.True(t, math.IsNaN(out[1].DaysSinceLastEvent))
}

func TestReadFileHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_features.csv")
	require.NoError(t, os.WriteFile(path, []byte("user_id,total_events\n"), 0o644))

	_, err := ReadFile(path, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoEvents)
}

func TestReadFileToleratesMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_features.csv")
	require.NoError(t, os.WriteFile(path, []byte("user_id,signups\nu1,3\n"), 0o644))

	users, err := ReadFile(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, users, 1)

	assert.Equal(t, "u1", users[0].UserID)
	assert.Equal(t, 3, users[0].Signups)
	assert.Zero(t, users[0].TotalSessions)
	assert.True(t, math.IsNaN(users[0].DaysSinceLastEvent))
}

func TestFormatFloatNaNIsEmpty(t *testing.T) {
	assert.Equal(t, "", FormatFloat(math.NaN()))
	assert.Equal(t, "0.5", FormatFloat(0.5))
}
