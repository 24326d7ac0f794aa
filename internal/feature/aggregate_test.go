package feature

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Wuchinator/intent-scoring/internal/event"
)

func ts(day, hour int) *time.Time {
	t := time.Date(2026, 8, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func ev(userID, sessionID, eventType string, overrides func(*event.RawEvent)) event.RawEvent {
	e := event.RawEvent{
		EventID:   "e-" + userID + "-" + sessionID + "-" + eventType,
		UserID:    userID,
		Username:  userID + "_name",
		SessionID: sessionID,
		Timestamp: ts(10, 12),
		EventType: eventType,
		Device:    "desktop",
	}
	if overrides != nil {
		overrides(&e)
	}
	return e
}

func TestAggregateEmptyInput(t *testing.T) {
	_, err := NewService(zap.NewNop()).Aggregate(nil, time.Now().UTC())
	assert.ErrorIs(t, err, ErrNoEvents)
}

func TestAggregateBounceCountedOncePerSession(t *testing.T) {
	bounced := func(e *event.RawEvent) { e.BounceFlag = true }

	events := []event.RawEvent{
		ev("u1", "s1", event.EventTypePageView, bounced),
		ev("u1", "s1", event.EventTypeSearch, bounced),
		ev("u1", "s2", event.EventTypePageView, nil),
	}

	users, err := NewService(zap.NewNop()).Aggregate(events, *ts(11, 0))
	require.NoError(t, err)
	require.Len(t, users, 1)

	u := users[0]
	assert.Equal(t, 2, u.TotalSessions)
	assert.Equal(t, 1, u.Bounces)
	assert.Equal(t, 0.5, u.BounceRate)
}

func TestAggregateSpamCountedOncePerSession(t *testing.T) {
	spam := func(e *event.RawEvent) { e.SpamFlag = true }

	events := []event.RawEvent{
		ev("u1", "s1", event.EventTypePageView, spam),
		ev("u1", "s1", event.EventTypeChatMessage, spam),
		ev("u1", "s1", event.EventTypeSearch, spam),
	}

	users, err := NewService(zap.NewNop()).Aggregate(events, *ts(11, 0))
	require.NoError(t, err)

	assert.Equal(t, 1, users[0].SpamSessions)
	assert.Equal(t, 1.0, users[0].SpamRate)
}

func TestAggregatePrimaryDeviceMode(t *testing.T) {
	dev := func(d string) func(*event.RawEvent) {
		return func(e *event.RawEvent) { e.Device = d }
	}

	events := []event.RawEvent{
		ev("u1", "s1", event.EventTypePageView, dev("mobile")),
		ev("u1", "s1", event.EventTypeSearch, dev("desktop")),
		ev("u1", "s1", event.EventTypePageView, dev("desktop")),
	}

	users, err := NewService(zap.NewNop()).Aggregate(events, *ts(11, 0))
	require.NoError(t, err)
	assert.Equal(t, "desktop", users[0].PrimaryDevice)
}

func TestAggregatePrimaryDeviceTieBreaksFirstSeen(t *testing.T) {
	dev := func(d string) func(*event.RawEvent) {
		return func(e *event.RawEvent) { e.Device = d }
	}

	events := []event.RawEvent{
		ev("u1", "s1", event.EventTypePageView, dev("tablet")),
		ev("u1", "s1", event.EventTypeSearch, dev("desktop")),
	}

	users, err := NewService(zap.NewNop()).Aggregate(events, *ts(11, 0))
	require.NoError(t, err)
	assert.Equal(t, "tablet", users[0].PrimaryDevice)
}

func TestAggregateProfileSnapshotFromFirstSession(t *testing.T) {
	events := []event.RawEvent{
		ev("u1", "s1", event.EventTypePageView, func(e *event.RawEvent) {
			e.LocationCity = "Berlin"
			e.AccountBalanceUSD = 100
			e.RecentPagesViewed = 7
		}),
		ev("u1", "s2", event.EventTypePageView, func(e *event.RawEvent) {
			e.LocationCity = "Oslo"
			e.AccountBalanceUSD = 999
			e.RecentPagesViewed = 1
		}),
	}

	users, err := NewService(zap.NewNop()).Aggregate(events, *ts(11, 0))
	require.NoError(t, err)

	u := users[0]
	assert.Equal(t, "Berlin", u.LocationCity)
	assert.Equal(t, 100.0, u.AccountBalanceUSD)
	assert.Equal(t, 7, u.RecentPagesViewed)
}

func TestAggregateEventTypeCountsAndConversion(t *testing.T) {
	events := []event.RawEvent{
		ev("u1", "s1", event.EventTypePageView, nil),
		ev("u1", "s1", event.EventTypePricingPageView, nil),
		ev("u1", "s1", event.EventTypeDemoRequestClick, nil),
		ev("u1", "s2", event.EventTypeSignup, nil),
		ev("u1", "s2", event.EventTypeCalendarBooking, nil),
		ev("u2", "s3", event.EventTypeSignup, nil),
	}

	users, err := NewService(zap.NewNop()).Aggregate(events, *ts(11, 0))
	require.NoError(t, err)
	require.Len(t, users, 2)

	u1 := users[0]
	assert.Equal(t, "u1", u1.UserID)
	assert.Equal(t, 5, u1.TotalEvents)
	assert.Equal(t, 1, u1.PageViews)
	assert.Equal(t, 1, u1.PricingPageViews)
	assert.Equal(t, 1, u1.DemoRequestClicks)
	assert.Equal(t, 1, u1.Signups)
	assert.Equal(t, 1, u1.CalendarBookings)
	assert.Equal(t, 1, u1.Converted)

	// Signup without a booking is not a conversion.
	assert.Equal(t, 0, users[1].Converted)
}

func TestAggregateRecencyUsesInjectedNow(t *testing.T) {
	events := []event.RawEvent{
		ev("u1", "s1", event.EventTypePageView, func(e *event.RawEvent) { e.Timestamp = ts(1, 0) }),
		ev("u1", "s1", event.EventTypePageView, func(e *event.RawEvent) { e.Timestamp = ts(5, 0) }),
	}

	now := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)
	users, err := NewService(zap.NewNop()).Aggregate(events, now)
	require.NoError(t, err)

	u := users[0]
	require.NotNil(t, u.LastEventTS)
	assert.True(t, u.LastEventTS.Equal(*ts(5, 0)))
	assert.InDelta(t, 3.0, u.DaysSinceLastEvent, 1e-9)
}

func TestAggregateMissingTimestampsYieldNaNRecency(t *testing.T) {
	events := []event.RawEvent{
		ev("u1", "s1", event.EventTypePageView, func(e *event.RawEvent) { e.Timestamp = nil }),
	}

	users, err := NewService(zap.NewNop()).Aggregate(events, time.Now().UTC())
	require.NoError(t, err)

	u := users[0]
	assert.Nil(t, u.LastEventTS)
	assert.True(t, math.IsNaN(u.DaysSinceLastEvent))
}

func TestAggregateUsersEmittedInFirstSeenOrder(t *testing.T) {
	events := []event.RawEvent{
		ev("u3", "s1", event.EventTypePageView, nil),
		ev("u1", "s2", event.EventTypePageView, nil),
		ev("u3", "s1", event.EventTypeSearch, nil),
		ev("u2", "s3", event.EventTypePageView, nil),
	}

	users, err := NewService(zap.NewNop()).Aggregate(events, *ts(11, 0))
	require.NoError(t, err)

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.UserID
	}
	assert.Equal(t, []string{"u3", "u1", "u2"}, ids)
}

func TestAggregateDeterministic(t *testing.T) {
	events := []event.RawEvent{
		ev("u1", "s1", event.EventTypePageView, func(e *event.RawEvent) { e.IsRepeatSession = true }),
		ev("u1", "s2", event.EventTypeSignup, nil),
		ev("u2", "s3", event.EventTypeDocDownload, nil),
	}

	now := *ts(12, 0)
	svc := NewService(zap.NewNop())

	first, err := svc.Aggregate(events, now)
	require.NoError(t, err)
	second, err := svc.Aggregate(events, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
