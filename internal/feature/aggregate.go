package feature

import (
	"errors"
	"math"
	"time"

	"github.com/Wuchinator/intent-scoring/internal/event"
	"go.uber.org/zap"
)

var ErrNoEvents = errors.New("no events to aggregate")

type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// modeCounter picks the most frequent observed value, breaking ties by
// earliest first occurrence.
type modeCounter struct {
	counts map[string]int
	order  []string
}

func newModeCounter() *modeCounter {
	return &modeCounter{counts: make(map[string]int)}
}

func (m *modeCounter) add(v string) {
	if _, seen := m.counts[v]; !seen {
		m.order = append(m.order, v)
	}
	m.counts[v]++
}

func (m *modeCounter) mode() string {
	best := ""
	bestCount := 0
	for _, v := range m.order {
		if m.counts[v] > bestCount {
			best = v
			bestCount = m.counts[v]
		}
	}
	return best
}

type sessionAcc struct {
	summary SessionSummary
	devices *modeCounter
}

type userAcc struct {
	features UserFeatures
	sessions []*sessionAcc
	devices  *modeCounter
}

// Aggregate groups raw events first by (user, session) and then by user,
// producing one UserFeatures row per user in first-seen order. The caller
// supplies now so recency is deterministic under test.
func (s *Service) Aggregate(events []event.RawEvent, now time.Time) ([]UserFeatures, error) {
	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	type sessionKey struct{ userID, sessionID string }

	sessions := make(map[sessionKey]*sessionAcc)
	var sessionOrder []sessionKey

	users := make(map[string]*userAcc)
	var userOrder []string

	// Pass 1: session-level summaries plus per-user event-type counts.
	for _, ev := range events {
		key := sessionKey{ev.UserID, ev.SessionID}
		sa, ok := sessions[key]
		if !ok {
			sa = &sessionAcc{
				summary: SessionSummary{
					UserID:             ev.UserID,
					SessionID:          ev.SessionID,
					Username:           ev.Username,
					LocationCity:       ev.LocationCity,
					Gender:             ev.Gender,
					AccountBalanceUSD:  ev.AccountBalanceUSD,
					RecentPagesViewed:  ev.RecentPagesViewed,
					RecentPricingViews: ev.RecentPricingViews,
				},
				devices: newModeCounter(),
			}
			sessions[key] = sa
			sessionOrder = append(sessionOrder, key)
		}

		sa.summary.IsRepeatSession = sa.summary.IsRepeatSession || ev.IsRepeatSession
		if ev.SessionNumber > sa.summary.SessionNumber {
			sa.summary.SessionNumber = ev.SessionNumber
		}
		sa.summary.BounceFlag = sa.summary.BounceFlag || ev.BounceFlag
		sa.summary.SpamFlag = sa.summary.SpamFlag || ev.SpamFlag
		sa.devices.add(ev.Device)
		sa.summary.EventCount++
		if ev.Timestamp != nil {
			if sa.summary.LastEventTS == nil || ev.Timestamp.After(*sa.summary.LastEventTS) {
				ts := *ev.Timestamp
				sa.summary.LastEventTS = &ts
			}
		}

		ua, ok := users[ev.UserID]
		if !ok {
			ua = &userAcc{devices: newModeCounter()}
			users[ev.UserID] = ua
			userOrder = append(userOrder, ev.UserID)
		}
		ua.features.TotalEvents++
		countEventType(&ua.features, ev.EventType)
	}

	// Pass 2: user-level aggregates over session summaries.
	for _, key := range sessionOrder {
		sa := sessions[key]
		sa.summary.PrimaryDevice = sa.devices.mode()

		ua := users[key.userID]
		ua.sessions = append(ua.sessions, sa)
		ua.devices.add(sa.summary.PrimaryDevice)
	}

	out := make([]UserFeatures, 0, len(userOrder))
	for _, userID := range userOrder {
		ua := users[userID]
		u := &ua.features
		u.UserID = userID

		first := ua.sessions[0].summary
		u.Username = first.Username
		u.LocationCity = first.LocationCity
		u.Gender = first.Gender
		u.AccountBalanceUSD = first.AccountBalanceUSD
		u.RecentPagesViewed = first.RecentPagesViewed
		u.RecentPricingViews = first.RecentPricingViews
		u.PrimaryDevice = ua.devices.mode()

		u.TotalSessions = len(ua.sessions)
		for _, sa := range ua.sessions {
			if sa.summary.IsRepeatSession {
				u.RepeatSessions++
			}
			if sa.summary.BounceFlag {
				u.Bounces++
			}
			if sa.summary.SpamFlag {
				u.SpamSessions++
			}
			if sa.summary.LastEventTS != nil {
				if u.LastEventTS == nil || sa.summary.LastEventTS.After(*u.LastEventTS) {
					ts := *sa.summary.LastEventTS
					u.LastEventTS = &ts
				}
			}
		}

		u.RepeatSessionRate = safeRate(u.RepeatSessions, u.TotalSessions)
		u.BounceRate = safeRate(u.Bounces, u.TotalSessions)
		u.SpamRate = safeRate(u.SpamSessions, u.TotalSessions)

		if u.LastEventTS != nil {
			u.DaysSinceLastEvent = now.Sub(*u.LastEventTS).Hours() / 24
		} else {
			u.DaysSinceLastEvent = math.NaN()
		}

		if u.Signups > 0 && u.CalendarBookings > 0 {
			u.Converted = 1
		}

		out = append(out, *u)
	}

	s.logger.Info("User features built",
		zap.Int("events", len(events)),
		zap.Int("sessions", len(sessionOrder)),
		zap.Int("users", len(out)),
	)

	return out, nil
}

func countEventType(u *UserFeatures, eventType string) {
	switch eventType {
	case event.EventTypePageView:
		u.PageViews++
	case event.EventTypePricingPageView:
		u.PricingPageViews++
	case event.EventTypeSearch:
		u.SearchEvents++
	case event.EventTypeChatMessage:
		u.ChatMessages++
	case event.EventTypeDocDownload:
		u.DocDownloads++
	case event.EventTypeDemoRequestClick:
		u.DemoRequestClicks++
	case event.EventTypeSignup:
		u.Signups++
	case event.EventTypeCalendarBooking:
		u.CalendarBookings++
	}
}

func safeRate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
