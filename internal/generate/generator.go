package generate

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/Wuchinator/intent-scoring/internal/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minSessionsPerUser  = 1
	maxSessionsPerUser  = 5
	minEventsPerSession = 1
	maxEventsPerSession = 8
)

var (
	cities  = []string{"San Francisco", "New York", "Toronto", "London", "Bangalore"}
	devices = []string{"desktop", "mobile"}
	genders = []string{"male", "female", "non_binary", "undisclosed"}

	// Base pool; made unique with per-user suffixes.
	baseUsernames = []string{
		"alex_chen", "sarah_k", "jordan_m", "mike_t", "priya_p",
		"daniel_r", "emma_w", "liam_h", "noah_b", "olivia_s",
		"ethan_c", "maya_g", "nina_d", "chris_j", "guest",
	}

	// Higher intent skews towards pricing/demo/signup/calendar events.
	highIntentWeights = []float64{2, 4, 1, 2, 2, 3, 2, 2}
	lowIntentWeights  = []float64{7, 1, 3, 1, 1, 0.2, 0.1, 0.05}
)

type Config struct {
	NumUsers int
	Seed     int64
	DaysBack int
}

type userProfile struct {
	userID             string
	username           string
	locationCity       string
	gender             string
	accountBalanceUSD  float64
	recentPagesViewed  int
	recentPricingViews int
}

type Service struct {
	cfg    Config
	logger *zap.Logger
}

func NewService(cfg Config, logger *zap.Logger) *Service {
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = 100
	}
	if cfg.DaysBack <= 0 {
		cfg.DaysBack = 30
	}
	return &Service{cfg: cfg, logger: logger}
}

// Generate produces a schema-complete synthetic event batch. The same seed
// yields the same population relative to now.
func (s *Service) Generate(now time.Time) []event.RawEvent {
	rng := rand.New(rand.NewSource(s.cfg.Seed))

	var events []event.RawEvent

	for i := 0; i < s.cfg.NumUsers; i++ {
		user := sampleUserProfile(rng, i)
		sessions := minSessionsPerUser + rng.Intn(maxSessionsPerUser-minSessionsPerUser+1)

		for sn := 0; sn < sessions; sn++ {
			sessionID := fmt.Sprintf("s%04d", 1000+rng.Intn(9000))
			isRepeat := sn > 0

			nEvents := minEventsPerSession + rng.Intn(maxEventsPerSession-minEventsPerSession+1)
			intent := rng.Float64()

			bounce := nEvents == 1
			// Spam heuristic: bounced session with very low intent and a
			// near-empty wallet.
			spam := bounce && intent < 0.05 && user.accountBalanceUSD < 5

			for e := 0; e < nEvents; e++ {
				eventType := chooseEventType(rng, intent)

				ev := event.RawEvent{
					EventID:            uuid.NewString(),
					UserID:             user.userID,
					Username:           user.username,
					SessionID:          sessionID,
					EventType:          eventType,
					LocationCity:       user.locationCity,
					Device:             devices[rng.Intn(len(devices))],
					IsRepeatSession:    isRepeat,
					SessionNumber:      sn + 1,
					AccountBalanceUSD:  user.accountBalanceUSD,
					RecentPagesViewed:  user.recentPagesViewed,
					RecentPricingViews: user.recentPricingViews,
					Gender:             user.gender,
					BounceFlag:         bounce,
					SpamFlag:           spam,
				}

				ts := randTimestamp(rng, now, s.cfg.DaysBack)
				ev.Timestamp = &ts

				// Page metrics are only meaningful for page/pricing views.
				if eventType == event.EventTypePageView || eventType == event.EventTypePricingPageView {
					ev.TimeOnPageSec = float64(5 + rng.Intn(116))
					scroll := float64(5 + rng.Intn(96))
					ev.ScrollDepthPct = &scroll
				}

				events = append(events, ev)
			}
		}
	}

	s.logger.Info("Synthetic events generated",
		zap.Int("users", s.cfg.NumUsers),
		zap.Int("events", len(events)),
		zap.Int64("seed", s.cfg.Seed),
	)

	return events
}

func sampleUserProfile(rng *rand.Rand, i int) userProfile {
	// Wallet-style balance: many small, a few large.
	balance := math.Max(0, rng.NormFloat64()*350+200)

	recentPages := rng.Intn(16)
	maxPricing := recentPages
	if maxPricing > 5 {
		maxPricing = 5
	}

	return userProfile{
		userID:             fmt.Sprintf("u%04d", i),
		username:           fmt.Sprintf("%s_%02d", baseUsernames[rng.Intn(len(baseUsernames))], i),
		locationCity:       cities[rng.Intn(len(cities))],
		gender:             genders[rng.Intn(len(genders))],
		accountBalanceUSD:  math.Round(balance*100) / 100,
		recentPagesViewed:  recentPages,
		recentPricingViews: rng.Intn(maxPricing + 1),
	}
}

func chooseEventType(rng *rand.Rand, intent float64) string {
	weights := lowIntentWeights
	if intent > 0.85 {
		weights = highIntentWeights
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}

	pick := rng.Float64() * total
	for i, w := range weights {
		pick -= w
		if pick < 0 {
			return event.EventTypes[i]
		}
	}
	return event.EventTypes[len(event.EventTypes)-1]
}

func randTimestamp(rng *rand.Rand, now time.Time, daysBack int) time.Time {
	delta := time.Duration(rng.Intn(daysBack+1))*24*time.Hour +
		time.Duration(rng.Intn(86401))*time.Second
	return now.Add(-delta).Truncate(time.Second).UTC()
}
