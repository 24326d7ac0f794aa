package dashboard

import (
	"fmt"
	"math"
	"time"

	"github.com/Wuchinator/intent-scoring/internal/scoring"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const scoredCacheKey = "scored_users"

// distributionRanges are the fixed score histogram bins.
var distributionRanges = []string{"0-20", "21-40", "41-60", "61-80", "81-100"}

type Summary struct {
	TotalUsers   int     `json:"totalUsers"`
	MeanScore    float64 `json:"meanScore"`
	MedianScore  float64 `json:"medianScore"`
	HighIntent   int     `json:"highIntent"`
	MediumIntent int     `json:"mediumIntent"`
	LowIntent    int     `json:"lowIntent"`
}

type TopUser struct {
	UserID            string  `json:"user_id"`
	Username          string  `json:"username"`
	Score             float64 `json:"score"`
	ScoreLabel        string  `json:"score_label"`
	Explanation       string  `json:"explanation"`
	Signups           int     `json:"signups"`
	CalendarBookings  int     `json:"calendar_bookings"`
	DemoRequestClicks int     `json:"demo_request_clicks"`
	PricingPageViews  int     `json:"pricing_page_views"`
	LocationCity      string  `json:"location_city"`
}

type Distribution struct {
	Ranges []string `json:"ranges"`
	Counts []int    `json:"counts"`
}

// Service reads the scored output file and answers dashboard queries. The
// parsed file is cached for a short TTL so page refreshes do not re-read it.
type Service struct {
	scoresPath string
	topN       int
	cache      *gocache.Cache
	logger     *zap.Logger
}

func NewService(scoresPath string, topN int, cacheTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		scoresPath: scoresPath,
		topN:       topN,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		logger:     logger,
	}
}

func (s *Service) loadScored() ([]scoring.ScoredUser, error) {
	if cached, ok := s.cache.Get(scoredCacheKey); ok {
		return cached.([]scoring.ScoredUser), nil
	}

	scored, err := scoring.ReadScoresFile(s.scoresPath, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load scored users: %w", err)
	}

	s.cache.Set(scoredCacheKey, scored, gocache.DefaultExpiration)
	return scored, nil
}

func (s *Service) Summary() (*Summary, error) {
	scored, err := s.loadScored()
	if err != nil {
		return nil, err
	}

	g := scoring.ExplainGlobal(scored, 0)
	return &Summary{
		TotalUsers:   g.TotalUsers,
		MeanScore:    g.Stats.Mean,
		MedianScore:  g.Stats.Median,
		HighIntent:   g.Labels.High,
		MediumIntent: g.Labels.Medium,
		LowIntent:    g.Labels.Low,
	}, nil
}

func (s *Service) Users() ([]UserView, error) {
	scored, err := s.loadScored()
	if err != nil {
		return nil, err
	}

	users := make([]UserView, len(scored))
	for i, su := range scored {
		users[i] = toUserView(su)
	}
	return users, nil
}

func (s *Service) TopUsers() ([]TopUser, error) {
	scored, err := s.loadScored()
	if err != nil {
		return nil, err
	}

	ranked := scoring.Rank(scored, s.topN)
	top := make([]TopUser, len(ranked))
	for i, su := range ranked {
		top[i] = TopUser{
			UserID:            su.UserID,
			Username:          su.Username,
			Score:             su.Score,
			ScoreLabel:        su.ScoreLabel,
			Explanation:       su.Explanation,
			Signups:           su.Signups,
			CalendarBookings:  su.CalendarBookings,
			DemoRequestClicks: su.DemoRequestClicks,
			PricingPageViews:  su.PricingPageViews,
			LocationCity:      su.LocationCity,
		}
	}
	return top, nil
}

func (s *Service) Distribution() (*Distribution, error) {
	scored, err := s.loadScored()
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(distributionRanges))
	for _, su := range scored {
		counts[binIndex(su.Score)]++
	}

	return &Distribution{
		Ranges: distributionRanges,
		Counts: counts,
	}, nil
}

func binIndex(score float64) int {
	switch {
	case score <= 20:
		return 0
	case score <= 40:
		return 1
	case score <= 60:
		return 2
	case score <= 80:
		return 3
	default:
		return 4
	}
}

// UserView is the full scored row in its wire shape. Missing recency is
// flattened to 0 for JSON consumers.
type UserView struct {
	UserID             string             `json:"user_id"`
	Username           string             `json:"username"`
	LocationCity       string             `json:"location_city"`
	Gender             string             `json:"gender"`
	PrimaryDevice      string             `json:"primary_device"`
	AccountBalanceUSD  float64            `json:"account_balance_usd"`
	RecentPagesViewed  int                `json:"recent_pages_viewed"`
	RecentPricingViews int                `json:"recent_pricing_views"`
	TotalEvents        int                `json:"total_events"`
	TotalSessions      int                `json:"total_sessions"`
	RepeatSessions     int                `json:"repeat_sessions"`
	RepeatSessionRate  float64            `json:"repeat_session_rate"`
	Bounces            int                `json:"bounces"`
	BounceRate         float64            `json:"bounce_rate"`
	SpamSessions       int                `json:"spam_sessions"`
	SpamRate           float64            `json:"spam_rate"`
	PageViews          int                `json:"page_views"`
	PricingPageViews   int                `json:"pricing_page_views"`
	SearchEvents       int                `json:"search_events"`
	ChatMessages       int                `json:"chat_messages"`
	DocDownloads       int                `json:"doc_downloads"`
	DemoRequestClicks  int                `json:"demo_request_clicks"`
	Signups            int                `json:"signups"`
	CalendarBookings   int                `json:"calendar_bookings"`
	LastEventTS        string             `json:"last_event_ts"`
	DaysSinceLastEvent float64            `json:"days_since_last_event"`
	Converted          int                `json:"converted"`
	Score              float64            `json:"score"`
	ScoreLabel         string             `json:"score_label"`
	Explanation        string             `json:"explanation"`
	Contributions      map[string]float64 `json:"feature_contributions"`
}

func toUserView(su scoring.ScoredUser) UserView {
	lastTS := ""
	if su.LastEventTS != nil {
		lastTS = su.LastEventTS.UTC().Format(time.RFC3339)
	}

	days := su.DaysSinceLastEvent
	if math.IsNaN(days) {
		days = 0
	}

	return UserView{
		UserID:             su.UserID,
		Username:           su.Username,
		LocationCity:       su.LocationCity,
		Gender:             su.Gender,
		PrimaryDevice:      su.PrimaryDevice,
		AccountBalanceUSD:  su.AccountBalanceUSD,
		RecentPagesViewed:  su.RecentPagesViewed,
		RecentPricingViews: su.RecentPricingViews,
		TotalEvents:        su.TotalEvents,
		TotalSessions:      su.TotalSessions,
		RepeatSessions:     su.RepeatSessions,
		RepeatSessionRate:  su.RepeatSessionRate,
		Bounces:            su.Bounces,
		BounceRate:         su.BounceRate,
		SpamSessions:       su.SpamSessions,
		SpamRate:           su.SpamRate,
		PageViews:          su.PageViews,
		PricingPageViews:   su.PricingPageViews,
		SearchEvents:       su.SearchEvents,
		ChatMessages:       su.ChatMessages,
		DocDownloads:       su.DocDownloads,
		DemoRequestClicks:  su.DemoRequestClicks,
		Signups:            su.Signups,
		CalendarBookings:   su.CalendarBookings,
		LastEventTS:        lastTS,
		DaysSinceLastEvent: days,
		Converted:          su.Converted,
		Score:              su.Score,
		ScoreLabel:         su.ScoreLabel,
		Explanation:        su.Explanation,
		Contributions:      su.FeatureContributions,
	}
}
