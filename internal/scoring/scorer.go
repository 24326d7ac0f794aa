package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Wuchinator/intent-scoring/internal/feature"
	"go.uber.org/zap"
)

var ErrNoUsers = errors.New("no users to score")

// NoSignalExplanation is emitted when no feature contributed positively.
const NoSignalExplanation = "No strong signals"

// ScoredUser is the terminal artifact: the user's features plus the 0-100
// score, threshold label, top-contributor explanation and the full
// per-feature contribution map in score points.
type ScoredUser struct {
	feature.UserFeatures

	Score                float64
	ScoreLabel           string
	Explanation          string
	FeatureContributions map[string]float64
}

type Service struct {
	weights    Weights
	thresholds Thresholds
	logger     *zap.Logger
}

func NewService(weights Weights, thresholds Thresholds, logger *zap.Logger) *Service {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Service{
		weights:    weights,
		thresholds: thresholds,
		logger:     logger,
	}
}

// populationMaxima holds the per-run normalization denominators, floored so
// an all-zero population never divides by zero.
type populationMaxima struct {
	PageViews         float64
	PricingPageViews  float64
	DemoRequestClicks float64
	RecentPagesViewed float64
	AccountBalanceUSD float64
}

func computeMaxima(users []feature.UserFeatures) populationMaxima {
	m := populationMaxima{
		PageViews:         1,
		PricingPageViews:  1,
		DemoRequestClicks: 1,
		RecentPagesViewed: 1,
		AccountBalanceUSD: 1.0,
	}
	for _, u := range users {
		m.PageViews = math.Max(m.PageViews, float64(u.PageViews))
		m.PricingPageViews = math.Max(m.PricingPageViews, float64(u.PricingPageViews))
		m.DemoRequestClicks = math.Max(m.DemoRequestClicks, float64(u.DemoRequestClicks))
		m.RecentPagesViewed = math.Max(m.RecentPagesViewed, float64(u.RecentPagesViewed))
		if !math.IsNaN(u.AccountBalanceUSD) {
			m.AccountBalanceUSD = math.Max(m.AccountBalanceUSD, u.AccountBalanceUSD)
		}
	}
	return m
}

// Score scores the whole batch. Maxima are computed from the complete
// population before any per-user scoring, which makes scores batch-relative:
// they rank within one cohort and are not portable across runs.
func (s *Service) Score(users []feature.UserFeatures) ([]ScoredUser, error) {
	if len(users) == 0 {
		return nil, ErrNoUsers
	}

	maxima := computeMaxima(users)

	scored := make([]ScoredUser, 0, len(users))
	for _, u := range users {
		scored = append(scored, s.scoreUser(u, maxima))
	}

	s.logger.Info("Users scored",
		zap.Int("users", len(scored)),
		zap.Int("features", len(s.weights)),
	)

	return scored, nil
}

func (s *Service) scoreUser(u feature.UserFeatures, maxima populationMaxima) ScoredUser {
	feats := map[string]float64{
		// Conversion-proximate actions are rewarded for occurring at all,
		// not by volume.
		FeatSignups:           binary(u.Signups),
		FeatCalendarBookings:  binary(u.CalendarBookings),
		FeatDemoRequestClicks: NormalizeLinear(float64(u.DemoRequestClicks), maxima.DemoRequestClicks),
		FeatPricingPageViews:  NormalizeLinear(float64(u.PricingPageViews), maxima.PricingPageViews),
		FeatPageViews:         NormalizeLinear(float64(u.PageViews), maxima.PageViews),
		FeatRecentPagesViewed: NormalizeLinear(float64(u.RecentPagesViewed), maxima.RecentPagesViewed),
		FeatRepeatSessionRate: nanToZero(u.RepeatSessionRate),
		FeatAccountBalanceUSD: NormalizeLog(u.AccountBalanceUSD, maxima.AccountBalanceUSD),
	}

	// Recency bonus decays linearly from 1.0 at day 0 to 0.0 at day 30 and is
	// folded into repeat_session_rate, capped so the combined signal never
	// exceeds 1.0. Missing recency (NaN) earns no bonus.
	recency := 0.0
	if days := u.DaysSinceLastEvent; !math.IsNaN(days) && days <= 30 {
		recency = math.Max(0, (30-days)/30)
	}
	feats[FeatRepeatSessionRate] = math.Min(1.0, feats[FeatRepeatSessionRate]+0.25*recency)

	ordered := orderedFeatures(s.weights)

	contribs := make(map[string]float64, len(s.weights))
	raw := 0.0
	for _, f := range ordered {
		v := feats[f] // absent feature scores as 0
		c := s.weights[f] * v
		contribs[f] = round3(c * 100)
		raw += c
	}

	score := round2(raw * 100)

	var label string
	switch {
	case score >= s.thresholds.High:
		label = LabelHigh
	case score >= s.thresholds.Medium:
		label = LabelMedium
	default:
		label = LabelLow
	}

	return ScoredUser{
		UserFeatures:         u,
		Score:                score,
		ScoreLabel:           label,
		Explanation:          explain(ordered, contribs),
		FeatureContributions: contribs,
	}
}

// explain ranks contribution points descending (ties keep the canonical
// feature order) and formats up to the top 3 positive contributors.
func explain(ordered []string, contribs map[string]float64) string {
	ranked := make([]string, len(ordered))
	copy(ranked, ordered)
	sort.SliceStable(ranked, func(i, j int) bool {
		return contribs[ranked[i]] > contribs[ranked[j]]
	})

	var parts []string
	for _, f := range ranked {
		if len(parts) == 3 {
			break
		}
		if contribs[f] > 0 {
			parts = append(parts, fmt.Sprintf("%s (+%.1f pts)", f, contribs[f]))
		}
	}

	if len(parts) == 0 {
		return NoSignalExplanation
	}
	return strings.Join(parts, " + ")
}

func binary(count int) float64 {
	if count > 0 {
		return 1.0
	}
	return 0.0
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
