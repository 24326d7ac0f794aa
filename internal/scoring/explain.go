package scoring

import (
	"errors"
	"math"
	"sort"
)

var ErrUserNotFound = errors.New("user not found")

type ScoreStats struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Std    float64
}

type LabelCounts struct {
	High   int
	Medium int
	Low    int
}

// GlobalExplanation aggregates scoring results across the whole population:
// distribution statistics, label breakdown, the ranked top users, and summed
// contribution points per feature. The full contribution map on each user is
// what makes this summation possible independent of the top-3 explanations.
type GlobalExplanation struct {
	TotalUsers    int
	Converted     int
	Stats         ScoreStats
	Labels        LabelCounts
	Top           []ScoredUser
	FeatureImpact map[string]float64
	ImpactOrder   []string
}

func ExplainGlobal(scored []ScoredUser, topN int) GlobalExplanation {
	g := GlobalExplanation{
		TotalUsers:    len(scored),
		Stats:         ComputeStats(scored),
		Top:           Rank(scored, topN),
		FeatureImpact: make(map[string]float64),
	}

	for _, su := range scored {
		if su.Converted == 1 {
			g.Converted++
		}
		switch su.ScoreLabel {
		case LabelHigh:
			g.Labels.High++
		case LabelMedium:
			g.Labels.Medium++
		case LabelLow:
			g.Labels.Low++
		}
		for f, pts := range su.FeatureContributions {
			g.FeatureImpact[f] += pts
		}
	}

	g.ImpactOrder = make([]string, 0, len(g.FeatureImpact))
	for f := range g.FeatureImpact {
		g.ImpactOrder = append(g.ImpactOrder, f)
	}
	sort.SliceStable(g.ImpactOrder, func(i, j int) bool {
		if g.FeatureImpact[g.ImpactOrder[i]] != g.FeatureImpact[g.ImpactOrder[j]] {
			return g.FeatureImpact[g.ImpactOrder[i]] > g.FeatureImpact[g.ImpactOrder[j]]
		}
		return g.ImpactOrder[i] < g.ImpactOrder[j]
	})

	return g
}

// ExplainLocal returns the scored row for one user.
func ExplainLocal(scored []ScoredUser, userID string) (*ScoredUser, error) {
	for i := range scored {
		if scored[i].UserID == userID {
			return &scored[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func ComputeStats(scored []ScoredUser) ScoreStats {
	if len(scored) == 0 {
		return ScoreStats{}
	}

	values := make([]float64, len(scored))
	sum := 0.0
	for i, su := range scored {
		values[i] = su.Score
		sum += su.Score
	}
	sort.Float64s(values)

	mean := sum / float64(len(values))

	var median float64
	mid := len(values) / 2
	if len(values)%2 == 0 {
		median = (values[mid-1] + values[mid]) / 2
	} else {
		median = values[mid]
	}

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	var std float64
	if len(values) > 1 {
		// Sample standard deviation.
		std = math.Sqrt(variance / float64(len(values)-1))
	}

	return ScoreStats{
		Mean:   mean,
		Median: median,
		Min:    values[0],
		Max:    values[len(values)-1],
		Std:    std,
	}
}
