package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Wuchinator/intent-scoring/internal/config"
	"github.com/Wuchinator/intent-scoring/internal/event"
	"github.com/Wuchinator/intent-scoring/internal/feature"
	"github.com/Wuchinator/intent-scoring/internal/generate"
	"github.com/Wuchinator/intent-scoring/internal/scoring"
	"github.com/Wuchinator/intent-scoring/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	mode := flag.String("mode", "pipeline", "pipeline | generate | featurize | score | rank | explain")
	input := flag.String("input", "", "input file path (defaults per mode)")
	output := flag.String("output", "", "output file path (defaults per mode)")
	numUsers := flag.Int("users", 0, "number of users to generate")
	seed := flag.Int64("seed", -1, "random seed for generation")
	topN := flag.Int("n", 20, "number of top users for ranked output")
	showTop := flag.Int("show-top", 0, "show top N users after scoring")
	userID := flag.String("user-id", "", "explain a specific user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log = logger.WithComponent(log, "pipeline")

	if *numUsers > 0 {
		cfg.Generate.NumUsers = *numUsers
	}
	if *seed >= 0 {
		cfg.Generate.Seed = *seed
	}

	var runErr error
	switch *mode {
	case "pipeline":
		runErr = runPipeline(cfg, log, *topN)
	case "generate":
		runErr = runGenerate(cfg, log, pick(*output, cfg.Data.RawEventsFile))
	case "featurize":
		runErr = runFeaturize(log,
			pick(*input, cfg.Data.RawEventsFile),
			pick(*output, cfg.Data.UserFeaturesFile))
	case "score":
		runErr = runScore(log,
			pick(*input, cfg.Data.UserFeaturesFile),
			pick(*output, cfg.Data.UserScoresFile),
			*showTop)
	case "rank":
		runErr = runRank(log,
			pick(*input, cfg.Data.UserScoresFile),
			pick(*output, cfg.Data.TopUsersFile),
			*topN)
	case "explain":
		runErr = runExplain(log,
			pick(*input, cfg.Data.UserScoresFile),
			*userID, *topN)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		flag.Usage()
		os.Exit(2)
	}

	if runErr != nil {
		var schemaErr *event.SchemaError
		switch {
		case errors.As(runErr, &schemaErr):
			log.Fatal("Input schema invalid, no output written", zap.Error(runErr))
		case errors.Is(runErr, event.ErrEmptyInput), errors.Is(runErr, feature.ErrNoEvents), errors.Is(runErr, scoring.ErrNoUsers):
			log.Fatal("Input is empty, nothing to score", zap.Error(runErr))
		default:
			log.Fatal("Pipeline stage failed", zap.Error(runErr))
		}
	}
}

func pick(flagValue, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return defaultValue
}

func runPipeline(cfg *config.Config, log *zap.Logger, topN int) error {
	log.Info("Running complete pipeline")

	if err := runGenerate(cfg, log, cfg.Data.RawEventsFile); err != nil {
		return err
	}
	if err := runFeaturize(log, cfg.Data.RawEventsFile, cfg.Data.UserFeaturesFile); err != nil {
		return err
	}
	if err := runScore(log, cfg.Data.UserFeaturesFile, cfg.Data.UserScoresFile, 0); err != nil {
		return err
	}
	if err := runRank(log, cfg.Data.UserScoresFile, cfg.Data.TopUsersFile, topN); err != nil {
		return err
	}
	if err := runExplain(log, cfg.Data.UserScoresFile, "", 10); err != nil {
		return err
	}

	log.Info("Pipeline complete",
		zap.String("raw_events", cfg.Data.RawEventsFile),
		zap.String("user_features", cfg.Data.UserFeaturesFile),
		zap.String("user_scores", cfg.Data.UserScoresFile),
		zap.String("top_users", cfg.Data.TopUsersFile),
	)
	return nil
}

func runGenerate(cfg *config.Config, log *zap.Logger, output string) error {
	gen := generate.NewService(generate.Config{
		NumUsers: cfg.Generate.NumUsers,
		Seed:     cfg.Generate.Seed,
		DaysBack: cfg.Generate.DaysBack,
	}, log)

	events := gen.Generate(time.Now().UTC())

	return event.NewWriter(log).WriteFile(output, events)
}

func runFeaturize(log *zap.Logger, input, output string) error {
	events, err := event.NewReader(log).ReadFile(input)
	if err != nil {
		return err
	}

	users, err := feature.NewService(log).Aggregate(events, time.Now().UTC())
	if err != nil {
		return err
	}

	if err := feature.WriteFile(output, users, log); err != nil {
		return err
	}

	converted := 0
	for _, u := range users {
		converted += u.Converted
	}
	fmt.Printf("\nFeature summary: %d users, %d converted\n", len(users), converted)
	return nil
}

func runScore(log *zap.Logger, input, output string, showTop int) error {
	users, err := feature.ReadFile(input, log)
	if err != nil {
		return err
	}

	scorer := scoring.NewService(scoring.DefaultWeights(), scoring.DefaultThresholds(), log)
	scored, err := scorer.Score(users)
	if err != nil {
		return err
	}

	if err := scoring.WriteScoresFile(output, scored, log); err != nil {
		return err
	}

	stats := scoring.ComputeStats(scored)
	fmt.Printf("\nScore distribution:\n")
	fmt.Printf("  Mean:   %6.2f\n", stats.Mean)
	fmt.Printf("  Median: %6.2f\n", stats.Median)
	fmt.Printf("  Range:  %.2f - %.2f\n", stats.Min, stats.Max)

	if showTop > 0 {
		fmt.Printf("\nTop %d users:\n", showTop)
		for i, su := range scoring.Rank(scored, showTop) {
			fmt.Printf("  %d. %s - %.1f (%s) - %s\n",
				i+1, su.Username, su.Score, su.ScoreLabel, su.Explanation)
		}
	}

	return nil
}

func runRank(log *zap.Logger, input, output string, n int) error {
	scored, err := scoring.ReadScoresFile(input, log)
	if err != nil {
		return err
	}

	ranked := scoring.Rank(scored, n)
	if err := scoring.WriteTopFile(output, ranked, log); err != nil {
		return err
	}

	preview := len(ranked)
	if preview > 5 {
		preview = 5
	}
	fmt.Printf("\nTop %d users:\n", preview)
	for i, su := range ranked[:preview] {
		fmt.Printf("  %d. %s - %.1f [%s]\n", i+1, su.Username, su.Score, strings.ToUpper(su.ScoreLabel))
		fmt.Printf("     %s\n", su.Explanation)
	}

	return nil
}

func runExplain(log *zap.Logger, input, userID string, topN int) error {
	scored, err := scoring.ReadScoresFile(input, log)
	if err != nil {
		return err
	}

	if userID != "" {
		su, err := scoring.ExplainLocal(scored, userID)
		if err != nil {
			return fmt.Errorf("explain %s: %w", userID, err)
		}
		printLocal(su)
		return nil
	}

	printGlobal(scoring.ExplainGlobal(scored, topN))
	return nil
}

func printGlobal(g scoring.GlobalExplanation) {
	line := strings.Repeat("=", 70)

	fmt.Println("\n" + line)
	fmt.Println("RULE-BASED SCORING - GLOBAL EXPLANATION")
	fmt.Println(line)

	fmt.Printf("\nDataset overview:\n")
	fmt.Printf("   Total users: %d\n", g.TotalUsers)
	if g.TotalUsers > 0 {
		fmt.Printf("   Converted:   %d (%.1f%%)\n", g.Converted, 100*float64(g.Converted)/float64(g.TotalUsers))
	}

	fmt.Printf("\nScore distribution:\n")
	fmt.Printf("   Mean:   %6.2f\n", g.Stats.Mean)
	fmt.Printf("   Median: %6.2f\n", g.Stats.Median)
	fmt.Printf("   Range:  %.2f - %.2f\n", g.Stats.Min, g.Stats.Max)
	fmt.Printf("   Std:    %6.2f\n", g.Stats.Std)

	fmt.Printf("\nScore labels:\n")
	total := g.TotalUsers
	for _, lc := range []struct {
		name  string
		count int
	}{{"High", g.Labels.High}, {"Medium", g.Labels.Medium}, {"Low", g.Labels.Low}} {
		pct := 0.0
		if total > 0 {
			pct = 100 * float64(lc.count) / float64(total)
		}
		fmt.Printf("   %-8s: %3d users (%5.1f%%)\n", lc.name, lc.count, pct)
	}

	fmt.Printf("\nTop %d users by score:\n", len(g.Top))
	for i, su := range g.Top {
		fmt.Printf("\n   #%2d. %s (ID: %s)\n", i+1, su.Username, su.UserID)
		fmt.Printf("       Score: %.1f/100 [%s]\n", su.Score, strings.ToUpper(su.ScoreLabel))
		fmt.Printf("       Why:   %s\n", su.Explanation)
	}

	if len(g.ImpactOrder) > 0 {
		maxImpact := g.FeatureImpact[g.ImpactOrder[0]]
		fmt.Printf("\nFeature impact (total contribution points):\n")
		for _, f := range g.ImpactOrder {
			pts := g.FeatureImpact[f]
			barLen := 0
			if maxImpact > 0 {
				barLen = int(pts / maxImpact * 30)
			}
			fmt.Printf("   %-25s %-30s %7.1f pts\n", f, strings.Repeat("#", barLen), pts)
		}
	}

	fmt.Println("\n" + line)
}

func printLocal(su *scoring.ScoredUser) {
	line := strings.Repeat("=", 70)

	fmt.Println("\n" + line)
	fmt.Printf("LOCAL EXPLANATION - User %s\n", su.UserID)
	fmt.Println(line)

	fmt.Printf("\nUser: %s\n", su.Username)
	fmt.Printf("   Location: %s\n", su.LocationCity)
	fmt.Printf("   Device:   %s\n", su.PrimaryDevice)

	fmt.Printf("\nScore: %.1f/100 [%s]\n", su.Score, strings.ToUpper(su.ScoreLabel))
	fmt.Printf("   %s\n", su.Explanation)

	maxPts := 0.0
	for _, pts := range su.FeatureContributions {
		if pts > maxPts {
			maxPts = pts
		}
	}
	if maxPts > 0 {
		names := make([]string, 0, len(su.FeatureContributions))
		for f := range su.FeatureContributions {
			names = append(names, f)
		}
		sort.SliceStable(names, func(i, j int) bool {
			if su.FeatureContributions[names[i]] != su.FeatureContributions[names[j]] {
				return su.FeatureContributions[names[i]] > su.FeatureContributions[names[j]]
			}
			return names[i] < names[j]
		})

		fmt.Printf("\nFeature contributions:\n")
		for _, f := range names {
			pts := su.FeatureContributions[f]
			if pts <= 0 {
				continue
			}
			barLen := int(pts / maxPts * 20)
			fmt.Printf("   %-25s %-20s +%5.1f pts\n", f, strings.Repeat("#", barLen), pts)
		}
	}

	fmt.Println("\n" + line)
}
