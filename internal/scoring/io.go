package scoring

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Wuchinator/intent-scoring/internal/feature"
	"go.uber.org/zap"
)

// ScoredColumns extends the user-features columns with the scoring outputs.
var ScoredColumns = append(append([]string{}, feature.Columns...),
	"score", "score_label", "explanation", "feature_contributions",
)

// topColumns is the reduced shape of the ranked top-users view.
var topColumns = []string{
	"user_id", "username", "score", "score_label", "explanation",
	"signups", "calendar_bookings", "demo_request_clicks",
	"pricing_page_views", "converted",
}

// WriteScoresFile persists the full scored table in input order.
func WriteScoresFile(path string, scored []ScoredUser, logger *zap.Logger) error {
	rows := make([][]string, 0, len(scored))
	for _, su := range scored {
		contribs, err := json.Marshal(su.FeatureContributions)
		if err != nil {
			return fmt.Errorf("failed to marshal contributions: %w", err)
		}
		row := append(feature.Record(su.UserFeatures),
			feature.FormatFloat(su.Score),
			su.ScoreLabel,
			su.Explanation,
			string(contribs),
		)
		rows = append(rows, row)
	}

	if err := writeCSV(path, ScoredColumns, rows); err != nil {
		return err
	}

	logger.Info("Scored users written",
		zap.String("path", path),
		zap.Int("users", len(scored)),
	)
	return nil
}

// WriteTopFile persists the ranked top-n view with its reduced column set.
func WriteTopFile(path string, ranked []ScoredUser, logger *zap.Logger) error {
	rows := make([][]string, 0, len(ranked))
	for _, su := range ranked {
		rows = append(rows, []string{
			su.UserID,
			su.Username,
			feature.FormatFloat(su.Score),
			su.ScoreLabel,
			su.Explanation,
			fmt.Sprintf("%d", su.Signups),
			fmt.Sprintf("%d", su.CalendarBookings),
			fmt.Sprintf("%d", su.DemoRequestClicks),
			fmt.Sprintf("%d", su.PricingPageViews),
			fmt.Sprintf("%d", su.Converted),
		})
	}

	if err := writeCSV(path, topColumns, rows); err != nil {
		return err
	}

	logger.Info("Top users written",
		zap.String("path", path),
		zap.Int("users", len(ranked)),
	)
	return nil
}

// ReadScoresFile loads a previously written scored table.
func ReadScoresFile(path string, logger *zap.Logger) ([]ScoredUser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scored users: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read scored users csv: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrNoUsers
	}

	colIndex := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		colIndex[strings.TrimSpace(name)] = i
	}

	cell := func(row []string, col string) string {
		idx, ok := colIndex[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	scored := make([]ScoredUser, 0, len(records)-1)
	for _, row := range records[1:] {
		su := ScoredUser{
			UserFeatures: feature.ParseRecord(row, colIndex),
			ScoreLabel:   cell(row, "score_label"),
			Explanation:  cell(row, "explanation"),
		}
		if v, err := strconv.ParseFloat(cell(row, "score"), 64); err == nil {
			su.Score = v
		}

		contribs := make(map[string]float64)
		if raw := cell(row, "feature_contributions"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &contribs); err != nil {
				logger.Debug("Unparseable feature contributions",
					zap.String("user_id", su.UserID),
				)
			}
		}
		su.FeatureContributions = contribs

		scored = append(scored, su)
	}

	logger.Info("Scored users loaded",
		zap.String("path", path),
		zap.Int("users", len(scored)),
	)

	return scored, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
