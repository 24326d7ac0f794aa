package event

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type Writer struct {
	logger *zap.Logger
}

func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// WriteFile emits raw events in the wire column order.
func (w *Writer) WriteFile(path string, events []RawEvent) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create raw events file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, ev := range events {
		if err := cw.Write(eventRecord(ev)); err != nil {
			return fmt.Errorf("failed to write event row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush raw events: %w", err)
	}

	w.logger.Info("Raw events written",
		zap.String("path", path),
		zap.Int("events", len(events)),
	)

	return nil
}

func eventRecord(ev RawEvent) []string {
	ts := ""
	if ev.Timestamp != nil {
		ts = ev.Timestamp.UTC().Format(time.RFC3339)
	}

	scroll := ""
	if ev.ScrollDepthPct != nil {
		scroll = strconv.FormatFloat(*ev.ScrollDepthPct, 'f', -1, 64)
	}

	return []string{
		ev.EventID,
		ev.UserID,
		ev.Username,
		ev.SessionID,
		ts,
		ev.EventType,
		ev.LocationCity,
		ev.Device,
		boolFlag(ev.IsRepeatSession),
		strconv.Itoa(ev.SessionNumber),
		strconv.FormatFloat(ev.AccountBalanceUSD, 'f', 2, 64),
		strconv.Itoa(ev.RecentPagesViewed),
		strconv.Itoa(ev.RecentPricingViews),
		ev.Gender,
		strconv.FormatFloat(ev.TimeOnPageSec, 'f', -1, 64),
		scroll,
		boolFlag(ev.BounceFlag),
		boolFlag(ev.SpamFlag),
	}
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
