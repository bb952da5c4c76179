package notifyService

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"perfectTipsBot/models"
)

// Notifier receives the outcome of a settlement pass. Sinks only forward the
// report; whether subscribers hear about it is decided downstream.
type Notifier interface {
	Name() string
	NotifySettlement(ctx context.Context, report models.SettlementReport) error
}

// MultiNotifier fans a report out to every sink. One sink failing does not stop
// the others.
type MultiNotifier struct {
	sinks []Notifier
	log   *zap.Logger
}

func NewMultiNotifier(log *zap.Logger, sinks ...Notifier) *MultiNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &MultiNotifier{sinks: sinks, log: log}
}

func (m *MultiNotifier) Len() int { return len(m.sinks) }

func (m *MultiNotifier) NotifySettlement(ctx context.Context, report models.SettlementReport) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.NotifySettlement(ctx, report); err != nil {
			m.log.Warn("notification sink failed",
				zap.String("sink", sink.Name()),
				zap.String("run_id", report.RunID),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiNotifier) Close() error {
	var errs []error
	for _, sink := range m.sinks {
		if c, ok := sink.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// FormatReport renders a report as plain text for chat sinks.
func FormatReport(report models.SettlementReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Settlement %s (%s)\n", shortRunID(report.RunID), report.Mode)
	fmt.Fprintf(&b, "Settled: %d (applied %d) | Manual review: %d | Unresolved: %d\n",
		report.SettledCount, report.AppliedCount, report.ManualReviewCount, report.UnresolvedCount)
	if report.AccumulatorsSettled > 0 {
		fmt.Fprintf(&b, "Accumulators settled: %d\n", report.AccumulatorsSettled)
	}
	if report.WriteFailures > 0 {
		fmt.Fprintf(&b, "Write failures: %d\n", report.WriteFailures)
	}
	if report.UnrecognizedCount > 0 {
		fmt.Fprintf(&b, "Voided unrecognized codes: %d\n", report.UnrecognizedCount)
	}
	for _, skipped := range report.SkippedLeagues {
		fmt.Fprintf(&b, "Skipped %s: %s\n", skipped.League, skipped.Reason)
	}
	if len(report.ManualReviewTipIDs) > 0 {
		ids := make([]string, 0, len(report.ManualReviewTipIDs))
		for _, id := range report.ManualReviewTipIDs {
			ids = append(ids, fmt.Sprintf("#%d", id))
		}
		fmt.Fprintf(&b, "Needs review: %s\n", strings.Join(ids, ", "))
	}
	for _, match := range report.PerMatchResults {
		b.WriteString(formatMatch(match))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMatch(m models.MatchSettlement) string {
	score := "n/a"
	if m.Score != nil {
		score = *m.Score
	}
	return fmt.Sprintf("%s %s v %s %s: %s", statusIcon(m.Status), m.HomeTeam, m.AwayTeam, score, strings.ToUpper(string(m.Status)))
}

func statusIcon(status models.TipStatus) string {
	switch status {
	case models.StatusWon:
		return "✅"
	case models.StatusLost:
		return "❌"
	case models.StatusVoid:
		return "➖"
	default:
		return "⏳"
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
