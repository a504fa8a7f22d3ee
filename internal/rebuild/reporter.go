package rebuild

import (
	"log/slog"
	"time"

	"github.com/fortuna/rinkside/internal/logging"
)

type nopReporter struct{}

func (nopReporter) OnJobStart(string, JobSpec) {}
func (nopReporter) OnDateStart(time.Time, int, int) {}
func (nopReporter) OnGameProcessed(int64, int, int) {}
func (nopReporter) OnProgress(string, int, int) {}
func (nopReporter) OnJobComplete(Summary) {}
func (nopReporter) OnJobError(error) {}

// LogReporter writes runner callbacks to a structured logger.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a reporter logging to l.
func NewLogReporter(l *slog.Logger) *LogReporter {
	return &LogReporter{logger: logging.OrDefault(l)}
}

func (r *LogReporter) OnJobStart(runID string, spec JobSpec) {
	r.logger.Info("rebuild started",
		"run_id", runID,
		"type", spec.Type,
		"calc_version", spec.CalcVersion,
		"slices", len(spec.Slices),
		"dry_run", spec.DryRun,
	)
}

func (r *LogReporter) OnDateStart(date time.Time, index int, total int) {
	r.logger.Info("rebuilding date", "date", date.Format("2006-01-02"), "index", index+1, "total", total)
}

func (r *LogReporter) OnGameProcessed(gameID int64, written int, skipped int) {
	r.logger.Info("game rebuilt", "game_id", gameID, "rows_written", written, "rows_skipped", skipped)
}

func (r *LogReporter) OnProgress(message string, current int, total int) {
	r.logger.Debug(message, "current", current, "total", total)
}

func (r *LogReporter) OnJobComplete(s Summary) {
	r.logger.Info("rebuild complete",
		"run_id", s.RunID,
		"games_seen", s.GamesSeen,
		"games_failed", s.GamesFailed,
		"rows_written", s.RowsWritten,
		"rows_skipped", s.RowsSkipped,
		"elapsed", s.Elapsed,
	)
}

func (r *LogReporter) OnJobError(err error) {
	r.logger.Error("rebuild error", "error", err)
}
