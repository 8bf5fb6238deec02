// Package catchup reconciles stored tasks against the wall-clock date. It
// runs exactly once per application start, before any traffic is served, so
// calendar days that passed while the app was closed are charged to each
// task instead of silently forgotten.
package catchup

import (
	"log/slog"

	"github.com/rlowe/countback/internal/model"
)

// Apply charges missed-day penalties to every task whose last interaction is
// before today and reports whether anything changed, so the caller knows to
// persist. The rules per task:
//
//   - elapsed <= 0 days: untouched.
//   - the day the last interaction fell on ended without a check-in: +1.
//   - every fully skipped day in between: +1 each.
//
// The daily flag resets and the last interaction advances to today; the
// counter has no upper bound under prolonged neglect. A missing or
// unreadable last-interaction date counts as today (zero elapsed days).
//
// Apply never completes or removes a task, even if penalties were somehow
// applied to a non-positive counter: check-in is the only completion path.
// Running it twice on the same day is a no-op the second time.
func Apply(doc *model.Document, today model.Date, logger *slog.Logger) bool {
	changed := false

	for i := range doc.Tasks {
		task := &doc.Tasks[i]

		last := task.LastInteraction
		if last.IsZero() {
			last = today
		}
		elapsed := last.DaysUntil(today)
		if elapsed <= 0 {
			continue
		}

		penalty := 0
		if !task.CheckedToday {
			// The day that just ended was never checked in.
			penalty++
		}
		if elapsed > 1 {
			penalty += elapsed - 1
		}

		if penalty > 0 {
			task.RemainingDays += penalty
			logger.Info("missed-day penalty applied",
				"task_id", task.ID,
				"name", task.Name,
				"elapsed_days", elapsed,
				"penalty", penalty,
				"remaining_days", task.RemainingDays,
			)
		}
		task.CheckedToday = false
		task.LastInteraction = today
		changed = true
	}

	return changed
}
