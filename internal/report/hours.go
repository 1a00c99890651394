package report

import (
	"math"
	"strings"

	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/models"
)

// completedStatuses are the task statuses that count as finished work.
var completedStatuses = map[string]bool{"completed": true, "done": true}

// derivedHours estimates the effort of a task from its dates when no labor
// was logged against it. A zero or negative span still counts as one hour.
func derivedHours(t *models.Task) float64 {
	start, okStart := dates.Parse(t.StartDate)
	if !okStart {
		return 0
	}
	end, okEnd := dates.Parse(t.EndDate)
	if !okEnd {
		return 1
	}
	return math.Max(1, end.Sub(start).Hours())
}

// taskInRange applies the report date filter to a task: its start must not
// precede r.Start and its end must not follow r.End. A bound the task cannot
// be compared against excludes it.
func taskInRange(t *models.Task, r dates.Range) bool {
	if r.Start != nil {
		start, ok := dates.Parse(t.StartDate)
		if !ok || start.Before(*r.Start) {
			return false
		}
	}
	if r.End != nil {
		end, ok := dates.Parse(t.EndDate)
		if !ok || end.After(*r.End) {
			return false
		}
	}
	return true
}

func isCompleted(t *models.Task) bool {
	return completedStatuses[strings.ToLower(strings.TrimSpace(t.Status))]
}

// laborInRange keeps rows whose work date falls within r.
func laborInRange(rows []models.LaborCost, r dates.Range) []models.LaborCost {
	out := make([]models.LaborCost, 0, len(rows))
	for _, row := range rows {
		if r.ContainsString(row.WorkDate) {
			out = append(out, row)
		}
	}
	return out
}

// preferLabor returns the summed labor hours when any rows exist, and the
// derived estimate for tasks otherwise.
func preferLabor(rows []models.LaborCost, tasks []*models.Task) float64 {
	if len(rows) > 0 {
		var sum float64
		for _, r := range rows {
			sum += r.Hours
		}
		return sum
	}
	var sum float64
	for _, t := range tasks {
		sum += derivedHours(t)
	}
	return sum
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
