package execlog

import (
	"fmt"
	"time"
)

// SummaryEntry identifies one execution inside a DailySummary, used for the
// slowest/fastest extremes.
type SummaryEntry struct {
	ActionID   string `json:"action_id"`
	Action     string `json:"action"`
	Target     string `json:"target"`
	DurationMs int64  `json:"duration_ms"`
}

// DailySummary is the aggregate view of one UTC day. It is recomputed from
// raw rows on every call and never stored, so it stays correct however the
// underlying day's rows arrived. Started rows are excluded: only terminal
// rows describe finished work.
type DailySummary struct {
	Date          string         `json:"date"`
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"by_status"`
	ByTarget      map[string]int `json:"by_target"`
	ByAction      map[string]int `json:"by_action"`
	AvgDurationMs float64        `json:"avg_duration_ms"`
	SuccessRate   float64        `json:"success_rate"`
	Slowest       *SummaryEntry  `json:"slowest,omitempty"`
	Fastest       *SummaryEntry  `json:"fastest,omitempty"`
}

// DailySummary recomputes the aggregates for date (YYYY-MM-DD, UTC).
func (r *SQLiteRepository) DailySummary(date string) (*DailySummary, error) {
	if _, err := time.Parse(dayLayout, date); err != nil {
		return nil, fmt.Errorf("execlog: invalid date %q: want YYYY-MM-DD", date)
	}

	rows, err := r.db.Query(`
        SELECT id, action_id, action, target, status, duration_ms
        FROM execution_log
        WHERE day = ? AND status IN (?, ?)
        ORDER BY id ASC`,
		date, StatusSuccess, StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("execlog: summary query failed: %w", err)
	}
	defer rows.Close()

	summary := &DailySummary{
		Date:     date,
		ByStatus: map[string]int{},
		ByTarget: map[string]int{},
		ByAction: map[string]int{},
	}
	var totalDuration int64
	for rows.Next() {
		var id, durationMs int64
		var actionID, action, target, status string
		if err := rows.Scan(&id, &actionID, &action, &target, &status, &durationMs); err != nil {
			return nil, fmt.Errorf("execlog: summary scan failed: %w", err)
		}

		summary.Total++
		summary.ByStatus[status]++
		summary.ByTarget[target]++
		summary.ByAction[action]++
		totalDuration += durationMs

		if summary.Slowest == nil || durationMs > summary.Slowest.DurationMs {
			summary.Slowest = &SummaryEntry{ActionID: actionID, Action: action, Target: target, DurationMs: durationMs}
		}
		if summary.Fastest == nil || durationMs < summary.Fastest.DurationMs {
			summary.Fastest = &SummaryEntry{ActionID: actionID, Action: action, Target: target, DurationMs: durationMs}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("execlog: summary query failed: %w", err)
	}

	if summary.Total > 0 {
		summary.AvgDurationMs = float64(totalDuration) / float64(summary.Total)
		summary.SuccessRate = float64(summary.ByStatus[StatusSuccess]) / float64(summary.Total)
	}
	return summary, nil
}
