package auth

import (
	"math"
	"time"
)

// NewJoineeWindow is how far back an employee counts as newly joined
const NewJoineeWindow = 30 * 24 * time.Hour

// ComputeHomeStats counts employees, employees created within
// NewJoineeWindow of now, and the average salary rounded half up to
// two decimals
func ComputeHomeStats(records []*Employee, now time.Time) HomeStats {
	stats := HomeStats{TotalEmployees: int64(len(records))}
	if len(records) == 0 {
		return stats
	}

	since := now.Add(-NewJoineeWindow)
	total := 0.0
	for _, record := range records {
		if record == nil {
			continue
		}
		total += record.Salary
		if record.CreatedAt != nil && record.CreatedAt.After(since) {
			stats.NewJoinees++
		}
	}

	stats.AvgSalary = math.Round(total/float64(len(records))*100) / 100
	return stats
}
