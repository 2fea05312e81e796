package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-ems-auth"
)

func TestComputeHomeStats(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, auth.HomeStats{}, auth.ComputeHomeStats(nil, now))
	})

	t.Run("counts joinees inside the window", func(t *testing.T) {
		records := []*auth.Employee{
			{Salary: 100, CreatedAt: at(time.Hour)},
			{Salary: 200, CreatedAt: at(29 * 24 * time.Hour)},
			{Salary: 300, CreatedAt: at(auth.NewJoineeWindow)},
			{Salary: 400, CreatedAt: at(90 * 24 * time.Hour)},
			{Salary: 500},
		}

		stats := auth.ComputeHomeStats(records, now)
		assert.Equal(t, int64(5), stats.TotalEmployees)
		assert.Equal(t, int64(2), stats.NewJoinees)
		assert.Equal(t, 300.0, stats.AvgSalary)
	})

	t.Run("average is rounded to cents", func(t *testing.T) {
		records := []*auth.Employee{
			{Salary: 100},
			{Salary: 200},
			{Salary: 200.01},
		}

		stats := auth.ComputeHomeStats(records, now)
		assert.Equal(t, 166.67, stats.AvgSalary)
	})
}
