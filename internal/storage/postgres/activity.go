package postgres

import (
	"context"
	"fmt"
	"time"

	"yumyumCoachAPI/internal/types/challenge"
)

// DailyActivity sums a user's exercise records per day within [from, to].
func (s *Store) DailyActivity(ctx context.Context, userID string, from, to time.Time) ([]challenge.DailyActivity, error) {
	rows, err := s.q.Query(ctx, `
		SELECT record_date,
			COALESCE(SUM(duration_minutes), 0),
			COALESCE(SUM(calories), 0),
			COALESCE(SUM(steps), 0)::BIGINT,
			COUNT(*)::INTEGER
		FROM exercise_records
		WHERE user_id = $1 AND record_date BETWEEN $2 AND $3
		GROUP BY record_date
		ORDER BY record_date`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate exercise records: %w", err)
	}
	defer rows.Close()

	var days []challenge.DailyActivity
	for rows.Next() {
		var d challenge.DailyActivity
		if err := rows.Scan(&d.Day, &d.DurationMinutes, &d.Calories, &d.Steps, &d.Sessions); err != nil {
			return nil, fmt.Errorf("failed to scan daily activity: %w", err)
		}
		days = append(days, d)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}
