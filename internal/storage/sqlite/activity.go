package sqlite

import (
	"context"
	"fmt"
	"time"

	"yumyumCoachAPI/internal/types/challenge"
)

// ExerciseRecord is one logged workout feeding the progress evaluator.
type ExerciseRecord struct {
	UserID          string
	ExerciseID      int64
	RecordDate      time.Time
	DurationMinutes float64
	Calories        float64
	Steps           int64
}

func (s *Store) AddExerciseRecord(ctx context.Context, r ExerciseRecord) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO exercise_records (user_id, exercise_id, record_date, duration_minutes, calories, steps)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.ExerciseID, formatDate(r.RecordDate), r.DurationMinutes, r.Calories, r.Steps)
	if err != nil {
		return fmt.Errorf("failed to add exercise record: %w", err)
	}
	return nil
}

// DailyActivity sums a user's exercise records per day within [from, to].
func (s *Store) DailyActivity(ctx context.Context, userID string, from, to time.Time) ([]challenge.DailyActivity, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT record_date,
			COALESCE(SUM(duration_minutes), 0),
			COALESCE(SUM(calories), 0),
			COALESCE(SUM(steps), 0),
			COUNT(*)
		FROM exercise_records
		WHERE user_id = ? AND record_date BETWEEN ? AND ?
		GROUP BY record_date
		ORDER BY record_date`,
		userID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate exercise records: %w", err)
	}
	defer rows.Close()

	var days []challenge.DailyActivity
	for rows.Next() {
		var (
			d   challenge.DailyActivity
			day string
		)
		if err := rows.Scan(&day, &d.DurationMinutes, &d.Calories, &d.Steps, &d.Sessions); err != nil {
			return nil, fmt.Errorf("failed to scan daily activity: %w", err)
		}
		if d.Day, err = parseDate(day); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}
