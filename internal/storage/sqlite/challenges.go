package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"yumyumCoachAPI/internal/types/challenge"
)

const challengeColumns = `id, name, short_description, goal_summary, rule_description, image_url,
	challenge_type, goal_type, start_date, end_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row rowScanner) (*challenge.Challenge, error) {
	var (
		c          challenge.Challenge
		imageURL   sql.NullString
		goalType   string
		start, end string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.ShortDescription, &c.GoalSummary, &c.RuleDescription, &imageURL,
		&c.ChallengeType, &goalType, &start, &end); err != nil {
		return nil, err
	}
	if imageURL.Valid {
		c.ImageURL = &imageURL.String
	}
	c.GoalType = challenge.GoalType(goalType)

	var err error
	if c.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if c.EndDate, err = parseDate(end); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*challenge.Challenge, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id)
	c, err := scanChallenge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge %d: %w", id, err)
	}
	return c, nil
}

// FindByPeriod returns challenges whose date range overlaps [startDate, endDate].
func (s *Store) FindByPeriod(ctx context.Context, startDate, endDate time.Time) ([]*challenge.Challenge, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges
		WHERE start_date <= ? AND end_date >= ?
		ORDER BY start_date, id`,
		formatDate(endDate), formatDate(startDate))
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return challenges, nil
}

// CreateChallenge inserts c, or overwrites the row with the same ID so that
// fixtures can be re-applied. A zero ID lets SQLite assign one, which is
// written back to c.
func (s *Store) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	var id any
	if c.ID != 0 {
		id = c.ID
	}
	var imageURL sql.NullString
	if c.ImageURL != nil {
		imageURL = sql.NullString{String: *c.ImageURL, Valid: true}
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO challenges (`+challengeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			short_description = excluded.short_description,
			goal_summary = excluded.goal_summary,
			rule_description = excluded.rule_description,
			image_url = excluded.image_url,
			challenge_type = excluded.challenge_type,
			goal_type = excluded.goal_type,
			start_date = excluded.start_date,
			end_date = excluded.end_date`,
		id, c.Name, c.ShortDescription, c.GoalSummary, c.RuleDescription, imageURL,
		c.ChallengeType, string(c.GoalType), formatDate(c.StartDate), formatDate(c.EndDate))
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	if c.ID == 0 {
		if c.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read challenge id: %w", err)
		}
	}
	return nil
}

func (s *Store) FindTier(ctx context.Context, challengeID int64, difficulty challenge.DifficultyCode) (*challenge.DifficultyTier, error) {
	var (
		tier   challenge.DifficultyTier
		code   string
		target sql.NullFloat64
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT challenge_id, difficulty_code, required_success_days, daily_target_value
		FROM challenge_rules
		WHERE challenge_id = ? AND difficulty_code = ?`,
		challengeID, string(difficulty)).Scan(&tier.ChallengeID, &code, &tier.RequiredSuccessDays, &target)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge rule: %w", err)
	}
	tier.DifficultyCode = challenge.DifficultyCode(code)
	tier.DailyTargetValue = fromNullFloat(target)
	return &tier, nil
}

// PutTier creates or replaces the rule row for (challenge, difficulty).
func (s *Store) PutTier(ctx context.Context, tier *challenge.DifficultyTier) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO challenge_rules (challenge_id, difficulty_code, required_success_days, daily_target_value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (challenge_id, difficulty_code) DO UPDATE SET
			required_success_days = excluded.required_success_days,
			daily_target_value = excluded.daily_target_value`,
		tier.ChallengeID, string(tier.DifficultyCode), tier.RequiredSuccessDays, toNullFloat(tier.DailyTargetValue))
	if err != nil {
		return fmt.Errorf("failed to save challenge rule: %w", err)
	}
	return nil
}
