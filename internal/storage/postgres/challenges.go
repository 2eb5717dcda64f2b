package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"yumyumCoachAPI/internal/types/challenge"
)

const challengeColumns = `id, name, short_description, goal_summary, rule_description, image_url,
	challenge_type, goal_type, start_date, end_date`

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	var c challenge.Challenge
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.ShortDescription,
		&c.GoalSummary,
		&c.RuleDescription,
		&c.ImageURL,
		&c.ChallengeType,
		&c.GoalType,
		&c.StartDate,
		&c.EndDate,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*challenge.Challenge, error) {
	c, err := scanChallenge(s.q.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge %d: %w", id, err)
	}
	return c, nil
}

// FindByPeriod returns challenges whose date range overlaps [startDate, endDate].
func (s *Store) FindByPeriod(ctx context.Context, startDate, endDate time.Time) ([]*challenge.Challenge, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges
		WHERE start_date <= $1 AND end_date >= $2
		ORDER BY start_date, id`, endDate, startDate)
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
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return challenges, nil
}

// CreateChallenge upserts when c carries an ID, so fixtures can be re-applied.
func (s *Store) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	var err error
	if c.ID != 0 {
		_, err = s.q.Exec(ctx, `
			INSERT INTO challenges (`+challengeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
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
			c.ID, c.Name, c.ShortDescription, c.GoalSummary, c.RuleDescription, c.ImageURL,
			c.ChallengeType, c.GoalType, c.StartDate, c.EndDate)
		if err == nil {
			// keep BIGSERIAL ahead of explicitly seeded ids
			_, err = s.q.Exec(ctx, `
				SELECT setval(pg_get_serial_sequence('challenges', 'id'), (SELECT MAX(id) FROM challenges))`)
		}
	} else {
		err = s.q.QueryRow(ctx, `
			INSERT INTO challenges (name, short_description, goal_summary, rule_description, image_url,
				challenge_type, goal_type, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			c.Name, c.ShortDescription, c.GoalSummary, c.RuleDescription, c.ImageURL,
			c.ChallengeType, c.GoalType, c.StartDate, c.EndDate).Scan(&c.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (s *Store) FindTier(ctx context.Context, challengeID int64, difficulty challenge.DifficultyCode) (*challenge.DifficultyTier, error) {
	var tier challenge.DifficultyTier
	err := s.q.QueryRow(ctx, `
		SELECT challenge_id, difficulty_code, required_success_days, daily_target_value
		FROM challenge_rules
		WHERE challenge_id = $1 AND difficulty_code = $2`, challengeID, difficulty).Scan(
		&tier.ChallengeID,
		&tier.DifficultyCode,
		&tier.RequiredSuccessDays,
		&tier.DailyTargetValue,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge rule: %w", err)
	}
	return &tier, nil
}

func (s *Store) PutTier(ctx context.Context, tier *challenge.DifficultyTier) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO challenge_rules (challenge_id, difficulty_code, required_success_days, daily_target_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (challenge_id, difficulty_code) DO UPDATE SET
			required_success_days = EXCLUDED.required_success_days,
			daily_target_value = EXCLUDED.daily_target_value`,
		tier.ChallengeID, tier.DifficultyCode, tier.RequiredSuccessDays, tier.DailyTargetValue)
	if err != nil {
		return fmt.Errorf("failed to save challenge rule: %w", err)
	}
	return nil
}
