package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"yumyumCoachAPI/internal/types/challenge"
)

const participantColumns = `id, challenge_id, user_id, difficulty_code, required_success_days, daily_target_value,
	success_days, progress_percentage, status, joined_at, left_at, last_evaluated_at`

func scanParticipant(row pgx.Row) (*challenge.Participant, error) {
	var p challenge.Participant
	err := row.Scan(
		&p.ID,
		&p.ChallengeID,
		&p.UserID,
		&p.DifficultyCode,
		&p.RequiredSuccessDays,
		&p.DailyTargetValue,
		&p.SuccessDays,
		&p.ProgressPercentage,
		&p.Status,
		&p.JoinedAt,
		&p.LeftAt,
		&p.LastEvaluatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByChallengeAndUser locks the row when called inside WithinTx, so the
// check and the write that follows it cannot interleave with another request.
func (s *Store) FindByChallengeAndUser(ctx context.Context, challengeID int64, userID string) (*challenge.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM challenge_participants
		WHERE challenge_id = $1 AND user_id = $2`
	if s.inTx {
		query += " FOR UPDATE"
	}
	p, err := scanParticipant(s.q.QueryRow(ctx, query, challengeID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

func (s *Store) ExistsByChallengeAndUser(ctx context.Context, challengeID int64, userID string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2)`,
		challengeID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

func (s *Store) Insert(ctx context.Context, p *challenge.Participant) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO challenge_participants (`+participantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID,
		p.ChallengeID,
		p.UserID,
		p.DifficultyCode,
		p.RequiredSuccessDays,
		p.DailyTargetValue,
		p.SuccessDays,
		p.ProgressPercentage,
		p.Status,
		p.JoinedAt,
		p.LeftAt,
		p.LastEvaluatedAt,
	)
	if err != nil {
		if isParticipantUserConflict(err) {
			return challenge.ErrAlreadyJoined
		}
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// UpdateStatus only moves an ACTIVE row; a LEFT row is never written again.
func (s *Store) UpdateStatus(ctx context.Context, challengeID int64, userID string, status challenge.ParticipantStatus, at time.Time) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE challenge_participants
		SET status = $1, left_at = $2
		WHERE challenge_id = $3 AND user_id = $4 AND status = $5`,
		status, at, challengeID, userID, challenge.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.whyUnchanged(ctx, challengeID, userID)
	}
	return nil
}

func (s *Store) UpdateProgress(ctx context.Context, challengeID int64, userID string, successDays int, progress float64, evaluatedAt time.Time) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE challenge_participants
		SET success_days = $1, progress_percentage = $2, last_evaluated_at = $3
		WHERE challenge_id = $4 AND user_id = $5 AND status = $6`,
		successDays, progress, evaluatedAt, challengeID, userID, challenge.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to update participant progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.whyUnchanged(ctx, challengeID, userID)
	}
	return nil
}

func (s *Store) DeleteByChallengeAndUser(ctx context.Context, challengeID int64, userID string) error {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2`, challengeID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return requireRow(tag)
}

// CountByChallenge counts ACTIVE participants only.
func (s *Store) CountByChallenge(ctx context.Context, challengeID int64) (int, error) {
	var count int
	err := s.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM challenge_participants WHERE challenge_id = $1 AND status = $2`,
		challengeID, challenge.StatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

func (s *Store) ListActiveByChallenge(ctx context.Context, challengeID int64) ([]*challenge.Participant, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+participantColumns+`
		FROM challenge_participants
		WHERE challenge_id = $1 AND status = $2
		ORDER BY joined_at, user_id`, challengeID, challenge.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*challenge.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

// whyUnchanged explains a guarded write that matched no ACTIVE row.
func (s *Store) whyUnchanged(ctx context.Context, challengeID int64, userID string) error {
	p, err := s.FindByChallengeAndUser(ctx, challengeID, userID)
	if err != nil {
		return err
	}
	if p != nil && !p.IsActive() {
		return challenge.ErrAlreadyLeft
	}
	return challenge.ErrParticipationNotFound
}

func requireRow(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return challenge.ErrParticipationNotFound
	}
	return nil
}
