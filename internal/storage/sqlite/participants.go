package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"yumyumCoachAPI/internal/types/challenge"
)

const participantColumns = `id, challenge_id, user_id, difficulty_code, required_success_days, daily_target_value,
	success_days, progress_percentage, status, joined_at, left_at, last_evaluated_at`

func scanParticipant(row rowScanner) (*challenge.Participant, error) {
	var (
		p                      challenge.Participant
		id, difficulty, status string
		target                 sql.NullFloat64
		joinedAt               int64
		leftAt, evaluatedAt    sql.NullInt64
	)
	if err := row.Scan(&id, &p.ChallengeID, &p.UserID, &difficulty, &p.RequiredSuccessDays, &target,
		&p.SuccessDays, &p.ProgressPercentage, &status, &joinedAt, &leftAt, &evaluatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid participant id %q: %w", id, err)
	}
	p.ID = parsed
	p.DifficultyCode = challenge.DifficultyCode(difficulty)
	p.Status = challenge.ParticipantStatus(status)
	p.DailyTargetValue = fromNullFloat(target)
	p.JoinedAt = fromMillis(joinedAt)
	p.LeftAt = fromNullMillis(leftAt)
	p.LastEvaluatedAt = fromNullMillis(evaluatedAt)
	return &p, nil
}

func (s *Store) FindByChallengeAndUser(ctx context.Context, challengeID int64, userID string) (*challenge.Participant, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+participantColumns+`
		FROM challenge_participants
		WHERE challenge_id = ? AND user_id = ?`, challengeID, userID)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

func (s *Store) ExistsByChallengeAndUser(ctx context.Context, challengeID int64, userID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM challenge_participants WHERE challenge_id = ? AND user_id = ?)`,
		challengeID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

func (s *Store) Insert(ctx context.Context, p *challenge.Participant) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO challenge_participants (`+participantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.ChallengeID, p.UserID, string(p.DifficultyCode), p.RequiredSuccessDays,
		toNullFloat(p.DailyTargetValue), p.SuccessDays, p.ProgressPercentage, string(p.Status),
		toMillis(p.JoinedAt), toNullMillis(p.LeftAt), toNullMillis(p.LastEvaluatedAt))
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
	res, err := s.q.ExecContext(ctx, `
		UPDATE challenge_participants
		SET status = ?, left_at = ?
		WHERE challenge_id = ? AND user_id = ? AND status = ?`,
		string(status), toMillis(at), challengeID, userID, string(challenge.StatusActive))
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}
	return s.requireActiveRow(ctx, res, challengeID, userID)
}

func (s *Store) UpdateProgress(ctx context.Context, challengeID int64, userID string, successDays int, progress float64, evaluatedAt time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE challenge_participants
		SET success_days = ?, progress_percentage = ?, last_evaluated_at = ?
		WHERE challenge_id = ? AND user_id = ? AND status = ?`,
		successDays, progress, toMillis(evaluatedAt), challengeID, userID, string(challenge.StatusActive))
	if err != nil {
		return fmt.Errorf("failed to update participant progress: %w", err)
	}
	return s.requireActiveRow(ctx, res, challengeID, userID)
}

func (s *Store) DeleteByChallengeAndUser(ctx context.Context, challengeID int64, userID string) error {
	res, err := s.q.ExecContext(ctx, `
		DELETE FROM challenge_participants WHERE challenge_id = ? AND user_id = ?`, challengeID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return requireRow(res)
}

// CountByChallenge counts ACTIVE participants only.
func (s *Store) CountByChallenge(ctx context.Context, challengeID int64) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM challenge_participants WHERE challenge_id = ? AND status = ?`,
		challengeID, string(challenge.StatusActive)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

func (s *Store) ListActiveByChallenge(ctx context.Context, challengeID int64) ([]*challenge.Participant, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+participantColumns+`
		FROM challenge_participants
		WHERE challenge_id = ? AND status = ?
		ORDER BY joined_at, user_id`, challengeID, string(challenge.StatusActive))
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

// requireActiveRow explains a guarded write that matched no ACTIVE row.
func (s *Store) requireActiveRow(ctx context.Context, res sql.Result, challengeID int64, userID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	p, err := s.FindByChallengeAndUser(ctx, challengeID, userID)
	if err != nil {
		return err
	}
	if p != nil && !p.IsActive() {
		return challenge.ErrAlreadyLeft
	}
	return challenge.ErrParticipationNotFound
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return challenge.ErrParticipationNotFound
	}
	return nil
}
