package services

import (
	"context"
	"time"

	"yumyumCoachAPI/internal/types/challenge"
)

// ChallengeStore returns (nil, nil) when a challenge does not exist.
type ChallengeStore interface {
	FindByID(ctx context.Context, id int64) (*challenge.Challenge, error)
	FindByPeriod(ctx context.Context, startDate, endDate time.Time) ([]*challenge.Challenge, error)
}

type RuleStore interface {
	FindTier(ctx context.Context, challengeID int64, difficulty challenge.DifficultyCode) (*challenge.DifficultyTier, error)
}

// ParticipationStore must reject a second row for the same (challenge, user)
// with challenge.ErrAlreadyJoined.
type ParticipationStore interface {
	FindByChallengeAndUser(ctx context.Context, challengeID int64, userID string) (*challenge.Participant, error)
	ExistsByChallengeAndUser(ctx context.Context, challengeID int64, userID string) (bool, error)
	Insert(ctx context.Context, p *challenge.Participant) error
	UpdateStatus(ctx context.Context, challengeID int64, userID string, status challenge.ParticipantStatus, at time.Time) error
	UpdateProgress(ctx context.Context, challengeID int64, userID string, successDays int, progress float64, evaluatedAt time.Time) error
	DeleteByChallengeAndUser(ctx context.Context, challengeID int64, userID string) error
	CountByChallenge(ctx context.Context, challengeID int64) (int, error)
	ListActiveByChallenge(ctx context.Context, challengeID int64) ([]*challenge.Participant, error)
}

// TxManager runs fn inside one store transaction. The store handed to fn is
// bound to that transaction; returning an error rolls everything back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, participants ParticipationStore) error) error
}

type ActivityStore interface {
	DailyActivity(ctx context.Context, userID string, from, to time.Time) ([]challenge.DailyActivity, error)
}

// Store is everything a storage backend provides.
type Store interface {
	ChallengeStore
	RuleStore
	ParticipationStore
	ActivityStore
	TxManager
}
