package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yumyumCoachAPI/internal/metrics"
	"yumyumCoachAPI/internal/types/challenge"
)

// ChallengeService owns the participation lifecycle: join, leave and
// progress evaluation, plus the read-only listing used by the app.
type ChallengeService struct {
	challenges   ChallengeStore
	participants ParticipationStore
	tx           TxManager
	rules        *RuleResolver
	evaluator    *ProgressEvaluator
	now          func() time.Time
	loc          *time.Location
	rejoin       RejoinPolicy
}

func NewChallengeService(store Store, opts ...Option) *ChallengeService {
	o := applyOptions(opts)
	return &ChallengeService{
		challenges:   store,
		participants: store,
		tx:           store,
		rules:        NewRuleResolver(store),
		evaluator:    NewProgressEvaluator(store, store, store, store, opts...),
		now:          o.now,
		loc:          o.loc,
		rejoin:       o.rejoin,
	}
}

func (s *ChallengeService) findChallenge(ctx context.Context, challengeID int64) (*challenge.Challenge, error) {
	c, err := s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if c == nil {
		return nil, challenge.ErrChallengeNotFound
	}
	return c, nil
}

// blocksJoin reports whether an existing row prevents a new join under the
// configured rejoin policy.
func (s *ChallengeService) blocksJoin(existing *challenge.Participant) bool {
	if existing == nil {
		return false
	}
	return existing.IsActive() || s.rejoin != RejoinBlockActiveOnly
}

func (s *ChallengeService) JoinChallenge(ctx context.Context, challengeID int64, userID string, req *challenge.JoinChallengeRequest) (*challenge.JoinChallengeResponse, error) {
	difficulty, err := challenge.ParseDifficulty(req.DifficultyCode)
	if err != nil {
		return nil, err
	}

	c, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	// Early answer for the common duplicate case; the transaction below and
	// the store's uniqueness constraint are what actually decide.
	existing, err := s.participants.FindByChallengeAndUser(ctx, challengeID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if s.blocksJoin(existing) {
		return nil, challenge.ErrAlreadyJoined
	}

	goalType, err := challenge.ParseGoalType(string(c.GoalType))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", challenge.ErrJoinNotAllowed, err)
	}

	requiredSuccessDays, err := s.rules.ResolveRequiredSuccessDays(ctx, c, difficulty)
	if err != nil {
		return nil, joinNotAllowed(err)
	}
	dailyTargetValue, err := s.rules.ResolveDailyTargetValue(ctx, c, goalType, difficulty)
	if err != nil {
		return nil, joinNotAllowed(err)
	}

	participant := challenge.NewJoin(challengeID, userID, difficulty, requiredSuccessDays, dailyTargetValue, s.now())

	err = s.tx.WithinTx(ctx, func(ctx context.Context, participants ParticipationStore) error {
		current, err := participants.FindByChallengeAndUser(ctx, challengeID, userID)
		if err != nil {
			return fmt.Errorf("failed to check participation: %w", err)
		}
		if s.blocksJoin(current) {
			return challenge.ErrAlreadyJoined
		}
		if current != nil {
			if err := participants.DeleteByChallengeAndUser(ctx, challengeID, userID); err != nil {
				// another join replaced the LEFT row first
				if errors.Is(err, challenge.ErrParticipationNotFound) {
					return challenge.ErrAlreadyJoined
				}
				return fmt.Errorf("failed to replace left participation: %w", err)
			}
		}
		return participants.Insert(ctx, participant)
	})
	if err != nil {
		return nil, err
	}

	metrics.ChallengeJoins.WithLabelValues(string(difficulty)).Inc()

	return &challenge.JoinChallengeResponse{
		ChallengeID:         c.ID,
		Title:               c.Name,
		Joined:              true,
		JoinedAt:            participant.JoinedAt.Format(time.RFC3339),
		DifficultyCode:      string(difficulty),
		RequiredSuccessDays: participant.RequiredSuccessDays,
		DailyTargetValue:    participant.DailyTargetValue,
		Status:              string(participant.Status),
		MyStartDate:         c.StartDate.Format(challenge.DateLayout),
		MyEndDate:           c.EndDate.Format(challenge.DateLayout),
	}, nil
}

func joinNotAllowed(err error) error {
	if errors.Is(err, challenge.ErrRuleNotFound) {
		return fmt.Errorf("%w: %w", challenge.ErrJoinNotAllowed, err)
	}
	return err
}

// LeaveChallenge removes the row when the challenge has not started yet and
// marks it LEFT otherwise, keeping its progress history.
func (s *ChallengeService) LeaveChallenge(ctx context.Context, challengeID int64, userID string) (*challenge.LeaveChallengeResponse, error) {
	c, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	leftAt := s.now()
	beforeStart := challenge.DateOf(leftAt, s.loc).Before(challenge.CivilDate(c.StartDate, s.loc))

	err = s.tx.WithinTx(ctx, func(ctx context.Context, participants ParticipationStore) error {
		existing, err := participants.FindByChallengeAndUser(ctx, challengeID, userID)
		if err != nil {
			return fmt.Errorf("failed to get participant: %w", err)
		}
		if existing == nil {
			return challenge.ErrParticipationNotFound
		}
		if existing.Status == challenge.StatusLeft {
			return challenge.ErrAlreadyLeft
		}

		if beforeStart {
			if err := participants.DeleteByChallengeAndUser(ctx, challengeID, userID); err != nil {
				return fmt.Errorf("failed to cancel participation: %w", err)
			}
			return nil
		}
		if err := participants.UpdateStatus(ctx, challengeID, userID, challenge.StatusLeft, leftAt); err != nil {
			return fmt.Errorf("failed to leave challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := "withdraw"
	if beforeStart {
		kind = "cancel"
	}
	metrics.ChallengeLeaves.WithLabelValues(kind).Inc()

	return &challenge.LeaveChallengeResponse{
		ChallengeID: challengeID,
		Left:        true,
		LeftAt:      leftAt.Format(time.RFC3339),
		Cancelled:   beforeStart,
	}, nil
}

func (s *ChallengeService) EvaluateProgress(ctx context.Context, challengeID int64, userID string) (*challenge.ProgressResponse, error) {
	return s.evaluator.EvaluateProgress(ctx, challengeID, userID)
}

func (s *ChallengeService) Evaluator() *ProgressEvaluator {
	return s.evaluator
}

// GetChallenges lists challenges overlapping the given yyyy-MM month.
func (s *ChallengeService) GetChallenges(ctx context.Context, month string, userID string) (*challenge.ChallengeListResponse, error) {
	first, err := time.ParseInLocation("2006-01", month, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", challenge.ErrInvalidMonth, month)
	}
	last := first.AddDate(0, 1, -1)

	challenges, err := s.challenges.FindByPeriod(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	resp := &challenge.ChallengeListResponse{
		Month:      month,
		Challenges: make([]*challenge.ChallengeResponse, 0, len(challenges)),
	}
	for _, c := range challenges {
		item, err := s.toChallengeResponse(ctx, c, userID, false)
		if err != nil {
			return nil, err
		}
		resp.Challenges = append(resp.Challenges, item)
	}
	return resp, nil
}

func (s *ChallengeService) GetChallengeDetail(ctx context.Context, challengeID int64, userID string) (*challenge.ChallengeResponse, error) {
	c, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return s.toChallengeResponse(ctx, c, userID, true)
}

func (s *ChallengeService) toChallengeResponse(ctx context.Context, c *challenge.Challenge, userID string, detail bool) (*challenge.ChallengeResponse, error) {
	participant, err := s.participants.FindByChallengeAndUser(ctx, c.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	count, err := s.participants.CountByChallenge(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	resp := &challenge.ChallengeResponse{
		ChallengeID:       c.ID,
		Title:             c.Name,
		ShortDescription:  c.ShortDescription,
		GoalSummary:       c.GoalSummary,
		ImageURL:          c.ImageURL,
		Type:              c.ChallengeType,
		GoalType:          string(c.GoalType),
		StartDate:         c.StartDate.Format(challenge.DateLayout),
		EndDate:           c.EndDate.Format(challenge.DateLayout),
		ParticipantsCount: count,
	}
	if detail {
		rule := c.RuleDescription
		resp.RuleDescription = &rule
	}

	if participant.IsActive() {
		difficulty := string(participant.DifficultyCode)
		required := participant.RequiredSuccessDays
		successDays := participant.SuccessDays
		progress := participant.ProgressPercentage

		resp.IsJoined = true
		resp.SelectedDifficulty = &difficulty
		resp.RequiredSuccessDays = &required
		resp.DailyTargetValue = participant.DailyTargetValue
		resp.SuccessDays = &successDays
		resp.ProgressPercentage = &progress
	}
	return resp, nil
}
