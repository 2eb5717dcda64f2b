package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"yumyumCoachAPI/internal/metrics"
	"yumyumCoachAPI/internal/types/challenge"
)

// CompletionNotifier is told when a participant first reaches 100%.
type CompletionNotifier interface {
	NotifyChallengeCompleted(ctx context.Context, userID string, c *challenge.Challenge) error
}

type ProgressEvaluator struct {
	challenges   ChallengeStore
	participants ParticipationStore
	activity     ActivityStore
	tx           TxManager
	notifier     CompletionNotifier
	now          func() time.Time
	loc          *time.Location
}

func NewProgressEvaluator(challenges ChallengeStore, participants ParticipationStore, activity ActivityStore, tx TxManager, opts ...Option) *ProgressEvaluator {
	o := applyOptions(opts)
	return &ProgressEvaluator{
		challenges:   challenges,
		participants: participants,
		activity:     activity,
		tx:           tx,
		notifier:     o.notifier,
		now:          o.now,
		loc:          o.loc,
	}
}

// EvaluateProgress recomputes success days from the recorded activity and
// persists them. Running it again without new activity yields the same result.
func (e *ProgressEvaluator) EvaluateProgress(ctx context.Context, challengeID int64, userID string) (*challenge.ProgressResponse, error) {
	c, err := e.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if c == nil {
		return nil, challenge.ErrChallengeNotFound
	}
	return e.evaluate(ctx, c, userID)
}

func (e *ProgressEvaluator) evaluate(ctx context.Context, c *challenge.Challenge, userID string) (*challenge.ProgressResponse, error) {
	goalType, err := challenge.ParseGoalType(string(c.GoalType))
	if err != nil {
		return nil, err
	}

	// The write below re-checks this row inside the transaction.
	snapshot, err := e.participants.FindByChallengeAndUser(ctx, c.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	if snapshot == nil {
		return nil, challenge.ErrParticipationNotFound
	}
	if !snapshot.IsActive() {
		return nil, challenge.ErrAlreadyLeft
	}

	now := e.now()
	from, to := evaluationWindow(c, snapshot.JoinedAt, now, e.loc)

	var days []challenge.DailyActivity
	if !to.Before(from) {
		days, err = e.activity.DailyActivity(ctx, userID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to get daily activity: %w", err)
		}
	}

	successDays := CountSuccessDays(goalType, snapshot.DailyTargetValue, days, from, to, e.loc)
	progress := ProgressPercentage(successDays, snapshot.RequiredSuccessDays)

	var previous float64
	err = e.tx.WithinTx(ctx, func(ctx context.Context, participants ParticipationStore) error {
		current, err := participants.FindByChallengeAndUser(ctx, c.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to get participant: %w", err)
		}
		if current == nil || current.ID != snapshot.ID {
			return challenge.ErrParticipationNotFound
		}
		if !current.IsActive() {
			return challenge.ErrAlreadyLeft
		}
		previous = current.ProgressPercentage
		if err := participants.UpdateProgress(ctx, c.ID, userID, successDays, progress, now); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ProgressEvaluations.WithLabelValues(string(goalType)).Inc()

	completed := successDays >= snapshot.RequiredSuccessDays
	if completed && previous < 100 && e.notifier != nil {
		if err := e.notifier.NotifyChallengeCompleted(ctx, userID, c); err != nil {
			log.Printf("Completion push failed for user %s challenge %d: %v", userID, c.ID, err)
		}
	}

	return &challenge.ProgressResponse{
		ChallengeID:         c.ID,
		SuccessDays:         successDays,
		RequiredSuccessDays: snapshot.RequiredSuccessDays,
		ProgressPercentage:  progress,
		Completed:           completed,
		EvaluatedAt:         now.Format(time.RFC3339),
	}, nil
}

// evaluationWindow is [max(start, join day), min(end, today)], both inclusive.
func evaluationWindow(c *challenge.Challenge, joinedAt, now time.Time, loc *time.Location) (time.Time, time.Time) {
	from := challenge.CivilDate(c.StartDate, loc)
	if joined := challenge.DateOf(joinedAt, loc); joined.After(from) {
		from = joined
	}
	to := challenge.CivilDate(c.EndDate, loc)
	if today := challenge.DateOf(now, loc); today.Before(to) {
		to = today
	}
	return from, to
}

// CountSuccessDays counts days in [from, to] that have at least one activity
// record and, for numeric goal types, meet the daily target.
func CountSuccessDays(goalType challenge.GoalType, target *float64, days []challenge.DailyActivity, from, to time.Time, loc *time.Location) int {
	if to.Before(from) {
		return 0
	}
	if goalType.HasDailyTarget() && target == nil {
		return 0
	}

	totals := make(map[string]challenge.DailyActivity, len(days))
	for _, d := range days {
		day := challenge.CivilDate(d.Day, loc)
		if day.Before(from) || day.After(to) {
			continue
		}
		key := day.Format(challenge.DateLayout)
		agg := totals[key]
		agg.Day = day
		agg.DurationMinutes += d.DurationMinutes
		agg.Calories += d.Calories
		agg.Steps += d.Steps
		agg.Sessions += d.Sessions
		totals[key] = agg
	}

	count := 0
	for _, d := range totals {
		if d.Sessions <= 0 {
			continue
		}
		if isSuccessDay(goalType, target, d) {
			count++
		}
	}
	return count
}

func isSuccessDay(goalType challenge.GoalType, target *float64, d challenge.DailyActivity) bool {
	switch goalType {
	case challenge.GoalDuration:
		return d.DurationMinutes >= *target
	case challenge.GoalCalories:
		return d.Calories >= *target
	case challenge.GoalStepCount:
		return float64(d.Steps) >= *target
	case challenge.GoalFrequency:
		return true
	}
	return false
}

// ProgressPercentage is successDays/required as a percentage in [0, 100],
// rounded to two decimals.
func ProgressPercentage(successDays, required int) float64 {
	if required <= 0 {
		return 0
	}
	ratio := float64(successDays) / float64(required)
	ratio = math.Max(0, math.Min(1, ratio))
	return math.Round(ratio*10000) / 100
}
