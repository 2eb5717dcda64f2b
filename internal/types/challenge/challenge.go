package challenge

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type GoalType string

const (
	GoalStepCount GoalType = "STEP_COUNT"
	GoalDuration  GoalType = "DURATION"
	GoalCalories  GoalType = "CALORIES"
	GoalFrequency GoalType = "FREQUENCY"
)

// ParseGoalType accepts the stored goal type in any case.
func ParseGoalType(raw string) (GoalType, error) {
	switch g := GoalType(strings.ToUpper(strings.TrimSpace(raw))); g {
	case GoalStepCount, GoalDuration, GoalCalories, GoalFrequency:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGoalType, raw)
}

// HasDailyTarget reports whether days are judged against a numeric threshold.
func (g GoalType) HasDailyTarget() bool {
	return g != GoalFrequency
}

type DifficultyCode string

const (
	DifficultyBeginner     DifficultyCode = "BEGINNER"
	DifficultyIntermediate DifficultyCode = "INTERMEDIATE"
	DifficultyAdvanced     DifficultyCode = "ADVANCED"
)

func ParseDifficulty(raw string) (DifficultyCode, error) {
	switch d := DifficultyCode(strings.ToUpper(strings.TrimSpace(raw))); d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, raw)
}

type ParticipantStatus string

const (
	StatusActive ParticipantStatus = "ACTIVE"
	StatusLeft   ParticipantStatus = "LEFT"
)

type Challenge struct {
	ID               int64     `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	ShortDescription string    `json:"short_description" db:"short_description"`
	GoalSummary      string    `json:"goal_summary" db:"goal_summary"`
	RuleDescription  string    `json:"rule_description" db:"rule_description"`
	ImageURL         *string   `json:"image_url" db:"image_url"`
	ChallengeType    string    `json:"challenge_type" db:"challenge_type"`
	GoalType         GoalType  `json:"goal_type" db:"goal_type"`
	StartDate        time.Time `json:"start_date" db:"start_date"`
	EndDate          time.Time `json:"end_date" db:"end_date"`
}

// DifficultyTier is the rule row for one (challenge, difficulty) pair.
type DifficultyTier struct {
	ChallengeID         int64          `json:"challenge_id" db:"challenge_id"`
	DifficultyCode      DifficultyCode `json:"difficulty_code" db:"difficulty_code"`
	RequiredSuccessDays int            `json:"required_success_days" db:"required_success_days"`
	DailyTargetValue    *float64       `json:"daily_target_value" db:"daily_target_value"`
}

// Participant is one user's relationship to one challenge. RequiredSuccessDays
// and DailyTargetValue are copied from the tier at join time.
type Participant struct {
	ID                  uuid.UUID         `json:"id" db:"id"`
	ChallengeID         int64             `json:"challenge_id" db:"challenge_id"`
	UserID              string            `json:"user_id" db:"user_id"`
	DifficultyCode      DifficultyCode    `json:"difficulty_code" db:"difficulty_code"`
	RequiredSuccessDays int               `json:"required_success_days" db:"required_success_days"`
	DailyTargetValue    *float64          `json:"daily_target_value" db:"daily_target_value"`
	SuccessDays         int               `json:"success_days" db:"success_days"`
	ProgressPercentage  float64           `json:"progress_percentage" db:"progress_percentage"`
	Status              ParticipantStatus `json:"status" db:"status"`
	JoinedAt            time.Time         `json:"joined_at" db:"joined_at"`
	LeftAt              *time.Time        `json:"left_at" db:"left_at"`
	LastEvaluatedAt     *time.Time        `json:"last_evaluated_at" db:"last_evaluated_at"`
}

// NewJoin builds an ACTIVE participant with the tier values snapshotted.
func NewJoin(challengeID int64, userID string, difficulty DifficultyCode, requiredSuccessDays int, dailyTarget *float64, joinedAt time.Time) *Participant {
	var target *float64
	if dailyTarget != nil {
		v := *dailyTarget
		target = &v
	}
	return &Participant{
		ID:                  uuid.New(),
		ChallengeID:         challengeID,
		UserID:              userID,
		DifficultyCode:      difficulty,
		RequiredSuccessDays: requiredSuccessDays,
		DailyTargetValue:    target,
		Status:              StatusActive,
		JoinedAt:            joinedAt,
	}
}

func (p *Participant) IsActive() bool {
	return p != nil && p.Status == StatusActive
}

// DailyActivity is the per-day aggregate of a user's exercise records.
type DailyActivity struct {
	Day             time.Time `json:"day" db:"record_date"`
	DurationMinutes float64   `json:"duration_minutes" db:"duration_minutes"`
	Calories        float64   `json:"calories" db:"calories"`
	Steps           int64     `json:"steps" db:"steps"`
	Sessions        int       `json:"sessions" db:"sessions"`
}

const DateLayout = "2006-01-02"

// CivilDate reinterprets the calendar day of a stored date column in loc,
// without converting between zones.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DateOf truncates the instant t to its calendar day in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
