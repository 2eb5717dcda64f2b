// Package seed loads challenge definitions and their difficulty tiers from
// YAML fixtures and writes them through a storage backend.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"yumyumCoachAPI/internal/types/challenge"
)

type Fixtures struct {
	Challenges []ChallengeFixture `yaml:"challenges"`
}

type ChallengeFixture struct {
	ID               int64         `yaml:"id"`
	Name             string        `yaml:"name"`
	ShortDescription string        `yaml:"short_description"`
	GoalSummary      string        `yaml:"goal_summary"`
	RuleDescription  string        `yaml:"rule_description"`
	ImageURL         *string       `yaml:"image_url"`
	Type             string        `yaml:"type"`
	GoalType         string        `yaml:"goal_type"`
	StartDate        string        `yaml:"start_date"`
	EndDate          string        `yaml:"end_date"`
	Tiers            []TierFixture `yaml:"tiers"`
}

type TierFixture struct {
	Difficulty          string   `yaml:"difficulty"`
	RequiredSuccessDays int      `yaml:"required_success_days"`
	DailyTargetValue    *float64 `yaml:"daily_target_value"`
}

// Writer is implemented by the postgres and sqlite stores.
type Writer interface {
	CreateChallenge(ctx context.Context, c *challenge.Challenge) error
	PutTier(ctx context.Context, tier *challenge.DifficultyTier) error
}

type entry struct {
	challenge *challenge.Challenge
	tiers     []*challenge.DifficultyTier
}

func LoadFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Fixtures, error) {
	var fixtures Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fixtures); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed yaml: %w", err)
	}
	if _, err := fixtures.build(); err != nil {
		return nil, err
	}
	return &fixtures, nil
}

func (f *Fixtures) build() ([]entry, error) {
	entries := make([]entry, 0, len(f.Challenges))
	for i, cf := range f.Challenges {
		goalType, err := challenge.ParseGoalType(cf.GoalType)
		if err != nil {
			return nil, fmt.Errorf("challenge %d (%s): %w", i, cf.Name, err)
		}
		start, err := time.Parse(challenge.DateLayout, cf.StartDate)
		if err != nil {
			return nil, fmt.Errorf("challenge %d (%s): invalid start_date: %w", i, cf.Name, err)
		}
		end, err := time.Parse(challenge.DateLayout, cf.EndDate)
		if err != nil {
			return nil, fmt.Errorf("challenge %d (%s): invalid end_date: %w", i, cf.Name, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("challenge %d (%s): end_date before start_date", i, cf.Name)
		}

		e := entry{challenge: &challenge.Challenge{
			ID:               cf.ID,
			Name:             cf.Name,
			ShortDescription: cf.ShortDescription,
			GoalSummary:      cf.GoalSummary,
			RuleDescription:  cf.RuleDescription,
			ImageURL:         cf.ImageURL,
			ChallengeType:    cf.Type,
			GoalType:         goalType,
			StartDate:        start,
			EndDate:          end,
		}}

		seen := make(map[challenge.DifficultyCode]bool)
		for _, tf := range cf.Tiers {
			difficulty, err := challenge.ParseDifficulty(tf.Difficulty)
			if err != nil {
				return nil, fmt.Errorf("challenge %d (%s): %w", i, cf.Name, err)
			}
			if seen[difficulty] {
				return nil, fmt.Errorf("challenge %d (%s): duplicate tier %s", i, cf.Name, difficulty)
			}
			seen[difficulty] = true
			if tf.RequiredSuccessDays < 1 {
				return nil, fmt.Errorf("challenge %d (%s): tier %s needs required_success_days >= 1", i, cf.Name, difficulty)
			}
			if goalType.HasDailyTarget() && tf.DailyTargetValue == nil {
				return nil, fmt.Errorf("challenge %d (%s): tier %s needs daily_target_value for goal type %s", i, cf.Name, difficulty, goalType)
			}
			e.tiers = append(e.tiers, &challenge.DifficultyTier{
				DifficultyCode:      difficulty,
				RequiredSuccessDays: tf.RequiredSuccessDays,
				DailyTargetValue:    tf.DailyTargetValue,
			})
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Apply writes every challenge and its tiers, returning how many challenges
// were created.
func Apply(ctx context.Context, w Writer, f *Fixtures) (int, error) {
	entries, err := f.build()
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := w.CreateChallenge(ctx, e.challenge); err != nil {
			return 0, fmt.Errorf("seed challenge %q: %w", e.challenge.Name, err)
		}
		for _, tier := range e.tiers {
			tier.ChallengeID = e.challenge.ID
			if err := w.PutTier(ctx, tier); err != nil {
				return 0, fmt.Errorf("seed tier %s for %q: %w", tier.DifficultyCode, e.challenge.Name, err)
			}
		}
	}
	return len(entries), nil
}
