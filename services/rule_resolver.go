package services

import (
	"context"
	"fmt"

	"yumyumCoachAPI/internal/types/challenge"
)

type RuleResolver struct {
	rules RuleStore
}

func NewRuleResolver(rules RuleStore) *RuleResolver {
	return &RuleResolver{rules: rules}
}

func (r *RuleResolver) findTier(ctx context.Context, c *challenge.Challenge, difficulty challenge.DifficultyCode) (*challenge.DifficultyTier, error) {
	tier, err := r.rules.FindTier(ctx, c.ID, difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge rule: %w", err)
	}
	if tier == nil {
		return nil, fmt.Errorf("%w: challenge=%d difficulty=%s", challenge.ErrRuleNotFound, c.ID, difficulty)
	}
	return tier, nil
}

func (r *RuleResolver) ResolveRequiredSuccessDays(ctx context.Context, c *challenge.Challenge, difficulty challenge.DifficultyCode) (int, error) {
	tier, err := r.findTier(ctx, c, difficulty)
	if err != nil {
		return 0, err
	}
	if tier.RequiredSuccessDays < 1 {
		return 0, fmt.Errorf("%w: challenge=%d difficulty=%s has required success days %d",
			challenge.ErrRuleNotFound, c.ID, difficulty, tier.RequiredSuccessDays)
	}
	return tier.RequiredSuccessDays, nil
}

// ResolveDailyTargetValue returns nil for goal types without a numeric daily
// target. Zero is a valid target and is returned as such.
func (r *RuleResolver) ResolveDailyTargetValue(ctx context.Context, c *challenge.Challenge, goalType challenge.GoalType, difficulty challenge.DifficultyCode) (*float64, error) {
	tier, err := r.findTier(ctx, c, difficulty)
	if err != nil {
		return nil, err
	}
	if !goalType.HasDailyTarget() {
		return nil, nil
	}
	if tier.DailyTargetValue == nil {
		return nil, fmt.Errorf("%w: challenge=%d difficulty=%s has no daily target for goal type %s",
			challenge.ErrRuleNotFound, c.ID, difficulty, goalType)
	}
	v := *tier.DailyTargetValue
	return &v, nil
}
