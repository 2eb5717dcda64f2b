package challenge

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" intermediate ")
	require.NoError(t, err)
	assert.Equal(t, DifficultyIntermediate, d)

	_, err = ParseDifficulty("EXPERT")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)

	_, err = ParseDifficulty("")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestParseGoalType(t *testing.T) {
	g, err := ParseGoalType("duration")
	require.NoError(t, err)
	assert.Equal(t, GoalDuration, g)
	assert.True(t, g.HasDailyTarget())
	assert.False(t, GoalFrequency.HasDailyTarget())

	_, err = ParseGoalType("sleep")
	assert.ErrorIs(t, err, ErrInvalidGoalType)
}

func TestNewJoinCopiesTarget(t *testing.T) {
	target := 30.0
	joinedAt := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

	p := NewJoin(1, "user_1", DifficultyBeginner, 10, &target, joinedAt)
	target = 45

	require.NotNil(t, p.DailyTargetValue)
	assert.Equal(t, 30.0, *p.DailyTargetValue)
	assert.Equal(t, StatusActive, p.Status)
	assert.Nil(t, p.LeftAt)
	assert.True(t, p.IsActive())
}

func TestCodeOf(t *testing.T) {
	joinErr := fmt.Errorf("%w: %w", ErrJoinNotAllowed, ErrRuleNotFound)
	code, status := CodeOf(joinErr)
	assert.Equal(t, "CHALLENGE_JOIN_NOT_ALLOWED", code)
	assert.Equal(t, http.StatusBadRequest, status)

	code, status = CodeOf(fmt.Errorf("leave: %w", ErrAlreadyLeft))
	assert.Equal(t, "CHALLENGE_ALREADY_LEFT", code)
	assert.Equal(t, http.StatusConflict, status)

	code, status = CodeOf(errors.New("connection reset"))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", code)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestDateOf(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	ts := time.Date(2025, 5, 31, 16, 30, 0, 0, time.UTC)

	assert.Equal(t, "2025-06-01", DateOf(ts, seoul).Format(DateLayout))
	assert.Equal(t, "2025-05-31", DateOf(ts, time.UTC).Format(DateLayout))
}
