package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yumyumCoachAPI/internal/types/challenge"
	"yumyumCoachAPI/services"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func date(s string) time.Time {
	t, err := time.Parse(challenge.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func createChallenge(t *testing.T, store *Store, start, end string) *challenge.Challenge {
	t.Helper()
	c := &challenge.Challenge{
		Name:      "June walking",
		GoalType:  challenge.GoalDuration,
		StartDate: date(start),
		EndDate:   date(end),
	}
	require.NoError(t, store.CreateChallenge(context.Background(), c))
	require.NotZero(t, c.ID)
	return c
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestChallengeLookups(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	june := createChallenge(t, store, "2025-06-01", "2025-06-30")
	createChallenge(t, store, "2025-08-01", "2025-08-31")

	got, err := store.FindByID(ctx, june.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "June walking", got.Name)
	assert.Equal(t, "2025-06-01", got.StartDate.Format(challenge.DateLayout))
	assert.Nil(t, got.ImageURL)

	missing, err := store.FindByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	inJune, err := store.FindByPeriod(ctx, date("2025-06-01"), date("2025-06-30"))
	require.NoError(t, err)
	require.Len(t, inJune, 1)
	assert.Equal(t, june.ID, inJune[0].ID)

	overlapping, err := store.FindByPeriod(ctx, date("2025-05-15"), date("2025-06-02"))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)
}

func TestCreateChallengeWithIDOverwrites(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	c := &challenge.Challenge{ID: 7, Name: "Steps", GoalType: challenge.GoalStepCount, StartDate: date("2025-06-01"), EndDate: date("2025-06-30")}
	require.NoError(t, store.CreateChallenge(ctx, c))

	c.Name = "Steps, revised"
	c.EndDate = date("2025-07-15")
	require.NoError(t, store.CreateChallenge(ctx, c))

	got, err := store.FindByID(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Steps, revised", got.Name)
	assert.Equal(t, "2025-07-15", got.EndDate.Format(challenge.DateLayout))
}

func TestTiers(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	c := createChallenge(t, store, "2025-06-01", "2025-06-30")

	target := 30.0
	require.NoError(t, store.PutTier(ctx, &challenge.DifficultyTier{
		ChallengeID: c.ID, DifficultyCode: challenge.DifficultyBeginner, RequiredSuccessDays: 10, DailyTargetValue: &target,
	}))
	require.NoError(t, store.PutTier(ctx, &challenge.DifficultyTier{
		ChallengeID: c.ID, DifficultyCode: challenge.DifficultyAdvanced, RequiredSuccessDays: 25,
	}))

	tier, err := store.FindTier(ctx, c.ID, challenge.DifficultyBeginner)
	require.NoError(t, err)
	require.NotNil(t, tier)
	assert.Equal(t, 10, tier.RequiredSuccessDays)
	require.NotNil(t, tier.DailyTargetValue)
	assert.Equal(t, 30.0, *tier.DailyTargetValue)

	advanced, err := store.FindTier(ctx, c.ID, challenge.DifficultyAdvanced)
	require.NoError(t, err)
	assert.Nil(t, advanced.DailyTargetValue)

	none, err := store.FindTier(ctx, c.ID, challenge.DifficultyIntermediate)
	require.NoError(t, err)
	assert.Nil(t, none)

	err = store.PutTier(ctx, &challenge.DifficultyTier{
		ChallengeID: c.ID, DifficultyCode: challenge.DifficultyIntermediate, RequiredSuccessDays: 0,
	})
	assert.Error(t, err, "required success days must be at least one")
}

func TestParticipantLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	c := createChallenge(t, store, "2025-06-01", "2025-06-30")

	target := 30.0
	joinedAt := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	p := challenge.NewJoin(c.ID, "user_u", challenge.DifficultyBeginner, 10, &target, joinedAt)
	require.NoError(t, store.Insert(ctx, p))

	exists, err := store.ExistsByChallengeAndUser(ctx, c.ID, "user_u")
	require.NoError(t, err)
	assert.True(t, exists)

	err = store.Insert(ctx, challenge.NewJoin(c.ID, "user_u", challenge.DifficultyAdvanced, 20, nil, joinedAt))
	assert.ErrorIs(t, err, challenge.ErrAlreadyJoined)

	got, err := store.FindByChallengeAndUser(ctx, c.ID, "user_u")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, challenge.DifficultyBeginner, got.DifficultyCode)
	assert.True(t, joinedAt.Equal(got.JoinedAt))
	assert.Nil(t, got.LeftAt)

	evaluatedAt := joinedAt.Add(48 * time.Hour)
	require.NoError(t, store.UpdateProgress(ctx, c.ID, "user_u", 3, 30, evaluatedAt))

	count, err := store.CountByChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	leftAt := joinedAt.Add(72 * time.Hour)
	require.NoError(t, store.UpdateStatus(ctx, c.ID, "user_u", challenge.StatusLeft, leftAt))

	got, err = store.FindByChallengeAndUser(ctx, c.ID, "user_u")
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusLeft, got.Status)
	require.NotNil(t, got.LeftAt)
	assert.True(t, leftAt.Equal(*got.LeftAt))
	assert.Equal(t, 3, got.SuccessDays)
	assert.Equal(t, 30.0, got.ProgressPercentage)

	err = store.UpdateProgress(ctx, c.ID, "user_u", 4, 40, leftAt)
	assert.ErrorIs(t, err, challenge.ErrAlreadyLeft, "LEFT rows are not re-evaluated")

	count, err = store.CountByChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, store.DeleteByChallengeAndUser(ctx, c.ID, "user_u"))
	assert.ErrorIs(t, store.DeleteByChallengeAndUser(ctx, c.ID, "user_u"), challenge.ErrParticipationNotFound)

	gone, err := store.FindByChallengeAndUser(ctx, c.ID, "user_u")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestLeftRowIsNotWrittenAgain(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	c := createChallenge(t, store, "2025-06-01", "2025-06-30")

	require.NoError(t, store.Insert(ctx, challenge.NewJoin(c.ID, "user_v", challenge.DifficultyBeginner, 10, nil, date("2025-06-02"))))

	firstLeave := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateStatus(ctx, c.ID, "user_v", challenge.StatusLeft, firstLeave))

	err := store.UpdateStatus(ctx, c.ID, "user_v", challenge.StatusLeft, firstLeave.Add(time.Second))
	assert.ErrorIs(t, err, challenge.ErrAlreadyLeft)

	got, err := store.FindByChallengeAndUser(ctx, c.ID, "user_v")
	require.NoError(t, err)
	require.NotNil(t, got.LeftAt)
	assert.True(t, firstLeave.Equal(*got.LeftAt), "left_at keeps the first leave time")

	err = store.UpdateStatus(ctx, c.ID, "nobody", challenge.StatusLeft, firstLeave)
	assert.ErrorIs(t, err, challenge.ErrParticipationNotFound)
	err = store.UpdateProgress(ctx, c.ID, "nobody", 1, 10, firstLeave)
	assert.ErrorIs(t, err, challenge.ErrParticipationNotFound)
}

func TestListActiveByChallenge(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	c := createChallenge(t, store, "2025-06-01", "2025-06-30")
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	for i, user := range []string{"a", "b", "c"} {
		p := challenge.NewJoin(c.ID, user, challenge.DifficultyBeginner, 5, nil, now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Insert(ctx, p))
	}
	require.NoError(t, store.UpdateStatus(ctx, c.ID, "b", challenge.StatusLeft, now))

	active, err := store.ListActiveByChallenge(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "a", active[0].UserID)
	assert.Equal(t, "c", active[1].UserID)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	c := createChallenge(t, store, "2025-06-01", "2025-06-30")
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, participants services.ParticipationStore) error {
		p := challenge.NewJoin(c.ID, "user_tx", challenge.DifficultyBeginner, 5, nil, time.Now())
		require.NoError(t, participants.Insert(ctx, p))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.FindByChallengeAndUser(ctx, c.ID, "user_tx")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDailyActivity(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	records := []ExerciseRecord{
		{UserID: "u", RecordDate: date("2025-06-01"), DurationMinutes: 20, Calories: 100},
		{UserID: "u", RecordDate: date("2025-06-01"), DurationMinutes: 15, Calories: 80, Steps: 2000},
		{UserID: "u", RecordDate: date("2025-06-03"), DurationMinutes: 40, Calories: 210},
		{UserID: "u", RecordDate: date("2025-07-01"), DurationMinutes: 60},
		{UserID: "other", RecordDate: date("2025-06-01"), DurationMinutes: 90},
	}
	for _, r := range records {
		require.NoError(t, store.AddExerciseRecord(ctx, r))
	}

	days, err := store.DailyActivity(ctx, "u", date("2025-06-01"), date("2025-06-30"))
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "2025-06-01", days[0].Day.Format(challenge.DateLayout))
	assert.Equal(t, 35.0, days[0].DurationMinutes)
	assert.Equal(t, 180.0, days[0].Calories)
	assert.Equal(t, int64(2000), days[0].Steps)
	assert.Equal(t, 2, days[0].Sessions)
	assert.Equal(t, 1, days[1].Sessions)
}
