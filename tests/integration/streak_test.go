package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillpointAPI/internal/streak"
	"stillpointAPI/services"
	"stillpointAPI/tests/helpers"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestUpdateStreak_FullLifecycle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := helpers.NewTestClerkID("streak")
	helpers.CreateTestProfile(t, pool, clerkID)

	notificationService := services.NewNotificationService(pool)
	goalService := services.NewGoalService(pool, notificationService)
	streakService := services.NewStreakService(pool, services.StreakConfig{GraceDays: 1}, goalService, notificationService)
	ctx := context.Background()

	// First activity starts the streak.
	s, err := streakService.UpdateStreak(ctx, clerkID, streak.TypeOverall, date("2025-05-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)

	// Second call on the same date changes nothing.
	s, err = streakService.UpdateStreak(ctx, clerkID, streak.TypeOverall, date("2025-05-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)

	// Next day extends.
	s, err = streakService.UpdateStreak(ctx, clerkID, streak.TypeOverall, date("2025-05-02"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStreak)

	// One missed day is absorbed by the grace allowance.
	s, err = streakService.UpdateStreak(ctx, clerkID, streak.TypeOverall, date("2025-05-04"))
	require.NoError(t, err)
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 1, s.GraceUsed)

	// A second missed day the same run breaks the streak.
	s, err = streakService.UpdateStreak(ctx, clerkID, streak.TypeOverall, date("2025-05-06"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 0, s.GraceUsed)
	assert.Equal(t, 3, s.LongestStreak)
}

func TestUpdateStreak_TypesAreIndependent(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := helpers.NewTestClerkID("streaktypes")
	helpers.CreateTestProfile(t, pool, clerkID)

	notificationService := services.NewNotificationService(pool)
	goalService := services.NewGoalService(pool, notificationService)
	streakService := services.NewStreakService(pool, services.StreakConfig{GraceDays: 1}, goalService, notificationService)
	ctx := context.Background()

	_, err := streakService.UpdateStreak(ctx, clerkID, streak.TypeMeditation, date("2025-05-01"))
	require.NoError(t, err)
	_, err = streakService.UpdateStreak(ctx, clerkID, streak.TypeMeditation, date("2025-05-02"))
	require.NoError(t, err)
	_, err = streakService.UpdateStreak(ctx, clerkID, streak.TypeBreathing, date("2025-05-02"))
	require.NoError(t, err)

	streaks, err := streakService.GetUserStreaks(ctx, clerkID)
	require.NoError(t, err)
	require.Len(t, streaks, 2)

	byType := map[streak.StreakType]int{}
	for _, s := range streaks {
		byType[s.StreakType] = s.CurrentStreak
	}
	assert.Equal(t, 2, byType[streak.TypeMeditation])
	assert.Equal(t, 1, byType[streak.TypeBreathing])
}

func TestUpdateStreak_UnknownUser(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	goalService := services.NewGoalService(pool, notificationService)
	streakService := services.NewStreakService(pool, services.StreakConfig{GraceDays: 1}, goalService, notificationService)

	_, err := streakService.UpdateStreak(context.Background(), "user_test_missing", streak.TypeOverall, date("2025-05-01"))
	assert.ErrorIs(t, err, services.ErrNotFound)
}
