package integration

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillpointAPI/handlers"
	"stillpointAPI/internal/goal"
	"stillpointAPI/internal/session"
	"stillpointAPI/services"
	"stillpointAPI/tests/helpers"
)

// TestPracticeFlow walks the path a real client takes: sign-up webhook,
// a synced meditation session, goal progress, badge award, notification.
func TestPracticeFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	notificationService := services.NewNotificationService(pool)
	goalService := services.NewGoalService(pool, notificationService)
	practiceService := services.NewPracticeService(pool, goalService)
	badgeService := services.NewBadgeService(pool, notificationService)
	webhookHandler := handlers.NewWebhookHandler(profileService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := helpers.NewTestClerkID("flow")
	ctx := context.Background()

	// Step 1: the Clerk webhook provisions the profile.
	payload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// Step 2: the user sets a sessions goal.
	created, err := goalService.CreateGoal(ctx, clerkID, &goal.CreateGoalRequest{
		Title:       "Meditate once",
		GoalType:    goal.TypeTotalSessions,
		TargetValue: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, created.CurrentValue)

	// Step 3: a completed session syncs in.
	startedAt := time.Now().UTC().Truncate(time.Second)
	completedAt := startedAt.Add(10 * time.Minute)
	result, err := practiceService.SyncMeditationSession(ctx, clerkID, &session.SyncRequest{
		SessionType:     "unguided",
		DurationMinutes: 10,
		Status:          session.StatusCompleted,
		StartedAt:       startedAt,
		CompletedAt:     &completedAt,
		TotalMinutes:    10,
	})
	require.NoError(t, err)

	// Re-syncing the same session is a no-op on the same row.
	again, err := practiceService.SyncMeditationSession(ctx, clerkID, &session.SyncRequest{
		SessionType:     "unguided",
		DurationMinutes: 10,
		Status:          session.StatusCompleted,
		StartedAt:       startedAt,
		CompletedAt:     &completedAt,
		TotalMinutes:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, result.SessionID, again.SessionID)

	// Step 4: the goal completed and deactivated.
	active, err := goalService.GetActiveGoals(ctx, clerkID)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Step 5: a first-session badge in the catalog gets awarded, once.
	badgeName := fmt.Sprintf("test_badge_%s", uuid.New())
	_, err = pool.Exec(ctx, `
		INSERT INTO badges (id, name, description, icon, category, requirement_type, requirement_value, created_at)
		VALUES ($1, $2, 'First completed session', 'lotus', 'practice', 'total_sessions', 1, NOW())
	`, uuid.New(), badgeName)
	require.NoError(t, err)
	defer pool.Exec(ctx, `DELETE FROM badges WHERE name = $1`, badgeName)

	require.NoError(t, badgeService.CheckAndAwardBadges(ctx, clerkID))
	require.NoError(t, badgeService.CheckAndAwardBadges(ctx, clerkID))

	badges, err := badgeService.GetUserBadges(ctx, clerkID)
	require.NoError(t, err)

	earnedCount := 0
	for _, b := range badges {
		if b.Name == badgeName {
			require.True(t, b.Earned)
			earnedCount++
		}
	}
	assert.Equal(t, 1, earnedCount)

	// Step 6: completing the goal and earning the badge both left notifications.
	count, err := notificationService.GetUnreadCount(ctx, clerkID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 2)
}
