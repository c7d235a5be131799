package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"stillpointAPI/internal/profile"
	"stillpointAPI/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SetupTestDB creates a test database connection. Tests are skipped when no
// database is configured so the pure unit suites still run everywhere.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes rows created by test profiles. Child rows go with the
// profile via ON DELETE CASCADE.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM profiles WHERE clerk_id LIKE 'user_test_%'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
	pool.Close()
}

// NewTestClerkID returns a unique fake Clerk subject that CleanupTestDB will
// recognize.
func NewTestClerkID(suffix string) string {
	return fmt.Sprintf("user_test_%s_%d", suffix, time.Now().UnixNano())
}

// CreateTestProfile provisions a profile row the way the Clerk webhook would.
func CreateTestProfile(t *testing.T, pool *pgxpool.Pool, clerkID string) *profile.Profile {
	t.Helper()

	svc := services.NewProfileService(pool)
	created, err := svc.CreateProfile(context.Background(), &profile.CreateProfileRequest{
		ClerkID:  clerkID,
		Email:    fmt.Sprintf("%s@example.com", clerkID),
		FullName: "Test User",
	})
	if err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}
	return created
}

// GenerateMockClerkJWT generates a mock JWT token for testing request plumbing.
func GenerateMockClerkJWT(clerkID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// MockClerkWebhookPayload creates a mock Clerk webhook payload.
func MockClerkWebhookPayload(eventType string, clerkID string) []byte {
	payload := ""

	switch eventType {
	case "user.created":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Test",
				"last_name": "User",
				"image_url": "https://example.com/avatar.jpg",
				"email_addresses": [{
					"id": "email_123",
					"email_address": "test.user@example.com"
				}]
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)

	case "user.updated":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Updated",
				"last_name": "User",
				"image_url": "https://example.com/new-avatar.jpg",
				"email_addresses": [{
					"id": "email_123",
					"email_address": "test.user@example.com"
				}]
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)

	case "user.deleted":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"deleted": true
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)
	}

	return []byte(payload)
}
