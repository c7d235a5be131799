package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillpointAPI/internal/content"
	"stillpointAPI/services"
	"stillpointAPI/tests/helpers"
)

func TestPurchaseContent_DebitsOnceAndStaysIdempotent(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := helpers.NewTestClerkID("unlock")
	helpers.CreateTestProfile(t, pool, clerkID)

	tokenService := services.NewTokenService(pool, services.NewBalanceNotifier())
	entitlementService := services.NewEntitlementService(pool, tokenService)
	ctx := context.Background()

	_, err := tokenService.PurchaseTokens(ctx, clerkID, 100, "stripe")
	require.NoError(t, err)

	meditationID := uuid.New()

	result, err := entitlementService.PurchaseContent(ctx, clerkID, content.EntityMeditation, meditationID, 40)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.NewBalance)
	assert.Equal(t, 60, *result.NewBalance)

	// Buying the same item again succeeds without another debit.
	again, err := entitlementService.PurchaseContent(ctx, clerkID, content.EntityMeditation, meditationID, 40)
	require.NoError(t, err)
	assert.True(t, again.Success)
	require.NotNil(t, again.NewBalance)
	assert.Equal(t, 60, *again.NewBalance)

	purchases, err := entitlementService.GetUserPurchases(ctx, clerkID)
	require.NoError(t, err)
	assert.Len(t, purchases, 1)

	hasAccess, err := entitlementService.HasAccess(ctx, clerkID, content.EntityMeditation, meditationID, 40)
	require.NoError(t, err)
	assert.True(t, hasAccess)
}

func TestPurchaseContent_InsufficientBalance(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := helpers.NewTestClerkID("broke")
	helpers.CreateTestProfile(t, pool, clerkID)

	tokenService := services.NewTokenService(pool, services.NewBalanceNotifier())
	entitlementService := services.NewEntitlementService(pool, tokenService)
	ctx := context.Background()

	_, err := tokenService.PurchaseTokens(ctx, clerkID, 10, "stripe")
	require.NoError(t, err)

	courseID := uuid.New()

	result, err := entitlementService.PurchaseContent(ctx, clerkID, content.EntityCourse, courseID, 50)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "insufficient balance", result.Error)

	// No entitlement, no debit.
	hasAccess, err := entitlementService.HasAccess(ctx, clerkID, content.EntityCourse, courseID, 50)
	require.NoError(t, err)
	assert.False(t, hasAccess)

	balance, err := tokenService.GetBalance(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}

func TestHasAccess_FreeContentIsAlwaysAccessible(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := helpers.NewTestClerkID("free")
	helpers.CreateTestProfile(t, pool, clerkID)

	tokenService := services.NewTokenService(pool, services.NewBalanceNotifier())
	entitlementService := services.NewEntitlementService(pool, tokenService)

	hasAccess, err := entitlementService.HasAccess(context.Background(), clerkID, content.EntityMeditation, uuid.New(), 0)
	require.NoError(t, err)
	assert.True(t, hasAccess)
}

func TestPurchaseContent_FreeItemNeedsNoTokens(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := helpers.NewTestClerkID("freebie")
	helpers.CreateTestProfile(t, pool, clerkID)

	tokenService := services.NewTokenService(pool, services.NewBalanceNotifier())
	entitlementService := services.NewEntitlementService(pool, tokenService)
	ctx := context.Background()

	result, err := entitlementService.PurchaseContent(ctx, clerkID, content.EntityMeditation, uuid.New(), 0)
	require.NoError(t, err)
	assert.True(t, result.Success)

	balance, err := tokenService.GetBalance(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
