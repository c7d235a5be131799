package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillpointAPI/internal/token"
	"stillpointAPI/services"
	"stillpointAPI/tests/helpers"
)

func TestTokenLedger_PurchaseAndSpend(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := helpers.NewTestClerkID("tokens")
	helpers.CreateTestProfile(t, pool, clerkID)

	tokenService := services.NewTokenService(pool, services.NewBalanceNotifier())
	ctx := context.Background()

	// New users start at zero without an account row.
	balance, err := tokenService.GetBalance(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	// First purchase creates the account and credits it.
	result, err := tokenService.PurchaseTokens(ctx, clerkID, 100, "stripe")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 100, result.NewBalance)

	// A spend within balance succeeds.
	spend, err := tokenService.SpendTokens(ctx, clerkID, &token.SpendRequest{
		Amount:      30,
		Description: "Unlock guided meditation",
	})
	require.NoError(t, err)
	assert.True(t, spend.Success)
	require.NotNil(t, spend.NewBalance)
	assert.Equal(t, 70, *spend.NewBalance)
}

func TestTokenLedger_InsufficientBalanceWritesNothing(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := helpers.NewTestClerkID("overdraft")
	helpers.CreateTestProfile(t, pool, clerkID)

	tokenService := services.NewTokenService(pool, services.NewBalanceNotifier())
	ctx := context.Background()

	_, err := tokenService.PurchaseTokens(ctx, clerkID, 20, "stripe")
	require.NoError(t, err)

	spend, err := tokenService.SpendTokens(ctx, clerkID, &token.SpendRequest{
		Amount:      50,
		Description: "Unlock course",
	})
	require.NoError(t, err)
	assert.False(t, spend.Success)
	assert.Equal(t, "insufficient balance", spend.Error)
	require.NotNil(t, spend.CurrentBalance)
	assert.Equal(t, 20, *spend.CurrentBalance)

	// The failed spend left no ledger row and the balance untouched.
	balance, err := tokenService.GetBalance(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 20, balance)

	transactions, err := tokenService.GetTransactions(ctx, clerkID, 50)
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}

func TestTokenLedger_BalanceEqualsTransactionSum(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := helpers.NewTestClerkID("conserve")
	helpers.CreateTestProfile(t, pool, clerkID)

	tokenService := services.NewTokenService(pool, services.NewBalanceNotifier())
	ctx := context.Background()

	_, err := tokenService.PurchaseTokens(ctx, clerkID, 100, "stripe")
	require.NoError(t, err)
	_, err = tokenService.PurchaseTokens(ctx, clerkID, 50, "apple")
	require.NoError(t, err)
	_, err = tokenService.SpendTokens(ctx, clerkID, &token.SpendRequest{Amount: 40, Description: "Unlock"})
	require.NoError(t, err)

	balance, err := tokenService.GetBalance(ctx, clerkID)
	require.NoError(t, err)

	transactions, err := tokenService.GetTransactions(ctx, clerkID, 50)
	require.NoError(t, err)

	sum := 0
	for _, tx := range transactions {
		sum += tx.Amount
	}
	assert.Equal(t, balance, sum)
	assert.Equal(t, 110, balance)
}

func TestTokenLedger_RejectsInvalidAmounts(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	clerkID := helpers.NewTestClerkID("invalid")
	helpers.CreateTestProfile(t, pool, clerkID)

	tokenService := services.NewTokenService(pool, services.NewBalanceNotifier())
	ctx := context.Background()

	_, err := tokenService.PurchaseTokens(ctx, clerkID, 0, "stripe")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = tokenService.PurchaseTokens(ctx, clerkID, -10, "stripe")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = tokenService.SpendTokens(ctx, clerkID, &token.SpendRequest{Amount: 0, Description: "x"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}
