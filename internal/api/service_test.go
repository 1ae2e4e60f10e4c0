/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"testing"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/runtime/runtimetest"
	"transfer-hook-vault-go/internal/token"
	"transfer-hook-vault-go/internal/vault"
	"transfer-hook-vault-go/internal/whitelist"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lamportsPerSol = 1_000_000_000

type fixture struct {
	env     *runtimetest.Env
	service *LedgerService
	admin   address.Address
}

func setupService(t *testing.T, mode whitelist.Mode) *fixture {
	env := runtimetest.New(t)
	env.Runtime.Register(token.ProgramID, token.NewProcessor())
	env.Runtime.Register(vault.ProgramID, vault.NewProcessor())

	deployment := &models.Deployment{
		Mode:     mode.String(),
		Mint:     address.NewUnique(),
		Admin:    address.NewUnique(),
		Decimals: 9,
	}
	_, err := Bootstrap(context.Background(), env.Runtime, deployment, 10*lamportsPerSol)
	require.NoError(t, err)

	service, err := NewLedgerService(env.Runtime, env.Store, deployment)
	require.NoError(t, err)
	require.NoError(t, service.HealthCheck(context.Background()))

	return &fixture{env: env, service: service, admin: deployment.Admin}
}

func (f *fixture) provision(t *testing.T, tokens string, authorize bool) address.Address {
	user := address.NewUnique()
	result, err := f.service.ProvisionUser(context.Background(), user, lamportsPerSol, decimal.RequireFromString(tokens), authorize)
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)
	return user
}

func forEachMode(t *testing.T, fn func(t *testing.T, f *fixture)) {
	for _, mode := range []whitelist.Mode{whitelist.ModeRecord, whitelist.ModeList} {
		t.Run(mode.String(), func(t *testing.T) {
			fn(t, setupService(t, mode))
		})
	}
}

func TestDepositScenario(t *testing.T) {
	forEachMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		user := f.provision(t, "20", true)

		result, err := f.service.Deposit(ctx, user, decimal.NewFromInt(10))
		require.NoError(t, err)
		require.True(t, result.Success, result.Error)
		assert.NotEmpty(t, result.BatchId)
		assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(10)))

		balance, err := f.service.GetBalance(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, uint64(10_000_000_000), balance.Balance)

		report, err := f.service.CheckHolding(ctx)
		require.NoError(t, err)
		assert.True(t, report.Holding.Equal(decimal.NewFromInt(10)))
		assert.True(t, report.Covered)

		reconciled, err := f.service.ReconcileUser(ctx, user)
		require.NoError(t, err)
		assert.True(t, reconciled.InSync)
	})
}

func TestWithdrawScenario(t *testing.T) {
	forEachMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		user := f.provision(t, "10", true)

		result, err := f.service.Deposit(ctx, user, decimal.NewFromInt(10))
		require.NoError(t, err)
		require.True(t, result.Success, result.Error)

		mismatch, err := f.service.WithdrawUnits(ctx, user, 10_000_000_000, 9_999_999_999)
		require.NoError(t, err)
		assert.False(t, mismatch.Success)
		assert.Equal(t, uint32(vault.CodeAmountMismatch), mismatch.ErrorCode)

		result, err = f.service.Withdraw(ctx, user, decimal.NewFromInt(10))
		require.NoError(t, err)
		require.True(t, result.Success, result.Error)
		assert.True(t, result.NewBalance.IsZero())

		balance, err := f.service.GetBalance(ctx, user)
		require.NoError(t, err)
		assert.Zero(t, balance.Balance)

		tokens, err := f.service.GetTokenBalance(ctx, user)
		require.NoError(t, err)
		assert.True(t, tokens.Equal(decimal.NewFromInt(10)))

		history, err := f.service.GetTransactionHistory(ctx, user, 0, 0)
		require.NoError(t, err)
		assert.Len(t, history, 2)

		reconciled, err := f.service.ReconcileUser(ctx, user)
		require.NoError(t, err)
		assert.True(t, reconciled.InSync)
	})
}

func TestNonWhitelistedScenario(t *testing.T) {
	forEachMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		user := f.provision(t, "5", false)

		result, err := f.service.Deposit(ctx, user, decimal.NewFromInt(5))
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, uint32(vault.CodeNotWhitelisted), result.ErrorCode)

		tokens, err := f.service.GetTokenBalance(ctx, user)
		require.NoError(t, err)
		assert.True(t, tokens.Equal(decimal.NewFromInt(5)))

		report, err := f.service.CheckHolding(ctx)
		require.NoError(t, err)
		assert.True(t, report.Holding.IsZero())

		balances, err := f.service.ListBalances(ctx)
		require.NoError(t, err)
		assert.Empty(t, balances)
	})
}

func TestErrorCodesAreDistinguishable(t *testing.T) {
	forEachMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		user := f.provision(t, "5", true)

		result, err := f.service.Deposit(ctx, user, decimal.NewFromInt(2))
		require.NoError(t, err)
		require.True(t, result.Success, result.Error)

		overdraw, err := f.service.Withdraw(ctx, user, decimal.NewFromInt(3))
		require.NoError(t, err)
		assert.Equal(t, uint32(vault.CodeInsufficientBalance), overdraw.ErrorCode)
		assert.Equal(t, vault.CategoryArithmetic, vault.Code(overdraw.ErrorCode).Category())

		removal, err := f.service.RemoveFromWhitelist(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, uint32(vault.CodeOutstandingBalance), removal.ErrorCode)

		stillListed, err := f.service.IsWhitelisted(ctx, user)
		require.NoError(t, err)
		assert.True(t, stillListed)
	})
}

func TestWhitelistIdempotence(t *testing.T) {
	f := setupService(t, whitelist.ModeList)
	ctx := context.Background()
	principal := address.NewUnique()

	sizeBefore, lamportsBefore, err := f.service.RegistrySize(ctx)
	require.NoError(t, err)
	adminBefore := f.env.Lamports(t, f.admin)

	for i := 0; i < 2; i++ {
		result, err := f.service.AddToWhitelist(ctx, principal)
		require.NoError(t, err)
		require.True(t, result.Success, result.Error)
	}
	entries, err := f.service.ListWhitelist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []address.Address{principal}, entries)

	for i := 0; i < 2; i++ {
		result, err := f.service.RemoveFromWhitelist(ctx, principal)
		require.NoError(t, err)
		require.True(t, result.Success, result.Error)
	}
	entries, err = f.service.ListWhitelist(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	sizeAfter, lamportsAfter, err := f.service.RegistrySize(ctx)
	require.NoError(t, err)
	assert.Equal(t, sizeBefore, sizeAfter)
	assert.Equal(t, lamportsBefore, lamportsAfter)
	assert.Equal(t, adminBefore, f.env.Lamports(t, f.admin))
}

func TestRecordModeWhitelist(t *testing.T) {
	f := setupService(t, whitelist.ModeRecord)
	ctx := context.Background()
	principal := address.NewUnique()

	result, err := f.service.AddToWhitelist(ctx, principal)
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)

	listed, err := f.service.IsWhitelisted(ctx, principal)
	require.NoError(t, err)
	assert.True(t, listed)

	_, err = f.service.ListWhitelist(ctx)
	assert.ErrorIs(t, err, whitelist.ErrInvalidMode)

	result, err = f.service.RemoveFromWhitelist(ctx, principal)
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)

	listed, err = f.service.IsWhitelisted(ctx, principal)
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestInvalidParameters(t *testing.T) {
	f := setupService(t, whitelist.ModeRecord)
	ctx := context.Background()
	user := f.provision(t, "1", true)

	result, err := f.service.Deposit(ctx, user, decimal.Zero)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "invalid deposit parameters", result.Error)

	result, err = f.service.Withdraw(ctx, user, decimal.RequireFromString("0.0000000001"))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "invalid withdrawal parameters", result.Error)
}

func TestListBalances(t *testing.T) {
	f := setupService(t, whitelist.ModeList)
	ctx := context.Background()

	alice := f.provision(t, "3", true)
	bob := f.provision(t, "3", true)
	for _, user := range []address.Address{alice, bob} {
		result, err := f.service.Deposit(ctx, user, decimal.NewFromInt(1))
		require.NoError(t, err)
		require.True(t, result.Success, result.Error)
	}

	balances, err := f.service.ListBalances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	for _, b := range balances {
		assert.Equal(t, uint64(1_000_000_000), b.Balance)
		assert.True(t, b.Formatted.Equal(decimal.NewFromInt(1)))
	}

	report, err := f.service.CheckHolding(ctx)
	require.NoError(t, err)
	assert.True(t, report.Liabilities.Equal(decimal.NewFromInt(2)))
}

func TestNewLedgerServiceRejectsIncompleteDeployment(t *testing.T) {
	_, err := NewLedgerService(nil, nil, &models.Deployment{Mode: "list"})
	assert.Error(t, err)

	_, err = NewLedgerService(nil, nil, &models.Deployment{Mode: "ledger", Mint: address.NewUnique(), Admin: address.NewUnique()})
	assert.ErrorIs(t, err, whitelist.ErrInvalidMode)
}
