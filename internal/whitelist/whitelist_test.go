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

package whitelist

import (
	"testing"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminLamports = 1_000_000_000

func setupList(t *testing.T) (*memEnv, *ListRegistry, address.Address) {
	env := newMemEnv()
	admin := address.NewUnique()
	env.fund(admin, adminLamports)
	reg := NewListRegistry(env, admin)
	require.NoError(t, reg.Initialize())
	return env, reg, admin
}

func TestListAuthorizeIdempotent(t *testing.T) {
	env, reg, _ := setupList(t)
	p := address.NewUnique()

	require.NoError(t, reg.Authorize(p))
	require.NoError(t, reg.Authorize(p))

	entries, err := reg.Entries()
	require.NoError(t, err)
	assert.Equal(t, []address.Address{p}, entries)

	acc, err := env.Account(reg.Address())
	require.NoError(t, err)
	assert.Len(t, acc.Data, BaseSize+EntryWidth)
	assert.Equal(t, env.schedule.MinimumBalance(BaseSize+EntryWidth), acc.Lamports)
}

func TestListRevokeAbsentIsNoop(t *testing.T) {
	env, reg, admin := setupList(t)
	p := address.NewUnique()

	require.NoError(t, reg.Authorize(p))
	require.NoError(t, reg.Revoke(p))
	before := env.lamports(admin)
	require.NoError(t, reg.Revoke(p))
	assert.Equal(t, before, env.lamports(admin))

	ok, err := reg.IsAuthorized(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListRoundTripNetsZero(t *testing.T) {
	env, reg, admin := setupList(t)
	existing := []address.Address{address.NewUnique(), address.NewUnique()}
	for _, p := range existing {
		require.NoError(t, reg.Authorize(p))
	}

	adminBefore := env.lamports(admin)
	regBefore, err := env.Account(reg.Address())
	require.NoError(t, err)

	p := address.NewUnique()
	require.NoError(t, reg.Authorize(p))
	assert.Less(t, env.lamports(admin), adminBefore)
	require.NoError(t, reg.Revoke(p))

	regAfter, err := env.Account(reg.Address())
	require.NoError(t, err)
	assert.Equal(t, adminBefore, env.lamports(admin))
	assert.Equal(t, regBefore.Lamports, regAfter.Lamports)
	assert.Equal(t, len(regBefore.Data), len(regAfter.Data))
}

func TestListSwapRemoveKeepsSizeInvariant(t *testing.T) {
	env, reg, _ := setupList(t)
	ps := []address.Address{address.NewUnique(), address.NewUnique(), address.NewUnique(), address.NewUnique()}
	for _, p := range ps {
		require.NoError(t, reg.Authorize(p))
	}

	require.NoError(t, reg.Revoke(ps[1]))

	entries, err := reg.Entries()
	require.NoError(t, err)
	assert.ElementsMatch(t, []address.Address{ps[0], ps[2], ps[3]}, entries)
	assert.Equal(t, ps[3], entries[1])

	acc, err := env.Account(reg.Address())
	require.NoError(t, err)
	assert.Len(t, acc.Data, BaseSize+EntryWidth*3)
}

func TestListInsufficientFunding(t *testing.T) {
	env, reg, admin := setupList(t)
	env.accounts[admin].Lamports = 10

	err := reg.Authorize(address.NewUnique())
	assert.ErrorIs(t, err, ErrInsufficientFunding)

	entries, err := reg.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, uint64(10), env.lamports(admin))
}

func TestListCorruptRegistry(t *testing.T) {
	env, reg, _ := setupList(t)
	env.accounts[reg.Address()].Data[9] = 5 // claims five entries in an empty account

	_, err := reg.IsAuthorized(address.NewUnique())
	assert.ErrorIs(t, err, ErrCorruptRegistry)
}

func TestRecordRegistryLifecycle(t *testing.T) {
	env := newMemEnv()
	admin := address.NewUnique()
	env.fund(admin, adminLamports)
	reg := NewRecordRegistry(env, admin)
	p := address.NewUnique()

	ok, err := reg.IsAuthorized(p)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, reg.Authorize(p))
	require.NoError(t, reg.Authorize(p))
	assert.Equal(t, uint64(adminLamports)-env.schedule.MinimumBalance(ledger.UserRecordSize), env.lamports(admin))

	ok, err = reg.IsAuthorized(p)
	require.NoError(t, err)
	assert.True(t, ok)

	acc, err := env.Account(reg.ContextAddress(p))
	require.NoError(t, err)
	record, err := ledger.DecodeUserRecord(acc.Data)
	require.NoError(t, err)
	assert.Zero(t, record.Balance)

	require.NoError(t, reg.Revoke(p))
	require.NoError(t, reg.Revoke(p))
	assert.Equal(t, uint64(adminLamports), env.lamports(admin))

	ok, err = reg.IsAuthorized(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordRevokeRejectsOutstandingBalance(t *testing.T) {
	env := newMemEnv()
	admin := address.NewUnique()
	env.fund(admin, adminLamports)
	reg := NewRecordRegistry(env, admin)
	p := address.NewUnique()
	require.NoError(t, reg.Authorize(p))

	addr := reg.ContextAddress(p)
	record := ledger.UserRecord{Balance: 42}
	require.NoError(t, env.WriteData(addr, record.Encode()))

	err := reg.Revoke(p)
	assert.ErrorIs(t, err, ErrOutstandingBalance)

	ok, err := reg.IsAuthorized(p)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordInsufficientFunding(t *testing.T) {
	env := newMemEnv()
	admin := address.NewUnique()
	env.fund(admin, 5)
	reg := NewRecordRegistry(env, admin)

	err := reg.Authorize(address.NewUnique())
	assert.ErrorIs(t, err, ErrInsufficientFunding)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("LIST")
	require.NoError(t, err)
	assert.Equal(t, ModeList, m)

	var decoded Mode
	require.NoError(t, decoded.UnmarshalText([]byte("record")))
	assert.Equal(t, ModeRecord, decoded)

	_, err = ParseMode("bitmap")
	assert.ErrorIs(t, err, ErrInvalidMode)
}
