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

package token_test

import (
	"context"
	"testing"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/runtime"
	"transfer-hook-vault-go/internal/runtime/runtimetest"
	"transfer-hook-vault-go/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const decimals = 9

type fixture struct {
	env       *runtimetest.Env
	authority address.Address
	mint      address.Address
}

func newFixture(t *testing.T, hookProgram address.Address) *fixture {
	env := runtimetest.New(t)
	env.Runtime.Register(token.ProgramID, token.NewProcessor())

	f := &fixture{
		env:       env,
		authority: env.Funded(t, 1_000_000_000),
		mint:      address.NewUnique(),
	}
	_, err := env.Execute([]address.Address{f.authority, f.mint},
		token.NewInitializeMint(f.authority, f.mint, f.authority, decimals, hookProgram))
	require.NoError(t, err)
	return f
}

// holder provisions an associated token account for a new principal and mints amount into it.
func (f *fixture) holder(t *testing.T, amount uint64) (address.Address, address.Address) {
	owner := address.NewUnique()
	ata, _ := token.AssociatedAddress(owner, f.mint)
	_, err := f.env.Execute([]address.Address{f.authority},
		token.NewInitializeAccount(f.authority, owner, f.mint),
		token.NewMintTo(f.mint, ata, f.authority, amount))
	require.NoError(t, err)
	return owner, ata
}

func (f *fixture) balance(t *testing.T, ata address.Address) *token.Account {
	acc, err := f.env.Store.GetAccount(context.Background(), ata)
	require.NoError(t, err)
	tokenAcc, err := token.Load(acc)
	require.NoError(t, err)
	return tokenAcc
}

func TestTransferChecked(t *testing.T) {
	f := newFixture(t, address.Zero)
	alice, aliceAta := f.holder(t, 1_000)
	_, bobAta := f.holder(t, 0)

	_, err := f.env.Execute([]address.Address{alice},
		token.NewTransferChecked(aliceAta, f.mint, bobAta, alice, 400, decimals))
	require.NoError(t, err)

	assert.Equal(t, uint64(600), f.balance(t, aliceAta).Amount)
	assert.Equal(t, uint64(400), f.balance(t, bobAta).Amount)
	assert.False(t, f.balance(t, aliceAta).Transferring)
}

func TestTransferCheckedRejections(t *testing.T) {
	f := newFixture(t, address.Zero)
	alice, aliceAta := f.holder(t, 1_000)
	bob, bobAta := f.holder(t, 0)

	_, err := f.env.Execute([]address.Address{alice},
		token.NewTransferChecked(aliceAta, f.mint, bobAta, alice, 10, decimals+1))
	assert.ErrorIs(t, err, token.ErrDecimalsMismatch)

	_, err = f.env.Execute(nil,
		token.NewTransferChecked(aliceAta, f.mint, bobAta, alice, 10, decimals))
	assert.ErrorIs(t, err, runtime.ErrMissingSignature)

	_, err = f.env.Execute([]address.Address{bob},
		token.NewTransferChecked(aliceAta, f.mint, bobAta, bob, 10, decimals))
	assert.ErrorIs(t, err, token.ErrOwnerMismatch)

	_, err = f.env.Execute([]address.Address{alice},
		token.NewTransferChecked(aliceAta, f.mint, bobAta, alice, 1_001, decimals))
	assert.ErrorIs(t, err, token.ErrInsufficientFunds)

	op := token.NewTransferChecked(aliceAta, f.mint, bobAta, alice, 10, decimals)
	op.Accounts[3] = bob
	_, err = f.env.Execute([]address.Address{alice, bob}, op)
	assert.ErrorIs(t, err, token.ErrAuthorityMismatch)

	assert.Equal(t, uint64(1_000), f.balance(t, aliceAta).Amount)
}

func TestDelegatedTransfer(t *testing.T) {
	f := newFixture(t, address.Zero)
	alice, aliceAta := f.holder(t, 1_000)
	bob, bobAta := f.holder(t, 0)

	_, err := f.env.Execute([]address.Address{alice}, token.NewApprove(aliceAta, bob, alice, 300))
	require.NoError(t, err)

	_, err = f.env.Execute([]address.Address{bob},
		token.NewTransferChecked(aliceAta, f.mint, bobAta, bob, 301, decimals))
	assert.ErrorIs(t, err, token.ErrInsufficientAllowance)

	_, err = f.env.Execute([]address.Address{bob},
		token.NewTransferChecked(aliceAta, f.mint, bobAta, bob, 300, decimals))
	require.NoError(t, err)

	source := f.balance(t, aliceAta)
	assert.Equal(t, uint64(700), source.Amount)
	assert.False(t, source.HasDelegate())

	_, err = f.env.Execute([]address.Address{bob},
		token.NewTransferChecked(aliceAta, f.mint, bobAta, bob, 1, decimals))
	assert.ErrorIs(t, err, token.ErrOwnerMismatch)
}

func TestInitializeAccountRejectsNonAssociatedAddress(t *testing.T) {
	f := newFixture(t, address.Zero)
	owner := address.NewUnique()

	op := token.NewInitializeAccount(f.authority, owner, f.mint)
	op.Accounts[1] = address.NewUnique()
	_, err := f.env.Execute([]address.Address{f.authority}, op)
	assert.ErrorIs(t, err, token.ErrInvalidAssociatedAccount)
}

func TestMintToRequiresMintAuthority(t *testing.T) {
	f := newFixture(t, address.Zero)
	alice, aliceAta := f.holder(t, 0)

	_, err := f.env.Execute([]address.Address{alice}, token.NewMintTo(f.mint, aliceAta, alice, 5))
	assert.ErrorIs(t, err, token.ErrOwnerMismatch)
}

// recordingHook stores what it observed on each execute call.
type recordingHook struct {
	id            address.Address
	metas         []token.ExtraAccountMeta
	calls         int
	sawInFlight   bool
	accounts      []address.Address
	amount        uint64
	rejectAmounts map[uint64]bool
}

func (h *recordingHook) Process(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	if amount, ok := token.DecodeExecuteData(data); ok {
		h.calls++
		h.amount = amount
		h.accounts = accounts
		acc, err := ctx.Account(accounts[token.HookSourceIndex])
		if err != nil {
			return err
		}
		source, err := token.DecodeAccount(acc.Data)
		if err != nil {
			return err
		}
		h.sawInFlight = source.Transferring
		if h.rejectAmounts[amount] {
			return token.ErrInvalidInstruction
		}
		return nil
	}

	// Anything else initializes the meta list for the mint in accounts[1].
	payer, mint := accounts[0], accounts[1]
	addr, bump := token.ExtraAccountMetasAddress(mint, h.id)
	data = token.EncodeExtraAccountMetas(h.metas)
	seeds := append(token.ExtraAccountMetasSeeds(mint), []byte{bump})
	if err := ctx.CreateAccount(payer, addr, len(data), h.id, seeds...); err != nil {
		return err
	}
	return ctx.WriteData(addr, data)
}

func TestHookedTransferInvokesHookInFlight(t *testing.T) {
	hookID := address.FromName("recording-hook")
	fixed := address.NewUnique()
	hook := &recordingHook{
		id: hookID,
		metas: []token.ExtraAccountMeta{
			token.FixedMeta(fixed),
			token.SeedMeta(token.LiteralSeed([]byte("user")), token.AccountKeySeed(token.HookAuthorityIndex)),
		},
		rejectAmounts: map[uint64]bool{13: true},
	}

	f := newFixture(t, hookID)
	f.env.Runtime.Register(hookID, hook)
	alice, aliceAta := f.holder(t, 1_000)
	_, bobAta := f.holder(t, 0)

	// no meta list yet
	_, err := f.env.Execute([]address.Address{alice},
		token.NewTransferChecked(aliceAta, f.mint, bobAta, alice, 1, decimals))
	assert.ErrorIs(t, err, token.ErrMissingExtraAccountMetas)

	_, err = f.env.Execute([]address.Address{f.authority},
		initMetasOp(hookID, f.authority, f.mint))
	require.NoError(t, err)

	_, err = f.env.Execute([]address.Address{alice},
		token.NewTransferChecked(aliceAta, f.mint, bobAta, alice, 250, decimals))
	require.NoError(t, err)

	assert.Equal(t, 1, hook.calls)
	assert.True(t, hook.sawInFlight)
	assert.Equal(t, uint64(250), hook.amount)

	metaList, _ := token.ExtraAccountMetasAddress(f.mint, hookID)
	userPDA, _ := address.MustFindProgramAddress([][]byte{[]byte("user"), alice.Bytes()}, hookID)
	assert.Equal(t, []address.Address{aliceAta, f.mint, bobAta, alice, metaList, fixed, userPDA}, hook.accounts)

	assert.False(t, f.balance(t, aliceAta).Transferring)
	assert.False(t, f.balance(t, bobAta).Transferring)

	// hook rejection aborts the transfer
	_, err = f.env.Execute([]address.Address{alice},
		token.NewTransferChecked(aliceAta, f.mint, bobAta, alice, 13, decimals))
	assert.ErrorIs(t, err, token.ErrInvalidInstruction)
	assert.Equal(t, uint64(750), f.balance(t, aliceAta).Amount)
	assert.Equal(t, uint64(250), f.balance(t, bobAta).Amount)
}

func initMetasOp(program address.Address, accounts ...address.Address) models.Operation {
	return models.Operation{ProgramID: program, Accounts: accounts, Data: []byte{0xff}}
}
