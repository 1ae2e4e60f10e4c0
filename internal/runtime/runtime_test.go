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

package runtime_test

import (
	"context"
	"errors"
	"testing"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/runtime"
	"transfer-hook-vault-go/internal/runtime/runtimetest"
	"transfer-hook-vault-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	counterProgram = address.FromName("counter")
	proxyProgram   = address.FromName("proxy")
	errBoom        = errors.New("boom")
)

func counterAddress() (address.Address, uint8) {
	return address.MustFindProgramAddress([][]byte{[]byte("counter")}, counterProgram)
}

// counter: op 0 creates the counter PDA, op 1 increments it, op 2 fails, op 3 records its log position.
func counter(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	addr, bump := counterAddress()
	switch data[0] {
	case 0:
		return ctx.CreateAccount(accounts[0], addr, 1, counterProgram, []byte("counter"), []byte{bump})
	case 1:
		acc, err := ctx.Account(addr)
		if err != nil {
			return err
		}
		return ctx.WriteData(addr, []byte{acc.Data[0] + 1})
	case 2:
		return errBoom
	case 3:
		if ctx.Index() != 1 || len(ctx.Operations()) != 2 {
			return errBoom
		}
		return nil
	}
	return errBoom
}

func register(env *runtimetest.Env) {
	env.Runtime.Register(counterProgram, runtime.ProgramFunc(counter))
}

func op(program address.Address, accounts []address.Address, data ...byte) models.Operation {
	return models.Operation{ProgramID: program, Accounts: accounts, Data: data}
}

func counterValue(t *testing.T, env *runtimetest.Env) byte {
	t.Helper()
	addr, _ := counterAddress()
	acc, err := env.Store.GetAccount(context.Background(), addr)
	require.NoError(t, err)
	return acc.Data[0]
}

func TestExecuteCommitsInOrder(t *testing.T) {
	env := runtimetest.New(t)
	register(env)
	payer := env.Funded(t, 10_000_000)

	receipt, err := env.Execute([]address.Address{payer},
		op(counterProgram, []address.Address{payer}, 0),
		op(counterProgram, nil, 1),
		op(counterProgram, nil, 1),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, receipt.Operations)
	assert.NotEmpty(t, receipt.BatchId)
	assert.Equal(t, byte(2), counterValue(t, env))

	rentExempt := env.Runtime.Rent().MinimumBalance(1)
	addr, _ := counterAddress()
	assert.Equal(t, rentExempt, env.Lamports(t, addr))
	assert.Equal(t, uint64(10_000_000)-rentExempt, env.Lamports(t, payer))
}

func TestFailedOperationRollsBackBatch(t *testing.T) {
	env := runtimetest.New(t)
	register(env)
	payer := env.Funded(t, 10_000_000)

	_, err := env.Execute([]address.Address{payer},
		op(counterProgram, []address.Address{payer}, 0),
		op(counterProgram, nil, 1),
		op(counterProgram, nil, 2),
	)
	require.ErrorIs(t, err, errBoom)

	addr, _ := counterAddress()
	_, err = env.Store.GetAccount(context.Background(), addr)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
	assert.Equal(t, uint64(10_000_000), env.Lamports(t, payer))
}

func TestOperationLogVisible(t *testing.T) {
	env := runtimetest.New(t)
	register(env)
	payer := env.Funded(t, 10_000_000)

	_, err := env.Execute([]address.Address{payer},
		op(counterProgram, []address.Address{payer}, 0),
		op(counterProgram, nil, 3),
	)
	require.NoError(t, err)
}

func TestUnknownProgramAndEmptyBatch(t *testing.T) {
	env := runtimetest.New(t)

	_, err := env.Execute(nil, op(address.FromName("nobody"), nil, 0))
	assert.ErrorIs(t, err, runtime.ErrUnknownProgram)

	_, err = env.Execute(nil)
	assert.ErrorIs(t, err, runtime.ErrEmptyBatch)
}

func TestCreateAccountRequiresPayerSignature(t *testing.T) {
	env := runtimetest.New(t)
	register(env)
	payer := env.Funded(t, 10_000_000)

	_, err := env.Execute(nil, op(counterProgram, []address.Address{payer}, 0))
	assert.ErrorIs(t, err, runtime.ErrMissingSignature)
}

func TestCreateAccountInsufficientFunds(t *testing.T) {
	env := runtimetest.New(t)
	register(env)
	payer := env.Funded(t, 1_000)

	_, err := env.Execute([]address.Address{payer}, op(counterProgram, []address.Address{payer}, 0))
	assert.ErrorIs(t, err, runtime.ErrInsufficientFunds)
}

func TestInvokeWithSignerSeeds(t *testing.T) {
	env := runtimetest.New(t)
	authority, bump := address.MustFindProgramAddress([][]byte{[]byte("authority")}, proxyProgram)

	callee := address.FromName("callee")
	env.Runtime.Register(callee, runtime.ProgramFunc(func(ctx *runtime.Context, accounts []address.Address, data []byte) error {
		if ctx.Depth() != 1 {
			return errBoom
		}
		return ctx.RequireSigner(authority)
	}))
	env.Runtime.Register(proxyProgram, runtime.ProgramFunc(func(ctx *runtime.Context, accounts []address.Address, data []byte) error {
		seeds := [][]byte{[]byte("authority")}
		if len(data) > 0 {
			seeds = append(seeds, data)
		}
		return ctx.Invoke(op(callee, nil), seeds)
	}))

	_, err := env.Execute(nil, op(proxyProgram, nil, bump))
	require.NoError(t, err)

	_, err = env.Execute(nil, op(proxyProgram, nil))
	assert.ErrorIs(t, err, runtime.ErrInvalidSignerSeeds)
}

func TestResizeRequiresFundingFirst(t *testing.T) {
	env := runtimetest.New(t)
	payer := env.Funded(t, 100_000_000)
	addr, bump := counterAddress()
	schedule := env.Runtime.Rent()

	env.Runtime.Register(counterProgram, runtime.ProgramFunc(func(ctx *runtime.Context, accounts []address.Address, data []byte) error {
		switch data[0] {
		case 0:
			return ctx.CreateAccount(payer, addr, 8, counterProgram, []byte("counter"), []byte{bump})
		case 1:
			return ctx.Resize(addr, 40)
		case 2:
			if err := ctx.TransferLamports(payer, addr, uint64(schedule.Delta(8, 40))); err != nil {
				return err
			}
			return ctx.Resize(addr, 40)
		case 3:
			if err := ctx.Resize(addr, 8); err != nil {
				return err
			}
			return ctx.TransferLamports(addr, payer, uint64(-schedule.Delta(40, 8)))
		case 4:
			return ctx.Close(addr, payer)
		}
		return errBoom
	}))

	signers := []address.Address{payer}
	_, err := env.Execute(signers, op(counterProgram, nil, 0))
	require.NoError(t, err)

	_, err = env.Execute(signers, op(counterProgram, nil, 1))
	assert.ErrorIs(t, err, runtime.ErrNotRentExempt)

	_, err = env.Execute(signers, op(counterProgram, nil, 2))
	require.NoError(t, err)
	assert.Equal(t, schedule.MinimumBalance(40), env.Lamports(t, addr))

	_, err = env.Execute(signers, op(counterProgram, nil, 3))
	require.NoError(t, err)
	assert.Equal(t, schedule.MinimumBalance(8), env.Lamports(t, addr))

	_, err = env.Execute(signers, op(counterProgram, nil, 4))
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), env.Lamports(t, payer))
}

func TestWriteDataRequiresOwnership(t *testing.T) {
	env := runtimetest.New(t)
	register(env)
	payer := env.Funded(t, 10_000_000)

	_, err := env.Execute([]address.Address{payer}, op(counterProgram, []address.Address{payer}, 0))
	require.NoError(t, err)

	addr, _ := counterAddress()
	intruder := address.FromName("intruder")
	env.Runtime.Register(intruder, runtime.ProgramFunc(func(ctx *runtime.Context, accounts []address.Address, data []byte) error {
		return ctx.WriteData(addr, []byte{9})
	}))

	_, err = env.Execute(nil, op(intruder, nil))
	assert.ErrorIs(t, err, runtime.ErrIllegalOwner)
	assert.Equal(t, byte(0), counterValue(t, env))
}

func TestBatchContextExternalId(t *testing.T) {
	env := runtimetest.New(t)
	user := address.NewUnique()

	env.Runtime.Register(counterProgram, runtime.ProgramFunc(func(ctx *runtime.Context, accounts []address.Address, data []byte) error {
		_, err := ctx.RecordTransaction(store.RecordTransactionParams{
			UserId:          user.String(),
			Asset:           "asset",
			TransactionType: models.TransactionTypeDeposit,
		})
		return err
	}))

	receipt, err := env.Execute(nil, op(counterProgram, nil, 0), op(counterProgram, nil, 0))
	require.NoError(t, err)

	history, err := env.Store.GetTransactionHistory(context.Background(), user.String(), 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)

	ids := []string{history[0].ExternalTransactionId, history[1].ExternalTransactionId}
	assert.ElementsMatch(t, []string{receipt.BatchId + "/0", receipt.BatchId + "/1"}, ids)
}
