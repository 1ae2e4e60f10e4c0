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

package runtime

import (
	"context"
	"errors"
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/rent"
	"transfer-hook-vault-go/internal/store"

	"go.uber.org/zap"
)

var ErrDataSizeMismatch = errors.New("data length does not match allocated size")

// Context is the view an executing program has of the batch: accounts, signers,
// the ordered operation log and the storage-cost schedule.
type Context struct {
	ctx       context.Context
	rt        *Runtime
	batch     store.Batch
	programID address.Address
	signers   map[address.Address]bool
	log       []models.Operation
	index     int
	depth     int
}

func (c *Context) Context() context.Context {
	return c.ctx
}

// ProgramID is the program currently executing
func (c *Context) ProgramID() address.Address {
	return c.programID
}

func (c *Context) IsSigner(a address.Address) bool {
	return c.signers[a]
}

func (c *Context) RequireSigner(a address.Address) error {
	if !c.signers[a] {
		return fmt.Errorf("%w: %s", ErrMissingSignature, a.Short())
	}
	return nil
}

// Operations returns the batch's ordered operation log. Callers must not modify it.
func (c *Context) Operations() []models.Operation {
	return c.log
}

// Index is the position of the top-level operation being executed, also during nested invocations.
func (c *Context) Index() int {
	return c.index
}

// Depth is zero for top-level operations
func (c *Context) Depth() int {
	return c.depth
}

func (c *Context) Rent() rent.Schedule {
	return c.rt.rent
}

// Account returns a copy of the current state of a.
func (c *Context) Account(a address.Address) (*models.Account, error) {
	return c.batch.GetAccount(c.ctx, a)
}

func (c *Context) Exists(a address.Address) (bool, error) {
	_, err := c.batch.GetAccount(c.ctx, a)
	if errors.Is(err, store.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateAccount allocates space zeroed bytes at addr, assigns owner and funds it to the
// rent-exempt minimum from payer. addr must either sign the batch or be the program
// address derived from seeds (bump last) under the executing program.
func (c *Context) CreateAccount(payer, addr address.Address, space int, owner address.Address, seeds ...[]byte) error {
	if err := c.RequireSigner(payer); err != nil {
		return err
	}
	if !c.IsSigner(addr) {
		derived, err := deriveSigner(seeds, c.programID)
		if err != nil {
			return err
		}
		if derived != addr {
			return fmt.Errorf("%w: expected %s, derived %s", ErrInvalidSignerSeeds, addr.Short(), derived.Short())
		}
	}

	acc, err := c.batch.GetAccount(c.ctx, addr)
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		acc = &models.Account{Address: addr, Owner: SystemProgramID}
	case err != nil:
		return err
	case acc.Owner != SystemProgramID || len(acc.Data) > 0:
		return fmt.Errorf("%w: %s", ErrAccountExists, addr.Short())
	}

	required := c.rt.rent.MinimumBalance(space)
	if acc.Lamports < required {
		if err := c.debitSystem(payer, required-acc.Lamports); err != nil {
			return err
		}
		acc.Lamports = required
	}

	acc.Owner = owner
	acc.Data = make([]byte, space)
	return c.batch.PutAccount(c.ctx, acc)
}

// WriteData replaces the data of an account owned by the executing program. The length must not change.
func (c *Context) WriteData(a address.Address, data []byte) error {
	acc, err := c.owned(a)
	if err != nil {
		return err
	}
	if len(data) != len(acc.Data) {
		return fmt.Errorf("%w: %s has %d bytes, got %d", ErrDataSizeMismatch, a.Short(), len(acc.Data), len(data))
	}
	acc.Data = append(acc.Data[:0], data...)
	return c.batch.PutAccount(c.ctx, acc)
}

// Resize reallocates an owned account. The account must already hold the minimum
// balance for the new size; fund it first when growing.
func (c *Context) Resize(a address.Address, size int) error {
	if size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrDataSizeMismatch, size)
	}
	acc, err := c.owned(a)
	if err != nil {
		return err
	}
	if required := c.rt.rent.MinimumBalance(size); acc.Lamports < required {
		return fmt.Errorf("%w: %s holds %d, needs %d for %d bytes", ErrNotRentExempt, a.Short(), acc.Lamports, required, size)
	}

	resized := make([]byte, size)
	copy(resized, acc.Data)
	acc.Data = resized
	return c.batch.PutAccount(c.ctx, acc)
}

// TransferLamports moves lamports between accounts. from must be owned by the executing
// program or be a system account that signed the batch.
func (c *Context) TransferLamports(from, to address.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		return nil
	}

	src, err := c.batch.GetAccount(c.ctx, from)
	if err != nil {
		return err
	}
	if src.Owner == SystemProgramID {
		if err := c.RequireSigner(from); err != nil {
			return err
		}
	} else if src.Owner != c.programID {
		return fmt.Errorf("%w: %s", ErrIllegalOwner, from.Short())
	}

	if src.Lamports < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from.Short(), src.Lamports, amount)
	}
	src.Lamports -= amount
	if src.Owner != SystemProgramID {
		if required := c.rt.rent.MinimumBalance(len(src.Data)); src.Lamports < required {
			return fmt.Errorf("%w: %s", ErrNotRentExempt, from.Short())
		}
	}
	if err := c.batch.PutAccount(c.ctx, src); err != nil {
		return err
	}
	return credit(c.ctx, c.batch, to, amount)
}

// Close deletes an owned account and moves all of its lamports to dest.
func (c *Context) Close(a, dest address.Address) error {
	acc, err := c.owned(a)
	if err != nil {
		return err
	}
	if err := c.batch.DeleteAccount(c.ctx, a); err != nil {
		return err
	}
	return credit(c.ctx, c.batch, dest, acc.Lamports)
}

// Invoke runs op as a nested call. Each entry of signerSeeds (bump last) is verified to derive
// a program address of the caller, which then counts as a signer for the callee.
func (c *Context) Invoke(op models.Operation, signerSeeds ...[][]byte) error {
	if c.depth+1 > MaxInvokeDepth {
		return ErrCallDepthExceeded
	}
	prog, ok := c.rt.programs[op.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, op.ProgramID.Short())
	}

	signers := make(map[address.Address]bool, len(c.signers)+len(signerSeeds))
	for s := range c.signers {
		signers[s] = true
	}
	for _, seeds := range signerSeeds {
		pda, err := deriveSigner(seeds, c.programID)
		if err != nil {
			return err
		}
		signers[pda] = true
	}

	zap.L().Debug("Invoking program",
		zap.String("caller", c.programID.Short()),
		zap.String("callee", op.ProgramID.Short()),
		zap.Int("depth", c.depth+1))

	nested := &Context{
		ctx:       c.ctx,
		rt:        c.rt,
		batch:     c.batch,
		programID: op.ProgramID,
		signers:   signers,
		log:       c.log,
		index:     c.index,
		depth:     c.depth + 1,
	}
	return prog.Process(nested, op.Accounts, op.Data)
}

// RecordTransaction appends an audit entry keyed by the executing operation unless a key is given.
func (c *Context) RecordTransaction(params store.RecordTransactionParams) (*models.Transaction, error) {
	if params.ExternalTxId == "" {
		params.ExternalTxId = models.GetBatchContext(c.ctx).ExternalId()
	}
	return c.batch.RecordTransaction(c.ctx, params)
}

func (c *Context) owned(a address.Address) (*models.Account, error) {
	acc, err := c.batch.GetAccount(c.ctx, a)
	if err != nil {
		return nil, err
	}
	if acc.Owner != c.programID {
		return nil, fmt.Errorf("%w: %s owned by %s", ErrIllegalOwner, a.Short(), acc.Owner.Short())
	}
	return acc, nil
}

func (c *Context) debitSystem(payer address.Address, amount uint64) error {
	acc, err := c.batch.GetAccount(c.ctx, payer)
	if errors.Is(err, store.ErrAccountNotFound) {
		return fmt.Errorf("%w: %s has no account", ErrInsufficientFunds, payer.Short())
	}
	if err != nil {
		return err
	}
	if acc.Owner != SystemProgramID {
		return fmt.Errorf("%w: payer %s", ErrIllegalOwner, payer.Short())
	}
	if acc.Lamports < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, payer.Short(), acc.Lamports, amount)
	}
	acc.Lamports -= amount
	return c.batch.PutAccount(c.ctx, acc)
}

func deriveSigner(seeds [][]byte, programID address.Address) (address.Address, error) {
	if len(seeds) == 0 || len(seeds[len(seeds)-1]) != 1 {
		return address.Zero, fmt.Errorf("%w: bump seed missing", ErrInvalidSignerSeeds)
	}
	bump := seeds[len(seeds)-1][0]
	pda, err := address.CreateProgramAddress(seeds[:len(seeds)-1], bump, programID)
	if err != nil {
		return address.Zero, fmt.Errorf("%w: %v", ErrInvalidSignerSeeds, err)
	}
	return pda, nil
}
