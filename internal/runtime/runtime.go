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
	"sync"
	"time"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/rent"
	"transfer-hook-vault-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SystemProgramID owns plain lamport-holding accounts.
var SystemProgramID = address.Zero

// MaxInvokeDepth bounds nested invocations below a top-level operation.
const MaxInvokeDepth = 4

var (
	ErrEmptyBatch          = errors.New("batch has no operations")
	ErrUnknownProgram      = errors.New("unknown program")
	ErrMissingSignature    = errors.New("missing required signature")
	ErrIllegalOwner        = errors.New("account not owned by executing program")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientFunds   = errors.New("insufficient lamports")
	ErrLamportsOverflow    = errors.New("lamports overflow")
	ErrNotRentExempt       = errors.New("account would not be rent exempt")
	ErrInvalidSignerSeeds  = errors.New("signer seeds do not derive a program address")
	ErrCallDepthExceeded   = errors.New("invoke depth exceeded")
	ErrInvalidAccountIndex = errors.New("missing account")
)

// Program processes operations addressed to its id.
type Program interface {
	Process(ctx *Context, accounts []address.Address, data []byte) error
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(ctx *Context, accounts []address.Address, data []byte) error

func (f ProgramFunc) Process(ctx *Context, accounts []address.Address, data []byte) error {
	return f(ctx, accounts, data)
}

// Runtime executes batches atomically against a LedgerStore. Batches are processed one at a time.
type Runtime struct {
	mu       sync.Mutex
	store    store.LedgerStore
	rent     rent.Schedule
	programs map[address.Address]Program
	now      func() time.Time
}

func New(s store.LedgerStore, schedule rent.Schedule) *Runtime {
	return &Runtime{
		store:    s,
		rent:     schedule,
		programs: make(map[address.Address]Program),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register binds a program implementation to id, replacing any previous binding.
func (r *Runtime) Register(id address.Address, p Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[id] = p
}

func (r *Runtime) Rent() rent.Schedule {
	return r.rent
}

// Execute runs every operation of batch in order inside one store transaction.
// The first failing operation aborts the batch and nothing is committed.
func (r *Runtime) Execute(ctx context.Context, batch *models.Batch) (*models.Receipt, error) {
	if batch == nil || len(batch.Operations) == 0 {
		return nil, ErrEmptyBatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	batchId := uuid.New().String()
	submittedAt := r.now()

	sb, err := r.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer sb.Rollback()

	signers := make(map[address.Address]bool, len(batch.Signers))
	for _, s := range batch.Signers {
		signers[s] = true
	}

	for i, op := range batch.Operations {
		prog, ok := r.programs[op.ProgramID]
		if !ok {
			return nil, fmt.Errorf("operation %d: %w: %s", i, ErrUnknownProgram, op.ProgramID.Short())
		}

		opCtx := &Context{
			ctx: models.WithBatchContext(ctx, &models.BatchContext{
				BatchId:        batchId,
				OperationIndex: i,
				SubmittedAt:    submittedAt,
			}),
			rt:        r,
			batch:     sb,
			programID: op.ProgramID,
			signers:   signers,
			log:       batch.Operations,
			index:     i,
		}

		if err := prog.Process(opCtx, op.Accounts, op.Data); err != nil {
			zap.L().Debug("Operation failed, rolling back batch",
				zap.String("batch_id", batchId),
				zap.Int("operation", i),
				zap.String("program", op.ProgramID.Short()),
				zap.Error(err))
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
	}

	if err := sb.Commit(); err != nil {
		return nil, err
	}

	zap.L().Debug("Batch committed",
		zap.String("batch_id", batchId),
		zap.Int("operations", len(batch.Operations)))

	return &models.Receipt{BatchId: batchId, Operations: len(batch.Operations)}, nil
}

// Airdrop credits lamports to addr outside any batch, creating a system account if needed.
func (r *Runtime) Airdrop(ctx context.Context, addr address.Address, lamports uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sb, err := r.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer sb.Rollback()

	if err := credit(ctx, sb, addr, lamports); err != nil {
		return err
	}
	return sb.Commit()
}

// GetAccount reads committed state.
func (r *Runtime) GetAccount(ctx context.Context, addr address.Address) (*models.Account, error) {
	return r.store.GetAccount(ctx, addr)
}

func credit(ctx context.Context, accounts store.Accounts, addr address.Address, lamports uint64) error {
	acc, err := accounts.GetAccount(ctx, addr)
	if errors.Is(err, store.ErrAccountNotFound) {
		acc = &models.Account{Address: addr, Owner: SystemProgramID, Data: []byte{}}
	} else if err != nil {
		return err
	}

	sum := acc.Lamports + lamports
	if sum < acc.Lamports {
		return fmt.Errorf("%w: %s", ErrLamportsOverflow, addr.Short())
	}
	acc.Lamports = sum
	return accounts.PutAccount(ctx, acc)
}
