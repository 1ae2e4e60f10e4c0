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

// Package binder ties a deposit or withdraw request to the adjacent transfer in the same batch.
package binder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/token"
)

var (
	ErrAdjacentOperationNotFound = errors.New("adjacent operation not found")
	ErrUnexpectedProgram         = errors.New("adjacent operation targets unexpected program")
	ErrUnexpectedOpcode          = errors.New("adjacent operation is not a checked transfer")
	ErrSignerMismatch            = errors.New("transfer authority does not match caller")
	ErrAmountMismatch            = errors.New("transfer amount does not match declared amount")
	ErrUnexpectedAccount         = errors.New("transfer does not involve the custodial holding account")
)

// Transfer is what the binder learned about the bound transfer.
type Transfer struct {
	Index       int
	Source      address.Address
	Destination address.Address
	Authority   address.Address
	Amount      uint64
}

// Binder validates adjacent operations against the transfer program.
type Binder struct {
	transferProgram address.Address
}

func New(transferProgram address.Address) *Binder {
	return &Binder{transferProgram: transferProgram}
}

// BindDeposit inspects the operation just before position k. It must be a checked transfer
// by signer into holding; the transferred amount is returned as the amount to credit.
func (b *Binder) BindDeposit(log []models.Operation, k int, signer, holding address.Address) (*Transfer, error) {
	t, err := b.inspect(log, k-1, signer)
	if err != nil {
		return nil, err
	}
	if t.Destination != holding {
		return nil, fmt.Errorf("%w: deposit sends to %s", ErrUnexpectedAccount, t.Destination.Short())
	}
	return t, nil
}

// BindWithdraw inspects the operation just after position k. It must be a checked transfer
// by signer out of holding for exactly amount.
func (b *Binder) BindWithdraw(log []models.Operation, k int, signer, holding address.Address, amount uint64) (*Transfer, error) {
	t, err := b.inspect(log, k+1, signer)
	if err != nil {
		return nil, err
	}
	if t.Amount != amount {
		return nil, fmt.Errorf("%w: declared %d, transfer moves %d", ErrAmountMismatch, amount, t.Amount)
	}
	if t.Source != holding {
		return nil, fmt.Errorf("%w: withdraw draws from %s", ErrUnexpectedAccount, t.Source.Short())
	}
	return t, nil
}

func (b *Binder) inspect(log []models.Operation, i int, signer address.Address) (*Transfer, error) {
	if i < 0 || i >= len(log) {
		return nil, fmt.Errorf("%w: no operation at %d", ErrAdjacentOperationNotFound, i)
	}
	op := log[i]

	if op.ProgramID != b.transferProgram {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedProgram, op.ProgramID.Short())
	}
	if len(op.Data) == 0 || op.Data[0] != token.OpTransferChecked {
		return nil, ErrUnexpectedOpcode
	}
	if len(op.Data) < token.TransferCheckedDataSize || len(op.Accounts) < 4 {
		return nil, fmt.Errorf("%w: truncated transfer", ErrUnexpectedOpcode)
	}

	authority := address.Address(op.Data[token.TransferCheckedAuthorityOffset:token.TransferCheckedDataSize])
	if authority != signer {
		return nil, fmt.Errorf("%w: transfer by %s, caller %s", ErrSignerMismatch, authority.Short(), signer.Short())
	}

	return &Transfer{
		Index:       i,
		Source:      op.Accounts[0],
		Destination: op.Accounts[2],
		Authority:   authority,
		Amount:      binary.LittleEndian.Uint64(op.Data[token.TransferCheckedAmountOffset:]),
	}, nil
}
