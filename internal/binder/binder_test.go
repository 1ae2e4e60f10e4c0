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

package binder

import (
	"testing"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vaultProgram = address.FromName("vault")
	mint         = address.NewUnique()
	user         = address.NewUnique()
	userAta      = address.NewUnique()
	holding      = address.NewUnique()
)

func request() models.Operation {
	return models.Operation{ProgramID: vaultProgram, Data: []byte{4}}
}

func TestBindDeposit(t *testing.T) {
	b := New(token.ProgramID)
	log := []models.Operation{
		token.NewTransferChecked(userAta, mint, holding, user, 10_000_000_000, 9),
		request(),
	}

	tr, err := b.BindDeposit(log, 1, user, holding)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000_000), tr.Amount)
	assert.Equal(t, 0, tr.Index)
	assert.Equal(t, userAta, tr.Source)
}

func TestBindWithdraw(t *testing.T) {
	b := New(token.ProgramID)
	log := []models.Operation{
		request(),
		token.NewTransferChecked(holding, mint, userAta, user, 500, 9),
	}

	_, err := b.BindWithdraw(log, 0, user, holding, 500)
	require.NoError(t, err)

	_, err = b.BindWithdraw(log, 0, user, holding, 499)
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestBindRejections(t *testing.T) {
	b := New(token.ProgramID)
	other := address.NewUnique()

	wrongOpcode := token.NewTransferChecked(userAta, mint, holding, user, 1, 9)
	wrongOpcode.Data[0] = token.OpApprove

	truncated := token.NewTransferChecked(userAta, mint, holding, user, 1, 9)
	truncated.Data = truncated.Data[:12]

	tests := []struct {
		name    string
		log     []models.Operation
		k       int
		wantErr error
	}{
		{
			name:    "deposit first in batch",
			log:     []models.Operation{request()},
			k:       0,
			wantErr: ErrAdjacentOperationNotFound,
		},
		{
			name:    "preceded by another program",
			log:     []models.Operation{{ProgramID: other, Data: []byte{12}}, request()},
			k:       1,
			wantErr: ErrUnexpectedProgram,
		},
		{
			name:    "preceded by approve",
			log:     []models.Operation{token.NewApprove(userAta, other, user, 1), request()},
			k:       1,
			wantErr: ErrUnexpectedOpcode,
		},
		{
			name:    "opcode byte tampered",
			log:     []models.Operation{wrongOpcode, request()},
			k:       1,
			wantErr: ErrUnexpectedOpcode,
		},
		{
			name:    "truncated data",
			log:     []models.Operation{truncated, request()},
			k:       1,
			wantErr: ErrUnexpectedOpcode,
		},
		{
			name:    "transfer by someone else",
			log:     []models.Operation{token.NewTransferChecked(userAta, mint, holding, other, 1, 9), request()},
			k:       1,
			wantErr: ErrSignerMismatch,
		},
		{
			name:    "transfer not into holding",
			log:     []models.Operation{token.NewTransferChecked(userAta, mint, other, user, 1, 9), request()},
			k:       1,
			wantErr: ErrUnexpectedAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.BindDeposit(tt.log, tt.k, user, holding)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBindWithdrawLastInBatch(t *testing.T) {
	b := New(token.ProgramID)
	log := []models.Operation{
		token.NewTransferChecked(holding, mint, userAta, user, 1, 9),
		request(),
	}

	_, err := b.BindWithdraw(log, 1, user, holding, 1)
	assert.ErrorIs(t, err, ErrAdjacentOperationNotFound)
}

func TestBindWithdrawFromOtherSource(t *testing.T) {
	b := New(token.ProgramID)
	log := []models.Operation{
		request(),
		token.NewTransferChecked(userAta, mint, holding, user, 1, 9),
	}

	_, err := b.BindWithdraw(log, 0, user, holding, 1)
	assert.ErrorIs(t, err, ErrUnexpectedAccount)
}
