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


package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/store"

	"go.uber.org/zap"
)

// Compile-time check: *Batch must satisfy store.Batch.
var _ store.Batch = (*Batch)(nil)

// Batch scopes account writes and subledger entries to one SQL transaction.
type Batch struct {
	tx        *sql.Tx
	subledger *SubledgerService
	done      bool
}

func (b *Batch) GetAccount(ctx context.Context, addr address.Address) (*models.Account, error) {
	if b.done {
		return nil, store.ErrBatchClosed
	}
	return getAccount(ctx, b.tx, addr)
}

// PutAccount inserts a new account (Version 0) or updates an existing one with optimistic
// locking on Version. On success account.Version reflects the stored version.
func (b *Batch) PutAccount(ctx context.Context, account *models.Account) error {
	if b.done {
		return store.ErrBatchClosed
	}

	lamports := strconv.FormatUint(account.Lamports, 10)
	data := account.Data
	if data == nil {
		data = []byte{}
	}

	if account.Version == 0 {
		_, err := b.tx.ExecContext(ctx, queryInsertAccount,
			account.Address.String(), account.Owner.String(), lamports, data)
		if err != nil {
			return fmt.Errorf("failed to create account %s: %w", account.Address, err)
		}
		account.Version = 1
		return nil
	}

	result, err := b.tx.ExecContext(ctx, queryUpdateAccount,
		account.Owner.String(), lamports, data, account.Address.String(), account.Version)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.Address, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %s update failed - %w", account.Address, store.ErrConcurrentModification)
	}

	account.Version++
	return nil
}

func (b *Batch) DeleteAccount(ctx context.Context, addr address.Address) error {
	if b.done {
		return store.ErrBatchClosed
	}

	result, err := b.tx.ExecContext(ctx, queryDeleteAccount, addr.String())
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", addr, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrAccountNotFound, addr)
	}
	return nil
}

func (b *Batch) RecordTransaction(ctx context.Context, params store.RecordTransactionParams) (*models.Transaction, error) {
	if b.done {
		return nil, store.ErrBatchClosed
	}
	return b.subledger.RecordTransaction(ctx, b.tx, params)
}

func (b *Batch) Commit() error {
	if b.done {
		return store.ErrBatchClosed
	}
	b.done = true
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Rollback discards the batch. Rolling back a finished batch is a no-op so callers may defer it.
func (b *Batch) Rollback() error {
	if b.done {
		return nil
	}
	b.done = true
	if err := b.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		zap.L().Warn("Failed to roll back batch", zap.Error(err))
		return fmt.Errorf("failed to roll back batch: %w", err)
	}
	return nil
}
