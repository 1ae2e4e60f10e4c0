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
	"errors"
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/store"
	"transfer-hook-vault-go/internal/token"
	"transfer-hook-vault-go/internal/vault"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetBalance returns the user's ledger entry. A user without a record has a zero balance.
func (s *LedgerService) GetBalance(ctx context.Context, user address.Address) (*models.LedgerBalance, error) {
	recordAddr := vault.UserRecordAddress(user)
	balance := &models.LedgerBalance{
		User:      user.String(),
		Record:    recordAddr.String(),
		Formatted: decimal.Zero,
	}

	acc, err := s.store.GetAccount(ctx, recordAddr)
	if errors.Is(err, store.ErrAccountNotFound) {
		return balance, nil
	}
	if err != nil {
		zap.L().Error("Failed to get ledger balance", zap.String("user", user.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve balance")
	}

	record, err := s.recordBalance(ctx, user)
	if err != nil {
		return nil, err
	}
	balance.Balance = record.Balance
	balance.Lamports = acc.Lamports
	balance.Version = acc.Version
	balance.Formatted = s.format(record.Balance)
	return balance, nil
}

// ListBalances returns the ledger entry of every user that ever moved funds through the vault
func (s *LedgerService) ListBalances(ctx context.Context) ([]models.LedgerBalance, error) {
	users, err := s.journalUsers(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.LedgerBalance, 0, len(users))
	for _, user := range users {
		balance, err := s.GetBalance(ctx, user)
		if err != nil {
			return nil, err
		}
		result = append(result, *balance)
	}
	return result, nil
}

// GetTransactionHistory returns paginated subledger entries for a user
func (s *LedgerService) GetTransactionHistory(ctx context.Context, user address.Address, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	transactions, err := s.store.GetTransactionHistory(ctx, user.String(), limit, offset)
	if err != nil {
		zap.L().Error("Failed to get transaction history",
			zap.String("user", user.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve transaction history")
	}
	return transactions, nil
}

// GetTokenBalance returns the asset held in owner's associated token account
func (s *LedgerService) GetTokenBalance(ctx context.Context, owner address.Address) (decimal.Decimal, error) {
	return s.tokenAmount(ctx, s.tokenAccount(owner))
}

func (s *LedgerService) tokenAmount(ctx context.Context, addr address.Address) (decimal.Decimal, error) {
	acc, err := s.store.GetAccount(ctx, addr)
	if errors.Is(err, store.ErrAccountNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	tokenAcc, err := token.Load(acc)
	if err != nil {
		return decimal.Zero, err
	}
	return s.format(tokenAcc.Amount), nil
}

func (s *LedgerService) journalUsers(ctx context.Context) ([]address.Address, error) {
	ids, err := s.store.ListJournalUsers(ctx, s.mint.String())
	if err != nil {
		return nil, err
	}
	users := make([]address.Address, 0, len(ids))
	for _, id := range ids {
		user, err := address.Parse(id)
		if err != nil {
			zap.L().Warn("Skipping malformed journal user", zap.String("user_id", id), zap.Error(err))
			continue
		}
		users = append(users, user)
	}
	return users, nil
}
