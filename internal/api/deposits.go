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

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/token"
	"transfer-hook-vault-go/internal/vault"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Deposit submits [transfer(user -> holding), deposit] signed by user
func (s *LedgerService) Deposit(ctx context.Context, user address.Address, amount decimal.Decimal) (*models.OperationResult, error) {
	units, err := s.baseUnits(amount)
	if err != nil || user.IsZero() {
		zap.L().Error("Invalid deposit parameters",
			zap.String("user", user.String()),
			zap.String("amount", amount.String()))
		return &models.OperationResult{
			Success: false,
			Error:   "invalid deposit parameters",
		}, nil
	}

	zap.L().Info("Processing deposit",
		zap.String("user", user.String()),
		zap.String("amount", amount.String()))

	holding := vault.HoldingAddress(s.mint)
	result := s.submit(ctx, []address.Address{user},
		token.NewTransferChecked(s.tokenAccount(user), s.mint, holding, user, units, s.decimals),
		vault.NewDeposit(user, s.mint),
	)
	result.User = user.String()
	result.Amount = s.format(units)
	if !result.Success {
		logFailure("Deposit rejected", result, zap.String("user", user.String()))
		return result, nil
	}

	record, err := s.recordBalance(ctx, user)
	if err != nil {
		zap.L().Error("Balance lookup failed after deposit",
			zap.String("user", user.String()),
			zap.Error(err))
		return nil, err
	}
	result.NewBalance = s.format(record.Balance)

	zap.L().Info("Deposit processed successfully",
		zap.String("batch_id", result.BatchId),
		zap.String("user", user.String()),
		zap.String("amount", result.Amount.String()),
		zap.String("new_balance", result.NewBalance.String()))

	return result, nil
}
