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
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/ledger"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/vault"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerUsers lists the users the monitor reconciles
func (s *LedgerService) LedgerUsers(ctx context.Context) ([]address.Address, error) {
	return s.journalUsers(ctx)
}

// ReconcileUser compares the user's ledger entry against the net of their subledger entries.
// Both are in base units.
func (s *LedgerService) ReconcileUser(ctx context.Context, user address.Address) (*models.ReconcileResult, error) {
	record, err := s.recordBalance(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger entry for %s: %w", user.Short(), err)
	}
	journal, err := s.store.SumTransactions(ctx, user.String(), s.mint.String())
	if err != nil {
		return nil, fmt.Errorf("failed to sum subledger for %s: %w", user.Short(), err)
	}

	entry := ledger.FormatAmount(record.Balance, 0)
	result := &models.ReconcileResult{
		User:    user.String(),
		Ledger:  entry,
		Journal: journal,
		InSync:  entry.Equal(journal),
	}
	if !result.InSync {
		zap.L().Error("Ledger drift detected",
			zap.String("user", user.String()),
			zap.String("ledger", entry.String()),
			zap.String("journal", journal.String()))
	}
	return result, nil
}

// CheckHolding verifies the custodial holding account covers every ledger entry
func (s *LedgerService) CheckHolding(ctx context.Context) (*models.HoldingReport, error) {
	holding, err := s.tokenAmount(ctx, vault.HoldingAddress(s.mint))
	if err != nil {
		return nil, fmt.Errorf("failed to read holding account: %w", err)
	}

	accounts, err := s.store.ListAccountsByOwner(ctx, vault.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	liabilities := decimal.Zero
	for _, acc := range accounts {
		if !ledger.IsUserRecord(acc.Data) {
			continue
		}
		record, err := ledger.DecodeUserRecord(acc.Data)
		if err != nil {
			return nil, err
		}
		liabilities = liabilities.Add(s.format(record.Balance))
	}

	report := &models.HoldingReport{
		Holding:     holding,
		Liabilities: liabilities,
		Covered:     holding.GreaterThanOrEqual(liabilities),
	}
	if !report.Covered {
		zap.L().Error("Holding account does not cover ledger liabilities",
			zap.String("holding", holding.String()),
			zap.String("liabilities", liabilities.String()))
	}
	return report, nil
}
