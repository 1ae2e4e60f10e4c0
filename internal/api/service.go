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
	"transfer-hook-vault-go/internal/ledger"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/runtime"
	"transfer-hook-vault-go/internal/store"
	"transfer-hook-vault-go/internal/token"
	"transfer-hook-vault-go/internal/vault"
	"transfer-hook-vault-go/internal/whitelist"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService builds vault batches for one deployment and submits them to the runtime
type LedgerService struct {
	runtime  *runtime.Runtime
	store    store.LedgerStore
	mint     address.Address
	admin    address.Address
	decimals uint8
	mode     whitelist.Mode
}

func NewLedgerService(rt *runtime.Runtime, st store.LedgerStore, deployment *models.Deployment) (*LedgerService, error) {
	mode, err := whitelist.ParseMode(deployment.Mode)
	if err != nil {
		return nil, err
	}
	if deployment.Mint.IsZero() || deployment.Admin.IsZero() {
		return nil, fmt.Errorf("deployment requires mint and admin addresses")
	}
	return &LedgerService{
		runtime:  rt,
		store:    st,
		mint:     deployment.Mint,
		admin:    deployment.Admin,
		decimals: deployment.Decimals,
		mode:     mode,
	}, nil
}

func (s *LedgerService) Mint() address.Address {
	return s.mint
}

func (s *LedgerService) Mode() whitelist.Mode {
	return s.mode
}

// HealthCheck verifies the vault state is readable and belongs to this deployment
func (s *LedgerService) HealthCheck(ctx context.Context) error {
	vaultAddr, _ := vault.VaultAddress()
	acc, err := s.store.GetAccount(ctx, vaultAddr)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	v, err := vault.DecodeVault(acc.Data)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if v.Mint != s.mint || v.Admin != s.admin || v.Mode != s.mode {
		return fmt.Errorf("vault health check failed: on-chain vault does not match deployment")
	}
	return nil
}

func (s *LedgerService) tokenAccount(owner address.Address) address.Address {
	ata, _ := token.AssociatedAddress(owner, s.mint)
	return ata
}

func (s *LedgerService) baseUnits(amount decimal.Decimal) (uint64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("amount must be positive: %s", amount.String())
	}
	return ledger.ParseAmount(amount.String(), s.decimals)
}

func (s *LedgerService) format(amount uint64) decimal.Decimal {
	return ledger.FormatAmount(amount, s.decimals)
}

// submit executes one batch and converts a failure into a result carrying its error code
func (s *LedgerService) submit(ctx context.Context, signers []address.Address, ops ...models.Operation) *models.OperationResult {
	receipt, err := s.runtime.Execute(ctx, models.NewBatch(signers, ops...))
	if err != nil {
		result := &models.OperationResult{
			Success: false,
			Error:   err.Error(),
		}
		if code, ok := vault.CodeOf(err); ok {
			result.ErrorCode = uint32(code)
		}
		return result
	}
	return &models.OperationResult{
		Success: true,
		BatchId: receipt.BatchId,
	}
}

// logFailure logs a rejected batch at a level matching its error category
func logFailure(msg string, result *models.OperationResult, fields ...zap.Field) {
	fields = append(fields, zap.String("error", result.Error))
	if result.ErrorCode == 0 {
		zap.L().Error(msg, fields...)
		return
	}
	code := vault.Code(result.ErrorCode)
	fields = append(fields,
		zap.Uint32("error_code", result.ErrorCode),
		zap.String("error_name", code.String()),
		zap.String("category", code.Category().String()))
	zap.L().Warn(msg, fields...)
}

func (s *LedgerService) recordBalance(ctx context.Context, user address.Address) (*ledger.UserRecord, error) {
	acc, err := s.store.GetAccount(ctx, vault.UserRecordAddress(user))
	if errors.Is(err, store.ErrAccountNotFound) {
		return &ledger.UserRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if acc.Owner != vault.ProgramID || !ledger.IsUserRecord(acc.Data) {
		return &ledger.UserRecord{}, nil
	}
	return ledger.DecodeUserRecord(acc.Data)
}
