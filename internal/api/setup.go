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
	"transfer-hook-vault-go/internal/runtime"
	"transfer-hook-vault-go/internal/store"
	"transfer-hook-vault-go/internal/token"
	"transfer-hook-vault-go/internal/vault"
	"transfer-hook-vault-go/internal/whitelist"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Bootstrap funds the administrator, then creates the hooked mint, the vault and the
// hook's extra-account-meta list in one batch.
func Bootstrap(ctx context.Context, rt *runtime.Runtime, deployment *models.Deployment, adminLamports uint64) (*models.Receipt, error) {
	mode, err := whitelist.ParseMode(deployment.Mode)
	if err != nil {
		return nil, err
	}
	if adminLamports > 0 {
		if err := rt.Airdrop(ctx, deployment.Admin, adminLamports); err != nil {
			return nil, fmt.Errorf("failed to fund admin: %w", err)
		}
	}

	receipt, err := rt.Execute(ctx, models.NewBatch(
		[]address.Address{deployment.Admin, deployment.Mint},
		token.NewInitializeMint(deployment.Admin, deployment.Mint, deployment.Admin, deployment.Decimals, vault.ProgramID),
		vault.NewInitializeVault(deployment.Admin, deployment.Mint, mode),
		vault.NewInitializeExtraAccountMetaList(deployment.Admin, deployment.Mint),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to bootstrap vault: %w", err)
	}

	vaultAddr, _ := vault.VaultAddress()
	zap.L().Info("Vault bootstrapped",
		zap.String("batch_id", receipt.BatchId),
		zap.String("vault", vaultAddr.String()),
		zap.String("mint", deployment.Mint.String()),
		zap.String("mode", mode.String()))
	return receipt, nil
}

// ProvisionUser funds user with lamports, opens its token account, mints tokens into it
// and optionally whitelists it.
func (s *LedgerService) ProvisionUser(ctx context.Context, user address.Address, lamports uint64, tokens decimal.Decimal, authorize bool) (*models.OperationResult, error) {
	if lamports > 0 {
		if err := s.runtime.Airdrop(ctx, user, lamports); err != nil {
			return nil, fmt.Errorf("failed to fund user: %w", err)
		}
	}

	var ops []models.Operation
	ata := s.tokenAccount(user)
	if _, err := s.store.GetAccount(ctx, ata); errors.Is(err, store.ErrAccountNotFound) {
		ops = append(ops, token.NewInitializeAccount(s.admin, user, s.mint))
	} else if err != nil {
		return nil, err
	}

	if tokens.IsPositive() {
		units, err := s.baseUnits(tokens)
		if err != nil {
			return nil, err
		}
		ops = append(ops, token.NewMintTo(s.mint, ata, s.admin, units))
	}
	if authorize {
		ops = append(ops, vault.NewAddToWhitelist(s.admin, user))
	}
	if len(ops) == 0 {
		return &models.OperationResult{Success: true, User: user.String()}, nil
	}

	result := s.submit(ctx, []address.Address{s.admin}, ops...)
	result.User = user.String()
	result.Amount = tokens
	if !result.Success {
		logFailure("User provisioning rejected", result, zap.String("user", user.String()))
		return result, nil
	}

	zap.L().Info("User provisioned",
		zap.String("user", user.String()),
		zap.String("token_account", ata.String()),
		zap.String("minted", tokens.String()),
		zap.Bool("whitelisted", authorize))
	return result, nil
}
