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

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/store"
	"transfer-hook-vault-go/internal/vault"
	"transfer-hook-vault-go/internal/whitelist"

	"go.uber.org/zap"
)

// AddToWhitelist authorizes principal. Adding an authorized principal succeeds without effect.
func (s *LedgerService) AddToWhitelist(ctx context.Context, principal address.Address) (*models.OperationResult, error) {
	return s.updateWhitelist(ctx, principal, true)
}

// RemoveFromWhitelist revokes principal. Removing an absent principal succeeds without effect.
func (s *LedgerService) RemoveFromWhitelist(ctx context.Context, principal address.Address) (*models.OperationResult, error) {
	return s.updateWhitelist(ctx, principal, false)
}

func (s *LedgerService) updateWhitelist(ctx context.Context, principal address.Address, add bool) (*models.OperationResult, error) {
	op := vault.NewRemoveFromWhitelist(s.admin, principal)
	action := "remove"
	if add {
		op = vault.NewAddToWhitelist(s.admin, principal)
		action = "add"
	}

	result := s.submit(ctx, []address.Address{s.admin}, op)
	result.User = principal.String()
	if !result.Success {
		logFailure("Whitelist update rejected", result,
			zap.String("action", action),
			zap.String("principal", principal.String()))
		return result, nil
	}

	zap.L().Info("Whitelist updated",
		zap.String("batch_id", result.BatchId),
		zap.String("action", action),
		zap.String("principal", principal.String()))
	return result, nil
}

// IsWhitelisted reads committed state to report whether principal is authorized
func (s *LedgerService) IsWhitelisted(ctx context.Context, principal address.Address) (bool, error) {
	if s.mode == whitelist.ModeRecord {
		acc, err := s.store.GetAccount(ctx, vault.UserRecordAddress(principal))
		if errors.Is(err, store.ErrAccountNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return acc.Owner == vault.ProgramID, nil
	}

	entries, err := s.ListWhitelist(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e == principal {
			return true, nil
		}
	}
	return false, nil
}

// ListWhitelist returns the registry entries of a list-mode deployment
func (s *LedgerService) ListWhitelist(ctx context.Context) ([]address.Address, error) {
	if s.mode != whitelist.ModeList {
		return nil, whitelist.ErrInvalidMode
	}
	acc, err := s.store.GetAccount(ctx, vault.RegistryAddress())
	if err != nil {
		return nil, err
	}
	return whitelist.DecodeRegistry(acc.Data)
}

// RegistrySize returns the byte length and lamports of the list-mode registry
func (s *LedgerService) RegistrySize(ctx context.Context) (int, uint64, error) {
	acc, err := s.store.GetAccount(ctx, vault.RegistryAddress())
	if err != nil {
		return 0, 0, err
	}
	return len(acc.Data), acc.Lamports, nil
}
