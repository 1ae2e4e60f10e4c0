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

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var addrStr, ownerStr, lamportsStr string
	if err := row.Scan(&addrStr, &ownerStr, &lamportsStr, &account.Data, &account.Version); err != nil {
		return nil, err
	}

	var err error
	if account.Address, err = address.Parse(addrStr); err != nil {
		return nil, fmt.Errorf("failed to parse account address: %w", err)
	}
	if account.Owner, err = address.Parse(ownerStr); err != nil {
		return nil, fmt.Errorf("failed to parse account owner: %w", err)
	}
	if account.Lamports, err = strconv.ParseUint(lamportsStr, 10, 64); err != nil {
		return nil, fmt.Errorf("failed to parse lamports '%s': %w", lamportsStr, err)
	}
	return &account, nil
}

func getAccount(ctx context.Context, q queryer, addr address.Address) (*models.Account, error) {
	account, err := scanAccount(q.QueryRowContext(ctx, queryGetAccount, addr.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, addr)
	}
	if err != nil {
		zap.L().Error("Failed to query account", zap.String("address", addr.String()), zap.Error(err))
		return nil, fmt.Errorf("unable to query account: %w", err)
	}
	return account, nil
}

func listAccountsByOwner(ctx context.Context, q queryer, owner address.Address) ([]models.Account, error) {
	zap.L().Debug("Querying accounts by owner", zap.String("owner", owner.String()))

	rows, err := q.QueryContext(ctx, queryListAccountsByOwner, owner.String())
	if err != nil {
		zap.L().Error("Failed to query accounts", zap.String("owner", owner.String()), zap.Error(err))
		return nil, fmt.Errorf("unable to query accounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			zap.L().Error("Failed to scan account row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during account row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	zap.L().Debug("Retrieved accounts", zap.String("owner", owner.String()), zap.Int("count", len(accounts)))
	return accounts, nil
}
