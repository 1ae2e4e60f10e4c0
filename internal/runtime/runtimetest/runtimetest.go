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

// Package runtimetest builds a runtime over a throwaway SQLite database for tests.
package runtimetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/database"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/rent"
	"transfer-hook-vault-go/internal/runtime"
	"transfer-hook-vault-go/internal/store"
)

// Env bundles a runtime with its backing store.
type Env struct {
	Runtime *runtime.Runtime
	Store   store.LedgerStore
}

// New opens a fresh database under t.TempDir and closes it when the test ends.
func New(t testing.TB) *Env {
	t.Helper()

	svc, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "runtime.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(svc.Close)

	return &Env{
		Runtime: runtime.New(svc, rent.Default()),
		Store:   svc,
	}
}

// Funded returns a fresh principal holding lamports.
func (e *Env) Funded(t testing.TB, lamports uint64) address.Address {
	t.Helper()
	a := address.NewUnique()
	if err := e.Runtime.Airdrop(context.Background(), a, lamports); err != nil {
		t.Fatalf("airdrop: %v", err)
	}
	return a
}

// Lamports returns the committed lamports of a, zero when absent.
func (e *Env) Lamports(t testing.TB, a address.Address) uint64 {
	t.Helper()
	acc, err := e.Store.GetAccount(context.Background(), a)
	if err != nil {
		return 0
	}
	return acc.Lamports
}

// Execute submits ops signed by signers.
func (e *Env) Execute(signers []address.Address, ops ...models.Operation) (*models.Receipt, error) {
	return e.Runtime.Execute(context.Background(), models.NewBatch(signers, ops...))
}
