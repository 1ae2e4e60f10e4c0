package database

import (
	"context"
	"errors"
	"testing"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/store"
)

func TestPutAndGetAccount(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	owner := address.FromName("owner-program")
	account := &models.Account{
		Address:  address.NewUnique(),
		Owner:    owner,
		Lamports: 18_000_000_000_000_000_000, // above int64 max
		Data:     []byte{1, 2, 3},
	}

	batch, err := service.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := batch.PutAccount(ctx, account); err != nil {
		t.Fatalf("PutAccount failed: %v", err)
	}
	if account.Version != 1 {
		t.Errorf("Expected version 1 after insert, got %d", account.Version)
	}

	account.Data = append(account.Data, 4)
	if err := batch.PutAccount(ctx, account); err != nil {
		t.Fatalf("PutAccount update failed: %v", err)
	}
	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	stored, err := service.GetAccount(ctx, account.Address)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if stored.Lamports != account.Lamports {
		t.Errorf("Expected lamports %d, got %d", account.Lamports, stored.Lamports)
	}
	if len(stored.Data) != 4 || stored.Data[3] != 4 {
		t.Errorf("Unexpected data %v", stored.Data)
	}
	if stored.Version != 2 {
		t.Errorf("Expected version 2, got %d", stored.Version)
	}

	owned, err := service.ListAccountsByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListAccountsByOwner failed: %v", err)
	}
	if len(owned) != 1 {
		t.Errorf("Expected 1 owned account, got %d", len(owned))
	}
}

func TestStaleVersionRejected(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	batch, err := service.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer batch.Rollback()

	account := &models.Account{Address: address.NewUnique(), Owner: address.FromName("p"), Data: []byte{}}
	if err := batch.PutAccount(ctx, account); err != nil {
		t.Fatalf("PutAccount failed: %v", err)
	}

	stale := account.Clone()
	if err := batch.PutAccount(ctx, account); err != nil {
		t.Fatalf("PutAccount failed: %v", err)
	}
	err = batch.PutAccount(ctx, stale)
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("Expected concurrent modification, got %v", err)
	}
}

func TestRollbackDiscardsAccounts(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	batch, err := service.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	addr := address.NewUnique()
	if err := batch.PutAccount(ctx, &models.Account{Address: addr, Owner: address.FromName("p")}); err != nil {
		t.Fatalf("PutAccount failed: %v", err)
	}
	if err := batch.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	_, err = service.GetAccount(ctx, addr)
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected account not found after rollback, got %v", err)
	}

	if err := batch.Commit(); !errors.Is(err, store.ErrBatchClosed) {
		t.Errorf("Expected batch closed, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	batch, err := service.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer batch.Rollback()

	addr := address.NewUnique()
	if err := batch.PutAccount(ctx, &models.Account{Address: addr, Owner: address.FromName("p")}); err != nil {
		t.Fatalf("PutAccount failed: %v", err)
	}
	if err := batch.DeleteAccount(ctx, addr); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if err := batch.DeleteAccount(ctx, addr); !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected account not found on second delete, got %v", err)
	}
}
