package store

import (
	"context"
	"errors"
	"time"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrBatchClosed            = errors.New("batch already committed or rolled back")
)

// RecordTransactionParams contains the parameters for an audit subledger entry.
type RecordTransactionParams struct {
	UserId          string
	Asset           string
	TransactionType string
	Amount          decimal.Decimal // signed: deposits positive, withdrawals negative
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	ExternalTxId    string
	Reference       string
}

// Accounts is raw account state access.
type Accounts interface {
	GetAccount(ctx context.Context, addr address.Address) (*models.Account, error)
	PutAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, addr address.Address) error
}

// Journal is the append-only audit subledger.
type Journal interface {
	RecordTransaction(ctx context.Context, params RecordTransactionParams) (*models.Transaction, error)
}

// Batch is a unit of atomic work: every write is discarded unless Commit succeeds.
type Batch interface {
	Accounts
	Journal
	Commit() error
	Rollback() error
}

// LedgerStore defines the contract that every backend must satisfy.
type LedgerStore interface {
	// --- Batches ---
	Begin(ctx context.Context) (Batch, error)

	// --- Accounts (read-only outside a batch) ---
	GetAccount(ctx context.Context, addr address.Address) (*models.Account, error)
	ListAccountsByOwner(ctx context.Context, owner address.Address) ([]models.Account, error)

	// --- Subledger ---
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
	SumTransactions(ctx context.Context, userId, asset string) (decimal.Decimal, error)
	ListJournalUsers(ctx context.Context, asset string) ([]string, error)
	GetMostRecentTransactionTime(ctx context.Context) (time.Time, error)

	// --- Lifecycle ---
	Close()
}
