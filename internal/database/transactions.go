package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordTransaction appends an audit entry inside the caller's transaction
func (s *SubledgerService) RecordTransaction(ctx context.Context, tx *sql.Tx, params store.RecordTransactionParams) (*models.Transaction, error) {

	zap.L().Info("Recording transaction",
		zap.String("user_id", params.UserId),
		zap.String("asset", params.Asset),
		zap.String("type", params.TransactionType),
		zap.String("amount", params.Amount.String()),
		zap.String("external_tx_id", params.ExternalTxId))

	// Check for duplicate external transaction Id
	var externalId any
	if params.ExternalTxId != "" {
		externalId = params.ExternalTxId

		var existingTxId string
		err := tx.QueryRowContext(ctx, queryCheckDuplicateTransaction, params.ExternalTxId).Scan(&existingTxId)
		if err == nil {
			zap.L().Warn("Duplicate external transaction Id detected, skipping",
				zap.String("external_tx_id", params.ExternalTxId),
				zap.String("existing_internal_tx_id", existingTxId))
			return nil, fmt.Errorf("%w: external_transaction_id %s already exists", store.ErrDuplicateTransaction, params.ExternalTxId)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check for duplicate transaction: %w", err)
		}
	}

	transactionId := uuid.New().String()
	now := time.Now()
	transaction := &models.Transaction{}

	var amountStr, balanceBeforeStr, balanceAfterStr string
	var externalStr sql.NullString
	err := tx.QueryRowContext(ctx, queryInsertTransaction,
		transactionId, params.UserId, params.Asset, params.TransactionType,
		params.Amount.String(), params.BalanceBefore.String(), params.BalanceAfter.String(),
		externalId, params.Reference, "confirmed", now, now).
		Scan(&transaction.Id, &transaction.UserId, &transaction.Asset, &transaction.TransactionType,
			&amountStr, &balanceBeforeStr, &balanceAfterStr,
			&externalStr, &transaction.Reference,
			&transaction.Status, &transaction.CreatedAt, &transaction.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	transaction.ExternalTransactionId = externalStr.String

	if err := parseAmounts(transaction, amountStr, balanceBeforeStr, balanceAfterStr); err != nil {
		return nil, err
	}

	if err := s.addJournalEntries(ctx, tx, transaction); err != nil {
		return nil, fmt.Errorf("failed to add journal entries: %w", err)
	}

	zap.L().Info("Transaction recorded successfully",
		zap.String("transaction_id", transactionId),
		zap.String("user_id", params.UserId),
		zap.String("old_balance", params.BalanceBefore.String()),
		zap.String("new_balance", params.BalanceAfter.String()))

	return transaction, nil
}

func parseAmounts(transaction *models.Transaction, amountStr, balanceBeforeStr, balanceAfterStr string) error {
	var err error
	transaction.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	transaction.BalanceBefore, err = decimal.NewFromString(balanceBeforeStr)
	if err != nil {
		return fmt.Errorf("failed to parse balance before '%s': %w", balanceBeforeStr, err)
	}
	transaction.BalanceAfter, err = decimal.NewFromString(balanceAfterStr)
	if err != nil {
		return fmt.Errorf("failed to parse balance after '%s': %w", balanceAfterStr, err)
	}
	return nil
}

type journalEntry struct {
	accountType  string
	accountId    string
	debitAmount  decimal.Decimal
	creditAmount decimal.Decimal
}

// addJournalEntries creates double-entry bookkeeping entries
func (s *SubledgerService) addJournalEntries(ctx context.Context, tx *sql.Tx, transaction *models.Transaction) error {
	// For a deposit: Debit user asset account, Credit system liability account
	// For a withdrawal: Credit user asset account, Debit system liability account
	userAccount := fmt.Sprintf("%s_%s", transaction.UserId, transaction.Asset)
	liabilityAccount := fmt.Sprintf("user_deposits_%s", transaction.Asset)

	var entries []journalEntry
	switch transaction.TransactionType {
	case models.TransactionTypeDeposit:
		entries = []journalEntry{
			{"user_asset", userAccount, transaction.Amount, decimal.Zero},
			{"system_liability", liabilityAccount, decimal.Zero, transaction.Amount},
		}
	case models.TransactionTypeWithdrawal:
		entries = []journalEntry{
			{"user_asset", userAccount, decimal.Zero, transaction.Amount.Neg()},
			{"system_liability", liabilityAccount, transaction.Amount.Neg(), decimal.Zero},
		}
	}

	for _, entry := range entries {
		entryId := uuid.New().String()
		_, err := tx.ExecContext(ctx, queryInsertJournalEntry,
			entryId, transaction.Id, entry.accountType, entry.accountId, entry.debitAmount.String(), entry.creditAmount.String())
		if err != nil {
			return err
		}
	}

	return nil
}

// GetTransactionHistory returns paginated transaction history for a user
func (s *SubledgerService) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var amountStr, balanceBeforeStr, balanceAfterStr string
		var externalStr sql.NullString
		err := rows.Scan(&tx.Id, &tx.UserId, &tx.Asset, &tx.TransactionType,
			&amountStr, &balanceBeforeStr, &balanceAfterStr,
			&externalStr, &tx.Reference,
			&tx.Status, &tx.CreatedAt, &tx.ProcessedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.ExternalTransactionId = externalStr.String

		if err := parseAmounts(&tx, amountStr, balanceBeforeStr, balanceAfterStr); err != nil {
			return nil, err
		}

		transactions = append(transactions, tx)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// SumTransactions returns the net of all confirmed entries for a user and asset.
// Summed in Go because amounts are stored as decimal strings.
func (s *SubledgerService) SumTransactions(ctx context.Context, userId, asset string) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTransactionAmounts, userId, asset)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query transaction amounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating amount rows: %w", err)
	}

	return total, nil
}

// ListJournalUsers returns every user with at least one subledger entry for asset
func (s *SubledgerService) ListJournalUsers(ctx context.Context, asset string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, queryListJournalUsers, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal users: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var users []string
	for rows.Next() {
		var userId string
		if err := rows.Scan(&userId); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, userId)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// GetMostRecentTransactionTime returns the most recent transaction timestamp, or zero time if none
func (s *SubledgerService) GetMostRecentTransactionTime(ctx context.Context) (time.Time, error) {
	var timestampStr sql.NullString
	err := s.db.QueryRowContext(ctx, queryGetMostRecentTransactionTime).Scan(&timestampStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get most recent transaction time: %w", err)
	}

	if !timestampStr.Valid || timestampStr.String == "" {
		return time.Time{}, nil
	}

	// SQLite stores it with space instead of T
	layouts := []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		time.RFC3339Nano,
		time.RFC3339,
	}
	for _, layout := range layouts {
		if parsedTime, err := time.Parse(layout, timestampStr.String); err == nil {
			return parsedTime, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp %q", timestampStr.String)
}
