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

const (
	// Account queries
	queryGetAccount = `
		SELECT address, owner, lamports, data, version
		FROM accounts
		WHERE address = ?`

	queryListAccountsByOwner = `
		SELECT address, owner, lamports, data, version
		FROM accounts
		WHERE owner = ?
		ORDER BY address`

	queryInsertAccount = `
		INSERT INTO accounts (address, owner, lamports, data, version)
		VALUES (?, ?, ?, ?, 1)`

	queryUpdateAccount = `
		UPDATE accounts
		SET owner = ?, lamports = ?, data = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE address = ? AND version = ?`

	queryDeleteAccount = `
		DELETE FROM accounts WHERE address = ?`

	// Transaction queries
	queryCheckDuplicateTransaction = `
		SELECT id FROM transactions WHERE external_transaction_id = ? LIMIT 1`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, user_id, asset, transaction_type, amount, balance_before, balance_after,
			external_transaction_id, reference, status, created_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, asset, transaction_type, amount, balance_before, balance_after,
		          external_transaction_id, reference, status, created_at, processed_at`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transaction_id, account_type, account_id, debit_amount, credit_amount)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, user_id, asset, transaction_type, amount, balance_before, balance_after,
		       external_transaction_id, reference, status, created_at, processed_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`

	queryGetTransactionAmounts = `
		SELECT amount
		FROM transactions
		WHERE user_id = ? AND asset = ? AND status = 'confirmed'`

	queryListJournalUsers = `
		SELECT DISTINCT user_id
		FROM transactions
		WHERE asset = ?
		ORDER BY user_id`

	queryGetMostRecentTransactionTime = `
		SELECT MAX(created_at)
		FROM transactions
		WHERE external_transaction_id IS NOT NULL AND external_transaction_id != ''`
)
