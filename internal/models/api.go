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


package models

import (
	"github.com/shopspring/decimal"
)

// OperationResult represents the result of submitting a vault operation
type OperationResult struct {
	Success    bool            `json:"success"`
	BatchId    string          `json:"batch_id,omitempty"`
	User       string          `json:"user,omitempty"`
	Amount     decimal.Decimal `json:"amount,omitempty"`
	NewBalance decimal.Decimal `json:"new_balance,omitempty"`
	Error      string          `json:"error,omitempty"`
	ErrorCode  uint32          `json:"error_code,omitempty"`
}

// ReconcileResult compares a user's ledger entry with the audit subledger
type ReconcileResult struct {
	User    string          `json:"user"`
	Ledger  decimal.Decimal `json:"ledger"`
	Journal decimal.Decimal `json:"journal"`
	InSync  bool            `json:"in_sync"`
}

// HoldingReport compares the custodial holding balance with the sum of ledger entries
type HoldingReport struct {
	Holding     decimal.Decimal `json:"holding"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Covered     bool            `json:"covered"`
}
