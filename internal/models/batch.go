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
	"transfer-hook-vault-go/internal/address"
)

// Operation is one entry in an atomic batch: a call into ProgramID with positional accounts.
type Operation struct {
	ProgramID address.Address
	Accounts  []address.Address
	Data      []byte
}

// Account returns the positional account at i, or false when absent
func (o Operation) Account(i int) (address.Address, bool) {
	if i < 0 || i >= len(o.Accounts) {
		return address.Zero, false
	}
	return o.Accounts[i], true
}

// Batch is an ordered list of operations that commit together or not at all.
type Batch struct {
	Operations []Operation
	Signers    []address.Address
}

// NewBatch builds a batch signed by the given principals
func NewBatch(signers []address.Address, ops ...Operation) *Batch {
	return &Batch{
		Operations: ops,
		Signers:    signers,
	}
}

// Receipt describes a committed batch
type Receipt struct {
	BatchId    string
	Operations int
}
