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

// Account is the raw state held at an address. Only Owner may mutate Data or debit Lamports.
type Account struct {
	Address  address.Address
	Owner    address.Address
	Lamports uint64
	Data     []byte
	Version  int64
}

// Clone returns a deep copy so callers can mutate without aliasing stored state
func (a *Account) Clone() *Account {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// Size returns the allocated data length in bytes
func (a *Account) Size() int {
	return len(a.Data)
}
