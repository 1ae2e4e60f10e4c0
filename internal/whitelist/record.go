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

package whitelist

import (
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/ledger"

	"go.uber.org/zap"
)

// RecordRegistry keeps one UserRecord per authorized principal.
type RecordRegistry struct {
	env   Env
	admin address.Address
}

func NewRecordRegistry(env Env, admin address.Address) *RecordRegistry {
	return &RecordRegistry{env: env, admin: admin}
}

func (r *RecordRegistry) ContextAddress(principal address.Address) address.Address {
	addr, _ := RecordAddress(r.env.ProgramID(), principal)
	return addr
}

func (r *RecordRegistry) IsAuthorized(principal address.Address) (bool, error) {
	_, ok, err := r.load(principal)
	return ok, err
}

func (r *RecordRegistry) Authorize(principal address.Address) error {
	if _, ok, err := r.load(principal); err != nil || ok {
		return err
	}

	addr, bump := RecordAddress(r.env.ProgramID(), principal)
	if err := requireFunds(r.env, r.admin, r.env.Rent().MinimumBalance(ledger.UserRecordSize)); err != nil {
		return err
	}

	seeds := append(RecordSeeds(principal), []byte{bump})
	if err := r.env.CreateAccount(r.admin, addr, ledger.UserRecordSize, r.env.ProgramID(), seeds...); err != nil {
		return err
	}

	record := ledger.UserRecord{Bump: bump}
	if err := r.env.WriteData(addr, record.Encode()); err != nil {
		return err
	}

	zap.L().Debug("Whitelist record created",
		zap.String("principal", principal.String()),
		zap.String("record", addr.Short()))
	return nil
}

// Revoke closes the record and refunds its lamports to the administrator.
// A record still holding a ledger balance is not closed.
func (r *RecordRegistry) Revoke(principal address.Address) error {
	record, ok, err := r.load(principal)
	if err != nil || !ok {
		return err
	}
	if record.Balance != 0 {
		return fmt.Errorf("%w: %s holds %d", ErrOutstandingBalance, principal.Short(), record.Balance)
	}

	addr := r.ContextAddress(principal)
	if err := r.env.Close(addr, r.admin); err != nil {
		return err
	}

	zap.L().Debug("Whitelist record closed",
		zap.String("principal", principal.String()),
		zap.String("record", addr.Short()))
	return nil
}

func (r *RecordRegistry) load(principal address.Address) (*ledger.UserRecord, bool, error) {
	addr := r.ContextAddress(principal)
	exists, err := r.env.Exists(addr)
	if err != nil || !exists {
		return nil, false, err
	}

	acc, err := r.env.Account(addr)
	if err != nil {
		return nil, false, err
	}
	// a bare lamport account at the address is not a record
	if acc.Owner != r.env.ProgramID() || !ledger.IsUserRecord(acc.Data) {
		return nil, false, nil
	}
	record, err := ledger.DecodeUserRecord(acc.Data)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}
