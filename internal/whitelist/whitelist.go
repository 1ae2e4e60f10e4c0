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
	"errors"
	"fmt"
	"strings"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/rent"
)

var (
	ErrInsufficientFunding = errors.New("insufficient funding for whitelist storage")
	ErrCorruptRegistry     = errors.New("corrupt whitelist registry")
	ErrOutstandingBalance  = errors.New("principal has an outstanding ledger balance")
	ErrInvalidMode         = errors.New("invalid whitelist mode")
)

// Mode selects the whitelist representation of a deployment.
type Mode uint8

const (
	// ModeRecord: a per-principal record whose existence is membership.
	ModeRecord Mode = iota
	// ModeList: one registry account holding every authorized principal.
	ModeList
)

func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeList:
		return "list"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "record", "":
		return ModeRecord, nil
	case "list":
		return ModeList, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	if m > ModeList {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Env is the part of the execution context a registry needs to read and
// reshape its accounts.
type Env interface {
	ProgramID() address.Address
	Rent() rent.Schedule
	Account(a address.Address) (*models.Account, error)
	Exists(a address.Address) (bool, error)
	CreateAccount(payer, addr address.Address, space int, owner address.Address, seeds ...[]byte) error
	WriteData(a address.Address, data []byte) error
	Resize(a address.Address, size int) error
	TransferLamports(from, to address.Address, amount uint64) error
	Close(a, dest address.Address) error
}

// Registry is an authorization set administered by a single authority.
type Registry interface {
	IsAuthorized(principal address.Address) (bool, error)
	// Authorize adds principal; adding a present principal is a no-op.
	Authorize(principal address.Address) error
	// Revoke removes principal; removing an absent principal is a no-op.
	Revoke(principal address.Address) error
	// ContextAddress is the account that carries principal's authorization.
	ContextAddress(principal address.Address) address.Address
}

// New returns the registry of mode. admin funds growth and receives refunds.
func New(mode Mode, env Env, admin address.Address) (Registry, error) {
	switch mode {
	case ModeRecord:
		return NewRecordRegistry(env, admin), nil
	case ModeList:
		return NewListRegistry(env, admin), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, uint8(mode))
	}
}

// RecordSeeds derive the per-principal record, which is also the principal's ledger entry.
func RecordSeeds(principal address.Address) [][]byte {
	return [][]byte{[]byte("user"), principal.Bytes()}
}

func RecordAddress(programID, principal address.Address) (address.Address, uint8) {
	return address.MustFindProgramAddress(RecordSeeds(principal), programID)
}

func RegistrySeeds() [][]byte {
	return [][]byte{[]byte("whitelist")}
}

func RegistryAddress(programID address.Address) (address.Address, uint8) {
	return address.MustFindProgramAddress(RegistrySeeds(), programID)
}

// requireFunds is the first phase of every paid change: verify payer can cover amount.
func requireFunds(env Env, payer address.Address, amount uint64) error {
	acc, err := env.Account(payer)
	if err != nil {
		return fmt.Errorf("%w: payer %s: %v", ErrInsufficientFunding, payer.Short(), err)
	}
	if acc.Lamports < amount {
		return fmt.Errorf("%w: payer %s holds %d, needs %d", ErrInsufficientFunding, payer.Short(), acc.Lamports, amount)
	}
	return nil
}
