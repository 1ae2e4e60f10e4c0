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

package token

import (
	"encoding/binary"
	"errors"
	"fmt"

	"transfer-hook-vault-go/internal/address"
)

// ProgramID is the token program's well-known id.
var ProgramID = address.FromName("token-2022")

var (
	ErrInvalidInstruction       = errors.New("invalid token instruction")
	ErrInvalidMint              = errors.New("invalid mint")
	ErrInvalidTokenAccount      = errors.New("invalid token account")
	ErrMintMismatch             = errors.New("account mint does not match")
	ErrDecimalsMismatch         = errors.New("decimals do not match mint")
	ErrOwnerMismatch            = errors.New("authority is neither owner nor delegate")
	ErrAuthorityMismatch        = errors.New("declared authority does not match account")
	ErrInsufficientFunds        = errors.New("insufficient token balance")
	ErrInsufficientAllowance    = errors.New("insufficient delegated allowance")
	ErrOverflow                 = errors.New("token amount overflow")
	ErrInvalidAssociatedAccount = errors.New("not the associated token account")
	ErrMissingExtraAccountMetas = errors.New("transfer hook extra account metas not initialized")
	ErrInvalidExtraAccountMeta  = errors.New("invalid extra account meta")
)

const (
	MintSize    = 32 + 8 + 1 + 1 + 32
	AccountSize = 32 + 32 + 8 + 1 + 32 + 8 + 1
)

// Mint describes the asset. When HookProgram is set every transfer invokes it.
type Mint struct {
	Authority   address.Address
	Supply      uint64
	Decimals    uint8
	HookProgram address.Address
}

func (m *Mint) HasHook() bool {
	return !m.HookProgram.IsZero()
}

func (m *Mint) Encode() []byte {
	buf := make([]byte, MintSize)
	copy(buf[0:32], m.Authority[:])
	binary.LittleEndian.PutUint64(buf[32:40], m.Supply)
	buf[40] = m.Decimals
	if m.HasHook() {
		buf[41] = 1
		copy(buf[42:74], m.HookProgram[:])
	}
	return buf
}

func DecodeMint(data []byte) (*Mint, error) {
	if len(data) != MintSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidMint, len(data))
	}
	m := &Mint{
		Authority: address.Address(data[0:32]),
		Supply:    binary.LittleEndian.Uint64(data[32:40]),
		Decimals:  data[40],
	}
	if data[41] == 1 {
		m.HookProgram = address.Address(data[42:74])
	}
	return m, nil
}

// Account is a holder's balance of one mint. Transferring is set only while a
// transfer hook runs.
type Account struct {
	Mint            address.Address
	Owner           address.Address
	Amount          uint64
	Delegate        address.Address
	DelegatedAmount uint64
	Transferring    bool
}

func (a *Account) HasDelegate() bool {
	return !a.Delegate.IsZero()
}

func (a *Account) Encode() []byte {
	buf := make([]byte, AccountSize)
	copy(buf[0:32], a.Mint[:])
	copy(buf[32:64], a.Owner[:])
	binary.LittleEndian.PutUint64(buf[64:72], a.Amount)
	if a.HasDelegate() {
		buf[72] = 1
		copy(buf[73:105], a.Delegate[:])
		binary.LittleEndian.PutUint64(buf[105:113], a.DelegatedAmount)
	}
	if a.Transferring {
		buf[113] = 1
	}
	return buf
}

func DecodeAccount(data []byte) (*Account, error) {
	if len(data) != AccountSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidTokenAccount, len(data))
	}
	a := &Account{
		Mint:         address.Address(data[0:32]),
		Owner:        address.Address(data[32:64]),
		Amount:       binary.LittleEndian.Uint64(data[64:72]),
		Transferring: data[113] == 1,
	}
	if data[72] == 1 {
		a.Delegate = address.Address(data[73:105])
		a.DelegatedAmount = binary.LittleEndian.Uint64(data[105:113])
	}
	return a, nil
}

// AssociatedAddress returns the canonical token account of owner for mint.
func AssociatedAddress(owner, mint address.Address) (address.Address, uint8) {
	return address.MustFindProgramAddress(associatedSeeds(owner, mint), ProgramID)
}

func associatedSeeds(owner, mint address.Address) [][]byte {
	return [][]byte{[]byte("ata"), owner.Bytes(), mint.Bytes()}
}
