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

package vault

import (
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/token"
	"transfer-hook-vault-go/internal/whitelist"
)

// ProgramID is the vault program, which is also the mint's transfer hook.
var ProgramID = address.FromName("transfer-hook-vault")

var VaultDiscriminator = address.Discriminator("account", "Vault")

// Vault layout: discriminator | admin | mint | holding | mode | bump
const VaultSize = 8 + 32 + 32 + 32 + 1 + 1

// Vault is the singleton pool descriptor.
type Vault struct {
	Admin   address.Address
	Mint    address.Address
	Holding address.Address
	Mode    whitelist.Mode
	Bump    uint8
}

func (v *Vault) Encode() []byte {
	buf := make([]byte, VaultSize)
	copy(buf[0:8], VaultDiscriminator[:])
	copy(buf[8:40], v.Admin[:])
	copy(buf[40:72], v.Mint[:])
	copy(buf[72:104], v.Holding[:])
	buf[104] = uint8(v.Mode)
	buf[105] = v.Bump
	return buf
}

func DecodeVault(data []byte) (*Vault, error) {
	if len(data) != VaultSize || [8]byte(data[:8]) != VaultDiscriminator {
		return nil, fmt.Errorf("%w: vault state", ErrInvalidAccountData)
	}
	return &Vault{
		Admin:   address.Address(data[8:40]),
		Mint:    address.Address(data[40:72]),
		Holding: address.Address(data[72:104]),
		Mode:    whitelist.Mode(data[104]),
		Bump:    data[105],
	}, nil
}

// SignerSeeds lets the vault sign as its own address. The runtime re-derives the
// address from these seeds before honouring the signature.
func (v *Vault) SignerSeeds() [][]byte {
	return append(VaultSeeds(), []byte{v.Bump})
}

func VaultSeeds() [][]byte {
	return [][]byte{[]byte("vault")}
}

func VaultAddress() (address.Address, uint8) {
	return address.MustFindProgramAddress(VaultSeeds(), ProgramID)
}

// HoldingAddress is the vault's associated token account for mint.
func HoldingAddress(mint address.Address) address.Address {
	vaultAddr, _ := VaultAddress()
	holding, _ := token.AssociatedAddress(vaultAddr, mint)
	return holding
}

// UserRecordAddress is principal's ledger entry, and its whitelist record in record mode.
func UserRecordAddress(principal address.Address) address.Address {
	addr, _ := whitelist.RecordAddress(ProgramID, principal)
	return addr
}

func RegistryAddress() address.Address {
	addr, _ := whitelist.RegistryAddress(ProgramID)
	return addr
}

func ExtraAccountMetasAddress(mint address.Address) address.Address {
	addr, _ := token.ExtraAccountMetasAddress(mint, ProgramID)
	return addr
}

// ExtraAccountMetas lists what the token program must resolve for each hooked transfer:
// the vault, then the authority's authorization context.
func ExtraAccountMetas(vaultAddr address.Address, mode whitelist.Mode) []token.ExtraAccountMeta {
	metas := []token.ExtraAccountMeta{token.FixedMeta(vaultAddr)}
	switch mode {
	case whitelist.ModeList:
		metas = append(metas, token.FixedMeta(RegistryAddress()))
	default:
		metas = append(metas, token.SeedMeta(
			token.LiteralSeed([]byte("user")),
			token.AccountKeySeed(token.HookAuthorityIndex),
		))
	}
	return metas
}
