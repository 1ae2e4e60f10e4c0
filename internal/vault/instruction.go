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
	"encoding/binary"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/whitelist"
)

// Instruction tags, as the first byte of data.
const (
	TagInitializeVault uint8 = iota
	TagInitializeExtraAccountMetaList
	TagAddToWhitelist
	TagRemoveFromWhitelist
	TagDeposit
	TagWithdraw
)

// NewInitializeVault creates the vault, its holding account and, in list mode, the empty registry.
// Accounts: admin (signer), vault, mint, holding, registry.
func NewInitializeVault(admin, mint address.Address, mode whitelist.Mode) models.Operation {
	vaultAddr, _ := VaultAddress()
	return models.Operation{
		ProgramID: ProgramID,
		Accounts:  []address.Address{admin, vaultAddr, mint, HoldingAddress(mint), RegistryAddress()},
		Data:      []byte{TagInitializeVault, uint8(mode)},
	}
}

// Accounts: payer (signer), meta list, mint, vault.
func NewInitializeExtraAccountMetaList(payer, mint address.Address) models.Operation {
	vaultAddr, _ := VaultAddress()
	return models.Operation{
		ProgramID: ProgramID,
		Accounts:  []address.Address{payer, ExtraAccountMetasAddress(mint), mint, vaultAddr},
		Data:      []byte{TagInitializeExtraAccountMetaList},
	}
}

// Accounts: admin (signer), vault, principal's record, registry.
func NewAddToWhitelist(admin, principal address.Address) models.Operation {
	return whitelistOp(TagAddToWhitelist, admin, principal)
}

// Accounts: admin (signer), vault, principal's record, registry.
func NewRemoveFromWhitelist(admin, principal address.Address) models.Operation {
	return whitelistOp(TagRemoveFromWhitelist, admin, principal)
}

// NewDeposit credits user with the amount of the transfer placed just before it.
// Accounts: user (signer), vault, user record, holding, registry.
func NewDeposit(user, mint address.Address) models.Operation {
	return models.Operation{
		ProgramID: ProgramID,
		Accounts:  userAccounts(user, mint),
		Data:      []byte{TagDeposit},
	}
}

// NewWithdraw debits user by amount; the transfer out of holding must follow it.
// Accounts: user (signer), vault, user record, holding, registry.
func NewWithdraw(user, mint address.Address, amount uint64) models.Operation {
	data := make([]byte, 9)
	data[0] = TagWithdraw
	binary.LittleEndian.PutUint64(data[1:], amount)
	return models.Operation{
		ProgramID: ProgramID,
		Accounts:  userAccounts(user, mint),
		Data:      data,
	}
}

func whitelistOp(tag uint8, admin, principal address.Address) models.Operation {
	vaultAddr, _ := VaultAddress()
	data := make([]byte, 1+address.Size)
	data[0] = tag
	copy(data[1:], principal[:])
	return models.Operation{
		ProgramID: ProgramID,
		Accounts:  []address.Address{admin, vaultAddr, UserRecordAddress(principal), RegistryAddress()},
		Data:      data,
	}
}

func userAccounts(user, mint address.Address) []address.Address {
	vaultAddr, _ := VaultAddress()
	return []address.Address{user, vaultAddr, UserRecordAddress(user), HoldingAddress(mint), RegistryAddress()}
}
