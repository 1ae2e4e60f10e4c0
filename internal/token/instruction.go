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
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
)

// Opcodes, as the first byte of instruction data.
const (
	OpInitializeMint    uint8 = 0
	OpInitializeAccount uint8 = 1
	OpApprove           uint8 = 4
	OpMintTo            uint8 = 7
	OpTransferChecked   uint8 = 12
)

// TransferChecked data layout: opcode | amount u64 LE | decimals | authority
const (
	TransferCheckedAmountOffset    = 1
	TransferCheckedDecimalsOffset  = 9
	TransferCheckedAuthorityOffset = 10
	TransferCheckedDataSize        = TransferCheckedAuthorityOffset + address.Size
)

// NewInitializeMint creates mint. A zero hookProgram disables the transfer hook.
// Accounts: payer (signer), mint (signer).
func NewInitializeMint(payer, mint, authority address.Address, decimals uint8, hookProgram address.Address) models.Operation {
	data := make([]byte, 1+1+32+1+32)
	data[0] = OpInitializeMint
	data[1] = decimals
	copy(data[2:34], authority[:])
	if !hookProgram.IsZero() {
		data[34] = 1
		copy(data[35:67], hookProgram[:])
	}
	return models.Operation{
		ProgramID: ProgramID,
		Accounts:  []address.Address{payer, mint},
		Data:      data,
	}
}

// NewInitializeAccount creates the associated token account of owner.
// Accounts: payer (signer), token account, owner, mint.
func NewInitializeAccount(payer, owner, mint address.Address) models.Operation {
	ata, _ := AssociatedAddress(owner, mint)
	return models.Operation{
		ProgramID: ProgramID,
		Accounts:  []address.Address{payer, ata, owner, mint},
		Data:      []byte{OpInitializeAccount},
	}
}

// NewApprove lets delegate move up to amount out of source.
// Accounts: source, delegate, owner (signer).
func NewApprove(source, delegate, owner address.Address, amount uint64) models.Operation {
	return models.Operation{
		ProgramID: ProgramID,
		Accounts:  []address.Address{source, delegate, owner},
		Data:      amountData(OpApprove, amount),
	}
}

// Accounts: mint, destination, mint authority (signer).
func NewMintTo(mint, destination, authority address.Address, amount uint64) models.Operation {
	return models.Operation{
		ProgramID: ProgramID,
		Accounts:  []address.Address{mint, destination, authority},
		Data:      amountData(OpMintTo, amount),
	}
}

// NewTransferChecked moves amount from source to destination.
// Accounts: source, mint, destination, authority (signer).
func NewTransferChecked(source, mint, destination, authority address.Address, amount uint64, decimals uint8) models.Operation {
	data := make([]byte, TransferCheckedDataSize)
	data[0] = OpTransferChecked
	binary.LittleEndian.PutUint64(data[TransferCheckedAmountOffset:], amount)
	data[TransferCheckedDecimalsOffset] = decimals
	copy(data[TransferCheckedAuthorityOffset:], authority[:])
	return models.Operation{
		ProgramID: ProgramID,
		Accounts:  []address.Address{source, mint, destination, authority},
		Data:      data,
	}
}

// TransferCheckedArgs is the decoded data of a TransferChecked operation.
type TransferCheckedArgs struct {
	Amount    uint64
	Decimals  uint8
	Authority address.Address
}

func DecodeTransferChecked(data []byte) (*TransferCheckedArgs, error) {
	if len(data) != TransferCheckedDataSize || data[0] != OpTransferChecked {
		return nil, fmt.Errorf("%w: malformed transfer checked data", ErrInvalidInstruction)
	}
	return &TransferCheckedArgs{
		Amount:    binary.LittleEndian.Uint64(data[TransferCheckedAmountOffset:]),
		Decimals:  data[TransferCheckedDecimalsOffset],
		Authority: address.Address(data[TransferCheckedAuthorityOffset:TransferCheckedDataSize]),
	}, nil
}

func amountData(op uint8, amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = op
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

func decodeAmount(data []byte) (uint64, error) {
	if len(data) != 9 {
		return 0, fmt.Errorf("%w: expected 9 bytes, got %d", ErrInvalidInstruction, len(data))
	}
	return binary.LittleEndian.Uint64(data[1:]), nil
}
