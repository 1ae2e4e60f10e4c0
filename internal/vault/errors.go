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
	"errors"
	"fmt"

	"transfer-hook-vault-go/internal/binder"
	"transfer-hook-vault-go/internal/hook"
	"transfer-hook-vault-go/internal/ledger"
	"transfer-hook-vault-go/internal/runtime"
	"transfer-hook-vault-go/internal/whitelist"
)

var (
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrUninitialized      = errors.New("vault not initialized")
	ErrUnauthorized       = errors.New("signer is not the vault administrator")
	ErrInvalidInstruction = errors.New("invalid vault instruction")
	ErrInvalidAccount     = errors.New("account does not match its expected address")
	ErrInvalidAccountData = errors.New("invalid account data")
)

// Category groups error codes by how a caller should react.
type Category uint8

const (
	CategoryUnknown Category = iota
	// CategoryAuthorization: the principal may not do this. Never retried.
	CategoryAuthorization
	// CategoryConsistency: the batch is malformed or adversarial.
	CategoryConsistency
	// CategoryArithmetic: the ledger would overflow or go negative.
	CategoryArithmetic
	// CategoryResource: resubmit with more funding.
	CategoryResource
)

func (c Category) String() string {
	switch c {
	case CategoryAuthorization:
		return "authorization"
	case CategoryConsistency:
		return "consistency"
	case CategoryArithmetic:
		return "arithmetic"
	case CategoryResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Code is a stable numeric error code reported to callers.
type Code uint32

const (
	CodeNotWhitelisted   Code = 6000
	CodeSignerMismatch   Code = 6001
	CodeUnauthorized     Code = 6002
	CodeMissingSignature Code = 6003

	CodeNotInTransferContext      Code = 6100
	CodeAdjacentOperationNotFound Code = 6101
	CodeUnexpectedProgram         Code = 6102
	CodeUnexpectedOpcode          Code = 6103
	CodeAmountMismatch            Code = 6104
	CodeUnexpectedAccount         Code = 6105
	CodeAlreadyInitialized        Code = 6106
	CodeInvalidInstruction        Code = 6107
	CodeInvalidAccountData        Code = 6108
	CodeOutstandingBalance        Code = 6109

	CodeBalanceOverflow     Code = 6200
	CodeInsufficientBalance Code = 6201

	CodeInsufficientFunding Code = 6300
)

var codeTable = []struct {
	err  error
	code Code
	name string
}{
	{hook.ErrNotWhitelisted, CodeNotWhitelisted, "NotWhitelisted"},
	{binder.ErrSignerMismatch, CodeSignerMismatch, "SignerMismatch"},
	{ErrUnauthorized, CodeUnauthorized, "Unauthorized"},
	{runtime.ErrMissingSignature, CodeMissingSignature, "MissingSignature"},

	{hook.ErrNotInTransferContext, CodeNotInTransferContext, "NotInTransferContext"},
	{binder.ErrAdjacentOperationNotFound, CodeAdjacentOperationNotFound, "AdjacentOperationNotFound"},
	{binder.ErrUnexpectedProgram, CodeUnexpectedProgram, "UnexpectedProgram"},
	{binder.ErrUnexpectedOpcode, CodeUnexpectedOpcode, "UnexpectedOpcode"},
	{binder.ErrAmountMismatch, CodeAmountMismatch, "AmountMismatch"},
	{binder.ErrUnexpectedAccount, CodeUnexpectedAccount, "UnexpectedAccount"},
	{hook.ErrUnexpectedContext, CodeUnexpectedAccount, "UnexpectedAccount"},
	{ErrInvalidAccount, CodeUnexpectedAccount, "UnexpectedAccount"},
	{ErrAlreadyInitialized, CodeAlreadyInitialized, "AlreadyInitialized"},
	{ErrInvalidInstruction, CodeInvalidInstruction, "InvalidInstruction"},
	{hook.ErrInvalidRequest, CodeInvalidInstruction, "InvalidInstruction"},
	{ErrInvalidAccountData, CodeInvalidAccountData, "InvalidAccountData"},
	{ErrUninitialized, CodeInvalidAccountData, "InvalidAccountData"},
	{whitelist.ErrCorruptRegistry, CodeInvalidAccountData, "InvalidAccountData"},
	{ledger.ErrInvalidRecord, CodeInvalidAccountData, "InvalidAccountData"},
	{whitelist.ErrOutstandingBalance, CodeOutstandingBalance, "OutstandingBalance"},

	{ledger.ErrBalanceOverflow, CodeBalanceOverflow, "BalanceOverflow"},
	{ledger.ErrInsufficientBalance, CodeInsufficientBalance, "InsufficientBalance"},

	{whitelist.ErrInsufficientFunding, CodeInsufficientFunding, "InsufficientFunding"},
	{runtime.ErrInsufficientFunds, CodeInsufficientFunding, "InsufficientFunding"},
}

// CodeOf maps err to its code. Errors raised outside the vault's components report false.
func CodeOf(err error) (Code, bool) {
	if err == nil {
		return 0, false
	}
	for _, entry := range codeTable {
		if errors.Is(err, entry.err) {
			return entry.code, true
		}
	}
	return 0, false
}

func (c Code) Category() Category {
	switch {
	case c >= 6000 && c < 6100:
		return CategoryAuthorization
	case c >= 6100 && c < 6200:
		return CategoryConsistency
	case c >= 6200 && c < 6300:
		return CategoryArithmetic
	case c >= 6300 && c < 6400:
		return CategoryResource
	default:
		return CategoryUnknown
	}
}

func (c Code) String() string {
	for _, entry := range codeTable {
		if entry.code == c {
			return entry.name
		}
	}
	return fmt.Sprintf("Code(%d)", uint32(c))
}
