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

package hook

import (
	"errors"
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/token"
	"transfer-hook-vault-go/internal/whitelist"

	"go.uber.org/zap"
)

var (
	ErrNotInTransferContext = errors.New("transfer hook invoked outside of a transfer")
	ErrNotWhitelisted       = errors.New("transfer authority is not whitelisted")
	ErrUnexpectedContext    = errors.New("authorization context does not match its derivation")
	ErrInvalidRequest       = errors.New("malformed transfer hook request")
)

// Extra accounts, after the token program's base accounts.
const (
	VaultExtraIndex = iota
	ContextExtraIndex
	ExtraAccounts
)

// Env gives the hook read access to account state.
type Env interface {
	Account(a address.Address) (*models.Account, error)
}

// ResolveFunc loads the vault singleton at vault and returns the registry that governs transfers.
type ResolveFunc func(vault address.Address) (whitelist.Registry, error)

// Request is a decoded execute call from the token program.
type Request struct {
	Source      address.Address
	Mint        address.Address
	Destination address.Address
	Authority   address.Address
	MetaList    address.Address
	Extras      []address.Address
	Amount      uint64
}

func ParseRequest(accounts []address.Address, data []byte) (*Request, error) {
	amount, ok := token.DecodeExecuteData(data)
	if !ok {
		return nil, fmt.Errorf("%w: not an execute call", ErrInvalidRequest)
	}
	if len(accounts) < token.HookBaseAccounts+ExtraAccounts {
		return nil, fmt.Errorf("%w: %d accounts", ErrInvalidRequest, len(accounts))
	}
	return &Request{
		Source:      accounts[token.HookSourceIndex],
		Mint:        accounts[token.HookMintIndex],
		Destination: accounts[token.HookDestinationIndex],
		Authority:   accounts[token.HookAuthorityIndex],
		MetaList:    accounts[token.HookMetaListIndex],
		Extras:      accounts[token.HookBaseAccounts:],
		Amount:      amount,
	}, nil
}

// Execute approves the transfer described by req or returns why it must not happen.
// It reads state only.
func Execute(env Env, req *Request, resolve ResolveFunc) error {
	source, err := loadTokenAccount(env, req.Source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotInTransferContext, err)
	}
	if !source.Transferring {
		return ErrNotInTransferContext
	}
	if source.Mint != req.Mint {
		return fmt.Errorf("%w: source holds a different mint", ErrInvalidRequest)
	}

	if dest, err := loadTokenAccount(env, req.Destination); err == nil {
		zap.L().Debug("Transfer hook invoked",
			zap.String("source_owner", source.Owner.String()),
			zap.String("destination_owner", dest.Owner.String()),
			zap.String("authority", req.Authority.String()),
			zap.Uint64("amount", req.Amount))
	}

	registry, err := resolve(req.Extras[VaultExtraIndex])
	if err != nil {
		return err
	}
	expected := registry.ContextAddress(req.Authority)
	if got := req.Extras[ContextExtraIndex]; got != expected {
		return fmt.Errorf("%w: got %s, expected %s", ErrUnexpectedContext, got.Short(), expected.Short())
	}

	ok, err := registry.IsAuthorized(req.Authority)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotWhitelisted, req.Authority.String())
	}
	return nil
}

func loadTokenAccount(env Env, addr address.Address) (*token.Account, error) {
	acc, err := env.Account(addr)
	if err != nil {
		return nil, err
	}
	return token.Load(acc)
}
