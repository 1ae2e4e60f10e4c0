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
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/binder"
	"transfer-hook-vault-go/internal/hook"
	"transfer-hook-vault-go/internal/ledger"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/runtime"
	"transfer-hook-vault-go/internal/store"
	"transfer-hook-vault-go/internal/token"
	"transfer-hook-vault-go/internal/whitelist"

	"go.uber.org/zap"
)

// Processor implements the vault program and the mint's transfer hook.
type Processor struct {
	binder *binder.Binder
}

func NewProcessor() *Processor {
	return &Processor{binder: binder.New(token.ProgramID)}
}

func (p *Processor) Process(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	if _, ok := token.DecodeExecuteData(data); ok {
		return p.transferHook(ctx, accounts, data)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty data", ErrInvalidInstruction)
	}

	switch data[0] {
	case TagInitializeVault:
		return p.initializeVault(ctx, accounts, data)
	case TagInitializeExtraAccountMetaList:
		return p.initializeExtraAccountMetaList(ctx, accounts)
	case TagAddToWhitelist:
		return p.updateWhitelist(ctx, accounts, data, true)
	case TagRemoveFromWhitelist:
		return p.updateWhitelist(ctx, accounts, data, false)
	case TagDeposit:
		return p.deposit(ctx, accounts)
	case TagWithdraw:
		return p.withdraw(ctx, accounts, data)
	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidInstruction, data[0])
	}
}

func (p *Processor) initializeVault(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	if len(accounts) < 5 || len(data) != 2 {
		return fmt.Errorf("%w: initialize vault", ErrInvalidInstruction)
	}
	admin, vaultAddr, mint, holding, registryAddr := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4]

	mode := whitelist.Mode(data[1])
	if _, err := mode.MarshalText(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	if err := ctx.RequireSigner(admin); err != nil {
		return err
	}

	expected, bump := VaultAddress()
	if err := expectAccount("vault", vaultAddr, expected); err != nil {
		return err
	}
	if err := expectAccount("holding", holding, HoldingAddress(mint)); err != nil {
		return err
	}
	exists, err := ctx.Exists(vaultAddr)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: vault %s", ErrAlreadyInitialized, vaultAddr.Short())
	}

	seeds := append(VaultSeeds(), []byte{bump})
	if err := ctx.CreateAccount(admin, vaultAddr, VaultSize, ProgramID, seeds...); err != nil {
		return err
	}

	exists, err = ctx.Exists(holding)
	if err != nil {
		return err
	}
	if !exists {
		if err := ctx.Invoke(token.NewInitializeAccount(admin, vaultAddr, mint)); err != nil {
			return err
		}
	}
	acc, err := ctx.Account(holding)
	if err != nil {
		return err
	}
	holdingAcc, err := token.Load(acc)
	if err != nil {
		return err
	}
	if holdingAcc.Mint != mint || holdingAcc.Owner != vaultAddr {
		return fmt.Errorf("%w: holding account must be the vault's account for mint", ErrInvalidAccount)
	}

	v := Vault{Admin: admin, Mint: mint, Holding: holding, Mode: mode, Bump: bump}
	if err := ctx.WriteData(vaultAddr, v.Encode()); err != nil {
		return err
	}

	if mode == whitelist.ModeList {
		if err := expectAccount("registry", registryAddr, RegistryAddress()); err != nil {
			return err
		}
		if err := whitelist.NewListRegistry(ctx, admin).Initialize(); err != nil {
			return err
		}
	}

	zap.L().Info("Vault initialized",
		zap.String("vault", vaultAddr.String()),
		zap.String("admin", admin.String()),
		zap.String("mint", mint.String()),
		zap.String("holding", holding.String()),
		zap.String("mode", mode.String()))
	return nil
}

func (p *Processor) initializeExtraAccountMetaList(ctx *runtime.Context, accounts []address.Address) error {
	if len(accounts) < 4 {
		return fmt.Errorf("%w: initialize extra account meta list", ErrInvalidInstruction)
	}
	payer, metaList, mint, vaultAddr := accounts[0], accounts[1], accounts[2], accounts[3]

	v, err := loadVault(ctx, vaultAddr)
	if err != nil {
		return err
	}
	if err := expectAccount("mint", mint, v.Mint); err != nil {
		return err
	}
	expected, bump := token.ExtraAccountMetasAddress(mint, ProgramID)
	if err := expectAccount("extra account meta list", metaList, expected); err != nil {
		return err
	}
	exists, err := ctx.Exists(metaList)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: extra account meta list", ErrAlreadyInitialized)
	}

	data := token.EncodeExtraAccountMetas(ExtraAccountMetas(vaultAddr, v.Mode))
	seeds := append(token.ExtraAccountMetasSeeds(mint), []byte{bump})
	if err := ctx.CreateAccount(payer, metaList, len(data), ProgramID, seeds...); err != nil {
		return err
	}
	return ctx.WriteData(metaList, data)
}

func (p *Processor) updateWhitelist(ctx *runtime.Context, accounts []address.Address, data []byte, add bool) error {
	if len(accounts) < 4 || len(data) != 1+address.Size {
		return fmt.Errorf("%w: whitelist update", ErrInvalidInstruction)
	}
	admin, vaultAddr, recordAddr, registryAddr := accounts[0], accounts[1], accounts[2], accounts[3]
	principal := address.Address(data[1:])

	v, err := loadVault(ctx, vaultAddr)
	if err != nil {
		return err
	}
	if err := authorizeAdmin(ctx, v, admin); err != nil {
		return err
	}
	if err := expectAccount("user record", recordAddr, UserRecordAddress(principal)); err != nil {
		return err
	}
	if err := expectAccount("registry", registryAddr, RegistryAddress()); err != nil {
		return err
	}

	registry, err := whitelist.New(v.Mode, ctx, admin)
	if err != nil {
		return err
	}

	if add {
		if err := registry.Authorize(principal); err != nil {
			return err
		}
		zap.L().Info("Principal whitelisted", zap.String("principal", principal.String()))
		return nil
	}

	// list mode keeps ledger entries apart from the registry
	if v.Mode == whitelist.ModeList {
		record, ok, err := loadRecord(ctx, recordAddr)
		if err != nil {
			return err
		}
		if ok && record.Balance != 0 {
			return fmt.Errorf("%w: %s holds %d", whitelist.ErrOutstandingBalance, principal.Short(), record.Balance)
		}
	}
	if err := registry.Revoke(principal); err != nil {
		return err
	}
	zap.L().Info("Principal removed from whitelist", zap.String("principal", principal.String()))
	return nil
}

func (p *Processor) deposit(ctx *runtime.Context, accounts []address.Address) error {
	v, user, recordAddr, err := p.userRequest(ctx, accounts)
	if err != nil {
		return err
	}

	transfer, err := p.binder.BindDeposit(ctx.Operations(), ctx.Index(), user, v.Holding)
	if err != nil {
		return err
	}

	registry, err := whitelist.New(v.Mode, ctx, v.Admin)
	if err != nil {
		return err
	}
	ok, err := registry.IsAuthorized(user)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", hook.ErrNotWhitelisted, user.String())
	}

	record, exists, err := loadRecord(ctx, recordAddr)
	if err != nil {
		return err
	}
	if !exists {
		// first deposit in list mode opens the ledger entry, paid by the depositor
		if record, err = createRecord(ctx, user, recordAddr); err != nil {
			return err
		}
	}

	before := record.Balance
	if err := record.Credit(transfer.Amount); err != nil {
		return err
	}
	if err := ctx.WriteData(recordAddr, record.Encode()); err != nil {
		return err
	}

	return p.journal(ctx, v, user, models.TransactionTypeDeposit, transfer, before, record.Balance)
}

// withdraw completes every check before the vault approves the user as delegate over
// the holding account, so the following transfer can move exactly amount.
func (p *Processor) withdraw(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	if len(data) != 9 {
		return fmt.Errorf("%w: withdraw", ErrInvalidInstruction)
	}
	amount := binary.LittleEndian.Uint64(data[1:])

	v, user, recordAddr, err := p.userRequest(ctx, accounts)
	if err != nil {
		return err
	}

	transfer, err := p.binder.BindWithdraw(ctx.Operations(), ctx.Index(), user, v.Holding, amount)
	if err != nil {
		return err
	}

	record, exists, err := loadRecord(ctx, recordAddr)
	if err != nil {
		return err
	}
	if !exists {
		if v.Mode == whitelist.ModeRecord {
			return fmt.Errorf("%w: %s", hook.ErrNotWhitelisted, user.String())
		}
		return fmt.Errorf("%w: no ledger entry for %s", ledger.ErrInsufficientBalance, user.Short())
	}

	before := record.Balance
	after, err := ledger.Debit(before, amount)
	if err != nil {
		return err
	}

	vaultAddr := accounts[1]
	if err := ctx.Invoke(token.NewApprove(v.Holding, user, vaultAddr, amount), v.SignerSeeds()); err != nil {
		return err
	}

	record.Balance = after
	if err := ctx.WriteData(recordAddr, record.Encode()); err != nil {
		return err
	}

	return p.journal(ctx, v, user, models.TransactionTypeWithdrawal, transfer, before, after)
}

func (p *Processor) transferHook(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	req, err := hook.ParseRequest(accounts, data)
	if err != nil {
		return err
	}
	if err := expectAccount("extra account meta list", req.MetaList, ExtraAccountMetasAddress(req.Mint)); err != nil {
		return err
	}

	return hook.Execute(ctx, req, func(vaultAddr address.Address) (whitelist.Registry, error) {
		v, err := loadVault(ctx, vaultAddr)
		if err != nil {
			return nil, err
		}
		if v.Mint != req.Mint {
			return nil, fmt.Errorf("%w: mint is not the vault's asset", ErrInvalidAccount)
		}
		return whitelist.New(v.Mode, ctx, v.Admin)
	})
}

// userRequest validates the shared account list of deposit and withdraw.
func (p *Processor) userRequest(ctx *runtime.Context, accounts []address.Address) (*Vault, address.Address, address.Address, error) {
	if len(accounts) < 5 {
		return nil, address.Zero, address.Zero, fmt.Errorf("%w: expected 5 accounts", ErrInvalidInstruction)
	}
	user, vaultAddr, recordAddr, holding, registryAddr := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4]

	if err := ctx.RequireSigner(user); err != nil {
		return nil, address.Zero, address.Zero, err
	}
	v, err := loadVault(ctx, vaultAddr)
	if err != nil {
		return nil, address.Zero, address.Zero, err
	}
	checks := []struct {
		name          string
		got, expected address.Address
	}{
		{"holding", holding, v.Holding},
		{"user record", recordAddr, UserRecordAddress(user)},
		{"registry", registryAddr, RegistryAddress()},
	}
	for _, c := range checks {
		if err := expectAccount(c.name, c.got, c.expected); err != nil {
			return nil, address.Zero, address.Zero, err
		}
	}
	return v, user, recordAddr, nil
}

func (p *Processor) journal(ctx *runtime.Context, v *Vault, user address.Address, txType string, transfer *binder.Transfer, before, after uint64) error {
	amount := ledger.FormatAmount(transfer.Amount, 0)
	if txType == models.TransactionTypeWithdrawal {
		amount = amount.Neg()
	}

	_, err := ctx.RecordTransaction(store.RecordTransactionParams{
		UserId:          user.String(),
		Asset:           v.Mint.String(),
		TransactionType: txType,
		Amount:          amount,
		BalanceBefore:   ledger.FormatAmount(before, 0),
		BalanceAfter:    ledger.FormatAmount(after, 0),
		Reference:       fmt.Sprintf("transfer:%d", transfer.Index),
	})
	if err != nil {
		return err
	}

	zap.L().Info("Ledger updated",
		zap.String("type", txType),
		zap.String("user", user.String()),
		zap.String("amount", amount.String()),
		zap.Uint64("balance", after))
	return nil
}

func loadVault(ctx *runtime.Context, vaultAddr address.Address) (*Vault, error) {
	expected, _ := VaultAddress()
	if err := expectAccount("vault", vaultAddr, expected); err != nil {
		return nil, err
	}
	exists, err := ctx.Exists(vaultAddr)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUninitialized
	}
	acc, err := ctx.Account(vaultAddr)
	if err != nil {
		return nil, err
	}
	if acc.Owner != ProgramID {
		return nil, fmt.Errorf("%w: vault not owned by program", ErrInvalidAccountData)
	}
	return DecodeVault(acc.Data)
}

func loadRecord(ctx *runtime.Context, addr address.Address) (*ledger.UserRecord, bool, error) {
	exists, err := ctx.Exists(addr)
	if err != nil || !exists {
		return nil, false, err
	}
	acc, err := ctx.Account(addr)
	if err != nil {
		return nil, false, err
	}
	if acc.Owner != ProgramID {
		return nil, false, nil
	}
	record, err := ledger.DecodeUserRecord(acc.Data)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func createRecord(ctx *runtime.Context, user, addr address.Address) (*ledger.UserRecord, error) {
	_, bump := whitelist.RecordAddress(ProgramID, user)
	seeds := append(whitelist.RecordSeeds(user), []byte{bump})
	if err := ctx.CreateAccount(user, addr, ledger.UserRecordSize, ProgramID, seeds...); err != nil {
		return nil, err
	}
	return &ledger.UserRecord{Bump: bump}, nil
}

func authorizeAdmin(ctx *runtime.Context, v *Vault, admin address.Address) error {
	if err := ctx.RequireSigner(admin); err != nil {
		return err
	}
	if v.Admin != admin {
		return fmt.Errorf("%w: %s", ErrUnauthorized, admin.Short())
	}
	return nil
}

func expectAccount(name string, got, expected address.Address) error {
	if got != expected {
		return fmt.Errorf("%w: %s is %s, expected %s", ErrInvalidAccount, name, got.Short(), expected.Short())
	}
	return nil
}
