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
	"errors"
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/runtime"
	"transfer-hook-vault-go/internal/store"

	"go.uber.org/zap"
)

// Processor implements the token program.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

func (p *Processor) Process(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty data", ErrInvalidInstruction)
	}

	switch data[0] {
	case OpInitializeMint:
		return p.initializeMint(ctx, accounts, data)
	case OpInitializeAccount:
		return p.initializeAccount(ctx, accounts)
	case OpApprove:
		return p.approve(ctx, accounts, data)
	case OpMintTo:
		return p.mintTo(ctx, accounts, data)
	case OpTransferChecked:
		return p.transferChecked(ctx, accounts, data)
	default:
		return fmt.Errorf("%w: opcode %d", ErrInvalidInstruction, data[0])
	}
}

func (p *Processor) initializeMint(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	if len(accounts) < 2 || len(data) != 67 {
		return fmt.Errorf("%w: initialize mint", ErrInvalidInstruction)
	}
	payer, mintAddr := accounts[0], accounts[1]

	mint := Mint{
		Decimals:  data[1],
		Authority: address.Address(data[2:34]),
	}
	if data[34] == 1 {
		mint.HookProgram = address.Address(data[35:67])
	}

	if err := ctx.CreateAccount(payer, mintAddr, MintSize, ProgramID); err != nil {
		return err
	}

	zap.L().Debug("Mint initialized",
		zap.String("mint", mintAddr.Short()),
		zap.Uint8("decimals", mint.Decimals),
		zap.Bool("transfer_hook", mint.HasHook()))

	return ctx.WriteData(mintAddr, mint.Encode())
}

func (p *Processor) initializeAccount(ctx *runtime.Context, accounts []address.Address) error {
	if len(accounts) < 4 {
		return fmt.Errorf("%w: initialize account", ErrInvalidInstruction)
	}
	payer, tokenAddr, owner, mintAddr := accounts[0], accounts[1], accounts[2], accounts[3]

	if _, err := loadMint(ctx, mintAddr); err != nil {
		return err
	}

	ata, bump := AssociatedAddress(owner, mintAddr)
	if ata != tokenAddr {
		return fmt.Errorf("%w: %s", ErrInvalidAssociatedAccount, tokenAddr.Short())
	}

	seeds := append(associatedSeeds(owner, mintAddr), []byte{bump})
	if err := ctx.CreateAccount(payer, tokenAddr, AccountSize, ProgramID, seeds...); err != nil {
		return err
	}

	acc := Account{Mint: mintAddr, Owner: owner}
	return ctx.WriteData(tokenAddr, acc.Encode())
}

func (p *Processor) approve(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	if len(accounts) < 3 {
		return fmt.Errorf("%w: approve", ErrInvalidInstruction)
	}
	sourceAddr, delegate, owner := accounts[0], accounts[1], accounts[2]

	amount, err := decodeAmount(data)
	if err != nil {
		return err
	}
	if err := ctx.RequireSigner(owner); err != nil {
		return err
	}

	source, err := loadAccount(ctx, sourceAddr)
	if err != nil {
		return err
	}
	if source.Owner != owner {
		return fmt.Errorf("%w: %s does not own %s", ErrOwnerMismatch, owner.Short(), sourceAddr.Short())
	}

	source.Delegate = delegate
	source.DelegatedAmount = amount
	if amount == 0 {
		source.Delegate = address.Zero
	}
	return ctx.WriteData(sourceAddr, source.Encode())
}

func (p *Processor) mintTo(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	if len(accounts) < 3 {
		return fmt.Errorf("%w: mint to", ErrInvalidInstruction)
	}
	mintAddr, destAddr, authority := accounts[0], accounts[1], accounts[2]

	amount, err := decodeAmount(data)
	if err != nil {
		return err
	}
	if err := ctx.RequireSigner(authority); err != nil {
		return err
	}

	mint, err := loadMint(ctx, mintAddr)
	if err != nil {
		return err
	}
	if mint.Authority != authority {
		return fmt.Errorf("%w: mint authority", ErrOwnerMismatch)
	}
	dest, err := loadAccount(ctx, destAddr)
	if err != nil {
		return err
	}
	if dest.Mint != mintAddr {
		return ErrMintMismatch
	}

	if mint.Supply+amount < mint.Supply || dest.Amount+amount < dest.Amount {
		return ErrOverflow
	}
	mint.Supply += amount
	dest.Amount += amount

	if err := ctx.WriteData(mintAddr, mint.Encode()); err != nil {
		return err
	}
	return ctx.WriteData(destAddr, dest.Encode())
}

func (p *Processor) transferChecked(ctx *runtime.Context, accounts []address.Address, data []byte) error {
	if len(accounts) < 4 {
		return fmt.Errorf("%w: transfer checked needs 4 accounts", ErrInvalidInstruction)
	}
	sourceAddr, mintAddr, destAddr, authority := accounts[0], accounts[1], accounts[2], accounts[3]

	args, err := DecodeTransferChecked(data)
	if err != nil {
		return err
	}
	if args.Authority != authority {
		return fmt.Errorf("%w: data names %s, accounts name %s", ErrAuthorityMismatch, args.Authority.Short(), authority.Short())
	}
	if err := ctx.RequireSigner(authority); err != nil {
		return err
	}

	mint, err := loadMint(ctx, mintAddr)
	if err != nil {
		return err
	}
	if mint.Decimals != args.Decimals {
		return fmt.Errorf("%w: mint has %d, got %d", ErrDecimalsMismatch, mint.Decimals, args.Decimals)
	}

	source, err := loadAccount(ctx, sourceAddr)
	if err != nil {
		return err
	}
	dest, err := loadAccount(ctx, destAddr)
	if err != nil {
		return err
	}
	if source.Mint != mintAddr || dest.Mint != mintAddr {
		return ErrMintMismatch
	}

	switch {
	case source.Owner == authority:
	case source.HasDelegate() && source.Delegate == authority:
		if source.DelegatedAmount < args.Amount {
			return fmt.Errorf("%w: allowance %d, amount %d", ErrInsufficientAllowance, source.DelegatedAmount, args.Amount)
		}
		source.DelegatedAmount -= args.Amount
		if source.DelegatedAmount == 0 {
			source.Delegate = address.Zero
		}
	default:
		return fmt.Errorf("%w: %s", ErrOwnerMismatch, authority.Short())
	}

	if source.Amount < args.Amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, source.Amount, args.Amount)
	}
	selfTransfer := sourceAddr == destAddr
	if !selfTransfer {
		if dest.Amount+args.Amount < dest.Amount {
			return ErrOverflow
		}
		source.Amount -= args.Amount
		dest.Amount += args.Amount
	}

	hooked := mint.HasHook()
	source.Transferring = hooked
	dest.Transferring = hooked
	if err := saveAccounts(ctx, selfTransfer, sourceAddr, source, destAddr, dest); err != nil {
		return err
	}
	if !hooked {
		return nil
	}

	if err := p.invokeHook(ctx, mint.HookProgram, accounts[:4], args.Amount); err != nil {
		return err
	}

	source.Transferring = false
	dest.Transferring = false
	return saveAccounts(ctx, selfTransfer, sourceAddr, source, destAddr, dest)
}

// invokeHook resolves the hook's extra accounts and calls its execute entrypoint
// while both token accounts are marked as transferring.
func (p *Processor) invokeHook(ctx *runtime.Context, hookProgram address.Address, base []address.Address, amount uint64) error {
	mintAddr := base[HookMintIndex]
	metaList, _ := ExtraAccountMetasAddress(mintAddr, hookProgram)

	acc, err := ctx.Account(metaList)
	if errors.Is(err, store.ErrAccountNotFound) {
		return fmt.Errorf("%w: mint %s", ErrMissingExtraAccountMetas, mintAddr.Short())
	}
	if err != nil {
		return err
	}
	if acc.Owner != hookProgram {
		return fmt.Errorf("%w: meta list not owned by hook program", ErrInvalidExtraAccountMeta)
	}
	metas, err := DecodeExtraAccountMetas(acc.Data)
	if err != nil {
		return err
	}

	hookAccounts := append(append([]address.Address(nil), base...), metaList)
	extras, err := ResolveExtraAccounts(metas, hookAccounts, hookProgram)
	if err != nil {
		return err
	}
	hookAccounts = append(hookAccounts, extras...)

	return ctx.Invoke(models.Operation{
		ProgramID: hookProgram,
		Accounts:  hookAccounts,
		Data:      ExecuteData(amount),
	})
}

func saveAccounts(ctx *runtime.Context, self bool, sourceAddr address.Address, source *Account, destAddr address.Address, dest *Account) error {
	if err := ctx.WriteData(sourceAddr, source.Encode()); err != nil {
		return err
	}
	if self {
		return nil
	}
	return ctx.WriteData(destAddr, dest.Encode())
}

func loadMint(ctx *runtime.Context, addr address.Address) (*Mint, error) {
	acc, err := ctx.Account(addr)
	if err != nil {
		return nil, err
	}
	if acc.Owner != ProgramID {
		return nil, fmt.Errorf("%w: %s not owned by token program", ErrInvalidMint, addr.Short())
	}
	return DecodeMint(acc.Data)
}

func loadAccount(ctx *runtime.Context, addr address.Address) (*Account, error) {
	acc, err := ctx.Account(addr)
	if err != nil {
		return nil, err
	}
	if acc.Owner != ProgramID {
		return nil, fmt.Errorf("%w: %s not owned by token program", ErrInvalidTokenAccount, addr.Short())
	}
	return DecodeAccount(acc.Data)
}

// Load reads a token account outside a program, for reporting.
func Load(acc *models.Account) (*Account, error) {
	if acc.Owner != ProgramID {
		return nil, fmt.Errorf("%w: %s not owned by token program", ErrInvalidTokenAccount, acc.Address.Short())
	}
	return DecodeAccount(acc.Data)
}
