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
	"encoding/binary"
	"fmt"

	"transfer-hook-vault-go/internal/address"

	"go.uber.org/zap"
)

// Registry account layout: discriminator | bump | count u32 | count * address
const (
	BaseSize   = 8 + 1 + 4
	EntryWidth = address.Size
)

var RegistryDiscriminator = address.Discriminator("account", "Whitelist")

// ListRegistry keeps every authorized principal in one account whose size
// tracks its entry count. Growth is paid by the administrator, shrinkage refunded.
type ListRegistry struct {
	env   Env
	admin address.Address
	addr  address.Address
	bump  uint8
}

func NewListRegistry(env Env, admin address.Address) *ListRegistry {
	addr, bump := RegistryAddress(env.ProgramID())
	return &ListRegistry{env: env, admin: admin, addr: addr, bump: bump}
}

func (r *ListRegistry) Address() address.Address {
	return r.addr
}

// ContextAddress is the shared registry account for every principal.
func (r *ListRegistry) ContextAddress(address.Address) address.Address {
	return r.addr
}

// Initialize creates the empty registry, paid by the administrator.
func (r *ListRegistry) Initialize() error {
	if err := requireFunds(r.env, r.admin, r.env.Rent().MinimumBalance(BaseSize)); err != nil {
		return err
	}
	seeds := append(RegistrySeeds(), []byte{r.bump})
	if err := r.env.CreateAccount(r.admin, r.addr, BaseSize, r.env.ProgramID(), seeds...); err != nil {
		return err
	}
	return r.env.WriteData(r.addr, encodeRegistry(r.bump, nil))
}

func (r *ListRegistry) Entries() ([]address.Address, error) {
	return r.load()
}

func (r *ListRegistry) IsAuthorized(principal address.Address) (bool, error) {
	entries, err := r.load()
	if err != nil {
		return false, err
	}
	return indexOf(entries, principal) >= 0, nil
}

// Authorize appends principal in two phases: the administrator first pays the
// storage-cost delta of one more entry, then the account grows and the entry is written.
func (r *ListRegistry) Authorize(principal address.Address) error {
	entries, err := r.load()
	if err != nil {
		return err
	}
	if indexOf(entries, principal) >= 0 {
		return nil
	}

	oldSize := sizeFor(len(entries))
	newSize := sizeFor(len(entries) + 1)
	schedule := r.env.Rent()
	delta := schedule.MinimumBalance(newSize) - schedule.MinimumBalance(oldSize)

	if err := requireFunds(r.env, r.admin, delta); err != nil {
		return err
	}
	if err := r.env.TransferLamports(r.admin, r.addr, delta); err != nil {
		return fmt.Errorf("%w: %v", ErrInsufficientFunding, err)
	}

	if err := r.env.Resize(r.addr, newSize); err != nil {
		return err
	}
	if err := r.env.WriteData(r.addr, encodeRegistry(r.bump, append(entries, principal))); err != nil {
		return err
	}

	zap.L().Debug("Whitelist entry added",
		zap.String("principal", principal.String()),
		zap.Int("count", len(entries)+1),
		zap.Uint64("funded", delta))
	return nil
}

// Revoke swap-removes principal, shrinks the account by one entry and refunds
// the freed storage cost to the administrator.
func (r *ListRegistry) Revoke(principal address.Address) error {
	entries, err := r.load()
	if err != nil {
		return err
	}
	i := indexOf(entries, principal)
	if i < 0 {
		return nil
	}

	last := len(entries) - 1
	entries[i] = entries[last]
	entries = entries[:last]

	oldSize := sizeFor(last + 1)
	newSize := sizeFor(last)
	schedule := r.env.Rent()
	refund := schedule.MinimumBalance(oldSize) - schedule.MinimumBalance(newSize)

	if err := r.env.Resize(r.addr, newSize); err != nil {
		return err
	}
	if err := r.env.WriteData(r.addr, encodeRegistry(r.bump, entries)); err != nil {
		return err
	}
	if err := r.env.TransferLamports(r.addr, r.admin, refund); err != nil {
		return err
	}

	zap.L().Debug("Whitelist entry removed",
		zap.String("principal", principal.String()),
		zap.Int("count", len(entries)),
		zap.Uint64("refunded", refund))
	return nil
}

func (r *ListRegistry) load() ([]address.Address, error) {
	acc, err := r.env.Account(r.addr)
	if err != nil {
		return nil, err
	}
	if acc.Owner != r.env.ProgramID() {
		return nil, fmt.Errorf("%w: registry not owned by program", ErrCorruptRegistry)
	}
	return DecodeRegistry(acc.Data)
}

func sizeFor(count int) int {
	return BaseSize + EntryWidth*count
}

func indexOf(entries []address.Address, principal address.Address) int {
	for i, e := range entries {
		if e == principal {
			return i
		}
	}
	return -1
}

func encodeRegistry(bump uint8, entries []address.Address) []byte {
	buf := make([]byte, sizeFor(len(entries)))
	copy(buf[:8], RegistryDiscriminator[:])
	buf[8] = bump
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(entries)))
	for i, e := range entries {
		copy(buf[BaseSize+i*EntryWidth:], e[:])
	}
	return buf
}

// DecodeRegistry parses registry account data into its entries
func DecodeRegistry(data []byte) ([]address.Address, error) {
	if len(data) < BaseSize || [8]byte(data[:8]) != RegistryDiscriminator {
		return nil, fmt.Errorf("%w: bad header", ErrCorruptRegistry)
	}
	count := int(binary.LittleEndian.Uint32(data[9:13]))
	if len(data) != sizeFor(count) {
		return nil, fmt.Errorf("%w: %d bytes for %d entries", ErrCorruptRegistry, len(data), count)
	}

	entries := make([]address.Address, count)
	for i := range entries {
		off := BaseSize + i*EntryWidth
		entries[i] = address.Address(data[off : off+EntryWidth])
	}
	return entries, nil
}
