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
)

// ExecuteDiscriminator prefixes the data of the operation sent to a mint's hook program.
var ExecuteDiscriminator = address.Discriminator("spl-transfer-hook-interface", "execute")

// ExecuteData encodes the hook execute call for a transfer of amount.
func ExecuteData(amount uint64) []byte {
	data := make([]byte, 16)
	copy(data, ExecuteDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:], amount)
	return data
}

// DecodeExecuteData returns the transfer amount, or false when data is not an execute call.
func DecodeExecuteData(data []byte) (uint64, bool) {
	if len(data) != 16 || [8]byte(data[:8]) != ExecuteDiscriminator {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[8:]), true
}

var extraMetasDiscriminator = address.Discriminator("spl-transfer-hook-interface", "extra-account-metas")

// Base accounts handed to a hook, in order. Extra metas may refer to them by index.
const (
	HookSourceIndex = iota
	HookMintIndex
	HookDestinationIndex
	HookAuthorityIndex
	HookMetaListIndex
	HookBaseAccounts
)

type SeedKind uint8

const (
	SeedLiteral SeedKind = iota
	SeedAccountKey
)

// Seed is one component of a derived extra account address.
type Seed struct {
	Kind  SeedKind
	Bytes []byte
	Index uint8
}

func LiteralSeed(b []byte) Seed {
	return Seed{Kind: SeedLiteral, Bytes: b}
}

// AccountKeySeed uses the address of the account at index in the hook's account list.
func AccountKeySeed(index uint8) Seed {
	return Seed{Kind: SeedAccountKey, Index: index}
}

// ExtraAccountMeta is either a fixed address or seeds derived under the hook program.
type ExtraAccountMeta struct {
	Address address.Address
	Seeds   []Seed
}

func FixedMeta(a address.Address) ExtraAccountMeta {
	return ExtraAccountMeta{Address: a}
}

func SeedMeta(seeds ...Seed) ExtraAccountMeta {
	return ExtraAccountMeta{Seeds: seeds}
}

// ExtraAccountMetasAddress is where hookProgram keeps the extra metas for mint.
func ExtraAccountMetasAddress(mint, hookProgram address.Address) (address.Address, uint8) {
	return address.MustFindProgramAddress(ExtraAccountMetasSeeds(mint), hookProgram)
}

func ExtraAccountMetasSeeds(mint address.Address) [][]byte {
	return [][]byte{[]byte("extra-account-metas"), mint.Bytes()}
}

func EncodeExtraAccountMetas(metas []ExtraAccountMeta) []byte {
	buf := make([]byte, 0, 12+len(metas)*33)
	buf = append(buf, extraMetasDiscriminator[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(metas)))
	for _, m := range metas {
		if len(m.Seeds) == 0 {
			buf = append(buf, 0)
			buf = append(buf, m.Address[:]...)
			continue
		}
		buf = append(buf, 1, uint8(len(m.Seeds)))
		for _, s := range m.Seeds {
			switch s.Kind {
			case SeedLiteral:
				buf = append(buf, uint8(SeedLiteral), uint8(len(s.Bytes)))
				buf = append(buf, s.Bytes...)
			case SeedAccountKey:
				buf = append(buf, uint8(SeedAccountKey), s.Index)
			}
		}
	}
	return buf
}

func DecodeExtraAccountMetas(data []byte) ([]ExtraAccountMeta, error) {
	if len(data) < 12 || [8]byte(data[:8]) != extraMetasDiscriminator {
		return nil, fmt.Errorf("%w: bad header", ErrInvalidExtraAccountMeta)
	}
	count := binary.LittleEndian.Uint32(data[8:12])
	r := data[12:]

	next := func(n int) ([]byte, error) {
		if len(r) < n {
			return nil, fmt.Errorf("%w: truncated", ErrInvalidExtraAccountMeta)
		}
		b := r[:n]
		r = r[n:]
		return b, nil
	}

	metas := make([]ExtraAccountMeta, 0, count)
	for i := uint32(0); i < count; i++ {
		kind, err := next(1)
		if err != nil {
			return nil, err
		}
		switch kind[0] {
		case 0:
			b, err := next(address.Size)
			if err != nil {
				return nil, err
			}
			metas = append(metas, FixedMeta(address.Address(b)))
		case 1:
			n, err := next(1)
			if err != nil {
				return nil, err
			}
			seeds := make([]Seed, 0, n[0])
			for j := 0; j < int(n[0]); j++ {
				hdr, err := next(2)
				if err != nil {
					return nil, err
				}
				switch SeedKind(hdr[0]) {
				case SeedLiteral:
					b, err := next(int(hdr[1]))
					if err != nil {
						return nil, err
					}
					seeds = append(seeds, LiteralSeed(append([]byte(nil), b...)))
				case SeedAccountKey:
					seeds = append(seeds, AccountKeySeed(hdr[1]))
				default:
					return nil, fmt.Errorf("%w: seed kind %d", ErrInvalidExtraAccountMeta, hdr[0])
				}
			}
			metas = append(metas, SeedMeta(seeds...))
		default:
			return nil, fmt.Errorf("%w: meta kind %d", ErrInvalidExtraAccountMeta, kind[0])
		}
	}
	if len(r) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidExtraAccountMeta, len(r))
	}
	return metas, nil
}

// ResolveExtraAccounts turns metas into addresses. Seed indexes refer to base followed by
// the extras resolved so far.
func ResolveExtraAccounts(metas []ExtraAccountMeta, base []address.Address, hookProgram address.Address) ([]address.Address, error) {
	all := append([]address.Address(nil), base...)
	for i, m := range metas {
		if len(m.Seeds) == 0 {
			all = append(all, m.Address)
			continue
		}
		seeds := make([][]byte, 0, len(m.Seeds))
		for _, s := range m.Seeds {
			switch s.Kind {
			case SeedLiteral:
				seeds = append(seeds, s.Bytes)
			case SeedAccountKey:
				if int(s.Index) >= len(all) {
					return nil, fmt.Errorf("%w: meta %d refers to account %d of %d", ErrInvalidExtraAccountMeta, i, s.Index, len(all))
				}
				seeds = append(seeds, all[s.Index].Bytes())
			}
		}
		pda, _, err := address.FindProgramAddress(seeds, hookProgram)
		if err != nil {
			return nil, fmt.Errorf("%w: meta %d: %v", ErrInvalidExtraAccountMeta, i, err)
		}
		all = append(all, pda)
	}
	return all[len(base):], nil
}
