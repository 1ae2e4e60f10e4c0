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


package address

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/sha3"
)

const (
	// Size is the width of an address in bytes
	Size = 32

	// MaxSeeds and MaxSeedLen bound program-derived address inputs
	MaxSeeds   = 16
	MaxSeedLen = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidSeeds   = errors.New("invalid seeds")
	ErrOnCurve        = errors.New("derived address lies on the ed25519 curve")
	ErrNoViableBump   = errors.New("unable to find a viable program address bump")
)

// Address identifies a principal, a program or an account.
type Address [Size]byte

// Zero is the all-zero address
var Zero Address

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns an abbreviated form for console output
func (a Address) Short() string {
	s := a.String()
	return s[:8] + "..." + s[len(s)-4:]
}

func (a Address) IsZero() bool {
	return a == Zero
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Parse decodes the hex form produced by String
func Parse(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %q (%v)", ErrInvalidAddress, s, err)
	}
	if len(raw) != Size {
		return a, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, Size, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// MustParse is Parse for constants and tests
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromBytes copies the first Size bytes of b
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) < Size {
		return a, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidAddress, Size, len(b))
	}
	copy(a[:], b[:Size])
	return a, nil
}

// NewUnique returns the public key of a freshly generated ed25519 keypair.
func NewUnique() Address {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(fmt.Sprintf("unable to generate keypair: %v", err))
	}
	var a Address
	copy(a[:], pub)
	return a
}

// FromName deterministically maps a well-known name to an address. Used for program ids.
func FromName(name string) Address {
	var a Address
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	copy(a[:], h.Sum(nil))
	return a
}

// CreateProgramAddress derives the address owned by programID for the given seeds and bump.
// The result must not be a valid ed25519 point so that no private key can sign for it.
func CreateProgramAddress(seeds [][]byte, bump uint8, programID Address) (Address, error) {
	var a Address
	if len(seeds)+1 > MaxSeeds {
		return a, fmt.Errorf("%w: %d seeds exceeds maximum of %d", ErrInvalidSeeds, len(seeds)+1, MaxSeeds)
	}

	h := sha3.NewLegacyKeccak256()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return a, fmt.Errorf("%w: seed of %d bytes exceeds %d", ErrInvalidSeeds, len(seed), MaxSeedLen)
		}
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))
	copy(a[:], h.Sum(nil))

	if isOnCurve(a) {
		return Address{}, ErrOnCurve
	}
	return a, nil
}

// FindProgramAddress searches bumps from 255 downwards and returns the first off-curve address.
func FindProgramAddress(seeds [][]byte, programID Address) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		a, err := CreateProgramAddress(seeds, uint8(bump), programID)
		if err == nil {
			return a, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}

// MustFindProgramAddress panics when derivation fails; seeds are package constants at call sites.
func MustFindProgramAddress(seeds [][]byte, programID Address) (Address, uint8) {
	a, bump, err := FindProgramAddress(seeds, programID)
	if err != nil {
		panic(err)
	}
	return a, bump
}

func isOnCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}

// Discriminator returns the 8-byte keccak prefix used to tag account layouts and instructions.
func Discriminator(namespace, name string) [8]byte {
	var d [8]byte
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(namespace + ":" + name))
	copy(d[:], h.Sum(nil))
	return d
}
