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


package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"math/bits"

	"transfer-hook-vault-go/internal/address"

	"github.com/shopspring/decimal"
)

var (
	ErrBalanceOverflow     = errors.New("balance overflow")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidRecord       = errors.New("invalid user record")
)

// UserRecordDiscriminator tags UserRecord account data
var UserRecordDiscriminator = address.Discriminator("account", "User")

// UserRecordSize is the encoded length of a UserRecord
const UserRecordSize = 8 + 8 + 1

// Credit adds amount to balance and rejects on overflow instead of wrapping.
func Credit(balance, amount uint64) (uint64, error) {
	sum, carry := bits.Add64(balance, amount, 0)
	if carry != 0 {
		return balance, fmt.Errorf("%w: %d + %d", ErrBalanceOverflow, balance, amount)
	}
	return sum, nil
}

// Debit subtracts amount from balance and rejects when the balance would go negative.
func Debit(balance, amount uint64) (uint64, error) {
	diff, borrow := bits.Sub64(balance, amount, 0)
	if borrow != 0 {
		return balance, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, balance, amount)
	}
	return diff, nil
}

// UserRecord is the per-principal ledger entry.
type UserRecord struct {
	Balance uint64
	Bump    uint8
}

// Credit applies a deposit; the record is unchanged on failure
func (r *UserRecord) Credit(amount uint64) error {
	next, err := Credit(r.Balance, amount)
	if err != nil {
		return err
	}
	r.Balance = next
	return nil
}

// Debit applies a withdrawal; the record is unchanged on failure
func (r *UserRecord) Debit(amount uint64) error {
	next, err := Debit(r.Balance, amount)
	if err != nil {
		return err
	}
	r.Balance = next
	return nil
}

func (r *UserRecord) Encode() []byte {
	buf := make([]byte, UserRecordSize)
	copy(buf[:8], UserRecordDiscriminator[:])
	binary.LittleEndian.PutUint64(buf[8:16], r.Balance)
	buf[16] = r.Bump
	return buf
}

func DecodeUserRecord(data []byte) (*UserRecord, error) {
	if len(data) < UserRecordSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidRecord, len(data))
	}
	if [8]byte(data[:8]) != UserRecordDiscriminator {
		return nil, fmt.Errorf("%w: discriminator mismatch", ErrInvalidRecord)
	}
	return &UserRecord{
		Balance: binary.LittleEndian.Uint64(data[8:16]),
		Bump:    data[16],
	}, nil
}

// IsUserRecord reports whether data carries the UserRecord discriminator
func IsUserRecord(data []byte) bool {
	return len(data) >= 8 && [8]byte(data[:8]) == UserRecordDiscriminator
}

// FormatAmount converts base units into a decimal amount with the mint's precision.
func FormatAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// ParseAmount converts a human amount into base units, rejecting excess precision.
func ParseAmount(s string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative: %s", s)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", s, decimals)
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrBalanceOverflow, s)
	}
	return bi.Uint64(), nil
}
