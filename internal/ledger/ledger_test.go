package ledger

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditOverflowRejected(t *testing.T) {
	got, err := Credit(math.MaxUint64-5, 6)
	assert.ErrorIs(t, err, ErrBalanceOverflow)
	assert.Equal(t, uint64(math.MaxUint64-5), got)

	got, err = Credit(math.MaxUint64-5, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got)
}

func TestDebitUnderflowRejected(t *testing.T) {
	_, err := Debit(10, 11)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	got, err := Debit(10, 10)
	require.NoError(t, err)
	assert.Zero(t, got)
}

// Random interleavings near the u64 bounds must never wrap and must always equal
// the sum of accepted credits minus accepted debits.
func TestRandomInterleavingsNeverWrap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		var record UserRecord
		var credited, debited decimal.Decimal

		for step := 0; step < 50; step++ {
			var amount uint64
			switch rng.Intn(3) {
			case 0:
				amount = rng.Uint64()
			case 1:
				amount = math.MaxUint64 - uint64(rng.Intn(1000))
			default:
				amount = uint64(rng.Intn(1_000_000))
			}

			before := record.Balance
			if rng.Intn(2) == 0 {
				if err := record.Credit(amount); err != nil {
					require.ErrorIs(t, err, ErrBalanceOverflow)
					require.Equal(t, before, record.Balance)
					continue
				}
				require.GreaterOrEqual(t, record.Balance, before)
				credited = credited.Add(decimal.NewFromBigInt(newUint(amount), 0))
			} else {
				if err := record.Debit(amount); err != nil {
					require.ErrorIs(t, err, ErrInsufficientBalance)
					require.Equal(t, before, record.Balance)
					continue
				}
				require.LessOrEqual(t, record.Balance, before)
				debited = debited.Add(decimal.NewFromBigInt(newUint(amount), 0))
			}

			expected := credited.Sub(debited)
			require.True(t, expected.Equal(decimal.NewFromBigInt(newUint(record.Balance), 0)),
				"balance %d diverged from history %s", record.Balance, expected)
		}
	}
}

func TestUserRecordCodec(t *testing.T) {
	record := &UserRecord{Balance: 10_000_000_000, Bump: 254}

	decoded, err := DecodeUserRecord(record.Encode())
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
	assert.True(t, IsUserRecord(record.Encode()))

	_, err = DecodeUserRecord([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	corrupt := record.Encode()
	corrupt[0] ^= 0xff
	_, err = DecodeUserRecord(corrupt)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestFormatAndParseAmount(t *testing.T) {
	assert.Equal(t, "10", FormatAmount(10_000_000_000, 9).String())
	assert.Equal(t, "0.000000001", FormatAmount(1, 9).String())

	units, err := ParseAmount("10.5", 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_500_000_000), units)

	_, err = ParseAmount("0.0000000001", 9)
	assert.Error(t, err)

	_, err = ParseAmount("-1", 9)
	assert.Error(t, err)

	_, err = ParseAmount("100000000000", 9)
	assert.ErrorIs(t, err, ErrBalanceOverflow)
}

func newUint(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
