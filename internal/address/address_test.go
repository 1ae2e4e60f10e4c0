package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	a := NewUnique()

	parsed, err := Parse(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse("zz")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = Parse("abcd")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestFindProgramAddressIsDeterministic(t *testing.T) {
	program := FromName("test-program")
	principal := NewUnique()
	seeds := [][]byte{[]byte("user"), principal.Bytes()}

	first, bump, err := FindProgramAddress(seeds, program)
	require.NoError(t, err)

	second, bump2, err := FindProgramAddress(seeds, program)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, bump, bump2)

	recreated, err := CreateProgramAddress(seeds, bump, program)
	require.NoError(t, err)
	assert.Equal(t, first, recreated)
	assert.False(t, isOnCurve(first))
}

func TestFindProgramAddressDependsOnProgram(t *testing.T) {
	seeds := [][]byte{[]byte("vault")}
	a, _ := MustFindProgramAddress(seeds, FromName("program-a"))
	b, _ := MustFindProgramAddress(seeds, FromName("program-b"))
	assert.NotEqual(t, a, b)
}

func TestCreateProgramAddressRejectsLongSeed(t *testing.T) {
	_, err := CreateProgramAddress([][]byte{make([]byte, MaxSeedLen+1)}, 255, FromName("p"))
	assert.ErrorIs(t, err, ErrInvalidSeeds)
}

func TestNewUniqueIsOnCurve(t *testing.T) {
	assert.True(t, isOnCurve(NewUnique()))
}

func TestTextMarshalling(t *testing.T) {
	a := NewUnique()
	text, err := a.MarshalText()
	require.NoError(t, err)

	var b Address
	require.NoError(t, b.UnmarshalText(text))
	assert.Equal(t, a, b)
}
