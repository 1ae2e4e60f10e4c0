package common

import (
	"os"
	"path/filepath"
	"testing"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/rent"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadDeployment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.yaml")
	alice := address.NewUnique()
	deployment := &models.Deployment{
		Mode:     "list",
		Mint:     address.NewUnique(),
		Admin:    address.NewUnique(),
		Decimals: 6,
		Users:    []models.DeploymentUser{{Name: "alice", Address: alice}},
	}
	require.NoError(t, SaveDeployment(path, deployment))

	loaded, err := LoadDeployment(path)
	require.NoError(t, err)
	assert.Equal(t, deployment.Mint, loaded.Mint)
	assert.Equal(t, deployment.Admin, loaded.Admin)

	user, err := ResolveUser(loaded, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice, user.Address)

	byAddress, err := ResolveUser(loaded, alice.String())
	require.NoError(t, err)
	assert.Equal(t, "alice", byAddress.Name)

	_, err = ResolveUser(loaded, "mallory")
	assert.Error(t, err)
}

func TestLoadDeploymentValidation(t *testing.T) {
	mint := address.NewUnique().String()
	admin := address.NewUnique().String()

	tests := []struct {
		name string
		yaml string
	}{
		{"bad mode", "mode: ledger\nmint: " + mint + "\nadmin: " + admin + "\n"},
		{"missing mint", "mode: record\nadmin: " + admin + "\n"},
		{"missing admin", "mode: record\nmint: " + mint + "\n"},
		{"malformed address", "mode: record\nmint: xyz\nadmin: " + admin + "\n"},
		{"nameless user", "mode: record\nmint: " + mint + "\nadmin: " + admin + "\nusers:\n  - address: " + admin + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "vault.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := LoadDeployment(path)
			assert.Error(t, err)
		})
	}
}

func TestRentScheduleOverrides(t *testing.T) {
	schedule, err := RentSchedule(&models.Deployment{})
	require.NoError(t, err)
	assert.Equal(t, rent.Default().MinimumBalance(100), schedule.MinimumBalance(100))

	schedule, err = RentSchedule(&models.Deployment{Rent: models.RentConfig{
		LamportsPerByteYear: 10,
		ExemptionThreshold:  "1.5",
		StorageOverhead:     0,
	}})
	require.NoError(t, err)
	assert.True(t, schedule.ExemptionThreshold.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, uint64(3420), schedule.MinimumBalance(100))

	_, err = RentSchedule(&models.Deployment{Rent: models.RentConfig{ExemptionThreshold: "-1"}})
	assert.Error(t, err)
}
