package models

import (
	"transfer-hook-vault-go/internal/address"
)

// Deployment describes one vault deployment: its asset, administrator and known users
type Deployment struct {
	Mode     string           `yaml:"mode"`
	Mint     address.Address  `yaml:"mint"`
	Admin    address.Address  `yaml:"admin"`
	Decimals uint8            `yaml:"decimals"`
	Rent     RentConfig       `yaml:"rent,omitempty"`
	Users    []DeploymentUser `yaml:"users,omitempty"`
}

// RentConfig overrides the default storage-cost schedule. Zero values keep the default.
type RentConfig struct {
	LamportsPerByteYear uint64 `yaml:"lamports_per_byte_year,omitempty"`
	ExemptionThreshold  string `yaml:"exemption_threshold,omitempty"`
	StorageOverhead     uint64 `yaml:"storage_overhead,omitempty"`
}

type DeploymentUser struct {
	Name    string          `yaml:"name"`
	Address address.Address `yaml:"address"`
}

// FindUser looks a user up by name or by address string
func (d *Deployment) FindUser(key string) (*DeploymentUser, bool) {
	for i := range d.Users {
		if d.Users[i].Name == key || d.Users[i].Address.String() == key {
			return &d.Users[i], true
		}
	}
	return nil, false
}

// UserName returns the configured name for addr, or its short form
func (d *Deployment) UserName(addr address.Address) string {
	for _, u := range d.Users {
		if u.Address == addr {
			return u.Name
		}
	}
	return addr.Short()
}
