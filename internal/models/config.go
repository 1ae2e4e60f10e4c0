package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Monitor  MonitorConfig
	Formance FormanceConfig
	// DeploymentFile points at the yaml describing the vault deployment
	DeploymentFile string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// MonitorConfig holds reconciliation monitor settings
type MonitorConfig struct {
	PollingInterval time.Duration
	Concurrency     int
	HaltOnDrift     bool
}

// FormanceConfig holds settings for mirroring the journal into a Formance Stack ledger
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
	AssetSymbol  string
}

// Enabled reports whether stack credentials are present
func (c FormanceConfig) Enabled() bool {
	return c.StackURL != "" && c.ClientID != "" && c.ClientSecret != ""
}
