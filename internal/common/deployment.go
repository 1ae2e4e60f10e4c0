package common

import (
	"fmt"
	"os"
	"path/filepath"

	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/rent"
	"transfer-hook-vault-go/internal/whitelist"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

func resolvePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(wd, file), nil
}

func LoadDeployment(deploymentFile string) (*models.Deployment, error) {
	path, err := resolvePath(deploymentFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", deploymentFile, err)
	}

	var deployment models.Deployment
	if err := yaml.Unmarshal(data, &deployment); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", deploymentFile, err)
	}

	if _, err := whitelist.ParseMode(deployment.Mode); err != nil {
		return nil, fmt.Errorf("%s: %w", deploymentFile, err)
	}
	if deployment.Mint.IsZero() {
		return nil, fmt.Errorf("%s: missing mint", deploymentFile)
	}
	if deployment.Admin.IsZero() {
		return nil, fmt.Errorf("%s: missing admin", deploymentFile)
	}
	for i, u := range deployment.Users {
		if u.Name == "" {
			return nil, fmt.Errorf("user at index %d missing name", i)
		}
		if u.Address.IsZero() {
			return nil, fmt.Errorf("user %q missing address", u.Name)
		}
	}

	return &deployment, nil
}

func SaveDeployment(deploymentFile string, deployment *models.Deployment) error {
	path, err := resolvePath(deploymentFile)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(deployment)
	if err != nil {
		return fmt.Errorf("unable to encode deployment: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write %s: %w", deploymentFile, err)
	}
	return nil
}

// RentSchedule applies the deployment's overrides to the default schedule
func RentSchedule(deployment *models.Deployment) (rent.Schedule, error) {
	schedule := rent.Default()
	if deployment == nil {
		return schedule, nil
	}

	overrides := deployment.Rent
	if overrides.LamportsPerByteYear != 0 {
		schedule.LamportsPerByteYear = overrides.LamportsPerByteYear
	}
	if overrides.StorageOverhead != 0 {
		schedule.StorageOverhead = overrides.StorageOverhead
	}
	if overrides.ExemptionThreshold != "" {
		threshold, err := decimal.NewFromString(overrides.ExemptionThreshold)
		if err != nil {
			return schedule, fmt.Errorf("invalid exemption threshold %q: %w", overrides.ExemptionThreshold, err)
		}
		if threshold.IsNegative() {
			return schedule, fmt.Errorf("exemption threshold must not be negative: %s", threshold)
		}
		schedule.ExemptionThreshold = threshold
	}
	return schedule, nil
}
