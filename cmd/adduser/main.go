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

package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/common"
	"transfer-hook-vault-go/internal/config"
	"transfer-hook-vault-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const lamportsPerSol = 1_000_000_000

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]+$`)

func validateName(deployment *models.Deployment, name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid name format: %s", name)
	}
	if _, exists := deployment.FindUser(name); exists {
		return fmt.Errorf("user %q already exists", name)
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "User name (required)")
	tokensFlag := flag.String("tokens", "0", "Tokens minted into the user's token account")
	solFlag := flag.Uint64("sol", 1, "Lamports (in SOL) airdropped to the user")
	whitelistFlag := flag.Bool("whitelist", true, "Add the user to the vault whitelist")
	flag.Parse()

	if *nameFlag == "" {
		zap.L().Fatal("Flag is required: --name")
	}

	tokens, err := decimal.NewFromString(*tokensFlag)
	if err != nil || tokens.IsNegative() {
		zap.L().Fatal("Invalid token amount", zap.String("tokens", *tokensFlag))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Initializing services")
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if err := validateName(services.Deployment, *nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}

	user := models.DeploymentUser{Name: *nameFlag, Address: address.NewUnique()}
	zap.L().Info("Provisioning user",
		zap.String("name", user.Name),
		zap.String("address", user.Address.String()))

	result, err := services.Ledger.ProvisionUser(ctx, user.Address, *solFlag*lamportsPerSol, tokens, *whitelistFlag)
	if err != nil {
		zap.L().Fatal("Failed to provision user", zap.Error(err))
	}
	if !result.Success {
		zap.L().Fatal("User provisioning rejected",
			zap.String("error", result.Error),
			zap.Uint32("error_code", result.ErrorCode))
	}

	services.Deployment.Users = append(services.Deployment.Users, user)
	if err := common.SaveDeployment(cfg.DeploymentFile, services.Deployment); err != nil {
		zap.L().Fatal("Failed to save deployment", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("Name:         %s\n", user.Name)
	fmt.Printf("Address:      %s\n", user.Address)
	fmt.Printf("Tokens:       %s\n", tokens)
	fmt.Printf("Whitelisted:  %t\n", *whitelistFlag)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("User created successfully", zap.String("name", user.Name))
}
