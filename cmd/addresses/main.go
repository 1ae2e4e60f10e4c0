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

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/common"
	"transfer-hook-vault-go/internal/config"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/store"
	"transfer-hook-vault-go/internal/token"
	"transfer-hook-vault-go/internal/vault"

	"go.uber.org/zap"
)

type reportStats struct {
	totalUsers       int
	totalAccounts    int
	existingAccounts int
}

type labeledAddress struct {
	label string
	addr  address.Address
}

// printAddresses prints each address and whether an account exists there
func printAddresses(ctx context.Context, entries []labeledAddress, dbService store.LedgerStore, stats *reportStats) {
	for i, e := range entries {
		isLast := i == len(entries)-1
		fmt.Printf("%s %-22s → %s\n", common.BoxPrefix(isLast), e.label, e.addr)

		stats.totalAccounts++
		acc, err := dbService.GetAccount(ctx, e.addr)
		if err != nil {
			fmt.Printf("%s   (no account)\n", common.BoxDetailPrefix(isLast))
			continue
		}
		stats.existingAccounts++
		fmt.Printf("%s   owner %s, %d lamports, %d bytes\n",
			common.BoxDetailPrefix(isLast), acc.Owner.Short(), acc.Lamports, len(acc.Data))
	}
}

func deploymentAddresses(deployment *models.Deployment) []labeledAddress {
	vaultAddr, _ := vault.VaultAddress()
	return []labeledAddress{
		{"vault program", vault.ProgramID},
		{"token program", token.ProgramID},
		{"mint", deployment.Mint},
		{"admin", deployment.Admin},
		{"vault", vaultAddr},
		{"holding", vault.HoldingAddress(deployment.Mint)},
		{"extra account metas", vault.ExtraAccountMetasAddress(deployment.Mint)},
		{"registry", vault.RegistryAddress()},
	}
}

func userAddresses(deployment *models.Deployment, user models.DeploymentUser) []labeledAddress {
	ata, _ := token.AssociatedAddress(user.Address, deployment.Mint)
	return []labeledAddress{
		{"principal", user.Address},
		{"token account", ata},
		{"ledger record", vault.UserRecordAddress(user.Address)},
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "Filter by user name or address (optional)")
	flag.Parse()

	logger.Info("Starting address query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	deployment, err := common.LoadDeployment(cfg.DeploymentFile)
	if err != nil {
		logger.Fatal("Failed to load deployment", zap.Error(err))
	}

	// read-only, the runtime is not needed
	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	users, err := common.InitializeUsers(deployment, *userFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	stats := reportStats{}
	common.PrintHeader(fmt.Sprintf("VAULT ADDRESSES (%s mode)", deployment.Mode), common.WideWidth)
	fmt.Println("\n┌─ Deployment")
	common.PrintBoxSeparator(98)
	printAddresses(ctx, deploymentAddresses(deployment), dbService, &stats)

	for _, user := range users {
		stats.totalUsers++
		fmt.Printf("\n┌─ User: %s\n", user.Name)
		common.PrintBoxSeparator(98)
		printAddresses(ctx, userAddresses(deployment, user), dbService, &stats)
	}

	summary := fmt.Sprintf("SUMMARY: %d of %d derived accounts exist (%d users queried)",
		stats.existingAccounts, stats.totalAccounts, stats.totalUsers)
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Address query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("accounts", stats.totalAccounts),
		zap.Int("existing_accounts", stats.existingAccounts))
}
