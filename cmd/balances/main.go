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

	"transfer-hook-vault-go/internal/api"
	"transfer-hook-vault-go/internal/common"
	"transfer-hook-vault-go/internal/config"
	"transfer-hook-vault-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers        int
	usersWithBalances int
	transactions      int
}

func formatTransactionId(txId string) string {
	if txId == "" {
		return "none"
	}
	if len(txId) > 8 {
		return txId[:8] + "..."
	}
	return txId
}

func printTransaction(tx models.Transaction, isLast bool) {
	fmt.Printf("%s %-10s %20s -> %20s (ref: %s, tx: %s, at: %s)\n",
		common.BoxPrefix(isLast),
		tx.TransactionType,
		tx.Amount.String(),
		tx.BalanceAfter.String(),
		tx.Reference,
		formatTransactionId(tx.ExternalTransactionId),
		tx.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printUserHeader(user models.DeploymentUser, balance *models.LedgerBalance) {
	fmt.Printf("\n┌─ User: %s\n", user.Name)
	fmt.Printf("│  Address: %s\n", user.Address)
	fmt.Printf("│  Record:  %s (v%d, %d lamports)\n", balance.Record, balance.Version, balance.Lamports)
	fmt.Printf("│  Balance: %s\n", balance.Formatted.String())
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, user models.DeploymentUser, ledger *api.LedgerService, history int) (*models.LedgerBalance, int, error) {
	balance, err := ledger.GetBalance(ctx, user.Address)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get balance: %w", err)
	}

	transactions, err := ledger.GetTransactionHistory(ctx, user.Address, history, 0)
	if err != nil {
		return nil, 0, err
	}

	printUserHeader(user, balance)
	for i, tx := range transactions {
		printTransaction(tx, i == len(transactions)-1)
	}
	return balance, len(transactions), nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "Filter by user name or address (optional)")
	historyFlag := flag.Int("history", 5, "Recent transactions to show per user")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	users, err := common.InitializeUsers(services.Deployment, *userFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("LEDGER BALANCE REPORT", common.DefaultWidth)

	stats := balanceStats{}
	for _, user := range users {
		stats.totalUsers++
		balance, count, err := processUser(ctx, user, services.Ledger, *historyFlag)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user", user.Address.String()),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}
		if balance.Balance > 0 {
			stats.usersWithBalances++
		}
		stats.transactions += count
	}

	report, err := services.Ledger.CheckHolding(ctx)
	if err != nil {
		logger.Fatal("Failed to check holding account", zap.Error(err))
	}

	summary := fmt.Sprintf("SUMMARY: %d of %d users hold a balance, holding %s vs liabilities %s (covered: %t)",
		stats.usersWithBalances, stats.totalUsers, report.Holding, report.Liabilities, report.Covered)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_balances", stats.usersWithBalances),
		zap.Int("transactions_shown", stats.transactions))
}
