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
	"os"

	"transfer-hook-vault-go/internal/common"
	"transfer-hook-vault-go/internal/config"
	"transfer-hook-vault-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type withdrawalRequest struct {
	user   string
	amount decimal.Decimal
}

func parseAndValidateFlags() (*withdrawalRequest, error) {
	userFlag := flag.String("user", "", "User name or address (required)")
	amountFlag := flag.String("amount", "", "Amount to withdraw (required)")
	flag.Parse()

	if *userFlag == "" || *amountFlag == "" {
		return nil, fmt.Errorf("all flags are required: --user, --amount")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &withdrawalRequest{user: *userFlag, amount: amount}, nil
}

func printWithdrawalSummary(user models.DeploymentUser, currentBalance, amount decimal.Decimal) {
	common.PrintHeader("WITHDRAWAL REQUEST", common.DefaultWidth)
	fmt.Printf("User:              %s (%s)\n", user.Name, user.Address.Short())
	fmt.Printf("Current Balance:   %s\n", currentBalance.String())
	fmt.Printf("Withdrawal Amount: %s\n", amount.String())
	fmt.Printf("Remaining Balance: %s\n", currentBalance.Sub(amount).String())
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
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

	user, err := common.ResolveUser(services.Deployment, req.user)
	if err != nil {
		zap.L().Fatal("User not found", zap.String("user", req.user), zap.Error(err))
	}

	balance, err := services.Ledger.GetBalance(ctx, user.Address)
	if err != nil {
		zap.L().Fatal("Failed to read balance", zap.Error(err))
	}
	printWithdrawalSummary(user, balance.Formatted, req.amount)

	// the vault rejects overdrafts itself, the batch is submitted regardless
	result, err := services.Ledger.Withdraw(ctx, user.Address, req.amount)
	if err != nil {
		zap.L().Fatal("Withdrawal failed", zap.Error(err))
	}

	common.PrintOperationResult("WITHDRAWAL", result, common.DefaultWidth)
	if !result.Success {
		services.Close()
		loggerCleanup()
		os.Exit(1)
	}
}
