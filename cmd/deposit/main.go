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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "User name or address (required)")
	amountFlag := flag.String("amount", "", "Amount to deposit (required)")
	flag.Parse()

	if *userFlag == "" || *amountFlag == "" {
		zap.L().Fatal("All flags are required: --user, --amount")
	}
	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		zap.L().Fatal("Invalid amount", zap.String("amount", *amountFlag))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := common.ResolveUser(services.Deployment, *userFlag)
	if err != nil {
		zap.L().Fatal("User not found", zap.String("user", *userFlag), zap.Error(err))
	}

	held, err := services.Ledger.GetTokenBalance(ctx, user.Address)
	if err != nil {
		zap.L().Fatal("Failed to read token balance", zap.Error(err))
	}
	common.PrintHeader("DEPOSIT REQUEST", common.DefaultWidth)
	fmt.Printf("User:            %s (%s)\n", user.Name, user.Address.Short())
	fmt.Printf("Token Balance:   %s\n", held.String())
	fmt.Printf("Deposit Amount:  %s\n", amount.String())
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	result, err := services.Ledger.Deposit(ctx, user.Address, amount)
	if err != nil {
		zap.L().Fatal("Deposit failed", zap.Error(err))
	}

	common.PrintOperationResult("DEPOSIT", result, common.DefaultWidth)
	if !result.Success {
		services.Close()
		loggerCleanup()
		os.Exit(1)
	}
}
