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

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	addFlag := flag.String("add", "", "User name or address to whitelist")
	removeFlag := flag.String("remove", "", "User name or address to remove from the whitelist")
	listFlag := flag.Bool("list", false, "Print whitelist membership of every configured user")
	flag.Parse()

	if (*addFlag == "") == (*removeFlag == "") && !*listFlag {
		zap.L().Fatal("Exactly one of --add or --remove is required (or --list)")
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

	if *listFlag {
		common.PrintHeader(fmt.Sprintf("WHITELIST (%s mode)", services.Ledger.Mode()), common.DefaultWidth)
		for i, u := range services.Deployment.Users {
			listed, err := services.Ledger.IsWhitelisted(ctx, u.Address)
			if err != nil {
				zap.L().Fatal("Failed to read whitelist", zap.Error(err))
			}
			fmt.Printf("%s%-16s %s  whitelisted=%t\n", common.BoxPrefix(i == len(services.Deployment.Users)-1), u.Name, u.Address.Short(), listed)
		}
		common.PrintSeparator("=", common.DefaultWidth)
		return
	}

	key, add := *addFlag, true
	if key == "" {
		key, add = *removeFlag, false
	}
	user, err := common.ResolveUser(services.Deployment, key)
	if err != nil {
		zap.L().Fatal("User not found", zap.String("user", key), zap.Error(err))
	}

	var result *models.OperationResult
	if add {
		result, err = services.Ledger.AddToWhitelist(ctx, user.Address)
	} else {
		result, err = services.Ledger.RemoveFromWhitelist(ctx, user.Address)
	}
	if err != nil {
		zap.L().Fatal("Whitelist update failed", zap.Error(err))
	}

	common.PrintOperationResult("WHITELIST UPDATE", result, common.DefaultWidth)
	if !result.Success {
		services.Close()
		loggerCleanup()
		os.Exit(1)
	}
}
